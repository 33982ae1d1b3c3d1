package zecprobe

import "fmt"

// wireMessage is implemented by ChainSpec and BlockID; it lets the codec
// stay generic without depending on generated proto descriptors.
type wireMessage interface {
	Marshal() ([]byte, error)
	Unmarshal([]byte) error
}

// codec implements grpc/encoding.Codec against wireMessage, standing in for
// the protoc-generated codec a real lightwalletd client would use.
type codec struct{}

// codecName must not collide with grpc-go's built-in "proto" codec, which
// expects google.golang.org/protobuf's proto.Message. Calls opt in to this
// codec explicitly via grpc.CallContentSubtype.
const codecName = "hoshzec"

func (codec) Name() string { return codecName }

func (codec) Marshal(v interface{}) ([]byte, error) {
	// Marshal has a value receiver on both messages, so values (ChainSpec{},
	// BlockID{}) are accepted here as well as pointers.
	m, ok := v.(interface{ Marshal() ([]byte, error) })
	if !ok {
		return nil, fmt.Errorf("zecprobe: %T has no Marshal method", v)
	}
	return m.Marshal()
}

func (codec) Unmarshal(data []byte, v interface{}) error {
	m, ok := v.(wireMessage)
	if !ok {
		return fmt.Errorf("zecprobe: %T does not implement wireMessage", v)
	}
	return m.Unmarshal(data)
}
