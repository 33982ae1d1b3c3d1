// Package zecprobe implements the lightwalletd probe: a single gRPC call,
// GetLatestBlock, against a Zcash lightwalletd endpoint. The RPC surface
// used here is tiny enough that it is hand-encoded against the protobuf
// wire format rather than generated from a .proto file, since no protoc
// toolchain runs as part of building this repository.
package zecprobe

import (
	"encoding/binary"
	"errors"

	"github.com/golang/protobuf/proto"
)

var errTruncated = errors.New("zecprobe: truncated protobuf message")

// ChainSpec is lightwalletd's empty request message for GetLatestBlock.
type ChainSpec struct{}

func (ChainSpec) Marshal() ([]byte, error) { return nil, nil }
func (c *ChainSpec) Unmarshal(_ []byte) error {
	return nil
}
func (ChainSpec) Reset()         {}
func (ChainSpec) String() string { return "ChainSpec{}" }
func (ChainSpec) ProtoMessage()  {}

// Neither message is generated from a .proto file, but both satisfy
// proto.Message's marker shape (Reset/String/ProtoMessage) so they can be
// type-asserted the same way a generated message would be wherever the
// rest of the codebase expects proto.Message.
var (
	_ proto.Message = (*ChainSpec)(nil)
	_ proto.Message = (*BlockID)(nil)
)

// BlockID mirrors lightwalletd's BlockID message: field 1 is the block
// height, field 2 is the block hash (little-endian, display-reversed like
// a Bitcoin block hash).
type BlockID struct {
	Height uint64
	Hash   []byte
}

func (b BlockID) Marshal() ([]byte, error) {
	var out []byte
	if b.Height != 0 {
		out = appendTag(out, 1, wireVarint)
		out = appendVarint(out, b.Height)
	}
	if len(b.Hash) > 0 {
		out = appendTag(out, 2, wireBytes)
		out = appendVarint(out, uint64(len(b.Hash)))
		out = append(out, b.Hash...)
	}
	return out, nil
}

func (b *BlockID) Unmarshal(data []byte) error {
	for len(data) > 0 {
		tag, wireType, n, err := readTag(data)
		if err != nil {
			return err
		}
		data = data[n:]

		switch wireType {
		case wireVarint:
			v, n, err := readVarint(data)
			if err != nil {
				return err
			}
			data = data[n:]
			if tag == 1 {
				b.Height = v
			}
		case wireBytes:
			l, n, err := readVarint(data)
			if err != nil {
				return err
			}
			data = data[n:]
			if uint64(len(data)) < l {
				return errTruncated
			}
			if tag == 2 {
				b.Hash = append([]byte(nil), data[:l]...)
			}
			data = data[l:]
		default:
			return errors.New("zecprobe: unsupported wire type")
		}
	}
	return nil
}

func (BlockID) Reset()         {}
func (BlockID) String() string { return "BlockID{}" }
func (BlockID) ProtoMessage()  {}

const (
	wireVarint = 0
	wireBytes  = 2
)

func appendTag(out []byte, field int, wireType int) []byte {
	return appendVarint(out, uint64(field)<<3|uint64(wireType))
}

func appendVarint(out []byte, v uint64) []byte {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	return append(out, buf[:n]...)
}

func readVarint(data []byte) (uint64, int, error) {
	v, n := binary.Uvarint(data)
	if n <= 0 {
		return 0, 0, errTruncated
	}
	return v, n, nil
}

func readTag(data []byte) (field int, wireType int, n int, err error) {
	v, n, err := readVarint(data)
	if err != nil {
		return 0, 0, 0, err
	}
	return int(v >> 3), int(v & 0x7), n, nil
}
