package electrum

import (
	"bytes"
	"encoding/hex"
	"errors"
	"time"

	"github.com/btcsuite/btcd/wire"
)

// ErrBadHeaderLength is returned when header hex is not exactly 160 hex
// chars (80 bytes), per spec §8's boundary behavior.
var ErrBadHeaderLength = errors.New("electrum: header hex must be 160 hex characters")

// ParsedHeader is the flattened form of a parsed 80-byte Bitcoin block
// header, fields named per spec §3.
type ParsedHeader struct {
	Version      int32
	PrevBlock    string // reversed hex (big-endian display)
	MerkleRoot   string // reversed hex (big-endian display)
	Timestamp    int64
	TimestampISO string
	Bits         uint32
	Nonce        uint32
}

// ParseHeader decodes an 80-byte Bitcoin block header from its hex
// encoding, using the same wire.BlockHeader codec square-beancounter's
// Electrum backend already relies on for hex-decoded header bytes.
func ParseHeader(hexStr string) (*ParsedHeader, error) {
	if len(hexStr) != 160 {
		return nil, ErrBadHeaderLength
	}
	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, err
	}

	var hdr wire.BlockHeader
	if err := hdr.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, err
	}

	prev := reverseHex(hdr.PrevBlock[:])
	merkle := reverseHex(hdr.MerkleRoot[:])

	ts := hdr.Timestamp.UTC()

	return &ParsedHeader{
		Version:      hdr.Version,
		PrevBlock:    prev,
		MerkleRoot:   merkle,
		Timestamp:    ts.Unix(),
		TimestampISO: ts.Format(time.RFC3339),
		Bits:         hdr.Bits,
		Nonce:        hdr.Nonce,
	}, nil
}

// Serialize re-encodes a ParsedHeader back to its 80-byte hex form, used by
// the header round-trip property test.
func (h *ParsedHeader) Serialize() (string, error) {
	prevRaw, err := hex.DecodeString(h.PrevBlock)
	if err != nil {
		return "", err
	}
	merkleRaw, err := hex.DecodeString(h.MerkleRoot)
	if err != nil {
		return "", err
	}

	var prevHash, merkleHash [32]byte
	copy(prevHash[:], reverseBytes(prevRaw))
	copy(merkleHash[:], reverseBytes(merkleRaw))

	hdr := wire.BlockHeader{
		Version:    h.Version,
		PrevBlock:  prevHash,
		MerkleRoot: merkleHash,
		Timestamp:  time.Unix(h.Timestamp, 0).UTC(),
		Bits:       h.Bits,
		Nonce:      h.Nonce,
	}

	var buf bytes.Buffer
	if err := hdr.Serialize(&buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf.Bytes()), nil
}

func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}

func reverseHex(b []byte) string {
	return hex.EncodeToString(reverseBytes(b))
}
