package electrum

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// A synthetic but well-formed 80-byte (160 hex char) Bitcoin block header:
// version | prev_block (0x11 * 32) | merkle_root (0x22 * 32) | timestamp |
// bits | nonce.
const sampleHeaderHex = "0100000011111111111111111111111111111111111111111111111111111111111111112222222222222222222222222222222222222222222222222222222222222222333333334444444455555555"

func TestParseHeaderRoundTrip(t *testing.T) {
	require.Len(t, sampleHeaderHex, 160)

	hdr, err := ParseHeader(sampleHeaderHex)
	require.NoError(t, err)

	out, err := hdr.Serialize()
	require.NoError(t, err)
	require.Equal(t, sampleHeaderHex, out)
}

func TestParseHeaderBadLength(t *testing.T) {
	_, err := ParseHeader("abcd")
	require.ErrorIs(t, err, ErrBadHeaderLength)
}

func TestParseHeaderBadHex(t *testing.T) {
	// 160 chars but not valid hex.
	bad := "zz" + sampleHeaderHex[2:]
	_, err := ParseHeader(bad)
	require.Error(t, err)
}
