package zecprobe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlockIDRoundTrip(t *testing.T) {
	orig := BlockID{Height: 2500000, Hash: []byte{0xde, 0xad, 0xbe, 0xef}}

	data, err := orig.Marshal()
	require.NoError(t, err)

	var decoded BlockID
	require.NoError(t, decoded.Unmarshal(data))

	require.Equal(t, orig.Height, decoded.Height)
	require.Equal(t, orig.Hash, decoded.Hash)
}

func TestChainSpecMarshalsToEmptyMessage(t *testing.T) {
	data, err := ChainSpec{}.Marshal()
	require.NoError(t, err)
	require.Empty(t, data)
}

func TestCodecRoundTrip(t *testing.T) {
	c := codec{}
	orig := BlockID{Height: 42}

	data, err := c.Marshal(orig)
	require.NoError(t, err)

	var decoded BlockID
	require.NoError(t, c.Unmarshal(data, &decoded))
	require.Equal(t, uint64(42), decoded.Height)
}
