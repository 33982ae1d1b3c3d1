package electrum

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseResultScalarIsHeight(t *testing.T) {
	_, height, _, _, err := parseResult(json.RawMessage(`840123`))
	require.NoError(t, err)
	require.NotNil(t, height)
	require.Equal(t, int64(840123), *height)
}

func TestParseResultHeaderHexIsParsed(t *testing.T) {
	raw := json.RawMessage(`{"hex":"` + sampleHeaderHex + `","height":840123}`)
	hdr, height, _, _, err := parseResult(raw)
	require.NoError(t, err)
	require.NotNil(t, hdr)
	require.NotNil(t, height)
	require.Equal(t, int64(840123), *height)
}

func TestParseResultServerFeaturesPassthrough(t *testing.T) {
	raw := json.RawMessage(`{"server_version":"ElectrumX 1.16.0","genesis_hash":"abc"}`)
	hdr, height, serverVersion, extra, err := parseResult(raw)
	require.NoError(t, err)
	require.Nil(t, hdr)
	require.Nil(t, height)
	require.Equal(t, "ElectrumX 1.16.0", serverVersion)
	require.Equal(t, "abc", extra["genesis_hash"])
}

func TestParseResultShortHexIsNotTreatedAsHeader(t *testing.T) {
	// A "hex" key shorter than 160 chars must not be parsed as a header;
	// it falls through to the generic object branch instead.
	raw := json.RawMessage(`{"hex":"deadbeef"}`)
	hdr, _, _, extra, err := parseResult(raw)
	require.NoError(t, err)
	require.Nil(t, hdr)
	require.Equal(t, "deadbeef", extra["hex"])
}
