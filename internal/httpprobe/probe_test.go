package httpprobe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractJSONPath(t *testing.T) {
	body := []byte(`{"result":{"height":840123}}`)
	height, ok := extract(body, Extractor{JSONPaths: []string{"result.height"}})
	require.True(t, ok)
	require.Equal(t, int64(840123), height)
}

func TestExtractDefaultJSONPathsTriesResultThenData(t *testing.T) {
	result := []byte(`{"result":{"height":840123}}`)
	height, ok := extract(result, Extractor{})
	require.True(t, ok)
	require.Equal(t, int64(840123), height)

	data := []byte(`{"data":{"height":99001}}`)
	height, ok = extract(data, Extractor{})
	require.True(t, ok)
	require.Equal(t, int64(99001), height)
}

func TestExtractRegexFallback(t *testing.T) {
	body := []byte(`<html>Block Height: 123456</html>`)
	height, ok := extract(body, Extractor{})
	require.True(t, ok)
	require.Equal(t, int64(123456), height)
}

func TestExtractNoMatch(t *testing.T) {
	body := []byte(`<html>nothing here</html>`)
	_, ok := extract(body, Extractor{})
	require.False(t, ok)
}

func TestExtractJSONPathMissingFallsBackToRegex(t *testing.T) {
	body := []byte(`height: 99`)
	height, ok := extract(body, Extractor{JSONPaths: []string{"result.height"}})
	require.True(t, ok)
	require.Equal(t, int64(99), height)
}
