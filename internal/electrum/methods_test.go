package electrum

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildAttemptsDefaultsMethodAndFallsBack(t *testing.T) {
	attempts := buildAttempts("ssl", "", nil)
	require.Len(t, attempts, 3)
	require.Equal(t, DefaultMethod, attempts[0].method)
	require.Equal(t, "server.features", attempts[1].method)
	require.Equal(t, "blockchain.numblocks.subscribe", attempts[2].method)
}

func TestBuildAttemptsSkipsDuplicateWhenRequestedMethodIsAFallback(t *testing.T) {
	attempts := buildAttempts("tcp", "server.features", []interface{}{})
	require.Len(t, attempts, 2)
	require.Equal(t, "server.features", attempts[0].method)
	require.Equal(t, "blockchain.numblocks.subscribe", attempts[1].method)
}

func TestHasResult(t *testing.T) {
	withResult := ResponseMessage{Result: []byte(`{"height":1}`)}
	require.True(t, withResult.HasResult())

	nullResult := ResponseMessage{Result: []byte(`null`)}
	require.False(t, nullResult.HasResult(), "a JSON null result must be treated as absent, per spec boundary behavior")

	noResult := ResponseMessage{}
	require.False(t, noResult.HasResult())
}
