package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zecrocks/hosh/internal/model"
)

func TestTargetKeyFormat(t *testing.T) {
	require.Equal(t, "hosh:target:btc:electrum.example.com", targetKey(model.ModuleBTC, "electrum.example.com"))
	require.Equal(t, "hosh:target:zec:lightwalletd.example.com", targetKey(model.ModuleZEC, "lightwalletd.example.com"))
}

func TestIndexKeyFormat(t *testing.T) {
	require.Equal(t, "hosh:targets:btc", indexKey(model.ModuleBTC))
	require.Equal(t, "hosh:targets:http", indexKey(model.ModuleHTTP))
}
