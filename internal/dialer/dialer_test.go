package dialer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsOnion(t *testing.T) {
	require.True(t, IsOnion("somehostnamehere.onion"))
	require.True(t, IsOnion("SOMEHOSTNAMEHERE.ONION"))
	require.False(t, IsOnion("electrum.example.com"))
	require.False(t, IsOnion(""))
}

func TestNewOnionDefaults(t *testing.T) {
	o := NewOnion("", "")
	require.Equal(t, "tor", o.ProxyHost)
	require.Equal(t, "9050", o.ProxyPort)

	o = NewOnion("torproxy", "9150")
	require.Equal(t, "torproxy", o.ProxyHost)
	require.Equal(t, "9150", o.ProxyPort)
}

func TestForSelectsDialerByHostSuffix(t *testing.T) {
	require.IsType(t, Onion{}, For("abc123def456.onion", "", ""))
	require.IsType(t, Clearnet{}, For("electrum.example.com", "", ""))
}
