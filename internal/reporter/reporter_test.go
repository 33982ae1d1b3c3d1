package reporter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCountersAccumulate(t *testing.T) {
	r := GetInstance()

	before := r.GetScheduled()
	r.IncScheduled()
	require.Equal(t, before+1, r.GetScheduled())

	beforeCompleted, beforeOnline, beforeOffline := r.GetCompleted(), r.GetOnline(), r.GetOffline()
	r.IncCompleted(true)
	require.Equal(t, beforeCompleted+1, r.GetCompleted())
	require.Equal(t, beforeOnline+1, r.GetOnline())
	require.Equal(t, beforeOffline, r.GetOffline())

	r.IncCompleted(false)
	require.Equal(t, beforeOffline+1, r.GetOffline())
}

func TestInFlightGaugeTracksIncDec(t *testing.T) {
	r := GetInstance()

	before := r.GetInFlight()
	r.IncInFlight()
	require.Equal(t, before+1, r.GetInFlight())
	r.DecInFlight()
	require.Equal(t, before, r.GetInFlight())
}

func TestGetInstanceReturnsSameSingleton(t *testing.T) {
	require.Same(t, GetInstance(), GetInstance())
}
