package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOnlineResultIsWellFormed(t *testing.T) {
	req := NewCheckRequest("electrum.example.org", 50002, ModuleBTC, false, nil)
	res := Online(req, 12.5, ElectrumResponseData{}, "checker-1", "us-east", time.Now())
	require.True(t, res.WellFormed())
	require.Equal(t, StatusOnline, res.Status)
	require.Nil(t, res.ErrorKind)
}

func TestOfflineResultIsWellFormed(t *testing.T) {
	req := NewCheckRequest("electrum.example.org", 50002, ModuleBTC, false, nil)
	res := Offline(req, ErrorHostUnreachable, "checker-1", "us-east", time.Now())
	require.True(t, res.WellFormed())
	require.Equal(t, StatusOffline, res.Status)
	require.Nil(t, res.PingMS)
	require.NotNil(t, res.ErrorKind)
}

func TestMalformedResultsAreRejected(t *testing.T) {
	online := ProbeResult{Status: StatusOnline, PingMS: nil}
	require.False(t, online.WellFormed(), "online with nil ping_ms must be rejected")

	kind := ErrorTimeout
	onlineWithErr := ProbeResult{Status: StatusOnline, PingMS: floatPtr(1), ErrorKind: &kind}
	require.False(t, onlineWithErr.WellFormed(), "online status must not carry an error_kind")

	offlineNoErr := ProbeResult{Status: StatusOffline}
	require.False(t, offlineNoErr.WellFormed(), "offline status must carry an error_kind")
}

func TestTargetInFlight(t *testing.T) {
	now := time.Now()
	queued := now.Add(-30 * time.Second)
	checked := now.Add(-5 * time.Minute)

	t1 := Target{LastQueuedAt: &queued, LastCheckedAt: &checked}
	require.True(t, t1.InFlight(now, 120*time.Second))

	t2 := Target{LastQueuedAt: &queued, LastCheckedAt: &checked}
	require.False(t, t2.InFlight(now, 10*time.Second), "ttl already elapsed")

	checkedAfterQueue := now.Add(-1 * time.Second)
	t3 := Target{LastQueuedAt: &queued, LastCheckedAt: &checkedAfterQueue}
	require.False(t, t3.InFlight(now, 120*time.Second), "check already completed after the queue time")
}

func floatPtr(f float64) *float64 { return &f }
