package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadWithNoFileOrEnvReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default().NATSURL, cfg.NATSURL)
	require.Equal(t, Default().WorkerConcurrency, cfg.WorkerConcurrency)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	os.Setenv("NATS_URL", "nats://overridden:4222")
	os.Setenv("WORKER_CONCURRENCY", "8")
	defer os.Unsetenv("NATS_URL")
	defer os.Unsetenv("WORKER_CONCURRENCY")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "nats://overridden:4222", cfg.NATSURL)
	require.Equal(t, 8, cfg.WorkerConcurrency)
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()
	require.Equal(t, 120*time.Second, cfg.CheckInterval())
	require.Equal(t, 45*time.Second, cfg.ProbeBudget())
}
