// Package config loads runtime configuration from environment variables
// (authoritative, per spec §6) with an optional TOML file supplying local
// defaults, using koanf the way the retrieval pack's other NATS/Redis
// services do.
package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds every tunable the publisher and checker binaries need.
type Config struct {
	NATSURL    string
	NATSPrefix string

	TorProxyHost string
	TorProxyPort string

	RedisAddr string

	CheckIntervalSeconds           int
	ServerRefreshIntervalSeconds   int
	InFlightTTLSeconds             int
	ProbeBudgetSeconds             int
	PublishRetryMax                int
	WorkerConcurrency              int

	CheckerID       string
	CheckerLocation string

	MetricsAddr string
}

// Default returns the documented defaults for every field, spec §6 and
// §4.5.
func Default() Config {
	return Config{
		NATSURL:                      "nats://nats:4222",
		NATSPrefix:                   "hosh.",
		TorProxyHost:                 "tor",
		TorProxyPort:                 "9050",
		RedisAddr:                    "redis:6379",
		CheckIntervalSeconds:         120,
		ServerRefreshIntervalSeconds: 300,
		InFlightTTLSeconds:           120,
		ProbeBudgetSeconds:           45,
		PublishRetryMax:              5,
		WorkerConcurrency:            32,
		CheckerID:                    "unknown",
		CheckerLocation:              "unknown",
		MetricsAddr:                  ":9090",
	}
}

// Load reads an optional TOML file at path (skipped if empty or missing)
// and then overlays environment variables, which always win.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	d := Default()
	if err := k.Load(confmap.Provider(structMap(d), "."), nil); err != nil {
		return d, err
	}

	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			// A missing/unreadable file falls back to defaults+env, it is
			// not fatal: the file is a local convenience, env is authoritative.
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", envTransform), nil); err != nil {
		return d, err
	}

	out := d
	out.NATSURL = k.String("nats_url")
	out.NATSPrefix = k.String("nats_prefix")
	out.TorProxyHost = k.String("tor_proxy_host")
	out.TorProxyPort = k.String("tor_proxy_port")
	out.RedisAddr = k.String("redis_addr")
	out.CheckIntervalSeconds = k.Int("check_interval")
	out.ServerRefreshIntervalSeconds = k.Int("server_refresh_interval_seconds")
	out.InFlightTTLSeconds = k.Int("in_flight_ttl_seconds")
	out.ProbeBudgetSeconds = k.Int("probe_budget_seconds")
	out.PublishRetryMax = k.Int("publish_retry_max")
	out.WorkerConcurrency = k.Int("worker_concurrency")
	out.CheckerID = k.String("checker_id")
	out.CheckerLocation = k.String("checker_location")
	out.MetricsAddr = k.String("metrics_addr")

	return out, nil
}

func (c Config) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalSeconds) * time.Second
}

func (c Config) RefreshInterval() time.Duration {
	return time.Duration(c.ServerRefreshIntervalSeconds) * time.Second
}

func (c Config) InFlightTTL() time.Duration {
	return time.Duration(c.InFlightTTLSeconds) * time.Second
}

func (c Config) ProbeBudget() time.Duration {
	return time.Duration(c.ProbeBudgetSeconds) * time.Second
}

// envTransform maps the bare upper-snake env var names spec §6 specifies
// (NATS_URL, SERVER_REFRESH_INTERVAL_SECONDS, ...) onto koanf's dotted keys.
func envTransform(rawKey string, value string) (string, interface{}) {
	return strings.ToLower(rawKey), value
}

// structMap adapts a Config's defaults into a koanf-compatible key/value map.
func structMap(c Config) map[string]interface{} {
	return map[string]interface{}{
		"nats_url":                        c.NATSURL,
		"nats_prefix":                     c.NATSPrefix,
		"tor_proxy_host":                  c.TorProxyHost,
		"tor_proxy_port":                  c.TorProxyPort,
		"redis_addr":                      c.RedisAddr,
		"check_interval":                  c.CheckIntervalSeconds,
		"server_refresh_interval_seconds": c.ServerRefreshIntervalSeconds,
		"in_flight_ttl_seconds":           c.InFlightTTLSeconds,
		"probe_budget_seconds":            c.ProbeBudgetSeconds,
		"publish_retry_max":               c.PublishRetryMax,
		"worker_concurrency":              c.WorkerConcurrency,
		"checker_id":                      c.CheckerID,
		"checker_location":                c.CheckerLocation,
		"metrics_addr":                    c.MetricsAddr,
	}
}
