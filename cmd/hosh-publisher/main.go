// Command hosh-publisher runs the Scheduler/Publisher for one module,
// scanning the Target Registry and emitting CheckRequests per spec §4.5.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/zecrocks/hosh/internal/bus"
	"github.com/zecrocks/hosh/internal/config"
	"github.com/zecrocks/hosh/internal/model"
	"github.com/zecrocks/hosh/internal/publisher"
	"github.com/zecrocks/hosh/internal/registry"
)

var (
	app         = kingpin.New("hosh-publisher", "Scheduler/Publisher for the check-execution pipeline.")
	configPath  = app.Flag("config", "Path to an optional TOML config file.").Default("").String()
	moduleFlag  = app.Flag("module", "Module to publish for: btc, zec, or http.").Required().String()
	debug       = app.Flag("debug", "Enable debug logging.").Bool()
	metricsAddr = app.Flag("metrics-addr", "Address to serve /metrics on.").Default("").String()
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}

	module := model.Module(*moduleFlag)
	if !module.Valid() {
		log.Fatal().Str("module", *moduleFlag).Msg("unknown module")
	}

	go serveMetrics(cfg.MetricsAddr)

	store, err := registry.NewRedisStore(cfg.RedisAddr)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to registry")
	}

	b, err := bus.Connect(cfg.NATSURL, cfg.NATSPrefix)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to bus")
	}
	defer b.Close()

	hostname, _ := os.Hostname()
	p := publisher.New(store, store, b, publisher.Config{
		Module:          module,
		PublishInterval: cfg.CheckInterval(),
		RefreshInterval: cfg.RefreshInterval(),
		InFlightTTL:     cfg.InFlightTTL(),
		Owner:           hostname,
	}, log.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("module", string(module)).Msg("publisher starting")
	if err := p.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("publisher exited with error")
	}
}

func serveMetrics(addr string) {
	if addr == "" {
		return
	}
	http.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Error().Err(err).Msg("metrics server exited")
	}
}
