// Command hosh-checker-btc runs a Checker Worker for the Electrum probe.
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
	"github.com/zecrocks/hosh/internal/electrum"
	"github.com/zecrocks/hosh/internal/model"
	"github.com/zecrocks/hosh/internal/worker"
)

var (
	app         = kingpin.New("hosh-checker-btc", "Checker Worker for Electrum (Bitcoin) targets.")
	configPath  = app.Flag("config", "Path to an optional TOML config file.").Default("").String()
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

	go serveMetrics(cfg.MetricsAddr)

	b, err := bus.Connect(cfg.NATSURL, cfg.NATSPrefix)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to bus")
	}
	defer b.Close()

	prober := electrum.Adapter{
		OnionHost:      cfg.TorProxyHost,
		OnionPort:      cfg.TorProxyPort,
		DefaultSSLPort: 50002,
		DefaultTCPPort: 50001,
	}

	w := worker.New(b, prober, worker.Config{
		Module:          model.ModuleBTC,
		Concurrency:     cfg.WorkerConcurrency,
		CheckerID:       cfg.CheckerID,
		CheckerLocation: cfg.CheckerLocation,
		ProbeBudget:     cfg.ProbeBudget(),
		PublishRetryMax: cfg.PublishRetryMax,
	}, log.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Msg("btc checker worker starting")
	if err := w.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("worker exited with error")
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
