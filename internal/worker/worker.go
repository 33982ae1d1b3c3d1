// Package worker implements the protocol-agnostic Checker Worker runtime:
// bounded-concurrency probe execution over a JetStream pull consumer, with
// backpressure implemented by only pulling as many messages as the pool has
// free capacity for (spec §4.4).
package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/zecrocks/hosh/internal/bus"
	"github.com/zecrocks/hosh/internal/model"
	"github.com/zecrocks/hosh/internal/reporter"
)

// Prober executes one protocol-specific probe against a check request.
// Implementations never panic across this boundary in normal operation;
// Worker recovers anyway and reports internal_error, per spec §7.
type Prober interface {
	Probe(ctx context.Context, req model.CheckRequest) model.ProbeResult
}

// Config tunes one Worker instance.
type Config struct {
	Module          model.Module
	Concurrency     int
	CheckerID       string
	CheckerLocation string
	ProbeBudget     time.Duration
	PublishRetryMax int
	FetchWait       time.Duration
}

// Worker subscribes to one module's check subjects and runs its Prober
// against each request with bounded concurrency.
type Worker struct {
	cfg      Config
	bus      *bus.Bus
	prober   Prober
	log      zerolog.Logger
	reporter *reporter.Reporter
	sem      chan struct{}
}

func New(b *bus.Bus, prober Prober, cfg Config, log zerolog.Logger) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 32
	}
	if cfg.FetchWait <= 0 {
		cfg.FetchWait = 5 * time.Second
	}
	if cfg.PublishRetryMax <= 0 {
		cfg.PublishRetryMax = 5
	}
	return &Worker{
		cfg:      cfg,
		bus:      b,
		prober:   prober,
		log:      log.With().Str("module", string(cfg.Module)).Logger(),
		reporter: reporter.GetInstance(),
		sem:      make(chan struct{}, cfg.Concurrency),
	}
}

// Run pulls from the module's main and user-priority subjects until ctx is
// canceled.
func (w *Worker) Run(ctx context.Context) error {
	main, userLane, err := w.bus.CheckConsumer(w.cfg.Module)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		w.pollOnce(ctx, main)
		if userLane != nil {
			w.pollOnce(ctx, userLane)
		}
	}
}

// pollOnce fetches only as many messages as the pool currently has free
// slots for; when the pool is full it fetches nothing, leaving messages
// available for redistribution to idle peers in the queue group. This is
// the backpressure primitive spec §4.4 calls for.
func (w *Worker) pollOnce(ctx context.Context, c *bus.Consumer) {
	free := cap(w.sem) - len(w.sem)
	if free <= 0 {
		return
	}

	msgs, err := c.Fetch(free, w.cfg.FetchWait)
	if err != nil {
		w.log.Warn().Err(err).Msg("fetch failed")
		return
	}

	for _, msg := range msgs {
		w.sem <- struct{}{}
		go w.handle(ctx, msg)
	}
}

func (w *Worker) handle(ctx context.Context, msg *nats.Msg) {
	defer func() { <-w.sem }()

	var req model.CheckRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		w.log.Error().Err(err).Msg("malformed check request")
		_ = msg.Ack()
		return
	}

	res := w.runProbe(ctx, req)

	w.reporter.IncCompleted(res.Status == model.StatusOnline)

	if err := w.bus.PublishResultRetry(res, req.DryRun, w.cfg.PublishRetryMax); err != nil {
		w.log.Error().Err(err).Str("check_id", req.CheckID).Msg("failed to publish result after retries")
	}
	_ = msg.Ack()
}

// runProbe invokes the Prober with a bounded context and converts a panic
// into a well-formed internal_error result rather than letting it escape
// the worker, per spec §4.4 and §7.
func (w *Worker) runProbe(ctx context.Context, req model.CheckRequest) (res model.ProbeResult) {
	w.reporter.IncInFlight()
	defer w.reporter.DecInFlight()

	defer func() {
		if r := recover(); r != nil {
			w.log.Error().Interface("panic", r).Str("check_id", req.CheckID).Msg("probe panicked")
			res = model.Offline(req, model.ErrorInternal, w.cfg.CheckerID, w.cfg.CheckerLocation, time.Now().UTC())
		}
	}()

	budget := w.cfg.ProbeBudget
	if budget <= 0 {
		budget = 45 * time.Second
	}
	probeCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	res = w.prober.Probe(probeCtx, req)
	res.CheckerID = w.cfg.CheckerID
	res.CheckerLocation = w.cfg.CheckerLocation
	if res.CheckedAt.IsZero() {
		res.CheckedAt = time.Now().UTC()
	}
	return res
}
