// Package publisher implements the Scheduler/Publisher: a periodic scan of
// the Target Registry that applies the staleness policy and emits
// CheckRequests (spec §4.5).
package publisher

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/zecrocks/hosh/internal/bus"
	"github.com/zecrocks/hosh/internal/model"
	"github.com/zecrocks/hosh/internal/registry"
	"github.com/zecrocks/hosh/internal/reporter"
	"github.com/zecrocks/hosh/internal/staleness"
)

// Leaser is satisfied by registry.RedisStore; kept separate from
// registry.Store so the publisher's singleton-enforcement dependency is
// explicit about what it needs (SPEC_FULL.md Open Question 1 decision).
type Leaser interface {
	AcquirePublisherLease(module model.Module, owner string, ttl time.Duration) (bool, error)
	RenewPublisherLease(module model.Module, owner string, ttl time.Duration) (bool, error)
}

// Bus is satisfied by *bus.Bus; narrowed to just what the publisher needs
// so a unit test can cover Publisher.cycle/emit against a fake instead of a
// live NATS connection.
type Bus interface {
	PublishCheckRequest(req model.CheckRequest) error
	TriggerSubscribe(module model.Module, handler func(host string)) (bus.Subscription, error)
}

// Config tunes one Publisher instance.
type Config struct {
	Module          model.Module
	PublishInterval time.Duration
	RefreshInterval time.Duration
	InFlightTTL     time.Duration
	LeaseTTL        time.Duration
	Owner           string
}

// Publisher scans the registry for one module on a fixed interval.
type Publisher struct {
	cfg      Config
	store    registry.Store
	lease    Leaser
	bus      Bus
	log      zerolog.Logger
	reporter *reporter.Reporter
}

func New(store registry.Store, lease Leaser, b Bus, cfg Config, log zerolog.Logger) *Publisher {
	if cfg.PublishInterval <= 0 {
		cfg.PublishInterval = 120 * time.Second
	}
	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = cfg.PublishInterval * 2
	}
	return &Publisher{
		cfg:      cfg,
		store:    store,
		lease:    lease,
		bus:      b,
		log:      log.With().Str("module", string(cfg.Module)).Logger(),
		reporter: reporter.GetInstance(),
	}
}

// Run blocks, running one scan cycle per PublishInterval, until ctx is
// canceled. It also subscribes to the module's on-demand trigger subject
// for the lifetime of the call.
func (p *Publisher) Run(ctx context.Context) error {
	sub, err := p.bus.TriggerSubscribe(p.cfg.Module, func(host string) {
		if err := p.triggerCycle(host); err != nil {
			p.log.Error().Err(err).Str("host", host).Msg("trigger cycle failed")
		}
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	ticker := time.NewTicker(p.cfg.PublishInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := p.cycle(); err != nil {
				p.log.Error().Err(err).Msg("publisher cycle failed; retrying next tick")
			}
		}
	}
}

// cycle renews the Publisher's registry lease and, only if it holds the
// lease, scans every target for the module and emits CheckRequests for
// those the staleness policy finds due. Losing the lease aborts the
// cycle without emitting anything, per spec §4.5's singleton invariant.
func (p *Publisher) cycle() error {
	held, err := p.lease.RenewPublisherLease(p.cfg.Module, p.cfg.Owner, p.cfg.LeaseTTL)
	if err != nil {
		return err
	}
	if !held {
		p.log.Info().Msg("lease not held; skipping cycle")
		return nil
	}

	targets, err := p.store.ListByModule(p.cfg.Module)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, t := range targets {
		class := staleness.Classify(t, now, p.cfg.RefreshInterval, p.cfg.InFlightTTL)
		if class != staleness.Due {
			continue
		}
		if err := p.emit(t, now); err != nil {
			p.log.Error().Err(err).Str("host", t.Hostname).Msg("emit failed")
		}
	}
	return nil
}

// emit advances last_queued_at before publishing, so a crash between the
// two produces at most a skipped cycle rather than a duplicate storm
// (spec §4.5's second invariant).
func (p *Publisher) emit(t model.Target, now time.Time) error {
	if err := p.store.UpdateQueuedAt(t.Hostname, t.Module, now); err != nil {
		return err
	}
	req := model.NewCheckRequest(t.Hostname, t.Port, t.Module, t.UserSubmitted, t.Hints)
	if err := p.bus.PublishCheckRequest(req); err != nil {
		return err
	}
	p.reporter.IncScheduled()
	return nil
}

// triggerCycle bypasses the staleness gate for a single host (or, when
// host is empty, every target of the module), per spec §4.5's on-demand
// trigger subject.
func (p *Publisher) triggerCycle(host string) error {
	now := time.Now().UTC()

	if host == "" {
		targets, err := p.store.ListByModule(p.cfg.Module)
		if err != nil {
			return err
		}
		for _, t := range targets {
			if err := p.emit(t, now); err != nil {
				p.log.Error().Err(err).Str("host", t.Hostname).Msg("trigger emit failed")
			}
		}
		return nil
	}

	t, err := p.store.Get(host, p.cfg.Module)
	if err != nil {
		return err
	}
	if t == nil {
		t = &model.Target{Hostname: host, Module: p.cfg.Module}
	}
	return p.emit(*t, now)
}
