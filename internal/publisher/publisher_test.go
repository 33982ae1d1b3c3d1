package publisher

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	busPkg "github.com/zecrocks/hosh/internal/bus"
	"github.com/zecrocks/hosh/internal/model"
)

// fakeStore is an in-memory registry.Store good enough to drive cycle()
// without a live Redis.
type fakeStore struct {
	targets     map[string]*model.Target
	queuedAtLog []time.Time
}

func newFakeStore(targets ...model.Target) *fakeStore {
	s := &fakeStore{targets: map[string]*model.Target{}}
	for i := range targets {
		t := targets[i]
		s.targets[t.Hostname] = &t
	}
	return s
}

func (s *fakeStore) ListByModule(module model.Module) ([]model.Target, error) {
	var out []model.Target
	for _, t := range s.targets {
		if t.Module == module {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *fakeStore) Get(hostname string, module model.Module) (*model.Target, error) {
	t, ok := s.targets[hostname]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (s *fakeStore) UpdateQueuedAt(hostname string, module model.Module, at time.Time) error {
	s.queuedAtLog = append(s.queuedAtLog, at)
	if t, ok := s.targets[hostname]; ok {
		t.LastQueuedAt = &at
	}
	return nil
}

// fakeLeaser always holds the lease, so cycle() never skips for lease
// reasons in these tests.
type fakeLeaser struct{}

func (fakeLeaser) AcquirePublisherLease(model.Module, string, time.Duration) (bool, error) {
	return true, nil
}
func (fakeLeaser) RenewPublisherLease(model.Module, string, time.Duration) (bool, error) {
	return true, nil
}

// fakeBus records every CheckRequest published instead of touching NATS.
type fakeBus struct {
	published []model.CheckRequest
}

func (b *fakeBus) PublishCheckRequest(req model.CheckRequest) error {
	b.published = append(b.published, req)
	return nil
}

func (b *fakeBus) TriggerSubscribe(model.Module, func(string)) (busPkg.Subscription, error) {
	return noopSubscription{}, nil
}

type noopSubscription struct{}

func (noopSubscription) Unsubscribe() error { return nil }

func newTestPublisher(store *fakeStore, b *fakeBus) *Publisher {
	return New(store, fakeLeaser{}, b, Config{
		Module:          model.ModuleBTC,
		PublishInterval: time.Minute,
		RefreshInterval: 300 * time.Second,
		InFlightTTL:     120 * time.Second,
		Owner:           "test",
	}, zerolog.Nop())
}

// spec §8 property #3: a fresh, non-user-submitted target yields zero
// CheckRequests in a cycle.
func TestCycleEmitsNothingForFreshTarget(t *testing.T) {
	checked := time.Now().Add(-30 * time.Second)
	store := newFakeStore(model.Target{
		Hostname:      "fresh.example.org",
		Module:        model.ModuleBTC,
		LastCheckedAt: &checked,
	})
	b := &fakeBus{}

	p := newTestPublisher(store, b)
	require.NoError(t, p.cycle())
	require.Empty(t, b.published)
}

// spec §8 property #4: a due target yields exactly one CheckRequest per
// cycle, and last_queued_at strictly increases.
func TestCycleEmitsExactlyOneForDueTargetAndAdvancesQueuedAt(t *testing.T) {
	checked := time.Now().Add(-10 * time.Minute)
	store := newFakeStore(model.Target{
		Hostname:      "due.example.org",
		Module:        model.ModuleBTC,
		Port:          50002,
		LastCheckedAt: &checked,
	})
	b := &fakeBus{}

	p := newTestPublisher(store, b)
	require.NoError(t, p.cycle())

	require.Len(t, b.published, 1)
	require.Equal(t, "due.example.org", b.published[0].Host)
	require.Len(t, store.queuedAtLog, 1)

	require.NoError(t, p.cycle())
	require.Len(t, b.published, 1, "target is no longer due immediately after being queued")
	require.Len(t, store.queuedAtLog, 1)
}

// A second cycle run after last_queued_at has aged past in_flight_ttl (but
// still within refresh_interval) re-emits, and last_queued_at strictly
// increases across cycles.
func TestCycleReemitsOnceInFlightTTLElapses(t *testing.T) {
	checked := time.Now().Add(-10 * time.Minute)
	store := newFakeStore(model.Target{
		Hostname:      "due.example.org",
		Module:        model.ModuleBTC,
		LastCheckedAt: &checked,
	})
	b := &fakeBus{}

	p := newTestPublisher(store, b)
	require.NoError(t, p.cycle())
	require.Len(t, b.published, 1)
	firstQueuedAt := store.queuedAtLog[0]

	// Age the queued timestamp past in_flight_ttl without a completed check.
	aged := firstQueuedAt.Add(-p.cfg.InFlightTTL * 2)
	store.targets["due.example.org"].LastQueuedAt = &aged

	require.NoError(t, p.cycle())
	require.Len(t, b.published, 2)
	require.Len(t, store.queuedAtLog, 2)
	require.True(t, store.queuedAtLog[1].After(firstQueuedAt), "last_queued_at strictly increases across cycles")
}

// spec §4.5's user-submitted/staleness interaction: a user-submitted target
// is due (and emits) even while its prior request is still in flight.
func TestCycleEmitsForInFlightUserSubmittedTarget(t *testing.T) {
	checked := time.Now().Add(-2 * time.Hour)
	queued := time.Now().Add(-10 * time.Second)
	store := newFakeStore(model.Target{
		Hostname:      "user.example.org",
		Module:        model.ModuleBTC,
		UserSubmitted: true,
		LastCheckedAt: &checked,
		LastQueuedAt:  &queued,
	})
	b := &fakeBus{}

	p := newTestPublisher(store, b)
	require.NoError(t, p.cycle())
	require.Len(t, b.published, 1)
	require.True(t, b.published[0].UserSubmitted)
}
