// Package reporter tracks check-execution progress and exposes it as both
// structured log lines and Prometheus metrics. It keeps the singleton shape
// of the teacher's original address/transaction reporter, generalized from
// wallet-sync counters to check-scheduling counters.
package reporter

import (
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Reporter tracks process-wide scheduling/completion counts and exposes them
// as Prometheus metrics alongside structured log lines. The counts carry no
// module label.
type Reporter struct {
	scheduled  uint64
	completed  uint64
	online     uint64
	offline    uint64
	inFlight   int64
	logger     zerolog.Logger

	checksScheduled prometheus.Counter
	checksCompleted prometheus.Counter
	checksOnline    prometheus.Counter
	checksOffline   prometheus.Counter
	probesInFlight  prometheus.Gauge
}

var (
	instance *Reporter
	once     sync.Once
)

// GetInstance returns the process-wide Reporter, creating and registering
// its metrics on first use.
func GetInstance() *Reporter {
	once.Do(func() {
		r := &Reporter{logger: log.With().Str("component", "reporter").Logger()}

		r.checksScheduled = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hosh_checks_scheduled_total",
			Help: "Number of check requests scheduled by the Publisher.",
		})
		r.checksCompleted = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hosh_checks_completed_total",
			Help: "Number of probe results published by Checker Workers.",
		})
		r.checksOnline = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hosh_checks_online_total",
			Help: "Number of probe results with status=online.",
		})
		r.checksOffline = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hosh_checks_offline_total",
			Help: "Number of probe results with status=offline.",
		})
		r.probesInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hosh_probes_in_flight",
			Help: "Number of probes currently executing across workers.",
		})

		prometheus.MustRegister(r.checksScheduled, r.checksCompleted, r.checksOnline, r.checksOffline, r.probesInFlight)

		instance = r
	})
	return instance
}

// Log emits a structured info-level line with current counters attached.
func (r *Reporter) Log(msg string) {
	r.logger.Info().
		Uint64("scheduled", r.GetScheduled()).
		Uint64("completed", r.GetCompleted()).
		Uint64("online", r.GetOnline()).
		Uint64("offline", r.GetOffline()).
		Int64("in_flight", r.GetInFlight()).
		Msg(msg)
}

func (r *Reporter) Logf(format string, args ...interface{}) {
	r.logger.Info().Msgf(format, args...)
}

func (r *Reporter) IncScheduled() {
	atomic.AddUint64(&r.scheduled, 1)
	r.checksScheduled.Inc()
}

func (r *Reporter) GetScheduled() uint64 { return atomic.LoadUint64(&r.scheduled) }

func (r *Reporter) IncCompleted(online bool) {
	atomic.AddUint64(&r.completed, 1)
	r.checksCompleted.Inc()
	if online {
		atomic.AddUint64(&r.online, 1)
		r.checksOnline.Inc()
	} else {
		atomic.AddUint64(&r.offline, 1)
		r.checksOffline.Inc()
	}
}

func (r *Reporter) GetCompleted() uint64 { return atomic.LoadUint64(&r.completed) }
func (r *Reporter) GetOnline() uint64    { return atomic.LoadUint64(&r.online) }
func (r *Reporter) GetOffline() uint64   { return atomic.LoadUint64(&r.offline) }

func (r *Reporter) IncInFlight() {
	atomic.AddInt64(&r.inFlight, 1)
	r.probesInFlight.Inc()
}

func (r *Reporter) DecInFlight() {
	atomic.AddInt64(&r.inFlight, -1)
	r.probesInFlight.Dec()
}

func (r *Reporter) GetInFlight() int64 { return atomic.LoadInt64(&r.inFlight) }
