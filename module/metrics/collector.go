// Package metrics defines the Prometheus collectors the round-management
// core reports to (spec §6): qc_rounds, timeout_rounds, timeout_count
// counters and a wait_for_full_blocks_triggered histogram. Grounded on the
// teacher's module/metrics collector-wrapping-a-tracer shape
// (module/metrics/example/verification/main.go's metrics.NewVerificationCollector)
// and on prometheus/client_golang, present in the pack's dependency surface
// (caramis-oasis-core go.mod).
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "consensus"
const subsystem = "round_manager"

// Collector bundles the counters and histogram this core reports.
type Collector struct {
	QCRounds                  prometheus.Counter
	TimeoutRounds             prometheus.Counter
	TimeoutCount              prometheus.Counter
	WaitForFullBlocksTriggered prometheus.Histogram

	registry *prometheus.Registry
	once     sync.Once
}

// NewCollector constructs a Collector backed by registry. If registry is
// nil, a fresh private registry is created (useful for tests, so metrics
// registration does not collide across parallel test cases).
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	return &Collector{
		registry: registry,
		QCRounds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "qc_rounds",
			Help:      "Number of rounds advanced by observing a quorum certificate.",
		}),
		TimeoutRounds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "timeout_rounds",
			Help:      "Number of rounds advanced by observing a timeout certificate.",
		}),
		TimeoutCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "timeout_count",
			Help:      "Number of local timeouts processed.",
		}),
		WaitForFullBlocksTriggered: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "wait_for_full_blocks_triggered",
			Help:      "1 if a payload pull chose to wait for a fuller block, 0 otherwise.",
			Buckets:   []float64{0, 1},
		}),
	}
}

// EnsureRegistered registers every collector exactly once, even if never
// incremented, so they appear in scrapes immediately -- mirroring the
// teacher's round_state.rs construction which eagerly calls .get() on each
// counter "so they're not going to appear in Prometheus if some conditions
// never happen."
func (c *Collector) EnsureRegistered() {
	c.once.Do(func() {
		c.registry.MustRegister(c.QCRounds, c.TimeoutRounds, c.TimeoutCount, c.WaitForFullBlocksTriggered)
	})
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
