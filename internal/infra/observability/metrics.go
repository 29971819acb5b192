package observability

import (
	"time"

	"github.com/boddenberg/realty-portal-bfa/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Label values for gate outcomes and upstream services.
var (
	gateOutcomes     = []string{"pending", "redirect_login", "denied", "allow"}
	upstreamServices = []string{"backend"}
)

// Metrics holds all Prometheus metrics for the BFA.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration   *prometheus.HistogramVec
	externalErrors    *prometheus.CounterVec
	cacheHits         *prometheus.CounterVec
	cacheMisses       *prometheus.CounterVec
	gateDecisions     *prometheus.CounterVec
	staleServed       *prometheus.CounterVec
	hydrationFailures prometheus.Counter
	breakerState      *prometheus.GaugeVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portal_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_external_errors_total",
				Help: "Total errors from upstream services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		gateDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_gate_decisions_total",
				Help: "Role gate decisions by outcome.",
			},
			[]string{"outcome"},
		),
		staleServed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_stale_snapshots_total",
				Help: "Lists served from last-good data after a failed refresh.",
			},
			[]string{"resource"},
		),
		hydrationFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "portal_session_hydration_failures_total",
				Help: "Sessions that fell back to unauthenticated on load.",
			},
		),
		breakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "portal_circuit_breaker_state",
				Help: "Circuit breaker state (0 closed, 1 half-open, 2 open).",
			},
			[]string{"name"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrGateDecision counts one role gate evaluation.
func (m *Metrics) IncrGateDecision(outcome string) {
	m.gateDecisions.WithLabelValues(outcome).Inc()
}

// IncrStaleServed counts a list served from last-good data.
func (m *Metrics) IncrStaleServed(resource string) {
	m.staleServed.WithLabelValues(resource).Inc()
}

// IncrHydrationFailure counts a session that could not be restored.
func (m *Metrics) IncrHydrationFailure() {
	m.hydrationFailures.Inc()
}

// SetBreakerState records a circuit breaker transition.
func (m *Metrics) SetBreakerState(name string, state int) {
	m.breakerState.WithLabelValues(name).Set(float64(state))
}

// Summary returns the operator view of the counters.
func (m *Metrics) Summary() *domain.PortalMetrics {
	out := &domain.PortalMetrics{
		GateDecisions:  make(map[string]int64, len(gateOutcomes)),
		UpstreamErrors: make(map[string]int64, len(upstreamServices)),
	}
	for _, o := range gateOutcomes {
		out.GateDecisions[o] = int64(getCounterValue(m.gateDecisions, o))
	}
	for _, s := range upstreamServices {
		out.UpstreamErrors[s] = int64(getCounterValue(m.externalErrors, s))
	}
	for _, r := range []string{"users", "clients", "agents"} {
		out.StaleSnapshotsServed += int64(getCounterValue(m.staleServed, r))
	}
	out.HydrationFailures = int64(readCounter(m.hydrationFailures))

	hits := getCounterValue(m.cacheHits, "branding")
	misses := getCounterValue(m.cacheMisses, "branding")
	if hits+misses > 0 {
		out.BrandingCacheHitRate = hits / (hits + misses)
	}
	return out
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	return readCounter(cv.WithLabelValues(label))
}

func readCounter(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
