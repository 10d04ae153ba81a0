package reliability

import "github.com/prometheus/client_golang/prometheus"

// Collector exposes retry, circuit-breaker, and bulk-recovery activity as
// Prometheus metrics, registered the same way the teacher wires its own
// gauges/counters into prometheus/client_golang for the web UI.
type Collector struct {
	RetryAttempts    *prometheus.CounterVec
	RetriesExhausted *prometheus.CounterVec
	BreakerState     *prometheus.GaugeVec
	BreakerTrips     *prometheus.CounterVec
	BulkOutcomes     *prometheus.CounterVec
	InflightRequests prometheus.Gauge
}

// NewCollector builds a Collector and registers every metric against reg.
// Pass prometheus.NewRegistry() in tests to avoid colliding with the
// default global registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		RetryAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mcpcore",
			Subsystem: "reliability",
			Name:      "retry_attempts_total",
			Help:      "Total retry attempts performed, labeled by operation.",
		}, []string{"operation"}),
		RetriesExhausted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mcpcore",
			Subsystem: "reliability",
			Name:      "retries_exhausted_total",
			Help:      "Total operations that exhausted all retry attempts.",
		}, []string{"operation"}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "mcpcore",
			Subsystem: "reliability",
			Name:      "circuit_breaker_state",
			Help:      "Current circuit breaker state (0=closed, 1=open, 2=half-open), labeled by breaker name.",
		}, []string{"breaker"}),
		BreakerTrips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mcpcore",
			Subsystem: "reliability",
			Name:      "circuit_breaker_trips_total",
			Help:      "Total times a circuit breaker transitioned to open.",
		}, []string{"breaker"}),
		BulkOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mcpcore",
			Subsystem: "reliability",
			Name:      "bulk_outcomes_total",
			Help:      "Total bulk recovery runs, labeled by outcome.",
		}, []string{"outcome"}),
		InflightRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mcpcore",
			Subsystem: "reliability",
			Name:      "inflight_requests",
			Help:      "Number of requests currently being dispatched.",
		}),
	}
	reg.MustRegister(c.RetryAttempts, c.RetriesExhausted, c.BreakerState, c.BreakerTrips, c.BulkOutcomes, c.InflightRequests)
	return c
}

// ObserveStateChange updates BreakerState and, on a transition into Open,
// increments BreakerTrips. Pass this as a CircuitBreakerConfig's
// OnStateChange.
func (c *Collector) ObserveStateChange(name string, _, to BreakerState) {
	c.BreakerState.WithLabelValues(name).Set(float64(to))
	if to == StateOpen {
		c.BreakerTrips.WithLabelValues(name).Inc()
	}
}

// ObserveBulkResult records a completed BulkResult's outcome.
func (c *Collector) ObserveBulkResult(r BulkResult) {
	switch r.Outcome {
	case AllSuccess:
		c.BulkOutcomes.WithLabelValues("all_success").Inc()
	case PartialSuccess:
		c.BulkOutcomes.WithLabelValues("partial_success").Inc()
	case AllFailed:
		c.BulkOutcomes.WithLabelValues("all_failed").Inc()
	}
}
