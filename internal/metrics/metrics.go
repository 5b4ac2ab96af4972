package metrics

import (
	"BoostKeeper/internal/model"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the booster's Prometheus collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	cycles      prometheus.Counter
	cycleErrors prometheus.Counter
	outcomes    *prometheus.CounterVec
	claims      *prometheus.CounterVec
	duration    prometheus.Histogram
	balance     prometheus.Gauge
	dedupSize   prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "boostkeeper",
			Name:      "cycles_total",
			Help:      "Total reconciliation cycles run.",
		}),
		cycleErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "boostkeeper",
			Name:      "cycle_errors_total",
			Help:      "Cycles that could not list requests or read the booster balance.",
		}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "boostkeeper",
			Name:      "request_outcomes_total",
			Help:      "Per-request cycle outcomes segmented by state and skip reason.",
		}, []string{"state", "reason"}),
		claims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "boostkeeper",
			Name:      "claims_total",
			Help:      "Claim calls issued to the ledger segmented by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "boostkeeper",
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of a full reconciliation cycle.",
			Buckets:   prometheus.DefBuckets,
		}),
		balance: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "boostkeeper",
			Name:      "available_balance",
			Help:      "Booster available balance in smallest units at the last read.",
		}),
		dedupSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "boostkeeper",
			Name:      "dedup_registry_size",
			Help:      "Transactions marked as acted upon in this process.",
		}),
	}
	m.Registry.MustRegister(m.cycles, m.cycleErrors, m.outcomes, m.claims, m.duration, m.balance, m.dedupSize)
	return m
}

// ObserveCycle records a finished cycle and the outcome of every request in it.
func (m *Metrics) ObserveCycle(sum *model.CycleSummary, results []model.RequestResult) {
	m.cycles.Inc()
	m.duration.Observe(sum.Duration.Seconds())
	if sum.FatalError != "" {
		m.cycleErrors.Inc()
		return
	}
	m.balance.Set(float64(sum.Balance))
	for _, r := range results {
		m.outcomes.WithLabelValues(string(r.State), string(r.Reason)).Inc()
		switch r.State {
		case model.StateClaimed, model.StateRaceLost, model.StateFailed:
			m.claims.WithLabelValues(string(r.State)).Inc()
		}
	}
}

// SetBalance updates the balance gauge outside a cycle.
func (m *Metrics) SetBalance(v uint64) { m.balance.Set(float64(v)) }

// SetDedupSize updates the registry size gauge.
func (m *Metrics) SetDedupSize(n int) { m.dedupSize.Set(float64(n)) }
