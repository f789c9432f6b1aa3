package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics records cart, stock, and alert activity.
type EngineMetrics struct {
	cartMutations *prometheus.CounterVec
	stockDenials  prometheus.Counter
	transitions   *prometheus.CounterVec
	alertsEmitted *prometheus.CounterVec
	sweepDuration prometheus.Histogram
}

// NewEngineMetrics registers the engine metrics on the provided registerer.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		return &EngineMetrics{}
	}
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations by operation.",
	}, []string{"op"})
	stockDenials := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stock_denials_total",
		Help: "Additions denied by the advisory stock check.",
	})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lifecycle_transitions_total",
		Help: "Successful order lifecycle transitions.",
	}, []string{"to"})
	alertsEmitted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "low_stock_alerts_total",
		Help: "Low-stock notifications by delivery mode.",
	}, []string{"mode"})
	sweepDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "alert_sweep_duration_seconds",
		Help:    "Duration of low-stock evaluation sweeps.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(cartMutations, stockDenials, transitions, alertsEmitted, sweepDuration)
	return &EngineMetrics{
		cartMutations: cartMutations,
		stockDenials:  stockDenials,
		transitions:   transitions,
		alertsEmitted: alertsEmitted,
		sweepDuration: sweepDuration,
	}
}

// IncCartMutation counts a cart mutation by operation name.
func (m *EngineMetrics) IncCartMutation(op string) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncStockDenial counts an advisory stock denial.
func (m *EngineMetrics) IncStockDenial() {
	if m == nil || m.stockDenials == nil {
		return
	}
	m.stockDenials.Inc()
}

// IncTransition counts a successful transition into the named phase.
func (m *EngineMetrics) IncTransition(to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(to)).Inc()
}

// IncAlert counts an emitted notification by mode (single/aggregated).
func (m *EngineMetrics) IncAlert(mode string) {
	if m == nil || m.alertsEmitted == nil {
		return
	}
	m.alertsEmitted.WithLabelValues(normalizeLabel(mode)).Inc()
}

// ObserveSweep records the duration of a low-stock sweep.
func (m *EngineMetrics) ObserveSweep(duration time.Duration) {
	if m == nil || m.sweepDuration == nil {
		return
	}
	m.sweepDuration.Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
