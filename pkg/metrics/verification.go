package metrics

import "github.com/prometheus/client_golang/prometheus"

// Verification groups the counters emitted by fixture verification runs.
// A nil *Verification is valid and records nothing.
type Verification struct {
	comparisons *prometheus.CounterVec
	captures    *prometheus.CounterVec
	fallbacks   *prometheus.CounterVec
}

// NewVerification creates the verification counters and registers them with r.
func NewVerification(r *Registry) *Verification {
	ns := r.Namespace()
	v := &Verification{
		comparisons: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "comparisons_total",
			Help:      "Fixture comparisons by scenario type and outcome.",
		}, []string{"scenario", "outcome"}),
		captures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "fixtures_captured_total",
			Help:      "Fixtures written on first encounter, by kind.",
		}, []string{"kind"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "synth_fallbacks_total",
			Help:      "Synthesized fields that fell back to a hardcoded default, by field type.",
		}, []string{"type"}),
	}

	r.Register(v.comparisons)
	r.Register(v.captures)
	r.Register(v.fallbacks)

	return v
}

// ObserveComparison counts one comparison outcome ("match", "mismatch", "error").
func (v *Verification) ObserveComparison(scenario, outcome string) {
	if v == nil {
		return
	}
	v.comparisons.WithLabelValues(scenario, outcome).Inc()
}

// ObserveCapture counts a fixture created on first run ("response", "data_sent", "raw").
func (v *Verification) ObserveCapture(kind string) {
	if v == nil {
		return
	}
	v.captures.WithLabelValues(kind).Inc()
}

// ObserveFallback counts a synthesizer fallback for a field of the given type.
func (v *Verification) ObserveFallback(fieldType string) {
	if v == nil {
		return
	}
	v.fallbacks.WithLabelValues(fieldType).Inc()
}
