package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the session manager's metrics. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	registrations  *prometheus.CounterVec
	fallbacks      prometheus.Counter
	mismatches     prometheus.Counter
	classified     *prometheus.CounterVec
	accountChanges *prometheus.CounterVec
	staleResults   *prometheus.CounterVec
	generation     prometheus.Gauge
}

// NewRecorder creates the metrics and registers them with reg.
func NewRecorder(namespace string, reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Confirmed device registrations by how the device id was resolved.",
		}, []string{"resolution"}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "device_id_fallback_total",
			Help:      "Registrations whose device id was derived locally because no DeviceRegistered event matched.",
		}),
		mismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "derivation_mismatch_total",
			Help:      "Registrations where the local derivation disagreed with the id in the event.",
		}),
		classified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classified_errors_total",
			Help:      "Errors returned to callers by kind.",
		}, []string{"kind"}),
		accountChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "account_changes_total",
			Help:      "Wallet account change notifications by outcome.",
		}, []string{"outcome"}),
		staleResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_results_total",
			Help:      "Results that completed after the session moved on and were not applied.",
		}, []string{"operation"}),
		generation: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_generation",
			Help:      "Current session generation.",
		}),
	}

	for _, c := range []prometheus.Collector{
		r.registrations, r.fallbacks, r.mismatches, r.classified,
		r.accountChanges, r.staleResults, r.generation,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Recorder) RegistrationCompleted(resolution string) {
	if r == nil {
		return
	}
	r.registrations.WithLabelValues(resolution).Inc()
}

func (r *Recorder) DeviceIDFallback() {
	if r == nil {
		return
	}
	r.fallbacks.Inc()
}

func (r *Recorder) DerivationMismatch() {
	if r == nil {
		return
	}
	r.mismatches.Inc()
}

func (r *Recorder) ClassifiedError(kind string) {
	if r == nil {
		return
	}
	r.classified.WithLabelValues(kind).Inc()
}

func (r *Recorder) AccountChanged(outcome string) {
	if r == nil {
		return
	}
	r.accountChanges.WithLabelValues(outcome).Inc()
}

func (r *Recorder) StaleResult(operation string) {
	if r == nil {
		return
	}
	r.staleResults.WithLabelValues(operation).Inc()
}

func (r *Recorder) SessionGeneration(gen uint64) {
	if r == nil {
		return
	}
	r.generation.Set(float64(gen))
}
