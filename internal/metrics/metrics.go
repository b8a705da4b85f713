// Package metrics exposes Prometheus collectors for the verifier and the
// ingress buffer.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "healthmonitor"

// Recorder implements verifier.Observer and ingress.PushObserver on top of
// Prometheus collectors.
type Recorder struct {
	calls    *prometheus.CounterVec
	latency  prometheus.Histogram
	running  prometheus.Gauge
	received prometheus.Counter
	buffered prometheus.Gauge
}

// NewRecorder creates the collectors and registers them with reg.
//
// Returns an error if any collector is already registered with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verification_calls_total",
			Help:      "Verification calls made to the peer, by outcome.",
		}, []string{"outcome"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "verification_call_duration_seconds",
			Help:      "Latency of verification calls, successful or not.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "verifier_running",
			Help:      "1 while the verifier loop is running, 0 otherwise.",
		}),
		received: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingress_records_total",
			Help:      "Records pushed by the data producer.",
		}),
		buffered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ingress_records_buffered",
			Help:      "Records currently retained in the ingress buffer.",
		}),
	}

	for _, c := range []prometheus.Collector{r.calls, r.latency, r.running, r.received, r.buffered} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	// expose both outcomes from the start
	r.calls.WithLabelValues("success")
	r.calls.WithLabelValues("error")
	return r, nil
}

// ObserveCall records the outcome and latency of one verification call.
func (r *Recorder) ObserveCall(success bool, latency time.Duration) {
	outcome := "error"
	if success {
		outcome = "success"
	}
	r.calls.WithLabelValues(outcome).Inc()
	r.latency.Observe(latency.Seconds())
}

// SetRunning tracks the verifier lifecycle.
func (r *Recorder) SetRunning(running bool) {
	if running {
		r.running.Set(1)
		return
	}
	r.running.Set(0)
}

// ObservePush records a push into the ingress buffer.
func (r *Recorder) ObservePush(buffered int) {
	r.received.Inc()
	r.buffered.Set(float64(buffered))
}
