// Package metrics records onboarding metrics with Prometheus.
package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// Recorder implements the usecase and autosave recorder interfaces using a
// dedicated Prometheus registry.
type Recorder struct {
	registry *prometheus.Registry

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	autosaveTotal     *prometheus.CounterVec
	autosaveDuration  prometheus.Histogram
	upstreamDuration  *prometheus.HistogramVec
	checkoutsTotal    prometheus.Counter
}

// NewRecorder creates a Recorder backed by a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		operationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "onboarding_operations_total",
				Help: "Total number of onboarding operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "onboarding_operation_duration_seconds",
				Help:    "Duration of onboarding operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		autosaveTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "onboarding_autosave_total",
				Help: "Total number of step autosaves by status",
			},
			[]string{"status"},
		),
		autosaveDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "onboarding_autosave_duration_seconds",
				Help:    "Duration of step autosaves in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		upstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "onboarding_upstream_duration_seconds",
				Help:    "Duration of calls to external collaborators in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"upstream", "status"},
		),
		checkoutsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "onboarding_checkouts_total",
				Help: "Total number of completed onboardings handed to checkout",
			},
		),
	}
}

// ObserveOperation records one usecase operation. outcome is "ok" or an error code.
func (r *Recorder) ObserveOperation(operation, outcome string, d time.Duration) {
	if outcome == "" {
		outcome = "ok"
	}
	r.operationsTotal.WithLabelValues(operation, outcome).Inc()
	r.operationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// ObserveAutosave records one step autosave.
func (r *Recorder) ObserveAutosave(success bool, d time.Duration) {
	r.autosaveTotal.WithLabelValues(status(success)).Inc()
	r.autosaveDuration.Observe(d.Seconds())
}

// ObserveUpstream records one call to openai, places, media or checkout.
func (r *Recorder) ObserveUpstream(upstream string, success bool, d time.Duration) {
	r.upstreamDuration.WithLabelValues(upstream, status(success)).Observe(d.Seconds())
}

// IncCheckout counts a completed onboarding.
func (r *Recorder) IncCheckout() {
	r.checkoutsTotal.Inc()
}

// Gatherer exposes the registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// TextContentType is the content type written by WriteText.
var TextContentType = string(expfmt.NewFormat(expfmt.TypeTextPlain))

// WriteText encodes every metric family of g in the Prometheus text format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("metrics: gather: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("metrics: encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
