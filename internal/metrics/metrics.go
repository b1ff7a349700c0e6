// Package metrics provides Prometheus metrics for the recognition pipeline.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mudra"

// Metrics contains all Prometheus metrics for frame processing, gesture
// changes, action dispatch and event publishing.
type Metrics struct {
	FramesProcessed   prometheus.Counter
	FramesWithHand    prometheus.Counter
	DetectErrors      prometheus.Counter
	DetectLatency     prometheus.Histogram
	Classifications   *prometheus.CounterVec
	GestureChanges    *prometheus.CounterVec
	ActionsExecuted   *prometheus.CounterVec
	ActionsSuppressed *prometheus.CounterVec
	Published         *prometheus.CounterVec
	Active            prometheus.Gauge
	registry          *prometheus.Registry
}

// New creates a registry holding the pipeline metrics plus the Go and
// process collectors.
func New() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewMetrics(registry)
}

// NewMetrics registers the pipeline metrics on registry.
func NewMetrics(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register pipeline metrics: %w", err)
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.FramesProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "frames_processed_total",
		Help:      "Total number of frames run through hand detection",
	})

	m.FramesWithHand = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "frames_with_hand_total",
		Help:      "Total number of frames in which a hand was detected",
	})

	m.DetectErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "detect_errors_total",
		Help:      "Total number of failed hand detections",
	})

	m.DetectLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "detect_latency_seconds",
		Help:      "Latency of hand landmark detection in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.002, 2, 10),
	})

	m.Classifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "classifications_total",
		Help:      "Per-frame classifications by label; unknown and none count abstentions",
	}, []string{"label"})

	m.GestureChanges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gesture_changes_total",
		Help:      "Stable gesture changes by the gesture changed to; empty means dropped",
	}, []string{"to"})

	m.ActionsExecuted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "actions_executed_total",
		Help:      "Plugin action executions by gesture and result",
	}, []string{"gesture", "result"})

	m.ActionsSuppressed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "actions_suppressed_total",
		Help:      "Plugin actions skipped by gesture and reason",
	}, []string{"gesture", "reason"})

	m.Published = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Gesture events delivered to each sink and result",
	}, []string{"sink", "result"})

	m.Active = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pipeline_active",
		Help:      "1 while the pipeline runs at the active frame rate, 0 when idle",
	})
}

// ObserveFrame records one detection call.
func (m *Metrics) ObserveFrame(hand bool, seconds float64, err error) {
	m.FramesProcessed.Inc()
	m.DetectLatency.Observe(seconds)
	if err != nil {
		m.DetectErrors.Inc()
		return
	}
	if hand {
		m.FramesWithHand.Inc()
	}
}

// ObserveClassification counts a frame's label.
func (m *Metrics) ObserveClassification(label string) {
	m.Classifications.WithLabelValues(label).Inc()
}

// ObserveChange counts a stable gesture change.
func (m *Metrics) ObserveChange(to string) {
	m.GestureChanges.WithLabelValues(to).Inc()
}

// ObserveAction records a plugin action outcome.
func (m *Metrics) ObserveAction(gesture string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.ActionsExecuted.WithLabelValues(gesture, result).Inc()
}

// ObserveSuppressed records a skipped action.
func (m *Metrics) ObserveSuppressed(gesture, reason string) {
	m.ActionsSuppressed.WithLabelValues(gesture, reason).Inc()
}

// ObservePublish records delivery of an event to a sink.
func (m *Metrics) ObservePublish(sink string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.Published.WithLabelValues(sink, result).Inc()
}

// SetActive records the pipeline mode.
func (m *Metrics) SetActive(active bool) {
	if active {
		m.Active.Set(1)
	} else {
		m.Active.Set(0)
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Describe implements the prometheus.Collector interface.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.FramesProcessed.Describe(ch)
	m.FramesWithHand.Describe(ch)
	m.DetectErrors.Describe(ch)
	m.DetectLatency.Describe(ch)
	m.Classifications.Describe(ch)
	m.GestureChanges.Describe(ch)
	m.ActionsExecuted.Describe(ch)
	m.ActionsSuppressed.Describe(ch)
	m.Published.Describe(ch)
	m.Active.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.FramesProcessed.Collect(ch)
	m.FramesWithHand.Collect(ch)
	m.DetectErrors.Collect(ch)
	m.DetectLatency.Collect(ch)
	m.Classifications.Collect(ch)
	m.GestureChanges.Collect(ch)
	m.ActionsExecuted.Collect(ch)
	m.ActionsSuppressed.Collect(ch)
	m.Published.Collect(ch)
	m.Active.Collect(ch)
}
