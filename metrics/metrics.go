package metrics

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/iyulab/unpdf/handle"
)

// Owned payload kinds.
const (
	KindString   = "string"
	KindBytes    = "bytes"
	KindEnvelope = "envelope"
	KindDocument = "document"
	KindInput    = "input_buffer"
)

// Metrics contains Prometheus collectors for the cross-boundary protocol.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Owned engine allocations, by kind
	ownedAllocations *prometheus.CounterVec
	ownedReleases    *prometheus.CounterVec

	// Failures reported through the engine's error channel
	nativeFailures *prometheus.CounterVec

	// Documents parsed and not yet released
	liveDocuments prometheus.Gauge

	// Call latency per entry point
	callDuration *prometheus.HistogramVec
}

// New creates collectors registered on reg. A nil reg creates unregistered
// collectors. Collectors another Metrics already registered on reg are
// shared, so several runtimes can report through one registry.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		ownedAllocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unpdf_owned_allocations_total",
				Help: "Total number of engine-owned payloads handed to the host",
			},
			[]string{"kind"},
		),

		ownedReleases: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unpdf_owned_releases_total",
				Help: "Total number of engine-owned payloads released by the host",
			},
			[]string{"kind"},
		),

		nativeFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unpdf_native_failures_total",
				Help: "Total number of failures reported by the engine",
			},
			[]string{"op"},
		),

		liveDocuments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "unpdf_live_documents",
				Help: "Number of parsed documents not yet released",
			},
		),

		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "unpdf_call_duration_seconds",
				Help:    "Duration of engine calls",
				Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 30},
			},
			[]string{"op"},
		),
	}
	if reg == nil {
		return m, nil
	}

	var err error
	if m.ownedAllocations, err = register(reg, m.ownedAllocations); err != nil {
		return nil, err
	}
	if m.ownedReleases, err = register(reg, m.ownedReleases); err != nil {
		return nil, err
	}
	if m.nativeFailures, err = register(reg, m.nativeFailures); err != nil {
		return nil, err
	}
	if m.liveDocuments, err = register(reg, m.liveDocuments); err != nil {
		return nil, err
	}
	if m.callDuration, err = register(reg, m.callDuration); err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to reg, returning the collector already registered under
// the same descriptor instead when there is one.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var dup prometheus.AlreadyRegisteredError
	if stderrors.As(err, &dup) {
		if existing, ok := dup.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, fmt.Errorf("register metrics: %w", err)
}

// Allocated records an owned payload received from the engine.
func (m *Metrics) Allocated(kind string) {
	if m == nil {
		return
	}
	m.ownedAllocations.WithLabelValues(kind).Inc()
}

// Released records an owned payload returned to the engine.
func (m *Metrics) Released(kind string) {
	if m == nil {
		return
	}
	m.ownedReleases.WithLabelValues(kind).Inc()
}

// NativeFailure records a failure reported by the engine for op.
func (m *Metrics) NativeFailure(op string) {
	if m == nil {
		return
	}
	m.nativeFailures.WithLabelValues(op).Inc()
}

// ObserveCall records the duration of a call to op that began at start.
func (m *Metrics) ObserveCall(op string, start time.Time) {
	if m == nil {
		return
	}
	m.callDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// OnHandleEvent tracks live documents from the runtime's handle table.
func (m *Metrics) OnHandleEvent(e handle.Event) {
	if m == nil {
		return
	}
	switch e.Type {
	case handle.EventCreated:
		m.liveDocuments.Inc()
	case handle.EventDropped:
		m.liveDocuments.Dec()
	}
}

var _ handle.Observer = (*Metrics)(nil)
