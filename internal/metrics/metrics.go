// Package metrics holds the Prometheus instruments for the capture pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "ud18"

// Rejection reasons used as the "reason" label.
const (
	ReasonLength  = "length"
	ReasonSync    = "sync"
	ReasonType    = "type"
	ReasonUnknown = "unknown"
)

// Pipeline is the set of capture metrics. A nil *Pipeline is valid and
// records nothing.
type Pipeline struct {
	Registry *prometheus.Registry

	framesReceived   prometheus.Counter
	framesRejected   *prometheus.CounterVec // by reason
	framesDropped    prometheus.Counter
	recordsPersisted prometheus.Counter
	recordsThrottled prometheus.Counter
	storeErrors      prometheus.Counter
	sessions         *prometheus.CounterVec // by outcome
	sessionState     prometheus.Gauge
}

// New creates the pipeline metrics on a private registry, together with the
// Go runtime and process collectors.
func New() *Pipeline {
	reg := prometheus.NewRegistry()
	p := &Pipeline{
		Registry: reg,
		framesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decoder",
			Name:      "frames_received_total",
			Help:      "Notification frames handed to the decoder",
		}),
		framesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decoder",
			Name:      "frames_rejected_total",
			Help:      "Frames rejected as malformed",
		}, []string{"reason"}), // reason: length, sync, type
		framesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "frames_dropped_total",
			Help:      "Notifications dropped because the receive queue was full",
		}),
		recordsPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recorder",
			Name:      "records_persisted_total",
			Help:      "Measurements appended to the store",
		}),
		recordsThrottled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recorder",
			Name:      "records_throttled_total",
			Help:      "Measurements dropped by the rate limit",
		}),
		storeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recorder",
			Name:      "store_errors_total",
			Help:      "Failed store appends",
		}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "finished_total",
			Help:      "Capture sessions finished, by outcome",
		}, []string{"outcome"}),
		sessionState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "state",
			Help:      "Current device session state (0=idle .. 6=error)",
		}),
	}

	reg.MustRegister(
		p.framesReceived,
		p.framesRejected,
		p.framesDropped,
		p.recordsPersisted,
		p.recordsThrottled,
		p.storeErrors,
		p.sessions,
		p.sessionState,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

func (p *Pipeline) FrameReceived() {
	if p != nil {
		p.framesReceived.Inc()
	}
}

func (p *Pipeline) FrameRejected(reason string) {
	if p != nil {
		p.framesRejected.WithLabelValues(reason).Inc()
	}
}

func (p *Pipeline) FrameDropped() {
	if p != nil {
		p.framesDropped.Inc()
	}
}

func (p *Pipeline) RecordPersisted() {
	if p != nil {
		p.recordsPersisted.Inc()
	}
}

func (p *Pipeline) RecordThrottled() {
	if p != nil {
		p.recordsThrottled.Inc()
	}
}

func (p *Pipeline) StoreError() {
	if p != nil {
		p.storeErrors.Inc()
	}
}

// SessionFinished counts a session end; outcome is "stopped", "timeout" or
// the failing stage.
func (p *Pipeline) SessionFinished(outcome string) {
	if p != nil {
		p.sessions.WithLabelValues(outcome).Inc()
	}
}

func (p *Pipeline) SetSessionState(state int) {
	if p != nil {
		p.sessionState.Set(float64(state))
	}
}
