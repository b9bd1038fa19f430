package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "dreo"
	subsystem = "ws"
)

// Session holds the collectors for one or more sessions sharing a registry.
// A nil *Session is valid and records nothing.
type Session struct {
	connects       prometheus.Counter
	connected      prometheus.Gauge
	messages       prometheus.Counter
	bytes          prometheus.Counter
	errors         prometheus.Counter
	closes         *prometheus.CounterVec
	callbackPanics *prometheus.CounterVec
}

// New creates session metrics and registers them with reg.
// A nil registerer returns unregistered collectors.
func New(reg prometheus.Registerer) *Session {
	m := &Session{
		connects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "connects_total",
			Help:      "Total number of connect attempts",
		}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "connected",
			Help:      "1 while the WebSocket is open",
		}),
		messages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "messages_received_total",
			Help:      "Total number of messages received",
		}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bytes_received_total",
			Help:      "Total bytes received",
		}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "errors_total",
			Help:      "Total number of transport errors",
		}),
		closes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "closes_total",
			Help:      "Total number of closes by close code",
		}, []string{"code"}),
		callbackPanics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "callback_panics_total",
			Help:      "Total number of panics recovered from user callbacks",
		}, []string{"event"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.connects,
			m.connected,
			m.messages,
			m.bytes,
			m.errors,
			m.closes,
			m.callbackPanics,
		)
	}

	return m
}

// OnConnect records a connect attempt.
func (m *Session) OnConnect() {
	if m == nil {
		return
	}
	m.connects.Inc()
}

// OnOpen records an open connection.
func (m *Session) OnOpen() {
	if m == nil {
		return
	}
	m.connected.Set(1)
}

// OnMessage records a received message.
func (m *Session) OnMessage(size int) {
	if m == nil {
		return
	}
	m.messages.Inc()
	m.bytes.Add(float64(size))
}

// OnError records a transport error.
func (m *Session) OnError() {
	if m == nil {
		return
	}
	m.errors.Inc()
}

// OnClose records a close with its code.
func (m *Session) OnClose(code int) {
	if m == nil {
		return
	}
	m.connected.Set(0)
	m.closes.WithLabelValues(strconv.Itoa(code)).Inc()
}

// OnCallbackPanic records a panic recovered from the user callback for event.
func (m *Session) OnCallbackPanic(event string) {
	if m == nil {
		return
	}
	m.callbackPanics.WithLabelValues(event).Inc()
}
