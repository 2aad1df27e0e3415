// Package metrics holds the prometheus collectors of the server. Every method
// is safe on a nil *Metrics, which disables collection.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"strconv"
)

type Metrics struct {
	accepted  prometheus.Counter
	active    prometheus.Gauge
	freeSlots prometheus.Gauge
	exhausted prometheus.Counter
	responses *prometheus.CounterVec
	bodyBytes prometheus.Counter
	failures  prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		accepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "staticd_connections_accepted_total",
			Help: "Total number of accepted connections",
		}),
		active: factory.NewGauge(prometheus.GaugeOpts{
			Name: "staticd_connections_active",
			Help: "Current number of connections owned by a fiber",
		}),
		freeSlots: factory.NewGauge(prometheus.GaugeOpts{
			Name: "staticd_bufpool_free_slots",
			Help: "Current number of free registered buffers",
		}),
		exhausted: factory.NewCounter(prometheus.CounterOpts{
			Name: "staticd_bufpool_exhausted_total",
			Help: "Connections served from an unregistered fallback buffer",
		}),
		responses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "staticd_responses_total",
			Help: "Responses by status code",
		}, []string{"status"}),
		bodyBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "staticd_body_bytes_total",
			Help: "File bytes written to clients",
		}),
		failures: factory.NewCounter(prometheus.CounterOpts{
			Name: "staticd_connection_failures_total",
			Help: "Connections that ended with an error",
		}),
	}
}

func (m *Metrics) Accepted() {
	if m == nil {
		return
	}
	m.accepted.Inc()
	m.active.Inc()
}

func (m *Metrics) Closed() {
	if m == nil {
		return
	}
	m.active.Dec()
}

func (m *Metrics) FreeSlots(n int) {
	if m == nil {
		return
	}
	m.freeSlots.Set(float64(n))
}

func (m *Metrics) Exhausted() {
	if m == nil {
		return
	}
	m.exhausted.Inc()
}

func (m *Metrics) Response(status int) {
	if m == nil {
		return
	}
	m.responses.WithLabelValues(strconv.Itoa(status)).Inc()
}

func (m *Metrics) BodyBytes(n int) {
	if m == nil {
		return
	}
	m.bodyBytes.Add(float64(n))
}

func (m *Metrics) Failed() {
	if m == nil {
		return
	}
	m.failures.Inc()
}
