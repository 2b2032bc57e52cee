package app

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gatepass/cmd/internal/verify"
)

// Metrics holds the Prometheus collectors exposed on /metrics. It implements
// the verify orchestrator's metrics hook.
type Metrics struct {
	reg      *prometheus.Registry
	scans    *prometheus.CounterVec
	checkins prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gatepass_scan_decisions_total",
			Help: "Scan decisions partitioned by outcome status.",
		}, []string{"status"}),
		checkins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gatepass_checkins_total",
			Help: "Attendance records committed at the gate.",
		}),
	}
	reg.MustRegister(
		m.scans,
		m.checkins,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveScan(status verify.Status) {
	m.scans.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) ObserveCheckIn() {
	m.checkins.Inc()
}

// Handler serves the metrics endpoint for this registry only.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
