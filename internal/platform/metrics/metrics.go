package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector agrupa las métricas de la clínica.
// Se registra contra un Registry propio para poder crear varios en tests.
type Collector struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlightGauge   prometheus.Gauge

	BookingsTotal       *prometheus.CounterVec
	SlotConflictsTotal  prometheus.Counter
	PatientsAutoCreated prometheus.Counter
	VisitsFinalized     prometheus.Counter
}

func NewCollector(serviceName string) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code.",
		}, []string{"method", "path", "status"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}, []string{"method", "path", "status"}),

		InFlightGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),

		BookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "clinic",
			Name:      "bookings_total",
			Help:      "Appointments booked, by source (web, staff).",
		}, []string{"source"}),

		SlotConflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "clinic",
			Name:      "slot_conflicts_total",
			Help:      "Bookings rejected because the date+time slot was already taken.",
		}),

		PatientsAutoCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "clinic",
			Name:      "patients_auto_created_total",
			Help:      "Patient records auto-created from the public booking form.",
		}),

		VisitsFinalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "clinic",
			Name:      "visits_finalized_total",
			Help:      "Consultations finalized from the in-visit workspace.",
		}),
	}

	reg.MustRegister(
		c.RequestsTotal,
		c.RequestDuration,
		c.InFlightGauge,
		c.BookingsTotal,
		c.SlotConflictsTotal,
		c.PatientsAutoCreated,
		c.VisitsFinalized,
	)

	return c
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
