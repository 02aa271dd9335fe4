package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RegistrationsCreated prometheus.Counter
	StatusUpdates        *prometheus.CounterVec
	RegistrationsDeleted prometheus.Counter
	WaitlistSignups      prometheus.Counter
	IndexRemoved         prometheus.Counter
	IndexRepaired        prometheus.Counter
	RequestDuration      *prometheus.HistogramVec
}

// New creates all metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		RegistrationsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mystik_guide_registrations_created_total",
			Help: "Total number of guide registrations created",
		}),
		StatusUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mystik_guide_registration_status_updates_total",
			Help: "Guide registration status changes by new status",
		}, []string{"status"}),
		RegistrationsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mystik_guide_registrations_deleted_total",
			Help: "Total number of guide registrations deleted",
		}),
		WaitlistSignups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mystik_waitlist_signups_total",
			Help: "Total number of waitlist signups",
		}),
		IndexRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mystik_email_index_removed_total",
			Help: "Orphaned email index entries removed by reconcile",
		}),
		IndexRepaired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mystik_email_index_repaired_total",
			Help: "Missing or stale email index entries rewritten by reconcile",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mystik_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(
		m.RegistrationsCreated, m.StatusUpdates, m.RegistrationsDeleted,
		m.WaitlistSignups, m.IndexRemoved, m.IndexRepaired, m.RequestDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IncRegistrationsCreated() {
	if m != nil {
		m.RegistrationsCreated.Inc()
	}
}

func (m *Metrics) IncStatusUpdate(status string) {
	if m != nil {
		m.StatusUpdates.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) IncRegistrationsDeleted() {
	if m != nil {
		m.RegistrationsDeleted.Inc()
	}
}

func (m *Metrics) IncWaitlistSignups() {
	if m != nil {
		m.WaitlistSignups.Inc()
	}
}

// AddReconcile records one reconcile run.
func (m *Metrics) AddReconcile(removed, repaired int) {
	if m != nil {
		m.IndexRemoved.Add(float64(removed))
		m.IndexRepaired.Add(float64(repaired))
	}
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	if m != nil {
		m.RequestDuration.WithLabelValues(method, route, status).Observe(seconds)
	}
}
