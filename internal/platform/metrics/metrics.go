package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	AccountsRegistered    prometheus.Counter
	Logins                *prometheus.CounterVec
	AccessTokensMinted    prometheus.Counter
	ProjectsCreated       prometheus.Counter
	ApplicationsSubmitted prometheus.Counter
	Decisions             *prometheus.CounterVec
	RequestDuration       *prometheus.HistogramVec
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		AccountsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "researchmatch_accounts_registered_total",
			Help: "Total number of accounts registered",
		}),
		Logins: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "researchmatch_logins_total",
			Help: "Login attempts by result",
		}, []string{"result"}),
		AccessTokensMinted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "researchmatch_access_tokens_minted_total",
			Help: "Access tokens minted, including refresh-grant reissues",
		}),
		ProjectsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "researchmatch_projects_created_total",
			Help: "Project entries created across all buckets",
		}),
		ApplicationsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "researchmatch_applications_submitted_total",
			Help: "Applications submitted by students",
		}),
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "researchmatch_decisions_total",
			Help: "Application decisions by outcome",
		}, []string{"decision"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "researchmatch_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// The increment helpers tolerate a nil receiver so unit tests can wire
// services without touching the default prometheus registry.

func (m *Metrics) IncAccountsRegistered() {
	if m != nil {
		m.AccountsRegistered.Inc()
	}
}

func (m *Metrics) IncLogins(result string) {
	if m != nil {
		m.Logins.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) IncAccessTokensMinted() {
	if m != nil {
		m.AccessTokensMinted.Inc()
	}
}

func (m *Metrics) IncProjectsCreated() {
	if m != nil {
		m.ProjectsCreated.Inc()
	}
}

func (m *Metrics) IncApplicationsSubmitted() {
	if m != nil {
		m.ApplicationsSubmitted.Inc()
	}
}

func (m *Metrics) IncDecisions(decision string) {
	if m != nil {
		m.Decisions.WithLabelValues(decision).Inc()
	}
}

func (m *Metrics) ObserveRequest(route, status string, seconds float64) {
	if m != nil {
		m.RequestDuration.WithLabelValues(route, status).Observe(seconds)
	}
}
