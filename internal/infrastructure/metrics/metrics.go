package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/fintrack/internal/domain"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	AccountsCreated      prometheus.Counter
	TransactionsRecorded *prometheus.CounterVec
	TransfersCompleted   prometheus.Counter
	MutationsRejected    *prometheus.CounterVec
	PersistenceRollbacks *prometheus.CounterVec
	LedgerLoads          *prometheus.CounterVec

	// Outbox metrics
	EventsPublished    prometheus.Counter
	EventPublishErrors prometheus.Counter

	// API metrics
	HTTPRequests         *prometheus.CounterVec
	HTTPDuration         *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Authentication metrics
	AuthFailures *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates all metrics on the default Prometheus registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates all metrics on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Ledger metrics
		AccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		TransactionsRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_transactions_recorded_total",
				Help: "Total number of income and expense transactions recorded",
			},
			[]string{"type"},
		),
		TransfersCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_transfers_completed_total",
			Help: "Total number of transfers between accounts",
		}),
		MutationsRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_mutations_rejected_total",
				Help: "Total ledger mutations rejected by validation rule",
			},
			[]string{"rule"},
		),
		PersistenceRollbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_persistence_rollbacks_total",
				Help: "Total in-memory changes rolled back after the backend refused them",
			},
			[]string{"operation"},
		),
		LedgerLoads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_ledger_loads_total",
				Help: "Total ledger loads by outcome",
			},
			[]string{"outcome"},
		),

		// Outbox metrics
		EventsPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_outbox_events_published_total",
			Help: "Total outbox events published",
		}),
		EventPublishErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_outbox_publish_errors_total",
			Help: "Total outbox events that failed to publish",
		}),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fintrack_http_request_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
		HTTPRequestsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fintrack_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),

		// Authentication metrics
		AuthFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_auth_failures_total",
				Help: "Total authentication failures",
			},
			[]string{"reason"},
		),

		// Rate limiting metrics
		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_rate_limit_hits_total",
				Help: "Total requests refused by the rate limiter",
			},
			[]string{"method"},
		),
	}
}

// Metrics implements usecase.Recorder.

func (m *Metrics) AccountCreated() {
	m.AccountsCreated.Inc()
}

func (m *Metrics) TransactionRecorded(kind domain.TransactionType) {
	m.TransactionsRecorded.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) TransferCompleted() {
	m.TransfersCompleted.Inc()
}

func (m *Metrics) MutationRejected(rule string) {
	if rule == "" {
		rule = "unknown"
	}
	m.MutationsRejected.WithLabelValues(rule).Inc()
}

func (m *Metrics) PersistenceRolledBack(op string) {
	m.PersistenceRollbacks.WithLabelValues(op).Inc()
}

func (m *Metrics) LedgerLoaded(outcome string) {
	m.LedgerLoads.WithLabelValues(outcome).Inc()
}

// Metrics implements eventpublisher.Observer.

func (m *Metrics) EventPublished() {
	m.EventsPublished.Inc()
}

func (m *Metrics) EventPublishFailed() {
	m.EventPublishErrors.Inc()
}
