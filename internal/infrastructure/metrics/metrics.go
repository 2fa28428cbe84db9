package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transfer metrics
	TransfersCommitted prometheus.Counter
	TransferDuration   prometheus.Histogram
	TransferAmount     prometheus.Histogram
	TransferErrors     *prometheus.CounterVec
	LockWait           prometheus.Histogram

	// Account metrics
	AccountsCreated prometheus.Counter

	// Notification metrics
	Notifications *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge
}

// New creates all metrics and registers them with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates all metrics and registers them with reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Transfer metrics
		TransfersCommitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "gotransfer_transfers_committed_total",
			Help: "Total number of committed transfers",
		}),
		TransferDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gotransfer_transfer_duration_seconds",
			Help:    "Duration of committed transfer operations",
			Buckets: prometheus.DefBuckets,
		}),
		TransferAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gotransfer_transfer_amount",
			Help:    "Transfer amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),
		TransferErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gotransfer_transfer_errors_total",
				Help: "Total number of rejected transfers by reason",
			},
			[]string{"reason"},
		),
		LockWait: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gotransfer_lock_wait_seconds",
			Help:    "Time spent acquiring both account locks",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}),

		// Account metrics
		AccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "gotransfer_accounts_created_total",
			Help: "Total number of accounts created",
		}),

		// Notification metrics
		Notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gotransfer_notifications_total",
				Help: "Transfer notifications by outcome",
			},
			[]string{"outcome"},
		),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gotransfer_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gotransfer_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gotransfer_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),
	}
}

// TransferCommitted records a committed transfer.
func (m *Metrics) TransferCommitted(amount decimal.Decimal, duration time.Duration) {
	m.TransfersCommitted.Inc()
	m.TransferDuration.Observe(duration.Seconds())
	m.TransferAmount.Observe(amount.InexactFloat64())
}

// TransferRejected records a rejected transfer.
func (m *Metrics) TransferRejected(reason string) {
	m.TransferErrors.WithLabelValues(reason).Inc()
}

// LockWaited records how long a transfer waited for its locks.
func (m *Metrics) LockWaited(duration time.Duration) {
	m.LockWait.Observe(duration.Seconds())
}

// AccountCreated records a created account.
func (m *Metrics) AccountCreated() {
	m.AccountsCreated.Inc()
}

func (m *Metrics) NotificationDelivered() {
	m.Notifications.WithLabelValues("delivered").Inc()
}

func (m *Metrics) NotificationFailed() {
	m.Notifications.WithLabelValues("failed").Inc()
}

func (m *Metrics) NotificationDropped() {
	m.Notifications.WithLabelValues("dropped").Inc()
}
