package notifier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/iho/gotransfer/internal/domain"
)

// Sink delivers a notification to an account holder.
type Sink interface {
	Deliver(ctx context.Context, notification domain.Notification) error
}

// Recorder observes dispatcher outcomes.
type Recorder interface {
	NotificationDelivered()
	NotificationFailed()
	NotificationDropped()
}

// Dispatcher implements usecase.NotificationService. Notifications are
// queued without blocking and delivered by a pool of workers, so a slow or
// failing sink never delays a transfer.
type Dispatcher struct {
	routes       []route
	logger       zerolog.Logger
	recorder     Recorder
	retrier      *Retrier
	queue        chan domain.Notification
	workers      int
	drainTimeout time.Duration
}

// route is one sink behind its own circuit breaker.
type route struct {
	sink    Sink
	breaker *gobreaker.CircuitBreaker
}

// Config for Dispatcher.
type Config struct {
	// Sinks are retried and circuit-broken independently, so a failing
	// sink never causes a repeat delivery to a healthy one.
	Sinks    []Sink
	Logger   zerolog.Logger
	Recorder Recorder

	Workers       int           // Number of delivery goroutines
	QueueSize     int           // Pending notifications before new ones are dropped
	MaxRetries    int           // Retries per notification after the first attempt
	RetryInterval time.Duration // Initial backoff interval
	DrainTimeout  time.Duration // Time allowed to flush the queue on shutdown

	BreakerFailures uint32        // Consecutive failures that open the breaker
	BreakerTimeout  time.Duration // How long the breaker stays open
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 50 * time.Millisecond
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 5 * time.Second
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}
	if cfg.Recorder == nil {
		cfg.Recorder = noopRecorder{}
	}

	retrier := NewRetrier(cfg.Logger)
	retrier.maxRetries = cfg.MaxRetries
	retrier.initialInterval = cfg.RetryInterval

	routes := make([]route, 0, len(cfg.Sinks))
	for _, sink := range cfg.Sinks {
		routes = append(routes, route{
			sink:    sink,
			breaker: newBreaker(fmt.Sprintf("notification-sink %T", sink), cfg.BreakerFailures, cfg.BreakerTimeout, cfg.Logger),
		})
	}

	return &Dispatcher{
		routes:       routes,
		logger:       cfg.Logger,
		recorder:     cfg.Recorder,
		retrier:      retrier,
		queue:        make(chan domain.Notification, cfg.QueueSize),
		workers:      cfg.Workers,
		drainTimeout: cfg.DrainTimeout,
	}
}

func newBreaker(name string, failures uint32, timeout time.Duration, logger zerolog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("notification circuit breaker state changed")
		},
	})
}

// NotifyAboutTransfer queues a notification for the account holder.
// It never blocks; when the queue is full the notification is dropped.
func (d *Dispatcher) NotifyAboutTransfer(account *domain.Account, description string) {
	notification := domain.Notification{
		AccountID:   account.ID(),
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}

	select {
	case d.queue <- notification:
	default:
		d.recorder.NotificationDropped()
		d.logger.Error().
			Str("account_id", notification.AccountID).
			Str("description", description).
			Msg("notification queue full, dropping notification")
	}
}

// Pending returns the number of queued notifications.
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

// Start runs the delivery workers until ctx is cancelled, then flushes
// whatever is still queued within the drain timeout.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.logger.Info().
		Int("workers", d.workers).
		Int("queue_size", cap(d.queue)).
		Msg("notification dispatcher started")

	var wg sync.WaitGroup
	wg.Add(d.workers)
	for range d.workers {
		go func() {
			defer wg.Done()
			d.work(ctx)
		}()
	}
	wg.Wait()

	d.logger.Info().Int("pending", len(d.queue)).Msg("notification dispatcher shutting down")
	d.drain()

	return ctx.Err()
}

func (d *Dispatcher) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case notification := <-d.queue:
			d.deliver(ctx, notification)
		}
	}
}

func (d *Dispatcher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), d.drainTimeout)
	defer cancel()

	for {
		select {
		case notification := <-d.queue:
			d.deliver(ctx, notification)
		default:
			return
		}
	}
}

// deliver sends one notification to every sink. Failures are logged and
// counted only.
func (d *Dispatcher) deliver(ctx context.Context, notification domain.Notification) {
	var errs []error
	for _, rt := range d.routes {
		err := d.retrier.Retry(ctx, func() error {
			_, err := rt.breaker.Execute(func() (interface{}, error) {
				return nil, rt.sink.Deliver(ctx, notification)
			})
			return err
		})
		if err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		d.recorder.NotificationFailed()
		d.logger.Warn().
			Err(err).
			Str("account_id", notification.AccountID).
			Msg("failed to deliver notification")
		return
	}

	d.recorder.NotificationDelivered()
	d.logger.Debug().
		Str("account_id", notification.AccountID).
		Msg("notification delivered")
}

type noopRecorder struct{}

func (noopRecorder) NotificationDelivered() {}
func (noopRecorder) NotificationFailed()    {}
func (noopRecorder) NotificationDropped()   {}
