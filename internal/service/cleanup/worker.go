package cleanup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/perfumery/internal/domain"
)

const (
	defaultInterval  = 1 * time.Minute
	defaultBatchSize = 500
	defaultCartTTL   = 30 * time.Minute

	targetIdempotency = "idempotency_keys"
	targetCarts       = "carts"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "perfumery_cleanup_runs_total",
		Help: "Cleanup runs by target and result.",
	}, []string{"target", "result"})
	deletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "perfumery_cleanup_deleted_total",
		Help: "Records removed by the cleanup worker.",
	}, []string{"target"})
)

// CartExpirer удаляет корзины, простаивающие дольше допустимого.
type CartExpirer interface {
	ExpireIdle(before time.Time) (int, error)
}

type config struct {
	logger    *log.Entry
	interval  time.Duration
	batchSize int
	cartTTL   time.Duration
	now       func() time.Time
}

// Option настраивает Worker.
type Option func(*config)

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) Option {
	return func(c *config) { c.logger = logger }
}

// WithInterval задаёт интервал между запусками.
func WithInterval(interval time.Duration) Option {
	return func(c *config) { c.interval = interval }
}

// WithBatchSize задаёт размер порции при удалении ключей идемпотентности.
func WithBatchSize(n int) Option {
	return func(c *config) { c.batchSize = n }
}

// WithCartTTL задаёт время простоя, после которого корзина удаляется.
func WithCartTTL(ttl time.Duration) Option {
	return func(c *config) { c.cartTTL = ttl }
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(c *config) { c.now = now }
}

// Worker периодически удаляет просроченные ключи идемпотентности и брошенные корзины.
// Любой из источников может быть nil.
type Worker struct {
	keys  domain.IdempotencyRepository
	carts CartExpirer
	config
}

// NewWorker создаёт воркер очистки.
func NewWorker(keys domain.IdempotencyRepository, carts CartExpirer, opts ...Option) *Worker {
	c := config{
		interval:  defaultInterval,
		batchSize: defaultBatchSize,
		cartTTL:   defaultCartTTL,
	}
	for _, opt := range opts {
		opt(&c)
	}

	if c.logger == nil {
		c.logger = log.WithField("component", "cleanup-worker")
	}
	if c.interval <= 0 {
		c.interval = defaultInterval
	}
	if c.batchSize <= 0 {
		c.batchSize = defaultBatchSize
	}
	if c.cartTTL <= 0 {
		c.cartTTL = defaultCartTTL
	}
	if c.now == nil {
		c.now = func() time.Time { return time.Now().UTC() }
	}

	return &Worker{keys: keys, carts: carts, config: c}
}

// Run выполняет очистку сразу и затем каждые interval до отмены ctx.
func (w *Worker) Run(ctx context.Context) {
	if w.keys == nil && w.carts == nil {
		w.logger.Warn("cleanup worker disabled: nothing to clean")
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.RunOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce выполняет один проход по всем источникам.
func (w *Worker) RunOnce(ctx context.Context) {
	now := w.now()

	if w.keys != nil {
		deleted, err := w.DeleteExpiredKeys(ctx, now)
		w.report(targetIdempotency, deleted, err)
	}
	if w.carts != nil && ctx.Err() == nil {
		removed, err := w.carts.ExpireIdle(now.Add(-w.cartTTL))
		w.report(targetCarts, removed, err)
	}
}

// DeleteExpiredKeys удаляет ключи с ttl <= before порциями batchSize.
func (w *Worker) DeleteExpiredKeys(ctx context.Context, before time.Time) (int, error) {
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		deleted, err := w.keys.DeleteExpired(before, w.batchSize)
		if err != nil {
			return total, fmt.Errorf("delete expired idempotency keys: %w", err)
		}
		total += deleted

		if deleted < w.batchSize {
			return total, nil
		}
	}
}

func (w *Worker) report(target string, deleted int, err error) {
	if deleted > 0 {
		deletedTotal.WithLabelValues(target).Add(float64(deleted))
	}
	switch {
	case errors.Is(err, context.Canceled):
		return
	case err != nil:
		runsTotal.WithLabelValues(target, "error").Inc()
		w.logger.WithError(err).WithField("target", target).Warn("cleanup run failed")
	default:
		runsTotal.WithLabelValues(target, "ok").Inc()
		if deleted > 0 {
			w.logger.WithFields(log.Fields{
				"target":  target,
				"deleted": deleted,
			}).Info("cleanup completed")
		}
	}
}
