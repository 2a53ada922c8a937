package invoice

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/perfumery/internal/domain"
	"github.com/vladislavdragonenkov/perfumery/internal/metrics"
)

const defaultMaxNumberAttempts = 20

type options struct {
	inventory         domain.InventoryService
	outbox            domain.OutboxRepository
	timeline          domain.TimelineRepository
	metrics           *metrics.BillingMetrics
	logger            *log.Entry
	now               func() time.Time
	maxNumberAttempts int
}

// Option настраивает Issuer и Ledger.
type Option func(*options)

// WithInventory включает списание остатков при выставлении и возврат при аннулировании.
func WithInventory(inventory domain.InventoryService) Option {
	return func(o *options) {
		o.inventory = inventory
	}
}

// WithOutbox включает постановку событий счёта в transactional outbox.
func WithOutbox(outbox domain.OutboxRepository) Option {
	return func(o *options) {
		o.outbox = outbox
	}
}

// WithTimeline включает запись истории счёта.
func WithTimeline(timeline domain.TimelineRepository) Option {
	return func(o *options) {
		o.timeline = timeline
	}
}

// WithMetrics задаёт prometheus-метрики.
func WithMetrics(m *metrics.BillingMetrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithMaxNumberAttempts ограничивает число попыток подобрать свободный номер.
func WithMaxNumberAttempts(n int) Option {
	return func(o *options) {
		o.maxNumberAttempts = n
	}
}

func buildOptions(component string, opts []Option) options {
	o := options{maxNumberAttempts: defaultMaxNumberAttempts}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.WithField("component", component)
	}
	if o.now == nil {
		o.now = func() time.Time { return time.Now().UTC() }
	}
	if o.maxNumberAttempts <= 0 {
		o.maxNumberAttempts = defaultMaxNumberAttempts
	}
	return o
}
