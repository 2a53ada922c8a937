package inventory

import (
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/perfumery/internal/domain"
	"github.com/vladislavdragonenkov/perfumery/internal/messaging/kafka"
)

// CatalogService списывает и возвращает остатки прямо в каталоге.
type CatalogService struct {
	catalog domain.CatalogRepository
	outbox  domain.OutboxRepository
	logger  *log.Entry
}

// Option настраивает CatalogService.
type Option func(*CatalogService)

// WithOutbox включает публикацию stock.low после списания.
func WithOutbox(outbox domain.OutboxRepository) Option {
	return func(s *CatalogService) {
		s.outbox = outbox
	}
}

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) Option {
	return func(s *CatalogService) {
		s.logger = logger
	}
}

// NewCatalogService создаёт складской сервис поверх каталога.
func NewCatalogService(catalog domain.CatalogRepository, opts ...Option) *CatalogService {
	s := &CatalogService{catalog: catalog}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.WithField("component", "inventory")
	}
	return s
}

// Reserve списывает остатки по строкам счёта одной атомарной операцией.
func (s *CatalogService) Reserve(invoiceNumber string, lines []domain.InvoiceLine) error {
	if err := s.catalog.AdjustStock(deltas(lines, -1)); err != nil {
		return fmt.Errorf("reserve stock for %s: %w", invoiceNumber, err)
	}

	s.logger.WithFields(log.Fields{
		"invoice_number": invoiceNumber,
		"lines":          len(lines),
	}).Debug("stock reserved")

	s.notifyLowStock(lines)
	return nil
}

// Release возвращает остатки аннулированного счёта.
func (s *CatalogService) Release(invoiceNumber string, lines []domain.InvoiceLine) error {
	if err := s.catalog.AdjustStock(deltas(lines, 1)); err != nil {
		return fmt.Errorf("release stock for %s: %w", invoiceNumber, err)
	}

	s.logger.WithField("invoice_number", invoiceNumber).Debug("stock released")
	return nil
}

func (s *CatalogService) notifyLowStock(lines []domain.InvoiceLine) {
	if s.outbox == nil {
		return
	}

	for _, line := range lines {
		product, err := s.catalog.GetProduct(line.ProductID)
		if err != nil || !product.IsLowStock() {
			continue
		}
		payload, err := json.Marshal(kafka.NewStockEvent(product))
		if err != nil {
			s.logger.WithError(err).Warn("failed to marshal stock event")
			continue
		}
		if _, err := s.outbox.Enqueue(domain.OutboxMessage{
			AggregateType: "product",
			AggregateID:   product.ID,
			EventType:     string(kafka.EventTypeStockLow),
			Payload:       payload,
		}); err != nil {
			s.logger.WithError(err).WithField("product_id", product.ID).Warn("failed to enqueue stock event")
		}
	}
}

// deltas сворачивает строки в изменения остатков; один товар может встречаться в нескольких строках.
func deltas(lines []domain.InvoiceLine, sign int) map[string]int {
	out := make(map[string]int, len(lines))
	for _, line := range lines {
		out[line.ProductID] += sign * line.Quantity
	}
	return out
}

var _ domain.InventoryService = (*CatalogService)(nil)
