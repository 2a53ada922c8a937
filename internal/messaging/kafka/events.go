package kafka

import (
	"time"

	"github.com/vladislavdragonenkov/perfumery/internal/domain"
)

// EventType определяет тип события
type EventType string

const (
	// Invoice события
	EventTypeInvoiceIssued EventType = "invoice.issued"
	EventTypeInvoicePaid   EventType = "invoice.paid"
	EventTypeInvoiceVoided EventType = "invoice.voided"

	// Stock события
	EventTypeStockLow EventType = "stock.low"
)

// AggregateTypeInvoice — тип агрегата для outbox-сообщений по счетам.
const AggregateTypeInvoice = "invoice"

// Topics для Kafka
const (
	TopicInvoiceEvents   = "perfumery.invoice.events"
	TopicStockEvents     = "perfumery.stock.events"
	TopicDeadLetterQueue = "perfumery.dlq" // Dead Letter Queue для failed messages
)

// Kafka headers
const (
	HeaderEventType     = "x-event-type"
	HeaderAggregateType = "x-aggregate-type"
	HeaderErrorMessage  = "x-error-message"
	HeaderFailedAt      = "x-failed-at"
)

// InvoiceLineEvent — строка счёта в событии.
type InvoiceLineEvent struct {
	ProductID string `json:"product_id"`
	Code      string `json:"code,omitempty"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Total     string `json:"total"`
}

// InvoiceEvent представляет событие счёта. Суммы передаются строками, чтобы не терять точность.
type InvoiceEvent struct {
	EventType     EventType          `json:"event_type"`
	InvoiceNumber string             `json:"invoice_number"`
	CustomerID    string             `json:"customer_id"`
	CustomerTaxID string             `json:"customer_tax_id"`
	Status        string             `json:"status"`
	Subtotal      string             `json:"subtotal"`
	Tax           string             `json:"tax"`
	Shipping      string             `json:"shipping"`
	Total         string             `json:"total"`
	Lines         []InvoiceLineEvent `json:"lines,omitempty"`
	Reason        string             `json:"reason,omitempty"`
	Timestamp     time.Time          `json:"timestamp"`
}

// StockEvent сообщает о товаре, остаток которого опустился до минимума.
type StockEvent struct {
	EventType EventType `json:"event_type"`
	ProductID string    `json:"product_id"`
	Code      string    `json:"code"`
	Available int       `json:"available"`
	MinStock  int       `json:"min_stock"`
	Timestamp time.Time `json:"timestamp"`
}

// EventTypeForStatus возвращает тип события для статуса счёта.
func EventTypeForStatus(status domain.InvoiceStatus) EventType {
	switch status {
	case domain.InvoiceStatusPaid:
		return EventTypeInvoicePaid
	case domain.InvoiceStatusVoided:
		return EventTypeInvoiceVoided
	default:
		return EventTypeInvoiceIssued
	}
}

// NewInvoiceEvent создает событие счёта.
func NewInvoiceEvent(eventType EventType, inv domain.Invoice, reason string) *InvoiceEvent {
	lines := make([]InvoiceLineEvent, 0, len(inv.Lines))
	for _, line := range inv.Lines {
		lines = append(lines, InvoiceLineEvent{
			ProductID: line.ProductID,
			Code:      line.Code,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice.StringFixed(domain.MoneyPlaces),
			Total:     line.Total.StringFixed(domain.MoneyPlaces),
		})
	}

	return &InvoiceEvent{
		EventType:     eventType,
		InvoiceNumber: inv.Number,
		CustomerID:    inv.Customer.ID,
		CustomerTaxID: inv.Customer.TaxID,
		Status:        string(inv.Status),
		Subtotal:      inv.Subtotal.StringFixed(domain.MoneyPlaces),
		Tax:           inv.Tax.StringFixed(domain.MoneyPlaces),
		Shipping:      inv.Shipping.StringFixed(domain.MoneyPlaces),
		Total:         inv.Total.StringFixed(domain.MoneyPlaces),
		Lines:         lines,
		Reason:        reason,
		Timestamp:     time.Now().UTC(),
	}
}

// NewStockEvent создает событие низкого остатка.
func NewStockEvent(p domain.Product) *StockEvent {
	return &StockEvent{
		EventType: EventTypeStockLow,
		ProductID: p.ID,
		Code:      p.Code,
		Available: p.AvailableStock,
		MinStock:  p.MinStock,
		Timestamp: time.Now().UTC(),
	}
}

// TopicForEvent выбирает topic по типу события.
func TopicForEvent(eventType string) string {
	if EventType(eventType) == EventTypeStockLow {
		return TopicStockEvents
	}
	return TopicInvoiceEvents
}
