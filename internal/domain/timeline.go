package domain

import "time"

// Типы событий жизненного цикла счёта.
const (
	TimelineInvoiceIssued = "invoice_issued"
	TimelineInvoicePaid   = "invoice_paid"
	TimelineInvoiceVoided = "invoice_voided"
)

// TimelineEvent описывает событие в истории счёта.
type TimelineEvent struct {
	InvoiceNumber string
	Type          string
	Reason        string
	Occurred      time.Time
}

// TimelineTypeForStatus возвращает тип события для перехода в статус.
func TimelineTypeForStatus(status InvoiceStatus) string {
	switch status {
	case InvoiceStatusPaid:
		return TimelineInvoicePaid
	case InvoiceStatusVoided:
		return TimelineInvoiceVoided
	default:
		return TimelineInvoiceIssued
	}
}
