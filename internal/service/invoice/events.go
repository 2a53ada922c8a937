package invoice

import (
	"encoding/json"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/perfumery/internal/domain"
	"github.com/vladislavdragonenkov/perfumery/internal/messaging/kafka"
)

// emitEvent пишет событие счёта в outbox и timeline. Ошибки только логируются:
// счёт уже сохранён в журнале и остаётся источником истины.
func (o *options) emitEvent(inv domain.Invoice, reason string, occurred time.Time) {
	eventType := kafka.EventTypeForStatus(inv.Status)
	fields := log.Fields{
		"invoice_number": inv.Number,
		"event":          eventType,
	}

	if o.outbox != nil {
		data, err := json.Marshal(kafka.NewInvoiceEvent(eventType, inv, reason))
		if err != nil {
			o.logger.WithError(err).WithFields(fields).Error("marshal event failed")
		} else if _, err := o.outbox.Enqueue(domain.OutboxMessage{
			AggregateType: kafka.AggregateTypeInvoice,
			AggregateID:   inv.Number,
			EventType:     string(eventType),
			Payload:       data,
		}); err != nil {
			o.logger.WithError(err).WithFields(fields).Error("enqueue event failed")
		} else if o.metrics != nil {
			o.metrics.RecordOutboxEvent()
		}
	}

	if o.timeline != nil {
		event := domain.TimelineEvent{
			InvoiceNumber: inv.Number,
			Type:          domain.TimelineTypeForStatus(inv.Status),
			Reason:        reason,
			Occurred:      occurred,
		}
		if err := o.timeline.Append(event); err != nil {
			o.logger.WithError(err).WithFields(fields).Warn("append timeline event failed")
		} else if o.metrics != nil {
			o.metrics.RecordTimelineEvent()
		}
	}
}
