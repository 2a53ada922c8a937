package invoice

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/perfumery/internal/domain"
)

// Ledger — сервисный слой над журналом счетов: выборки, статистика и смена статусов.
type Ledger struct {
	repo domain.InvoiceRepository
	options
}

// NewLedger создаёт сервис журнала счетов.
func NewLedger(repo domain.InvoiceRepository, opts ...Option) *Ledger {
	return &Ledger{
		repo:    repo,
		options: buildOptions("invoice-ledger", opts),
	}
}

// Get возвращает счёт по номеру.
func (l *Ledger) Get(number string) (domain.Invoice, error) {
	return l.repo.FindByNumber(number)
}

// Filter возвращает ленивую выборку.
func (l *Ledger) Filter(filter domain.InvoiceFilter) (domain.InvoiceView, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.InvalidArgument(fmt.Errorf("%w: %q", domain.ErrUnknownInvoiceStatus, filter.Status))
	}
	return l.repo.Filter(filter)
}

// List материализует выборку.
func (l *Ledger) List(filter domain.InvoiceFilter) ([]domain.Invoice, error) {
	view, err := l.Filter(filter)
	if err != nil {
		return nil, err
	}
	return view.Collect()
}

// Stats возвращает сводку по журналу.
func (l *Ledger) Stats() (domain.InvoiceStats, error) {
	return l.repo.Stats()
}

// Timeline возвращает историю счёта. Без настроенного timeline история пуста.
func (l *Ledger) Timeline(number string) ([]domain.TimelineEvent, error) {
	if _, err := l.repo.FindByNumber(number); err != nil {
		return nil, err
	}
	if l.timeline == nil {
		return nil, nil
	}
	return l.timeline.List(number)
}

// SetStatus переводит счёт в новый статус. Аннулирование возвращает остатки на склад.
func (l *Ledger) SetStatus(ctx context.Context, number string, status domain.InvoiceStatus, reason string) (domain.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return domain.Invoice{}, err
	}
	if !status.Valid() {
		return domain.Invoice{}, domain.InvalidArgument(fmt.Errorf("%w: %q", domain.ErrUnknownInvoiceStatus, status))
	}

	inv, err := l.repo.SetStatus(number, status, l.now())
	if err != nil {
		l.logger.WithError(err).WithFields(log.Fields{
			"invoice_number": number,
			"status":         status,
		}).Warn("invoice status change rejected")
		return domain.Invoice{}, err
	}

	if status == domain.InvoiceStatusVoided && l.inventory != nil {
		if err := l.inventory.Release(inv.Number, inv.Lines); err != nil {
			l.logger.WithError(err).WithField("invoice_number", inv.Number).Error("failed to release stock for voided invoice")
		}
	}

	if l.metrics != nil {
		l.metrics.RecordStatusChange(string(status))
	}
	l.emitEvent(inv, reason, inv.UpdatedAt)

	l.logger.WithFields(log.Fields{
		"invoice_number": inv.Number,
		"status":         inv.Status,
	}).Info("invoice status changed")

	return inv, nil
}
