package invoice

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/perfumery/internal/domain"
)

// Issuer превращает корзину в счёт: сверяет позиции с каталогом, выдаёт номер,
// списывает остатки и добавляет счёт в журнал.
type Issuer struct {
	// mu сериализует выбор номера и запись в журнал.
	mu      sync.Mutex
	catalog domain.CatalogRepository
	ledger  domain.InvoiceRepository
	numbers domain.NumberGenerator
	options
}

// NewIssuer создаёт эмитента счетов.
func NewIssuer(catalog domain.CatalogRepository, ledger domain.InvoiceRepository, numbers domain.NumberGenerator, opts ...Option) *Issuer {
	return &Issuer{
		catalog: catalog,
		ledger:  ledger,
		numbers: numbers,
		options: buildOptions("invoice-issuer", opts),
	}
}

// Issue выставляет счёт по корзине. При успехе корзина переводится в Submitted.
// При любой ошибке журнал, остатки и корзина остаются без изменений.
func (i *Issuer) Issue(ctx context.Context, order *domain.Order, customer *domain.Customer) (domain.Invoice, error) {
	start := time.Now()

	inv, err := i.issue(ctx, order, customer)
	if err != nil {
		i.recordFailure(order, err)
		return domain.Invoice{}, err
	}

	if i.metrics != nil {
		i.metrics.RecordInvoiceIssued(inv.Total, time.Since(start))
	}
	i.emitEvent(inv, "", inv.IssuedAt)

	i.logger.WithFields(log.Fields{
		"invoice_number": inv.Number,
		"customer_id":    inv.Customer.ID,
		"lines":          len(inv.Lines),
		"total":          inv.Total.StringFixed(domain.MoneyPlaces),
	}).Info("invoice issued")

	return inv, nil
}

func (i *Issuer) issue(ctx context.Context, order *domain.Order, customer *domain.Customer) (domain.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return domain.Invoice{}, err
	}
	if order == nil || order.IsEmpty() {
		return domain.Invoice{}, domain.ErrEmptyOrder
	}
	if order.State() == domain.OrderStateSubmitted {
		return domain.Invoice{}, domain.ErrOrderSubmitted
	}
	if customer == nil || customer.ID == "" {
		return domain.Invoice{}, domain.ErrMissingCustomer
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	lines, err := i.currentLines(order)
	if err != nil {
		return domain.Invoice{}, err
	}

	subtotal := lines[0].Total
	for _, line := range lines[1:] {
		subtotal = subtotal.Add(line.Total)
	}
	totals := order.Pricing.Compute(subtotal)

	number, err := i.allocateNumber()
	if err != nil {
		return domain.Invoice{}, err
	}

	now := i.now()
	inv := domain.Invoice{
		Number:    number,
		IssuedAt:  now,
		Customer:  *customer,
		Lines:     lines,
		TaxRate:   order.Pricing.TaxRate,
		Subtotal:  totals.Subtotal,
		Tax:       totals.Tax,
		Shipping:  totals.Shipping,
		Total:     totals.Total,
		Status:    domain.InvoiceStatusPending,
		UpdatedAt: now,
	}
	if errs := inv.ValidateInvariants(); len(errs) > 0 {
		return domain.Invoice{}, fmt.Errorf("issue invoice: %w", errors.Join(errs...))
	}

	if i.inventory != nil {
		if err := i.inventory.Reserve(inv.Number, inv.Lines); err != nil {
			return domain.Invoice{}, err
		}
	}

	if err := i.ledger.Append(inv); err != nil {
		if i.inventory != nil {
			if relErr := i.inventory.Release(inv.Number, inv.Lines); relErr != nil {
				i.logger.WithError(relErr).WithField("invoice_number", inv.Number).Error("failed to release stock after ledger error")
			}
		}
		return domain.Invoice{}, fmt.Errorf("append invoice %s: %w", inv.Number, err)
	}

	if err := order.Submit(); err != nil {
		// Корзина проверена выше под тем же владельцем; сюда попадаем только при гонке вызывающего кода.
		i.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to submit order after issuing")
	}

	return inv, nil
}

// currentLines сверяет позиции корзины с каталогом: цена берётся актуальная,
// остаток проверяется повторно.
func (i *Issuer) currentLines(order *domain.Order) ([]domain.InvoiceLine, error) {
	items := order.Items()
	lines := make([]domain.InvoiceLine, 0, len(items))
	for _, item := range items {
		product, err := i.catalog.GetProduct(item.Product.ID)
		if err != nil {
			return nil, err
		}
		if item.Quantity > product.AvailableStock {
			return nil, domain.NewStockError(product.ID, item.Quantity, product.AvailableStock)
		}
		lines = append(lines, domain.NewInvoiceLine(product, item.Quantity))
	}
	return lines, nil
}

// allocateNumber подбирает номер, которого ещё нет в журнале. Вызывается под i.mu.
func (i *Issuer) allocateNumber() (string, error) {
	for attempt := 1; attempt <= i.maxNumberAttempts; attempt++ {
		number, err := i.numbers.Next()
		if err != nil {
			return "", err
		}
		exists, err := i.ledger.Exists(number)
		if err != nil {
			return "", fmt.Errorf("check invoice number %s: %w", number, err)
		}
		if !exists {
			return number, nil
		}
		i.logger.WithFields(log.Fields{
			"invoice_number": number,
			"attempt":        attempt,
		}).Debug("invoice number collision, retrying")
	}
	return "", fmt.Errorf("%w: no free number after %d attempts", domain.ErrInvoiceNumberExhausted, i.maxNumberAttempts)
}

func (i *Issuer) recordFailure(order *domain.Order, err error) {
	reason := failureReason(err)
	if i.metrics != nil {
		i.metrics.RecordIssueFailure(reason)
		if reason == "stock_exceeded" {
			i.metrics.RecordStockExceeded()
		}
	}

	entry := i.logger.WithError(err).WithField("reason", reason)
	if order != nil {
		entry = entry.WithField("order_id", order.ID)
	}
	entry.Warn("invoice issue rejected")
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyOrder):
		return "empty_order"
	case errors.Is(err, domain.ErrMissingCustomer):
		return "missing_customer"
	case errors.Is(err, domain.ErrStockExceeded):
		return "stock_exceeded"
	case errors.Is(err, domain.ErrOrderSubmitted):
		return "order_submitted"
	case errors.Is(err, domain.ErrInvoiceNumberExhausted):
		return "number_exhausted"
	case domain.IsNotFound(err):
		return "not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}
