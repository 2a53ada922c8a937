package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/perfumery/internal/domain"
)

// invoiceRepositoryInMemory — журнал счетов в памяти, упорядоченный по времени добавления.
type invoiceRepositoryInMemory struct {
	mu       sync.RWMutex
	invoices []domain.Invoice
	index    map[string]int
}

// NewInvoiceRepository создаёт пустой in-memory журнал счетов.
func NewInvoiceRepository() domain.InvoiceRepository {
	return &invoiceRepositoryInMemory{index: make(map[string]int)}
}

// Append добавляет счёт в конец журнала.
func (r *invoiceRepositoryInMemory) Append(invoice domain.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.index[invoice.Number]; exists {
		return fmt.Errorf("%w: %s", domain.ErrInvoiceNumberConflict, invoice.Number)
	}
	r.index[invoice.Number] = len(r.invoices)
	r.invoices = append(r.invoices, invoice.Clone())
	return nil
}

func (r *invoiceRepositoryInMemory) FindByNumber(number string) (domain.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[number]
	if !ok {
		return domain.Invoice{}, fmt.Errorf("%w: %s", domain.ErrInvoiceNotFound, number)
	}
	return r.invoices[i].Clone(), nil
}

func (r *invoiceRepositoryInMemory) Exists(number string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.index[number]
	return ok, nil
}

// Filter возвращает ленивое представление: журнал читается при каждом проходе,
// блокировка не удерживается во время yield.
func (r *invoiceRepositoryInMemory) Filter(filter domain.InvoiceFilter) (domain.InvoiceView, error) {
	return func(yield func(domain.Invoice, error) bool) {
		r.mu.RLock()
		snapshot := make([]domain.Invoice, len(r.invoices))
		copy(snapshot, r.invoices)
		r.mu.RUnlock()

		emitted := 0
		for n := range snapshot {
			i := n
			if filter.Newest {
				i = len(snapshot) - 1 - n
			}
			inv := snapshot[i]
			if !filter.Matches(inv) {
				continue
			}
			if !yield(inv.Clone(), nil) {
				return
			}
			emitted++
			if filter.Limit > 0 && emitted >= filter.Limit {
				return
			}
		}
	}, nil
}

// SetStatus проверяет допустимость перехода и меняет статус под блокировкой.
func (r *invoiceRepositoryInMemory) SetStatus(number string, status domain.InvoiceStatus, at time.Time) (domain.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[number]
	if !ok {
		return domain.Invoice{}, fmt.Errorf("%w: %s", domain.ErrInvoiceNotFound, number)
	}
	current := r.invoices[i].Status
	if !current.CanTransitionTo(status) {
		return domain.Invoice{}, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidStatusTransition, current, status)
	}

	r.invoices[i].Status = status
	r.invoices[i].UpdatedAt = at
	return r.invoices[i].Clone(), nil
}

func (r *invoiceRepositoryInMemory) Stats() (domain.InvoiceStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stats domain.InvoiceStats
	for _, inv := range r.invoices {
		stats.Add(inv)
	}
	return stats, nil
}

var _ domain.InvoiceRepository = (*invoiceRepositoryInMemory)(nil)
