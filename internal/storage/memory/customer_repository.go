package memory

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/perfumery/internal/domain"
)

// customerRepositoryInMemory — клиентский справочник в памяти.
type customerRepositoryInMemory struct {
	mu    sync.RWMutex
	order []string
	items map[string]domain.Customer
}

// NewCustomerRepository возвращает in-memory справочник клиентов.
func NewCustomerRepository(customers ...domain.Customer) domain.CustomerRepository {
	r := &customerRepositoryInMemory{items: make(map[string]domain.Customer)}
	for _, c := range customers {
		_ = r.Create(c)
	}
	return r
}

func (r *customerRepositoryInMemory) ListCustomers() ([]domain.Customer, error) {
	return r.SearchCustomers("")
}

func (r *customerRepositoryInMemory) FindCustomer(id string) (domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.items[id]
	if !ok {
		return domain.Customer{}, fmt.Errorf("%w: %s", domain.ErrCustomerNotFound, id)
	}
	return c, nil
}

// SearchCustomers возвращает клиентов в порядке регистрации.
func (r *customerRepositoryInMemory) SearchCustomers(term string) ([]domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Customer, 0, len(r.order))
	for _, id := range r.order {
		if c := r.items[id]; c.Matches(term) {
			result = append(result, c)
		}
	}
	return result, nil
}

func (r *customerRepositoryInMemory) Create(customer domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[customer.ID]; exists {
		return fmt.Errorf("%w: id %s", domain.ErrCustomerConflict, customer.ID)
	}
	if r.taxIDTaken(customer.TaxID, "") {
		return fmt.Errorf("%w: tax id %s", domain.ErrCustomerConflict, customer.TaxID)
	}
	if customer.RegisteredAt.IsZero() {
		customer.RegisteredAt = time.Now().UTC()
	}

	r.items[customer.ID] = customer
	r.order = append(r.order, customer.ID)
	return nil
}

func (r *customerRepositoryInMemory) Update(customer domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[customer.ID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrCustomerNotFound, customer.ID)
	}
	if r.taxIDTaken(customer.TaxID, customer.ID) {
		return fmt.Errorf("%w: tax id %s", domain.ErrCustomerConflict, customer.TaxID)
	}
	customer.RegisteredAt = current.RegisteredAt
	r.items[customer.ID] = customer
	return nil
}

func (r *customerRepositoryInMemory) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrCustomerNotFound, id)
	}
	delete(r.items, id)
	r.order = slices.DeleteFunc(r.order, func(v string) bool { return v == id })
	return nil
}

func (r *customerRepositoryInMemory) taxIDTaken(taxID, exceptID string) bool {
	for id, c := range r.items {
		if id != exceptID && c.TaxID == taxID {
			return true
		}
	}
	return false
}

var _ domain.CustomerRepository = (*customerRepositoryInMemory)(nil)
