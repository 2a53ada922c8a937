package memory

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/perfumery/internal/domain"
)

// catalogRepositoryInMemory хранит каталог в памяти, сохраняя порядок регистрации.
type catalogRepositoryInMemory struct {
	mu    sync.RWMutex
	order []string
	items map[string]domain.Product
}

// NewCatalogRepository возвращает in-memory каталог для локальной разработки и тестов.
func NewCatalogRepository(products ...domain.Product) domain.CatalogRepository {
	r := &catalogRepositoryInMemory{items: make(map[string]domain.Product)}
	for _, p := range products {
		_ = r.Create(p)
	}
	return r
}

func (r *catalogRepositoryInMemory) ListProducts() ([]domain.Product, error) {
	return r.FilterProducts(domain.ProductFilter{})
}

// GetProduct возвращает товар или ErrProductNotFound.
func (r *catalogRepositoryInMemory) GetProduct(id string) (domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	return p, nil
}

func (r *catalogRepositoryInMemory) FilterProducts(filter domain.ProductFilter) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Product, 0, len(r.order))
	for _, id := range r.order {
		if p := r.items[id]; filter.Matches(p) {
			result = append(result, p)
		}
	}
	return result, nil
}

// Create добавляет товар, если ID и код ещё не заняты.
func (r *catalogRepositoryInMemory) Create(product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[product.ID]; exists {
		return fmt.Errorf("%w: id %s", domain.ErrProductConflict, product.ID)
	}
	if product.Code != "" && r.codeTaken(product.Code, "") {
		return fmt.Errorf("%w: code %s", domain.ErrProductConflict, product.Code)
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	if product.UpdatedAt.IsZero() {
		product.UpdatedAt = product.CreatedAt
	}

	r.items[product.ID] = product
	r.order = append(r.order, product.ID)
	return nil
}

// Update заменяет карточку существующего товара.
func (r *catalogRepositoryInMemory) Update(product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[product.ID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrProductNotFound, product.ID)
	}
	if product.Code != "" && r.codeTaken(product.Code, product.ID) {
		return fmt.Errorf("%w: code %s", domain.ErrProductConflict, product.Code)
	}
	product.CreatedAt = current.CreatedAt
	product.UpdatedAt = time.Now().UTC()
	r.items[product.ID] = product
	return nil
}

// AdjustStock применяет дельты атомарно: сначала проверка всех товаров, затем запись.
func (r *catalogRepositoryInMemory) AdjustStock(deltas map[string]int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, delta := range deltas {
		p, ok := r.items[id]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
		}
		if p.AvailableStock+delta < 0 {
			return domain.NewStockError(id, -delta, p.AvailableStock)
		}
	}

	now := time.Now().UTC()
	for id, delta := range deltas {
		p := r.items[id]
		p.AvailableStock += delta
		p.UpdatedAt = now
		r.items[id] = p
	}
	return nil
}

// codeTaken вызывается под блокировкой.
func (r *catalogRepositoryInMemory) codeTaken(code, exceptID string) bool {
	for id, p := range r.items {
		if id != exceptID && strings.EqualFold(p.Code, code) {
			return true
		}
	}
	return false
}

var _ domain.CatalogRepository = (*catalogRepositoryInMemory)(nil)
