package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/perfumery/internal/domain"
)

// cartRepositoryInMemory держит открытые корзины продаж.
// Корзины хранятся указателями: сериализацию изменений обеспечивает сервис продаж.
type cartRepositoryInMemory struct {
	mu    sync.RWMutex
	carts map[string]*domain.Order
}

// NewCartRepository создаёт хранилище сессий корзин.
func NewCartRepository() domain.CartRepository {
	return &cartRepositoryInMemory{carts: make(map[string]*domain.Order)}
}

func (r *cartRepositoryInMemory) Put(cart *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.carts[cart.ID] = cart
	return nil
}

func (r *cartRepositoryInMemory) Get(id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cart, ok := r.carts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCartNotFound, id)
	}
	return cart, nil
}

// Delete удаляет корзину; отсутствие корзины не считается ошибкой.
func (r *cartRepositoryInMemory) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.carts, id)
	return nil
}

// DeleteIdleBefore удаляет корзины, последнее изменение которых раньше before.
func (r *cartRepositoryInMemory) DeleteIdleBefore(before time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, cart := range r.carts {
		touched := cart.UpdatedAt
		if touched.IsZero() {
			touched = cart.CreatedAt
		}
		if touched.Before(before) {
			delete(r.carts, id)
			removed++
		}
	}
	return removed, nil
}

func (r *cartRepositoryInMemory) Count() (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.carts), nil
}

var _ domain.CartRepository = (*cartRepositoryInMemory)(nil)
