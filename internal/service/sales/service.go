package sales

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/perfumery/internal/domain"
	"github.com/vladislavdragonenkov/perfumery/internal/metrics"
)

// InvoiceIssuer выставляет счёт по корзине.
type InvoiceIssuer interface {
	Issue(ctx context.Context, order *domain.Order, customer *domain.Customer) (domain.Invoice, error)
}

// Service ведёт корзины продаж на стороне сервера и оформляет их в счета.
// Все операции над корзинами сериализуются одной блокировкой.
type Service struct {
	mu        sync.Mutex
	carts     domain.CartRepository
	catalog   domain.CatalogRepository
	customers domain.CustomerRepository
	issuer    InvoiceIssuer
	metrics   *metrics.BillingMetrics
	logger    *log.Entry
	now       func() time.Time
	newID     func() string
}

// Option настраивает Service.
type Option func(*Service)

// WithMetrics задаёт prometheus-метрики.
func WithMetrics(m *metrics.BillingMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator подменяет генератор идентификаторов корзин.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

// NewService создаёт сервис продаж.
func NewService(carts domain.CartRepository, catalog domain.CatalogRepository, customers domain.CustomerRepository, issuer InvoiceIssuer, opts ...Option) *Service {
	s := &Service{
		carts:     carts,
		catalog:   catalog,
		customers: customers,
		issuer:    issuer,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.WithField("component", "sales")
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// OpenCart открывает пустую корзину с профилем ценообразования profile.
func (s *Service) OpenCart(profile string) (domain.OrderSnapshot, error) {
	pricing, err := domain.PricingFor(profile)
	if err != nil {
		s.record("open", err)
		return domain.OrderSnapshot{}, domain.InvalidArgument(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart := domain.NewOrder(s.newID(), pricing)
	cart.CreatedAt = s.now()
	cart.UpdatedAt = cart.CreatedAt
	if err := s.carts.Put(cart); err != nil {
		s.record("open", err)
		return domain.OrderSnapshot{}, fmt.Errorf("store cart: %w", err)
	}

	s.record("open", nil)
	if s.metrics != nil {
		s.metrics.CartOpened()
	}
	s.logger.WithFields(log.Fields{
		"cart_id": cart.ID,
		"profile": pricing.Profile,
	}).Debug("cart opened")

	return cart.Snapshot(), nil
}

// AddItem добавляет в корзину одну единицу товара по актуальной карточке каталога.
func (s *Service) AddItem(cartID, productID string) (domain.OrderSnapshot, error) {
	return s.mutate("add_item", cartID, func(cart *domain.Order) error {
		product, err := s.catalog.GetProduct(productID)
		if err != nil {
			return err
		}
		return cart.AddItem(product)
	})
}

// SetQuantity задаёт количество позиции; quantity <= 0 удаляет её.
// Остаток сверяется с текущей карточкой каталога, а не с сохранённой в корзине.
func (s *Service) SetQuantity(cartID, productID string, quantity int) (domain.OrderSnapshot, error) {
	return s.mutate("set_quantity", cartID, func(cart *domain.Order) error {
		if quantity > 0 {
			product, err := s.catalog.GetProduct(productID)
			if err != nil {
				return err
			}
			if _, err := cart.RefreshProduct(product); err != nil {
				return err
			}
		}
		return cart.SetQuantity(productID, quantity)
	})
}

// RemoveItem удаляет позицию из корзины.
func (s *Service) RemoveItem(cartID, productID string) (domain.OrderSnapshot, error) {
	return s.mutate("remove_item", cartID, func(cart *domain.Order) error {
		return cart.RemoveItem(productID)
	})
}

// GetCart возвращает текущее состояние корзины.
func (s *Service) GetCart(cartID string) (domain.OrderSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.carts.Get(cartID)
	if err != nil {
		return domain.OrderSnapshot{}, err
	}
	return cart.Snapshot(), nil
}

// CancelCart очищает и закрывает корзину.
func (s *Service) CancelCart(cartID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.carts.Get(cartID)
	if err != nil {
		s.record("cancel", err)
		return err
	}
	if cart.State() == domain.OrderStateOpen {
		_ = cart.Clear()
	}
	if err := s.carts.Delete(cartID); err != nil {
		s.record("cancel", err)
		return fmt.Errorf("delete cart %s: %w", cartID, err)
	}

	s.record("cancel", nil)
	if s.metrics != nil {
		s.metrics.CartsClosed(1)
	}
	s.logger.WithField("cart_id", cartID).Debug("cart cancelled")
	return nil
}

// Checkout выставляет счёт по корзине на клиента customerID и закрывает корзину.
// При ошибке корзина остаётся открытой и может быть исправлена.
func (s *Service) Checkout(ctx context.Context, cartID, customerID string) (domain.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.carts.Get(cartID)
	if err != nil {
		s.record("checkout", err)
		return domain.Invoice{}, err
	}

	var customer *domain.Customer
	if customerID != "" {
		found, err := s.customers.FindCustomer(customerID)
		if err != nil {
			if !domain.IsNotFound(err) {
				s.record("checkout", err)
				return domain.Invoice{}, err
			}
			s.logger.WithField("customer_id", customerID).Warn("checkout for unknown customer")
		} else {
			customer = &found
		}
	}

	inv, err := s.issuer.Issue(ctx, cart, customer)
	if err != nil {
		s.record("checkout", err)
		return domain.Invoice{}, err
	}

	if err := s.carts.Delete(cartID); err != nil {
		s.logger.WithError(err).WithField("cart_id", cartID).Warn("failed to drop checked out cart")
	} else if s.metrics != nil {
		s.metrics.CartsClosed(1)
	}
	s.record("checkout", nil)

	s.logger.WithFields(log.Fields{
		"cart_id":        cartID,
		"invoice_number": inv.Number,
	}).Info("cart checked out")

	return inv, nil
}

// ExpireIdle удаляет корзины, не менявшиеся с момента before.
func (s *Service) ExpireIdle(before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.carts.DeleteIdleBefore(before)
	if err != nil {
		return 0, fmt.Errorf("expire idle carts: %w", err)
	}
	if removed > 0 {
		if s.metrics != nil {
			s.metrics.RecordCartsExpired(removed)
		}
		s.logger.WithField("removed", removed).Info("idle carts expired")
	}
	return removed, nil
}

// ActiveCarts возвращает число открытых корзин.
func (s *Service) ActiveCarts() (int, error) {
	return s.carts.Count()
}

func (s *Service) mutate(operation, cartID string, apply func(*domain.Order) error) (domain.OrderSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.carts.Get(cartID)
	if err != nil {
		s.record(operation, err)
		return domain.OrderSnapshot{}, err
	}
	if err := apply(cart); err != nil {
		s.record(operation, err)
		s.logger.WithError(err).WithFields(log.Fields{
			"cart_id":   cartID,
			"operation": operation,
		}).Debug("cart operation rejected")
		return domain.OrderSnapshot{}, err
	}

	cart.UpdatedAt = s.now()
	if err := s.carts.Put(cart); err != nil {
		s.record(operation, err)
		return domain.OrderSnapshot{}, fmt.Errorf("store cart: %w", err)
	}

	s.record(operation, nil)
	return cart.Snapshot(), nil
}

func (s *Service) record(operation string, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordCartOperation(operation, resultLabel(err))
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrStockExceeded):
		return "stock_exceeded"
	case errors.Is(err, domain.ErrOrderSubmitted):
		return "submitted"
	case errors.Is(err, domain.ErrEmptyOrder):
		return "empty"
	case errors.Is(err, domain.ErrMissingCustomer):
		return "missing_customer"
	case domain.IsNotFound(err):
		return "not_found"
	case domain.IsInvalidArgument(err):
		return "invalid_argument"
	default:
		return "error"
	}
}
