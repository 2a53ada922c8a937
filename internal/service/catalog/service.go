package catalog

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/perfumery/internal/domain"
)

// maxCodeAttempts ограничивает подбор свободного кода товара.
const maxCodeAttempts = 100

// Service — регистрация и сопровождение карточек каталога.
type Service struct {
	repo   domain.CatalogRepository
	logger *log.Entry
	newID  func() string
}

// NewService создаёт сервис каталога. logger может быть nil.
func NewService(repo domain.CatalogRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.WithField("component", "catalog")
	}
	return &Service{repo: repo, logger: logger, newID: uuid.NewString}
}

// Register проверяет и добавляет товар. Пустые ID и код заполняются автоматически:
// код строится из двух первых букв бренда и порядкового номера (CH-007).
func (s *Service) Register(product domain.Product) (domain.Product, error) {
	normalize(&product)
	if errs := product.Validate(); len(errs) > 0 {
		return domain.Product{}, domain.InvalidArgument(errs...)
	}
	if product.ID == "" {
		product.ID = s.newID()
	}

	if product.Code != "" {
		if err := s.repo.Create(product); err != nil {
			return domain.Product{}, err
		}
	} else if err := s.createWithGeneratedCode(&product); err != nil {
		return domain.Product{}, err
	}

	s.logger.WithFields(log.Fields{
		"product_id": product.ID,
		"code":       product.Code,
		"brand":      product.Brand,
	}).Info("product registered")

	return s.repo.GetProduct(product.ID)
}

func (s *Service) createWithGeneratedCode(product *domain.Product) error {
	existing, err := s.repo.ListProducts()
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}

	prefix := codePrefix(product.Brand)
	for seq := len(existing) + 1; seq <= len(existing)+maxCodeAttempts; seq++ {
		product.Code = fmt.Sprintf("%s-%03d", prefix, seq)
		err := s.repo.Create(*product)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrProductConflict) {
			return err
		}
	}
	return fmt.Errorf("%w: no free code for brand %q", domain.ErrProductConflict, product.Brand)
}

// Update заменяет карточку товара после проверки.
func (s *Service) Update(product domain.Product) (domain.Product, error) {
	normalize(&product)
	if errs := product.Validate(); len(errs) > 0 {
		return domain.Product{}, domain.InvalidArgument(errs...)
	}
	if err := s.repo.Update(product); err != nil {
		return domain.Product{}, err
	}

	s.logger.WithField("product_id", product.ID).Info("product updated")
	return s.repo.GetProduct(product.ID)
}

// Get возвращает товар по ID.
func (s *Service) Get(id string) (domain.Product, error) {
	return s.repo.GetProduct(id)
}

// List возвращает товары, подходящие под фильтр.
func (s *Service) List(filter domain.ProductFilter) ([]domain.Product, error) {
	return s.repo.FilterProducts(filter)
}

// LowStock возвращает товары, остаток которых не выше минимального.
func (s *Service) LowStock() ([]domain.Product, error) {
	return s.repo.FilterProducts(domain.ProductFilter{LowStockOnly: true})
}

// Restock меняет остаток товара на delta. Отрицательный итог отклоняется с *StockError.
func (s *Service) Restock(id string, delta int) (domain.Product, error) {
	if err := s.repo.AdjustStock(map[string]int{id: delta}); err != nil {
		return domain.Product{}, err
	}

	product, err := s.repo.GetProduct(id)
	if err != nil {
		return domain.Product{}, err
	}
	entry := s.logger.WithFields(log.Fields{
		"product_id": id,
		"delta":      delta,
		"stock":      product.AvailableStock,
	})
	if product.IsLowStock() {
		entry.Warn("product stock is low")
	} else {
		entry.Info("product stock adjusted")
	}
	return product, nil
}

func normalize(p *domain.Product) {
	p.Name = strings.TrimSpace(p.Name)
	p.Brand = strings.TrimSpace(p.Brand)
	p.Category = strings.TrimSpace(p.Category)
	p.Code = strings.ToUpper(strings.TrimSpace(p.Code))
	p.UnitPrice = domain.RoundMoney(p.UnitPrice)
}

func codePrefix(brand string) string {
	letters := make([]rune, 0, 2)
	for _, r := range brand {
		if unicode.IsLetter(r) {
			letters = append(letters, unicode.ToUpper(r))
		}
		if len(letters) == 2 {
			return string(letters)
		}
	}
	return "PR"
}
