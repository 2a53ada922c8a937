package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// StockLevel — индикатор остатка товара для витрины и складского экрана.
type StockLevel string

const (
	// StockLevelOut — товара нет в наличии.
	StockLevelOut StockLevel = "out"
	// StockLevelLow — остаток не выше минимального.
	StockLevelLow StockLevel = "low"
	// StockLevelMedium — остаток не выше двух минимальных.
	StockLevelMedium StockLevel = "medium"
	// StockLevelNormal — остаток в норме.
	StockLevelNormal StockLevel = "normal"
)

// Product — парфюм из каталога магазина.
type Product struct {
	ID          string
	Code        string
	Name        string
	Brand       string
	Category    string
	Description string
	// UnitPrice — цена за единицу, не отрицательная, два знака после запятой.
	UnitPrice decimal.Decimal
	// AvailableStock — количество единиц на складе.
	AvailableStock int
	// MinStock — порог, ниже которого товар считается заканчивающимся.
	MinStock  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate возвращает все нарушения инвариантов товара.
func (p *Product) Validate() []error {
	var errs []error

	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, ErrProductNameRequired)
	}
	if strings.TrimSpace(p.Brand) == "" {
		errs = append(errs, ErrProductBrandRequired)
	}
	if strings.TrimSpace(p.Category) == "" {
		errs = append(errs, ErrProductCategoryRequired)
	}
	if p.UnitPrice.IsNegative() {
		errs = append(errs, ErrProductPriceNegative)
	}
	if p.AvailableStock < 0 {
		errs = append(errs, ErrProductStockNegative)
	}
	if p.MinStock < 0 {
		errs = append(errs, ErrProductMinStockNegative)
	}

	return errs
}

// StockLevel классифицирует текущий остаток относительно минимального.
func (p Product) StockLevel() StockLevel {
	switch {
	case p.AvailableStock <= 0:
		return StockLevelOut
	case p.AvailableStock <= p.MinStock:
		return StockLevelLow
	case p.AvailableStock <= p.MinStock*2:
		return StockLevelMedium
	default:
		return StockLevelNormal
	}
}

// IsLowStock сообщает, что товар пора пополнять.
func (p Product) IsLowStock() bool {
	return p.AvailableStock <= p.MinStock
}

// ProductFilter — параметры поиска по каталогу. Пустые поля не ограничивают выборку.
type ProductFilter struct {
	// Search ищет подстроку в названии, бренде и коде без учёта регистра.
	Search       string
	Brand        string
	Category     string
	LowStockOnly bool
}

// Matches проверяет, подходит ли товар под фильтр.
func (f ProductFilter) Matches(p Product) bool {
	if f.Brand != "" && !strings.EqualFold(f.Brand, p.Brand) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(f.Category, p.Category) {
		return false
	}
	if f.LowStockOnly && !p.IsLowStock() {
		return false
	}
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		return containsFold(p.Name, term) || containsFold(p.Brand, term) || containsFold(p.Code, term)
	}
	return true
}

// containsFold ищет уже приведённый к нижнему регистру term в s.
func containsFold(s, term string) bool {
	return strings.Contains(strings.ToLower(s), term)
}
