package dashboard

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/perfumery/internal/domain"
)

// Summary — сводные показатели магазина для главного экрана.
type Summary struct {
	TotalProducts   int
	LowStock        int
	Customers       int
	Invoices        int
	PendingInvoices int
	PaidSales       decimal.Decimal
}

// Service собирает сводку из каталога, справочника клиентов и журнала счетов.
type Service struct {
	catalog   domain.CatalogRepository
	customers domain.CustomerRepository
	invoices  domain.InvoiceRepository
}

func NewService(catalog domain.CatalogRepository, customers domain.CustomerRepository, invoices domain.InvoiceRepository) *Service {
	return &Service{catalog: catalog, customers: customers, invoices: invoices}
}

// Summary считает показатели на текущий момент.
func (s *Service) Summary() (Summary, error) {
	products, err := s.catalog.ListProducts()
	if err != nil {
		return Summary{}, fmt.Errorf("list products: %w", err)
	}
	customers, err := s.customers.ListCustomers()
	if err != nil {
		return Summary{}, fmt.Errorf("list customers: %w", err)
	}
	stats, err := s.invoices.Stats()
	if err != nil {
		return Summary{}, fmt.Errorf("invoice stats: %w", err)
	}

	summary := Summary{
		TotalProducts:   len(products),
		Customers:       len(customers),
		Invoices:        stats.Total,
		PendingInvoices: stats.Pending,
		PaidSales:       domain.RoundMoney(stats.PaidSales),
	}
	for _, p := range products {
		if p.IsLowStock() {
			summary.LowStock++
		}
	}
	return summary, nil
}
