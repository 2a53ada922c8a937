package postgres

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/perfumery/internal/domain"
	"github.com/vladislavdragonenkov/perfumery/internal/storage/memory"
)

func seedCatalog(t *testing.T, repo domain.CatalogRepository) {
	t.Helper()
	for _, p := range memory.DemoProducts() {
		if err := repo.Create(p); err != nil {
			t.Fatalf("seed product %s: %v", p.ID, err)
		}
	}
}

func TestCatalogRepository_PostgresFlow(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewCatalogRepository(store)
	seedCatalog(t, repo)

	all, err := repo.ListProducts()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 6 || all[0].Code != "CH-001" || all[5].Code != "AR-006" {
		t.Fatalf("unexpected catalog order: %+v", all)
	}
	if !all[0].UnitPrice.Equal(decimal.RequireFromString("120.00")) {
		t.Fatalf("unexpected price %s", all[0].UnitPrice)
	}

	low, err := repo.FilterProducts(domain.ProductFilter{LowStockOnly: true})
	if err != nil {
		t.Fatalf("filter low stock: %v", err)
	}
	if len(low) != 2 {
		t.Fatalf("expected 2 low-stock products, got %d", len(low))
	}

	found, err := repo.FilterProducts(domain.ProductFilter{Search: "orch"})
	if err != nil || len(found) != 1 || found[0].ID != "3" {
		t.Fatalf("search by name: %+v, %v", found, err)
	}

	dup := memory.DemoProducts()[0]
	dup.ID = "99"
	if err := repo.Create(dup); !errors.Is(err, domain.ErrProductConflict) {
		t.Fatalf("expected code conflict, got %v", err)
	}

	if _, err := repo.GetProduct("missing"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCatalogRepository_PostgresAdjustStockIsAtomic(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewCatalogRepository(store)
	seedCatalog(t, repo)

	err := repo.AdjustStock(map[string]int{"1": -2, "4": -3})
	var stockErr *domain.StockError
	if !errors.As(err, &stockErr) || stockErr.ProductID != "4" || stockErr.Available != 1 {
		t.Fatalf("expected stock error for product 4, got %v", err)
	}

	chanel, _ := repo.GetProduct("1")
	if chanel.AvailableStock != 15 {
		t.Fatalf("failed adjustment must not touch other products, stock=%d", chanel.AvailableStock)
	}

	if err := repo.AdjustStock(map[string]int{"1": -2, "3": 1}); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	chanel, _ = repo.GetProduct("1")
	orchid, _ := repo.GetProduct("3")
	if chanel.AvailableStock != 13 || orchid.AvailableStock != 9 {
		t.Fatalf("unexpected stock: chanel=%d orchid=%d", chanel.AvailableStock, orchid.AvailableStock)
	}
}

func TestCustomerRepository_PostgresFlow(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewCustomerRepository(store)

	for _, c := range memory.DemoCustomers() {
		if err := repo.Create(c); err != nil {
			t.Fatalf("seed customer %s: %v", c.ID, err)
		}
	}

	found, err := repo.SearchCustomers("gonzález")
	if err != nil || len(found) != 1 || found[0].ID != "2" {
		t.Fatalf("search: %+v, %v", found, err)
	}

	c := memory.DemoCustomers()[0]
	c.TaxID = "0987654321"
	if err := repo.Update(c); !errors.Is(err, domain.ErrCustomerConflict) {
		t.Fatalf("expected tax id conflict, got %v", err)
	}

	if err := repo.Delete("3"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindCustomer("3"); !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := repo.Delete("3"); !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}

	all, _ := repo.ListCustomers()
	if len(all) != 3 {
		t.Fatalf("expected 3 customers, got %d", len(all))
	}
}
