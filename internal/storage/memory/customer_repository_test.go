package memory_test

import (
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/perfumery/internal/domain"
	"github.com/vladislavdragonenkov/perfumery/internal/storage/memory"
)

func TestCustomerRepository_SearchAndFind(t *testing.T) {
	repo := memory.NewCustomerRepository(memory.DemoCustomers()...)

	all, err := repo.ListCustomers()
	if err != nil || len(all) != 4 {
		t.Fatalf("expected 4 demo customers, got %d (%v)", len(all), err)
	}

	found, _ := repo.SearchCustomers("lópez")
	if len(found) != 2 {
		t.Fatalf("expected María and Carlos, got %+v", found)
	}

	c, err := repo.FindCustomer("3")
	if err != nil || c.TaxID != "1122334455" {
		t.Fatalf("unexpected customer %+v (%v)", c, err)
	}
	if _, err := repo.FindCustomer("404"); !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCustomerRepository_CreateUpdateDelete(t *testing.T) {
	repo := memory.NewCustomerRepository(memory.DemoCustomers()...)

	dupTax := domain.Customer{ID: "5", FullName: "Otro", TaxID: "1234567890", Email: "otro@email.com"}
	if err := repo.Create(dupTax); !errors.Is(err, domain.ErrCustomerConflict) {
		t.Fatalf("expected tax id conflict, got %v", err)
	}

	dupTax.TaxID = "9999999999"
	if err := repo.Create(dupTax); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	dupTax.Phone = "+593 95 000 0000"
	if err := repo.Update(dupTax); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	got, _ := repo.FindCustomer("5")
	if got.Phone != "+593 95 000 0000" || got.RegisteredAt.IsZero() {
		t.Fatalf("unexpected customer %+v", got)
	}

	if err := repo.Delete("5"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := repo.Delete("5"); !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	all, _ := repo.ListCustomers()
	if len(all) != 4 {
		t.Fatalf("expected 4 customers after delete, got %d", len(all))
	}
}
