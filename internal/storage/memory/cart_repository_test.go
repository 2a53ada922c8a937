package memory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/perfumery/internal/domain"
	"github.com/vladislavdragonenkov/perfumery/internal/storage/memory"
)

func TestCartRepository_PutGetDelete(t *testing.T) {
	repo := memory.NewCartRepository()
	cart := domain.NewOrder("cart-1", domain.CheckoutPricing())

	if err := repo.Put(cart); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	got, err := repo.Get("cart-1")
	if err != nil || got != cart {
		t.Fatalf("expected same cart, got %v (%v)", got, err)
	}

	if err := repo.Delete("cart-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := repo.Get("cart-1"); !errors.Is(err, domain.ErrCartNotFound) {
		t.Fatalf("expected cart not found, got %v", err)
	}
}

func TestCartRepository_DeleteIdleBefore(t *testing.T) {
	repo := memory.NewCartRepository()
	now := time.Now().UTC()

	stale := domain.NewOrder("stale", domain.BillingPricing())
	stale.CreatedAt = now.Add(-2 * time.Hour)
	fresh := domain.NewOrder("fresh", domain.BillingPricing())
	fresh.CreatedAt = now.Add(-2 * time.Hour)
	fresh.UpdatedAt = now

	_ = repo.Put(stale)
	_ = repo.Put(fresh)

	removed, err := repo.DeleteIdleBefore(now.Add(-time.Hour))
	if err != nil || removed != 1 {
		t.Fatalf("expected 1 removed, got %d (%v)", removed, err)
	}
	if n, _ := repo.Count(); n != 1 {
		t.Fatalf("expected 1 cart left, got %d", n)
	}
	if _, err := repo.Get("fresh"); err != nil {
		t.Fatalf("fresh cart must survive: %v", err)
	}
}
