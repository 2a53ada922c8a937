package domain_test

import (
	"testing"

	"github.com/vladislavdragonenkov/perfumery/internal/domain"
)

func TestProductValidate(t *testing.T) {
	valid := makeProduct("1", "120.00", 15)
	if errs := valid.Validate(); len(errs) != 0 {
		t.Fatalf("expected valid product, got %v", errs)
	}

	broken := domain.Product{UnitPrice: dec("-1"), AvailableStock: -1, MinStock: -1}
	if errs := broken.Validate(); len(errs) != 6 {
		t.Fatalf("expected 6 violations, got %d: %v", len(errs), errs)
	}
}

func TestProductStockLevel(t *testing.T) {
	cases := []struct {
		stock int
		want  domain.StockLevel
	}{
		{stock: 0, want: domain.StockLevelOut},
		{stock: 5, want: domain.StockLevelLow},
		{stock: 10, want: domain.StockLevelMedium},
		{stock: 11, want: domain.StockLevelNormal},
	}
	for _, tc := range cases {
		p := domain.Product{AvailableStock: tc.stock, MinStock: 5}
		if got := p.StockLevel(); got != tc.want {
			t.Errorf("stock %d: level %s, want %s", tc.stock, got, tc.want)
		}
	}
}

func TestProductFilterMatches(t *testing.T) {
	p := domain.Product{ID: "2", Code: "DI-002", Name: "Sauvage", Brand: "Dior", Category: "Masculino", AvailableStock: 2, MinStock: 5}

	cases := []struct {
		name   string
		filter domain.ProductFilter
		want   bool
	}{
		{name: "empty", filter: domain.ProductFilter{}, want: true},
		{name: "by name", filter: domain.ProductFilter{Search: "sauv"}, want: true},
		{name: "by code", filter: domain.ProductFilter{Search: "di-00"}, want: true},
		{name: "by brand search", filter: domain.ProductFilter{Search: "DIOR"}, want: true},
		{name: "no match", filter: domain.ProductFilter{Search: "chanel"}, want: false},
		{name: "brand filter", filter: domain.ProductFilter{Brand: "dior"}, want: true},
		{name: "category mismatch", filter: domain.ProductFilter{Category: "Femenino"}, want: false},
		{name: "low stock", filter: domain.ProductFilter{LowStockOnly: true}, want: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.filter.Matches(p); got != tc.want {
				t.Fatalf("Matches() = %v, want %v", got, tc.want)
			}
		})
	}
}
