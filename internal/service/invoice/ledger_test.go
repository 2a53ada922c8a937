package invoice

import (
	"context"
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/perfumery/internal/domain"
	"github.com/vladislavdragonenkov/perfumery/internal/messaging/kafka"
)

func TestLedger_SetStatusTransitions(t *testing.T) {
	f := newFixture(t, nil)
	inv, err := f.issuer.Issue(context.Background(), f.cart(t, domain.BillingPricing(), map[string]int{"1": 1}), customer())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	paid, err := f.service.SetStatus(context.Background(), inv.Number, domain.InvoiceStatusPaid, "")
	if err != nil || paid.Status != domain.InvoiceStatusPaid {
		t.Fatalf("pending -> paid: %v", err)
	}

	if _, err := f.service.SetStatus(context.Background(), inv.Number, domain.InvoiceStatusPending, ""); !errors.Is(err, domain.ErrInvalidStatusTransition) {
		t.Fatalf("paid -> pending must fail, got %v", err)
	}
	if _, err := f.service.SetStatus(context.Background(), "FAC-999999", domain.InvoiceStatusPaid, ""); !errors.Is(err, domain.ErrInvoiceNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := f.service.SetStatus(context.Background(), inv.Number, domain.InvoiceStatus("anulada"), ""); !domain.IsInvalidArgument(err) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestLedger_VoidReleasesStock(t *testing.T) {
	f := newFixture(t, nil)
	inv, err := f.issuer.Issue(context.Background(), f.cart(t, domain.BillingPricing(), map[string]int{"3": 3}), customer())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	orchid, _ := f.catalog.GetProduct("3")
	if orchid.AvailableStock != 5 {
		t.Fatalf("stock after issue = %d", orchid.AvailableStock)
	}

	if _, err := f.service.SetStatus(context.Background(), inv.Number, domain.InvoiceStatusVoided, "customer cancelled"); err != nil {
		t.Fatalf("void: %v", err)
	}
	orchid, _ = f.catalog.GetProduct("3")
	if orchid.AvailableStock != 8 {
		t.Fatalf("stock after void = %d, want 8", orchid.AvailableStock)
	}

	if _, err := f.service.SetStatus(context.Background(), inv.Number, domain.InvoiceStatusPaid, ""); !errors.Is(err, domain.ErrInvalidStatusTransition) {
		t.Fatalf("voided is terminal, got %v", err)
	}
	orchid, _ = f.catalog.GetProduct("3")
	if orchid.AvailableStock != 8 {
		t.Fatalf("rejected transition must not move stock, got %d", orchid.AvailableStock)
	}
}

func TestLedger_StatusChangeEmitsEvents(t *testing.T) {
	f := newFixture(t, nil)
	inv, _ := f.issuer.Issue(context.Background(), f.cart(t, domain.BillingPricing(), map[string]int{"1": 1}), customer())

	if _, err := f.service.SetStatus(context.Background(), inv.Number, domain.InvoiceStatusPaid, ""); err != nil {
		t.Fatalf("pay: %v", err)
	}
	if _, err := f.service.SetStatus(context.Background(), inv.Number, domain.InvoiceStatusVoided, "refund"); err != nil {
		t.Fatalf("void: %v", err)
	}

	pending := f.outbox.AllPending()
	if len(pending) != 3 {
		t.Fatalf("expected 3 outbox events, got %d", len(pending))
	}
	if pending[1].EventType != string(kafka.EventTypeInvoicePaid) || pending[2].EventType != string(kafka.EventTypeInvoiceVoided) {
		t.Fatalf("unexpected event order %s, %s", pending[1].EventType, pending[2].EventType)
	}

	history, err := f.service.Timeline(inv.Number)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(history) != 3 || history[2].Type != domain.TimelineInvoiceVoided || history[2].Reason != "refund" {
		t.Fatalf("unexpected timeline %+v", history)
	}
}

func TestLedger_FilterAndStats(t *testing.T) {
	f := newFixture(t, nil)
	customers := []domain.Customer{
		{ID: "1", FullName: "Juan Pérez García", TaxID: "1234567890", Email: "juan@email.com"},
		{ID: "2", FullName: "María González López", TaxID: "0987654321", Email: "maria@email.com"},
	}
	for i := 0; i < 4; i++ {
		c := customers[i%2]
		if _, err := f.issuer.Issue(context.Background(), f.cart(t, domain.BillingPricing(), map[string]int{"6": 1}), &c); err != nil {
			t.Fatalf("issue %d: %v", i, err)
		}
	}
	if _, err := f.service.SetStatus(context.Background(), "FAC-000002", domain.InvoiceStatusPaid, ""); err != nil {
		t.Fatalf("pay: %v", err)
	}

	maria, err := f.service.List(domain.InvoiceFilter{CustomerNameContains: "maría"})
	if err != nil || len(maria) != 2 {
		t.Fatalf("expected 2 invoices for María, got %d (%v)", len(maria), err)
	}

	newest, _ := f.service.List(domain.InvoiceFilter{Newest: true, Limit: 1})
	if len(newest) != 1 || newest[0].Number != "FAC-000004" {
		t.Fatalf("unexpected newest %+v", newest)
	}

	if _, err := f.service.List(domain.InvoiceFilter{Status: "archived"}); !domain.IsInvalidArgument(err) {
		t.Fatalf("expected invalid argument for unknown status, got %v", err)
	}

	stats, _ := f.service.Stats()
	// 80.00 + 15% = 92.00
	if stats.Total != 4 || stats.Paid != 1 || stats.Pending != 3 || !stats.PaidSales.Equal(money("92.00")) {
		t.Fatalf("unexpected stats %+v", stats)
	}
}
