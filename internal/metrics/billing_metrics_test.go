package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetGauge().GetValue()
}

func TestNewBillingMetricsWithRegisterer(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBillingMetricsWithRegisterer(reg)

	if m.invoicesIssued == nil || m.statusChanges == nil || m.activeCarts == nil || m.issueDuration == nil {
		t.Fatal("collectors must be initialised")
	}

	// Повторная регистрация возвращает уже существующие коллекторы.
	again := NewBillingMetricsWithRegisterer(reg)
	if again.invoicesIssued != m.invoicesIssued {
		t.Fatal("expected existing collector to be reused")
	}
}

func TestRecordInvoiceIssued(t *testing.T) {
	m := NewBillingMetricsWithRegisterer(prometheus.NewRegistry())

	m.RecordInvoiceIssued(decimal.RequireFromString("138.00"), 3*time.Millisecond)
	m.RecordInvoiceIssued(decimal.RequireFromString("97.75"), time.Millisecond)

	if got := counterValue(t, m.invoicesIssued); got != 2 {
		t.Fatalf("issued = %v, want 2", got)
	}
	if got := counterValue(t, m.salesAmount); got != 235.75 {
		t.Fatalf("amount = %v, want 235.75", got)
	}

	var hist dto.Metric
	if err := m.issueDuration.Write(&hist); err != nil {
		t.Fatalf("write histogram: %v", err)
	}
	if hist.GetHistogram().GetSampleCount() != 2 {
		t.Fatalf("expected 2 duration samples, got %d", hist.GetHistogram().GetSampleCount())
	}
}

func TestRecordStatusChangeAndFailures(t *testing.T) {
	m := NewBillingMetricsWithRegisterer(prometheus.NewRegistry())

	m.RecordStatusChange("paid")
	m.RecordStatusChange("paid")
	m.RecordStatusChange("voided")
	m.RecordIssueFailure("stock_exceeded")

	if got := counterValue(t, m.statusChanges.WithLabelValues("paid")); got != 2 {
		t.Fatalf("paid transitions = %v", got)
	}
	if got := counterValue(t, m.statusChanges.WithLabelValues("voided")); got != 1 {
		t.Fatalf("voided transitions = %v", got)
	}
	if got := counterValue(t, m.issueFailures.WithLabelValues("stock_exceeded")); got != 1 {
		t.Fatalf("failures = %v", got)
	}
}

func TestActiveCartsGauge(t *testing.T) {
	m := NewBillingMetricsWithRegisterer(prometheus.NewRegistry())

	m.CartOpened()
	m.CartOpened()
	m.CartOpened()
	m.CartsClosed(1)
	m.RecordCartsExpired(1)

	if got := gaugeValue(t, m.activeCarts); got != 1 {
		t.Fatalf("active carts = %v, want 1", got)
	}
	if got := counterValue(t, m.cartsExpired); got != 1 {
		t.Fatalf("expired = %v, want 1", got)
	}
}

func TestRecordCartOperation(t *testing.T) {
	m := NewBillingMetricsWithRegisterer(prometheus.NewRegistry())

	m.RecordCartOperation("add_item", "ok")
	m.RecordCartOperation("add_item", "stock_exceeded")
	m.RecordStockExceeded()
	m.RecordTimelineEvent()
	m.RecordOutboxEvent()

	if got := counterValue(t, m.cartOperations.WithLabelValues("add_item", "ok")); got != 1 {
		t.Fatalf("ok ops = %v", got)
	}
	if counterValue(t, m.stockExceeded) != 1 || counterValue(t, m.timelineEvents) != 1 || counterValue(t, m.outboxEnqueued) != 1 {
		t.Fatal("expected single increments")
	}
}
