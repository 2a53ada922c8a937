package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// BillingMetrics содержит метрики продаж и выставления счетов.
type BillingMetrics struct {
	// Счётчики счетов
	invoicesIssued prometheus.Counter
	issueFailures  *prometheus.CounterVec
	statusChanges  *prometheus.CounterVec
	salesAmount    prometheus.Counter
	issueDuration  prometheus.Histogram
	invoiceAmount  prometheus.Histogram
	stockExceeded  prometheus.Counter
	cartOperations *prometheus.CounterVec
	cartsExpired   prometheus.Counter
	activeCarts    prometheus.Gauge
	timelineEvents prometheus.Counter
	outboxEnqueued prometheus.Counter
}

// NewBillingMetrics создаёт метрики в DefaultRegisterer.
func NewBillingMetrics() *BillingMetrics {
	return NewBillingMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewBillingMetricsWithRegisterer создаёт метрики в переданном registerer (нужно тестам).
func NewBillingMetricsWithRegisterer(registerer prometheus.Registerer) *BillingMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &BillingMetrics{
		invoicesIssued: registerCounter(registerer, prometheus.CounterOpts{
			Name: "perfumery_invoices_issued_total",
			Help: "Total number of invoices issued",
		}),
		issueFailures: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "perfumery_invoice_issue_failures_total",
			Help: "Total number of rejected invoice issue attempts by reason",
		}, []string{"reason"}),
		statusChanges: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "perfumery_invoice_status_changes_total",
			Help: "Total number of invoice status transitions by target status",
		}, []string{"status"}),
		salesAmount: registerCounter(registerer, prometheus.CounterOpts{
			Name: "perfumery_invoiced_amount_total",
			Help: "Sum of totals of issued invoices",
		}),
		issueDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "perfumery_invoice_issue_duration_seconds",
			Help:    "Duration of invoice issuing in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		invoiceAmount: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "perfumery_invoice_total_amount",
			Help:    "Distribution of issued invoice totals",
			Buckets: []float64{50, 100, 200, 500, 1000, 2500, 5000},
		}),
		stockExceeded: registerCounter(registerer, prometheus.CounterOpts{
			Name: "perfumery_stock_exceeded_total",
			Help: "Total number of cart or invoice operations rejected by stock ceiling",
		}),
		cartOperations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "perfumery_cart_operations_total",
			Help: "Total number of cart operations by operation and result",
		}, []string{"operation", "result"}),
		cartsExpired: registerCounter(registerer, prometheus.CounterOpts{
			Name: "perfumery_carts_expired_total",
			Help: "Total number of idle carts removed by cleanup",
		}),
		activeCarts: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "perfumery_active_carts",
			Help: "Number of currently open carts",
		}),
		timelineEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "perfumery_timeline_events_total",
			Help: "Total number of invoice timeline events recorded",
		}),
		outboxEnqueued: registerCounter(registerer, prometheus.CounterOpts{
			Name: "perfumery_outbox_enqueued_total",
			Help: "Total number of invoice events enqueued to outbox",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordInvoiceIssued учитывает выставленный счёт, его сумму и длительность выставления.
func (m *BillingMetrics) RecordInvoiceIssued(total decimal.Decimal, duration time.Duration) {
	amount := total.InexactFloat64()
	m.invoicesIssued.Inc()
	m.salesAmount.Add(amount)
	m.invoiceAmount.Observe(amount)
	m.issueDuration.Observe(duration.Seconds())
}

// RecordIssueFailure учитывает отклонённую попытку выставления.
func (m *BillingMetrics) RecordIssueFailure(reason string) {
	m.issueFailures.WithLabelValues(reason).Inc()
}

// RecordStatusChange учитывает переход счёта в статус.
func (m *BillingMetrics) RecordStatusChange(status string) {
	m.statusChanges.WithLabelValues(status).Inc()
}

// RecordStockExceeded учитывает отказ по остатку.
func (m *BillingMetrics) RecordStockExceeded() {
	m.stockExceeded.Inc()
}

// RecordCartOperation учитывает операцию над корзиной: result равен ok или коду ошибки.
func (m *BillingMetrics) RecordCartOperation(operation, result string) {
	m.cartOperations.WithLabelValues(operation, result).Inc()
}

// CartOpened увеличивает число открытых корзин.
func (m *BillingMetrics) CartOpened() {
	m.activeCarts.Inc()
}

// CartsClosed уменьшает число открытых корзин.
func (m *BillingMetrics) CartsClosed(n int) {
	m.activeCarts.Sub(float64(n))
}

// RecordCartsExpired учитывает корзины, удалённые по простою.
func (m *BillingMetrics) RecordCartsExpired(n int) {
	m.cartsExpired.Add(float64(n))
	m.CartsClosed(n)
}

// RecordTimelineEvent увеличивает счётчик событий timeline.
func (m *BillingMetrics) RecordTimelineEvent() {
	m.timelineEvents.Inc()
}

// RecordOutboxEvent увеличивает счётчик событий, поставленных в outbox.
func (m *BillingMetrics) RecordOutboxEvent() {
	m.outboxEnqueued.Inc()
}
