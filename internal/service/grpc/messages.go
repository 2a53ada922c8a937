package grpcsvc

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/perfumery/internal/domain"
	"github.com/vladislavdragonenkov/perfumery/internal/service/dashboard"
)

// Денежные суммы передаются строками с двумя знаками после запятой.

// Product — карточка товара каталога.
type Product struct {
	ID             string `json:"id,omitempty"`
	Code           string `json:"code,omitempty"`
	Name           string `json:"name"`
	Brand          string `json:"brand"`
	Category       string `json:"category"`
	Description    string `json:"description,omitempty"`
	UnitPrice      string `json:"unit_price"`
	AvailableStock int    `json:"available_stock"`
	MinStock       int    `json:"min_stock"`
	StockLevel     string `json:"stock_level,omitempty"`
}

// Customer — клиент справочника.
type Customer struct {
	ID           string    `json:"id,omitempty"`
	FullName     string    `json:"full_name"`
	TaxID        string    `json:"tax_id"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	RegisteredAt time.Time `json:"registered_at,omitzero"`
}

// Totals — суммы корзины или счёта.
type Totals struct {
	Subtotal string `json:"subtotal"`
	Tax      string `json:"tax"`
	Shipping string `json:"shipping"`
	Total    string `json:"total"`
}

// CartItem — позиция корзины.
type CartItem struct {
	ProductID string `json:"product_id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"line_total"`
}

// Cart — состояние корзины продажи.
type Cart struct {
	ID      string     `json:"id"`
	Profile string     `json:"profile"`
	State   string     `json:"state"`
	Items   []CartItem `json:"items"`
	Totals  Totals     `json:"totals"`
}

// InvoiceLine — строка счёта с зафиксированной ценой.
type InvoiceLine struct {
	ProductID string `json:"product_id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Brand     string `json:"brand"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Total     string `json:"total"`
}

// Invoice — выставленный счёт.
type Invoice struct {
	Number    string        `json:"number"`
	IssuedAt  time.Time     `json:"issued_at"`
	Customer  Customer      `json:"customer"`
	Lines     []InvoiceLine `json:"lines"`
	TaxRate   string        `json:"tax_rate"`
	Totals    Totals        `json:"totals"`
	Status    string        `json:"status"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// TimelineEvent — событие истории счёта.
type TimelineEvent struct {
	Type     string    `json:"type"`
	Reason   string    `json:"reason,omitempty"`
	Occurred time.Time `json:"occurred"`
}

// ListProductsRequest фильтрует каталог; пустые поля не ограничивают выборку.
type ListProductsRequest struct {
	Search       string `json:"search,omitempty"`
	Brand        string `json:"brand,omitempty"`
	Category     string `json:"category,omitempty"`
	LowStockOnly bool   `json:"low_stock_only,omitempty"`
}

type ListProductsResponse struct {
	Products []Product `json:"products"`
}

type GetProductRequest struct {
	ID string `json:"id"`
}

// RegisterProductRequest регистрирует новый товар.
type RegisterProductRequest struct {
	Product Product `json:"product"`
}

type ProductResponse struct {
	Product Product `json:"product"`
}

type ListCustomersRequest struct {
	Query string `json:"query,omitempty"`
}

type ListCustomersResponse struct {
	Customers []Customer `json:"customers"`
}

type GetCustomerRequest struct {
	ID string `json:"id"`
}

// SaveCustomerRequest создаёт клиента при пустом ID, иначе обновляет существующего.
type SaveCustomerRequest struct {
	Customer Customer `json:"customer"`
}

type CustomerResponse struct {
	Customer Customer `json:"customer"`
}

type DeleteCustomerRequest struct {
	ID string `json:"id"`
}

type DeleteCustomerResponse struct{}

type OpenCartRequest struct {
	// Profile — billing (по умолчанию) или checkout.
	Profile string `json:"profile,omitempty"`
}

type CartResponse struct {
	Cart Cart `json:"cart"`
}

type AddItemRequest struct {
	CartID    string `json:"cart_id"`
	ProductID string `json:"product_id"`
}

// SetQuantityRequest задаёт количество позиции; quantity <= 0 удаляет её.
type SetQuantityRequest struct {
	CartID    string `json:"cart_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type RemoveItemRequest struct {
	CartID    string `json:"cart_id"`
	ProductID string `json:"product_id"`
}

type GetCartRequest struct {
	CartID string `json:"cart_id"`
}

type CancelCartRequest struct {
	CartID string `json:"cart_id"`
}

type CancelCartResponse struct{}

// CheckoutRequest оформляет корзину в счёт на клиента.
type CheckoutRequest struct {
	CartID     string `json:"cart_id"`
	CustomerID string `json:"customer_id"`
}

type GetInvoiceRequest struct {
	Number          string `json:"number"`
	IncludeTimeline bool   `json:"include_timeline,omitempty"`
}

type InvoiceResponse struct {
	Invoice  Invoice         `json:"invoice"`
	Timeline []TimelineEvent `json:"timeline,omitempty"`
}

// ListInvoicesRequest — фильтр журнала счетов.
type ListInvoicesRequest struct {
	Number       string `json:"number,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
	CustomerID   string `json:"customer_id,omitempty"`
	Search       string `json:"search,omitempty"`
	// Date — день выставления в формате YYYY-MM-DD (UTC).
	Date   string `json:"date,omitempty"`
	Status string `json:"status,omitempty"`
	Newest bool   `json:"newest,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

type ListInvoicesResponse struct {
	Invoices []Invoice `json:"invoices"`
}

// SetInvoiceStatusRequest переводит счёт в paid или voided.
type SetInvoiceStatusRequest struct {
	Number string `json:"number"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type GetDashboardRequest struct{}

// DashboardResponse — сводные счётчики магазина.
type DashboardResponse struct {
	TotalProducts   int    `json:"total_products"`
	LowStock        int    `json:"low_stock"`
	Customers       int    `json:"customers"`
	Invoices        int    `json:"invoices"`
	PendingInvoices int    `json:"pending_invoices"`
	PaidSales       string `json:"paid_sales"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(domain.MoneyPlaces)
}

func toProduct(p domain.Product) Product {
	return Product{
		ID:             p.ID,
		Code:           p.Code,
		Name:           p.Name,
		Brand:          p.Brand,
		Category:       p.Category,
		Description:    p.Description,
		UnitPrice:      money(p.UnitPrice),
		AvailableStock: p.AvailableStock,
		MinStock:       p.MinStock,
		StockLevel:     string(p.StockLevel()),
	}
}

func fromProduct(p Product) (domain.Product, error) {
	price := decimal.Zero
	if p.UnitPrice != "" {
		parsed, err := domain.ParseMoney(p.UnitPrice)
		if err != nil {
			return domain.Product{}, domain.InvalidArgument(err)
		}
		price = parsed
	}
	return domain.Product{
		ID:             p.ID,
		Code:           p.Code,
		Name:           p.Name,
		Brand:          p.Brand,
		Category:       p.Category,
		Description:    p.Description,
		UnitPrice:      price,
		AvailableStock: p.AvailableStock,
		MinStock:       p.MinStock,
	}, nil
}

func toCustomer(c domain.Customer) Customer {
	return Customer{
		ID:           c.ID,
		FullName:     c.FullName,
		TaxID:        c.TaxID,
		Email:        c.Email,
		Phone:        c.Phone,
		Address:      c.Address,
		RegisteredAt: c.RegisteredAt,
	}
}

func fromCustomer(c Customer) domain.Customer {
	return domain.Customer{
		ID:       c.ID,
		FullName: c.FullName,
		TaxID:    c.TaxID,
		Email:    c.Email,
		Phone:    c.Phone,
		Address:  c.Address,
	}
}

func toTotals(t domain.Totals) Totals {
	return Totals{
		Subtotal: money(t.Subtotal),
		Tax:      money(t.Tax),
		Shipping: money(t.Shipping),
		Total:    money(t.Total),
	}
}

func toCart(snap domain.OrderSnapshot) Cart {
	items := make([]CartItem, 0, len(snap.Items))
	for _, item := range snap.Items {
		items = append(items, CartItem{
			ProductID: item.Product.ID,
			Code:      item.Product.Code,
			Name:      item.Product.Name,
			UnitPrice: money(item.Product.UnitPrice),
			Quantity:  item.Quantity,
			LineTotal: money(item.Total()),
		})
	}
	return Cart{
		ID:      snap.ID,
		Profile: snap.Profile,
		State:   string(snap.State),
		Items:   items,
		Totals:  toTotals(snap.Totals),
	}
}

func toInvoice(inv domain.Invoice) Invoice {
	lines := make([]InvoiceLine, 0, len(inv.Lines))
	for _, line := range inv.Lines {
		lines = append(lines, InvoiceLine{
			ProductID: line.ProductID,
			Code:      line.Code,
			Name:      line.Name,
			Brand:     line.Brand,
			Quantity:  line.Quantity,
			UnitPrice: money(line.UnitPrice),
			Total:     money(line.Total),
		})
	}
	return Invoice{
		Number:    inv.Number,
		IssuedAt:  inv.IssuedAt,
		Customer:  toCustomer(inv.Customer),
		Lines:     lines,
		TaxRate:   inv.TaxRate.String(),
		Totals:    toTotals(inv.Totals()),
		Status:    string(inv.Status),
		UpdatedAt: inv.UpdatedAt,
	}
}

func toTimeline(events []domain.TimelineEvent) []TimelineEvent {
	out := make([]TimelineEvent, 0, len(events))
	for _, e := range events {
		out = append(out, TimelineEvent{Type: e.Type, Reason: e.Reason, Occurred: e.Occurred})
	}
	return out
}

func toDashboard(s dashboard.Summary) *DashboardResponse {
	return &DashboardResponse{
		TotalProducts:   s.TotalProducts,
		LowStock:        s.LowStock,
		Customers:       s.Customers,
		Invoices:        s.Invoices,
		PendingInvoices: s.PendingInvoices,
		PaidSales:       money(s.PaidSales),
	}
}
