package grpcsvc

import (
	"context"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vladislavdragonenkov/perfumery/internal/domain"
	"github.com/vladislavdragonenkov/perfumery/internal/service/catalog"
	"github.com/vladislavdragonenkov/perfumery/internal/service/customer"
	"github.com/vladislavdragonenkov/perfumery/internal/service/dashboard"
	"github.com/vladislavdragonenkov/perfumery/internal/service/invoice"
	"github.com/vladislavdragonenkov/perfumery/internal/service/sales"
)

const dateLayout = "2006-01-02"

// Services — прикладные сервисы, которые BillingService публикует по gRPC.
type Services struct {
	Catalog     *catalog.Service
	Customers   *customer.Service
	Sales       *sales.Service
	Ledger      *invoice.Ledger
	Dashboard   *dashboard.Service
	Idempotency domain.IdempotencyRepository
}

// BillingService реализует perfumery.v1.BillingService.
type BillingService struct {
	catalog        *catalog.Service
	customers      *customer.Service
	sales          *sales.Service
	ledger         *invoice.Ledger
	dashboard      *dashboard.Service
	idempotency    domain.IdempotencyRepository
	idempotencyTTL time.Duration
	logger         *log.Entry
	now            func() time.Time
}

// NewBillingService собирает gRPC-сервис. Idempotency может быть nil.
func NewBillingService(svc Services, logger *log.Entry) *BillingService {
	if logger == nil {
		logger = log.WithField("component", "billing-grpc")
	}
	return &BillingService{
		catalog:        svc.Catalog,
		customers:      svc.Customers,
		sales:          svc.Sales,
		ledger:         svc.Ledger,
		dashboard:      svc.Dashboard,
		idempotency:    svc.Idempotency,
		idempotencyTTL: defaultIdempotencyTTL,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// SetIdempotencyTTL задаёт срок хранения ответов по ключу идемпотентности.
func (s *BillingService) SetIdempotencyTTL(ttl time.Duration) {
	if ttl > 0 {
		s.idempotencyTTL = ttl
	}
}

func (s *BillingService) ListProducts(_ context.Context, req *ListProductsRequest) (*ListProductsResponse, error) {
	products, err := s.catalog.List(domain.ProductFilter{
		Search:       req.Search,
		Brand:        req.Brand,
		Category:     req.Category,
		LowStockOnly: req.LowStockOnly,
	})
	if err != nil {
		return nil, s.toStatus("ListProducts", err)
	}

	resp := &ListProductsResponse{Products: make([]Product, 0, len(products))}
	for _, p := range products {
		resp.Products = append(resp.Products, toProduct(p))
	}
	return resp, nil
}

func (s *BillingService) GetProduct(_ context.Context, req *GetProductRequest) (*ProductResponse, error) {
	if strings.TrimSpace(req.ID) == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	p, err := s.catalog.Get(req.ID)
	if err != nil {
		return nil, s.toStatus("GetProduct", err)
	}
	return &ProductResponse{Product: toProduct(p)}, nil
}

func (s *BillingService) RegisterProduct(_ context.Context, req *RegisterProductRequest) (*ProductResponse, error) {
	product, err := fromProduct(req.Product)
	if err != nil {
		return nil, s.toStatus("RegisterProduct", err)
	}
	registered, err := s.catalog.Register(product)
	if err != nil {
		return nil, s.toStatus("RegisterProduct", err)
	}
	return &ProductResponse{Product: toProduct(registered)}, nil
}

func (s *BillingService) ListCustomers(_ context.Context, req *ListCustomersRequest) (*ListCustomersResponse, error) {
	customers, err := s.customers.List(req.Query)
	if err != nil {
		return nil, s.toStatus("ListCustomers", err)
	}

	resp := &ListCustomersResponse{Customers: make([]Customer, 0, len(customers))}
	for _, c := range customers {
		resp.Customers = append(resp.Customers, toCustomer(c))
	}
	return resp, nil
}

func (s *BillingService) GetCustomer(_ context.Context, req *GetCustomerRequest) (*CustomerResponse, error) {
	if strings.TrimSpace(req.ID) == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	c, err := s.customers.Get(req.ID)
	if err != nil {
		return nil, s.toStatus("GetCustomer", err)
	}
	return &CustomerResponse{Customer: toCustomer(c)}, nil
}

func (s *BillingService) SaveCustomer(_ context.Context, req *SaveCustomerRequest) (*CustomerResponse, error) {
	saved, err := s.customers.Save(fromCustomer(req.Customer))
	if err != nil {
		return nil, s.toStatus("SaveCustomer", err)
	}
	return &CustomerResponse{Customer: toCustomer(saved)}, nil
}

func (s *BillingService) DeleteCustomer(_ context.Context, req *DeleteCustomerRequest) (*DeleteCustomerResponse, error) {
	if strings.TrimSpace(req.ID) == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	if err := s.customers.Delete(req.ID); err != nil {
		return nil, s.toStatus("DeleteCustomer", err)
	}
	return &DeleteCustomerResponse{}, nil
}

func (s *BillingService) OpenCart(_ context.Context, req *OpenCartRequest) (*CartResponse, error) {
	snap, err := s.sales.OpenCart(req.Profile)
	if err != nil {
		return nil, s.toStatus("OpenCart", err)
	}
	return &CartResponse{Cart: toCart(snap)}, nil
}

func (s *BillingService) AddItem(_ context.Context, req *AddItemRequest) (*CartResponse, error) {
	if req.CartID == "" || req.ProductID == "" {
		return nil, status.Error(codes.InvalidArgument, "cart_id and product_id are required")
	}
	snap, err := s.sales.AddItem(req.CartID, req.ProductID)
	if err != nil {
		return nil, s.toStatus("AddItem", err)
	}
	return &CartResponse{Cart: toCart(snap)}, nil
}

func (s *BillingService) SetQuantity(_ context.Context, req *SetQuantityRequest) (*CartResponse, error) {
	if req.CartID == "" || req.ProductID == "" {
		return nil, status.Error(codes.InvalidArgument, "cart_id and product_id are required")
	}
	snap, err := s.sales.SetQuantity(req.CartID, req.ProductID, req.Quantity)
	if err != nil {
		return nil, s.toStatus("SetQuantity", err)
	}
	return &CartResponse{Cart: toCart(snap)}, nil
}

func (s *BillingService) RemoveItem(_ context.Context, req *RemoveItemRequest) (*CartResponse, error) {
	if req.CartID == "" || req.ProductID == "" {
		return nil, status.Error(codes.InvalidArgument, "cart_id and product_id are required")
	}
	snap, err := s.sales.RemoveItem(req.CartID, req.ProductID)
	if err != nil {
		return nil, s.toStatus("RemoveItem", err)
	}
	return &CartResponse{Cart: toCart(snap)}, nil
}

func (s *BillingService) GetCart(_ context.Context, req *GetCartRequest) (*CartResponse, error) {
	if req.CartID == "" {
		return nil, status.Error(codes.InvalidArgument, "cart_id is required")
	}
	snap, err := s.sales.GetCart(req.CartID)
	if err != nil {
		return nil, s.toStatus("GetCart", err)
	}
	return &CartResponse{Cart: toCart(snap)}, nil
}

func (s *BillingService) CancelCart(_ context.Context, req *CancelCartRequest) (*CancelCartResponse, error) {
	if req.CartID == "" {
		return nil, status.Error(codes.InvalidArgument, "cart_id is required")
	}
	if err := s.sales.CancelCart(req.CartID); err != nil {
		return nil, s.toStatus("CancelCart", err)
	}
	return &CancelCartResponse{}, nil
}

// Checkout выставляет счёт по корзине. Учитывает metadata idempotency-key.
func (s *BillingService) Checkout(ctx context.Context, req *CheckoutRequest) (*InvoiceResponse, error) {
	if req.CartID == "" {
		return nil, status.Error(codes.InvalidArgument, "cart_id is required")
	}

	return withIdempotency(s, ctx, fullMethod("Checkout"), req, func(ctx context.Context) (*InvoiceResponse, error) {
		inv, err := s.sales.Checkout(ctx, req.CartID, req.CustomerID)
		if err != nil {
			return nil, s.toStatus("Checkout", err)
		}
		return &InvoiceResponse{Invoice: toInvoice(inv)}, nil
	})
}

func (s *BillingService) GetInvoice(_ context.Context, req *GetInvoiceRequest) (*InvoiceResponse, error) {
	if strings.TrimSpace(req.Number) == "" {
		return nil, status.Error(codes.InvalidArgument, "number is required")
	}
	inv, err := s.ledger.Get(req.Number)
	if err != nil {
		return nil, s.toStatus("GetInvoice", err)
	}

	resp := &InvoiceResponse{Invoice: toInvoice(inv)}
	if req.IncludeTimeline {
		events, err := s.ledger.Timeline(inv.Number)
		if err != nil {
			return nil, s.toStatus("GetInvoice", err)
		}
		resp.Timeline = toTimeline(events)
	}
	return resp, nil
}

func (s *BillingService) ListInvoices(_ context.Context, req *ListInvoicesRequest) (*ListInvoicesResponse, error) {
	filter := domain.InvoiceFilter{
		NumberContains:       req.Number,
		CustomerNameContains: req.CustomerName,
		CustomerIDContains:   req.CustomerID,
		Search:               req.Search,
		Newest:               req.Newest,
		Limit:                req.Limit,
	}
	if req.Limit < 0 {
		return nil, status.Error(codes.InvalidArgument, "limit must be >= 0")
	}
	if req.Status != "" {
		st, err := domain.ParseInvoiceStatus(req.Status)
		if err != nil {
			return nil, s.toStatus("ListInvoices", err)
		}
		filter.Status = st
	}
	if req.Date != "" {
		day, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "date must be %s", dateLayout)
		}
		filter.Date = day
	}

	view, err := s.ledger.Filter(filter)
	if err != nil {
		return nil, s.toStatus("ListInvoices", err)
	}

	resp := &ListInvoicesResponse{Invoices: []Invoice{}}
	for inv, err := range view.All() {
		if err != nil {
			return nil, s.toStatus("ListInvoices", err)
		}
		resp.Invoices = append(resp.Invoices, toInvoice(inv))
	}
	return resp, nil
}

func (s *BillingService) SetInvoiceStatus(ctx context.Context, req *SetInvoiceStatusRequest) (*InvoiceResponse, error) {
	if strings.TrimSpace(req.Number) == "" {
		return nil, status.Error(codes.InvalidArgument, "number is required")
	}
	st, err := domain.ParseInvoiceStatus(req.Status)
	if err != nil {
		return nil, s.toStatus("SetInvoiceStatus", err)
	}

	inv, err := s.ledger.SetStatus(ctx, req.Number, st, req.Reason)
	if err != nil {
		return nil, s.toStatus("SetInvoiceStatus", err)
	}
	return &InvoiceResponse{Invoice: toInvoice(inv)}, nil
}

func (s *BillingService) GetDashboard(_ context.Context, _ *GetDashboardRequest) (*DashboardResponse, error) {
	summary, err := s.dashboard.Summary()
	if err != nil {
		return nil, s.toStatus("GetDashboard", err)
	}
	return toDashboard(summary), nil
}

var _ BillingServiceServer = (*BillingService)(nil)
