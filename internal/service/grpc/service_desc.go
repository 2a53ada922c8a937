package grpcsvc

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName — полное имя gRPC-сервиса.
const ServiceName = "perfumery.v1.BillingService"

// BillingServiceServer — серверная часть BillingService.
type BillingServiceServer interface {
	ListProducts(context.Context, *ListProductsRequest) (*ListProductsResponse, error)
	GetProduct(context.Context, *GetProductRequest) (*ProductResponse, error)
	RegisterProduct(context.Context, *RegisterProductRequest) (*ProductResponse, error)
	ListCustomers(context.Context, *ListCustomersRequest) (*ListCustomersResponse, error)
	GetCustomer(context.Context, *GetCustomerRequest) (*CustomerResponse, error)
	SaveCustomer(context.Context, *SaveCustomerRequest) (*CustomerResponse, error)
	DeleteCustomer(context.Context, *DeleteCustomerRequest) (*DeleteCustomerResponse, error)
	OpenCart(context.Context, *OpenCartRequest) (*CartResponse, error)
	AddItem(context.Context, *AddItemRequest) (*CartResponse, error)
	SetQuantity(context.Context, *SetQuantityRequest) (*CartResponse, error)
	RemoveItem(context.Context, *RemoveItemRequest) (*CartResponse, error)
	GetCart(context.Context, *GetCartRequest) (*CartResponse, error)
	CancelCart(context.Context, *CancelCartRequest) (*CancelCartResponse, error)
	Checkout(context.Context, *CheckoutRequest) (*InvoiceResponse, error)
	GetInvoice(context.Context, *GetInvoiceRequest) (*InvoiceResponse, error)
	ListInvoices(context.Context, *ListInvoicesRequest) (*ListInvoicesResponse, error)
	SetInvoiceStatus(context.Context, *SetInvoiceStatusRequest) (*InvoiceResponse, error)
	GetDashboard(context.Context, *GetDashboardRequest) (*DashboardResponse, error)
}

// RegisterBillingServiceServer регистрирует реализацию на gRPC-сервере.
func RegisterBillingServiceServer(s grpc.ServiceRegistrar, srv BillingServiceServer) {
	s.RegisterService(&billingServiceDesc, srv)
}

var billingServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BillingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ListProducts", BillingServiceServer.ListProducts),
		unary("GetProduct", BillingServiceServer.GetProduct),
		unary("RegisterProduct", BillingServiceServer.RegisterProduct),
		unary("ListCustomers", BillingServiceServer.ListCustomers),
		unary("GetCustomer", BillingServiceServer.GetCustomer),
		unary("SaveCustomer", BillingServiceServer.SaveCustomer),
		unary("DeleteCustomer", BillingServiceServer.DeleteCustomer),
		unary("OpenCart", BillingServiceServer.OpenCart),
		unary("AddItem", BillingServiceServer.AddItem),
		unary("SetQuantity", BillingServiceServer.SetQuantity),
		unary("RemoveItem", BillingServiceServer.RemoveItem),
		unary("GetCart", BillingServiceServer.GetCart),
		unary("CancelCart", BillingServiceServer.CancelCart),
		unary("Checkout", BillingServiceServer.Checkout),
		unary("GetInvoice", BillingServiceServer.GetInvoice),
		unary("ListInvoices", BillingServiceServer.ListInvoices),
		unary("SetInvoiceStatus", BillingServiceServer.SetInvoiceStatus),
		unary("GetDashboard", BillingServiceServer.GetDashboard),
	},
	Metadata: "perfumery/v1/billing",
}

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unary[Req, Resp any](method string, call func(BillingServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(BillingServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(BillingServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// BillingServiceClient — клиент BillingService. Все вызовы идут с content-subtype json.
type BillingServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewBillingServiceClient создаёт клиента поверх соединения.
func NewBillingServiceClient(cc grpc.ClientConnInterface) *BillingServiceClient {
	return &BillingServiceClient{cc: cc}
}

func invoke[Req, Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in *Req, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BillingServiceClient) ListProducts(ctx context.Context, in *ListProductsRequest, opts ...grpc.CallOption) (*ListProductsResponse, error) {
	return invoke[ListProductsRequest, ListProductsResponse](ctx, c.cc, "ListProducts", in, opts)
}

func (c *BillingServiceClient) GetProduct(ctx context.Context, in *GetProductRequest, opts ...grpc.CallOption) (*ProductResponse, error) {
	return invoke[GetProductRequest, ProductResponse](ctx, c.cc, "GetProduct", in, opts)
}

func (c *BillingServiceClient) RegisterProduct(ctx context.Context, in *RegisterProductRequest, opts ...grpc.CallOption) (*ProductResponse, error) {
	return invoke[RegisterProductRequest, ProductResponse](ctx, c.cc, "RegisterProduct", in, opts)
}

func (c *BillingServiceClient) ListCustomers(ctx context.Context, in *ListCustomersRequest, opts ...grpc.CallOption) (*ListCustomersResponse, error) {
	return invoke[ListCustomersRequest, ListCustomersResponse](ctx, c.cc, "ListCustomers", in, opts)
}

func (c *BillingServiceClient) GetCustomer(ctx context.Context, in *GetCustomerRequest, opts ...grpc.CallOption) (*CustomerResponse, error) {
	return invoke[GetCustomerRequest, CustomerResponse](ctx, c.cc, "GetCustomer", in, opts)
}

func (c *BillingServiceClient) SaveCustomer(ctx context.Context, in *SaveCustomerRequest, opts ...grpc.CallOption) (*CustomerResponse, error) {
	return invoke[SaveCustomerRequest, CustomerResponse](ctx, c.cc, "SaveCustomer", in, opts)
}

func (c *BillingServiceClient) DeleteCustomer(ctx context.Context, in *DeleteCustomerRequest, opts ...grpc.CallOption) (*DeleteCustomerResponse, error) {
	return invoke[DeleteCustomerRequest, DeleteCustomerResponse](ctx, c.cc, "DeleteCustomer", in, opts)
}

func (c *BillingServiceClient) OpenCart(ctx context.Context, in *OpenCartRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	return invoke[OpenCartRequest, CartResponse](ctx, c.cc, "OpenCart", in, opts)
}

func (c *BillingServiceClient) AddItem(ctx context.Context, in *AddItemRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	return invoke[AddItemRequest, CartResponse](ctx, c.cc, "AddItem", in, opts)
}

func (c *BillingServiceClient) SetQuantity(ctx context.Context, in *SetQuantityRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	return invoke[SetQuantityRequest, CartResponse](ctx, c.cc, "SetQuantity", in, opts)
}

func (c *BillingServiceClient) RemoveItem(ctx context.Context, in *RemoveItemRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	return invoke[RemoveItemRequest, CartResponse](ctx, c.cc, "RemoveItem", in, opts)
}

func (c *BillingServiceClient) GetCart(ctx context.Context, in *GetCartRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	return invoke[GetCartRequest, CartResponse](ctx, c.cc, "GetCart", in, opts)
}

func (c *BillingServiceClient) CancelCart(ctx context.Context, in *CancelCartRequest, opts ...grpc.CallOption) (*CancelCartResponse, error) {
	return invoke[CancelCartRequest, CancelCartResponse](ctx, c.cc, "CancelCart", in, opts)
}

func (c *BillingServiceClient) Checkout(ctx context.Context, in *CheckoutRequest, opts ...grpc.CallOption) (*InvoiceResponse, error) {
	return invoke[CheckoutRequest, InvoiceResponse](ctx, c.cc, "Checkout", in, opts)
}

func (c *BillingServiceClient) GetInvoice(ctx context.Context, in *GetInvoiceRequest, opts ...grpc.CallOption) (*InvoiceResponse, error) {
	return invoke[GetInvoiceRequest, InvoiceResponse](ctx, c.cc, "GetInvoice", in, opts)
}

func (c *BillingServiceClient) ListInvoices(ctx context.Context, in *ListInvoicesRequest, opts ...grpc.CallOption) (*ListInvoicesResponse, error) {
	return invoke[ListInvoicesRequest, ListInvoicesResponse](ctx, c.cc, "ListInvoices", in, opts)
}

func (c *BillingServiceClient) SetInvoiceStatus(ctx context.Context, in *SetInvoiceStatusRequest, opts ...grpc.CallOption) (*InvoiceResponse, error) {
	return invoke[SetInvoiceStatusRequest, InvoiceResponse](ctx, c.cc, "SetInvoiceStatus", in, opts)
}

func (c *BillingServiceClient) GetDashboard(ctx context.Context, in *GetDashboardRequest, opts ...grpc.CallOption) (*DashboardResponse, error) {
	return invoke[GetDashboardRequest, DashboardResponse](ctx, c.cc, "GetDashboard", in, opts)
}
