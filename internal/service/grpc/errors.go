package grpcsvc

import (
	"context"
	"errors"
	"strconv"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vladislavdragonenkov/perfumery/internal/domain"
)

// ErrorDomain — значение ErrorInfo.Domain в деталях ошибок.
const ErrorDomain = "perfumery.billing"

// Значения ErrorInfo.Reason.
const (
	ReasonStockExceeded     = "STOCK_EXCEEDED"
	ReasonEmptyOrder        = "EMPTY_ORDER"
	ReasonMissingCustomer   = "MISSING_CUSTOMER"
	ReasonOrderSubmitted    = "ORDER_SUBMITTED"
	ReasonInvalidTransition = "INVALID_STATUS_TRANSITION"
	ReasonNumbersExhausted  = "INVOICE_NUMBERS_EXHAUSTED"
	ReasonNotFound          = "NOT_FOUND"
	ReasonInvalidArgument   = "INVALID_ARGUMENT"
	ReasonAlreadyExists     = "ALREADY_EXISTS"
)

// toStatus переводит доменную ошибку в gRPC status с ErrorInfo в деталях.
func (s *BillingService) toStatus(method string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var stockErr *domain.StockError
	switch {
	case errors.As(err, &stockErr):
		return withInfo(codes.FailedPrecondition, err.Error(), ReasonStockExceeded, map[string]string{
			"product_id": stockErr.ProductID,
			"requested":  strconv.Itoa(stockErr.Requested),
			"available":  strconv.Itoa(stockErr.Available),
		})
	case errors.Is(err, domain.ErrEmptyOrder):
		return withInfo(codes.FailedPrecondition, err.Error(), ReasonEmptyOrder, nil)
	case errors.Is(err, domain.ErrMissingCustomer):
		return withInfo(codes.FailedPrecondition, err.Error(), ReasonMissingCustomer, nil)
	case errors.Is(err, domain.ErrOrderSubmitted):
		return withInfo(codes.FailedPrecondition, err.Error(), ReasonOrderSubmitted, nil)
	case errors.Is(err, domain.ErrInvalidStatusTransition):
		return withInfo(codes.FailedPrecondition, err.Error(), ReasonInvalidTransition, nil)
	case errors.Is(err, domain.ErrInvoiceNumberExhausted):
		return withInfo(codes.ResourceExhausted, err.Error(), ReasonNumbersExhausted, nil)
	case domain.IsNotFound(err):
		return withInfo(codes.NotFound, err.Error(), ReasonNotFound, nil)
	case domain.IsInvalidArgument(err),
		errors.Is(err, domain.ErrUnknownPricingProfile),
		errors.Is(err, domain.ErrUnknownInvoiceStatus):
		return withInfo(codes.InvalidArgument, err.Error(), ReasonInvalidArgument, nil)
	case domain.IsConflict(err):
		return withInfo(codes.AlreadyExists, err.Error(), ReasonAlreadyExists, nil)
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		s.logger.WithError(err).WithField("method", method).Error("request failed")
		return status.Error(codes.Internal, "internal error")
	}
}

func withInfo(code codes.Code, msg, reason string, metadata map[string]string) error {
	st, err := status.New(code, msg).WithDetails(&errdetails.ErrorInfo{
		Reason:   reason,
		Domain:   ErrorDomain,
		Metadata: metadata,
	})
	if err != nil {
		return status.Error(code, msg)
	}
	return st.Err()
}

// ErrorInfo извлекает ErrorInfo из gRPC-ошибки.
func ErrorInfo(err error) (*errdetails.ErrorInfo, bool) {
	st, ok := status.FromError(err)
	if !ok {
		return nil, false
	}
	for _, detail := range st.Details() {
		if info, ok := detail.(*errdetails.ErrorInfo); ok {
			return info, true
		}
	}
	return nil, false
}
