// Package apperror defines the error taxonomy shared by use cases and transports.
package apperror

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindInsufficient
	KindPaymentRequired
	KindContention
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Code so a sentinel still matches after WithMessage or Wrap.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithMessage returns a copy of e carrying a more specific message.
func (e *Error) WithMessage(msg string) *Error {
	cp := *e
	cp.Message = msg
	return &cp
}

// Wrap returns a copy of e with cause attached for server-side logging.
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.Err = cause
	return &cp
}

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

var (
	ErrTenantNotFound     = newError(KindNotFound, "tenant_not_found", "business not found")
	ErrItemNotFound       = newError(KindNotFound, "item_not_found", "item not found")
	ErrOrderNotFound      = newError(KindNotFound, "order_not_found", "order not found")
	ErrWalletNotFound     = newError(KindNotFound, "wallet_not_found", "wallet not found")
	ErrPostNotFound       = newError(KindNotFound, "post_not_found", "post not found")
	ErrVariantUnavailable = newError(KindNotFound, "variant_unavailable", "variant not available")

	ErrInsufficientStock  = newError(KindInsufficient, "insufficient_stock", "insufficient stock")
	ErrInsufficientCredit = newError(KindPaymentRequired, "insufficient_credit", "business has no credits available")

	ErrDeliveryUnavailable = newError(KindValidation, "delivery_unavailable", "business does not offer delivery")
	ErrAddressRequired     = newError(KindValidation, "address_required", "a valid delivery address is required")
	ErrInvalidStatus       = newError(KindValidation, "invalid_status", "invalid order status")
	ErrInvalidTransition   = newError(KindValidation, "invalid_transition", "order status can no longer change")
	ErrInvalidQuantity     = newError(KindValidation, "invalid_quantity", "quantity must be positive")
	ErrInvalidAmount       = newError(KindValidation, "invalid_amount", "amount must not be zero")
	ErrInvalidDate         = newError(KindValidation, "invalid_date", "invalid date")
	ErrInvalidInput        = newError(KindValidation, "invalid_input", "invalid input")
	ErrEmptyCart           = newError(KindValidation, "empty_cart", "cart is empty")
	ErrSlugTaken           = newError(KindValidation, "slug_taken", "slug already in use")

	ErrContention = newError(KindContention, "contention", "resource busy, please retry")
	ErrInternal   = newError(KindInternal, "internal_error", "internal server error")
)

// As extracts the *Error carried by err, if any.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func HTTPStatus(err error) int {
	appErr, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch appErr.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation, KindInsufficient:
		return http.StatusBadRequest
	case KindPaymentRequired:
		return http.StatusPaymentRequired
	case KindContention:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func GRPCCode(err error) codes.Code {
	appErr, ok := As(err)
	if !ok {
		return codes.Internal
	}
	switch appErr.Kind {
	case KindNotFound:
		return codes.NotFound
	case KindValidation:
		return codes.InvalidArgument
	case KindInsufficient, KindPaymentRequired:
		return codes.FailedPrecondition
	case KindContention:
		return codes.Aborted
	default:
		return codes.Internal
	}
}

// GRPCStatus converts err into a status error, hiding internal details.
func GRPCStatus(err error) error {
	appErr, ok := As(err)
	if !ok || appErr.Kind == KindInternal {
		return status.Error(codes.Internal, ErrInternal.Message)
	}
	return status.Error(GRPCCode(err), appErr.Message)
}
