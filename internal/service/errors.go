package service

import (
	"go-storefront/internal/repository"
	"go-storefront/pkg/apperror"
)

var (
	ErrProductNotFound     = apperror.New(apperror.KindNotFound, "product not found")
	ErrCategoryNotFound    = apperror.New(apperror.KindNotFound, "category not found")
	ErrCartLineNotFound    = apperror.New(apperror.KindNotFound, "cart item not found")
	ErrOrderNotFound       = apperror.New(apperror.KindNotFound, "order not found")
	ErrProductUnavailable  = apperror.New(apperror.KindNotFound, "cart contains a product that is no longer available")
	ErrOutOfStock          = apperror.New(apperror.KindOutOfStock, "product is out of stock")
	ErrInvalidQuantity     = apperror.New(apperror.KindInvalidQuantity, "quantity must be greater than zero")
	ErrEmptyCart           = apperror.New(apperror.KindEmptyCart, "cart is empty")
	ErrConcurrencyConflict = apperror.New(apperror.KindConcurrencyConflict, "the resource was modified concurrently, please retry")
	ErrInvalidTransition   = apperror.New(apperror.KindInvalidTransition, "invalid order status transition")
	ErrOrderNotPayable     = apperror.New(apperror.KindInvalidTransition, "order is not awaiting payment")
	ErrPaidOrderCancelled  = apperror.New(apperror.KindConflict, "payment received for a cancelled order")
	ErrPaymentProvider     = apperror.New(apperror.KindExternalService, "payment provider request failed")
	ErrPaymentsDisabled    = apperror.New(apperror.KindExternalService, "payments are not configured")
	ErrUploadsDisabled     = apperror.New(apperror.KindExternalService, "image uploads are not configured")
	ErrUnauthenticated     = apperror.New(apperror.KindUnauthorized, "authentication required")

	ErrInvalidCredentials = apperror.New(apperror.KindUnauthorized, "invalid email or password")
	ErrUserInactive       = apperror.New(apperror.KindForbidden, "user account is inactive")
	ErrSessionReplaced    = apperror.New(apperror.KindUnauthorized, "session expired (logged in on another device)")
	ErrEmailTaken         = apperror.New(apperror.KindConflict, "email is already registered")
)

// storeError lifts retryable Postgres failures into ErrConcurrencyConflict and
// leaves everything else untouched.
func storeError(err error) error {
	if err != nil && repository.IsSerializationFailure(err) {
		return ErrConcurrencyConflict
	}
	return err
}

func invalidInput(msg string) error {
	return apperror.New(apperror.KindInvalidInput, msg)
}
