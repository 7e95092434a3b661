package orders

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidQuantity    = errors.New("quantity must be greater than zero")
	ErrMultiSellerCart    = errors.New("cart already holds items from a different seller")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrAddressRequired    = errors.New("an address is required before opening a cart")
	ErrInvalidCoupon      = errors.New("invalid or expired coupon")
	ErrInvalidPrice       = errors.New("price must be zero or greater")
	ErrInvalidAmount      = errors.New("payment amount must be greater than zero")
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
	ErrAlreadyReviewed    = errors.New("order item already reviewed")
	ErrReviewNotAllowed   = errors.New("only shipped or delivered items can be reviewed")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInUse              = errors.New("still referenced by orders or products")
	ErrAlreadyWishlisted  = errors.New("product already in wishlist")
)

// InsufficientStockError reports the first product that could not cover its line quantity.
type InsufficientStockError struct {
	ProductID string `json:"product_id"`
	Available int    `json:"available"`
	Required  int    `json:"required"`
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: available %d, required %d", e.ProductID, e.Available, e.Required)
}

type InvalidStateError struct {
	Current  Status   `json:"current"`
	Expected []Status `json:"expected"`
}

func (e *InvalidStateError) Error() string {
	exp := make([]string, 0, len(e.Expected))
	for _, s := range e.Expected {
		exp = append(exp, string(s))
	}
	return fmt.Sprintf("order is %s, expected %s", e.Current, strings.Join(exp, " or "))
}

type PaymentIncompleteError struct {
	Paid     decimal.Decimal `json:"paid"`
	Required decimal.Decimal `json:"required"`
}

func (e *PaymentIncompleteError) Error() string {
	return fmt.Sprintf("payment incomplete: paid %s, required %s", e.Paid.StringFixed(2), e.Required.StringFixed(2))
}

// TransactionAbortedError wraps a datastore failure that forced a rollback.
type TransactionAbortedError struct {
	Op  string
	Err error
}

func (e *TransactionAbortedError) Error() string {
	return fmt.Sprintf("%s: transaction aborted: %v", e.Op, e.Err)
}

func (e *TransactionAbortedError) Unwrap() error { return e.Err }

// IsDomain reports whether err is one of the business errors above rather than a
// datastore failure.
func IsDomain(err error) bool {
	var (
		stock *InsufficientStockError
		state *InvalidStateError
		pay   *PaymentIncompleteError
	)
	switch {
	case errors.As(err, &stock), errors.As(err, &state), errors.As(err, &pay):
		return true
	}
	for _, s := range []error{
		ErrNotFound, ErrOrderNotFound, ErrInvalidQuantity, ErrMultiSellerCart, ErrEmptyCart,
		ErrAddressRequired, ErrInvalidCoupon, ErrInvalidPrice, ErrInvalidAmount, ErrInvalidRating, ErrAlreadyReviewed,
		ErrReviewNotAllowed, ErrEmailTaken, ErrInvalidCredentials, ErrForbidden, ErrConflict, ErrInvalidInput,
		ErrInUse, ErrAlreadyWishlisted,
	} {
		if errors.Is(err, s) {
			return true
		}
	}
	return false
}

// Abort wraps non-domain errors in a TransactionAbortedError and passes business
// errors through untouched.
func Abort(op string, err error) error {
	if err == nil || IsDomain(err) {
		return err
	}
	var aborted *TransactionAbortedError
	if errors.As(err, &aborted) {
		return err
	}
	return &TransactionAbortedError{Op: op, Err: err}
}

// Kind names the error class for logs, metrics labels and API bodies.
func Kind(err error) string {
	var (
		stock   *InsufficientStockError
		state   *InvalidStateError
		pay     *PaymentIncompleteError
		aborted *TransactionAbortedError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &stock):
		return "insufficient_stock"
	case errors.As(err, &state):
		return "invalid_state"
	case errors.As(err, &pay):
		return "payment_incomplete"
	case errors.Is(err, ErrOrderNotFound):
		return "order_not_found"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, ErrMultiSellerCart):
		return "multi_seller_cart"
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, ErrAddressRequired):
		return "address_required"
	case errors.Is(err, ErrInvalidCoupon):
		return "invalid_coupon"
	case errors.Is(err, ErrInvalidPrice):
		return "invalid_price"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrInvalidRating):
		return "invalid_rating"
	case errors.Is(err, ErrAlreadyReviewed):
		return "already_reviewed"
	case errors.Is(err, ErrReviewNotAllowed):
		return "review_not_allowed"
	case errors.Is(err, ErrEmailTaken):
		return "email_taken"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrInUse):
		return "in_use"
	case errors.Is(err, ErrAlreadyWishlisted):
		return "already_in_wishlist"
	case errors.As(err, &aborted):
		return "transaction_aborted"
	}
	return "internal"
}
