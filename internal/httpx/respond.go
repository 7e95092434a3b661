package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ariefcatur/go-shop-orders/internal/logging"
	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"go.uber.org/zap"
)

var errUnauthenticated = errors.New("login required")

// errorBody is the JSON shape of every failed response.
type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Data  any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := orders.Kind(err)
	if errors.Is(err, errUnauthenticated) {
		kind = "unauthenticated"
	}
	code := statusFor(kind)
	body := errorBody{Error: err.Error(), Kind: kind, Data: errorData(err)}
	if code >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error("request_failed", zap.String("kind", kind), zap.Error(err))
		body.Error = "internal error"
	}
	writeJSON(w, code, body)
}

func statusFor(kind string) int {
	switch kind {
	case "unauthenticated", "invalid_credentials":
		return http.StatusUnauthorized
	case "forbidden", "review_not_allowed":
		return http.StatusForbidden
	case "not_found", "order_not_found":
		return http.StatusNotFound
	case "insufficient_stock", "invalid_state", "multi_seller_cart", "empty_cart",
		"already_reviewed", "email_taken", "conflict", "in_use", "already_in_wishlist":
		return http.StatusConflict
	case "payment_incomplete":
		return http.StatusPaymentRequired
	case "invalid_quantity", "invalid_price", "invalid_amount", "invalid_rating",
		"invalid_coupon", "invalid_input", "address_required":
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// errorData exposes the fields of typed domain errors to clients.
func errorData(err error) any {
	var (
		stock *orders.InsufficientStockError
		state *orders.InvalidStateError
		pay   *orders.PaymentIncompleteError
	)
	switch {
	case errors.As(err, &stock):
		return stock
	case errors.As(err, &state):
		return state
	case errors.As(err, &pay):
		return pay
	}
	return nil
}

// decode reads a JSON body; an empty body leaves dst untouched.
func decode(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", orders.ErrInvalidInput, err)
	}
	return nil
}
