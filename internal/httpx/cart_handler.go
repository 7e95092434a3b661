package httpx

import (
	"net/http"

	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"github.com/go-chi/chi/v5"
)

type addItemReq struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type quantityReq struct {
	Quantity int `json:"quantity"`
}

type couponReq struct {
	Code string `json:"code"`
}

type submitReq struct {
	ShippingAddressID string `json:"shipping_address_id"`
	BillingAddressID  string `json:"billing_address_id"`
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	o, err := h.Cart.Current(r.Context(), principalFrom(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemReq
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.ProductID == "" {
		writeError(w, r, orders.ErrInvalidInput)
		return
	}
	res, err := h.Cart.AddItem(r.Context(), principalFrom(r.Context()).ID, req.ProductID, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.invalidate(r.Context(), res.OrderID)
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	var req quantityReq
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.mutateCart(w, r, func(customerID, orderID string) (orders.Order, error) {
		return h.Cart.UpdateItemQuantity(r.Context(), customerID, orderID, chi.URLParam(r, "itemID"), req.Quantity)
	})
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	h.mutateCart(w, r, func(customerID, orderID string) (orders.Order, error) {
		return h.Cart.RemoveItem(r.Context(), customerID, orderID, chi.URLParam(r, "itemID"))
	})
}

func (h *Handler) applyCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponReq
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.mutateCart(w, r, func(customerID, orderID string) (orders.Order, error) {
		return h.Cart.ApplyCoupon(r.Context(), customerID, orderID, req.Code)
	})
}

func (h *Handler) submitCart(w http.ResponseWriter, r *http.Request) {
	var req submitReq
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.mutateCart(w, r, func(customerID, orderID string) (orders.Order, error) {
		return h.Cart.Submit(r.Context(), customerID, orderID, req.ShippingAddressID, req.BillingAddressID)
	})
}

// mutateCart resolves the caller's ongoing cart and applies fn to it.
func (h *Handler) mutateCart(w http.ResponseWriter, r *http.Request, fn func(customerID, orderID string) (orders.Order, error)) {
	customerID := principalFrom(r.Context()).ID
	cur, err := h.Cart.Current(r.Context(), customerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := fn(customerID, cur.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.invalidate(r.Context(), o.ID)
	writeJSON(w, http.StatusOK, o)
}
