package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/ariefcatur/go-shop-orders/internal/accounts"
	"github.com/ariefcatur/go-shop-orders/internal/cart"
	"github.com/ariefcatur/go-shop-orders/internal/catalog"
	"github.com/ariefcatur/go-shop-orders/internal/checkout"
	"github.com/ariefcatur/go-shop-orders/internal/logging"
	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const idempotencyHeader = "Idempotency-Key"

// IdempotencyStore remembers checkout responses per Idempotency-Key (redisx.Idempotency).
type IdempotencyStore interface {
	Claim(ctx context.Context, orderID, key string) (claimed bool, stored []byte, err error)
	Complete(ctx context.Context, orderID, key string, response []byte) error
	Release(ctx context.Context, orderID, key string) error
}

// StatusCache caches order documents by id (redisx.StatusCache).
type StatusCache interface {
	Get(ctx context.Context, orderID string) ([]byte, bool)
	Set(ctx context.Context, orderID string, doc []byte) error
	Invalidate(ctx context.Context, orderID string) error
}

type Handler struct {
	Accounts *accounts.Service
	Catalog  *catalog.Service
	Cart     *cart.Service
	Checkout *checkout.Orchestrator
	Store    orders.Store
	Sessions *scs.SessionManager

	Idem   IdempotencyStore // optional
	Status StatusCache      // optional
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.Sessions.LoadAndSave)

		r.Post("/auth/register", h.register)
		r.Post("/auth/login", h.login)
		r.Post("/auth/logout", h.logout)

		r.Get("/products", h.listProducts)
		r.Get("/products/{id}", h.getProduct)
		r.Get("/products/{id}/reviews", h.listReviews)
		r.Get("/categories", h.listCategories)

		r.Group(func(r chi.Router) {
			r.Use(requireRole(h.Sessions))
			r.Get("/me", h.me)
			r.Get("/orders", h.listOrders)
			r.Get("/orders/{id}", h.getOrder)
			r.Get("/notifications", h.notifications)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireRole(h.Sessions, orders.RoleCustomer))
			r.Post("/addresses", h.addAddress)
			r.Get("/addresses", h.listAddresses)
			r.Put("/addresses/{id}", h.updateAddress)
			r.Delete("/addresses/{id}", h.deleteAddress)

			r.Get("/wishlist", h.listWishlist)
			r.Post("/wishlist", h.addWishlist)
			r.Delete("/wishlist/{productID}", h.removeWishlist)

			r.Get("/cart", h.getCart)
			r.Post("/cart/items", h.addItem)
			r.Patch("/cart/items/{itemID}", h.updateItem)
			r.Delete("/cart/items/{itemID}", h.removeItem)
			r.Post("/cart/coupon", h.applyCoupon)
			r.Post("/cart/submit", h.submitCart)

			r.Post("/orders/{id}/payments", h.recordPayment)
			r.Post("/orders/{id}/checkout", h.checkout)
			r.Post("/orders/{id}/cancel", h.cancelOwn)
			r.Post("/orders/{id}/items/{itemID}/review", h.review)
		})

		r.Route("/seller", func(r chi.Router) {
			r.Use(requireRole(h.Sessions, orders.RoleSeller))
			r.Post("/products", h.createProduct)
			r.Patch("/products/{id}", h.updateProduct)
			r.Post("/products/{id}/restock", h.restock)
			r.Post("/orders/{id}/ship", h.ship)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireRole(h.Sessions, orders.RoleAdmin))
			r.Post("/categories", h.createCategory)
			r.Patch("/categories/{id}", h.updateCategory)
			r.Delete("/categories/{id}", h.deleteCategory)
			r.Post("/coupons", h.saveCoupon)
			r.Get("/users", h.listUsers)
			r.Patch("/users/{id}", h.updateUser)
			r.Delete("/users/{id}", h.deleteUser)
			r.Post("/orders/{id}/deliver", h.deliver)
			r.Post("/orders/{id}/cancel", h.cancelAny)
		})
	})
}

// canView reports whether p may read o; everyone else gets ErrOrderNotFound.
func canView(p principal, o orders.Order) bool {
	switch p.Role {
	case orders.RoleAdmin:
		return true
	case orders.RoleSeller:
		return o.SellerID == p.ID
	}
	return o.CustomerID == p.ID
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := principalFrom(ctx)
	orderID := chi.URLParam(r, "id")

	// 1) cache
	if h.Status != nil {
		if b, ok := h.Status.Get(ctx, orderID); ok {
			var cached orders.Order
			if err := json.Unmarshal(b, &cached); err == nil {
				if !canView(p, cached) {
					writeError(w, r, orders.ErrOrderNotFound)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Cache", "hit")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write(b)
				return
			}
		}
	}

	// 2) database
	o, err := h.Cart.Get(ctx, orderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !canView(p, o) {
		writeError(w, r, orders.ErrOrderNotFound)
		return
	}
	b, err := json.Marshal(o)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if h.Status != nil {
		if err := h.Status.Set(ctx, orderID, b); err != nil {
			logging.FromContext(ctx).Warn("status_cache_set_failed", zap.String("order_id", orderID), zap.Error(err))
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	f := orders.OrderFilter{Status: orders.Status(r.URL.Query().Get("status"))}
	if f.Status != "" && !f.Status.Valid() {
		writeError(w, r, orders.ErrInvalidInput)
		return
	}
	switch p.Role {
	case orders.RoleCustomer:
		f.CustomerID = p.ID
	case orders.RoleSeller:
		f.SellerID = p.ID
	}
	out, err := h.Cart.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type checkoutReq struct {
	Payment *checkout.PaymentInput `json:"payment"`
}

// checkout settles a pending order. A repeated Idempotency-Key replays the stored
// response instead of running the orchestrator again.
func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "id")
	var req checkoutReq
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.ownOrder(ctx, orderID); err != nil {
		writeError(w, r, err)
		return
	}

	key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	claimed := false
	if key != "" && h.Idem != nil {
		ok, stored, err := h.Idem.Claim(ctx, orderID, key)
		switch {
		case err != nil:
			// redis is a shortcut; the order status still guards against double settlement.
			logging.FromContext(ctx).Warn("idempotency_claim_failed", zap.String("order_id", orderID), zap.Error(err))
		case !ok && stored == nil:
			writeJSON(w, http.StatusConflict, errorBody{Error: "a request with this Idempotency-Key is in progress", Kind: "conflict"})
			return
		case !ok:
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Idempotent-Replayed", "true")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(stored)
			return
		default:
			claimed = true
		}
	}

	res, err := h.Checkout.Checkout(ctx, checkout.CheckoutInput{OrderID: orderID, Payment: req.Payment})
	if err != nil {
		if claimed {
			if rerr := h.Idem.Release(ctx, orderID, key); rerr != nil {
				logging.FromContext(ctx).Warn("idempotency_release_failed", zap.String("order_id", orderID), zap.Error(rerr))
			}
		}
		writeError(w, r, err)
		return
	}
	h.invalidate(ctx, orderID)

	b, err := json.Marshal(res)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if claimed {
		if err := h.Idem.Complete(ctx, orderID, key, b); err != nil {
			logging.FromContext(ctx).Warn("idempotency_complete_failed", zap.String("order_id", orderID), zap.Error(err))
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	var in checkout.PaymentInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.ownOrder(r.Context(), orderID); err != nil {
		writeError(w, r, err)
		return
	}
	pay, err := h.Checkout.RecordPayment(r.Context(), orderID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, pay)
}

type cancelReq struct {
	Reason string `json:"reason"`
}

func (h *Handler) cancelOwn(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if _, err := h.ownOrder(r.Context(), orderID); err != nil {
		writeError(w, r, err)
		return
	}
	h.cancel(w, r, orderID, "canceled by customer")
}

func (h *Handler) cancelAny(w http.ResponseWriter, r *http.Request) {
	h.cancel(w, r, chi.URLParam(r, "id"), "canceled by admin")
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request, orderID, defaultReason string) {
	var req cancelReq
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Reason == "" {
		req.Reason = defaultReason
	}
	o, err := h.Checkout.Cancel(r.Context(), orderID, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.invalidate(r.Context(), orderID)
	writeJSON(w, http.StatusOK, o)
}

type shipReq struct {
	TrackingNumber string `json:"tracking_number"`
}

func (h *Handler) ship(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "id")
	var req shipReq
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.Cart.Get(ctx, orderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if o.SellerID != principalFrom(ctx).ID {
		writeError(w, r, orders.ErrOrderNotFound)
		return
	}
	sh, err := h.Checkout.Ship(ctx, orderID, req.TrackingNumber)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.invalidate(ctx, orderID)
	writeJSON(w, http.StatusOK, sh)
}

func (h *Handler) deliver(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	sh, err := h.Checkout.Deliver(r.Context(), orderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.invalidate(r.Context(), orderID)
	writeJSON(w, http.StatusOK, sh)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request) {
	var in catalog.ReviewInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	rv, err := h.Catalog.Review(r.Context(), principalFrom(r.Context()).ID, chi.URLParam(r, "id"), chi.URLParam(r, "itemID"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rv)
}

// ownOrder loads an order of the calling customer.
func (h *Handler) ownOrder(ctx context.Context, orderID string) (orders.Order, error) {
	o, err := h.Cart.Get(ctx, orderID)
	if err != nil {
		return orders.Order{}, err
	}
	if o.CustomerID != principalFrom(ctx).ID {
		return orders.Order{}, orders.ErrOrderNotFound
	}
	return o, nil
}

func (h *Handler) invalidate(ctx context.Context, orderID string) {
	if h.Status == nil {
		return
	}
	if err := h.Status.Invalidate(ctx, orderID); err != nil {
		logging.FromContext(ctx).Warn("status_cache_invalidate_failed", zap.String("order_id", orderID), zap.Error(err))
	}
}
