package httpx

import (
	"net/http"
	"time"

	"github.com/ariefcatur/go-shop-orders/internal/catalog"
	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ps, err := h.Catalog.Products(r.Context(), orders.ProductFilter{
		SellerID:   q.Get("seller_id"),
		CategoryID: q.Get("category_id"),
		OnlyActive: true,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.Catalog.Product(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) listReviews(w http.ResponseWriter, r *http.Request) {
	rs, err := h.Catalog.Reviews(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	cs, err := h.Catalog.Categories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var in catalog.ProductInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.Catalog.CreateProduct(r.Context(), principalFrom(r.Context()).ID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var patch catalog.ProductPatch
	if err := decode(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.Catalog.UpdateProduct(r.Context(), principalFrom(r.Context()).ID, chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type stockResp struct {
	ProductID string `json:"product_id"`
	Stock     int    `json:"stock"`
}

func (h *Handler) restock(w http.ResponseWriter, r *http.Request) {
	var req quantityReq
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	productID := chi.URLParam(r, "id")
	stock, err := h.Catalog.Restock(r.Context(), principalFrom(r.Context()).ID, productID, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stockResp{ProductID: productID, Stock: stock})
}

type categoryReq struct {
	Name string `json:"name"`
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryReq
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.Catalog.CreateCategory(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryReq
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.Catalog.UpdateCategory(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listWishlist(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Catalog.Wishlist(r.Context(), principalFrom(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

type wishlistReq struct {
	ProductID string `json:"product_id"`
}

func (h *Handler) addWishlist(w http.ResponseWriter, r *http.Request) {
	var req wishlistReq
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.Catalog.AddToWishlist(r.Context(), principalFrom(r.Context()).ID, req.ProductID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) removeWishlist(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.RemoveFromWishlist(r.Context(), principalFrom(r.Context()).ID, chi.URLParam(r, "productID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type saveCouponReq struct {
	Code            string    `json:"code"`
	DiscountPercent int       `json:"discount_percent"`
	Active          *bool     `json:"active"`
	ExpiresAt       time.Time `json:"expires_at"`
}

func (h *Handler) saveCoupon(w http.ResponseWriter, r *http.Request) {
	var req saveCouponReq
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c := orders.Coupon{Code: req.Code, DiscountPercent: req.DiscountPercent, Active: true, ExpiresAt: req.ExpiresAt}
	if req.Active != nil {
		c.Active = *req.Active
	}
	saved, err := h.Catalog.SaveCoupon(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}
