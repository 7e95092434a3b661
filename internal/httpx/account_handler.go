package httpx

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ariefcatur/go-shop-orders/internal/accounts"
	"github.com/ariefcatur/go-shop-orders/internal/notify"
	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	u, err := h.Accounts.User(r.Context(), principalFrom(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) addAddress(w http.ResponseWriter, r *http.Request) {
	var a orders.Address
	if err := decode(r, &a); err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := h.Accounts.AddAddress(r.Context(), principalFrom(r.Context()).ID, a)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (h *Handler) listAddresses(w http.ResponseWriter, r *http.Request) {
	as, err := h.Accounts.Addresses(r.Context(), principalFrom(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, as)
}

func (h *Handler) updateAddress(w http.ResponseWriter, r *http.Request) {
	var a orders.Address
	if err := decode(r, &a); err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := h.Accounts.UpdateAddress(r.Context(), principalFrom(r.Context()).ID, chi.URLParam(r, "id"), a)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *Handler) deleteAddress(w http.ResponseWriter, r *http.Request) {
	if err := h.Accounts.DeleteAddress(r.Context(), principalFrom(r.Context()).ID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listUsers is the admin user console; ?role narrows it to one role.
func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	us, err := h.Accounts.Users(r.Context(), orders.Role(r.URL.Query().Get("role")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, us)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	var patch accounts.UserPatch
	if err := decode(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.Accounts.UpdateUser(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.Accounts.DeleteUser(r.Context(), principalFrom(r.Context()).ID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// notifications lists the caller's notifications, optionally only those at or after
// ?since (RFC 3339).
func (h *Handler) notifications(w http.ResponseWriter, r *http.Request) {
	var since time.Time
	if s := r.URL.Query().Get("since"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: since", orders.ErrInvalidInput))
			return
		}
		since = t
	}
	ns, err := notify.Inbox(r.Context(), h.Store, principalFrom(r.Context()).ID, since)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ns)
}
