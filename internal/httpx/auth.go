package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/ariefcatur/go-shop-orders/internal/accounts"
	"github.com/ariefcatur/go-shop-orders/internal/logging"
	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"go.uber.org/zap"
)

const (
	sessionUserID = "user_id"
	sessionRole   = "role"
)

// NewSessions returns an in-memory session manager with the given idle lifetime.
func NewSessions(lifetime time.Duration) *scs.SessionManager {
	sm := scs.New()
	sm.Lifetime = lifetime
	sm.Cookie.Name = "shop_session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	return sm
}

type principal struct {
	ID   string
	Role orders.Role
}

type principalKey struct{}

func principalFrom(ctx context.Context) principal {
	p, _ := ctx.Value(principalKey{}).(principal)
	return p
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var in accounts.RegisterInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	// admins are created with shopctl only.
	if in.Role == orders.RoleAdmin {
		writeError(w, r, orders.ErrForbidden)
		return
	}
	u, err := h.Accounts.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.Accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Sessions.RenewToken(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	h.Sessions.Put(r.Context(), sessionUserID, u.ID)
	h.Sessions.Put(r.Context(), sessionRole, string(u.Role))
	logging.FromContext(r.Context()).Info("user_logged_in", zap.String("user_id", u.ID))
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Destroy(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requireRole rejects requests without a session, or whose role is not listed.
// With no roles any logged-in user passes.
func requireRole(sm *scs.SessionManager, roles ...orders.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := principal{
				ID:   sm.GetString(r.Context(), sessionUserID),
				Role: orders.Role(sm.GetString(r.Context(), sessionRole)),
			}
			if p.ID == "" {
				writeError(w, r, errUnauthenticated)
				return
			}
			if len(roles) > 0 && !hasRole(p.Role, roles) {
				writeError(w, r, orders.ErrForbidden)
				return
			}
			ctx := context.WithValue(r.Context(), principalKey{}, p)
			ctx = logging.With(ctx, zap.String("user_id", p.ID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func hasRole(role orders.Role, roles []orders.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
