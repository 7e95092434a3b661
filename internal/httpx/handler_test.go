package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/go-shop-orders/internal/accounts"
	"github.com/ariefcatur/go-shop-orders/internal/cart"
	"github.com/ariefcatur/go-shop-orders/internal/catalog"
	"github.com/ariefcatur/go-shop-orders/internal/checkout"
	"github.com/ariefcatur/go-shop-orders/internal/inventory"
	"github.com/ariefcatur/go-shop-orders/internal/metrics"
	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"github.com/ariefcatur/go-shop-orders/internal/shoptest"
	"github.com/ariefcatur/go-shop-orders/internal/sqlstore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memIdem struct {
	mu sync.Mutex
	m  map[string][]byte
}

func (i *memIdem) Claim(_ context.Context, orderID, key string) (bool, []byte, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	k := orderID + ":" + key
	if v, ok := i.m[k]; ok {
		return false, v, nil
	}
	i.m[k] = nil
	return true, nil, nil
}

func (i *memIdem) Complete(_ context.Context, orderID, key string, resp []byte) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.m[orderID+":"+key] = resp
	return nil
}

func (i *memIdem) Release(_ context.Context, orderID, key string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.m, orderID+":"+key)
	return nil
}

type memCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func (c *memCache) Get(_ context.Context, id string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.m[id]
	return b, ok
}

func (c *memCache) Set(_ context.Context, id string, doc []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[id] = doc
	return nil
}

func (c *memCache) Invalidate(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, id)
	return nil
}

type env struct {
	srv     *httptest.Server
	db      *sqlstore.DB
	h       *Handler
	metrics *metrics.ServerMetrics
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := shoptest.NewStore(t)
	ledger := inventory.NewLedger(db)
	accts := accounts.NewService(db)
	accts.Cost = bcrypt.MinCost
	h := &Handler{
		Accounts: accts,
		Catalog:  catalog.NewService(db, ledger),
		Cart:     cart.NewService(db, "test"),
		Checkout: checkout.New(db, ledger, nil, "test"),
		Store:    db,
		Sessions: NewSessions(time.Hour),
		Idem:     &memIdem{m: map[string][]byte{}},
		Status:   &memCache{m: map[string][]byte{}},
	}
	reg := prometheus.NewRegistry()
	sm := metrics.NewServerMetrics(reg)
	r := NewRouter(nil, sm, metrics.HandlerFor(reg))
	h.Register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &env{srv: srv, db: db, h: h, metrics: sm}
}

type client struct {
	t    *testing.T
	base string
	c    *http.Client
}

func (e *env) client(t *testing.T) *client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, base: e.srv.URL, c: &http.Client{Jar: jar}}
}

type response struct {
	code   int
	header http.Header
	body   []byte
}

func (r response) decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.body, v), string(r.body))
}

func (r response) kind(t *testing.T) string {
	t.Helper()
	var e errorBody
	r.decode(t, &e)
	return e.Kind
}

func (c *client) do(method, path string, body any, headers ...string) response {
	c.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, rd)
	require.NoError(c.t, err)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := c.c.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return response{code: resp.StatusCode, header: resp.Header, body: b}
}

// signUp registers and logs in a user through the API.
func (e *env) signUp(t *testing.T, email string, role orders.Role) (*client, orders.User) {
	t.Helper()
	c := e.client(t)
	res := c.do(http.MethodPost, "/auth/register", map[string]any{"email": email, "name": "user", "password": "secret1", "role": role})
	require.Equal(t, http.StatusCreated, res.code, string(res.body))
	res = c.do(http.MethodPost, "/auth/login", map[string]any{"email": email, "password": "secret1"})
	require.Equal(t, http.StatusOK, res.code, string(res.body))
	var u orders.User
	res.decode(t, &u)
	return c, u
}

func (e *env) admin(t *testing.T) *client {
	t.Helper()
	_, err := e.h.Accounts.Register(context.Background(), accounts.RegisterInput{
		Email: "admin@example.com", Name: "admin", Password: "secret1", Role: orders.RoleAdmin,
	})
	require.NoError(t, err)
	c := e.client(t)
	res := c.do(http.MethodPost, "/auth/login", map[string]any{"email": "admin@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, res.code)
	return c
}

// pendingOrder walks a customer through address, cart and submit for qty units of a
// fresh product priced 20 with the given stock.
func (e *env) pendingOrder(t *testing.T, customer, seller *client, stock, qty int) (orders.Order, orders.Product) {
	t.Helper()
	res := seller.do(http.MethodPost, "/seller/products", map[string]any{"name": "Mug", "price": "20.00", "stock": stock})
	require.Equal(t, http.StatusCreated, res.code, string(res.body))
	var p orders.Product
	res.decode(t, &p)

	res = customer.do(http.MethodPost, "/addresses", map[string]any{"line": "1 Main St", "city": "Springfield", "country": "US"})
	require.Equal(t, http.StatusCreated, res.code, string(res.body))

	res = customer.do(http.MethodPost, "/cart/items", map[string]any{"product_id": p.ID, "quantity": qty})
	require.Equal(t, http.StatusCreated, res.code, string(res.body))

	res = customer.do(http.MethodPost, "/cart/submit", nil)
	require.Equal(t, http.StatusOK, res.code, string(res.body))
	var o orders.Order
	res.decode(t, &o)
	require.Equal(t, orders.StatusPending, o.Status)
	return o, p
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	e := newEnv(t)
	customer, _ := e.signUp(t, "buyer@example.com", orders.RoleCustomer)
	seller, _ := e.signUp(t, "maker@example.com", orders.RoleSeller)
	admin := e.admin(t)

	o, p := e.pendingOrder(t, customer, seller, 5, 2)
	assert.True(t, o.Total.Equal(decimal.NewFromInt(40)))

	pay := map[string]any{"payment": map[string]any{"amount": "40", "method": "card"}}
	res := customer.do(http.MethodPost, "/orders/"+o.ID+"/checkout", pay, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusOK, res.code, string(res.body))
	var settled checkout.Result
	res.decode(t, &settled)
	assert.Equal(t, orders.StatusPaid, settled.Order.Status)
	assert.Equal(t, 3, shoptest.Stock(t, e.db, p.ID))

	replay := customer.do(http.MethodPost, "/orders/"+o.ID+"/checkout", pay, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusOK, replay.code)
	assert.Equal(t, "true", replay.header.Get("Idempotent-Replayed"))
	assert.JSONEq(t, string(res.body), string(replay.body))
	assert.Len(t, shoptest.Payments(t, e.db, o.ID), 1)

	res = customer.do(http.MethodPost, "/orders/"+o.ID+"/checkout", nil)
	assert.Equal(t, http.StatusConflict, res.code)
	assert.Equal(t, "invalid_state", res.kind(t))

	res = customer.do(http.MethodGet, "/orders/"+o.ID, nil)
	require.Equal(t, http.StatusOK, res.code)
	assert.Empty(t, res.header.Get("X-Cache"))
	res = customer.do(http.MethodGet, "/orders/"+o.ID, nil)
	assert.Equal(t, "hit", res.header.Get("X-Cache"))

	res = seller.do(http.MethodPost, "/seller/orders/"+o.ID+"/ship", map[string]any{"tracking_number": "TRK-CUSTOM"})
	require.Equal(t, http.StatusOK, res.code, string(res.body))
	var sh orders.Shipment
	res.decode(t, &sh)
	assert.Equal(t, orders.ShipmentInTransit, sh.Status)
	assert.Equal(t, "TRK-CUSTOM", sh.TrackingNumber)

	// shipping dropped the cached document.
	res = customer.do(http.MethodGet, "/orders/"+o.ID, nil)
	assert.Empty(t, res.header.Get("X-Cache"))
	var shipped orders.Order
	res.decode(t, &shipped)
	assert.Equal(t, orders.StatusShipped, shipped.Status)

	res = admin.do(http.MethodPost, "/admin/orders/"+o.ID+"/deliver", nil)
	require.Equal(t, http.StatusOK, res.code, string(res.body))

	res = customer.do(http.MethodPost, "/orders/"+o.ID+"/items/"+shipped.Items[0].ID+"/review", map[string]any{"rating": 5, "comment": "great"})
	require.Equal(t, http.StatusCreated, res.code, string(res.body))
	res = customer.do(http.MethodGet, "/products/"+p.ID+"/reviews", nil)
	var reviews []orders.Review
	res.decode(t, &reviews)
	assert.Len(t, reviews, 1)

	res = seller.do(http.MethodGet, "/orders", nil)
	var sellerOrders []orders.Order
	res.decode(t, &sellerOrders)
	require.Len(t, sellerOrders, 1)
	assert.Equal(t, o.ID, sellerOrders[0].ID)
}

func TestCheckoutErrorsCarryKindAndData(t *testing.T) {
	e := newEnv(t)
	customer, _ := e.signUp(t, "buyer@example.com", orders.RoleCustomer)
	seller, _ := e.signUp(t, "maker@example.com", orders.RoleSeller)
	o, p := e.pendingOrder(t, customer, seller, 2, 2)

	res := customer.do(http.MethodPost, "/orders/"+o.ID+"/checkout", nil, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusPaymentRequired, res.code)
	var body struct {
		Kind string                        `json:"kind"`
		Data orders.PaymentIncompleteError `json:"data"`
	}
	res.decode(t, &body)
	assert.Equal(t, "payment_incomplete", body.Kind)
	assert.True(t, body.Data.Required.Equal(decimal.NewFromInt(40)))

	// stock disappears between submit and checkout.
	require.NoError(t, e.db.InTx(context.Background(), func(ctx context.Context, tx orders.Tx) error {
		return tx.AddStock(ctx, p.ID, -1)
	}))
	// the failed attempt released the key, so it can be reused.
	pay := map[string]any{"payment": map[string]any{"amount": "40"}}
	res = customer.do(http.MethodPost, "/orders/"+o.ID+"/checkout", pay, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusConflict, res.code)
	var short struct {
		Kind string                         `json:"kind"`
		Data orders.InsufficientStockError `json:"data"`
	}
	res.decode(t, &short)
	assert.Equal(t, "insufficient_stock", short.Kind)
	assert.Equal(t, orders.InsufficientStockError{ProductID: p.ID, Available: 1, Required: 2}, short.Data)
	assert.Empty(t, shoptest.Payments(t, e.db, o.ID))
}

func TestCustomerCancel(t *testing.T) {
	e := newEnv(t)
	customer, _ := e.signUp(t, "buyer@example.com", orders.RoleCustomer)
	seller, _ := e.signUp(t, "maker@example.com", orders.RoleSeller)
	o, _ := e.pendingOrder(t, customer, seller, 5, 1)

	other, _ := e.signUp(t, "other@example.com", orders.RoleCustomer)
	res := other.do(http.MethodPost, "/orders/"+o.ID+"/cancel", nil)
	assert.Equal(t, http.StatusNotFound, res.code)
	res = other.do(http.MethodGet, "/orders/"+o.ID, nil)
	assert.Equal(t, http.StatusNotFound, res.code)

	res = customer.do(http.MethodPost, "/orders/"+o.ID+"/cancel", map[string]any{"reason": "too slow"})
	require.Equal(t, http.StatusOK, res.code, string(res.body))
	var canceled orders.Order
	res.decode(t, &canceled)
	assert.Equal(t, orders.StatusCanceled, canceled.Status)
	assert.Contains(t, canceled.Notes, "Canceled: too slow")
}

func TestCartEndpoints(t *testing.T) {
	e := newEnv(t)
	customer, _ := e.signUp(t, "buyer@example.com", orders.RoleCustomer)
	seller, _ := e.signUp(t, "maker@example.com", orders.RoleSeller)

	res := customer.do(http.MethodGet, "/cart", nil)
	assert.Equal(t, http.StatusNotFound, res.code)

	res = seller.do(http.MethodPost, "/seller/products", map[string]any{"name": "Cup", "price": "3.50", "stock": 10})
	var p orders.Product
	res.decode(t, &p)

	res = customer.do(http.MethodPost, "/cart/items", map[string]any{"product_id": p.ID, "quantity": 1})
	assert.Equal(t, http.StatusBadRequest, res.code)
	assert.Equal(t, "address_required", res.kind(t))

	customer.do(http.MethodPost, "/addresses", map[string]any{"line": "1 Main St", "city": "Springfield", "country": "US"})
	res = customer.do(http.MethodPost, "/cart/items", map[string]any{"product_id": p.ID, "quantity": 2})
	require.Equal(t, http.StatusCreated, res.code, string(res.body))
	var added cart.AddResult
	res.decode(t, &added)

	res = customer.do(http.MethodPatch, "/cart/items/"+added.Item.ID, map[string]any{"quantity": 4})
	require.Equal(t, http.StatusOK, res.code, string(res.body))
	var o orders.Order
	res.decode(t, &o)
	assert.True(t, o.Total.Equal(shoptest.Money("14")))

	res = customer.do(http.MethodPatch, "/cart/items/"+added.Item.ID, map[string]any{"quantity": 0})
	assert.Equal(t, "invalid_quantity", res.kind(t))

	res = customer.do(http.MethodPost, "/cart/coupon", map[string]any{"code": "NOPE"})
	assert.Equal(t, "invalid_coupon", res.kind(t))

	res = customer.do(http.MethodDelete, "/cart/items/"+added.Item.ID, nil)
	require.Equal(t, http.StatusOK, res.code)
	res.decode(t, &o)
	assert.True(t, o.Total.IsZero())

	res = customer.do(http.MethodPost, "/cart/submit", nil)
	assert.Equal(t, http.StatusConflict, res.code)
	assert.Equal(t, "empty_cart", res.kind(t))
}

func TestAuthAndRoles(t *testing.T) {
	e := newEnv(t)
	anon := e.client(t)

	res := anon.do(http.MethodGet, "/cart", nil)
	assert.Equal(t, http.StatusUnauthorized, res.code)
	assert.Equal(t, "unauthenticated", res.kind(t))

	res = anon.do(http.MethodPost, "/auth/register", map[string]any{"email": "x@example.com", "name": "x", "password": "secret1", "role": "admin"})
	assert.Equal(t, http.StatusForbidden, res.code)

	res = anon.do(http.MethodPost, "/auth/login", map[string]any{"email": "nobody@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusUnauthorized, res.code)
	assert.Equal(t, "invalid_credentials", res.kind(t))

	customer, _ := e.signUp(t, "buyer@example.com", orders.RoleCustomer)
	res = customer.do(http.MethodPost, "/seller/products", map[string]any{"name": "Mug", "price": "1"})
	assert.Equal(t, http.StatusForbidden, res.code)
	res = customer.do(http.MethodPost, "/admin/categories", map[string]any{"name": "Kitchen"})
	assert.Equal(t, http.StatusForbidden, res.code)

	res = customer.do(http.MethodPost, "/auth/logout", nil)
	assert.Equal(t, http.StatusNoContent, res.code)
	res = customer.do(http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, res.code)

	res = anon.do(http.MethodPost, "/auth/register", map[string]any{"email": "bad", "name": "x", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, res.code)
	assert.Equal(t, "invalid_input", res.kind(t))
}

func TestAdminCatalogEndpoints(t *testing.T) {
	e := newEnv(t)
	admin := e.admin(t)

	res := admin.do(http.MethodPost, "/admin/categories", map[string]any{"name": "Kitchen"})
	require.Equal(t, http.StatusCreated, res.code, string(res.body))
	res = admin.do(http.MethodPost, "/admin/coupons", map[string]any{"code": "ten", "discount_percent": 10, "expires_at": "2999-01-01T00:00:00Z"})
	require.Equal(t, http.StatusCreated, res.code, string(res.body))
	var c orders.Coupon
	res.decode(t, &c)
	assert.Equal(t, "TEN", c.Code)
	assert.True(t, c.Active)

	res = admin.do(http.MethodGet, "/categories", nil)
	var cats []orders.Category
	res.decode(t, &cats)
	assert.Len(t, cats, 1)
}

func TestAdminUserAndCategoryManagement(t *testing.T) {
	e := newEnv(t)
	admin := e.admin(t)
	customer, cu := e.signUp(t, "buyer@example.com", orders.RoleCustomer)
	_, idle := e.signUp(t, "idle@example.com", orders.RoleCustomer)
	seller, _ := e.signUp(t, "seller@example.com", orders.RoleSeller)
	e.pendingOrder(t, customer, seller, 5, 1)

	res := customer.do(http.MethodGet, "/admin/users", nil)
	assert.Equal(t, http.StatusForbidden, res.code)

	res = admin.do(http.MethodGet, "/admin/users?role=customer", nil)
	require.Equal(t, http.StatusOK, res.code, string(res.body))
	var us []orders.User
	res.decode(t, &us)
	assert.Len(t, us, 2)
	res = admin.do(http.MethodGet, "/admin/users?role=root", nil)
	assert.Equal(t, http.StatusBadRequest, res.code)

	res = admin.do(http.MethodPatch, "/admin/users/"+idle.ID, map[string]any{"name": "Idle Ida"})
	require.Equal(t, http.StatusOK, res.code, string(res.body))
	var edited orders.User
	res.decode(t, &edited)
	assert.Equal(t, "Idle Ida", edited.Name)
	res = admin.do(http.MethodPatch, "/admin/users/"+idle.ID, map[string]any{"email": "buyer@example.com"})
	assert.Equal(t, http.StatusConflict, res.code)
	assert.Equal(t, "email_taken", res.kind(t))

	res = admin.do(http.MethodDelete, "/admin/users/"+cu.ID, nil)
	assert.Equal(t, http.StatusConflict, res.code)
	assert.Equal(t, "in_use", res.kind(t))
	res = admin.do(http.MethodDelete, "/admin/users/"+idle.ID, nil)
	assert.Equal(t, http.StatusNoContent, res.code)
	res = admin.do(http.MethodDelete, "/admin/users/"+idle.ID, nil)
	assert.Equal(t, http.StatusNotFound, res.code)

	res = admin.do(http.MethodPost, "/admin/categories", map[string]any{"name": "Kitchen"})
	require.Equal(t, http.StatusCreated, res.code, string(res.body))
	var cat orders.Category
	res.decode(t, &cat)
	res = admin.do(http.MethodPatch, "/admin/categories/"+cat.ID, map[string]any{"name": "Home"})
	require.Equal(t, http.StatusOK, res.code, string(res.body))
	res.decode(t, &cat)
	assert.Equal(t, "Home", cat.Name)
	res = admin.do(http.MethodDelete, "/admin/categories/"+cat.ID, nil)
	assert.Equal(t, http.StatusNoContent, res.code)
}

func TestWishlistAndAddressEndpoints(t *testing.T) {
	e := newEnv(t)
	customer, _ := e.signUp(t, "buyer@example.com", orders.RoleCustomer)
	seller, _ := e.signUp(t, "seller@example.com", orders.RoleSeller)

	res := seller.do(http.MethodPost, "/seller/products", map[string]any{"name": "Lamp", "price": "12.00", "stock": 2})
	require.Equal(t, http.StatusCreated, res.code, string(res.body))
	var p orders.Product
	res.decode(t, &p)

	res = customer.do(http.MethodPost, "/wishlist", map[string]any{"product_id": p.ID})
	require.Equal(t, http.StatusCreated, res.code, string(res.body))
	res = customer.do(http.MethodPost, "/wishlist", map[string]any{"product_id": p.ID})
	assert.Equal(t, http.StatusConflict, res.code)
	assert.Equal(t, "already_in_wishlist", res.kind(t))

	res = customer.do(http.MethodGet, "/wishlist", nil)
	var saved []orders.Product
	res.decode(t, &saved)
	require.Len(t, saved, 1)
	assert.Equal(t, p.ID, saved[0].ID)

	res = customer.do(http.MethodDelete, "/wishlist/"+p.ID, nil)
	assert.Equal(t, http.StatusNoContent, res.code)
	res = customer.do(http.MethodDelete, "/wishlist/"+p.ID, nil)
	assert.Equal(t, http.StatusNotFound, res.code)

	res = customer.do(http.MethodPost, "/addresses", map[string]any{"line": "1 Main St", "city": "Springfield", "country": "US"})
	require.Equal(t, http.StatusCreated, res.code, string(res.body))
	var a orders.Address
	res.decode(t, &a)

	res = customer.do(http.MethodPut, "/addresses/"+a.ID, map[string]any{"line": "2 Elm St", "city": "Shelbyville", "country": "US"})
	require.Equal(t, http.StatusOK, res.code, string(res.body))
	res = customer.do(http.MethodGet, "/addresses", nil)
	var list []orders.Address
	res.decode(t, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "2 Elm St", list[0].Line)

	res = seller.do(http.MethodDelete, "/addresses/"+a.ID, nil)
	assert.Equal(t, http.StatusForbidden, res.code)
	res = customer.do(http.MethodDelete, "/addresses/"+a.ID, nil)
	assert.Equal(t, http.StatusNoContent, res.code)
}

func TestHealthAndMetrics(t *testing.T) {
	e := newEnv(t)
	c := e.client(t)

	res := c.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, "ok", string(res.body))
	// the counter is bumped after the body is flushed to the client.
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(e.metrics.Requests.WithLabelValues("GET /healthz", "200")) == 1
	}, time.Second, 5*time.Millisecond)

	res = c.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, res.code)
	assert.Contains(t, string(res.body), "shop_http_requests_total")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&orders.InsufficientStockError{}, http.StatusConflict},
		{&orders.InvalidStateError{}, http.StatusConflict},
		{&orders.PaymentIncompleteError{}, http.StatusPaymentRequired},
		{orders.ErrOrderNotFound, http.StatusNotFound},
		{orders.ErrInvalidQuantity, http.StatusBadRequest},
		{orders.ErrForbidden, http.StatusForbidden},
		{orders.ErrInUse, http.StatusConflict},
		{orders.ErrAlreadyWishlisted, http.StatusConflict},
		{errUnauthenticated, http.StatusUnauthorized},
		{&orders.TransactionAbortedError{Op: "checkout", Err: io.ErrUnexpectedEOF}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
