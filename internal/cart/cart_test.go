// AngelaMos | 2026
// cart_test.go

package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/carterperez-dev/storefront-api/internal/core"
	"github.com/carterperez-dev/storefront-api/internal/middleware"
	"github.com/carterperez-dev/storefront-api/internal/order"
	"github.com/carterperez-dev/storefront-api/internal/product"
)

// memStore holds committed state. WithinTx keeps mu for the whole
// transaction, which stands in for the cart row lock.
type memStore struct {
	mu         sync.Mutex
	carts      map[string]*Cart
	products   map[string]*product.Product
	orders     []*order.Order
	failOrders bool
}

func newMemStore() *memStore {
	return &memStore{
		carts:    make(map[string]*Cart),
		products: make(map[string]*product.Product),
	}
}

func (s *memStore) addProduct(name, price string) *product.Product {
	p := &product.Product{
		ID:       uuid.New().String(),
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Image:    product.DefaultImage,
		Category: "test",
	}
	s.products[p.ID] = p
	return p
}

func (s *memStore) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("get product: %w", core.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *memStore) view() *txView {
	return &txView{s: s, staged: make(map[string]*Cart)}
}

func (s *memStore) Get(ctx context.Context, userID string) (*Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().Get(ctx, userID)
}

func (s *memStore) GetForUpdate(ctx context.Context, userID string) (*Cart, error) {
	return s.Get(ctx, userID)
}

func (s *memStore) GetOrCreateForUpdate(ctx context.Context, userID string) (*Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.view()
	c, err := v.GetOrCreateForUpdate(ctx, userID)
	if err == nil {
		v.commit()
	}
	return c, err
}

func (s *memStore) SaveItems(ctx context.Context, c *Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.view()
	err := v.SaveItems(ctx, c)
	if err == nil {
		v.commit()
	}
	return err
}

func (s *memStore) WithinTx(
	_ context.Context,
	fn func(carts Repository, orders OrderWriter) error,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.view()
	if err := fn(v, v); err != nil {
		return err
	}
	v.commit()
	return nil
}

type txView struct {
	s      *memStore
	staged map[string]*Cart
	orders []*order.Order
}

func cloneCart(c *Cart) *Cart {
	cp := *c
	cp.Items = make([]Item, len(c.Items))
	copy(cp.Items, c.Items)
	return &cp
}

func (v *txView) current(userID string) (*Cart, bool) {
	if c, ok := v.staged[userID]; ok {
		return c, true
	}
	c, ok := v.s.carts[userID]
	return c, ok
}

func (v *txView) Get(_ context.Context, userID string) (*Cart, error) {
	c, ok := v.current(userID)
	if !ok {
		return nil, fmt.Errorf("get cart: %w", core.ErrNotFound)
	}

	out := cloneCart(c)
	for i := range out.Items {
		if p, ok := v.s.products[out.Items[i].ProductID]; ok {
			pc := *p
			out.Items[i].Product = &pc
		}
	}
	return out, nil
}

func (v *txView) GetForUpdate(ctx context.Context, userID string) (*Cart, error) {
	return v.Get(ctx, userID)
}

func (v *txView) GetOrCreateForUpdate(ctx context.Context, userID string) (*Cart, error) {
	if _, ok := v.current(userID); !ok {
		now := time.Now()
		v.staged[userID] = &Cart{
			ID:        uuid.New().String(),
			UserID:    userID,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	return v.Get(ctx, userID)
}

func (v *txView) SaveItems(_ context.Context, c *Cart) error {
	stored := cloneCart(c)
	for i := range stored.Items {
		stored.Items[i].Product = nil
	}
	stored.UpdatedAt = time.Now()
	c.UpdatedAt = stored.UpdatedAt
	v.staged[c.UserID] = stored
	return nil
}

func (v *txView) Create(_ context.Context, o *order.Order) error {
	if v.s.failOrders {
		return errors.New("insert order: connection reset")
	}
	o.CreatedAt = time.Now()
	v.orders = append(v.orders, o)
	return nil
}

func (v *txView) commit() {
	for userID, c := range v.staged {
		v.s.carts[userID] = c
	}
	v.s.orders = append(v.s.orders, v.orders...)
}

func newTestService(t *testing.T) (*Service, *memStore) {
	t.Helper()
	store := newMemStore()
	return NewService(store, store, store, nil, nil), store
}

const userID = "11111111-1111-1111-1111-111111111111"

func TestAddItemMergesQuantity(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	book := store.addProduct("Book", "10")
	pen := store.addProduct("Pen", "5")

	_, err := svc.AddItem(ctx, userID, book.ID, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, userID, pen.ID, 1)
	require.NoError(t, err)
	c, err := svc.AddItem(ctx, userID, book.ID, 3)
	require.NoError(t, err)

	require.Len(t, c.Items, 2)
	assert.Equal(t, book.ID, c.Items[0].ProductID)
	assert.Equal(t, 5, c.Items[0].Quantity)
	assert.Equal(t, pen.ID, c.Items[1].ProductID)
	assert.Equal(t, "Book", c.Items[0].Product.Name)
	assert.Equal(t, "55", c.Total().String())
}

func TestAddItemRejectsBadInput(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	book := store.addProduct("Book", "10")

	for _, qty := range []int{0, -2} {
		_, err := svc.AddItem(ctx, userID, book.ID, qty)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
		assert.ErrorIs(t, err, core.ErrInvalidInput)
	}

	_, err := svc.AddItem(ctx, userID, uuid.New().String(), 1)
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = svc.GetCart(ctx, userID)
	assert.ErrorIs(t, err, ErrCartNotFound, "rejected adds must not create a cart")
}

func TestAddItemCapsLineQuantity(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	book := store.addProduct("Book", "10")

	for _, qty := range []int{MaxQuantity + 1, 3_000_000_000, math.MaxInt} {
		_, err := svc.AddItem(ctx, userID, book.ID, qty)
		assert.ErrorIs(t, err, ErrInvalidQuantity, "qty=%d", qty)
	}

	_, err := svc.AddItem(ctx, userID, book.ID, MaxQuantity-1)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, userID, book.ID, 2)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	c, err := svc.AddItem(ctx, userID, book.ID, 1)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, MaxQuantity, c.Items[0].Quantity)

	_, err = svc.UpdateItem(ctx, userID, book.ID, MaxQuantity+1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	c, err = svc.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, MaxQuantity, c.Items[0].Quantity)
}

func TestCartAddNeverWraps(t *testing.T) {
	c := &Cart{}
	_, err := c.Add("p1", MaxQuantity)
	require.NoError(t, err)

	_, err = c.Add("p1", math.MaxInt)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = c.Add("p1", 1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	assert.Equal(t, MaxQuantity, c.Items[0].Quantity)
}

func TestUpdateItemReplacesQuantity(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	book := store.addProduct("Book", "10")
	pen := store.addProduct("Pen", "5")

	_, err := svc.UpdateItem(ctx, userID, book.ID, 1)
	assert.ErrorIs(t, err, ErrCartNotFound)

	_, err = svc.AddItem(ctx, userID, book.ID, 5)
	require.NoError(t, err)

	c, err := svc.UpdateItem(ctx, userID, book.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Items[0].Quantity)

	_, err = svc.UpdateItem(ctx, userID, pen.ID, 2)
	assert.ErrorIs(t, err, ErrItemNotFound)

	_, err = svc.UpdateItem(ctx, userID, book.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestRemoveItemIsLenient(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	book := store.addProduct("Book", "10")
	pen := store.addProduct("Pen", "5")

	assert.ErrorIs(t, svc.RemoveItem(ctx, userID, uuid.New().String()), ErrCartNotFound)

	_, err := svc.AddItem(ctx, userID, book.ID, 1)
	require.NoError(t, err)
	c, err := svc.AddItem(ctx, userID, pen.ID, 1)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveItem(ctx, userID, "no-such-item"))
	after, err := svc.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, after.Items, 2)

	require.NoError(t, svc.RemoveItem(ctx, userID, c.Items[0].ID))
	after, err = svc.GetCart(ctx, userID)
	require.NoError(t, err)
	require.Len(t, after.Items, 1)
	assert.Equal(t, pen.ID, after.Items[0].ProductID)
}

func TestCheckoutCreatesOrderAndEmptiesCart(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	book := store.addProduct("Book", "10")
	pen := store.addProduct("Pen", "5")

	_, err := svc.AddItem(ctx, userID, book.ID, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, userID, pen.ID, 1)
	require.NoError(t, err)

	o, err := svc.Checkout(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "25", o.TotalAmount.String())
	assert.Equal(t, userID, o.UserID)
	require.Len(t, o.Items, 2)
	assert.Equal(t, "Book", o.Items[0].Name)
	assert.Equal(t, 2, o.Items[0].Quantity)

	c, err := svc.GetCart(ctx, userID)
	require.NoError(t, err, "the cart survives checkout")
	assert.Empty(t, c.Items)
	assert.Equal(t, 1, store.orderCount())

	store.products[book.ID].Price = decimal.NewFromInt(99)
	assert.Equal(t, "25", store.orders[0].TotalAmount.String())
	assert.Equal(t, "10", store.orders[0].Items[0].UnitPrice.String())
}

func TestCheckoutTracesPricedLines(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	store := newMemStore()
	svc := NewService(store, store, store, tp.Tracer("cart-test"), nil)
	ctx := context.Background()
	book := store.addProduct("Book", "10")
	pen := store.addProduct("Pen", "5")

	_, err := svc.Checkout(ctx, userID)
	require.Error(t, err)

	_, err = svc.AddItem(ctx, userID, book.ID, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, userID, pen.ID, 1)
	require.NoError(t, err)
	_, err = svc.Checkout(ctx, userID)
	require.NoError(t, err)

	ended := rec.Ended()
	require.Len(t, ended, 2)

	failed, placed := ended[0], ended[1]
	assert.Equal(t, "cart.Checkout", failed.Name())
	assert.Equal(t, codes.Error, failed.Status().Code)

	var priced []string
	for _, ev := range placed.Events() {
		if ev.Name != "line priced" {
			continue
		}
		for _, kv := range ev.Attributes {
			if kv.Key == "unit_price" {
				priced = append(priced, kv.Value.AsString())
			}
		}
	}
	assert.Equal(t, []string{"10.00", "5.00"}, priced)
	assert.Contains(t, placed.Attributes(), attribute.String("order.total", "25.00"))
	assert.NotEqual(t, codes.Error, placed.Status().Code)
}

func TestCheckoutRequiresNonEmptyCart(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	book := store.addProduct("Book", "10")

	_, err := svc.Checkout(ctx, userID)
	assert.ErrorIs(t, err, ErrCartNotFound)
	assert.ErrorIs(t, err, core.ErrNotFound)

	c, err := svc.AddItem(ctx, userID, book.ID, 1)
	require.NoError(t, err)
	require.NoError(t, svc.RemoveItem(ctx, userID, c.Items[0].ID))

	_, err = svc.Checkout(ctx, userID)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	assert.Equal(t, 0, store.orderCount())
}

func TestCheckoutRollsBackOnOrderFailure(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	book := store.addProduct("Book", "10")

	_, err := svc.AddItem(ctx, userID, book.ID, 3)
	require.NoError(t, err)

	store.failOrders = true
	_, err = svc.Checkout(ctx, userID)
	require.Error(t, err)

	c, err := svc.GetCart(ctx, userID)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.Equal(t, 0, store.orderCount())
}

func TestConcurrentCheckoutsCreateOneOrder(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	book := store.addProduct("Book", "10")

	_, err := svc.AddItem(ctx, userID, book.ID, 1)
	require.NoError(t, err)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Checkout(ctx, userID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrEmptyCart)
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, store.orderCount())
}

func TestConcurrentAddsAllLand(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	book := store.addProduct("Book", "10")

	const adds = 20
	var wg sync.WaitGroup
	for range adds {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddItem(ctx, userID, book.ID, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	c, err := svc.GetCart(ctx, userID)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, adds, c.Items[0].Quantity)
}

func authAs(id string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithIdentity(r.Context(), &middleware.Identity{UserID: id})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func send(h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func TestCartHandlers(t *testing.T) {
	svc, store := newTestService(t)
	book := store.addProduct("Book", "10")
	pen := store.addProduct("Pen", "5")

	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(r, authAs(userID), nil)

	assert.Equal(t, http.StatusNotFound, send(r, http.MethodGet, "/cart", nil).Code)
	assert.Equal(t, http.StatusNotFound, send(r, http.MethodPost, "/cart/checkout", nil).Code)

	rec := send(r, http.MethodPost, "/cart", map[string]any{"productId": book.ID, "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = send(r, http.MethodPost, "/cart", map[string]any{"productId": book.ID, "quantity": 3_000_000_000})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = send(r, http.MethodPost, "/cart", map[string]any{"productId": uuid.New().String(), "quantity": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = send(r, http.MethodPost, "/cart", map[string]any{"productId": book.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = send(r, http.MethodPost, "/cart", map[string]any{"productId": pen.ID, "quantity": 1})
	require.Equal(t, http.StatusOK, rec.Code)

	var cartBody struct {
		Data CartResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cartBody))
	assert.Len(t, cartBody.Data.Items, 2)
	assert.Equal(t, "25", cartBody.Data.TotalAmount.String())

	rec = send(r, http.MethodPut, "/cart", map[string]any{"productId": uuid.New().String(), "quantity": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "item not found in cart")

	rec = send(r, http.MethodDelete, "/cart/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = send(r, http.MethodPost, "/cart/checkout", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var checkout struct {
		Data CheckoutResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &checkout))
	assert.NotEmpty(t, checkout.Data.OrderID)
	assert.Equal(t, "25", checkout.Data.TotalAmount.String())

	rec = send(r, http.MethodPost, "/cart/checkout", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "cart is empty")
}
