package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/trendora/storefront/internal/apiclient"
	"github.com/trendora/storefront/internal/events"
	"github.com/trendora/storefront/internal/localstore"
	"github.com/trendora/storefront/internal/models"
	"github.com/trendora/storefront/internal/session"
	"github.com/trendora/storefront/internal/store"
)

var testSecret = []byte("test-jwt-secret")

type fakeCartRemote struct {
	mu          sync.Mutex
	lines       []models.CartLine
	addCalls    int
	updateCalls int
	lastToken   string

	failFetch error
}

func (f *fakeCartRemote) Fetch(ctx context.Context, token string) ([]models.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastToken = token
	if f.failFetch != nil {
		return nil, f.failFetch
	}
	out := make([]models.CartLine, len(f.lines))
	copy(out, f.lines)
	return out, nil
}

func (f *fakeCartRemote) lastSeenToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastToken
}

func (f *fakeCartRemote) Add(ctx context.Context, token string, ref models.CartRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastToken = token
	f.addCalls++
	f.lines = append(f.lines, models.CartLine{
		ID:        fmt.Sprintf("remote-%d", len(f.lines)+1),
		ProductID: ref.ProductID,
		Size:      ref.Size,
		Color:     ref.Color,
		Quantity:  ref.Quantity,
	})
	return nil
}

func (f *fakeCartRemote) UpdateQuantity(ctx context.Context, token, lineID string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastToken = token
	f.updateCalls++
	for i := range f.lines {
		if f.lines[i].ID == lineID {
			f.lines[i].Quantity = quantity
		}
	}
	return nil
}

func (f *fakeCartRemote) Remove(ctx context.Context, token, lineID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.lines[:0]
	for _, l := range f.lines {
		if l.ID != lineID {
			kept = append(kept, l)
		}
	}
	f.lines = kept
	return nil
}

func (f *fakeCartRemote) Clear(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = nil
	return nil
}

type fakeWishlistRemote struct {
	mu      sync.Mutex
	entries []models.WishlistEntry
}

func (f *fakeWishlistRemote) Fetch(ctx context.Context, token string) ([]models.WishlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.WishlistEntry, len(f.entries))
	copy(out, f.entries)
	return out, nil
}

func (f *fakeWishlistRemote) Add(ctx context.Context, token, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.ProductID == productID {
			return fmt.Errorf("wishlist add: %w", apiclient.ErrConflict)
		}
	}
	f.entries = append(f.entries, models.WishlistEntry{ProductID: productID})
	return nil
}

func (f *fakeWishlistRemote) Remove(ctx context.Context, token, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.entries[:0]
	for _, e := range f.entries {
		if e.ProductID != productID {
			kept = append(kept, e)
		}
	}
	f.entries = kept
	return nil
}

// eventRecorder captures everything the gateway would send to Kafka.
type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) Publish(ctx context.Context, ev events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) typesSeen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type fakeCatalog struct {
	products map[string]models.Product
}

func (f *fakeCatalog) FetchProduct(ctx context.Context, productID string) (*models.Product, error) {
	p, ok := f.products[productID]
	if !ok {
		return nil, fmt.Errorf("GET /products/%s: %w", productID, apiclient.ErrNotFound)
	}
	return &p, nil
}

type testEnv struct {
	T      *testing.T
	E      *echo.Echo
	Cart   *fakeCartRemote
	Wish   *fakeWishlistRemote
	Events *eventRecorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	local, err := localstore.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { local.Close() })

	cartFake := &fakeCartRemote{}
	wishFake := &fakeWishlistRemote{}
	recorder := &eventRecorder{}
	catalog := &fakeCatalog{products: map[string]models.Product{
		"p1": {ID: "p1", Name: "Tee", Slug: "tee", Price: 1990, Image: "https://img/1.jpg", InStock: true},
		"p2": {ID: "p2", Name: "Hoodie", Slug: "hoodie", Price: 5990, Image: "https://img/2.jpg", InStock: true},
	}}

	pricing := store.Pricing{ShippingFee: 4900, FreeShippingMin: 500000}
	registry := store.NewRegistry(cartFake, wishFake, local, pricing, time.Hour)

	e := echo.New()
	Register(e, &Deps{
		Registry:  registry,
		Catalog:   catalog,
		Producer:  recorder,
		JWTSecret: testSecret,
	})

	return &testEnv{T: t, E: e, Cart: cartFake, Wish: wishFake, Events: recorder}
}

var tokenSerial atomic.Int64

// mintToken signs a distinct token on every call; two tokens for the same
// subject never compare equal, which is what the rotation tests rely on.
func mintToken(t *testing.T, sub string) string {
	t.Helper()
	claims := session.AccessClaims{
		Role: "user",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ID:        strconv.FormatInt(tokenSerial.Add(1), 10),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return token
}

// doJSON performs a request through the full middleware stack and returns the
// recorder plus any cookies the response set.
func (env *testEnv) doJSON(method, path string, body any, token string, cookies ...*http.Cookie) (*httptest.ResponseRecorder, []*http.Cookie) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(env.T, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}

	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec, rec.Result().Cookies()
}

type cartBodyDTO struct {
	Lines         []models.CartLine    `json:"lines"`
	Summary       store.Summary        `json:"summary"`
	Notifications []store.Notification `json:"notifications"`
}

type wishlistBodyDTO struct {
	Entries       []models.WishlistEntry `json:"entries"`
	Notifications []store.Notification   `json:"notifications"`
}

func decodeCart(t *testing.T, rec *httptest.ResponseRecorder) cartBodyDTO {
	t.Helper()
	var out cartBodyDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func decodeWishlist(t *testing.T, rec *httptest.ResponseRecorder) wishlistBodyDTO {
	t.Helper()
	var out wishlistBodyDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func cartLineFixture(id, productID string, quantity int) models.CartLine {
	return models.CartLine{ID: id, ProductID: productID, Price: 1990, Quantity: quantity}
}

func notificationCodes(ns []store.Notification) []string {
	out := make([]string, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.Code)
	}
	return out
}
