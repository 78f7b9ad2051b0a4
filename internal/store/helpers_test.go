package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trendora/storefront/internal/localstore"
	"github.com/trendora/storefront/internal/models"
)

// fakeCartRemote is an in-memory stand-in for the shop backend's cart. It
// upserts on the cart uniqueness key the way the real backend does.
type fakeCartRemote struct {
	mu          sync.Mutex
	lines       []models.CartLine
	prices      map[string]int64
	addCalls    []models.CartRef
	updateCalls int
	fetchCalls  int
	lastToken   string

	failAdd    error
	failFetch  error
	failUpdate error
	failRemove error
	failClear  error

	// When set, Fetch reports on fetchStarted and then waits for
	// fetchRelease before returning.
	fetchStarted chan struct{}
	fetchRelease chan struct{}
}

func (f *fakeCartRemote) Fetch(ctx context.Context, token string) ([]models.CartLine, error) {
	if f.fetchStarted != nil {
		f.fetchStarted <- struct{}{}
	}
	if f.fetchRelease != nil {
		<-f.fetchRelease
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastToken = token
	if f.failFetch != nil {
		return nil, f.failFetch
	}
	f.fetchCalls++
	out := make([]models.CartLine, len(f.lines))
	copy(out, f.lines)
	return out, nil
}

func (f *fakeCartRemote) Add(ctx context.Context, token string, ref models.CartRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastToken = token
	if f.failAdd != nil {
		return f.failAdd
	}
	f.addCalls = append(f.addCalls, ref)

	key := models.LineKey{ProductID: ref.ProductID, Size: ref.Size, Color: ref.Color}
	for i := range f.lines {
		if f.lines[i].Key() == key {
			f.lines[i].Quantity += ref.Quantity
			return nil
		}
	}
	f.lines = append(f.lines, models.CartLine{
		ID:        fmt.Sprintf("remote-%d", len(f.lines)+1),
		ProductID: ref.ProductID,
		Price:     f.prices[ref.ProductID],
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
	if f.failUpdate != nil {
		return f.failUpdate
	}
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
	f.lastToken = token
	if f.failRemove != nil {
		return f.failRemove
	}
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
	f.lastToken = token
	if f.failClear != nil {
		return f.failClear
	}
	f.lines = nil
	return nil
}

func (f *fakeCartRemote) addCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.addCalls)
}

func (f *fakeCartRemote) lastSeenToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastToken
}

type fakeWishlistRemote struct {
	mu        sync.Mutex
	entries   []models.WishlistEntry
	addCalls  []string
	lastToken string

	failAdd    error
	failFetch  error
	failRemove error
}

func (f *fakeWishlistRemote) Fetch(ctx context.Context, token string) ([]models.WishlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastToken = token
	if f.failFetch != nil {
		return nil, f.failFetch
	}
	out := make([]models.WishlistEntry, len(f.entries))
	copy(out, f.entries)
	return out, nil
}

func (f *fakeWishlistRemote) Add(ctx context.Context, token, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastToken = token
	if f.failAdd != nil {
		return f.failAdd
	}
	f.addCalls = append(f.addCalls, productID)
	for _, e := range f.entries {
		if e.ProductID == productID {
			return nil
		}
	}
	f.entries = append(f.entries, models.WishlistEntry{ProductID: productID})
	return nil
}

func (f *fakeWishlistRemote) Remove(ctx context.Context, token, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastToken = token
	if f.failRemove != nil {
		return f.failRemove
	}
	kept := f.entries[:0]
	for _, e := range f.entries {
		if e.ProductID != productID {
			kept = append(kept, e)
		}
	}
	f.entries = kept
	return nil
}

func (f *fakeWishlistRemote) addCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.addCalls)
}

func (f *fakeWishlistRemote) lastSeenToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastToken
}

var testPricing = Pricing{ShippingFee: 4900, FreeShippingMin: 500000}

func newTestLocal(t *testing.T) *localstore.Store {
	t.Helper()
	local, err := localstore.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { local.Close() })
	return local
}

func newTestCart(t *testing.T, remote *fakeCartRemote) (*Cart, *Buffer, *localstore.Store) {
	t.Helper()
	local := newTestLocal(t)
	buf := &Buffer{}
	c := NewCart(context.Background(), remote, local, "sess-1", buf, testPricing)
	return c, buf, local
}

func newTestWishlist(t *testing.T, remote *fakeWishlistRemote) (*Wishlist, *Buffer, *localstore.Store) {
	t.Helper()
	local := newTestLocal(t)
	buf := &Buffer{}
	w := NewWishlist(context.Background(), remote, local, "sess-1", buf)
	return w, buf, local
}

func loginCart(t *testing.T, c *Cart, token string) int {
	t.Helper()
	migrated, err := c.Login(context.Background(), "user-1", token)
	require.NoError(t, err)
	return migrated
}

func loginWishlist(t *testing.T, w *Wishlist, token string) int {
	t.Helper()
	migrated, err := w.Login(context.Background(), "user-1", token)
	require.NoError(t, err)
	return migrated
}

func testProduct(id string, price int64) models.Product {
	return models.Product{
		ID:      id,
		Name:    "Product " + id,
		Slug:    "product-" + id,
		Price:   price,
		Image:   "https://img.example/" + id + ".jpg",
		InStock: true,
	}
}

func codes(ns []Notification) []string {
	out := make([]string, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.Code)
	}
	return out
}
