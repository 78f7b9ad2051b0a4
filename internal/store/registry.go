package store

import (
	"context"
	"sync"
	"time"

	"github.com/trendora/storefront/internal/localstore"
	"github.com/trendora/storefront/internal/logging"
)

// Session bundles the one cart, one wishlist and one notification buffer a
// browser session gets for the lifetime of the gateway.
type Session struct {
	Cart          *Cart
	Wishlist      *Wishlist
	Notifications *Buffer

	lastSeen time.Time
}

type Registry struct {
	cartRemote CartRemote
	wishRemote WishlistRemote
	local      *localstore.Store
	pricing    Pricing
	ttl        time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(cartRemote CartRemote, wishRemote WishlistRemote, local *localstore.Store, pricing Pricing, ttl time.Duration) *Registry {
	return &Registry{
		cartRemote: cartRemote,
		wishRemote: wishRemote,
		local:      local,
		pricing:    pricing,
		ttl:        ttl,
		sessions:   make(map[string]*Session),
	}
}

// Session returns the store pair for a gateway session id, creating it on
// first sight. Guest state is durable in the local store, so an evicted and
// recreated session picks up where it left off.
func (r *Registry) Session(ctx context.Context, sid string) *Session {
	r.mu.Lock()
	if s, ok := r.sessions[sid]; ok {
		s.lastSeen = time.Now()
		r.mu.Unlock()
		return s
	}
	r.mu.Unlock()

	// Built outside the lock; NewCart and NewWishlist read the local store.
	buf := &Buffer{}
	s := &Session{
		Cart:          NewCart(ctx, r.cartRemote, r.local, sid, buf, r.pricing),
		Wishlist:      NewWishlist(ctx, r.wishRemote, r.local, sid, buf),
		Notifications: buf,
		lastSeen:      time.Now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[sid]; ok {
		existing.lastSeen = time.Now()
		return existing
	}
	r.sessions[sid] = s
	return s
}

// Sweep drops sessions idle past the TTL. Their guest records stay in the
// local store.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	dropped := 0
	for sid, s := range r.sessions {
		if now.Sub(s.lastSeen) > r.ttl {
			delete(r.sessions, sid)
			dropped++
		}
	}
	return dropped
}

// Run sweeps periodically until the context is cancelled.
func (r *Registry) Run(ctx context.Context) {
	interval := r.ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := r.Sweep(now); n > 0 {
				logging.FromContext(ctx).Debug("idle sessions evicted", "count", n)
			}
		}
	}
}
