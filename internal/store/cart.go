// Package store keeps the storefront's cart and wishlist views. For guests
// the store owns its records and persists them locally; once the visitor
// authenticates the remote shop backend owns the records and the in-memory
// view is always the last successful remote fetch, never a local patch. The
// switch between those two modes, and the one-shot guest-to-account merge on
// login, live here.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/trendora/storefront/internal/localstore"
	"github.com/trendora/storefront/internal/logging"
	"github.com/trendora/storefront/internal/models"
)

type CartRemote interface {
	Fetch(ctx context.Context, token string) ([]models.CartLine, error)
	Add(ctx context.Context, token string, ref models.CartRef) error
	UpdateQuantity(ctx context.Context, token, lineID string, quantity int) error
	Remove(ctx context.Context, token, lineID string) error
	Clear(ctx context.Context, token string) error
}

type Cart struct {
	remote   CartRemote
	local    *localstore.Store
	localKey string
	notifier Notifier
	pricing  Pricing

	mu            sync.Mutex
	authenticated bool
	subject       string
	token         string
	epoch         uint64
	lines         []models.CartLine
}

func NewCart(ctx context.Context, remote CartRemote, local *localstore.Store, sessionID string, notifier Notifier, pricing Pricing) *Cart {
	c := &Cart{
		remote:   remote,
		local:    local,
		localKey: "cart:" + sessionID,
		notifier: notifier,
		pricing:  pricing,
	}
	c.loadGuest(ctx)
	return c
}

func (c *Cart) loadGuest(ctx context.Context) {
	var saved []models.CartLine
	if err := c.local.Load(ctx, c.localKey, &saved); err != nil {
		logging.FromContext(ctx).Error("guest cart load failed", "key", c.localKey, "error", err)
		saved = nil
	}
	c.mu.Lock()
	c.lines = saved
	c.mu.Unlock()
}

func (c *Cart) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authenticated
}

// Subject reports the account the store is bound to; empty in guest mode.
func (c *Cart) Subject() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subject
}

// SetToken installs a fresh credential for the account already bound to the
// store. The auth service rotates access tokens, so remote calls must carry
// the token the current request presented, not the one seen at login. In
// guest mode there is no credential to replace and the call does nothing.
func (c *Cart) SetToken(token string) {
	c.mu.Lock()
	if c.authenticated {
		c.token = token
	}
	c.mu.Unlock()
}

func (c *Cart) Lines() []models.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Count is the sum of quantities, not the number of lines.
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) Subtotal() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return subtotal(c.lines)
}

func subtotal(lines []models.CartLine) int64 {
	var sum int64
	for _, l := range lines {
		sum += l.Price * int64(l.Quantity)
	}
	return sum
}

// Summary recomputes the aggregates from the current collection on every
// call; nothing here is cached across mutations.
func (c *Cart) Summary() Summary {
	c.mu.Lock()
	count := 0
	for _, l := range c.lines {
		count += l.Quantity
	}
	sub := subtotal(c.lines)
	c.mu.Unlock()

	ship := c.pricing.Shipping(sub)
	return Summary{Count: count, Subtotal: sub, Shipping: ship, Total: sub + ship}
}

// Add puts quantity units of a (product, size, color) combination in the
// cart; quantity below 1 means 1. In guest mode a line matching the
// uniqueness key is incremented rather than duplicated.
func (c *Cart) Add(ctx context.Context, p models.Product, size, color string, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	c.mu.Lock()
	authed, token, epoch := c.authenticated, c.token, c.epoch
	c.mu.Unlock()

	if authed {
		ref := models.CartRef{ProductID: p.ID, Size: size, Color: color, Quantity: quantity}
		if err := c.remote.Add(ctx, token, ref); err != nil {
			c.notifier.Notify(failure("cart_add_failed", "Could not add the item to your cart."))
			return fmt.Errorf("add to cart: %w", err)
		}
		c.refreshLogged(ctx, token, epoch)
		c.notifier.Notify(info("cart_added", "Added to your cart."))
		return nil
	}

	key := models.LineKey{ProductID: p.ID, Size: size, Color: color}
	updated := false

	c.mu.Lock()
	for i := range c.lines {
		if c.lines[i].Key() == key {
			c.lines[i].Quantity += quantity
			updated = true
			break
		}
	}
	if !updated {
		c.lines = append(c.lines, models.CartLine{
			ID:        uuid.NewString(),
			ProductID: p.ID,
			Name:      p.Name,
			Slug:      p.Slug,
			Price:     p.Price,
			Image:     p.Image,
			Size:      size,
			Color:     color,
			Quantity:  quantity,
		})
	}
	c.persistLocked(ctx)
	c.mu.Unlock()

	if updated {
		c.notifier.Notify(info("cart_updated", "Cart updated."))
	} else {
		c.notifier.Notify(info("cart_added", "Added to your cart."))
	}
	return nil
}

// UpdateQuantity sets a line's quantity. A requested quantity below 1 is a
// silent no-op in both modes; removal is an explicit operation.
func (c *Cart) UpdateQuantity(ctx context.Context, lineID string, quantity int) error {
	if quantity < 1 {
		return nil
	}

	c.mu.Lock()
	authed, token, epoch := c.authenticated, c.token, c.epoch
	c.mu.Unlock()

	if authed {
		if err := c.remote.UpdateQuantity(ctx, token, lineID, quantity); err != nil {
			c.notifier.Notify(failure("cart_update_failed", "Could not update your cart."))
			return fmt.Errorf("update quantity: %w", err)
		}
		c.refreshLogged(ctx, token, epoch)
		return nil
	}

	c.mu.Lock()
	for i := range c.lines {
		if c.lines[i].ID == lineID {
			c.lines[i].Quantity = quantity
			c.persistLocked(ctx)
			break
		}
	}
	c.mu.Unlock()
	return nil
}

func (c *Cart) Remove(ctx context.Context, lineID string) error {
	c.mu.Lock()
	authed, token, epoch := c.authenticated, c.token, c.epoch
	c.mu.Unlock()

	if authed {
		if err := c.remote.Remove(ctx, token, lineID); err != nil {
			c.notifier.Notify(failure("cart_remove_failed", "Could not remove the item from your cart."))
			return fmt.Errorf("remove from cart: %w", err)
		}
		c.refreshLogged(ctx, token, epoch)
		c.notifier.Notify(info("cart_removed", "Removed from your cart."))
		return nil
	}

	c.mu.Lock()
	kept := c.lines[:0]
	removed := false
	for _, l := range c.lines {
		if l.ID == lineID {
			removed = true
			continue
		}
		kept = append(kept, l)
	}
	c.lines = kept
	if removed {
		c.persistLocked(ctx)
	}
	c.mu.Unlock()

	if removed {
		c.notifier.Notify(info("cart_removed", "Removed from your cart."))
	}
	return nil
}

func (c *Cart) Clear(ctx context.Context) error {
	c.mu.Lock()
	authed, token, epoch := c.authenticated, c.token, c.epoch
	c.mu.Unlock()

	if authed {
		if err := c.remote.Clear(ctx, token); err != nil {
			c.notifier.Notify(failure("cart_clear_failed", "Could not clear your cart."))
			return fmt.Errorf("clear cart: %w", err)
		}
		c.refreshLogged(ctx, token, epoch)
		return nil
	}

	c.mu.Lock()
	c.lines = nil
	c.persistLocked(ctx)
	c.mu.Unlock()
	return nil
}

// Login binds the store to subject's account and runs the one-shot guest
// merge. It returns the number of guest lines migrated; triggering it again
// while already authenticated is a no-op.
func (c *Cart) Login(ctx context.Context, subject, token string) (int, error) {
	c.mu.Lock()
	if c.authenticated {
		c.mu.Unlock()
		return 0, nil
	}
	c.authenticated = true
	c.subject = subject
	c.token = token
	c.epoch++
	epoch := c.epoch
	// The guest view must not masquerade as the account cart while the
	// first remote fetch is outstanding.
	c.lines = nil
	c.mu.Unlock()

	migrated := c.migrate(ctx, token)

	if err := c.refresh(ctx, token, epoch); err != nil {
		logging.FromContext(ctx).Error("cart fetch after login failed", "error", err)
	}

	if migrated > 0 {
		c.notifier.Notify(info("cart_merged", "Your cart has been moved to your account."))
	}
	return migrated, nil
}

// migrate pushes any guest lines into the account cart and deletes the local
// record. The creates go out concurrently; entries are independent and the
// backend deduplicates, so a per-entry failure never aborts the batch.
// Returns the number of guest lines found; zero means nothing ran, which is
// what makes a duplicate login transition safe.
func (c *Cart) migrate(ctx context.Context, token string) int {
	var saved []models.CartLine
	if err := c.local.Load(ctx, c.localKey, &saved); err != nil {
		logging.FromContext(ctx).Error("guest cart read failed during merge", "key", c.localKey, "error", err)
		return 0
	}
	if len(saved) == 0 {
		return 0
	}

	var wg sync.WaitGroup
	for _, line := range saved {
		wg.Add(1)
		go func(ref models.CartRef) {
			defer wg.Done()
			if err := c.remote.Add(ctx, token, ref); err != nil {
				logging.FromContext(ctx).Debug("cart merge entry not attached", "product_id", ref.ProductID, "error", err)
			}
		}(line.Ref())
	}
	wg.Wait()

	if err := c.local.Delete(ctx, c.localKey); err != nil {
		logging.FromContext(ctx).Error("guest cart delete failed after merge", "key", c.localKey, "error", err)
	}
	return len(saved)
}

// Logout returns the store to guest mode. The next guest session starts from
// whatever the local record holds, normally nothing after a merge.
func (c *Cart) Logout(ctx context.Context) {
	c.mu.Lock()
	if !c.authenticated {
		c.mu.Unlock()
		return
	}
	c.authenticated = false
	c.subject = ""
	c.token = ""
	c.epoch++
	c.lines = nil
	c.mu.Unlock()

	c.loadGuest(ctx)
}

// Refresh replaces the in-memory view with the remote state. Guest mode is a
// no-op; the local record is already canonical there.
func (c *Cart) Refresh(ctx context.Context) error {
	c.mu.Lock()
	authed, token, epoch := c.authenticated, c.token, c.epoch
	c.mu.Unlock()

	if !authed {
		return nil
	}
	return c.refresh(ctx, token, epoch)
}

// refresh installs the fetched collection wholesale, unless the session epoch
// moved while the fetch was in flight; a stale response must not overwrite
// the state a login or logout just established.
func (c *Cart) refresh(ctx context.Context, token string, epoch uint64) error {
	lines, err := c.remote.Fetch(ctx, token)
	if err != nil {
		return fmt.Errorf("fetch cart: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return nil
	}
	c.lines = lines
	return nil
}

func (c *Cart) refreshLogged(ctx context.Context, token string, epoch uint64) {
	if err := c.refresh(ctx, token, epoch); err != nil {
		logging.FromContext(ctx).Warn("cart refetch failed", "error", err)
	}
}

// persistLocked writes the guest record. Callers hold c.mu. Once the session
// is authenticated the local record is never written again.
func (c *Cart) persistLocked(ctx context.Context) {
	if c.authenticated {
		return
	}
	if err := c.local.Save(ctx, c.localKey, c.lines); err != nil {
		logging.FromContext(ctx).Error("guest cart save failed", "key", c.localKey, "error", err)
	}
}
