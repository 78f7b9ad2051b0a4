package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/trendora/storefront/internal/apiclient"
	"github.com/trendora/storefront/internal/localstore"
	"github.com/trendora/storefront/internal/logging"
	"github.com/trendora/storefront/internal/models"
)

type WishlistRemote interface {
	Fetch(ctx context.Context, token string) ([]models.WishlistEntry, error)
	Add(ctx context.Context, token, productID string) error
	Remove(ctx context.Context, token, productID string) error
}

// Wishlist follows the same guest/remote duality as Cart, with a simpler
// record: uniqueness is the product id alone and entries carry no quantity.
type Wishlist struct {
	remote   WishlistRemote
	local    *localstore.Store
	localKey string
	notifier Notifier

	mu            sync.Mutex
	authenticated bool
	subject       string
	token         string
	epoch         uint64
	entries       []models.WishlistEntry
}

func NewWishlist(ctx context.Context, remote WishlistRemote, local *localstore.Store, sessionID string, notifier Notifier) *Wishlist {
	w := &Wishlist{
		remote:   remote,
		local:    local,
		localKey: "wishlist:" + sessionID,
		notifier: notifier,
	}
	w.loadGuest(ctx)
	return w
}

func (w *Wishlist) loadGuest(ctx context.Context) {
	var saved []models.WishlistEntry
	if err := w.local.Load(ctx, w.localKey, &saved); err != nil {
		logging.FromContext(ctx).Error("guest wishlist load failed", "key", w.localKey, "error", err)
		saved = nil
	}
	w.mu.Lock()
	w.entries = saved
	w.mu.Unlock()
}

func (w *Wishlist) Authenticated() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.authenticated
}

func (w *Wishlist) Subject() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.subject
}

// SetToken replaces the credential for the bound account; a no-op for guests.
func (w *Wishlist) SetToken(token string) {
	w.mu.Lock()
	if w.authenticated {
		w.token = token
	}
	w.mu.Unlock()
}

func (w *Wishlist) Entries() []models.WishlistEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]models.WishlistEntry, len(w.entries))
	copy(out, w.entries)
	return out
}

func (w *Wishlist) Contains(productID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, e := range w.entries {
		if e.ProductID == productID {
			return true
		}
	}
	return false
}

// Add saves a product. Saving an already-present product changes nothing and
// tells the visitor so, in both modes.
func (w *Wishlist) Add(ctx context.Context, p models.Product) error {
	w.mu.Lock()
	authed, token, epoch := w.authenticated, w.token, w.epoch
	w.mu.Unlock()

	if authed {
		if err := w.remote.Add(ctx, token, p.ID); err != nil {
			if errors.Is(err, apiclient.ErrConflict) {
				w.notifier.Notify(info("wishlist_present", "Already in your wishlist."))
				return nil
			}
			w.notifier.Notify(failure("wishlist_add_failed", "Could not save the item."))
			return fmt.Errorf("add to wishlist: %w", err)
		}
		w.refreshLogged(ctx, token, epoch)
		w.notifier.Notify(info("wishlist_added", "Saved to your wishlist."))
		return nil
	}

	w.mu.Lock()
	for _, e := range w.entries {
		if e.ProductID == p.ID {
			w.mu.Unlock()
			w.notifier.Notify(info("wishlist_present", "Already in your wishlist."))
			return nil
		}
	}
	w.entries = append(w.entries, models.WishlistEntry{
		ProductID: p.ID,
		Name:      p.Name,
		Slug:      p.Slug,
		Price:     p.Price,
		Image:     p.Image,
		InStock:   p.InStock,
	})
	w.persistLocked(ctx)
	w.mu.Unlock()

	w.notifier.Notify(info("wishlist_added", "Saved to your wishlist."))
	return nil
}

func (w *Wishlist) Remove(ctx context.Context, productID string) error {
	w.mu.Lock()
	authed, token, epoch := w.authenticated, w.token, w.epoch
	w.mu.Unlock()

	if authed {
		if err := w.remote.Remove(ctx, token, productID); err != nil {
			w.notifier.Notify(failure("wishlist_remove_failed", "Could not remove the item."))
			return fmt.Errorf("remove from wishlist: %w", err)
		}
		w.refreshLogged(ctx, token, epoch)
		w.notifier.Notify(info("wishlist_removed", "Removed from your wishlist."))
		return nil
	}

	w.mu.Lock()
	kept := w.entries[:0]
	removed := false
	for _, e := range w.entries {
		if e.ProductID == productID {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	w.entries = kept
	if removed {
		w.persistLocked(ctx)
	}
	w.mu.Unlock()

	if removed {
		w.notifier.Notify(info("wishlist_removed", "Removed from your wishlist."))
	}
	return nil
}

// Login binds the store to subject's account and migrates guest entries,
// same one-shot shape as the cart merge. Returns the migrated entry count.
func (w *Wishlist) Login(ctx context.Context, subject, token string) (int, error) {
	w.mu.Lock()
	if w.authenticated {
		w.mu.Unlock()
		return 0, nil
	}
	w.authenticated = true
	w.subject = subject
	w.token = token
	w.epoch++
	epoch := w.epoch
	w.entries = nil
	w.mu.Unlock()

	migrated := w.migrate(ctx, token)

	if err := w.refresh(ctx, token, epoch); err != nil {
		logging.FromContext(ctx).Error("wishlist fetch after login failed", "error", err)
	}

	if migrated > 0 {
		w.notifier.Notify(info("wishlist_merged", "Your wishlist has been moved to your account."))
	}
	return migrated, nil
}

func (w *Wishlist) migrate(ctx context.Context, token string) int {
	var saved []models.WishlistEntry
	if err := w.local.Load(ctx, w.localKey, &saved); err != nil {
		logging.FromContext(ctx).Error("guest wishlist read failed during merge", "key", w.localKey, "error", err)
		return 0
	}
	if len(saved) == 0 {
		return 0
	}

	var wg sync.WaitGroup
	for _, entry := range saved {
		wg.Add(1)
		go func(productID string) {
			defer wg.Done()
			if err := w.remote.Add(ctx, token, productID); err != nil {
				logging.FromContext(ctx).Debug("wishlist merge entry not attached", "product_id", productID, "error", err)
			}
		}(entry.ProductID)
	}
	wg.Wait()

	if err := w.local.Delete(ctx, w.localKey); err != nil {
		logging.FromContext(ctx).Error("guest wishlist delete failed after merge", "key", w.localKey, "error", err)
	}
	return len(saved)
}

func (w *Wishlist) Logout(ctx context.Context) {
	w.mu.Lock()
	if !w.authenticated {
		w.mu.Unlock()
		return
	}
	w.authenticated = false
	w.subject = ""
	w.token = ""
	w.epoch++
	w.entries = nil
	w.mu.Unlock()

	w.loadGuest(ctx)
}

func (w *Wishlist) Refresh(ctx context.Context) error {
	w.mu.Lock()
	authed, token, epoch := w.authenticated, w.token, w.epoch
	w.mu.Unlock()

	if !authed {
		return nil
	}
	return w.refresh(ctx, token, epoch)
}

func (w *Wishlist) refresh(ctx context.Context, token string, epoch uint64) error {
	entries, err := w.remote.Fetch(ctx, token)
	if err != nil {
		return fmt.Errorf("fetch wishlist: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.epoch != epoch {
		return nil
	}
	w.entries = entries
	return nil
}

func (w *Wishlist) refreshLogged(ctx context.Context, token string, epoch uint64) {
	if err := w.refresh(ctx, token, epoch); err != nil {
		logging.FromContext(ctx).Warn("wishlist refetch failed", "error", err)
	}
}

func (w *Wishlist) persistLocked(ctx context.Context) {
	if w.authenticated {
		return
	}
	if err := w.local.Save(ctx, w.localKey, w.entries); err != nil {
		logging.FromContext(ctx).Error("guest wishlist save failed", "key", w.localKey, "error", err)
	}
}
