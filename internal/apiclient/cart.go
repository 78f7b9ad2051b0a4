package apiclient

import (
	"context"
	"net/http"

	"github.com/trendora/storefront/internal/models"
)

// CartAPI is the remote cart surface, namespaced so cart and wishlist calls
// keep the same verb names.
type CartAPI struct {
	c *Client
}

func (a *CartAPI) Fetch(ctx context.Context, token string) ([]models.CartLine, error) {
	var dtos []cartLineDTO
	if err := a.c.do(ctx, http.MethodGet, "/cart", token, nil, &dtos); err != nil {
		return nil, err
	}

	lines := make([]models.CartLine, 0, len(dtos))
	for _, dto := range dtos {
		lines = append(lines, dto.toLine())
	}
	return lines, nil
}

// Add attaches a line to the customer's remote cart. The backend upserts on
// (product, size, color), so calling this for an already-present combination
// is safe.
func (a *CartAPI) Add(ctx context.Context, token string, ref models.CartRef) error {
	return a.c.do(ctx, http.MethodPost, "/cart", token, ref, nil)
}

func (a *CartAPI) UpdateQuantity(ctx context.Context, token, lineID string, quantity int) error {
	body := struct {
		Quantity int `json:"quantity"`
	}{Quantity: quantity}
	return a.c.do(ctx, http.MethodPatch, "/cart/items/"+lineID, token, body, nil)
}

func (a *CartAPI) Remove(ctx context.Context, token, lineID string) error {
	return a.c.do(ctx, http.MethodDelete, "/cart/items/"+lineID, token, nil, nil)
}

func (a *CartAPI) Clear(ctx context.Context, token string) error {
	return a.c.do(ctx, http.MethodDelete, "/cart", token, nil, nil)
}
