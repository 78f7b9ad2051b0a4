package apiclient

import (
	"context"
	"net/http"

	"github.com/trendora/storefront/internal/models"
)

type WishlistAPI struct {
	c *Client
}

func (a *WishlistAPI) Fetch(ctx context.Context, token string) ([]models.WishlistEntry, error) {
	var dtos []wishlistEntryDTO
	if err := a.c.do(ctx, http.MethodGet, "/wishlist", token, nil, &dtos); err != nil {
		return nil, err
	}

	entries := make([]models.WishlistEntry, 0, len(dtos))
	for _, dto := range dtos {
		entries = append(entries, dto.toEntry())
	}
	return entries, nil
}

func (a *WishlistAPI) Add(ctx context.Context, token, productID string) error {
	body := struct {
		ProductID string `json:"product_id"`
	}{ProductID: productID}
	return a.c.do(ctx, http.MethodPost, "/wishlist", token, body, nil)
}

func (a *WishlistAPI) Remove(ctx context.Context, token, productID string) error {
	return a.c.do(ctx, http.MethodDelete, "/wishlist/"+productID, token, nil, nil)
}
