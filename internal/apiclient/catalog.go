package apiclient

import (
	"context"
	"net/http"

	"github.com/trendora/storefront/internal/models"
)

type CatalogAPI struct {
	c *Client
}

// FetchProduct loads the snapshot (name, slug, price, image, stock) the
// storefront embeds into a cart line or wishlist entry. Public catalog data,
// no credential needed.
func (a *CatalogAPI) FetchProduct(ctx context.Context, productID string) (*models.Product, error) {
	var dto productDTO
	if err := a.c.do(ctx, http.MethodGet, "/products/"+productID, "", nil, &dto); err != nil {
		return nil, err
	}
	p := dto.toProduct()
	return &p, nil
}
