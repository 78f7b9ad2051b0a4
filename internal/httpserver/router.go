package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trendora/storefront/internal/events"
	"github.com/trendora/storefront/internal/models"
	"github.com/trendora/storefront/internal/store"
)

// Catalog is the slice of the shop API the gateway needs to build a line:
// the product snapshot embedded at add time.
type Catalog interface {
	FetchProduct(ctx context.Context, productID string) (*models.Product, error)
}

// Publisher is satisfied by *events.Producer, including a nil one.
type Publisher interface {
	Publish(ctx context.Context, ev events.Event)
}

type Deps struct {
	Registry  *store.Registry
	Catalog   Catalog
	Producer  Publisher
	JWTSecret []byte
}

func Register(e *echo.Echo, d *Deps) {
	if d.Producer == nil {
		d.Producer = (*events.Producer)(nil)
	}

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	cartHandler := &CartHTTP{Catalog: d.Catalog, Producer: d.Producer}
	wishHandler := &WishlistHTTP{Catalog: d.Catalog, Producer: d.Producer}

	api := e.Group("/api", d.withSession)

	api.GET("/cart", cartHandler.GetCart)
	api.POST("/cart", cartHandler.AddToCart)
	api.DELETE("/cart", cartHandler.ClearCart)
	api.PATCH("/cart/items/:id", cartHandler.UpdateItem)
	api.DELETE("/cart/items/:id", cartHandler.RemoveItem)

	api.GET("/wishlist", wishHandler.GetWishlist)
	api.POST("/wishlist", wishHandler.AddToWishlist)
	api.DELETE("/wishlist/:product_id", wishHandler.RemoveFromWishlist)
}
