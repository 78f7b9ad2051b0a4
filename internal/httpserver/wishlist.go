package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trendora/storefront/internal/apiclient"
	"github.com/trendora/storefront/internal/events"
	"github.com/trendora/storefront/internal/logging"
	"github.com/trendora/storefront/internal/models"
	"github.com/trendora/storefront/internal/store"
)

type WishlistHTTP struct {
	Catalog  Catalog
	Producer Publisher
}

type wishlistResponse struct {
	Entries       []models.WishlistEntry `json:"entries"`
	Notifications []store.Notification   `json:"notifications"`
}

func wishlistBody(sess *store.Session) wishlistResponse {
	return wishlistResponse{
		Entries:       sess.Wishlist.Entries(),
		Notifications: sess.Notifications.Drain(),
	}
}

func (h *WishlistHTTP) GetWishlist(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.wishlist")
	sess := sessionFrom(c)

	if err := sess.Wishlist.Refresh(ctx); err != nil {
		status := remoteStatus(err)
		l.Error("get_wishlist_error", "status", status, "error", err)
		return c.JSON(status, wishlistBody(sess))
	}

	return c.JSON(http.StatusOK, wishlistBody(sess))
}

func (h *WishlistHTTP) AddToWishlist(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "add.wishlist")
	sess := sessionFrom(c)

	var req struct {
		ProductID string `json:"product_id"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("add_to_wishlist_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}
	if req.ProductID == "" {
		l.Warn("add_to_wishlist_error", "status", 400)
		return c.JSON(http.StatusBadRequest, "product_id required")
	}

	product, err := h.Catalog.FetchProduct(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, apiclient.ErrNotFound) {
			l.Warn("add_to_wishlist_unknown_product", "status", 404, "product_id", req.ProductID)
			return c.JSON(http.StatusNotFound, "unknown product")
		}
		l.Error("add_to_wishlist_error", "status", 502, "error", err)
		return c.JSON(http.StatusBadGateway, "catalog unavailable")
	}

	if err := sess.Wishlist.Add(ctx, *product); err != nil {
		status := remoteStatus(err)
		l.Error("add_to_wishlist_error", "status", status, "error", err)
		return c.JSON(status, wishlistBody(sess))
	}

	h.Producer.Publish(ctx, events.Event{
		Type:      events.TypeWishlistSaved,
		SessionID: sessionID(c),
		ProductID: req.ProductID,
	})

	l.Info("item saved to wishlist", "product_id", req.ProductID)
	return c.JSON(http.StatusCreated, wishlistBody(sess))
}

func (h *WishlistHTTP) RemoveFromWishlist(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "remove.wishlist")
	sess := sessionFrom(c)

	productID := c.Param("product_id")
	if err := sess.Wishlist.Remove(ctx, productID); err != nil {
		status := remoteStatus(err)
		l.Error("remove_from_wishlist_error", "status", status, "error", err)
		return c.JSON(status, wishlistBody(sess))
	}

	h.Producer.Publish(ctx, events.Event{
		Type:      events.TypeWishlistRemoved,
		SessionID: sessionID(c),
		ProductID: productID,
	})

	return c.JSON(http.StatusOK, wishlistBody(sess))
}
