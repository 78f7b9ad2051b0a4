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

type CartHTTP struct {
	Catalog  Catalog
	Producer Publisher
}

type cartResponse struct {
	Lines         []models.CartLine    `json:"lines"`
	Summary       store.Summary        `json:"summary"`
	Notifications []store.Notification `json:"notifications"`
}

func cartBody(sess *store.Session) cartResponse {
	return cartResponse{
		Lines:         sess.Cart.Lines(),
		Summary:       sess.Cart.Summary(),
		Notifications: sess.Notifications.Drain(),
	}
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.cart")
	sess := sessionFrom(c)

	if err := sess.Cart.Refresh(ctx); err != nil {
		status := remoteStatus(err)
		l.Error("get_cart_error", "status", status, "error", err)
		return c.JSON(status, cartBody(sess))
	}

	return c.JSON(http.StatusOK, cartBody(sess))
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "add.cart")
	sess := sessionFrom(c)

	var req struct {
		ProductID string `json:"product_id"`
		Size      string `json:"size"`
		Color     string `json:"color"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}
	if req.ProductID == "" {
		l.Warn("add_to_cart_error", "status", 400)
		return c.JSON(http.StatusBadRequest, "product_id required")
	}

	product, err := h.Catalog.FetchProduct(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, apiclient.ErrNotFound) {
			l.Warn("add_to_cart_unknown_product", "status", 404, "product_id", req.ProductID)
			return c.JSON(http.StatusNotFound, "unknown product")
		}
		l.Error("add_to_cart_error", "status", 502, "error", err)
		return c.JSON(http.StatusBadGateway, "catalog unavailable")
	}

	if err := sess.Cart.Add(ctx, *product, req.Size, req.Color, req.Quantity); err != nil {
		status := remoteStatus(err)
		l.Error("add_to_cart_error", "status", status, "error", err)
		return c.JSON(status, cartBody(sess))
	}

	h.Producer.Publish(ctx, events.Event{
		Type:      events.TypeCartAdded,
		SessionID: sessionID(c),
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})

	l.Info("item added to cart", "product_id", req.ProductID)
	return c.JSON(http.StatusCreated, cartBody(sess))
}

func (h *CartHTTP) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "update.cart.item")
	sess := sessionFrom(c)

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("update_cart_item_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	if err := sess.Cart.UpdateQuantity(ctx, c.Param("id"), req.Quantity); err != nil {
		status := remoteStatus(err)
		l.Error("update_cart_item_error", "status", status, "error", err)
		return c.JSON(status, cartBody(sess))
	}

	return c.JSON(http.StatusOK, cartBody(sess))
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "remove.cart.item")
	sess := sessionFrom(c)

	lineID := c.Param("id")
	if err := sess.Cart.Remove(ctx, lineID); err != nil {
		status := remoteStatus(err)
		l.Error("remove_cart_item_error", "status", status, "error", err)
		return c.JSON(status, cartBody(sess))
	}

	h.Producer.Publish(ctx, events.Event{
		Type:      events.TypeCartRemoved,
		SessionID: sessionID(c),
	})

	return c.JSON(http.StatusOK, cartBody(sess))
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "clear.cart")
	sess := sessionFrom(c)

	if err := sess.Cart.Clear(ctx); err != nil {
		status := remoteStatus(err)
		l.Error("clear_cart_error", "status", status, "error", err)
		return c.JSON(status, cartBody(sess))
	}

	h.Producer.Publish(ctx, events.Event{
		Type:      events.TypeCartCleared,
		SessionID: sessionID(c),
	})

	l.Info("cart cleared")
	return c.JSON(http.StatusOK, cartBody(sess))
}
