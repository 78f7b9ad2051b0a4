package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/trendora/storefront/internal/apiclient"
	"github.com/trendora/storefront/internal/events"
	"github.com/trendora/storefront/internal/logging"
	"github.com/trendora/storefront/internal/session"
	"github.com/trendora/storefront/internal/store"
)

const (
	sessionCookieName = "storefront_session"

	ctxSessionKey   = "storefront.session"
	ctxSessionIDKey = "storefront.session_id"
)

// withSession pins the browser to its store pair via a session cookie,
// resolves the bearer identity per request and drives the guest/account
// transitions. The login transition is what triggers the one-shot merge.
func (d *Deps) withSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		sid := ""
		if ck, err := c.Cookie(sessionCookieName); err == nil && ck.Value != "" {
			sid = ck.Value
		}
		if sid == "" {
			sid = uuid.NewString()
			c.SetCookie(&http.Cookie{
				Name:     sessionCookieName,
				Value:    sid,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		sess := d.Registry.Session(ctx, sid)
		id := session.Resolve(bearerToken(c), d.JWTSecret)

		switch {
		case id.Authenticated && !sess.Cart.Authenticated():
			d.login(ctx, sess, sid, id)
		case id.Authenticated && sess.Cart.Subject() != id.UserID:
			// A different account took over the browser session without an
			// intervening guest request. The stores must never call the
			// backend for the new subject with the old subject's credential.
			sess.Cart.Logout(ctx)
			sess.Wishlist.Logout(ctx)
			d.login(ctx, sess, sid, id)
		case id.Authenticated:
			// Same account, possibly a rotated token. Every remote call made
			// for this request has to carry the credential it presented.
			sess.Cart.SetToken(id.Token)
			sess.Wishlist.SetToken(id.Token)
		case sess.Cart.Authenticated():
			sess.Cart.Logout(ctx)
			sess.Wishlist.Logout(ctx)
		}

		c.Set(ctxSessionKey, sess)
		c.Set(ctxSessionIDKey, sid)
		return next(c)
	}
}

func (d *Deps) login(ctx context.Context, sess *store.Session, sid string, id session.Identity) {
	migrated, err := sess.Cart.Login(ctx, id.UserID, id.Token)
	if err != nil {
		logging.FromContext(ctx).Error("cart login transition failed", "error", err)
	}
	if migrated > 0 {
		d.Producer.Publish(ctx, events.Event{
			Type:      events.TypeCartMerged,
			SessionID: sid,
			Quantity:  migrated,
		})
	}
	if _, err := sess.Wishlist.Login(ctx, id.UserID, id.Token); err != nil {
		logging.FromContext(ctx).Error("wishlist login transition failed", "error", err)
	}
}

func bearerToken(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if ck, err := c.Cookie("accessToken"); err == nil {
		return ck.Value
	}
	return ""
}

func sessionFrom(c echo.Context) *store.Session {
	s, _ := c.Get(ctxSessionKey).(*store.Session)
	return s
}

func sessionID(c echo.Context) string {
	sid, _ := c.Get(ctxSessionIDKey).(string)
	return sid
}

// remoteStatus maps a store/remote failure to the response status. 401 stays
// distinguishable so the frontend can clear its session state.
func remoteStatus(err error) int {
	switch {
	case errors.Is(err, apiclient.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apiclient.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}
