package auth

import (
	"context"
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/hr_portal/internal/service"
	"github.com/Skotchmaster/hr_portal/pkg/logging"
	"github.com/Skotchmaster/hr_portal/pkg/tokens"
)

type Refresher interface {
	RefreshToken(ctx context.Context, raw, ip string) (*service.AuthResult, error)
}

// AutoRefresh rotates a cookie session whose access token is gone or expired
// using the refresh cookie, then hands the new access token to Authorize as a
// bearer header. Requests that already carry an Authorization header pass
// through untouched. A failed rotation clears both cookies and leaves the
// rejection to Authorize.
func (a *Authorizer) AutoRefresh(r Refresher, cookieSecure bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if a.Disabled || req.Header.Get(echo.HeaderAuthorization) != "" {
				return next(c)
			}
			if ck, err := c.Cookie(tokens.AccessCookie); err == nil && ck.Value != "" {
				if _, err := tokens.AccessClaimsFromToken(ck.Value, a.Secret); !errors.Is(err, tokens.ErrExpired) {
					return next(c)
				}
			}
			ck, err := c.Cookie(tokens.RefreshCookie)
			if err != nil || ck.Value == "" {
				return next(c)
			}

			l := logging.FromContext(req.Context())
			res, err := r.RefreshToken(req.Context(), ck.Value, c.RealIP())
			if err != nil {
				l.Info("session_refresh_failed", "error", err)
				c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/", cookieSecure))
				c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookie, "/", cookieSecure))
				return next(c)
			}

			c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, res.AccessToken, "/", res.AccessExpires, cookieSecure))
			c.SetCookie(tokens.CreateCookie(tokens.RefreshCookie, res.RefreshToken, "/", res.RefreshExpires, cookieSecure))
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+res.AccessToken)
			l.Info("session_refreshed", "account_id", res.Account.ID)
			return next(c)
		}
	}
}
