package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/hr_portal/internal/service"
	"github.com/Skotchmaster/hr_portal/internal/transport"
	"github.com/Skotchmaster/hr_portal/pkg/tokens"
)

type AuthHandler struct {
	Auth         *service.AuthService
	CookieSecure bool
}

func (h *AuthHandler) setTokenCookies(c echo.Context, res *service.AuthResult) {
	c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, res.AccessToken, "/", res.AccessExpires, h.CookieSecure))
	c.SetCookie(tokens.CreateCookie(tokens.RefreshCookie, res.RefreshToken, "/", res.RefreshExpires, h.CookieSecure))
}

func (h *AuthHandler) clearTokenCookies(c echo.Context) {
	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/", h.CookieSecure))
	c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookie, "/", h.CookieSecure))
}

// refreshFrom prefers the token in the body over the cookie.
func refreshFrom(c echo.Context, body transport.TokenRequest) string {
	if body.Token != "" {
		return body.Token
	}
	if ck, err := c.Cookie(tokens.RefreshCookie); err == nil {
		return ck.Value
	}
	return ""
}

func (h *AuthHandler) Authenticate(c echo.Context) error {
	var req transport.AuthenticateRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	res, err := h.Auth.Authenticate(c.Request().Context(), req.Email, req.Password, c.RealIP())
	if err != nil {
		return err
	}

	h.setTokenCookies(c, res)
	return c.JSON(http.StatusOK, transport.AuthResponse{Account: res.Account, JWTToken: res.AccessToken})
}

func (h *AuthHandler) RefreshToken(c echo.Context) error {
	var req transport.TokenRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	res, err := h.Auth.RefreshToken(c.Request().Context(), refreshFrom(c, req), c.RealIP())
	if err != nil {
		return err
	}

	h.setTokenCookies(c, res)
	return c.JSON(http.StatusOK, transport.AuthResponse{Account: res.Account, JWTToken: res.AccessToken})
}

// RevokeToken lets users revoke their own refresh tokens. Admins may revoke
// anyone's.
func (h *AuthHandler) RevokeToken(c echo.Context) error {
	acc, err := current(c)
	if err != nil {
		return err
	}
	var req transport.TokenRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	raw := refreshFrom(c, req)
	if raw == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Token is required")
	}

	ctx := c.Request().Context()
	owner, err := h.Auth.TokenOwner(ctx, raw)
	if err != nil {
		return err
	}
	if owner != acc.ID && !acc.IsAdmin() {
		return forbidden("token belongs to another account")
	}

	if err := h.Auth.RevokeToken(ctx, raw, c.RealIP()); err != nil {
		return err
	}
	if req.Token == "" {
		h.clearTokenCookies(c)
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Token revoked"})
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req transport.RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	origin := c.Request().Header.Get(echo.HeaderOrigin)
	if _, err := h.Auth.Register(c.Request().Context(), req.Params(), origin); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{
		Message: "Registration successful, please check your email for verification instructions",
	})
}

func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req transport.RequiredTokenRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.Auth.VerifyEmail(c.Request().Context(), req.Token); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Verification successful, you can now login"})
}

func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req transport.ForgotPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	origin := c.Request().Header.Get(echo.HeaderOrigin)
	if err := h.Auth.ForgotPassword(c.Request().Context(), req.Email, origin); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{
		Message: "Please check your email for password reset instructions",
	})
}

func (h *AuthHandler) ValidateResetToken(c echo.Context) error {
	var req transport.RequiredTokenRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.Auth.ValidateResetToken(c.Request().Context(), req.Token); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Token is valid"})
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req transport.ResetPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.Auth.ResetPassword(c.Request().Context(), req.Token, req.Password, c.RealIP()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Password reset successful, you can now login"})
}

// Me returns the authenticated account.
func (h *AuthHandler) Me(c echo.Context) error {
	acc, err := current(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, acc)
}
