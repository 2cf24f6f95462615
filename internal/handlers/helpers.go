package handlers

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/hr_portal/internal/middleware/auth"
	"github.com/Skotchmaster/hr_portal/internal/models"
	"github.com/Skotchmaster/hr_portal/internal/service"
)

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func parseUint(s, name string) (uint, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", service.ErrValidation, name)
	}
	return uint(v), nil
}

func pathID(c echo.Context, name string) (uint, error) {
	return parseUint(c.Param(name), name)
}

// optionalUint reads an optional numeric query parameter.
func optionalUint(c echo.Context, name string) (*uint, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := parseUint(raw, name)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// bind decodes the body and runs the validate tags.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return fmt.Errorf("%w: malformed request body", service.ErrValidation)
	}
	return c.Validate(dst)
}

func forbidden(msg string) error {
	return fmt.Errorf("%w: %s", service.ErrForbidden, msg)
}

func current(c echo.Context) (*models.Account, error) {
	acc := auth.CurrentAccount(c)
	if acc == nil {
		return nil, service.ErrUnauthenticated
	}
	return acc, nil
}
