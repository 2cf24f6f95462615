package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/hr_portal/internal/models"
	"github.com/Skotchmaster/hr_portal/internal/service"
	"github.com/Skotchmaster/hr_portal/internal/transport"
)

type AccountHandler struct {
	Accounts *service.AccountService
}

// ownerOrAdmin resolves the :id parameter and checks the caller may act on it.
func ownerOrAdmin(c echo.Context) (uint, *models.Account, error) {
	acc, err := current(c)
	if err != nil {
		return 0, nil, err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return 0, nil, err
	}
	if id != acc.ID && !acc.IsAdmin() {
		return 0, nil, forbidden("not your account")
	}
	return id, acc, nil
}

func (h *AccountHandler) GetAll(c echo.Context) error {
	out, err := h.Accounts.GetAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AccountHandler) GetByID(c echo.Context) error {
	id, _, err := ownerOrAdmin(c)
	if err != nil {
		return err
	}
	acc, err := h.Accounts.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, acc)
}

func (h *AccountHandler) Create(c echo.Context) error {
	var req transport.CreateAccountRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	acc, err := h.Accounts.Create(c.Request().Context(), req.Input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, acc)
}

func (h *AccountHandler) Update(c echo.Context) error {
	id, caller, err := ownerOrAdmin(c)
	if err != nil {
		return err
	}
	var req transport.UpdateAccountRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if !req.PasswordsMatch() {
		return echo.NewHTTPError(http.StatusBadRequest, "confirmPassword must match password")
	}
	if !caller.IsAdmin() && (req.Role != nil || req.Status != nil) {
		return forbidden("only admins can change role or status")
	}

	acc, err := h.Accounts.Update(c.Request().Context(), id, req.Patch())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, acc)
}

func (h *AccountHandler) Delete(c echo.Context) error {
	id, _, err := ownerOrAdmin(c)
	if err != nil {
		return err
	}
	if err := h.Accounts.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Account deleted successfully"})
}
