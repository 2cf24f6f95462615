package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/hr_portal/internal/service"
	"github.com/Skotchmaster/hr_portal/internal/transport"
)

type DepartmentHandler struct {
	Departments *service.DepartmentService
}

func (h *DepartmentHandler) GetAll(c echo.Context) error {
	out, err := h.Departments.GetAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *DepartmentHandler) GetByID(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.Departments.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *DepartmentHandler) Create(c echo.Context) error {
	var req transport.DepartmentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	d, err := h.Departments.Create(c.Request().Context(), service.DepartmentInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *DepartmentHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req transport.UpdateDepartmentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	d, err := h.Departments.Update(c.Request().Context(), id, service.DepartmentPatch{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *DepartmentHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Departments.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Department deleted successfully"})
}
