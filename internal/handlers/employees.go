package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/hr_portal/internal/repo"
	"github.com/Skotchmaster/hr_portal/internal/service"
	"github.com/Skotchmaster/hr_portal/internal/transport"
	"github.com/Skotchmaster/hr_portal/internal/util"
)

type EmployeeHandler struct {
	Employees *service.EmployeeService
}

func (h *EmployeeHandler) GetAll(c echo.Context) error {
	deptID, err := optionalUint(c, "departmentId")
	if err != nil {
		return err
	}
	out, err := h.Employees.GetAll(c.Request().Context(), repo.EmployeeFilter{
		DepartmentID: deptID,
		Status:       c.QueryParam("status"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *EmployeeHandler) Search(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter q is required")
	}
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	res, err := h.Employees.Search(c.Request().Context(), q, page, size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// GetByID serves admins and the employee's own account.
func (h *EmployeeHandler) GetByID(c echo.Context) error {
	acc, err := current(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	e, err := h.Employees.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if e.UserID != acc.ID && !acc.IsAdmin() {
		return forbidden("not your employee record")
	}
	return c.JSON(http.StatusOK, e)
}

// Me returns the employee record of the caller.
func (h *EmployeeHandler) Me(c echo.Context) error {
	acc, err := current(c)
	if err != nil {
		return err
	}
	e, err := h.Employees.GetByAccount(c.Request().Context(), acc.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, e)
}

func (h *EmployeeHandler) Create(c echo.Context) error {
	var req transport.EmployeeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	e, err := h.Employees.Create(c.Request().Context(), req.Input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *EmployeeHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req transport.UpdateEmployeeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	e, err := h.Employees.Update(c.Request().Context(), id, req.Patch())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, e)
}

func (h *EmployeeHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Employees.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Employee deleted successfully"})
}

func (h *EmployeeHandler) Transfer(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req transport.TransferRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	wf, err := h.Employees.Transfer(c.Request().Context(), id, req.DepartmentID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, wf)
}
