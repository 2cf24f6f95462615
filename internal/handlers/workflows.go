package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/hr_portal/internal/repo"
	"github.com/Skotchmaster/hr_portal/internal/service"
	"github.com/Skotchmaster/hr_portal/internal/transport"
)

type WorkflowHandler struct {
	Workflows *service.WorkflowService
	Employees *service.EmployeeService
}

// canSee reports whether the caller is an admin or the employee itself.
func (h *WorkflowHandler) canSee(c echo.Context, employeeID uint) error {
	acc, err := current(c)
	if err != nil {
		return err
	}
	if acc.IsAdmin() {
		return nil
	}
	e, err := h.Employees.GetByAccount(c.Request().Context(), acc.ID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return forbidden("no employee record for this account")
		}
		return err
	}
	if e.ID != employeeID {
		return forbidden("not your workflow")
	}
	return nil
}

func (h *WorkflowHandler) GetAll(c echo.Context) error {
	employeeID, err := optionalUint(c, "employeeId")
	if err != nil {
		return err
	}
	out, err := h.Workflows.GetAll(c.Request().Context(), repo.WorkflowFilter{
		EmployeeID: employeeID,
		Status:     c.QueryParam("status"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *WorkflowHandler) GetByEmployee(c echo.Context) error {
	employeeID, err := pathID(c, "employeeId")
	if err != nil {
		return err
	}
	if err := h.canSee(c, employeeID); err != nil {
		return err
	}
	out, err := h.Workflows.GetByEmployee(c.Request().Context(), employeeID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *WorkflowHandler) GetByID(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	wf, err := h.Workflows.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if err := h.canSee(c, wf.EmployeeID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, wf)
}

func (h *WorkflowHandler) Create(c echo.Context) error {
	var req transport.WorkflowRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	wf, err := h.Workflows.Create(c.Request().Context(), req.Input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, wf)
}

func (h *WorkflowHandler) UpdateStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req transport.WorkflowStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	wf, err := h.Workflows.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, wf)
}

func (h *WorkflowHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Workflows.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Workflow deleted successfully"})
}
