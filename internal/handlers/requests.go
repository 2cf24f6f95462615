package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/hr_portal/internal/models"
	"github.com/Skotchmaster/hr_portal/internal/repo"
	"github.com/Skotchmaster/hr_portal/internal/service"
	"github.com/Skotchmaster/hr_portal/internal/transport"
)

// RequestHandler scopes non-admin callers to the requests of their own
// employee record. Only admins change status.
type RequestHandler struct {
	Requests    *service.RequestService
	Employees   *service.EmployeeService
	Maintenance *service.MaintenanceService
}

// ownEmployee returns the caller's employee id, or 0 for admins.
func (h *RequestHandler) ownEmployee(c echo.Context, acc *models.Account) (uint, error) {
	if acc.IsAdmin() {
		return 0, nil
	}
	e, err := h.Employees.GetByAccount(c.Request().Context(), acc.ID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return 0, forbidden("no employee record for this account")
		}
		return 0, err
	}
	return e.ID, nil
}

// load fetches :id and enforces ownership.
func (h *RequestHandler) load(c echo.Context) (*models.Request, *models.Account, uint, error) {
	acc, err := current(c)
	if err != nil {
		return nil, nil, 0, err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return nil, nil, 0, err
	}
	own, err := h.ownEmployee(c, acc)
	if err != nil {
		return nil, nil, 0, err
	}
	req, err := h.Requests.GetByID(c.Request().Context(), id)
	if err != nil {
		return nil, nil, 0, err
	}
	if own != 0 && req.EmployeeID != own {
		return nil, nil, 0, forbidden("not your request")
	}
	return req, acc, own, nil
}

func (h *RequestHandler) GetAll(c echo.Context) error {
	acc, err := current(c)
	if err != nil {
		return err
	}
	employeeID, err := optionalUint(c, "employeeId")
	if err != nil {
		return err
	}
	if !acc.IsAdmin() {
		e, err := h.Employees.GetByAccount(c.Request().Context(), acc.ID)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return c.JSON(http.StatusOK, []models.Request{})
			}
			return err
		}
		employeeID = &e.ID
	}

	out, err := h.Requests.GetAll(c.Request().Context(), repo.RequestFilter{
		EmployeeID: employeeID,
		Status:     c.QueryParam("status"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *RequestHandler) GetByID(c echo.Context) error {
	req, _, _, err := h.load(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, req)
}

func (h *RequestHandler) Create(c echo.Context) error {
	acc, err := current(c)
	if err != nil {
		return err
	}
	var body transport.CreateRequestRequest
	if err := bind(c, &body); err != nil {
		return err
	}

	own, err := h.ownEmployee(c, acc)
	if err != nil {
		return err
	}
	if own != 0 {
		if body.EmployeeID != 0 && body.EmployeeID != own {
			return forbidden("requests can only be created for your own employee record")
		}
		if body.Status != "" && models.NormalizeRequestStatus(body.Status) != models.StatusPending {
			return forbidden("only admins set request status")
		}
		body.EmployeeID = own
	}

	req, err := h.Requests.Create(c.Request().Context(), body.Input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, req)
}

func (h *RequestHandler) Update(c echo.Context) error {
	existing, _, own, err := h.load(c)
	if err != nil {
		return err
	}
	var body transport.UpdateRequestRequest
	if err := bind(c, &body); err != nil {
		return err
	}
	if own != 0 {
		if body.Status != nil && models.NormalizeRequestStatus(*body.Status) != existing.Status {
			return forbidden("only admins change request status")
		}
		if body.EmployeeID != nil && *body.EmployeeID != own {
			return forbidden("requests cannot be moved to another employee")
		}
	}

	req, err := h.Requests.Update(c.Request().Context(), existing.ID, body.Patch())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, req)
}

func (h *RequestHandler) Delete(c echo.Context) error {
	req, _, _, err := h.load(c)
	if err != nil {
		return err
	}
	if err := h.Requests.Delete(c.Request().Context(), req.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Request deleted successfully"})
}

func (h *RequestHandler) Deduplicate(c echo.Context) error {
	var body transport.DedupeRequest
	if err := bind(c, &body); err != nil {
		return err
	}
	window := time.Duration(body.WindowSeconds) * time.Second
	report, err := h.Maintenance.Deduplicate(c.Request().Context(), window)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

func (h *RequestHandler) DeleteAll(c echo.Context) error {
	n, err := h.Maintenance.DeleteAllRequests(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.DeletedResponse{Message: "All requests deleted", Count: n})
}

func (h *RequestHandler) Repair(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var body transport.RepairRequest
	if err := bind(c, &body); err != nil {
		return err
	}
	report, err := h.Maintenance.RepairRequest(c.Request().Context(), id, body.EmployeeID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

func (h *RequestHandler) Orphans(c echo.Context) error {
	report, err := h.Maintenance.ScanOrphans(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}
