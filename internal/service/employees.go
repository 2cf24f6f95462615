package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/hr_portal/internal/metrics"
	"github.com/Skotchmaster/hr_portal/internal/models"
	"github.com/Skotchmaster/hr_portal/internal/mykafka"
	"github.com/Skotchmaster/hr_portal/internal/repo"
	"github.com/Skotchmaster/hr_portal/internal/search"
	"github.com/Skotchmaster/hr_portal/internal/util"
	"github.com/Skotchmaster/hr_portal/pkg/logging"
)

const unknownDepartment = "Unknown"

type EmployeeService struct {
	Repo *repo.GormRepo
	// Index is optional. Without it search runs against the database.
	Index  search.Index
	Events mykafka.Publisher
}

type EmployeeInput struct {
	EmployeeID   string
	Position     string
	DepartmentID *uint
	HireDate     time.Time
	Status       string
	UserID       uint
}

type EmployeePatch struct {
	EmployeeID   *string
	Position     *string
	DepartmentID *uint
	HireDate     *time.Time
	Status       *string
	UserID       *uint
}

type EmployeeSearchResult struct {
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Size  int               `json:"size"`
	Items []models.Employee `json:"items"`
}

func (s *EmployeeService) checkDepartment(ctx context.Context, id *uint) error {
	if id == nil {
		return nil
	}
	if _, err := s.Repo.GetDepartment(ctx, *id); err != nil {
		if repo.IsNotFound(err) {
			return validationf("department %d does not exist", *id)
		}
		return fmt.Errorf("load department: %w", err)
	}
	return nil
}

func (s *EmployeeService) checkUser(ctx context.Context, userID, excludeID uint) error {
	if userID == 0 {
		return validationf("userId is required")
	}
	if _, err := s.Repo.GetAccountByID(ctx, userID); err != nil {
		if repo.IsNotFound(err) {
			return validationf("userId %d does not reference an existing account", userID)
		}
		return fmt.Errorf("load account: %w", err)
	}
	has, err := s.Repo.AccountHasEmployee(ctx, userID, excludeID)
	if err != nil {
		return fmt.Errorf("check account employee: %w", err)
	}
	if has {
		return conflictf("account %d already has an employee record", userID)
	}
	return nil
}

func (s *EmployeeService) checkCode(ctx context.Context, code string, excludeID uint) error {
	if code == "" {
		return validationf("employeeId is required")
	}
	taken, err := s.Repo.EmployeeCodeTaken(ctx, code, excludeID)
	if err != nil {
		return fmt.Errorf("check employee id: %w", err)
	}
	if taken {
		return conflictf("employeeId %q is already in use", code)
	}
	return nil
}

func (s *EmployeeService) Create(ctx context.Context, in EmployeeInput) (*models.Employee, error) {
	e := &models.Employee{
		EmployeeID:   strings.TrimSpace(in.EmployeeID),
		Position:     strings.TrimSpace(in.Position),
		DepartmentID: in.DepartmentID,
		HireDate:     in.HireDate,
		Status:       in.Status,
		UserID:       in.UserID,
	}
	if e.Status == "" {
		e.Status = models.StatusActive
	}
	if !validAccountStatus(e.Status) {
		return nil, validationf("status must be %s or %s", models.StatusActive, models.StatusInactive)
	}
	if e.Position == "" {
		return nil, validationf("position is required")
	}
	if e.HireDate.IsZero() {
		e.HireDate = time.Now().UTC()
	}
	if err := s.checkCode(ctx, e.EmployeeID, 0); err != nil {
		return nil, err
	}
	if err := s.checkUser(ctx, e.UserID, 0); err != nil {
		return nil, err
	}
	if err := s.checkDepartment(ctx, e.DepartmentID); err != nil {
		return nil, err
	}

	if err := s.Repo.CreateEmployee(ctx, e); err != nil {
		if repo.IsDuplicate(err) {
			return nil, conflictf("employee already exists")
		}
		return nil, fmt.Errorf("create employee: %w", err)
	}

	created, err := s.GetByID(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	s.reindex(ctx, created)
	logging.FromContext(ctx).Info("employee_created", "employee_id", created.ID)
	publish(ctx, s.Events, mykafka.TopicEmployeeEvents, created.ID, "employee.created", map[string]any{
		"employee_id": created.ID,
		"user_id":     created.UserID,
	})
	return created, nil
}

func (s *EmployeeService) GetAll(ctx context.Context, f repo.EmployeeFilter) ([]models.Employee, error) {
	out, err := s.Repo.ListEmployees(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return out, nil
}

func (s *EmployeeService) GetByID(ctx context.Context, id uint) (*models.Employee, error) {
	e, err := s.Repo.GetEmployee(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, notFoundf("employee %d", id)
		}
		return nil, fmt.Errorf("load employee: %w", err)
	}
	return e, nil
}

func (s *EmployeeService) GetByAccount(ctx context.Context, userID uint) (*models.Employee, error) {
	e, err := s.Repo.GetEmployeeByUserID(ctx, userID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, notFoundf("no employee record for account %d", userID)
		}
		return nil, fmt.Errorf("load employee: %w", err)
	}
	return e, nil
}

func (s *EmployeeService) Update(ctx context.Context, id uint, p EmployeePatch) (*models.Employee, error) {
	e, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.EmployeeID != nil {
		code := strings.TrimSpace(*p.EmployeeID)
		if code != e.EmployeeID {
			if err := s.checkCode(ctx, code, e.ID); err != nil {
				return nil, err
			}
			e.EmployeeID = code
		}
	}
	if p.Position != nil {
		pos := strings.TrimSpace(*p.Position)
		if pos == "" {
			return nil, validationf("position must not be empty")
		}
		e.Position = pos
	}
	if p.DepartmentID != nil {
		if err := s.checkDepartment(ctx, p.DepartmentID); err != nil {
			return nil, err
		}
		e.DepartmentID = p.DepartmentID
	}
	if p.HireDate != nil {
		e.HireDate = *p.HireDate
	}
	if p.Status != nil {
		if !validAccountStatus(*p.Status) {
			return nil, validationf("status must be %s or %s", models.StatusActive, models.StatusInactive)
		}
		e.Status = *p.Status
	}
	if p.UserID != nil && *p.UserID != e.UserID {
		if err := s.checkUser(ctx, *p.UserID, e.ID); err != nil {
			return nil, err
		}
		e.UserID = *p.UserID
	}

	e.Department, e.User = nil, nil
	if err := s.Repo.UpdateEmployee(ctx, e); err != nil {
		if repo.IsDuplicate(err) {
			return nil, conflictf("employee already exists")
		}
		return nil, fmt.Errorf("update employee: %w", err)
	}

	updated, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.reindex(ctx, updated)
	return updated, nil
}

// Delete removes the employee with its requests, items and workflows.
func (s *EmployeeService) Delete(ctx context.Context, id uint) error {
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		return tx.DeleteEmployeeCascade(ctx, id)
	})
	if err != nil {
		if repo.IsNotFound(err) {
			return notFoundf("employee %d", id)
		}
		return fmt.Errorf("delete employee: %w", err)
	}

	if s.Index != nil {
		if err := s.Index.DeleteEmployee(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("index_delete_failed", "employee_id", id, "error", err)
		}
	}
	logging.FromContext(ctx).Info("employee_deleted", "employee_id", id)
	publish(ctx, s.Events, mykafka.TopicEmployeeEvents, id, "employee.deleted", map[string]any{"employee_id": id})
	return nil
}

// Search prefers the search index and falls back to a database match when
// the index is missing or failing.
func (s *EmployeeService) Search(ctx context.Context, q string, page, size int) (*EmployeeSearchResult, error) {
	page, size = util.Normalize(page, size)
	from, limit := util.Calculate(page, size)
	res := &EmployeeSearchResult{Page: page, Size: size, Items: []models.Employee{}}

	if strings.TrimSpace(q) == "" {
		return res, nil
	}

	if s.Index != nil {
		total, ids, err := s.Index.SearchEmployees(ctx, q, from, limit)
		if err == nil {
			items, err := s.Repo.GetEmployeesByIDs(ctx, ids)
			if err != nil {
				return nil, fmt.Errorf("load employees: %w", err)
			}
			res.Total = total
			res.Items = orderByIDs(items, ids)
			return res, nil
		}
		logging.FromContext(ctx).Warn("index_search_failed", "error", err)
	}

	items, total, err := s.Repo.SearchEmployees(ctx, q, from, limit)
	if err != nil {
		return nil, fmt.Errorf("search employees: %w", err)
	}
	res.Total = total
	res.Items = items
	return res, nil
}

func orderByIDs(items []models.Employee, ids []uint) []models.Employee {
	byID := make(map[uint]models.Employee, len(items))
	for _, e := range items {
		byID[e.ID] = e
	}
	out := make([]models.Employee, 0, len(ids))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Transfer moves the employee and records exactly one "Department Transfer"
// workflow. When the destination does not exist the workflow is still
// committed, as Rejected, and a validation error is returned.
func (s *EmployeeService) Transfer(ctx context.Context, id, departmentID uint) (*models.Workflow, error) {
	l := logging.FromContext(ctx).With("svc", "employee.transfer", "employee_id", id)

	e, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := unknownDepartment
	if e.Department != nil {
		from = e.Department.Name
	}

	to := unknownDepartment
	dest, err := s.Repo.GetDepartment(ctx, departmentID)
	switch {
	case err == nil:
		to = dest.Name
	case repo.IsNotFound(err):
		dest = nil
	default:
		l.Warn("transfer_lookup_failed", "department_id", departmentID, "error", err)
		dest = nil
	}

	wf := &models.Workflow{
		Type:       models.WorkflowDepartmentTransfer,
		EmployeeID: e.ID,
		Status:     models.StatusPending,
		Details: map[string]any{
			"task":             fmt.Sprintf("Employee transferred from %s to %s", from, to),
			"fromDepartmentId": e.DepartmentID,
			"toDepartmentId":   departmentID,
		},
	}
	if dest == nil {
		wf.Status = models.StatusRejected
	}

	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if dest != nil {
			if err := tx.SetEmployeeDepartment(ctx, e.ID, dest.ID); err != nil {
				return err
			}
		}
		return tx.CreateWorkflow(ctx, wf)
	})
	if err != nil {
		return nil, fmt.Errorf("transfer employee: %w", err)
	}
	metrics.ObserveTransfer(wf.Status)

	if dest == nil {
		l.Warn("transfer_rejected", "department_id", departmentID, "workflow_id", wf.ID)
		return nil, validationf("department %d does not exist", departmentID)
	}

	l.Info("transfer_recorded", "from", from, "to", to, "workflow_id", wf.ID)
	if moved, err := s.GetByID(ctx, e.ID); err == nil {
		s.reindex(ctx, moved)
	}
	publish(ctx, s.Events, mykafka.TopicEmployeeEvents, e.ID, "employee.transferred", map[string]any{
		"employee_id":        e.ID,
		"from_department_id": e.DepartmentID,
		"to_department_id":   dest.ID,
		"workflow_id":        wf.ID,
	})
	return wf, nil
}

func (s *EmployeeService) reindex(ctx context.Context, e *models.Employee) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexEmployee(ctx, search.DocumentFromEmployee(e)); err != nil {
		logging.FromContext(ctx).Warn("index_update_failed", "employee_id", e.ID, "error", err)
	}
}

// Reindex pushes every employee to the search index.
func (s *EmployeeService) Reindex(ctx context.Context) (int, error) {
	if s.Index == nil {
		return 0, nil
	}
	all, err := s.Repo.ListEmployees(ctx, repo.EmployeeFilter{})
	if err != nil {
		return 0, fmt.Errorf("list employees: %w", err)
	}
	for i := range all {
		if err := s.Index.IndexEmployee(ctx, search.DocumentFromEmployee(&all[i])); err != nil {
			return i, err
		}
	}
	return len(all), nil
}
