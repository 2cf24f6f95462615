package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Skotchmaster/hr_portal/internal/models"
	"github.com/Skotchmaster/hr_portal/internal/repo"
	"github.com/Skotchmaster/hr_portal/pkg/logging"
)

type WorkflowService struct {
	Repo *repo.GormRepo
}

type WorkflowInput struct {
	Type       string
	Details    map[string]any
	Status     string
	EmployeeID uint
}

func (s *WorkflowService) Create(ctx context.Context, in WorkflowInput) (*models.Workflow, error) {
	typ := strings.TrimSpace(in.Type)
	if typ == "" {
		return nil, validationf("type is required")
	}
	status := models.StatusPending
	if in.Status != "" {
		var err error
		if status, err = requestStatus(in.Status); err != nil {
			return nil, err
		}
	}
	ok, err := s.Repo.EmployeeExists(ctx, in.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("check employee: %w", err)
	}
	if !ok {
		return nil, notFoundf("employee %d", in.EmployeeID)
	}

	details := in.Details
	if details == nil {
		details = map[string]any{}
	}
	wf := &models.Workflow{
		Type:       typ,
		Details:    details,
		Status:     status,
		EmployeeID: in.EmployeeID,
	}
	if err := s.Repo.CreateWorkflow(ctx, wf); err != nil {
		return nil, fmt.Errorf("create workflow: %w", err)
	}
	logging.FromContext(ctx).Info("workflow_created", "workflow_id", wf.ID, "type", wf.Type)
	return wf, nil
}

func (s *WorkflowService) GetAll(ctx context.Context, f repo.WorkflowFilter) ([]models.Workflow, error) {
	out, err := s.Repo.ListWorkflows(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	return out, nil
}

func (s *WorkflowService) GetByEmployee(ctx context.Context, employeeID uint) ([]models.Workflow, error) {
	return s.GetAll(ctx, repo.WorkflowFilter{EmployeeID: &employeeID})
}

func (s *WorkflowService) GetByID(ctx context.Context, id uint) (*models.Workflow, error) {
	wf, err := s.Repo.GetWorkflow(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, notFoundf("workflow %d", id)
		}
		return nil, fmt.Errorf("load workflow: %w", err)
	}
	return wf, nil
}

func (s *WorkflowService) UpdateStatus(ctx context.Context, id uint, status string) (*models.Workflow, error) {
	st, err := requestStatus(status)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.UpdateWorkflowStatus(ctx, id, st); err != nil {
		if repo.IsNotFound(err) {
			return nil, notFoundf("workflow %d", id)
		}
		return nil, fmt.Errorf("update workflow: %w", err)
	}
	logging.FromContext(ctx).Info("workflow_status_changed", "workflow_id", id, "status", st)
	return s.GetByID(ctx, id)
}

func (s *WorkflowService) Delete(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteWorkflow(ctx, id); err != nil {
		if repo.IsNotFound(err) {
			return notFoundf("workflow %d", id)
		}
		return fmt.Errorf("delete workflow: %w", err)
	}
	return nil
}
