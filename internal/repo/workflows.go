package repo

import (
	"context"

	"github.com/Skotchmaster/hr_portal/internal/models"
)

type WorkflowFilter struct {
	EmployeeID *uint
	Status     string
}

func (r *GormRepo) CreateWorkflow(ctx context.Context, w *models.Workflow) error {
	return r.DB.WithContext(ctx).Omit("Employee").Create(w).Error
}

func (r *GormRepo) GetWorkflow(ctx context.Context, id uint) (*models.Workflow, error) {
	var w models.Workflow
	if err := r.DB.WithContext(ctx).First(&w, id).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *GormRepo) ListWorkflows(ctx context.Context, f WorkflowFilter) ([]models.Workflow, error) {
	q := r.DB.WithContext(ctx)
	if f.EmployeeID != nil {
		q = q.Where("employee_id = ?", *f.EmployeeID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var out []models.Workflow
	err := q.Order("id").Find(&out).Error
	return out, err
}

func (r *GormRepo) CountWorkflows(ctx context.Context, employeeID uint, typ string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).
		Model(&models.Workflow{}).
		Where("employee_id = ? AND type = ?", employeeID, typ).
		Count(&n).Error
	return n, err
}

func (r *GormRepo) UpdateWorkflowStatus(ctx context.Context, id uint, status string) error {
	return affected(r.DB.WithContext(ctx).
		Model(&models.Workflow{}).
		Where("id = ?", id).
		Update("status", status))
}

func (r *GormRepo) DeleteWorkflow(ctx context.Context, id uint) error {
	return affected(r.DB.WithContext(ctx).Delete(&models.Workflow{}, id))
}
