package repo

import (
	"context"

	"github.com/Skotchmaster/hr_portal/internal/models"
)

// OrphanedRequests lists requests whose employee row is gone. Only data loaded
// around the foreign keys can produce them.
func (r *GormRepo) OrphanedRequests(ctx context.Context) ([]models.Request, error) {
	var out []models.Request
	err := r.DB.WithContext(ctx).
		Joins("LEFT JOIN employees ON employees.id = requests.employee_id").
		Where("employees.id IS NULL").
		Order("requests.id").
		Find(&out).Error
	return out, err
}

func (r *GormRepo) OrphanedWorkflows(ctx context.Context) ([]models.Workflow, error) {
	var out []models.Workflow
	err := r.DB.WithContext(ctx).
		Joins("LEFT JOIN employees ON employees.id = workflows.employee_id").
		Where("employees.id IS NULL").
		Order("workflows.id").
		Find(&out).Error
	return out, err
}
