package repo

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/hr_portal/internal/models"
)

func (r *GormRepo) CreateDepartment(ctx context.Context, d *models.Department) error {
	return r.DB.WithContext(ctx).Create(d).Error
}

func (r *GormRepo) GetDepartment(ctx context.Context, id uint) (*models.Department, error) {
	var d models.Department
	if err := r.DB.WithContext(ctx).First(&d, id).Error; err != nil {
		return nil, err
	}
	counts, err := r.departmentEmployeeCounts(ctx, id)
	if err != nil {
		return nil, err
	}
	d.EmployeeCount = counts[d.ID]
	return &d, nil
}

func (r *GormRepo) ListDepartments(ctx context.Context) ([]models.Department, error) {
	var out []models.Department
	if err := r.DB.WithContext(ctx).Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	counts, err := r.departmentEmployeeCounts(ctx, 0)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].EmployeeCount = counts[out[i].ID]
	}
	return out, nil
}

func (r *GormRepo) departmentEmployeeCounts(ctx context.Context, id uint) (map[uint]int64, error) {
	var rows []struct {
		DepartmentID uint
		Total        int64
	}
	q := r.DB.WithContext(ctx).
		Model(&models.Employee{}).
		Select("department_id, COUNT(*) AS total").
		Where("department_id IS NOT NULL")
	if id != 0 {
		q = q.Where("department_id = ?", id)
	}
	if err := q.Group("department_id").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]int64, len(rows))
	for _, row := range rows {
		out[row.DepartmentID] = row.Total
	}
	return out, nil
}

func (r *GormRepo) DepartmentNameTaken(ctx context.Context, name string, excludeID uint) (bool, error) {
	var n int64
	q := r.DB.WithContext(ctx).Model(&models.Department{}).Where("LOWER(name) = LOWER(?)", name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&n).Error
	return n > 0, err
}

func (r *GormRepo) UpdateDepartment(ctx context.Context, d *models.Department) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Save(d).Error
}

// DetachDepartmentEmployees clears the department of every member. It is the
// explicit form of the ON DELETE SET NULL rule for stores without it.
func (r *GormRepo) DetachDepartmentEmployees(ctx context.Context, id uint) (int64, error) {
	tx := r.DB.WithContext(ctx).
		Model(&models.Employee{}).
		Where("department_id = ?", id).
		Update("department_id", nil)
	return tx.RowsAffected, tx.Error
}

func (r *GormRepo) DeleteDepartment(ctx context.Context, id uint) error {
	return affected(r.DB.WithContext(ctx).Delete(&models.Department{}, id))
}
