package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/hr_portal/internal/models"
)

type EmployeeFilter struct {
	DepartmentID *uint
	Status       string
}

func (r *GormRepo) CreateEmployee(ctx context.Context, e *models.Employee) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(e).Error
}

func (r *GormRepo) GetEmployee(ctx context.Context, id uint) (*models.Employee, error) {
	var e models.Employee
	err := r.DB.WithContext(ctx).
		Preload("Department").
		Preload("User").
		First(&e, id).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *GormRepo) GetEmployeeByUserID(ctx context.Context, userID uint) (*models.Employee, error) {
	var e models.Employee
	err := r.DB.WithContext(ctx).
		Preload("Department").
		Where("user_id = ?", userID).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *GormRepo) EmployeeExists(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Employee{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *GormRepo) ListEmployees(ctx context.Context, f EmployeeFilter) ([]models.Employee, error) {
	q := r.DB.WithContext(ctx).Preload("Department").Preload("User")
	if f.DepartmentID != nil {
		q = q.Where("department_id = ?", *f.DepartmentID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var out []models.Employee
	err := q.Order("id").Find(&out).Error
	return out, err
}

func (r *GormRepo) EmployeeCodeTaken(ctx context.Context, code string, excludeID uint) (bool, error) {
	var n int64
	q := r.DB.WithContext(ctx).Model(&models.Employee{}).Where("employee_id = ?", code)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&n).Error
	return n > 0, err
}

func (r *GormRepo) AccountHasEmployee(ctx context.Context, userID uint, excludeID uint) (bool, error) {
	var n int64
	q := r.DB.WithContext(ctx).Model(&models.Employee{}).Where("user_id = ?", userID)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&n).Error
	return n > 0, err
}

func (r *GormRepo) UpdateEmployee(ctx context.Context, e *models.Employee) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Save(e).Error
}

func (r *GormRepo) SetEmployeeDepartment(ctx context.Context, id uint, departmentID uint) error {
	return affected(r.DB.WithContext(ctx).
		Model(&models.Employee{}).
		Where("id = ?", id).
		Update("department_id", departmentID))
}

// DeleteEmployeeCascade removes the employee with its requests, request items
// and workflows. Callers run it inside Transaction.
func (r *GormRepo) DeleteEmployeeCascade(ctx context.Context, id uint) error {
	db := r.DB.WithContext(ctx)

	requestIDs := db.Model(&models.Request{}).Select("id").Where("employee_id = ?", id)
	if err := db.Where("request_id IN (?)", requestIDs).Delete(&models.RequestItem{}).Error; err != nil {
		return err
	}
	if err := db.Where("employee_id = ?", id).Delete(&models.Request{}).Error; err != nil {
		return err
	}
	if err := db.Where("employee_id = ?", id).Delete(&models.Workflow{}).Error; err != nil {
		return err
	}
	return affected(db.Delete(&models.Employee{}, id))
}

// SearchEmployees does a case-insensitive substring match on the employee code,
// position and the linked account's name and email.
func (r *GormRepo) SearchEmployees(ctx context.Context, q string, from, limit int) ([]models.Employee, int64, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
	base := r.DB.WithContext(ctx).
		Model(&models.Employee{}).
		Joins("JOIN accounts ON accounts.id = employees.user_id").
		Where(
			"LOWER(employees.employee_id) LIKE ? OR LOWER(employees.position) LIKE ? OR "+
				"LOWER(accounts.first_name) LIKE ? OR LOWER(accounts.last_name) LIKE ? OR LOWER(accounts.email) LIKE ?",
			pattern, pattern, pattern, pattern, pattern,
		).
		Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []models.Employee
	err := base.
		Preload("Department").
		Preload("User").
		Order("employees.id").
		Offset(from).
		Limit(limit).
		Find(&out).Error
	return out, total, err
}

func (r *GormRepo) GetEmployeesByIDs(ctx context.Context, ids []uint) ([]models.Employee, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []models.Employee
	err := r.DB.WithContext(ctx).
		Preload("Department").
		Preload("User").
		Where("id IN ?", ids).
		Find(&out).Error
	return out, err
}
