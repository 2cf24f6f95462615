package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Skotchmaster/hr_portal/internal/models"
	"github.com/Skotchmaster/hr_portal/internal/repo"
	"github.com/Skotchmaster/hr_portal/pkg/logging"
)

type DepartmentService struct {
	Repo *repo.GormRepo
}

type DepartmentInput struct {
	Name        string
	Description string
}

type DepartmentPatch struct {
	Name        *string
	Description *string
}

func (s *DepartmentService) checkName(ctx context.Context, name string, excludeID uint) error {
	if name == "" {
		return validationf("department name is required")
	}
	taken, err := s.Repo.DepartmentNameTaken(ctx, name, excludeID)
	if err != nil {
		return fmt.Errorf("check department name: %w", err)
	}
	if taken {
		return conflictf("department %q already exists", name)
	}
	return nil
}

func (s *DepartmentService) Create(ctx context.Context, in DepartmentInput) (*models.Department, error) {
	d := &models.Department{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
	}
	if err := s.checkName(ctx, d.Name, 0); err != nil {
		return nil, err
	}
	if err := s.Repo.CreateDepartment(ctx, d); err != nil {
		if repo.IsDuplicate(err) {
			return nil, conflictf("department %q already exists", d.Name)
		}
		return nil, fmt.Errorf("create department: %w", err)
	}
	logging.FromContext(ctx).Info("department_created", "department_id", d.ID)
	return d, nil
}

func (s *DepartmentService) GetAll(ctx context.Context) ([]models.Department, error) {
	out, err := s.Repo.ListDepartments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return out, nil
}

func (s *DepartmentService) GetByID(ctx context.Context, id uint) (*models.Department, error) {
	d, err := s.Repo.GetDepartment(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, notFoundf("department %d", id)
		}
		return nil, fmt.Errorf("load department: %w", err)
	}
	return d, nil
}

func (s *DepartmentService) Update(ctx context.Context, id uint, p DepartmentPatch) (*models.Department, error) {
	d, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name != d.Name {
			if err := s.checkName(ctx, name, d.ID); err != nil {
				return nil, err
			}
			d.Name = name
		}
	}
	if p.Description != nil {
		d.Description = strings.TrimSpace(*p.Description)
	}
	if err := s.Repo.UpdateDepartment(ctx, d); err != nil {
		if repo.IsDuplicate(err) {
			return nil, conflictf("department %q already exists", d.Name)
		}
		return nil, fmt.Errorf("update department: %w", err)
	}
	return d, nil
}

// Delete detaches the members and removes the department atomically.
func (s *DepartmentService) Delete(ctx context.Context, id uint) error {
	var detached int64
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		n, err := tx.DetachDepartmentEmployees(ctx, id)
		if err != nil {
			return err
		}
		detached = n
		return tx.DeleteDepartment(ctx, id)
	})
	if err != nil {
		if repo.IsNotFound(err) {
			return notFoundf("department %d", id)
		}
		return fmt.Errorf("delete department: %w", err)
	}
	logging.FromContext(ctx).Info("department_deleted", "department_id", id, "employees_detached", detached)
	return nil
}
