package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/hr_portal/internal/models"
)

type RequestFilter struct {
	EmployeeID *uint
	Status     string
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("request_items.id")
}

// CreateRequest inserts the request together with its items.
func (r *GormRepo) CreateRequest(ctx context.Context, req *models.Request) error {
	return r.DB.WithContext(ctx).Omit("Employee").Create(req).Error
}

func (r *GormRepo) GetRequest(ctx context.Context, id uint) (*models.Request, error) {
	var req models.Request
	err := r.DB.WithContext(ctx).
		Preload("Items", orderedItems).
		Preload("Employee").
		Preload("Employee.User").
		First(&req, id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *GormRepo) ListRequests(ctx context.Context, f RequestFilter) ([]models.Request, error) {
	q := r.DB.WithContext(ctx).
		Preload("Items", orderedItems).
		Preload("Employee").
		Preload("Employee.User")
	if f.EmployeeID != nil {
		q = q.Where("employee_id = ?", *f.EmployeeID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var out []models.Request
	err := q.Order("id").Find(&out).Error
	return out, err
}

func (r *GormRepo) GetRequestItems(ctx context.Context, requestID uint) ([]models.RequestItem, error) {
	var out []models.RequestItem
	err := r.DB.WithContext(ctx).Where("request_id = ?", requestID).Order("id").Find(&out).Error
	return out, err
}

func (r *GormRepo) UpdateRequestRow(ctx context.Context, req *models.Request) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Save(req).Error
}

func (r *GormRepo) CreateRequestItems(ctx context.Context, items []models.RequestItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Create(&items).Error
}

func (r *GormRepo) UpdateRequestItem(ctx context.Context, item models.RequestItem) error {
	return affected(r.DB.WithContext(ctx).
		Model(&models.RequestItem{}).
		Where("id = ? AND request_id = ?", item.ID, item.RequestID).
		Updates(map[string]any{"name": item.Name, "quantity": item.Quantity}))
}

func (r *GormRepo) DeleteRequestItems(ctx context.Context, requestID uint, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).
		Where("request_id = ? AND id IN ?", requestID, ids).
		Delete(&models.RequestItem{}).Error
}

// DeleteRequest removes the items before the request row. Callers run it
// inside Transaction.
func (r *GormRepo) DeleteRequest(ctx context.Context, id uint) error {
	db := r.DB.WithContext(ctx)
	if err := db.Where("request_id = ?", id).Delete(&models.RequestItem{}).Error; err != nil {
		return err
	}
	return affected(db.Delete(&models.Request{}, id))
}

func (r *GormRepo) DeleteRequestsByIDs(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	db := r.DB.WithContext(ctx)
	if err := db.Where("request_id IN ?", ids).Delete(&models.RequestItem{}).Error; err != nil {
		return 0, err
	}
	tx := db.Where("id IN ?", ids).Delete(&models.Request{})
	return tx.RowsAffected, tx.Error
}

func (r *GormRepo) DeleteAllRequests(ctx context.Context) (int64, error) {
	db := r.DB.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	if err := db.Delete(&models.RequestItem{}).Error; err != nil {
		return 0, err
	}
	tx := db.Delete(&models.Request{})
	return tx.RowsAffected, tx.Error
}

// ListPendingRequests returns pending requests ordered for duplicate scanning.
func (r *GormRepo) ListPendingRequests(ctx context.Context) ([]models.Request, error) {
	var out []models.Request
	err := r.DB.WithContext(ctx).
		Where("status = ?", models.StatusPending).
		Order("employee_id, type, created_at, id").
		Find(&out).Error
	return out, err
}

func (r *GormRepo) ReassignRequest(ctx context.Context, id, employeeID uint) error {
	return affected(r.DB.WithContext(ctx).
		Model(&models.Request{}).
		Where("id = ?", id).
		Update("employee_id", employeeID))
}

func (r *GormRepo) NormalizeItemQuantities(ctx context.Context, requestID uint) (int64, error) {
	tx := r.DB.WithContext(ctx).
		Model(&models.RequestItem{}).
		Where("request_id = ? AND quantity < 1", requestID).
		Update("quantity", 1)
	return tx.RowsAffected, tx.Error
}
