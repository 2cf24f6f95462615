package repo

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/hr_portal/internal/models"
)

func (r *GormRepo) CountAccounts(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Account{}).Count(&n).Error
	return n, err
}

func (r *GormRepo) CreateAccount(ctx context.Context, a *models.Account) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(a).Error
}

func (r *GormRepo) GetAccountByID(ctx context.Context, id uint) (*models.Account, error) {
	var a models.Account
	if err := r.DB.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormRepo) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var a models.Account
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormRepo) EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error) {
	var n int64
	q := r.DB.WithContext(ctx).Model(&models.Account{}).Where("email = ?", email)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&n).Error
	return n > 0, err
}

func (r *GormRepo) GetAccountByVerificationToken(ctx context.Context, tokenHash string) (*models.Account, error) {
	var a models.Account
	if err := r.DB.WithContext(ctx).Where("verification_token = ?", tokenHash).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAccountByResetToken only matches reset tokens that are still valid at now.
func (r *GormRepo) GetAccountByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.Account, error) {
	var a models.Account
	err := r.DB.WithContext(ctx).
		Where("reset_token = ? AND reset_token_expires > ?", tokenHash, now).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormRepo) ListAccounts(ctx context.Context) ([]models.Account, error) {
	var out []models.Account
	err := r.DB.WithContext(ctx).Order("id").Find(&out).Error
	return out, err
}

func (r *GormRepo) UpdateAccount(ctx context.Context, a *models.Account) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Save(a).Error
}

func (r *GormRepo) DeleteAccount(ctx context.Context, id uint) error {
	return affected(r.DB.WithContext(ctx).Delete(&models.Account{}, id))
}
