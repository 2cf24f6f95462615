package repo

import (
	"context"
	"time"

	"github.com/Skotchmaster/hr_portal/internal/models"
)

func (r *GormRepo) CreateRefreshToken(ctx context.Context, t *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func (r *GormRepo) GetRefreshToken(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	var t models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("token = ?", tokenHash).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// RevokeRefreshToken flips an unrevoked token to revoked. It reports
// ErrRecordNotFound when the token is unknown or was revoked concurrently, so
// only one of two racing rotations can win.
func (r *GormRepo) RevokeRefreshToken(ctx context.Context, tokenHash, ip, replacedBy string, now time.Time) error {
	return affected(r.DB.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("token = ? AND revoked IS NULL", tokenHash).
		Updates(map[string]any{
			"revoked":           now,
			"revoked_by_ip":     ip,
			"replaced_by_token": replacedBy,
		}))
}

func (r *GormRepo) RevokeAccountRefreshTokens(ctx context.Context, accountID uint, ip string, now time.Time) (int64, error) {
	tx := r.DB.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("account_id = ? AND revoked IS NULL", accountID).
		Updates(map[string]any{
			"revoked":       now,
			"revoked_by_ip": ip,
		})
	return tx.RowsAffected, tx.Error
}

func (r *GormRepo) DeleteStaleRefreshTokens(ctx context.Context, before time.Time) (int64, error) {
	tx := r.DB.WithContext(ctx).
		Where("expires < ? OR revoked < ?", before, before).
		Delete(&models.RefreshToken{})
	return tx.RowsAffected, tx.Error
}
