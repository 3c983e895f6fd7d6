package repo

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/solo_shop/internal/models"
)

// TokenBlacklist stores revoked refresh token ids in blacklisted_tokens.
type TokenBlacklist struct {
	Repo *GormRepo
}

func (r *GormRepo) Blacklist() *TokenBlacklist {
	return &TokenBlacklist{Repo: r}
}

func (b *TokenBlacklist) Add(ctx context.Context, jti string, userID uint, expiresAt time.Time) (bool, error) {
	row := models.BlacklistedToken{JTI: jti, UserID: userID, ExpiresAt: expiresAt.UTC()}
	res := b.Repo.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "jti"}}, DoNothing: true}).
		Create(&row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (b *TokenBlacklist) Contains(ctx context.Context, jti string) (bool, error) {
	var count int64
	if err := b.Repo.DB.WithContext(ctx).Model(&models.BlacklistedToken{}).
		Where("jti = ?", jti).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// PurgeExpired drops rows whose token can no longer validate anyway.
func (b *TokenBlacklist) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := b.Repo.DB.WithContext(ctx).
		Where("expires_at < ?", now.UTC()).
		Delete(&models.BlacklistedToken{})
	return res.RowsAffected, res.Error
}
