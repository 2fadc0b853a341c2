package repo

import (
	"ByteGuard/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RevocationRepository — реестр отозванных токенов, общий для всех инстансов.
// Заменяет процессный in-memory blocklist: отзыв в одном процессе виден всем.
type RevocationRepository interface {
	// Revoke регистрирует jti до expiresAt. Повторный отзыв — no-op.
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error

	// IsRevoked — проверка на каждый аутентифицированный запрос.
	IsRevoked(ctx context.Context, jti string) (bool, error)

	// PurgeExpired удаляет строки истёкших токенов; их jti уже не пройдут
	// проверку exp и в реестре больше не нужны.
	PurgeExpired(ctx context.Context, now time.Time) error
}

type revocationRepo struct {
	db *gorm.DB
}

func NewRevocationRepository(db *gorm.DB) RevocationRepository {
	return &revocationRepo{db: db}
}

func (r *revocationRepo) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	rec := &model.RevokedToken{JTI: jti, ExpiresAt: expiresAt}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "jti"}},
		DoNothing: true,
	}).Create(rec).Error
}

func (r *revocationRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.RevokedToken{}).
		Where("jti = ?", jti).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *revocationRepo) PurgeExpired(ctx context.Context, now time.Time) error {
	return r.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&model.RevokedToken{}).Error
}
