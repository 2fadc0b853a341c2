package repo

import (
	"ByteGuard/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

// SettingsRepository — контракт доступа к настройкам пользователя.
type SettingsRepository interface {
	// Get возвращает (nil, nil), если строки ещё нет.
	Get(ctx context.Context, userID int64) (*model.UserSettings, error)

	// Save создаёт строку или обновляет существующую по первичному ключу.
	Save(ctx context.Context, s *model.UserSettings) error
}

type settingsRepo struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepo{db: db}
}

func (r *settingsRepo) Get(ctx context.Context, userID int64) (*model.UserSettings, error) {
	var s model.UserSettings
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *settingsRepo) Save(ctx context.Context, s *model.UserSettings) error {
	return r.db.WithContext(ctx).Save(s).Error
}
