package service

import (
	"ByteGuard/internal/model"
	"ByteGuard/internal/repo"
	"context"
)

// SettingsService — настройки пользователя: дефолты на чтении, ленивое
// создание строки на записи, частичное обновление.
type SettingsService struct {
	repo repo.SettingsRepository
}

func NewSettingsService(r repo.SettingsRepository) *SettingsService {
	return &SettingsService{repo: r}
}

// SettingsPatch — частичное обновление; nil-поля не трогаются.
type SettingsPatch struct {
	Algorithm      *string
	KeySize        *string
	AutoDelete     *bool
	Animations     *bool
	HighContrast   *bool
	SessionTimeout *string
	TwoFactor      *bool
	AuditLogging   *bool
}

// Get возвращает настройки пользователя либо дефолты, если строки ещё нет.
// Дефолты не персистятся.
func (s *SettingsService) Get(ctx context.Context, userID int64) (*model.UserSettings, error) {
	row, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return model.DefaultSettings(userID), nil
	}
	return row, nil
}

// Update применяет патч поверх текущих значений (или дефолтов) и сохраняет.
func (s *SettingsService) Update(ctx context.Context, userID int64, p SettingsPatch) (*model.UserSettings, error) {
	row, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		row = model.DefaultSettings(userID)
	}

	if p.Algorithm != nil {
		row.Algorithm = *p.Algorithm
	}
	if p.KeySize != nil {
		row.KeySize = *p.KeySize
	}
	if p.AutoDelete != nil {
		row.AutoDelete = *p.AutoDelete
	}
	if p.Animations != nil {
		row.Animations = *p.Animations
	}
	if p.HighContrast != nil {
		row.HighContrast = *p.HighContrast
	}
	if p.SessionTimeout != nil {
		row.SessionTimeout = *p.SessionTimeout
	}
	if p.TwoFactor != nil {
		row.TwoFactor = *p.TwoFactor
	}
	if p.AuditLogging != nil {
		row.AuditLogging = *p.AuditLogging
	}

	if err := s.repo.Save(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}
