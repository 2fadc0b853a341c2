package repo

import (
	"ByteGuard/internal/model"
	"context"

	"gorm.io/gorm"
)

// HistoryRepository — контракт доступа к журналу операций.
type HistoryRepository interface {
	Create(ctx context.Context, entry *model.FileHistory) error

	// ListByUser — новые первыми, не больше limit.
	ListByUser(ctx context.Context, userID int64, limit int) ([]model.FileHistory, error)

	// DeleteOwned удаляет запись, только если она принадлежит пользователю.
	DeleteOwned(ctx context.Context, entryID, userID int64) (int64, error)
	ClearByUser(ctx context.Context, userID int64) error
}

type historyRepo struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepo{db: db}
}

func (r *historyRepo) Create(ctx context.Context, entry *model.FileHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *historyRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]model.FileHistory, error) {
	var entries []model.FileHistory
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *historyRepo) DeleteOwned(ctx context.Context, entryID, userID int64) (int64, error) {
	tx := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", entryID, userID).
		Delete(&model.FileHistory{})
	return tx.RowsAffected, tx.Error
}

func (r *historyRepo) ClearByUser(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.FileHistory{}).Error
}
