package repo

import (
	"ByteGuard/internal/model"
	"context"

	"gorm.io/gorm"
)

// ShareRepository — контракт доступа к прямым шарам.
type ShareRepository interface {
	// CreateWithHistory атомарно сохраняет шар и строку журнала отправителя.
	CreateWithHistory(ctx context.Context, share *model.SharedAccess, hist *model.FileHistory) error

	GetByID(ctx context.Context, id int64) (*model.SharedAccess, error)
	GetByCode(ctx context.Context, code string) (*model.SharedAccess, error)

	// ListSent/ListReceived — новые первыми, с подгруженными связями для вывода.
	ListSent(ctx context.Context, senderID int64) ([]model.SharedAccess, error)
	ListReceived(ctx context.Context, recipientID int64) ([]model.SharedAccess, error)

	// DeleteBySender удаляет шар, только если он принадлежит отправителю.
	// Возвращает число удалённых строк: 0 означает «нет или не ваш».
	DeleteBySender(ctx context.Context, shareID, senderID int64) (int64, error)
}

type shareRepo struct {
	db *gorm.DB
}

func NewShareRepository(db *gorm.DB) ShareRepository {
	return &shareRepo{db: db}
}

func (r *shareRepo) CreateWithHistory(ctx context.Context, share *model.SharedAccess, hist *model.FileHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(share).Error; err != nil {
			return err
		}
		return tx.Create(hist).Error
	})
}

func (r *shareRepo) GetByID(ctx context.Context, id int64) (*model.SharedAccess, error) {
	var s model.SharedAccess
	err := r.db.WithContext(ctx).
		Preload("File").Preload("Sender").Preload("Recipient").
		First(&s, id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *shareRepo) GetByCode(ctx context.Context, code string) (*model.SharedAccess, error) {
	var s model.SharedAccess
	err := r.db.WithContext(ctx).
		Preload("File").Preload("Sender").Preload("Recipient").
		Where("share_code = ?", code).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *shareRepo) ListSent(ctx context.Context, senderID int64) ([]model.SharedAccess, error) {
	var shares []model.SharedAccess
	err := r.db.WithContext(ctx).
		Preload("File").Preload("Sender").Preload("Recipient").
		Where("sender_id = ?", senderID).
		Order("created_at DESC").
		Find(&shares).Error
	if err != nil {
		return nil, err
	}
	return shares, nil
}

func (r *shareRepo) ListReceived(ctx context.Context, recipientID int64) ([]model.SharedAccess, error) {
	var shares []model.SharedAccess
	err := r.db.WithContext(ctx).
		Preload("File").Preload("Sender").Preload("Recipient").
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Find(&shares).Error
	if err != nil {
		return nil, err
	}
	return shares, nil
}

func (r *shareRepo) DeleteBySender(ctx context.Context, shareID, senderID int64) (int64, error) {
	tx := r.db.WithContext(ctx).
		Where("id = ? AND sender_id = ?", shareID, senderID).
		Delete(&model.SharedAccess{})
	return tx.RowsAffected, tx.Error
}
