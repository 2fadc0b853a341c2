package repo

import (
	"ByteGuard/internal/model"
	"context"

	"gorm.io/gorm"
)

// FileRepository — контракт доступа к каталогу блобов.
type FileRepository interface {
	// CreateWithHistory атомарно сохраняет каталожную запись и строку журнала.
	CreateWithHistory(ctx context.Context, meta *model.FileMetadata, hist *model.FileHistory) error

	GetByID(ctx context.Context, id int64) (*model.FileMetadata, error)

	// ListByOwner — файлы владельца, новые первыми.
	ListByOwner(ctx context.Context, ownerID int64) ([]model.FileMetadata, error)

	// DeleteCascade удаляет каталожную запись вместе с прямыми и групповыми
	// шарами в одной транзакции. Байты на диске удаляет вызывающий.
	DeleteCascade(ctx context.Context, fileID int64) error

	// HasAccess — предикат авторизации скачивания: владелец, получатель
	// прямого шара или участник группы с групповым шаром на файл.
	HasAccess(ctx context.Context, fileID, userID int64) (bool, error)
}

type fileRepo struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) FileRepository {
	return &fileRepo{db: db}
}

func (r *fileRepo) CreateWithHistory(ctx context.Context, meta *model.FileMetadata, hist *model.FileHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(meta).Error; err != nil {
			return err
		}
		return tx.Create(hist).Error
	})
}

func (r *fileRepo) GetByID(ctx context.Context, id int64) (*model.FileMetadata, error) {
	var meta model.FileMetadata
	if err := r.db.WithContext(ctx).First(&meta, id).Error; err != nil {
		return nil, err
	}
	return &meta, nil
}

func (r *fileRepo) ListByOwner(ctx context.Context, ownerID int64) ([]model.FileMetadata, error) {
	var files []model.FileMetadata
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&files).Error
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (r *fileRepo) DeleteCascade(ctx context.Context, fileID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("file_id = ?", fileID).Delete(&model.SharedAccess{}).Error; err != nil {
			return err
		}
		if err := tx.Where("file_id = ?", fileID).Delete(&model.GroupFileAccess{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.FileMetadata{}, fileID).Error
	})
}

func (r *fileRepo) HasAccess(ctx context.Context, fileID, userID int64) (bool, error) {
	db := r.db.WithContext(ctx)

	var n int64
	if err := db.Model(&model.FileMetadata{}).
		Where("id = ? AND owner_id = ?", fileID, userID).
		Count(&n).Error; err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}

	if err := db.Model(&model.SharedAccess{}).
		Where("file_id = ? AND recipient_id = ?", fileID, userID).
		Count(&n).Error; err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}

	// групповой шар на файл в группе, где состоит пользователь
	if err := db.Model(&model.GroupFileAccess{}).
		Joins("JOIN group_memberships gm ON gm.group_id = group_file_accesses.group_id AND gm.user_id = ?", userID).
		Where("group_file_accesses.file_id = ?", fileID).
		Count(&n).Error; err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}

	// владелец группы — участник и без строки членства
	err := db.Model(&model.GroupFileAccess{}).
		Joins("JOIN groups g ON g.id = group_file_accesses.group_id AND g.owner_id = ?", userID).
		Where("group_file_accesses.file_id = ?", fileID).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
