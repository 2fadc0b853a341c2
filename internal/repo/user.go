package repo

import (
	"ByteGuard/internal/model"
	"context"
	"strings"

	"gorm.io/gorm"
)

// UserRepository — контракт доступа к учётным записям.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)

	// GetUserByResearcherID возвращает gorm.ErrRecordNotFound, если не найден.
	GetUserByResearcherID(ctx context.Context, researcherID string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)

	// UpdatePublicKey безусловно заменяет сохранённый ключ (без истории ротаций).
	UpdatePublicKey(ctx context.Context, userID int64, key string) error

	// SearchByResearcherID — регистронезависимый поиск по подстроке,
	// исключая excludeID, максимум limit записей в порядке хранения.
	SearchByResearcherID(ctx context.Context, q string, excludeID int64, limit int) ([]model.User, error)
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepo) GetUserByResearcherID(ctx context.Context, researcherID string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("researcher_id = ?", researcherID).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) UpdatePublicKey(ctx context.Context, userID int64, key string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("kyber_public_key", key).Error
}

func (r *userRepo) SearchByResearcherID(ctx context.Context, q string, excludeID int64, limit int) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("LOWER(researcher_id) LIKE ?", "%"+strings.ToLower(q)+"%").
		Where("id <> ?", excludeID).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
