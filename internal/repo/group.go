package repo

import (
	"ByteGuard/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GroupRepository — контракт доступа к группам, членству и групповым шарам.
type GroupRepository interface {
	// CreateWithOwner атомарно создаёт группу и админское членство владельца:
	// либо обе строки, либо ни одной.
	CreateWithOwner(ctx context.Context, group *model.Group) error

	GetByID(ctx context.Context, id int64) (*model.Group, error)

	// ListByUser — группы, которыми пользователь владеет или в которых состоит.
	ListByUser(ctx context.Context, userID int64) ([]model.Group, error)

	// DeleteCascade — явный каскад: членства, групповые шары, затем группа,
	// в одной транзакции.
	DeleteCascade(ctx context.Context, groupID int64) error

	// GetMembership возвращает (nil, nil), если строки членства нет —
	// отсутствие членства здесь штатное состояние, а не ошибка.
	GetMembership(ctx context.Context, groupID, userID int64) (*model.GroupMembership, error)
	ListMembers(ctx context.Context, groupID int64) ([]model.GroupMembership, error)
	CountMembers(ctx context.Context, groupID int64) (int64, error)
	AddMember(ctx context.Context, m *model.GroupMembership) error
	RemoveMember(ctx context.Context, groupID, userID int64) (int64, error)

	// UpsertGrant реализует replace-vs-insert для пары (file, group): вторая
	// запись той же пары детерминированно обновляет карту шифртекстов, а не
	// создаёт дубль. Журнальная строка пишется только при вставке, в той же
	// транзакции. Возвращает created=true, если строка была создана.
	UpsertGrant(ctx context.Context, grant *model.GroupFileAccess, hist *model.FileHistory) (bool, error)

	ListGrantsByGroup(ctx context.Context, groupID int64) ([]model.GroupFileAccess, error)

	// ListGrantsForUser — все групповые шары в группах, где пользователь
	// состоит или которыми владеет.
	ListGrantsForUser(ctx context.Context, userID int64) ([]model.GroupFileAccess, error)
}

type groupRepo struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepo{db: db}
}

func (r *groupRepo) CreateWithOwner(ctx context.Context, group *model.Group) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		m := &model.GroupMembership{
			GroupID: group.ID,
			UserID:  group.OwnerID,
			Role:    model.RoleAdmin,
		}
		return tx.Create(m).Error
	})
}

func (r *groupRepo) GetByID(ctx context.Context, id int64) (*model.Group, error) {
	var g model.Group
	if err := r.db.WithContext(ctx).Preload("Owner").First(&g, id).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *groupRepo) ListByUser(ctx context.Context, userID int64) ([]model.Group, error) {
	var groups []model.Group
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Where("owner_id = ?", userID).
		Or("id IN (?)", r.db.Model(&model.GroupMembership{}).
			Select("group_id").Where("user_id = ?", userID)).
		Find(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *groupRepo) DeleteCascade(ctx context.Context, groupID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", groupID).Delete(&model.GroupMembership{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", groupID).Delete(&model.GroupFileAccess{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Group{}, groupID).Error
	})
}

func (r *groupRepo) GetMembership(ctx context.Context, groupID, userID int64) (*model.GroupMembership, error) {
	var m model.GroupMembership
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *groupRepo) ListMembers(ctx context.Context, groupID int64) ([]model.GroupMembership, error) {
	var members []model.GroupMembership
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("group_id = ?", groupID).
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *groupRepo) CountMembers(ctx context.Context, groupID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.GroupMembership{}).
		Where("group_id = ?", groupID).
		Count(&n).Error
	return n, err
}

func (r *groupRepo) AddMember(ctx context.Context, m *model.GroupMembership) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *groupRepo) RemoveMember(ctx context.Context, groupID, userID int64) (int64, error) {
	tx := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&model.GroupMembership{})
	return tx.RowsAffected, tx.Error
}

func (r *groupRepo) UpsertGrant(ctx context.Context, grant *model.GroupFileAccess, hist *model.FileHistory) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.GroupFileAccess
		err := tx.Where("file_id = ? AND group_id = ?", grant.FileID, grant.GroupID).
			First(&existing).Error
		switch {
		case err == nil:
			// повторный шар: карта заменяется целиком, журнал не пишем
			return tx.Model(&existing).Updates(map[string]any{
				"kem_ciphertexts": grant.KEMCiphertexts,
				"shared_by":       grant.SharedBy,
			}).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			// вставка под защитой уникального индекса (file_id, group_id):
			// проигравший гонку писатель обновит строку победителя
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "file_id"}, {Name: "group_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"kem_ciphertexts", "shared_by"}),
			}).Create(grant)
			if res.Error != nil {
				return res.Error
			}
			created = true
			return tx.Create(hist).Error
		default:
			return err
		}
	})
	return created, err
}

func (r *groupRepo) ListGrantsByGroup(ctx context.Context, groupID int64) ([]model.GroupFileAccess, error) {
	var grants []model.GroupFileAccess
	err := r.db.WithContext(ctx).
		Preload("File").Preload("Group").Preload("Sharer").
		Where("group_id = ?", groupID).
		Find(&grants).Error
	if err != nil {
		return nil, err
	}
	return grants, nil
}

func (r *groupRepo) ListGrantsForUser(ctx context.Context, userID int64) ([]model.GroupFileAccess, error) {
	memberOf := r.db.Model(&model.GroupMembership{}).
		Select("group_id").Where("user_id = ?", userID)
	ownerOf := r.db.Model(&model.Group{}).
		Select("id").Where("owner_id = ?", userID)

	var grants []model.GroupFileAccess
	err := r.db.WithContext(ctx).
		Preload("File").Preload("Group").Preload("Sharer").
		Where("group_id IN (?) OR group_id IN (?)", memberOf, ownerOf).
		Find(&grants).Error
	if err != nil {
		return nil, err
	}
	return grants, nil
}
