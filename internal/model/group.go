package model

import "time"

// Роли участников группы.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Group — исследовательская группа. Владелец — суперадмин: считается админом
// даже без явной строки членства.
type Group struct {
	ID          int64  `gorm:"primaryKey"`
	Name        string `gorm:"size:200;not null"`
	Description string `gorm:"type:text"`
	OwnerID     int64  `gorm:"not null;index"`

	Owner *User `gorm:"foreignKey:OwnerID"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// GroupMembership — членство (group, user), уникально в паре.
type GroupMembership struct {
	ID      int64 `gorm:"primaryKey"`
	GroupID int64 `gorm:"not null;index;uniqueIndex:uq_group_user"`
	UserID  int64 `gorm:"not null;index;uniqueIndex:uq_group_user"`

	User *User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	Role string `gorm:"size:20;default:member"`

	JoinedAt time.Time `gorm:"autoCreateTime"`
}

// EffectiveRole — единственная точка вычисления эффективной роли пользователя
// в группе. Владелец всегда админ, независимо от наличия и содержимого строки
// членства; иначе роль берётся из членства; иначе пользователь не участник
// (пустая строка, ok=false).
func EffectiveRole(g *Group, m *GroupMembership, userID int64) (role string, ok bool) {
	if g != nil && g.OwnerID == userID {
		return RoleAdmin, true
	}
	if m != nil && m.UserID == userID {
		return m.Role, true
	}
	return "", false
}
