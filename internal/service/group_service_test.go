package service

import (
	"ByteGuard/internal/model"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroupService_Create(t *testing.T) {
	db := newTestDB(t)
	svc := newGroupServiceOverDB(db)
	ctx := context.Background()

	owner := seedUser(t, db, "alice")

	v, err := svc.Create(ctx, owner.ID, "  pq lab  ", "the lab")
	assert.NoError(t, err)
	assert.Equal(t, "pq lab", v.Group.Name)
	assert.True(t, v.IsOwner)
	assert.Equal(t, model.RoleAdmin, v.MyRole)
	assert.Equal(t, int64(1), v.MemberCount)

	_, err = svc.Create(ctx, owner.ID, "", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, owner.ID, strings.Repeat("x", 201), "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGroupService_AddMember(t *testing.T) {
	db := newTestDB(t)
	svc := newGroupServiceOverDB(db)
	ctx := context.Background()

	owner := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	carol := seedUser(t, db, "carol")

	v, err := svc.Create(ctx, owner.ID, "lab", "")
	assert.NoError(t, err)
	gid := v.Group.ID

	m, err := svc.AddMember(ctx, owner.ID, gid, "bob", "")
	assert.NoError(t, err)
	assert.Equal(t, model.RoleMember, m.Role)

	// повторное добавление — Conflict, даже с другой ролью
	_, err = svc.AddMember(ctx, owner.ID, gid, "bob", model.RoleAdmin)
	assert.ErrorIs(t, err, ErrAlreadyMember)

	// рядовой участник добавлять не может
	_, err = svc.AddMember(ctx, bob.ID, gid, "carol", "")
	assert.ErrorIs(t, err, ErrForbidden)

	// посторонний тем более
	_, err = svc.AddMember(ctx, carol.ID, gid, "carol", "")
	assert.ErrorIs(t, err, ErrForbidden)

	// неизвестная роль
	_, err = svc.AddMember(ctx, owner.ID, gid, "carol", "superuser")
	assert.ErrorIs(t, err, ErrValidation)

	// неизвестный пользователь
	_, err = svc.AddMember(ctx, owner.ID, gid, "ghost", "")
	assert.ErrorIs(t, err, ErrNotFound)

	// админ-участник (не владелец) может добавлять
	_, err = svc.AddMember(ctx, owner.ID, gid, "carol", model.RoleAdmin)
	assert.NoError(t, err)
	seedUser(t, db, "dave")
	_, err = svc.AddMember(ctx, carol.ID, gid, "dave", "")
	assert.NoError(t, err)
}

func TestGroupService_RemoveMember(t *testing.T) {
	db := newTestDB(t)
	svc := newGroupServiceOverDB(db)
	ctx := context.Background()

	owner := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	carol := seedUser(t, db, "carol")
	admin := seedUser(t, db, "dora")

	v, err := svc.Create(ctx, owner.ID, "lab", "")
	assert.NoError(t, err)
	gid := v.Group.ID
	_, err = svc.AddMember(ctx, owner.ID, gid, "bob", "")
	assert.NoError(t, err)
	_, err = svc.AddMember(ctx, owner.ID, gid, "carol", "")
	assert.NoError(t, err)
	_, err = svc.AddMember(ctx, owner.ID, gid, "dora", model.RoleAdmin)
	assert.NoError(t, err)

	// владельца не удалить никому, с любой ролью актора
	for _, actor := range []int64{owner.ID, bob.ID, admin.ID} {
		err := svc.RemoveMember(ctx, actor, gid, owner.ID)
		assert.ErrorIs(t, err, ErrValidation)
	}

	// рядовой участник чужих не удаляет
	err = svc.RemoveMember(ctx, bob.ID, gid, carol.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	// себя — может
	assert.NoError(t, svc.RemoveMember(ctx, bob.ID, gid, bob.ID))

	// админ удаляет других
	assert.NoError(t, svc.RemoveMember(ctx, admin.ID, gid, carol.ID))

	// удаление не-участника — NotFound
	err = svc.RemoveMember(ctx, owner.ID, gid, carol.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGroupService_DeleteOnlyOwner(t *testing.T) {
	db := newTestDB(t)
	svc := newGroupServiceOverDB(db)
	ctx := context.Background()

	owner := seedUser(t, db, "alice")
	admin := seedUser(t, db, "bob")

	v, err := svc.Create(ctx, owner.ID, "lab", "")
	assert.NoError(t, err)
	gid := v.Group.ID
	_, err = svc.AddMember(ctx, owner.ID, gid, "bob", model.RoleAdmin)
	assert.NoError(t, err)

	// админства недостаточно
	err = svc.Delete(ctx, admin.ID, gid)
	assert.ErrorIs(t, err, ErrForbidden)

	assert.NoError(t, svc.Delete(ctx, owner.ID, gid))
	_, err = svc.Get(ctx, gid, owner.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGroupService_ShareFileFanOut(t *testing.T) {
	db := newTestDB(t)
	svc := newGroupServiceOverDB(db)
	ctx := context.Background()

	owner := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	v, err := svc.Create(ctx, owner.ID, "lab", "")
	assert.NoError(t, err)
	gid := v.Group.ID
	_, err = svc.AddMember(ctx, owner.ID, gid, "bob", "")
	assert.NoError(t, err)
	file := seedFile(t, db, owner.ID, "paper")

	// пустая карта — Validation
	_, err = svc.ShareFile(ctx, owner.ID, gid, file.ID, model.CiphertextMap{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.ShareFile(ctx, owner.ID, gid, file.ID, model.CiphertextMap{bob.ID: "ct2"})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), historyCount(t, db, owner.ID))

	// получатель видит ровно один шар со своим шифртекстом и IV файла
	views, err := svc.SharedWithMe(ctx, bob.ID)
	assert.NoError(t, err)
	if assert.Len(t, views, 1) {
		if assert.NotNil(t, views[0].MyKEMCiphertext) {
			assert.Equal(t, "ct2", *views[0].MyKEMCiphertext)
		}
		assert.Equal(t, "aXYtMTIz", views[0].IV)
		assert.Equal(t, int64(1000), views[0].OriginalSize)
	}

	// повторный шар заменяет карту, строка одна, журнал не растёт
	_, err = svc.ShareFile(ctx, owner.ID, gid, file.ID, model.CiphertextMap{bob.ID: "ct3"})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), historyCount(t, db, owner.ID))

	views, err = svc.SharedWithMe(ctx, bob.ID)
	assert.NoError(t, err)
	if assert.Len(t, views, 1) {
		assert.Equal(t, "ct3", *views[0].MyKEMCiphertext)
	}
	var n int64
	db.Model(&model.GroupFileAccess{}).Where("file_id = ? AND group_id = ?", file.ID, gid).Count(&n)
	assert.Equal(t, int64(1), n)
}

func TestGroupService_ShareFileAuthz(t *testing.T) {
	db := newTestDB(t)
	svc := newGroupServiceOverDB(db)
	ctx := context.Background()

	owner := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	outsider := seedUser(t, db, "carol")

	v, err := svc.Create(ctx, owner.ID, "lab", "")
	assert.NoError(t, err)
	gid := v.Group.ID
	_, err = svc.AddMember(ctx, owner.ID, gid, "bob", "")
	assert.NoError(t, err)

	aliceFile := seedFile(t, db, owner.ID, "alice-paper")
	bobFile := seedFile(t, db, bob.ID, "bob-paper")

	// не участник группы — Forbidden
	_, err = svc.ShareFile(ctx, outsider.ID, gid, aliceFile.ID, model.CiphertextMap{bob.ID: "ct"})
	assert.ErrorIs(t, err, ErrForbidden)

	// участник, но не владелец файла — NotFound (не раскрываем чужие файлы)
	_, err = svc.ShareFile(ctx, bob.ID, gid, aliceFile.ID, model.CiphertextMap{owner.ID: "ct"})
	assert.ErrorIs(t, err, ErrNotFound)

	// участник со своим файлом — ок
	_, err = svc.ShareFile(ctx, bob.ID, gid, bobFile.ID, model.CiphertextMap{owner.ID: "ct"})
	assert.NoError(t, err)
}

func TestGroupService_SharedWithMeIsolation(t *testing.T) {
	db := newTestDB(t)
	svc := newGroupServiceOverDB(db)
	ctx := context.Background()

	owner := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	outsider := seedUser(t, db, "carol")

	v, err := svc.Create(ctx, owner.ID, "lab", "")
	assert.NoError(t, err)
	_, err = svc.AddMember(ctx, owner.ID, v.Group.ID, "bob", "")
	assert.NoError(t, err)
	file := seedFile(t, db, owner.ID, "paper")
	_, err = svc.ShareFile(ctx, owner.ID, v.Group.ID, file.ID, model.CiphertextMap{bob.ID: "ct"})
	assert.NoError(t, err)

	// посторонний не видит шаров чужой группы
	views, err := svc.SharedWithMe(ctx, outsider.ID)
	assert.NoError(t, err)
	assert.Empty(t, views)

	// участник без слота в карте видит шар с nil-шифртекстом
	_, err = svc.AddMember(ctx, owner.ID, v.Group.ID, "carol", "")
	assert.NoError(t, err)
	views, err = svc.SharedWithMe(ctx, outsider.ID)
	assert.NoError(t, err)
	if assert.Len(t, views, 1) {
		assert.Nil(t, views[0].MyKEMCiphertext)
	}
}

func TestGroupService_OwnerImplicitAdmin(t *testing.T) {
	db := newTestDB(t)
	svc := newGroupServiceOverDB(db)
	ctx := context.Background()

	owner := seedUser(t, db, "alice")
	seedUser(t, db, "bob")

	v, err := svc.Create(ctx, owner.ID, "lab", "")
	assert.NoError(t, err)
	gid := v.Group.ID

	// стираем явное членство владельца: эффективная роль обязана остаться admin
	assert.NoError(t, db.Where("group_id = ? AND user_id = ?", gid, owner.ID).Delete(&model.GroupMembership{}).Error)

	_, err = svc.AddMember(ctx, owner.ID, gid, "bob", "")
	assert.NoError(t, err)

	views, err := svc.ListMine(ctx, owner.ID)
	assert.NoError(t, err)
	if assert.Len(t, views, 1) {
		assert.True(t, views[0].IsOwner)
		assert.Equal(t, model.RoleAdmin, views[0].MyRole)
	}

	d, err := svc.Get(ctx, gid, owner.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, d.MyRole)
}

func TestGroupService_MemberPublicKeys(t *testing.T) {
	db := newTestDB(t)
	svc := newGroupServiceOverDB(db)
	ctx := context.Background()

	owner := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	seedUser(t, db, "carol")
	outsider := seedUser(t, db, "mallory")

	key := "a2V5LWJvYg=="
	assert.NoError(t, db.Model(&model.User{}).Where("id = ?", bob.ID).Update("kyber_public_key", key).Error)

	v, err := svc.Create(ctx, owner.ID, "lab", "")
	assert.NoError(t, err)
	gid := v.Group.ID
	_, err = svc.AddMember(ctx, owner.ID, gid, "bob", "")
	assert.NoError(t, err)
	_, err = svc.AddMember(ctx, owner.ID, gid, "carol", "")
	assert.NoError(t, err)

	// участники без ключа молча опускаются (alice и carol без ключей)
	keys, err := svc.MemberPublicKeys(ctx, owner.ID, gid)
	assert.NoError(t, err)
	if assert.Len(t, keys, 1) {
		assert.Equal(t, bob.ID, keys[0].UserID)
		assert.Equal(t, key, keys[0].KyberPublicKey)
	}

	// посторонний доступа не имеет
	_, err = svc.MemberPublicKeys(ctx, outsider.ID, gid)
	assert.ErrorIs(t, err, ErrForbidden)
}
