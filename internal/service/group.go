package service

import (
	"ByteGuard/internal/model"
	"ByteGuard/internal/repo"
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

const maxGroupNameLen = 200

// GroupService — группы, членство и групповые шары с раздачей KEM-шифртекстов
// по участникам.
type GroupService struct {
	groups repo.GroupRepository
	users  repo.UserRepository
	files  repo.FileRepository
}

func NewGroupService(groups repo.GroupRepository, users repo.UserRepository, files repo.FileRepository) *GroupService {
	return &GroupService{groups: groups, users: users, files: files}
}

// GroupView — группа глазами конкретного пользователя.
type GroupView struct {
	Group       *model.Group
	MemberCount int64
	IsOwner     bool
	MyRole      string
}

// GroupDetails — карточка группы: участники и групповые шары с проекцией
// шифртекста запрашивающего.
type GroupDetails struct {
	GroupView
	Members     []model.GroupMembership
	SharedFiles []GroupGrantView
}

// GroupGrantView — групповой шар + метаданные файла, нужные получателю для
// расшифровки, и его личный шифртекст (nil — не опубликован, это не ошибка).
type GroupGrantView struct {
	Grant           *model.GroupFileAccess
	MyKEMCiphertext *string
	IV              string
	ContentType     string
	OriginalSize    int64
}

// MemberKey — участник с зарегистрированным публичным ключом.
type MemberKey struct {
	UserID         int64
	ResearcherID   string
	KyberPublicKey string
}

// getGroup достаёт группу и эффективную роль пользователя в ней.
// ok=false — пользователь не участник.
func (s *GroupService) getGroup(ctx context.Context, groupID, userID int64) (*model.Group, string, bool, error) {
	g, err := s.groups.GetByID(ctx, groupID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", false, fmt.Errorf("%w: group", ErrNotFound)
	}
	if err != nil {
		return nil, "", false, err
	}
	m, err := s.groups.GetMembership(ctx, groupID, userID)
	if err != nil {
		return nil, "", false, err
	}
	role, ok := model.EffectiveRole(g, m, userID)
	return g, role, ok, nil
}

// Create создаёт группу; создатель становится владельцем и админом-участником
// в одной транзакции.
func (s *GroupService) Create(ctx context.Context, ownerID int64, name, description string) (*GroupView, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if name == "" {
		return nil, fmt.Errorf("%w: group name is required", ErrValidation)
	}
	if len(name) > maxGroupNameLen {
		return nil, fmt.Errorf("%w: group name too long (max %d chars)", ErrValidation, maxGroupNameLen)
	}

	g := &model.Group{Name: name, Description: description, OwnerID: ownerID}
	if err := s.groups.CreateWithOwner(ctx, g); err != nil {
		return nil, err
	}
	return &GroupView{Group: g, MemberCount: 1, IsOwner: true, MyRole: model.RoleAdmin}, nil
}

// ListMine — группы, которыми пользователь владеет или в которых состоит.
func (s *GroupService) ListMine(ctx context.Context, userID int64) ([]GroupView, error) {
	groups, err := s.groups.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]GroupView, 0, len(groups))
	for i := range groups {
		g := &groups[i]
		m, err := s.groups.GetMembership(ctx, g.ID, userID)
		if err != nil {
			return nil, err
		}
		role, _ := model.EffectiveRole(g, m, userID)
		n, err := s.groups.CountMembers(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, GroupView{
			Group:       g,
			MemberCount: n,
			IsOwner:     g.OwnerID == userID,
			MyRole:      role,
		})
	}
	return views, nil
}

// Get — карточка группы для участника.
func (s *GroupService) Get(ctx context.Context, groupID, userID int64) (*GroupDetails, error) {
	g, role, ok, err := s.getGroup(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: not a member of this group", ErrForbidden)
	}

	members, err := s.groups.ListMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	grants, err := s.groups.ListGrantsByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	d := &GroupDetails{
		GroupView: GroupView{
			Group:       g,
			MemberCount: int64(len(members)),
			IsOwner:     g.OwnerID == userID,
			MyRole:      role,
		},
		Members:     members,
		SharedFiles: projectGrants(grants, userID),
	}
	return d, nil
}

// AddMember добавляет участника. Требует эффективной роли admin.
func (s *GroupService) AddMember(ctx context.Context, actorID, groupID int64, targetRID, role string) (*model.GroupMembership, error) {
	targetRID = strings.TrimSpace(targetRID)
	if targetRID == "" {
		return nil, fmt.Errorf("%w: researcherId is required", ErrValidation)
	}
	if role == "" {
		role = model.RoleMember
	}
	if role != model.RoleAdmin && role != model.RoleMember {
		return nil, fmt.Errorf("%w: role must be admin or member", ErrValidation)
	}

	_, actorRole, ok, err := s.getGroup(ctx, groupID, actorID)
	if err != nil {
		return nil, err
	}
	if !ok || actorRole != model.RoleAdmin {
		return nil, fmt.Errorf("%w: only admins can add members", ErrForbidden)
	}

	target, err := s.users.GetUserByResearcherID(ctx, targetRID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	existing, err := s.groups.GetMembership(ctx, groupID, target.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyMember
	}

	m := &model.GroupMembership{GroupID: groupID, UserID: target.ID, Role: role}
	if err := s.groups.AddMember(ctx, m); err != nil {
		return nil, err
	}
	m.User = target
	return m, nil
}

// RemoveMember удаляет участника. Владельца удалить нельзя ни при какой роли
// актора; сам себя может удалить любой участник, остальных — только админ.
func (s *GroupService) RemoveMember(ctx context.Context, actorID, groupID, targetUserID int64) error {
	g, actorRole, ok, err := s.getGroup(ctx, groupID, actorID)
	if err != nil {
		return err
	}
	if targetUserID == g.OwnerID {
		return ErrOwnerNotRemovable
	}
	if targetUserID != actorID {
		if !ok || actorRole != model.RoleAdmin {
			return fmt.Errorf("%w: only admins can remove members", ErrForbidden)
		}
	}

	n, err := s.groups.RemoveMember(ctx, groupID, targetUserID)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: member", ErrNotFound)
	}
	return nil
}

// Delete удаляет группу вместе с членствами и групповыми шарами.
// Доступно только буквальному владельцу; админства недостаточно.
func (s *GroupService) Delete(ctx context.Context, actorID, groupID int64) error {
	g, _, _, err := s.getGroup(ctx, groupID, actorID)
	if err != nil {
		return err
	}
	if g.OwnerID != actorID {
		return fmt.Errorf("%w: only the owner can delete this group", ErrForbidden)
	}
	return s.groups.DeleteCascade(ctx, groupID)
}

// ShareFile публикует файл в группу с картой «участник → шифртекст».
// Повторный шар той же пары (файл, группа) заменяет карту целиком и не пишет
// новую журнальную строку.
func (s *GroupService) ShareFile(ctx context.Context, sharerID, groupID, fileID int64, cts model.CiphertextMap) (*GroupGrantView, error) {
	if fileID == 0 || len(cts) == 0 {
		return nil, fmt.Errorf("%w: fileId and kemCiphertexts are required", ErrValidation)
	}

	_, _, ok, err := s.getGroup(ctx, groupID, sharerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: you are not a member of this group", ErrForbidden)
	}

	meta, err := s.files.GetByID(ctx, fileID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: file not found or access denied", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if meta.OwnerID != sharerID {
		return nil, fmt.Errorf("%w: file not found or access denied", ErrNotFound)
	}

	encoded, err := model.EncodeCiphertexts(cts)
	if err != nil {
		return nil, err
	}
	grant := &model.GroupFileAccess{
		FileID:         fileID,
		GroupID:        groupID,
		SharedBy:       sharerID,
		KEMCiphertexts: encoded,
	}
	hist := &model.FileHistory{
		UserID:        sharerID,
		Name:          meta.FileName,
		OriginalSize:  meta.OriginalSize,
		EncryptedSize: meta.EncryptedSize,
		FileType:      "group-share",
		Operation:     model.OpShare,
	}
	if _, err := s.groups.UpsertGrant(ctx, grant, hist); err != nil {
		return nil, err
	}

	grant.File = meta
	return &GroupGrantView{
		Grant:           grant,
		MyKEMCiphertext: grant.CiphertextFor(sharerID),
		IV:              meta.IV,
		ContentType:     meta.ContentType,
		OriginalSize:    meta.OriginalSize,
	}, nil
}

// SharedWithMe — все групповые шары в группах пользователя с проекцией его
// личного шифртекста. Шары чужих групп сюда не попадают.
func (s *GroupService) SharedWithMe(ctx context.Context, userID int64) ([]GroupGrantView, error) {
	grants, err := s.groups.ListGrantsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return projectGrants(grants, userID), nil
}

// MemberPublicKeys — публичные ключи участников группы для массовой
// инкапсуляции. Участники без ключа молча пропускаются: их нельзя включить
// в этот раунд шаринга.
func (s *GroupService) MemberPublicKeys(ctx context.Context, requesterID, groupID int64) ([]MemberKey, error) {
	_, _, ok, err := s.getGroup(ctx, groupID, requesterID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: not a member of this group", ErrForbidden)
	}

	members, err := s.groups.ListMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	keys := make([]MemberKey, 0, len(members))
	for _, m := range members {
		if m.User == nil || !m.User.HasKey() {
			continue
		}
		keys = append(keys, MemberKey{
			UserID:         m.UserID,
			ResearcherID:   m.User.ResearcherID,
			KyberPublicKey: *m.User.KyberPublicKey,
		})
	}
	return keys, nil
}

func projectGrants(grants []model.GroupFileAccess, userID int64) []GroupGrantView {
	views := make([]GroupGrantView, 0, len(grants))
	for i := range grants {
		g := &grants[i]
		v := GroupGrantView{Grant: g, MyKEMCiphertext: g.CiphertextFor(userID)}
		if g.File != nil {
			v.IV = g.File.IV
			v.ContentType = g.File.ContentType
			v.OriginalSize = g.File.OriginalSize
		}
		views = append(views, v)
	}
	return views
}
