package service

import (
	"ByteGuard/internal/model"
	"ByteGuard/internal/repo"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShareService — прямые шары: один владелец → один получатель, один
// KEM-шифртекст на шар.
type ShareService struct {
	shares repo.ShareRepository
	files  repo.FileRepository
	users  repo.UserRepository
}

func NewShareService(shares repo.ShareRepository, files repo.FileRepository, users repo.UserRepository) *ShareService {
	return &ShareService{shares: shares, files: files, users: users}
}

// newShareCode — 8 шестнадцатеричных символов в верхнем регистре.
// Уникальность страхует индекс по share_code.
func newShareCode() string {
	id := uuid.New()
	return strings.ToUpper(fmt.Sprintf("%x", id[:])[:8])
}

// Create создаёт шар. Отправитель обязан владеть файлом; чужой или
// несуществующий файл неразличимы в ответе. Не идемпотентно: повторный вызов
// даёт новый шар с новым кодом. Журнальная строка share пишется в той же
// транзакции.
func (s *ShareService) Create(ctx context.Context, senderID, fileID int64, recipientRID, kemCiphertext, permission string) (*model.SharedAccess, error) {
	recipientRID = strings.TrimSpace(recipientRID)
	if fileID == 0 || recipientRID == "" || kemCiphertext == "" {
		return nil, fmt.Errorf("%w: fileId, recipientId and kemCiphertext are required", ErrValidation)
	}
	if permission == "" {
		permission = "download"
	}

	meta, err := s.files.GetByID(ctx, fileID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: file not found or access denied", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if meta.OwnerID != senderID {
		return nil, fmt.Errorf("%w: file not found or access denied", ErrNotFound)
	}

	recipient, err := s.users.GetUserByResearcherID(ctx, recipientRID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: recipient", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	share := &model.SharedAccess{
		FileID:        fileID,
		SenderID:      senderID,
		RecipientID:   recipient.ID,
		KEMCiphertext: kemCiphertext,
		ShareCode:     newShareCode(),
		Permission:    permission,
	}
	hist := &model.FileHistory{
		UserID:        senderID,
		Name:          meta.FileName,
		OriginalSize:  meta.OriginalSize,
		EncryptedSize: meta.EncryptedSize,
		FileType:      "share",
		Operation:     model.OpShare,
	}
	if err := s.shares.CreateWithHistory(ctx, share, hist); err != nil {
		return nil, err
	}
	return s.shares.GetByID(ctx, share.ID)
}

// Revoke удаляет шар отправителя. «Нет такого» и «не ваш» оба дают NotFound,
// чтобы нельзя было перебором отличить чужие шары от несуществующих.
func (s *ShareService) Revoke(ctx context.Context, shareID, senderID int64) error {
	n, err := s.shares.DeleteBySender(ctx, shareID, senderID)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: share", ErrNotFound)
	}
	return nil
}

// GetByCode — шар по коду, доступен отправителю и получателю.
func (s *ShareService) GetByCode(ctx context.Context, code string, requesterID int64) (*model.SharedAccess, error) {
	share, err := s.shares.GetByCode(ctx, code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: share", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if share.SenderID != requesterID && share.RecipientID != requesterID {
		return nil, fmt.Errorf("%w: not a party of this share", ErrForbidden)
	}
	return share, nil
}

func (s *ShareService) ListSent(ctx context.Context, senderID int64) ([]model.SharedAccess, error) {
	return s.shares.ListSent(ctx, senderID)
}

func (s *ShareService) ListReceived(ctx context.Context, recipientID int64) ([]model.SharedAccess, error) {
	return s.shares.ListReceived(ctx, recipientID)
}
