package service

import (
	"ByteGuard/internal/model"
	"ByteGuard/internal/repo"
	"context"
	"fmt"
)

const historyLimit = 100

// HistoryService — журнал операций. Шары журналируются самим сервером;
// encrypt/decrypt клиент присылает сам, поскольку криптография происходит
// у него. Авторизация журнал никогда не читает.
type HistoryService struct {
	repo repo.HistoryRepository
}

func NewHistoryService(r repo.HistoryRepository) *HistoryService {
	return &HistoryService{repo: r}
}

// Append пишет запись от имени userID; за другого пользователя запись
// создать нельзя, user_id берётся только из токена.
func (s *HistoryService) Append(ctx context.Context, userID int64, name string, originalSize, encryptedSize int64, fileType, operation string) (*model.FileHistory, error) {
	if name == "" {
		name = "Unnamed"
	}
	if fileType == "" {
		fileType = "unknown"
	}
	switch operation {
	case model.OpEncrypt, model.OpDecrypt, model.OpShare:
	default:
		operation = model.OpEncrypt
	}

	entry := &model.FileHistory{
		UserID:        userID,
		Name:          name,
		OriginalSize:  originalSize,
		EncryptedSize: encryptedSize,
		FileType:      fileType,
		Operation:     operation,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// List — последние записи пользователя, новые первыми.
func (s *HistoryService) List(ctx context.Context, userID int64) ([]model.FileHistory, error) {
	return s.repo.ListByUser(ctx, userID, historyLimit)
}

// DeleteOne удаляет запись, только если она принадлежит пользователю.
func (s *HistoryService) DeleteOne(ctx context.Context, entryID, userID int64) error {
	n, err := s.repo.DeleteOwned(ctx, entryID, userID)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: history entry", ErrNotFound)
	}
	return nil
}

// Clear удаляет все записи пользователя.
func (s *HistoryService) Clear(ctx context.Context, userID int64) error {
	return s.repo.ClearByUser(ctx, userID)
}
