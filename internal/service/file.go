package service

import (
	"ByteGuard/internal/model"
	"ByteGuard/internal/repo"
	"ByteGuard/internal/storage"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gorm.io/gorm"
)

// FileService — приём, выдача и удаление зашифрованных блобов.
// Сервер хранит байты как есть и не владеет ни ключами, ни открытым текстом.
type FileService struct {
	files repo.FileRepository
	store *storage.BlobStore
}

func NewFileService(files repo.FileRepository, store *storage.BlobStore) *FileService {
	return &FileService{files: files, store: store}
}

// UploadParams — метаданные загрузки, присланные клиентом.
type UploadParams struct {
	FileName     string
	OriginalSize int64
	IV           string
	ContentType  string
	SHA256Hash   string // если пуст, дайджест зашифрованных байт считает сервер
}

// Upload сохраняет блоб на диск, после чего атомарно вставляет каталожную
// запись и журнальную строку encrypt. Байты уже на диске к моменту, когда
// запись становится видна другим читателям.
//
// Присланный клиентом дайджест принимается на веру: пересчитывать его ради
// проверки честности клиента бессмысленно, ключ расшифровки есть только у него.
func (s *FileService) Upload(ctx context.Context, ownerID int64, r io.Reader, p UploadParams) (*model.FileMetadata, error) {
	if p.FileName == "" {
		p.FileName = "unnamed"
	}
	if p.ContentType == "" {
		p.ContentType = "application/octet-stream"
	}

	var h = sha256.New()
	if p.SHA256Hash == "" {
		r = io.TeeReader(r, h)
	}

	locator, encSize, err := s.store.Save(r)
	if err != nil {
		return nil, err
	}
	digest := p.SHA256Hash
	if digest == "" {
		digest = hex.EncodeToString(h.Sum(nil))
	}

	meta := &model.FileMetadata{
		OwnerID:       ownerID,
		FileName:      p.FileName,
		OriginalSize:  p.OriginalSize,
		EncryptedSize: encSize,
		StoragePath:   locator,
		ContentType:   p.ContentType,
		SHA256Hash:    digest,
		IV:            p.IV,
	}
	hist := &model.FileHistory{
		UserID:        ownerID,
		Name:          p.FileName,
		OriginalSize:  p.OriginalSize,
		EncryptedSize: encSize,
		FileType:      p.ContentType,
		Operation:     model.OpEncrypt,
	}
	if err := s.files.CreateWithHistory(ctx, meta, hist); err != nil {
		// каталожная запись не встала — блоб на диске никому не виден, убираем
		_ = s.store.Remove(locator)
		return nil, err
	}
	return meta, nil
}

// Download отдаёт поток зашифрованных байт после проверки авторизации:
// владелец, получатель прямого шара или участник группы с групповым шаром.
func (s *FileService) Download(ctx context.Context, fileID, requesterID int64) (*model.FileMetadata, io.ReadCloser, error) {
	meta, err := s.files.GetByID(ctx, fileID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("%w: file", ErrNotFound)
	}
	if err != nil {
		return nil, nil, err
	}

	ok, err := s.files.HasAccess(ctx, fileID, requesterID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, fmt.Errorf("%w: no access to file", ErrForbidden)
	}

	rc, err := s.store.Open(meta.StoragePath)
	if errors.Is(err, os.ErrNotExist) {
		// каталог и диск разошлись; для клиента это NotFound, не фатальная ошибка
		return nil, nil, fmt.Errorf("%w: file blob missing on storage", ErrNotFound)
	}
	if err != nil {
		return nil, nil, err
	}
	return meta, rc, nil
}

// List — файлы владельца, новые первыми.
func (s *FileService) List(ctx context.Context, ownerID int64) ([]model.FileMetadata, error) {
	return s.files.ListByOwner(ctx, ownerID)
}

// Delete удаляет каталожную запись, шары на неё и байты на диске.
// Доступно только владельцу.
func (s *FileService) Delete(ctx context.Context, fileID, requesterID int64) error {
	meta, err := s.files.GetByID(ctx, fileID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: file", ErrNotFound)
	}
	if err != nil {
		return err
	}
	if meta.OwnerID != requesterID {
		return fmt.Errorf("%w: only the owner can delete a file", ErrForbidden)
	}
	if err := s.files.DeleteCascade(ctx, fileID); err != nil {
		return err
	}
	return s.store.Remove(meta.StoragePath)
}

// Meta — каталожная запись без байтов; авторизация как у Download.
func (s *FileService) Meta(ctx context.Context, fileID, requesterID int64) (*model.FileMetadata, error) {
	meta, err := s.files.GetByID(ctx, fileID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: file", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	ok, err := s.files.HasAccess(ctx, fileID, requesterID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: no access to file", ErrForbidden)
	}
	return meta, nil
}

// DownloadName — имя вложения для выдачи (оригинальное имя + .enc).
func DownloadName(meta *model.FileMetadata) string {
	name := strings.TrimSpace(meta.FileName)
	if name == "" {
		name = "unnamed"
	}
	return name + ".enc"
}
