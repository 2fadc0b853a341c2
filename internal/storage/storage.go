package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// BlobStore хранит зашифрованные блобы на диске. Байты пишутся и читаются
// как есть: сервер не способен их расшифровать и не пытается.
//
// Раскладка: <root>/<hex[0:2]>/<uuid-hex>.enc — двухсимвольные подкаталоги,
// чтобы не складывать все файлы в один каталог. Локатор (относительный путь)
// уникален и никогда не переиспользуется.
type BlobStore struct {
	root string
}

func NewBlobStore(root string) (*BlobStore, error) {
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &BlobStore{root: root}, nil
}

// Save записывает содержимое r в новый файл и возвращает локатор и размер.
// Файл полностью записан и сброшен на диск до возврата: каталожная строка,
// которую вставит вызывающий, не станет видимой раньше самих байтов.
func (s *BlobStore) Save(r io.Reader) (locator string, size int64, err error) {
	id := uuid.New()
	hexID := fmt.Sprintf("%x", id[:])
	subdir := filepath.Join(s.root, hexID[:2])
	if err := os.MkdirAll(subdir, 0o700); err != nil {
		return "", 0, fmt.Errorf("create storage subdir: %w", err)
	}

	locator = filepath.Join(hexID[:2], hexID+".enc")
	full := filepath.Join(s.root, locator)

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", 0, fmt.Errorf("create blob file: %w", err)
	}

	size, err = io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(full)
		return "", 0, fmt.Errorf("write blob: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(full)
		return "", 0, fmt.Errorf("sync blob: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return "", 0, fmt.Errorf("close blob: %w", err)
	}

	return locator, size, nil
}

// Open открывает блоб по локатору. os.ErrNotExist означает рассинхронизацию
// каталога и диска; вызывающий трактует её как NotFound.
func (s *BlobStore) Open(locator string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.root, locator))
}

// Remove удаляет блоб; отсутствие файла не считается ошибкой.
func (s *BlobStore) Remove(locator string) error {
	err := os.Remove(filepath.Join(s.root, locator))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
