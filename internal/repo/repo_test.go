package repo

import (
	"ByteGuard/internal/model"
	"fmt"
	"strings"
	"testing"

	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

// newTestDB инициализирует in-memory SQLite (modernc.org/sqlite) для тестов
// репозиториев. Имя БД выводится из имени теста, чтобы тесты не делили состояние.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	dial := gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}
	db, err := gorm.Open(dial, &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite (modernc): %v", err)
	}
	// Миграции для всех моделей, используемых в репозиториях
	if err := db.AutoMigrate(
		&model.User{},
		&model.FileMetadata{},
		&model.SharedAccess{},
		&model.Group{},
		&model.GroupMembership{},
		&model.GroupFileAccess{},
		&model.FileHistory{},
		&model.UserSettings{},
		&model.RevokedToken{},
	); err != nil {
		t.Fatalf("failed to automigrate: %v", err)
	}
	return db
}

// mustUser — быстрый помощник для вставки пользователя.
func mustUser(t *testing.T, db *gorm.DB, rid string) *model.User {
	t.Helper()
	u := &model.User{ResearcherID: rid, PasswordHash: "hash"}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("failed to create user %q: %v", rid, err)
	}
	return u
}

// mustFile — быстрый помощник для вставки каталожной записи.
func mustFile(t *testing.T, db *gorm.DB, ownerID int64, name string) *model.FileMetadata {
	t.Helper()
	f := &model.FileMetadata{
		OwnerID:     ownerID,
		FileName:    name,
		StoragePath: fmt.Sprintf("aa/%s-%d.enc", name, ownerID),
		IV:          "aXY=",
	}
	if err := db.Create(f).Error; err != nil {
		t.Fatalf("failed to create file %q: %v", name, err)
	}
	return f
}
