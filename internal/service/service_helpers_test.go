package service

import (
	"ByteGuard/internal/model"
	"ByteGuard/internal/repo"
	"fmt"
	"strings"
	"testing"

	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

// newTestDB — in-memory SQLite для сервисных тестов, где важны настоящие
// уникальные индексы и транзакции, а не моки.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	dial := gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}
	db, err := gorm.Open(dial, &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite (modernc): %v", err)
	}
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

func seedUser(t *testing.T, db *gorm.DB, rid string) *model.User {
	t.Helper()
	u := &model.User{ResearcherID: rid, PasswordHash: "hash"}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("failed to seed user %q: %v", rid, err)
	}
	return u
}

func seedFile(t *testing.T, db *gorm.DB, ownerID int64, name string) *model.FileMetadata {
	t.Helper()
	f := &model.FileMetadata{
		OwnerID:       ownerID,
		FileName:      name,
		OriginalSize:  1000,
		EncryptedSize: 1016,
		StoragePath:   fmt.Sprintf("aa/%s-%d.enc", name, ownerID),
		IV:            "aXYtMTIz",
	}
	if err := db.Create(f).Error; err != nil {
		t.Fatalf("failed to seed file %q: %v", name, err)
	}
	return f
}

func historyCount(t *testing.T, db *gorm.DB, userID int64) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&model.FileHistory{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		t.Fatalf("failed to count history: %v", err)
	}
	return n
}

func newShareServiceOverDB(db *gorm.DB) *ShareService {
	return NewShareService(repo.NewShareRepository(db), repo.NewFileRepository(db), repo.NewUserRepository(db))
}

func newGroupServiceOverDB(db *gorm.DB) *GroupService {
	return NewGroupService(repo.NewGroupRepository(db), repo.NewUserRepository(db), repo.NewFileRepository(db))
}
