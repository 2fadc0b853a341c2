package repo

import (
	"ByteGuard/internal/model"
	"strings"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

// InitDB открывает соединение с БД и прогоняет миграции.
// DSN вида postgres://... подключает Postgres, любой другой трактуется как
// путь к файлу SQLite (драйвер modernc, без cgo).
func InitDB(dsn string) (*gorm.DB, error) {
	var dial gorm.Dialector
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		dial = postgres.Open(dsn)
	} else {
		dial = gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}
	}

	db, err := gorm.Open(dial, &gorm.Config{})
	if err != nil {
		return nil, err
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
		return nil, err
	}

	return db, nil
}
