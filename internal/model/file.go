package model

import "time"

// FileMetadata — каталожная запись зашифрованного блоба.
// Сами байты лежат на диске по StoragePath; сервер их не интерпретирует.
type FileMetadata struct {
	ID      int64 `gorm:"primaryKey"`
	OwnerID int64 `gorm:"not null;index"`

	Owner *User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	FileName      string `gorm:"size:512;not null"`
	OriginalSize  int64  `gorm:"default:0"`
	EncryptedSize int64  `gorm:"default:0"`

	// Относительный путь внутри каталога хранилища; уникален и не переиспользуется
	StoragePath string `gorm:"size:1024;uniqueIndex;not null"`

	ContentType string `gorm:"size:128;default:application/octet-stream"`
	SHA256Hash  string `gorm:"size:64"` // hex-дайджест зашифрованных байт
	IV          string `gorm:"size:64"` // base64 IV для AES-GCM, непрозрачен для сервера

	CreatedAt time.Time `gorm:"autoCreateTime"`
}
