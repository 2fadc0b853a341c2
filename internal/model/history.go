package model

import "time"

// Операции журнала.
const (
	OpEncrypt = "encrypt"
	OpDecrypt = "decrypt"
	OpShare   = "share"
)

// FileHistory — журнал операций пользователя. Только для наблюдаемости:
// авторизация его никогда не читает.
type FileHistory struct {
	ID     int64 `gorm:"primaryKey"`
	UserID int64 `gorm:"not null;index"`

	User *User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	Name          string `gorm:"size:512;not null"`
	OriginalSize  int64  `gorm:"default:0"`
	EncryptedSize int64  `gorm:"default:0"`
	FileType      string `gorm:"size:128;default:unknown"`
	Operation     string `gorm:"size:20;default:encrypt"`

	Timestamp time.Time `gorm:"autoCreateTime;index"`
}
