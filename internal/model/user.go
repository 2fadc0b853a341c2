package model

import "time"

// User — учётная запись исследователя.
// KyberPublicKey — base64-строка публичного ключа Kyber-512; сервер хранит
// её как непрозрачный блоб. Наличие ключа означает «может получать шары».
type User struct {
	ID           int64  `gorm:"primaryKey"`
	ResearcherID string `gorm:"size:120;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:256;not null"`

	KyberPublicKey *string `gorm:"type:text"`
	Role           string  `gorm:"size:50;default:Researcher"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// HasKey — есть ли у пользователя зарегистрированный публичный ключ.
func (u *User) HasKey() bool {
	return u.KyberPublicKey != nil && *u.KyberPublicKey != ""
}
