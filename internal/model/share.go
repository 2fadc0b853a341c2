package model

import "time"

// SharedAccess — прямой шар: один владелец → один получатель.
// KEMCiphertext — base64-инкапсуляция AES-ключа под публичный ключ получателя,
// для сервера это просто текст.
type SharedAccess struct {
	ID          int64 `gorm:"primaryKey"`
	FileID      int64 `gorm:"not null;index"`
	SenderID    int64 `gorm:"not null"`
	RecipientID int64 `gorm:"not null;index"`

	File      *FileMetadata `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Sender    *User         `gorm:"foreignKey:SenderID"`
	Recipient *User         `gorm:"foreignKey:RecipientID"`

	KEMCiphertext string `gorm:"type:text;not null"`
	ShareCode     string `gorm:"size:20;uniqueIndex;not null"`
	Permission    string `gorm:"size:20;default:download"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// GroupFileAccess — групповой шар: один файл → одна группа, с картой
// KEM-шифртекстов по участникам. Пара (file, group) уникальна: повторный шар
// заменяет карту, а не создаёт вторую строку.
type GroupFileAccess struct {
	ID       int64 `gorm:"primaryKey"`
	FileID   int64 `gorm:"not null;index;uniqueIndex:uq_file_group"`
	GroupID  int64 `gorm:"not null;index;uniqueIndex:uq_file_group"`
	SharedBy int64 `gorm:"not null"`

	File   *FileMetadata `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Group  *Group        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Sharer *User         `gorm:"foreignKey:SharedBy"`

	// JSON: { "<userID>": "<base64 kem ct>", ... }. Репозиторий (де)сериализует
	// в типизированную карту map[int64]string.
	KEMCiphertexts string `gorm:"type:text;not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}
