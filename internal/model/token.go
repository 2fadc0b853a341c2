package model

import "time"

// RevokedToken — отозванный JWT (по jti). Хранится в общей БД, а не в памяти
// процесса, чтобы отзыв действовал на все инстансы. Строка живёт до истечения
// самого токена.
type RevokedToken struct {
	JTI       string    `gorm:"size:64;primaryKey"`
	ExpiresAt time.Time `gorm:"not null;index"`
}
