package model

// UserSettings — настройки пользователя, одна строка на пользователя.
// Создаётся лениво при первой записи; на чтении отсутствующая строка
// подменяется дефолтами.
type UserSettings struct {
	ID     int64 `gorm:"primaryKey"`
	UserID int64 `gorm:"uniqueIndex;not null"`

	User *User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	Algorithm      string `gorm:"size:50;default:AES-256-GCM"`
	KeySize        string `gorm:"size:10;default:512"`
	AutoDelete     bool   `gorm:"default:false"`
	Animations     bool   `gorm:"default:true"`
	HighContrast   bool   `gorm:"default:false"`
	SessionTimeout string `gorm:"size:10;default:30"`
	TwoFactor      bool   `gorm:"default:false"`
	AuditLogging   bool   `gorm:"default:true"`
}

// DefaultSettings — значения, синтезируемые при отсутствии строки.
func DefaultSettings(userID int64) *UserSettings {
	return &UserSettings{
		UserID:         userID,
		Algorithm:      "AES-256-GCM",
		KeySize:        "512",
		AutoDelete:     false,
		Animations:     true,
		HighContrast:   false,
		SessionTimeout: "30",
		TwoFactor:      false,
		AuditLogging:   true,
	}
}
