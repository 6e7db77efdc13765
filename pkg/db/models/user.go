package models

import (
	"time"

	"github.com/attendly/timeclock-backend/pkg/enums"
	"github.com/google/uuid"
)

// User is the canonical identity entity. Email is never null: the store
// boundary defaults it to the empty string so prefix matching stays total.
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Email        string     `gorm:"type:text;not null;default:'';index"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	Role         enums.Role `gorm:"type:text;not null;default:'employee'"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
