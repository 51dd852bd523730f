package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a learner account. Passwords are stored as bcrypt hashes only.
// Coins, Diamonds and TotalLearningPoints never go below zero.
type User struct {
	ID                  uint           `gorm:"primaryKey" json:"user_id"`
	Username            string         `gorm:"size:64;not null;uniqueIndex" json:"username"`
	Email               string         `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash        string         `gorm:"size:255;not null" json:"-"`
	AvatarURL           string         `gorm:"size:512" json:"avatar"`
	Coins               int            `gorm:"not null;default:0" json:"coins"`
	Diamonds            int            `gorm:"not null;default:0" json:"diamonds"`
	TotalLearningPoints int            `gorm:"not null;default:0" json:"total_learning_points"`
	SigninDays          int            `gorm:"not null;default:0" json:"signin_days"`
	RegisterIP          string         `gorm:"size:45" json:"-"`
	CreatedAt           time.Time      `json:"account_created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := tx.NowFunc()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}
