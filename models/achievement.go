package models

import "time"

// UserAchievement is an unlocked badge, claimable once.
type UserAchievement struct {
	ID         uint       `gorm:"primaryKey" json:"-"`
	UserID     uint       `gorm:"uniqueIndex:idx_user_badge;not null" json:"user_id"`
	BadgeName  string     `gorm:"uniqueIndex:idx_user_badge;size:64;not null" json:"badge_name"`
	Claimed    bool       `gorm:"not null;default:false" json:"claimed"`
	UnlockedAt time.Time  `gorm:"not null" json:"unlocked_at"`
	ClaimedAt  *time.Time `json:"claimed_at"`
}
