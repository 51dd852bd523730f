package models

import "time"

// SigninRecord is the per-user sign-in cycle state.
// SigninDay is the 1..7 slot the next claim is rewarded for.
type SigninRecord struct {
	ID             uint       `gorm:"primaryKey" json:"-"`
	UserID         uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	SigninDay      int        `gorm:"not null;default:1" json:"signin_day"`
	LastSigninDate *time.Time `gorm:"type:date" json:"last_signin_date"`
	WeeklyStreak   int        `gorm:"not null;default:0" json:"weekly_streak"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// SigninLog stores one row per successful daily claim.
type SigninLog struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"uniqueIndex:idx_signin_user_date;not null" json:"user_id"`
	SigninDate     time.Time `gorm:"uniqueIndex:idx_signin_user_date;type:date;not null" json:"signin_date"`
	Day            int       `gorm:"not null" json:"day"`
	StreakAchieved int       `gorm:"not null" json:"streak_achieved"`
	Coins          int       `gorm:"not null;default:0" json:"coins_awarded"`
	Diamonds       int       `gorm:"not null;default:0" json:"diamonds_awarded"`
	CreatedAt      time.Time `json:"created_at"`
}
