package models

import "time"

// DailyLearningPoint aggregates the learning points a user earned on one civil day.
type DailyLearningPoint struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    uint      `gorm:"uniqueIndex:idx_points_user_date;not null" json:"user_id"`
	LogDate   time.Time `gorm:"uniqueIndex:idx_points_user_date;index;type:date;not null" json:"log_date"`
	Points    int       `gorm:"not null;default:0" json:"points"`
	UpdatedAt time.Time `json:"updated_at"`
}
