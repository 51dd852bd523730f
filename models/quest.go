package models

import "time"

// WeeklyQuestClaim tracks whether a quest was claimed in a given week.
type WeeklyQuestClaim struct {
	ID        uint       `gorm:"primaryKey" json:"-"`
	UserID    uint       `gorm:"uniqueIndex:idx_quest_user_week;not null" json:"user_id"`
	QuestID   int        `gorm:"uniqueIndex:idx_quest_user_week;not null" json:"quest_id"`
	WeekStart time.Time  `gorm:"uniqueIndex:idx_quest_user_week;index;type:date;not null" json:"week_start"`
	Claimed   bool       `gorm:"not null;default:false" json:"claimed"`
	ClaimedAt *time.Time `json:"claimed_at"`
	CreatedAt time.Time  `json:"created_at"`
}
