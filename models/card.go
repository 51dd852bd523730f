package models

import "time"

// Card is a collectible teacher card.
type Card struct {
	ID          uint      `gorm:"primaryKey" json:"card_id"`
	Name        string    `gorm:"size:128;not null;uniqueIndex" json:"name"`
	Rarity      string    `gorm:"size:16;not null;index" json:"rarity"`
	Description string    `gorm:"size:512" json:"description"`
	ImageURL    string    `gorm:"size:512" json:"image_url"`
	CreatedAt   time.Time `json:"-"`
}

// UserCard is an owned card. At most one row per (user, card).
type UserCard struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	UserID     uint      `gorm:"uniqueIndex:idx_user_card;not null" json:"user_id"`
	CardID     uint      `gorm:"uniqueIndex:idx_user_card;not null" json:"card_id"`
	AcquiredAt time.Time `gorm:"not null" json:"acquired_at"`
	IsSelected bool      `gorm:"not null;default:false" json:"is_selected"`
	Card       Card      `gorm:"foreignKey:CardID" json:"card"`
}

// CardDraw is the audit trail of successful draws.
type CardDraw struct {
	ID           string    `gorm:"primaryKey;size:36" json:"draw_id"`
	UserID       uint      `gorm:"index;not null" json:"user_id"`
	DrawType     string    `gorm:"size:16;not null" json:"draw_type"`
	CardID       uint      `gorm:"not null" json:"card_id"`
	Rarity       string    `gorm:"size:16;not null" json:"rarity"`
	CostCoins    int       `gorm:"not null;default:0" json:"cost_coins"`
	CostDiamonds int       `gorm:"not null;default:0" json:"cost_diamonds"`
	FirstCopy    bool      `gorm:"not null" json:"is_first_copy"`
	CreatedAt    time.Time `json:"created_at"`
}
