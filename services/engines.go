package services

import (
	"gorm.io/gorm"

	"github.com/feyndora/backend/config"
)

// Engines bundles the gamification services sharing one clock and one set of tables.
type Engines struct {
	Clock        *Clock
	Signin       *SigninService
	Quests       *QuestService
	Gacha        *GachaService
	Achievements *AchievementService
	Rankings     *RankingService
}

func NewEngines(db *gorm.DB, tables *config.Gamification, clock *Clock) *Engines {
	signin := NewSigninService(db, clock, tables)
	return &Engines{
		Clock:        clock,
		Signin:       signin,
		Quests:       NewQuestService(db, clock, tables, signin),
		Gacha:        NewGachaService(db, clock, tables),
		Achievements: NewAchievementService(db, clock, tables),
		Rankings:     NewRankingService(db, clock),
	}
}
