package models

// All lists every table the service migrates.
func All() []interface{} {
	return []interface{}{
		&User{},
		&SigninRecord{},
		&SigninLog{},
		&WeeklyQuestClaim{},
		&Card{},
		&UserCard{},
		&CardDraw{},
		&UserAchievement{},
		&Course{},
		&Chapter{},
		&Review{},
		&DailyLearningPoint{},
	}
}
