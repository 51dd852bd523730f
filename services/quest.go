package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feyndora/backend/config"
	"github.com/feyndora/backend/metrics"
	"github.com/feyndora/backend/models"
	"github.com/feyndora/backend/utils"
)

// QuestProgress is one weekly quest as seen by a user.
type QuestProgress struct {
	ID          int    `json:"task_id"`
	Description string `json:"description"`
	Progress    int    `json:"progress"`
	Target      int    `json:"target"`
	Completed   bool   `json:"completed"`
	Claimed     bool   `json:"claimed"`
	RewardCoins int    `json:"reward_coins"`
}

// QuestClaimResult describes one successful quest claim.
type QuestClaimResult struct {
	QuestID      int `json:"task_id"`
	CoinsGranted int `json:"coins_granted"`
}

// QuestService evaluates and pays out weekly quests.
type QuestService struct {
	db      *gorm.DB
	clock   *Clock
	tables  *config.Gamification
	streaks StreakReader
}

func NewQuestService(db *gorm.DB, clock *Clock, tables *config.Gamification, streaks StreakReader) *QuestService {
	return &QuestService{db: db, clock: clock, tables: tables, streaks: streaks}
}

func (s *QuestService) measure(db *gorm.DB, userID uint, metric string, weekStart time.Time) (int, error) {
	switch metric {
	case config.MetricCompletedCoursesThisWeek:
		var n int64
		err := db.Model(&models.Course{}).
			Where("user_id = ? AND progress >= ? AND updated_at >= ?", userID, 100, weekStart).
			Count(&n).Error
		return int(n), err
	case config.MetricLearningPointsThisWeek:
		var sum int
		err := db.Model(&models.DailyLearningPoint{}).
			Where("user_id = ? AND log_date >= ?", userID, weekStart).
			Select("COALESCE(SUM(points), 0)").
			Scan(&sum).Error
		return sum, err
	case config.MetricWeeklyStreak:
		return s.streaks.WeeklyStreak(db, userID, weekStart)
	default:
		return 0, errors.New("unknown quest metric " + metric)
	}
}

// Progress reports every quest for the current week. It never writes; a quest
// without a claim row for this week reads as unclaimed.
func (s *QuestService) Progress(ctx context.Context, userID uint) ([]QuestProgress, error) {
	db := s.db.WithContext(ctx)
	if err := userExists(db, userID); err != nil {
		return nil, err
	}
	weekStart := s.clock.CurrentWeekStart()

	var rows []models.WeeklyQuestClaim
	if err := db.Where("user_id = ? AND week_start = ?", userID, weekStart).Find(&rows).Error; err != nil {
		return nil, err
	}
	claimed := make(map[int]bool, len(rows))
	for _, r := range rows {
		claimed[r.QuestID] = r.Claimed
	}

	out := make([]QuestProgress, 0, len(s.tables.Quests))
	for _, q := range s.tables.Quests {
		progress, err := s.measure(db, userID, q.Metric, weekStart)
		if err != nil {
			return nil, err
		}
		out = append(out, QuestProgress{
			ID:          q.ID,
			Description: q.Description,
			Progress:    progress,
			Target:      q.Target,
			Completed:   progress >= q.Target,
			Claimed:     claimed[q.ID],
			RewardCoins: q.Coins,
		})
	}
	return out, nil
}

// EnsureWeek drops the user's claim rows from other weeks and makes sure an
// unclaimed row exists for every quest of weekStart. Safe to repeat.
func (s *QuestService) EnsureWeek(db *gorm.DB, userID uint, weekStart time.Time) error {
	if err := db.Where("user_id = ? AND week_start <> ?", userID, weekStart).
		Delete(&models.WeeklyQuestClaim{}).Error; err != nil {
		return err
	}
	if len(s.tables.Quests) == 0 {
		return nil
	}
	rows := make([]models.WeeklyQuestClaim, 0, len(s.tables.Quests))
	for _, q := range s.tables.Quests {
		rows = append(rows, models.WeeklyQuestClaim{UserID: userID, QuestID: q.ID, WeekStart: weekStart})
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// Claim pays out a completed quest once per week.
func (s *QuestService) Claim(ctx context.Context, userID uint, questID int) (*QuestClaimResult, error) {
	quest, ok := s.tables.Quest(questID)
	if !ok {
		return nil, ErrInvalidQuest
	}
	weekStart := s.clock.CurrentWeekStart()
	now := s.clock.Now()
	db := s.db.WithContext(ctx)

	// The week rollover commits on its own so a rejected claim does not undo it.
	if err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := lockUser(tx, userID); err != nil {
			return err
		}
		return s.EnsureWeek(tx, userID, weekStart)
	}); err != nil {
		return nil, err
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := lockUser(tx, userID); err != nil {
			return err
		}

		var row models.WeeklyQuestClaim
		if err := tx.Where("user_id = ? AND quest_id = ? AND week_start = ?", userID, questID, weekStart).
			First(&row).Error; err != nil {
			return err
		}
		if row.Claimed {
			return ErrQuestClaimed
		}

		progress, err := s.measure(tx, userID, quest.Metric, weekStart)
		if err != nil {
			return err
		}
		if progress < quest.Target {
			return ErrNotCompleted
		}

		res := tx.Model(&models.WeeklyQuestClaim{}).
			Where("id = ? AND claimed = ?", row.ID, false).
			Updates(map[string]interface{}{"claimed": true, "claimed_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrQuestClaimed
		}
		return credit(tx, userID, config.Reward{Coins: quest.Coins}, "quest")
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrQuestClaimed):
			metrics.ClaimsRejected.WithLabelValues("quest", "already_claimed").Inc()
		case errors.Is(err, ErrNotCompleted):
			metrics.ClaimsRejected.WithLabelValues("quest", "not_completed").Inc()
		}
		return nil, err
	}

	utils.Sugar.Infow("weekly quest claimed", "user_id", userID, "quest_id", questID)
	return &QuestClaimResult{QuestID: questID, CoinsGranted: quest.Coins}, nil
}

// RollWeek runs EnsureWeek for every user still holding rows from an earlier week
// and returns how many users were moved to weekStart.
func (s *QuestService) RollWeek(ctx context.Context, weekStart time.Time) (int, error) {
	db := s.db.WithContext(ctx)
	var userIDs []uint
	if err := db.Model(&models.WeeklyQuestClaim{}).
		Where("week_start < ?", weekStart).
		Distinct().Pluck("user_id", &userIDs).Error; err != nil {
		return 0, err
	}
	for i, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := db.Transaction(func(tx *gorm.DB) error {
			return s.EnsureWeek(tx, userID, weekStart)
		}); err != nil {
			return i, err
		}
	}
	return len(userIDs), nil
}

// PruneStaleWeeks deletes claim rows of weeks before weekStart for all users.
func (s *QuestService) PruneStaleWeeks(ctx context.Context, weekStart time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("week_start < ?", weekStart).Delete(&models.WeeklyQuestClaim{})
	return res.RowsAffected, res.Error
}
