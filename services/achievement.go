package services

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feyndora/backend/config"
	"github.com/feyndora/backend/metrics"
	"github.com/feyndora/backend/models"
	"github.com/feyndora/backend/utils"
)

// Badge is an unlocked achievement together with its reward.
type Badge struct {
	models.UserAchievement
	RewardCoins    int `json:"reward_coins"`
	RewardDiamonds int `json:"reward_diamonds"`
}

// AchievementResult describes one successful badge claim.
type AchievementResult struct {
	BadgeName       string `json:"badge_name"`
	CoinsGranted    int    `json:"coins_granted"`
	DiamondsGranted int    `json:"diamonds_granted"`
}

// AchievementService unlocks badges from user statistics and pays them out once.
type AchievementService struct {
	db     *gorm.DB
	clock  *Clock
	tables *config.Gamification
}

func NewAchievementService(db *gorm.DB, clock *Clock, tables *config.Gamification) *AchievementService {
	return &AchievementService{db: db, clock: clock, tables: tables}
}

func (s *AchievementService) stats(db *gorm.DB, userID uint) (map[string]int, error) {
	var user models.User
	if err := db.Select("id", "total_learning_points").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	var courses, completed int64
	if err := db.Model(&models.Course{}).Where("user_id = ?", userID).Count(&courses).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Course{}).Where("user_id = ? AND progress >= ?", userID, 100).Count(&completed).Error; err != nil {
		return nil, err
	}
	return map[string]int{
		config.MetricCourseCount:          int(courses),
		config.MetricCompletedCourseCount: int(completed),
		config.MetricTotalLearningPoints:  user.TotalLearningPoints,
	}, nil
}

// Check unlocks every badge whose condition now holds and returns only the newly unlocked names.
func (s *AchievementService) Check(ctx context.Context, userID uint) ([]string, error) {
	db := s.db.WithContext(ctx)
	stats, err := s.stats(db, userID)
	if err != nil {
		return nil, err
	}

	unlocked := []string{}
	now := s.clock.Now()
	for _, rule := range s.tables.Achievements {
		if stats[rule.Metric] < rule.Threshold {
			continue
		}
		row := models.UserAchievement{UserID: userID, BadgeName: rule.Name, UnlockedAt: now}
		res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected > 0 {
			unlocked = append(unlocked, rule.Name)
		}
	}
	if len(unlocked) > 0 {
		utils.Sugar.Infow("achievements unlocked", "user_id", userID, "badges", unlocked)
	}
	return unlocked, nil
}

// Claim pays out an unlocked, unclaimed badge.
func (s *AchievementService) Claim(ctx context.Context, userID uint, badge string) (*AchievementResult, error) {
	rule, ok := s.tables.Achievement(badge)
	if !ok {
		return nil, ErrBadgeNotFound
	}
	now := s.clock.Now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockUser(tx, userID); err != nil {
			return err
		}
		res := tx.Model(&models.UserAchievement{}).
			Where("user_id = ? AND badge_name = ? AND claimed = ?", userID, badge, false).
			Updates(map[string]interface{}{"claimed": true, "claimed_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrBadgeNotFound
		}
		return credit(tx, userID, config.Reward{Coins: rule.Coins, Diamonds: rule.Diamonds}, "achievement")
	})
	if err != nil {
		if errors.Is(err, ErrBadgeNotFound) {
			metrics.ClaimsRejected.WithLabelValues("achievement", "not_found").Inc()
		}
		return nil, err
	}
	return &AchievementResult{BadgeName: badge, CoinsGranted: rule.Coins, DiamondsGranted: rule.Diamonds}, nil
}

// List returns all unlocked badges of the user, oldest first.
func (s *AchievementService) List(ctx context.Context, userID uint) ([]Badge, error) {
	db := s.db.WithContext(ctx)
	if err := userExists(db, userID); err != nil {
		return nil, err
	}
	var rows []models.UserAchievement
	if err := db.Where("user_id = ?", userID).Order("unlocked_at, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	badges := make([]Badge, 0, len(rows))
	for _, r := range rows {
		b := Badge{UserAchievement: r}
		if rule, ok := s.tables.Achievement(r.BadgeName); ok {
			b.RewardCoins = rule.Coins
			b.RewardDiamonds = rule.Diamonds
		}
		badges = append(badges, b)
	}
	return badges, nil
}
