package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feyndora/backend/metrics"
	"github.com/feyndora/backend/models"
	"github.com/feyndora/backend/utils"
)

const (
	ScopeDaily  = "daily"
	ScopeWeekly = "weekly"

	rankingCacheTTL = time.Minute
)

// RankEntry is one row of a learning point leaderboard. Ties share a rank.
type RankEntry struct {
	Rank     int    `json:"rank" gorm:"column:rank_no"`
	UserID   uint   `json:"user_id" gorm:"column:user_id"`
	Username string `json:"username" gorm:"column:username"`
	Points   int    `json:"points" gorm:"column:points"`
}

// RankingService records learning points and ranks users by them.
type RankingService struct {
	db    *gorm.DB
	clock *Clock
}

func NewRankingService(db *gorm.DB, clock *Clock) *RankingService {
	return &RankingService{db: db, clock: clock}
}

// LogPoints adds points to today's tally and to the user's lifetime total, returning the new total.
func (s *RankingService) LogPoints(ctx context.Context, userID uint, points int) (int, error) {
	if points <= 0 {
		return 0, ErrInvalidPoints
	}
	today := s.clock.Today()
	var total int

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := lockUser(tx, userID)
		if err != nil {
			return err
		}
		row := models.DailyLearningPoint{UserID: userID, LogDate: today, Points: points}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "log_date"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"points":     gorm.Expr("daily_learning_points.points + ?", points),
				"updated_at": s.clock.Now(),
			}),
		}).Create(&row).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", userID).
			UpdateColumn("total_learning_points", gorm.Expr("total_learning_points + ?", points)).Error; err != nil {
			return err
		}
		total = user.TotalLearningPoints + points
		return nil
	})
	if err != nil {
		return 0, err
	}
	metrics.LearningPoints.Add(float64(points))
	return total, nil
}

// window returns the [from, to) date range of a scope around day.
func (s *RankingService) window(scope string, day time.Time) (time.Time, time.Time, error) {
	switch scope {
	case ScopeDaily:
		d := s.clock.Date(day)
		return d, d.AddDate(0, 0, 1), nil
	case ScopeWeekly:
		w := s.clock.WeekStart(day)
		return w, w.AddDate(0, 0, 7), nil
	default:
		return time.Time{}, time.Time{}, ErrInvalidScope
	}
}

const rankingSQL = `SELECT t.user_id, u.username, t.points, RANK() OVER (ORDER BY t.points DESC) AS rank_no
FROM (SELECT user_id, SUM(points) AS points FROM daily_learning_points
      WHERE log_date >= ? AND log_date < ? GROUP BY user_id) t
JOIN users u ON u.id = t.user_id AND u.deleted_at IS NULL`

// Leaderboard ranks users by points earned in the scope containing day.
func (s *RankingService) Leaderboard(ctx context.Context, scope string, day time.Time, limit int) ([]RankEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	from, to, err := s.window(scope, day)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("cache:rank:%s:%s:%d", scope, from.Format(dateLayout), limit)
	var entries []RankEntry
	if utils.CacheGetJSON(cacheKey, &entries) {
		return entries, nil
	}

	err = s.db.WithContext(ctx).
		Raw(rankingSQL+" ORDER BY rank_no, t.user_id LIMIT ?", from, to, limit).
		Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []RankEntry{}
	}
	utils.CacheSetJSON(cacheKey, entries, rankingCacheTTL)
	return entries, nil
}

// UserRank finds the user's own row in the scope containing day. A user without points ranks 0.
func (s *RankingService) UserRank(ctx context.Context, scope string, day time.Time, userID uint) (*RankEntry, error) {
	from, to, err := s.window(scope, day)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	if err := userExists(db, userID); err != nil {
		return nil, err
	}
	var entries []RankEntry
	if err := db.Raw("SELECT * FROM ("+rankingSQL+") r WHERE r.user_id = ?", from, to, userID).
		Scan(&entries).Error; err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return &RankEntry{UserID: userID}, nil
	}
	return &entries[0], nil
}
