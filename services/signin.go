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

const dateLayout = "2006-01-02"

// StreakReader exposes the live weekly sign-in streak to other engines.
// db may be an open transaction.
type StreakReader interface {
	WeeklyStreak(db *gorm.DB, userID uint, weekStart time.Time) (int, error)
}

// SigninStatus is the read-only view of a user's sign-in cycle.
// CurrentDay and WeeklyStreak are the values the next claim starts from.
type SigninStatus struct {
	CurrentDay          int           `json:"current_day"`
	WeeklyStreak        int           `json:"weekly_streak"`
	AlreadyClaimedToday bool          `json:"already_claimed_today"`
	LastClaimDate       *string       `json:"last_claim_date"`
	IsNewWeek           bool          `json:"is_new_week"`
	TotalSigninDays     int           `json:"total_signin_days"`
	TodayReward         config.Reward `json:"today_reward"`
}

// SigninResult describes one successful claim.
type SigninResult struct {
	Day             int `json:"day"`
	NextDay         int `json:"next_day"`
	WeeklyStreak    int `json:"weekly_streak"`
	CoinsGranted    int `json:"coins_granted"`
	DiamondsGranted int `json:"diamonds_granted"`
	TotalSigninDays int `json:"total_signin_days"`
}

// SigninService runs the 7-day sign-in cycle.
type SigninService struct {
	db     *gorm.DB
	clock  *Clock
	tables *config.Gamification
}

func NewSigninService(db *gorm.DB, clock *Clock, tables *config.Gamification) *SigninService {
	return &SigninService{db: db, clock: clock, tables: tables}
}

// advance applies one claim on today to the stored cycle state and returns the day
// to reward and the new streak. A claim in a new week restarts the cycle even when
// it also follows yesterday's claim.
func advance(day, streak int, last *time.Time, today, weekStart time.Time) (int, int) {
	if day < 1 || day > 7 {
		day = 1
	}
	switch {
	case last != nil && last.Before(weekStart):
		return 1, 1
	case last != nil && last.Equal(today.AddDate(0, 0, -1)):
		return day, streak + 1
	default:
		return day, 1
	}
}

func nextDay(day int) int {
	if day >= 7 {
		return 1
	}
	return day + 1
}

func (s *SigninService) lastDate(rec *models.SigninRecord) *time.Time {
	if rec == nil || rec.LastSigninDate == nil {
		return nil
	}
	d := s.clock.Date(*rec.LastSigninDate)
	return &d
}

func (s *SigninService) findRecord(db *gorm.DB, userID uint) (*models.SigninRecord, error) {
	var rec models.SigninRecord
	err := db.Where("user_id = ?", userID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Status reports the cycle state without writing anything.
func (s *SigninService) Status(ctx context.Context, userID uint) (*SigninStatus, error) {
	db := s.db.WithContext(ctx)
	var user models.User
	if err := db.Select("id", "signin_days").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	rec, err := s.findRecord(db, userID)
	if err != nil {
		return nil, err
	}

	today := s.clock.Today()
	weekStart := s.clock.WeekStart(today)
	last := s.lastDate(rec)

	status := &SigninStatus{
		CurrentDay:      1,
		IsNewWeek:       last == nil || last.Before(weekStart),
		TotalSigninDays: user.SigninDays,
	}
	if last != nil {
		formatted := last.Format(dateLayout)
		status.LastClaimDate = &formatted
		status.AlreadyClaimedToday = last.Equal(today)
	}
	if rec != nil && !status.IsNewWeek {
		status.CurrentDay = rec.SigninDay
		status.WeeklyStreak = rec.WeeklyStreak
	}
	if status.CurrentDay < 1 || status.CurrentDay > 7 {
		status.CurrentDay = 1
	}
	status.TodayReward = s.tables.SigninReward(status.CurrentDay)
	return status, nil
}

// Init creates the user's sign-in record if it does not exist yet.
func (s *SigninService) Init(ctx context.Context, userID uint) (*SigninStatus, error) {
	db := s.db.WithContext(ctx)
	if err := userExists(db, userID); err != nil {
		return nil, err
	}
	rec := models.SigninRecord{UserID: userID, SigninDay: 1}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec).Error; err != nil {
		return nil, err
	}
	return s.Status(ctx, userID)
}

// Claim grants today's reward once per civil day.
func (s *SigninService) Claim(ctx context.Context, userID uint) (*SigninResult, error) {
	today := s.clock.Today()
	weekStart := s.clock.WeekStart(today)
	var result SigninResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := lockUser(tx, userID)
		if err != nil {
			return err
		}

		var rec models.SigninRecord
		if err := tx.Where(models.SigninRecord{UserID: userID}).
			Attrs(models.SigninRecord{SigninDay: 1}).
			FirstOrCreate(&rec).Error; err != nil {
			return err
		}

		last := s.lastDate(&rec)
		if last != nil && !last.Before(today) {
			return ErrAlreadySignedIn
		}

		day, streak := advance(rec.SigninDay, rec.WeeklyStreak, last, today, weekStart)
		reward := s.tables.SigninReward(day)

		// Re-assert "not claimed today" in the write itself.
		update := tx.Model(&models.SigninRecord{}).Where("user_id = ?", userID)
		if rec.LastSigninDate == nil {
			update = update.Where("last_signin_date IS NULL")
		} else {
			update = update.Where("last_signin_date < ?", today)
		}
		res := update.Updates(map[string]interface{}{
			"signin_day":       nextDay(day),
			"weekly_streak":    streak,
			"last_signin_date": today,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadySignedIn
		}

		entry := models.SigninLog{
			UserID:         userID,
			SigninDate:     today,
			Day:            day,
			StreakAchieved: streak,
			Coins:          reward.Coins,
			Diamonds:       reward.Diamonds,
		}
		if err := tx.Create(&entry).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadySignedIn
			}
			return err
		}

		if err := credit(tx, userID, reward, "signin"); err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", userID).
			UpdateColumn("signin_days", gorm.Expr("signin_days + 1")).Error; err != nil {
			return err
		}

		result = SigninResult{
			Day:             day,
			NextDay:         nextDay(day),
			WeeklyStreak:    streak,
			CoinsGranted:    reward.Coins,
			DiamondsGranted: reward.Diamonds,
			TotalSigninDays: user.SigninDays + 1,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAlreadySignedIn) {
			metrics.ClaimsRejected.WithLabelValues("signin", "already_claimed").Inc()
		}
		return nil, err
	}

	utils.Sugar.Infow("signin claimed", "user_id", userID, "day", result.Day, "streak", result.WeeklyStreak)
	return &result, nil
}

// History lists the most recent claims, newest first.
func (s *SigninService) History(ctx context.Context, userID uint, limit int) ([]models.SigninLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 30
	}
	db := s.db.WithContext(ctx)
	if err := userExists(db, userID); err != nil {
		return nil, err
	}
	var logs []models.SigninLog
	err := db.Where("user_id = ?", userID).Order("signin_date DESC").Limit(limit).Find(&logs).Error
	return logs, err
}

// WeeklyStreak returns the stored streak, or 0 when the last claim predates weekStart.
func (s *SigninService) WeeklyStreak(db *gorm.DB, userID uint, weekStart time.Time) (int, error) {
	rec, err := s.findRecord(db, userID)
	if err != nil || rec == nil {
		return 0, err
	}
	last := s.lastDate(rec)
	if last == nil || last.Before(weekStart) {
		return 0, nil
	}
	return rec.WeeklyStreak, nil
}
