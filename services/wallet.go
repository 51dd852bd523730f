package services

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feyndora/backend/config"
	"github.com/feyndora/backend/metrics"
	"github.com/feyndora/backend/models"
)

// lockUser loads the user row FOR UPDATE; every claim starts with it so that
// concurrent claims for one user queue behind each other.
func lockUser(tx *gorm.DB, userID uint) (models.User, error) {
	var user models.User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user, ErrUserNotFound
	}
	return user, err
}

// userExists is the read-only counterpart of lockUser.
func userExists(db *gorm.DB, userID uint) error {
	var n int64
	if err := db.Model(&models.User{}).Where("id = ?", userID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// credit adds a reward to the user's balances.
func credit(tx *gorm.DB, userID uint, r config.Reward, source string) error {
	if r.Coins == 0 && r.Diamonds == 0 {
		return nil
	}
	res := tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"coins":    gorm.Expr("coins + ?", r.Coins),
		"diamonds": gorm.Expr("diamonds + ?", r.Diamonds),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	if r.Coins > 0 {
		metrics.RewardsGranted.WithLabelValues(source, "coins").Add(float64(r.Coins))
	}
	if r.Diamonds > 0 {
		metrics.RewardsGranted.WithLabelValues(source, "diamonds").Add(float64(r.Diamonds))
	}
	return nil
}

// debit subtracts a price, refusing to take any balance below zero.
func debit(tx *gorm.DB, userID uint, coins, diamonds int) error {
	res := tx.Model(&models.User{}).
		Where("id = ? AND coins >= ? AND diamonds >= ?", userID, coins, diamonds).
		Updates(map[string]interface{}{
			"coins":    gorm.Expr("coins - ?", coins),
			"diamonds": gorm.Expr("diamonds - ?", diamonds),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientFunds
	}
	return nil
}
