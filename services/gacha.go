package services

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feyndora/backend/config"
	"github.com/feyndora/backend/metrics"
	"github.com/feyndora/backend/models"
	"github.com/feyndora/backend/utils"
)

// DrawResult describes the card obtained by one draw.
type DrawResult struct {
	DrawID            string `json:"draw_id"`
	CardID            uint   `json:"card_id"`
	Name              string `json:"name"`
	Rarity            string `json:"rarity"`
	ImageURL          string `json:"image_url"`
	IsFirstCopy       bool   `json:"is_first_copy"`
	RemainingCoins    int    `json:"remaining_coins"`
	RemainingDiamonds int    `json:"remaining_diamonds"`
}

// GachaService sells random teacher cards for coins or diamonds.
type GachaService struct {
	db     *gorm.DB
	clock  *Clock
	tables *config.Gamification
	intn   func(n int) int
}

func NewGachaService(db *gorm.DB, clock *Clock, tables *config.Gamification) *GachaService {
	return &GachaService{db: db, clock: clock, tables: tables, intn: rand.IntN}
}

// WithRand replaces the random source; intn must return a value in [0, n).
func (s *GachaService) WithRand(intn func(n int) int) *GachaService {
	s.intn = intn
	return s
}

// rollRarity maps a roll in [0, 100) onto the draw's weights, epic first.
func rollRarity(d config.Draw, roll int) string {
	switch {
	case roll < d.Epic:
		return config.RarityEpic
	case roll < d.Epic+d.Rare:
		return config.RarityRare
	default:
		return config.RarityCommon
	}
}

// Draw charges the draw price and grants one card in a single transaction.
// Nothing is charged when the draw fails.
func (s *GachaService) Draw(ctx context.Context, userID uint, kind string) (*DrawResult, error) {
	price, ok := s.tables.Draw(kind)
	if !ok {
		return nil, ErrInvalidDrawType
	}
	var result DrawResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := lockUser(tx, userID)
		if err != nil {
			return err
		}
		if user.Coins < price.CostCoins || user.Diamonds < price.CostDiamonds {
			return ErrInsufficientFunds
		}

		rarity := rollRarity(price, s.intn(100))
		var ids []uint
		if err := tx.Model(&models.Card{}).Where("rarity = ?", rarity).Order("id").Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return ErrNoCardAvailable
		}
		var card models.Card
		if err := tx.First(&card, ids[s.intn(len(ids))]).Error; err != nil {
			return err
		}

		if err := debit(tx, userID, price.CostCoins, price.CostDiamonds); err != nil {
			return err
		}

		now := s.clock.Now()
		firstCopy := false
		var owned models.UserCard
		err = tx.Where("user_id = ? AND card_id = ?", userID, card.ID).First(&owned).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			firstCopy = true
			if err := tx.Create(&models.UserCard{UserID: userID, CardID: card.ID, AcquiredAt: now}).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if err := tx.Model(&owned).Update("acquired_at", now).Error; err != nil {
				return err
			}
		}

		drawID := uuid.NewString()
		if err := tx.Create(&models.CardDraw{
			ID:           drawID,
			UserID:       userID,
			DrawType:     kind,
			CardID:       card.ID,
			Rarity:       card.Rarity,
			CostCoins:    price.CostCoins,
			CostDiamonds: price.CostDiamonds,
			FirstCopy:    firstCopy,
		}).Error; err != nil {
			return err
		}

		result = DrawResult{
			DrawID:            drawID,
			CardID:            card.ID,
			Name:              card.Name,
			Rarity:            card.Rarity,
			ImageURL:          card.ImageURL,
			IsFirstCopy:       firstCopy,
			RemainingCoins:    user.Coins - price.CostCoins,
			RemainingDiamonds: user.Diamonds - price.CostDiamonds,
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInsufficientFunds):
			metrics.ClaimsRejected.WithLabelValues("gacha", "insufficient_funds").Inc()
		case errors.Is(err, ErrNoCardAvailable):
			utils.Sugar.Errorw("card catalog has an empty rarity tier", "draw_type", kind, "user_id", userID)
		}
		return nil, err
	}

	metrics.CardDraws.WithLabelValues(kind, result.Rarity).Inc()
	return &result, nil
}

// Cards lists the user's collection, most recently acquired first.
func (s *GachaService) Cards(ctx context.Context, userID uint) ([]models.UserCard, error) {
	db := s.db.WithContext(ctx)
	if err := userExists(db, userID); err != nil {
		return nil, err
	}
	var cards []models.UserCard
	err := db.Preload("Card").Where("user_id = ?", userID).Order("acquired_at DESC").Find(&cards).Error
	return cards, err
}

// Select marks one owned card as the user's active teacher, clearing any previous choice.
func (s *GachaService) Select(ctx context.Context, userID, cardID uint) (*models.UserCard, error) {
	var selected models.UserCard
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockUser(tx, userID); err != nil {
			return err
		}
		err := tx.Preload("Card").Where("user_id = ? AND card_id = ?", userID, cardID).First(&selected).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCardNotFound
		}
		if err != nil {
			return err
		}
		if err := tx.Model(&models.UserCard{}).Where("user_id = ? AND is_selected = ?", userID, true).
			Update("is_selected", false).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.UserCard{}).Where("id = ?", selected.ID).
			Update("is_selected", true).Error; err != nil {
			return err
		}
		selected.IsSelected = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &selected, nil
}

// Catalog lists every card that can be drawn.
func (s *GachaService) Catalog(ctx context.Context) ([]models.Card, error) {
	var cards []models.Card
	err := s.db.WithContext(ctx).Order("rarity, id").Find(&cards).Error
	return cards, err
}

// SeedCatalog inserts cards, updating rarity and text of cards that already exist by name.
func (s *GachaService) SeedCatalog(ctx context.Context, cards []models.Card) error {
	if len(cards) == 0 {
		return nil
	}
	for _, c := range cards {
		switch c.Rarity {
		case config.RarityCommon, config.RarityRare, config.RarityEpic:
		default:
			return errors.New("card " + c.Name + " has unknown rarity " + c.Rarity)
		}
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"rarity", "description", "image_url"}),
	}).Create(&cards).Error
}
