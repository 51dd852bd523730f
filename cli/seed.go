package cli

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/feyndora/backend/config"
	"github.com/feyndora/backend/models"
	"github.com/feyndora/backend/services"
	"github.com/feyndora/backend/utils"
)

func init() {
	seedCmd.Flags().StringVar(&seedCardsPath, "file", filepath.Join("config", "cards.toml"), "Card catalog TOML file")
	rootCmd.AddCommand(seedCmd)
}

var seedCardsPath string

var seedCmd = &cobra.Command{
	Use:   "seed-cards",
	Short: "Insert or update the teacher card catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if err := utils.InitLogger(cfg); err != nil {
			return err
		}
		engines, err := bootEngines(cfg)
		if err != nil {
			return err
		}
		n, err := seedCards(cmd.Context(), engines, seedCardsPath)
		if err != nil {
			return err
		}
		utils.Sugar.Infof("seeded %d cards from %s", n, seedCardsPath)
		return nil
	},
}

func seedCards(ctx context.Context, engines *services.Engines, path string) (int, error) {
	seeds, err := config.LoadCardCatalog(path)
	if err != nil {
		return 0, err
	}
	cards := make([]models.Card, 0, len(seeds))
	for _, s := range seeds {
		cards = append(cards, models.Card{
			Name:        s.Name,
			Rarity:      s.Rarity,
			Description: s.Description,
			ImageURL:    s.ImageURL,
		})
	}
	if err := engines.Gacha.SeedCatalog(ctx, cards); err != nil {
		return 0, err
	}
	utils.InvalidateByPrefix("cache:cards:")
	return len(cards), nil
}
