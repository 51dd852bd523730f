package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/feyndora/backend/config"
	"github.com/feyndora/backend/models"
	"github.com/feyndora/backend/routes"
	"github.com/feyndora/backend/services"
	"github.com/feyndora/backend/utils"
)

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (overrides config)")
	serveCmd.Flags().StringVar(&serveCards, "cards", "", "Seed the card catalog from this TOML file before serving")
	rootCmd.AddCommand(serveCmd)
}

var (
	servePort  string
	serveCards string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if servePort != "" {
		cfg.AppPort = servePort
	}
	if err := utils.InitLogger(cfg); err != nil {
		return err
	}
	defer func() { _ = utils.Logger.Sync() }()

	db := config.InitDatabase(models.All()...)
	engines, err := bootEngines(cfg)
	if err != nil {
		return err
	}

	if serveCards != "" {
		n, err := seedCards(cmd.Context(), engines, serveCards)
		if err != nil {
			return err
		}
		utils.Sugar.Infof("seeded %d cards from %s", n, serveCards)
	}

	stopJanitor := func() {}
	if cfg.QuestJanitorMinutes > 0 {
		stopJanitor = services.StartQuestJanitor(engines.Quests, time.Duration(cfg.QuestJanitorMinutes)*time.Minute)
	}
	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	r := routes.SetupRouter(db, engines)
	utils.Sugar.Infow("starting server", "port", cfg.AppPort, "timezone", engines.Clock.Location().String())
	if err := utils.GraceServer(":"+cfg.AppPort, r, stopJanitor, closeDB); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}

// bootEngines opens the database and builds the gamification engines from the configured tables.
func bootEngines(cfg config.AppConfig) (*services.Engines, error) {
	tables, err := config.LoadGamification(cfg.GamificationPath)
	if err != nil {
		return nil, err
	}
	db := config.InitDatabase(models.All()...)
	return services.NewEngines(db, tables, services.NewClock(config.Location())), nil
}
