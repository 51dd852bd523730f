package cli

import (
	"github.com/spf13/cobra"

	"github.com/feyndora/backend/config"
	"github.com/feyndora/backend/models"
	"github.com/feyndora/backend/utils"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if err := utils.InitLogger(cfg); err != nil {
			return err
		}
		db := config.InitDatabase(models.All()...)
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		utils.Sugar.Infof("migrated %d tables", len(models.All()))
		return nil
	},
}
