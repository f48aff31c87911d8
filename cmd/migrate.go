package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/taskchat/internal/config"
	"github.com/taskchat/internal/database"
	"github.com/taskchat/internal/logging"
)

// MigrateCommand applies pending database migrations.
func MigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending database migrations",
		Action: func(c *cli.Context) error {
			logging.Setup("info")

			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return err
			}

			db, err := database.NewDB(cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			log.Info().Msg("Migrations applied")
			return nil
		},
	}
}
