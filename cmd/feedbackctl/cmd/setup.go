package cmd

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/templui/feedbackdesk/internal/app"
	"github.com/templui/feedbackdesk/internal/config"
	"github.com/templui/feedbackdesk/internal/db"
	"github.com/templui/feedbackdesk/internal/logger"
)

func loadConfig() *config.Config {
	cfg := config.Load()
	logger.Init(cfg.AppEnv, cfg.AppName, cfg.SentryDSN)
	return cfg
}

// openDB connects without migrating, for the migrate commands.
func openDB() (*config.Config, *sqlx.DB, error) {
	cfg := loadConfig()

	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return cfg, database, nil
}

// openApp opens a migrated database with every service wired.
func openApp() (*app.App, error) {
	return app.New(loadConfig())
}
