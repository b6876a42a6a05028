package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mspro-labs/cellar-scout/internal/config"
	"mspro-labs/cellar-scout/internal/db"
	"mspro-labs/cellar-scout/internal/logger"
)

var appConfigPath string

var rootCmd = &cobra.Command{
	Use:   "cellar-scout",
	Short: "Scrape spirits, wine and beer listings into SQL",
	Long: `cellar-scout fetches retailer product pages, extracts product fields with
the selectors from a site config, normalizes price and ABV, and writes one
row per product into the alcohol data table.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&appConfigPath, "app-config", "", "optional app config file (env vars otherwise)")
}

// Execute runs the CLI until it finishes or ctx is cancelled.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// env bundles what every command needs. Close releases all of it.
type env struct {
	cfg    *config.AppConfig
	log    *logger.Logger
	db     *sql.DB
	schema db.Schema
}

func setup(ctx context.Context) (*env, error) {
	cfg, err := config.Load(appConfigPath)
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	log, err := logger.New(logger.Config{
		File:        cfg.LogFile,
		Level:       cfg.LogLevel,
		Environment: cfg.Environment,
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		return nil, fmt.Errorf("logger error: %w", err)
	}

	schema, err := db.NewSchema(cfg.Database.Table, cfg.Database.Variant)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	database, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &env{cfg: cfg, log: log, db: database, schema: schema}, nil
}

func (e *env) Close() {
	e.db.Close()
	_ = e.log.Sync()
}
