package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mspro-labs/cellar-scout/internal/config"
	"mspro-labs/cellar-scout/internal/db"
	"mspro-labs/cellar-scout/internal/fetch"
	"mspro-labs/cellar-scout/internal/scraper"
)

var createTable bool

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape [url...]",
	Short: "Scrape product pages and save one row per product",
	Long: `Fetches each product URL (from the arguments, or product_urls in the site
config), extracts fields with the configured selectors and inserts them.
A page that fails to fetch or save is logged and skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScrape(cmd, args)
	},
}

func init() {
	scrapeCmd.Flags().BoolVar(&createTable, "create-table", false, "create the table first if it does not exist")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. Config, logger & DB
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	site, err := config.LoadSiteConfig(e.cfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load site config: %w", err)
	}

	urls := args
	if len(urls) == 0 {
		urls = site.ProductURLs
	}
	if len(urls) == 0 {
		return fmt.Errorf("no product URLs given and none in %s", e.cfg.ConfigPath)
	}

	dialect, err := db.DialectFor(e.cfg.Database.Driver)
	if err != nil {
		return err
	}
	if createTable {
		if err := db.EnsureSchema(ctx, e.db, e.schema); err != nil {
			return err
		}
	}

	// 2. Scrape
	log := e.log.With(zap.String("retailer", site.Retailer))
	client := fetch.New(fetch.Options{
		Timeout:  site.Fetch.Timeout,
		MinDelay: site.Fetch.MinDelay,
		MaxDelay: site.Fetch.MaxDelay,
		Headers:  site.Fetch.Headers,
		Logger:   log,
	})
	defer client.Close()

	for name := range site.Fields {
		if !slices.Contains(e.schema.Columns, name) {
			log.Warn("field is not stored by this schema variant",
				zap.String("field", name),
				zap.String("variant", string(e.cfg.Database.Variant)),
			)
		}
	}

	persister := db.NewPersister(e.db, e.schema, dialect, log)
	log.Info("starting scrape", zap.Int("urls", len(urls)))
	sum := scraper.Run(ctx, client, persister, site, urls, log)
	log.Info("scrape finished",
		zap.Int("saved", sum.Saved),
		zap.Int("fetch_failed", sum.FetchFailed),
		zap.Int("save_failed", sum.SaveFailed),
	)

	// 3. Report
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %d of %d products into %s.\n", sum.Saved, len(urls), e.schema.Table)
	for _, u := range sum.FailedURLs {
		fmt.Fprintf(cmd.OutOrStdout(), "  failed: %s\n", u)
	}
	return ctx.Err()
}
