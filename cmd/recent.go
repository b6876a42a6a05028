package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"mspro-labs/cellar-scout/internal/db"
	"mspro-labs/cellar-scout/internal/models"
)

var recentLimit int

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show the most recently scraped products",
	Long: `Lists the newest rows of the alcohol data table.
Examples:
  cellar-scout recent
  cellar-scout recent --limit 50`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if recentLimit < 1 {
			return fmt.Errorf("--limit must be at least 1, got %d", recentLimit)
		}
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		records, err := db.Recent(cmd.Context(), e.db, e.schema, recentLimit)
		if err != nil {
			return fmt.Errorf("failed to list products: %w", err)
		}
		if len(records) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No products found.")
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Scraped", "Retailer", "Name", "Price", "ABV", "URL"})
		for _, r := range records {
			t.AppendRow(table.Row{
				show(r.Get(models.ScrapeDate)),
				show(r.Get(models.RetailerName)),
				show(r.Get(models.CompleteName)),
				show(r.Get(models.Price)),
				show(r.Get(models.ABV)),
				show(r.Get(models.URL)),
			})
		}
		t.Render()
		return nil
	},
}

func init() {
	recentCmd.Flags().IntVarP(&recentLimit, "limit", "n", 20, "number of rows to show")
	rootCmd.AddCommand(recentCmd)
}

func show(v any) string {
	if v == nil {
		return "-"
	}
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.2f", f)
	}
	return fmt.Sprint(v)
}
