package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"mspro-labs/cellar-scout/internal/config"
	"mspro-labs/cellar-scout/internal/db"
)

var applySchema bool

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print (or create) the product table for the configured variant",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !applySchema {
			cfg, err := config.Load(appConfigPath)
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			schema, err := db.NewSchema(cfg.Database.Table, cfg.Database.Variant)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), schema.CreateTableSQL())
			return nil
		}

		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		if err := db.EnsureSchema(cmd.Context(), e.db, e.schema); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Table %s is ready (%d columns).\n", e.schema.Table, len(e.schema.Columns))
		return nil
	},
}

func init() {
	schemaCmd.Flags().BoolVar(&applySchema, "apply", false, "create the table in the configured database")
	rootCmd.AddCommand(schemaCmd)
}
