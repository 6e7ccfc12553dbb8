package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hirelens-backend/internal/shared/config"
	"hirelens-backend/internal/shared/storage/db"
)

func newMigrateCmd() *cobra.Command {
	var statusOnly bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations to DATABASE_URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			sqlDB, err := db.Connect(cmd.Context(), cfg.DatabaseURL, db.MigratePool().FromEnv())
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			var version int64
			if statusOnly {
				version, err = db.SchemaVersion(cmd.Context(), sqlDB)
			} else {
				version, err = db.Migrate(cmd.Context(), sqlDB)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
			return nil
		},
	}
	cmd.Flags().BoolVar(&statusOnly, "status", false, "print the applied schema version without migrating")
	return cmd
}
