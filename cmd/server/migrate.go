package main

import (
	"fmt"

	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/bootstrap"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the exams table in the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load(cmd)
			if err != nil {
				return err
			}
			store, err := bootstrap.OpenStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema is up to date on %s.\n", store.Driver)
			return nil
		},
	}
}
