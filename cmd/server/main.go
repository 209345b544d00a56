package main

import (
	"fmt"
	"os"

	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/config"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "poc-paginacao",
		Short:         "Paginated exam records over Postgres, MySQL, DynamoDB or memory",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "config.yaml", "Path to the YAML config file")

	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(indexesCmd())
	root.AddCommand(seedCmd())
	return root
}

// load reads the config named by --config and builds the logger from it.
func load(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("config loading failed: %w", err)
	}
	appLogger, err := logger.New(&cfg.Logger)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("logger initialization failed: %w", err)
	}
	return cfg, appLogger, nil
}
