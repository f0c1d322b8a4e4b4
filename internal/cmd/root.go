// Package cmd implements storectl, the operator CLI for BeeStore.
package cmd

import (
	"fmt"
	"os"

	"beestore/internal/config"
	"beestore/internal/database"
	"beestore/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "storectl",
	Short: "BeeStore operator tool",
	Long: `storectl manages a BeeStore deployment: it applies and inspects
database migrations, exports the catalog, accounts and orders as CSV,
and bootstraps administrator accounts.

Configuration is read from the same environment variables as the API.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env is what every subcommand needs: configuration, a logger and a database.
type env struct {
	cfg *config.Config
	log *zap.Logger
	db  database.Service
}

func openEnv() (*env, error) {
	config.LoadEnvFile(envFile)
	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, err
	}

	return &env{cfg: cfg, log: log, db: db}, nil
}

func (e *env) Close() {
	e.db.Close()
	e.log.Sync()
}
