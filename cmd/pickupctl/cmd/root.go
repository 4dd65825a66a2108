package cmd

import (
	"fmt"
	"os"

	"blinklean/internal/config"
	"blinklean/internal/database"
	"blinklean/internal/logging"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var configPath string

// rootCmd is the operator entry point; subcommands work against the same config as the API.
var rootCmd = &cobra.Command{
	Use:           "pickupctl",
	Short:         "Operator tool for the BlinkLean pickup backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = "configs/config.yaml"
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultPath, "path to config.yaml")
}

type env struct {
	cfg    *config.Config
	logger *zerolog.Logger
	db     *database.DB
}

func (e *env) Close() {
	if e.db != nil {
		_ = e.db.Close()
	}
}

func loadConfig() (*config.Config, *zerolog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	// CLI output goes to stdout; logs stay on stderr at warn and above.
	logCfg := cfg.Logging
	logCfg.Output = "stderr"
	if logCfg.Level == "" || logCfg.Level == "debug" || logCfg.Level == "info" {
		logCfg.Level = "warn"
	}
	logger, _, err := logging.New(logCfg, cfg.App)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

func openEnv() (*env, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	db, err := database.NewDB(cfg.Database.Path, logging.Component(logger, "database"))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &env{cfg: cfg, logger: logger, db: db}, nil
}
