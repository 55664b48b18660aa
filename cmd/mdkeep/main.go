package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/mdkeep/internal/config"
	"github.com/xxxsen/mdkeep/internal/db"
	"github.com/xxxsen/mdkeep/internal/repo"
	"github.com/xxxsen/mdkeep/internal/service"
)

type globalOptions struct {
	configPath string
	dbPath     string
}

func main() {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "mdkeep",
		Short:         "import markdown files into a bookmark service as text bookmarks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config.json")
	rootCmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "path to the local settings database (overrides db_path)")

	rootCmd.AddCommand(
		newImportCmd(opts),
		newServeCmd(opts),
		newTokenCmd(opts),
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
	)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("command failed", zap.Error(err))
	}
}

// loadConfig reads --config when given, applies --db and initialises the logger.
func loadConfig(opts *globalOptions) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if opts.dbPath != "" {
		cfg.DBPath = opts.dbPath
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Debug("config loaded",
		zap.String("config", opts.configPath),
		zap.String("db_path", cfg.DBPath),
	)
	return cfg, nil
}

func openCredentials(cfg *config.Config) (*service.CredentialService, func(), error) {
	conn, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	return service.NewCredentialService(repo.NewSettingsRepo(conn)), func() {
		_ = conn.Close()
	}, nil
}
