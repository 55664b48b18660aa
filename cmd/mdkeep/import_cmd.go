package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/mdkeep/internal/config"
	"github.com/xxxsen/mdkeep/internal/karakeep"
	"github.com/xxxsen/mdkeep/internal/model"
	"github.com/xxxsen/mdkeep/internal/runlog"
	"github.com/xxxsen/mdkeep/internal/service"
	"github.com/xxxsen/mdkeep/internal/source"
)

type importOptions struct {
	baseURL string
	apiKey  string
	delay   time.Duration
	timeout time.Duration
}

func newImportCmd(opts *globalOptions) *cobra.Command {
	iopts := &importOptions{}
	cmd := &cobra.Command{
		Use:   "import [file or directory ...]",
		Short: "import .md files as text bookmarks",
		Long: "Import Markdown files one by one. Without arguments the source configured in\n" +
			"config.json (local paths or an S3 prefix) is used.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			return runImport(cmd, cfg, iopts, args)
		},
	}
	cmd.Flags().StringVar(&iopts.baseURL, "base-url", "", "bookmark API base URL, e.g. https://keep.example.com/api/v1")
	cmd.Flags().StringVar(&iopts.apiKey, "api-key", "", "bookmark API key")
	cmd.Flags().DurationVar(&iopts.delay, "delay", -1, "pause between files (default from config, 100ms)")
	cmd.Flags().DurationVar(&iopts.timeout, "timeout", 0, "per-request timeout (default from config, none)")
	return cmd
}

func runImport(cmd *cobra.Command, cfg *config.Config, iopts *importOptions, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	creds := service.Credentials{APIBaseURL: iopts.baseURL, APIKey: iopts.apiKey}.
		Merge(service.Credentials{APIBaseURL: cfg.API.BaseURL, APIKey: cfg.API.APIKey})
	if creds.APIBaseURL == "" || creds.APIKey == "" {
		creds = creds.Merge(loadStoredCredentials(ctx, cfg))
	}

	files, err := collectFiles(ctx, cfg, args)
	if err != nil {
		return err
	}

	delay := cfg.Import.Delay()
	if iopts.delay >= 0 {
		delay = iopts.delay
	}
	timeout := cfg.API.Timeout()
	if iopts.timeout > 0 {
		timeout = iopts.timeout
	}
	svc := service.NewImportService(
		service.KarakeepClientFactory(karakeep.WithTimeout(timeout)),
		service.WithDelay(delay),
	)
	summary, err := svc.Run(ctx, service.RunContext{
		APIBaseURL: creds.APIBaseURL,
		APIKey:     creds.APIKey,
		Sink:       runlog.Console(cmd.OutOrStdout()),
	}, files)
	if summary != nil {
		printSummary(cmd, summary)
	}
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed to import", summary.Failed, summary.Processed)
	}
	return nil
}

func collectFiles(ctx context.Context, cfg *config.Config, args []string) ([]model.FileHandle, error) {
	var src source.Source
	switch {
	case len(args) > 0:
		src = source.NewLocal(args...)
	case cfg.Source.Type != "":
		configured, err := source.New(cfg.Source)
		if err != nil {
			return nil, fmt.Errorf("init source: %w", err)
		}
		src = configured
	default:
		return nil, nil
	}
	files, err := src.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %s source: %w", src.Type(), err)
	}
	return files, nil
}

func loadStoredCredentials(ctx context.Context, cfg *config.Config) service.Credentials {
	creds, closeFn, err := openCredentials(cfg)
	if err != nil {
		logutil.GetLogger(ctx).Warn("stored credentials unavailable", zap.Error(err))
		return service.Credentials{}
	}
	defer closeFn()
	stored, err := creds.Load(ctx)
	if err != nil {
		logutil.GetLogger(ctx).Warn("load stored credentials failed", zap.Error(err))
	}
	return stored
}

func printSummary(cmd *cobra.Command, s *model.Summary) {
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "\nselected: %d  attempted: %d  succeeded: %d  failed: %d  skipped: %d\n",
		s.Selected, s.Processed, s.Succeeded, s.Failed, s.Skipped)
	if s.Aborted {
		_, _ = fmt.Fprintln(out, "run was interrupted before all files were processed")
	}
}
