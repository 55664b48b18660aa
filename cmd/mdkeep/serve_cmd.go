package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/mdkeep/internal/config"
	"github.com/xxxsen/mdkeep/internal/handler"
	"github.com/xxxsen/mdkeep/internal/karakeep"
	"github.com/xxxsen/mdkeep/internal/middleware"
	"github.com/xxxsen/mdkeep/internal/runcache"
	"github.com/xxxsen/mdkeep/internal/service"
)

const maxUploadSize = 10 * 1024 * 1024

func newServeCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "serve the upload API used by the browser page",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}
}

func runServer(cfg *config.Config) error {
	if cfg.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required for serve")
	}
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.String("listen_host", cfg.ListenHost),
		zap.Int("port", cfg.Port),
		zap.String("db_path", cfg.DBPath),
		zap.Duration("import_delay", cfg.Import.Delay()),
	)

	creds, closeFn, err := openCredentials(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	importService := service.NewImportService(
		service.KarakeepClientFactory(karakeep.WithTimeout(cfg.API.Timeout())),
		service.WithDelay(cfg.Import.Delay()),
	)
	runs := runcache.New(cfg.RunCache.Size, cfg.RunCache.TTL())

	deps := handler.RouterDeps{
		Import:          handler.NewImportHandler(importService, creds, runs, maxUploadSize),
		Settings:        handler.NewSettingsHandler(creds),
		ImportRateLimit: time.Duration(cfg.RateLimitSec) * time.Second,
		JWTSecret:       []byte(cfg.JWTSecret),
	}

	addr := net.JoinHostPort(cfg.ListenHost, strconv.Itoa(cfg.Port))
	engine, err := webapi.NewEngine(
		"/api/v1",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", addr))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
