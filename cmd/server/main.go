package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/renjuashokan/filepi/internal/api"
	"github.com/renjuashokan/filepi/internal/config"
	"github.com/renjuashokan/filepi/internal/files"
	"github.com/renjuashokan/filepi/internal/logging"
	"github.com/renjuashokan/filepi/internal/metrics"
	"github.com/renjuashokan/filepi/internal/thumbs"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "filepi-server",
		Short: "Self-hosted file management server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
		SilenceUsage: true,
	}
	root.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Dir:    cfg.LogDir,
	}); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logging.Sync()

	resolver, err := files.NewResolver(cfg.RootDir)
	if err != nil {
		return fmt.Errorf("resolve root dir: %w", err)
	}
	svc := files.NewService(resolver, cfg.MaxWalkDepth, cfg.MaxUploadSize)

	cache := thumbs.NewCache(thumbs.NewGenerator(cfg.FFmpegPath), thumbs.Options{
		MaxBytes:    cfg.ThumbCacheMaxBytes,
		NegativeTTL: cfg.ThumbNegativeTTL,
	})

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: api.NewServer(svc, cache).Handler(),
	}
	metricsServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: metrics.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		logging.Info("metrics server starting", zap.String("addr", cfg.MetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()
	go func() {
		logging.Info("server starting",
			zap.String("addr", cfg.ListenAddr),
			zap.String("root", svc.Root()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logging.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Warn("server shutdown", zap.Error(err))
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logging.Warn("metrics server shutdown", zap.Error(err))
	}
	logging.Info("server stopped")
	return nil
}
