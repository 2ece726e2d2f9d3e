// Package main wires together the analyzer service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gcppubsub "cloud.google.com/go/pubsub"
	gcpstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/medialens/analyzer/internal/acquire"
	"github.com/medialens/analyzer/internal/analyze"
	"github.com/medialens/analyzer/internal/api"
	"github.com/medialens/analyzer/internal/archive"
	cachememory "github.com/medialens/analyzer/internal/cache/memory"
	cachepostgres "github.com/medialens/analyzer/internal/cache/postgres"
	"github.com/medialens/analyzer/internal/clock/system"
	"github.com/medialens/analyzer/internal/config"
	"github.com/medialens/analyzer/internal/logging"
	"github.com/medialens/analyzer/internal/metrics"
	"github.com/medialens/analyzer/internal/pipeline"
	pubmemory "github.com/medialens/analyzer/internal/publisher/memory"
	pubgcp "github.com/medialens/analyzer/internal/publisher/pubsub"
	"github.com/medialens/analyzer/internal/report"
	storagegcs "github.com/medialens/analyzer/internal/storage/gcs"
	storagememory "github.com/medialens/analyzer/internal/storage/memory"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, storeCleanup, err := buildStore(ctx, cfg)
	if err != nil {
		logger.Fatal("cache store init failed", zap.Error(err))
	}
	defer storeCleanup()

	blobs, err := buildBlobStore(ctx, cfg)
	if err != nil {
		logger.Fatal("blob store init failed", zap.Error(err))
	}

	publisher, err := buildPublisher(ctx, cfg)
	if err != nil {
		logger.Fatal("publisher init failed", zap.Error(err))
	}

	browser := acquire.NewChromeBrowser(acquire.ChromeConfig{
		UserAgent:  cfg.Browser.UserAgent,
		NavTimeout: time.Duration(cfg.Browser.NavTimeoutSec) * time.Second,
		Settle:     time.Duration(cfg.Browser.SettleMs) * time.Millisecond,
	})
	defer browser.Close()

	resolver := archive.NewResolver(archive.Config{
		Mirrors: cfg.Archive.Mirrors,
		Timeout: time.Duration(cfg.Archive.TimeoutSec) * time.Second,
	}, logger.Named("archive"))

	acquirer := acquire.New(browser, resolver, acquire.NewMarkerClassifier(nil), acquire.Config{
		TextLimit: cfg.Browser.TextLimit,
		HostQPS:   cfg.Browser.HostQPS,
	}, logger.Named("acquire"))

	generator := analyze.NewOpenAIGenerator(analyze.OpenAIConfig{
		APIKey:    cfg.Model.APIKey,
		BaseURL:   cfg.Model.BaseURL,
		MaxTokens: cfg.Model.MaxTokens,
	})
	invoker := analyze.NewInvoker(generator, analyze.InvokerConfig{
		Primary:        cfg.Model.Primary,
		Fallback:       cfg.Model.Fallback,
		Attempts:       cfg.Model.RetryAttempts,
		AttemptTimeout: time.Duration(cfg.Model.AttemptTimeoutSec) * time.Second,
		InitialBackoff: time.Duration(cfg.Model.BackoffInitialMs) * time.Millisecond,
	}, logger.Named("invoker"))

	pipe := pipeline.New(store, acquirer, invoker, blobs, publisher, system.New(), pipeline.Config{
		TTL:        cfg.CacheTTL(),
		Topic:      cfg.Events.Topic,
		BlobPrefix: cfg.Storage.Prefix,
	}, logger.Named("pipeline"))

	apiServer := api.NewServer(pipe, store, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func buildStore(ctx context.Context, cfg config.Config) (report.Store, func(), error) {
	switch cfg.Cache.Backend {
	case "postgres":
		store, err := cachepostgres.NewStore(ctx, cachepostgres.Config{DSN: cfg.Cache.DSN})
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return cachememory.NewStore(), func() {}, nil
	}
}

func buildBlobStore(ctx context.Context, cfg config.Config) (report.BlobStore, error) {
	switch cfg.Storage.Backend {
	case "gcs":
		client, err := gcpstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs client: %w", err)
		}
		return storagegcs.New(client, storagegcs.Config{Bucket: cfg.Storage.GCSBucket})
	default:
		return storagememory.NewBlobStore(), nil
	}
}

func buildPublisher(ctx context.Context, cfg config.Config) (report.Publisher, error) {
	switch cfg.Events.Backend {
	case "pubsub":
		client, err := gcppubsub.NewClient(ctx, cfg.Events.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("pubsub client: %w", err)
		}
		return pubgcp.New(client.Topic(cfg.Events.Topic)), nil
	default:
		return pubmemory.New(), nil
	}
}
