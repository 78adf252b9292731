package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/snarg/toolkit-engine/internal/api"
	"github.com/snarg/toolkit-engine/internal/blobstore"
	"github.com/snarg/toolkit-engine/internal/config"
	"github.com/snarg/toolkit-engine/internal/export"
	"github.com/snarg/toolkit-engine/internal/generate"
	"github.com/snarg/toolkit-engine/internal/ingest"
	"github.com/snarg/toolkit-engine/internal/pipeline"
	"github.com/snarg/toolkit-engine/internal/transcribe"
	"github.com/snarg/toolkit-engine/internal/transfer"
)

var version = "dev"

func main() {
	var (
		envFile  = flag.String("env", "", "path to .env file")
		httpAddr = flag.String("addr", "", "http listen address (overrides HTTP_ADDR)")
		logLevel = flag.String("log-level", "", "log level (overrides LOG_LEVEL)")
		blobDir  = flag.String("blob-dir", "", "local blob staging directory (overrides BLOB_DIR)")
		watchDir = flag.String("watch-dir", "", "audio drop directory (overrides WATCH_DIR)")
	)
	flag.Parse()

	// Config
	cfg, err := config.Load(config.Overrides{
		EnvFile:  *envFile,
		HTTPAddr: *httpAddr,
		LogLevel: *logLevel,
		BlobDir:  *blobDir,
		WatchDir: *watchDir,
	})
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}

	// Logger
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().Str("version", version).Msg("toolkit-engine starting")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Blob staging
	store, err := blobstore.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize blob store")
	}
	cleaner := blobstore.NewCleaner(store, 64, log)
	cleaner.Start(2)
	defer cleaner.Stop()

	// Pipeline stages
	provider := transcribe.NewGroqClient(cfg.TranscribeURL, cfg.GroqAPIKey, cfg.WhisperModel, cfg.TranscribeTimeout)
	transcriber := transcribe.NewService(provider, store, cleaner, log)
	generator := generate.NewClient(cfg.GenerateURL, cfg.OpenAIAPIKey, cfg.GenerateModel, cfg.GenerateTimeout, log)
	printer := export.NewPrintExporter(cfg.HeaderImageURL, cfg.HeaderImageTimeout, log)
	router := transfer.NewRouter(cfg.DirectMaxBytes, store, log)

	// Sessions
	sessions := pipeline.NewRegistry(cfg.SessionTTL, log)
	go sessions.Sweep(ctx, 5*time.Minute)

	// Watch folder (optional)
	if cfg.WatchDir != "" {
		watcher := ingest.NewWatcher(transcriber, generator, cfg.WatchDir, log)
		if err := watcher.Start(ctx); err != nil {
			log.Fatal().Err(err).Str("dir", cfg.WatchDir).Msg("failed to start file watcher")
		}
		defer watcher.Stop()
	}

	// HTTP Server
	httpLog := log.With().Str("component", "http").Logger()
	srv := api.NewServer(cfg, api.Deps{
		Sessions:    sessions,
		Router:      router,
		Transcriber: transcriber,
		Generator:   generator,
		Printer:     printer,
		StoreType:   store.Type(),
		Version:     version,
	}, httpLog)

	// Start HTTP server in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Wait for shutdown signal or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	// Graceful shutdown with 10s timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	log.Info().Msg("toolkit-engine stopped")
}
