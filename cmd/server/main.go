package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mcoot/worduel/internal/api"
	"github.com/mcoot/worduel/internal/config"
	"github.com/mcoot/worduel/internal/factory"
	"github.com/mcoot/worduel/internal/services/match"
	"github.com/mcoot/worduel/internal/services/session"
	pgstorage "github.com/mcoot/worduel/internal/storage/postgres"
	redisstorage "github.com/mcoot/worduel/internal/storage/redis"
	"github.com/mcoot/worduel/internal/telemetry"
)

func main() {
	// A missing .env is fine, the environment may already be set
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not read .env", slog.String("error", err.Error()))
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(cfg config.Config, logger *slog.Logger) error {
	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "worduel", cfg.OTelEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing shutdown failed", slog.String("error", err.Error()))
		}
	}()

	app, err := factory.New(ctx, factoryConfig(cfg, logger))
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("close failed", slog.String("error", err.Error()))
		}
	}()

	if err := app.LoadDictionary(ctx, cfg.TargetsFile, cfg.AllowedFile); err != nil {
		return err
	}

	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	go app.Run(loopCtx)

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Host
	serverConfig.Port = cfg.Port
	serverConfig.ShutdownTimeout = cfg.ShutdownTimeout
	server := api.NewServer(app.Router, serverConfig, logger)
	if err := server.Listen(); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.Storage),
	)

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	// Close streams first so Shutdown does not wait on them
	app.Hub.Close()
	if err := server.Shutdown(context.Background()); err != nil {
		return err
	}
	stopLoop()
	<-app.Coordinator.Done()
	return nil
}

func factoryConfig(cfg config.Config, logger *slog.Logger) factory.Config {
	fc := factory.Config{
		Logger:      logger,
		StorageType: cfg.Storage,
		Session: session.Config{
			Secret:        cfg.JWTSecret,
			AutoProvision: cfg.AutoProvision,
		},
		Match: match.Config{
			RevealDelay:       cfg.RevealDelay,
			IntermissionDelay: cfg.IntermissionDelay,
			DecisiveDelay:     cfg.DecisiveDelay,
			SprintDuration:    cfg.SprintDuration,
			Retention:         cfg.Retention,
			StoreTimeout:      match.DefaultConfig().StoreTimeout,
		},
	}

	switch cfg.Storage {
	case config.StorageRedis:
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		fc.RedisConfig = &redisCfg
	case config.StoragePostgres:
		fc.PostgresConfig = &pgstorage.Config{URL: cfg.DatabaseURL, Migrate: cfg.Migrate}
	}
	return fc
}
