package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"

	"github.com/franckalain/nutritrack/internal/config"
	"github.com/franckalain/nutritrack/internal/database"
	"github.com/franckalain/nutritrack/internal/events"
	"github.com/franckalain/nutritrack/internal/locker"
	"github.com/franckalain/nutritrack/internal/metrics"
	"github.com/franckalain/nutritrack/internal/ml"
	"github.com/franckalain/nutritrack/internal/server"
	"github.com/franckalain/nutritrack/internal/tracker"
)

func main() {
	configPath := flag.String("config", config.GetConfigPath(), "path to configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("Server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(configPath string) error {
	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cfg.Server.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ctx := context.Background()

	// Initialize database
	db, err := database.Open(ctx, cfg.Database.Driver, cfg.Database.Path, cfg.Database.URI, cfg.Database.Name)
	if err != nil {
		return err
	}
	defer db.Close()

	// Initialize ML service
	model, err := ml.NewModel(ml.Options{
		Type:       cfg.ML.Type,
		ConfigPath: cfg.ML.ConfigPath,
		ModelName:  cfg.ML.Model,
		Fixtures:   cfg.ML.Fixtures,
	})
	if err != nil {
		return err
	}
	if err := model.Load(ctx); err != nil {
		return err
	}
	defer model.Close()

	lock, err := locker.Open(ctx, cfg.Locker.Driver, cfg.Locker.RedisURL, locker.WithTTL(cfg.Locker.TTL.Duration))
	if err != nil {
		return err
	}
	if c, ok := lock.(io.Closer); ok {
		defer c.Close()
	}

	broker, err := events.Open(cfg.Events.Driver, cfg.Events.URL, cfg.Events.Topic, logger)
	if err != nil {
		return err
	}
	pub := events.NewMulti(broker)
	defer pub.Close()
	// Connected websocket clients see the same events as the broker
	hub := server.NewHub()
	pub.Add(hub)

	m := metrics.New()
	svc := tracker.New(tracker.Config{
		DB:        db,
		Model:     model,
		Locker:    lock,
		Publisher: pub,
		Metrics:   m,
		Location:  loc,
		Logger:    logger,
	})

	srv := server.New(svc, hub, server.Options{
		JWTSecret:   cfg.Auth.JWTSecret,
		StaticDir:   cfg.Server.StaticDir,
		CORSOrigins: cfg.Server.CORSOrigins,
		Metrics:     m,
		Logger:      logger,
		AccessLog:   os.Stdout,
	})
	logger.Info("Configuration loaded",
		slog.String("database", cfg.Database.Driver),
		slog.String("ml", cfg.ML.Type),
		slog.String("locker", cfg.Locker.Driver),
		slog.String("events", cfg.Events.Driver),
		slog.String("timezone", loc.String()))
	return srv.Start(ctx, cfg.Server.Port)
}
