package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"relight/internal/config"
	"relight/internal/enhance"
	"relight/internal/server"
	"relight/internal/server/sessions"
	"relight/internal/server/storage/sqlite"
	"relight/internal/workerpool"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	configFile := flag.String("config", "", "Path to YAML config file")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if err := run(*configFile); err != nil {
		fmt.Fprintf(os.Stderr, "relight-server: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(cfg.LogLevel)

	// The service cannot run without its tables.
	store, err := sqlite.New(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	manager, err := sessions.NewManager(logger, store, []byte(cfg.TokenSigningKey), cfg.SessionTTL)
	if err != nil {
		return fmt.Errorf("failed to create session manager: %w", err)
	}

	pool := workerpool.New(cfg.WorkerCount)
	defer pool.Stop()

	// The engine is built once and reused for every request.
	engine := enhance.DefaultEngine()

	srv := server.New(cfg, logger, store, manager, engine, pool, Version)

	logger.Info("starting relight server",
		slog.String("version", Version),
		slog.String("database", cfg.DatabasePath),
		slog.Int("workers", cfg.WorkerCount))

	return srv.Run(ctx)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func printVersion() {
	fmt.Printf("Relight Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
