package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"siteforge/internal/builder"
	"siteforge/internal/config"
	"siteforge/internal/devserver"
	"siteforge/internal/eventstore"
	"siteforge/internal/metrics"
	"siteforge/internal/store"
)

var version = "dev"

var CLI struct {
	Config  string `short:"c" help:"Project metadata file path" default:"site.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct{} `cmd:"" help:"Run one full site build"`

	Preview struct {
		Port int `short:"p" help:"Preview server port (defaults to dev.port)"`
	} `cmd:"" help:"Serve the site and rebuild on source changes"`

	Version struct{} `cmd:"" help:"Print the version"`
}

func main() {
	// A missing .env is fine; it only supplies optional expansion vars.
	_ = godotenv.Load()

	kctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	switch kctx.Command() {
	case "build":
		if err := runBuild(context.Background()); err != nil {
			slog.Error("build failed", slog.Any("error", err))
			os.Exit(1)
		}
	case "preview":
		if err := runPreview(); err != nil {
			slog.Error("preview failed", slog.Any("error", err))
			os.Exit(1)
		}
	case "version":
		fmt.Println(version)
	}
}

func runBuild(ctx context.Context) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}

	events, err := eventstore.Open(cfg.Dev.EventLog)
	if err != nil {
		return err
	}
	defer func() { _ = events.Close() }()

	recorder := metrics.NewRecorder(nil)
	b := builder.New(cfg, store.New(),
		builder.WithEventStore(events),
		builder.WithRecorder(recorder))
	return b.Build(ctx)
}

func runPreview() error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}

	events, err := eventstore.Open(cfg.Dev.EventLog)
	if err != nil {
		return err
	}
	defer func() { _ = events.Close() }()

	recorder := metrics.NewRecorder(nil)
	b := builder.New(cfg, store.New(),
		builder.WithEventStore(events),
		builder.WithRecorder(recorder))

	port := CLI.Preview.Port
	if port <= 0 {
		port = cfg.Dev.Port
	}

	srv := devserver.New(cfg, CLI.Config, b,
		devserver.WithRecorder(recorder),
		devserver.WithHTTPAddr(fmt.Sprintf(":%d", port)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		return err
	}
	slog.Info("preview listening", slog.String("url", fmt.Sprintf("http://localhost:%d", port)))

	<-ctx.Done()
	srv.Stop(context.Background())
	return nil
}
