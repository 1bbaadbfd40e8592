package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/cities"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/log"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/server"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/storage"
	"github.com/ogatech4real/smart-energy-optimiser/pkg/weather"

	"github.com/levenlabs/go-lflag"
	"github.com/levenlabs/go-llog"
)

func main() {
	// a .env file is optional, the real environment always wins
	dotenvErr := godotenv.Load()

	// init packages
	w := weather.Configured()
	s := storage.Configured()
	c := cities.Configured()

	// init server
	srv := server.Configured(w, s, c)

	// parse flags
	lflag.Configure()

	var level slog.Level
	// lflag automatically sets llog's level, but we need to set the slog level
	switch llog.GetLevel() {
	case llog.DebugLevel:
		level = slog.LevelDebug
	case llog.InfoLevel:
		level = slog.LevelInfo
	case llog.WarnLevel:
		level = slog.LevelWarn
	case llog.ErrorLevel:
		level = slog.LevelError
	default:
		panic(fmt.Errorf("unknown log level: %s", llog.GetLevel().String()))
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	log.SetDefaultLogLevel(level)
	slog.Debug("logger configured", slog.String("level", level.String()))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if dotenvErr != nil && !os.IsNotExist(dotenvErr) {
		log.Ctx(ctx).WarnContext(ctx, "failed to load .env", slog.Any("error", dotenvErr))
	}

	if err := w.Validate(); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "invalid weather configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// If initialization inside lflag.Do failed, we wouldn't be here (panic).
	defer func() {
		if err := s.Close(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to close storage", "error", err)
		}
	}()

	// Run will block until context is canceled or error happens
	if err := srv.Run(ctx); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "server failed", "error", err)
		os.Exit(1)
	}
	log.Ctx(ctx).InfoContext(ctx, "server exited cleanly")
}
