package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/rodetes/boxoffice/docs"
	"github.com/rodetes/boxoffice/internal/app"
	"github.com/rodetes/boxoffice/internal/config"
)

// @title           Boxoffice API
// @version         1.0
// @description     Ticketing and merch storefront API: event listings, ticket issuance with QR codes, one-time scan validation, giveaway draws and merch sales.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger := setupLogger(os.Getenv("APP_ENV"))

	cfg, err := config.New()
	if err != nil {
		logger.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	ctx := context.Background()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize application", slog.Any("error", err))
		os.Exit(1)
	}

	if err := a.Run(ctx); err != nil {
		logger.Error("application stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func setupLogger(env string) *slog.Logger {
	var handler slog.Handler
	switch env {
	case "prod":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(handler)
}
