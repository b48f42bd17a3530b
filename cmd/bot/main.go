// Package main - точка входа Telegram бота для сбора заявок на факультеты.
//
// Конфигурация читается из переменных окружения (TELEGRAM_BOT_TOKEN,
// DATABASE_URL, REDIS_URL, ...) и необязательного YAML файла (-config).
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/alem-hub/applications-bot/config"
	"github.com/alem-hub/applications-bot/internal/app"
	"github.com/alem-hub/applications-bot/pkg/logger"
)

func main() {
	configFile := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	// Отмена по SIGINT/SIGTERM запускает graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configFile); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.RequireToken(); err != nil {
		return err
	}

	log := setupLogger(cfg)
	log.Info("starting applications bot",
		slog.String("env", string(cfg.App.Environment)),
		slog.Bool("debug", cfg.App.Debug),
		slog.String("timezone", cfg.App.Timezone),
		slog.String("version", cfg.App.Version),
	)

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.RunBot(ctx)
}

// setupLogger настраивает структурированное логирование: JSON в production,
// текст в остальных окружениях.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := logger.DefaultOptions()
	opts.Level = cfg.Observability.LogLevel
	opts.Format = logger.Format(cfg.Observability.LogFormat)
	if cfg.App.Debug {
		opts.Level = "debug"
	}
	if cfg.IsProduction() {
		opts.Format = logger.FormatJSON
	}
	return logger.Setup(opts)
}
