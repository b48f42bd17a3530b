package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alem-hub/applications-bot/config"
	"github.com/alem-hub/applications-bot/internal/application/conversation"
	"github.com/alem-hub/applications-bot/internal/application/saga"
	"github.com/alem-hub/applications-bot/internal/domain/registration"
	tgclient "github.com/alem-hub/applications-bot/internal/infrastructure/external/telegram"
	httpserver "github.com/alem-hub/applications-bot/internal/interface/http"
	"github.com/alem-hub/applications-bot/internal/interface/http/handlers"
	"github.com/alem-hub/applications-bot/internal/interface/telegram"
	"github.com/alem-hub/applications-bot/internal/interface/telegram/middleware"
	"github.com/alem-hub/applications-bot/internal/interface/telegram/presenter"
	"github.com/alem-hub/applications-bot/pkg/circuitbreaker"
	"github.com/alem-hub/applications-bot/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// BOT RUNTIME
// ══════════════════════════════════════════════════════════════════════════════

// Runtime is a fully wired bot with its optional HTTP server.
type Runtime struct {
	Bot    *telegram.Bot
	Saga   *saga.SubmissionSaga
	Engine *conversation.Engine
	HTTP   *httpserver.Server
}

// NewRuntime builds the Telegram client, the commit saga, the conversation
// engine, the bot and (if enabled) the HTTP server.
func (a *App) NewRuntime() (*Runtime, error) {
	cfg := a.cfg
	if err := cfg.RequireToken(); err != nil {
		return nil, err
	}
	log := a.logger

	// ─── Bot API client ───
	clientCfg := tgclient.DefaultClientConfig(cfg.Telegram.Token)
	clientCfg.MaxDownloadSize = cfg.Telegram.MaxDownloadSize
	clientCfg.Logger = log
	clientCfg.Debug = cfg.App.Debug
	client := tgclient.NewClient(clientCfg)

	// ─── Commit saga ───
	breaker := circuitbreaker.TelegramFilesBreaker(func(name string, from, to circuitbreaker.State) {
		log.Warn("circuit breaker state changed",
			slog.String("breaker", name),
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})

	sg, err := saga.NewSubmissionSaga(saga.SubmissionSagaConfig{
		Catalog:     a.catalog,
		Fetcher:     client,
		Files:       a.files,
		Repository:  a.repo,
		Clock:       a.clock,
		Breaker:     breaker,
		OnCommitted: a.invalidateStatistics,
		Logger:      log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create submission saga: %w", err)
	}

	// ─── Conversation engine ───
	engine, err := conversation.NewEngine(conversation.EngineConfig{
		Config:    conversation.Config{Catalog: a.catalog},
		Store:     a.drafts,
		Committer: sg,
		Clock:     a.clock.Now,
		Logger:    log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation engine: %w", err)
	}

	// ─── Telegram bot ───
	botCfg := telegram.DefaultBotConfig()
	botCfg.Mode = cfg.Telegram.Mode
	botCfg.WebhookURL = cfg.Telegram.WebhookURL
	botCfg.WebhookSecret = cfg.Telegram.WebhookSecret
	botCfg.DropPendingUpdates = cfg.Telegram.DropPendingUpdates
	botCfg.AdminUsernames = cfg.Telegram.AdminUsernames
	botCfg.Debug = cfg.App.Debug
	botCfg.Logger = log
	botCfg.GracefulShutdownTimeout = cfg.App.ShutdownTimeout
	botCfg.RateLimit = middleware.DefaultRateLimitConfig()
	botCfg.RateLimit.RequestsPerMinute = cfg.Telegram.UserRateLimit
	botCfg.RateLimit.BurstSize = cfg.Telegram.UserRateBurst
	botCfg.RateLimit.BanDuration = cfg.Telegram.UserRateLimitBan

	bot, err := telegram.NewBot(botCfg, telegram.BotDependencies{
		Client:     client,
		Engine:     engine,
		Statistics: a.statistics,
		Presenter:  presenter.NewRegistrationPresenter(a.catalog),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	rt := &Runtime{Bot: bot, Saga: sg, Engine: engine}

	// ─── HTTP server ───
	if cfg.HTTP.Enabled {
		a.health.AddCheck("telegram_files_breaker", func(context.Context) error {
			if breaker.State() == circuitbreaker.StateOpen {
				return errors.New("circuit open")
			}
			return nil
		})

		httpCfg := httpserver.DefaultConfig()
		httpCfg.Addr = cfg.HTTP.Addr
		httpCfg.WebhookSecret = cfg.Telegram.WebhookSecret

		deps := httpserver.Dependencies{Health: a.health, Logger: log}
		if cfg.Telegram.Mode == config.BotModeWebhook {
			deps.Updates = handlers.UpdateDispatcher(bot.Dispatch)
		}
		rt.HTTP = httpserver.NewServer(httpCfg, deps)
	}

	return rt, nil
}

// invalidateStatistics drops cached statistics after each commit.
func (a *App) invalidateStatistics(ctx context.Context, r registration.Receipt) {
	if a.statsCache == nil {
		return
	}
	if err := a.statsCache.Invalidate(ctx); err != nil {
		a.logger.Warn("failed to invalidate statistics cache",
			logger.SubmissionID(r.Submission.ID),
			logger.Err(err),
		)
	}
}

// RunBot runs the bot (and HTTP server) until ctx is cancelled or one of
// them fails, then shuts both down within the configured timeout.
func (a *App) RunBot(ctx context.Context) error {
	rt, err := a.NewRuntime()
	if err != nil {
		return err
	}
	log := a.logger

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Канал для ошибок
	errCh := make(chan error, 2)

	if rt.HTTP != nil {
		go func() {
			if err := rt.HTTP.Start(); err != nil {
				errCh <- fmt.Errorf("http server error: %w", err)
			}
		}()
	}

	go func() {
		if err := rt.Bot.Start(ctx); err != nil {
			errCh <- fmt.Errorf("telegram bot error: %w", err)
			return
		}
		errCh <- nil
	}()

	log.Info("applications bot is running",
		slog.String("telegram_mode", a.cfg.Telegram.Mode),
		slog.Bool("http", rt.HTTP != nil),
	)

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("received shutdown signal")
	case runErr = <-errCh:
		if runErr != nil {
			log.Error("service error", logger.Err(runErr))
		}
	}
	cancel()

	// ─── Graceful shutdown ───
	log.Info("starting graceful shutdown...", slog.Duration("timeout", a.cfg.App.ShutdownTimeout))
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	// 1. Останавливаем бота (перестаём принимать новые обновления)
	if err := rt.Bot.Stop(shutdownCtx); err != nil {
		log.Error("failed to stop bot gracefully", logger.Err(err))
	}

	// 2. Останавливаем HTTP сервер
	if rt.HTTP != nil {
		if err := rt.HTTP.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to stop HTTP server gracefully", logger.Err(err))
		}
	}

	log.Info("shutdown completed", slog.Any("bot_stats", rt.Bot.GetStats()))
	return runErr
}
