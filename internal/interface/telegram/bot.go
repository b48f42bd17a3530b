// Package telegram implements the Telegram interface of the applications bot.
// This package is the entry point for all Telegram interactions, handling
// updates, routing them to appropriate handlers, and managing the bot lifecycle.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alem-hub/applications-bot/internal/infrastructure/external/telegram"
	"github.com/alem-hub/applications-bot/internal/interface/telegram/handler"
	"github.com/alem-hub/applications-bot/internal/interface/telegram/middleware"
	"github.com/alem-hub/applications-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// BOT CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Update receiving modes.
const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

// BotConfig contains configuration for the Telegram bot.
type BotConfig struct {
	// Mode is the update receiving mode: "polling" or "webhook".
	Mode string

	// WebhookURL is the public URL registered with setWebhook.
	WebhookURL string

	// WebhookSecret is sent back by Telegram in X-Telegram-Bot-Api-Secret-Token.
	WebhookSecret string

	// DropPendingUpdates discards updates queued while the bot was down.
	DropPendingUpdates bool

	// AdminUsernames may run /stats.
	AdminUsernames []string

	// Debug enables debug logging.
	Debug bool

	// Logger for structured logging.
	Logger *slog.Logger

	// AllowedUpdates specifies which update types to receive.
	AllowedUpdates []string

	// MaxConcurrentUpdates limits concurrent update processing.
	MaxConcurrentUpdates int

	// GracefulShutdownTimeout is the timeout for graceful shutdown.
	GracefulShutdownTimeout time.Duration

	RateLimit middleware.RateLimitConfig
}

// DefaultBotConfig returns sensible defaults.
func DefaultBotConfig() BotConfig {
	return BotConfig{
		Mode:                    ModePolling,
		DropPendingUpdates:      true,
		Logger:                  slog.Default(),
		AllowedUpdates:          []string{"message", "callback_query"},
		MaxConcurrentUpdates:    100,
		GracefulShutdownTimeout: 30 * time.Second,
		RateLimit:               middleware.DefaultRateLimitConfig(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// BOT DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// BotDependencies contains all dependencies for the bot handlers.
type BotDependencies struct {
	// Client is used for getMe, polling and webhook registration.
	Client *telegram.Client

	// Messenger sends replies. Defaults to Client.
	Messenger Messenger

	// Engine drives the application form.
	Engine handler.Engine

	// Statistics answers /stats.
	Statistics handler.StatisticsQuery

	Presenter *presenter.RegistrationPresenter
}

// ══════════════════════════════════════════════════════════════════════════════
// BOT
// Main bot structure that orchestrates Telegram interactions.
// ══════════════════════════════════════════════════════════════════════════════

// Bot is the main Telegram bot controller.
type Bot struct {
	config    BotConfig
	client    *telegram.Client
	messenger Messenger
	router    *Router
	presenter *presenter.RegistrationPresenter
	logger    *slog.Logger

	// Middleware chain
	authMiddleware     *middleware.AuthMiddleware
	rateLimiter        *middleware.RateLimiter
	recoveryMiddleware *middleware.RecoveryMiddleware

	// Lifecycle management
	running   bool
	runningMu sync.RWMutex
	updateSem chan struct{}
	wg        sync.WaitGroup

	stats *BotStats
}

// BotStats holds runtime statistics.
type BotStats struct {
	mu              sync.RWMutex
	StartedAt       time.Time
	UpdatesReceived int64
	UpdatesHandled  int64
	ErrorsCount     int64
	PanicsCount     int64
	CommandsCount   map[string]int64
}

// NewBot creates a new Telegram bot with all dependencies.
func NewBot(config BotConfig, deps BotDependencies) (*Bot, error) {
	switch {
	case deps.Client == nil && deps.Messenger == nil:
		return nil, errors.New("telegram client is required")
	case deps.Engine == nil:
		return nil, errors.New("conversation engine is required")
	case deps.Statistics == nil:
		return nil, errors.New("statistics query is required")
	case deps.Presenter == nil:
		return nil, errors.New("presenter is required")
	}

	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.MaxConcurrentUpdates <= 0 {
		config.MaxConcurrentUpdates = DefaultBotConfig().MaxConcurrentUpdates
	}
	if config.GracefulShutdownTimeout <= 0 {
		config.GracefulShutdownTimeout = DefaultBotConfig().GracefulShutdownTimeout
	}
	if len(config.AllowedUpdates) == 0 {
		config.AllowedUpdates = DefaultBotConfig().AllowedUpdates
	}

	messenger := deps.Messenger
	if messenger == nil {
		messenger = deps.Client
	}
	logger := config.Logger.With(slog.String("component", "telegram_bot"))

	// Create handlers
	conv := handler.NewConversationHandler(deps.Engine, deps.Presenter)

	router := NewRouter(RouterConfig{Logger: logger, Debug: config.Debug}, messenger, deps.Presenter)
	router.RegisterHandlers(Handlers{
		Start:        handler.NewStartHandler(conv),
		Cancel:       handler.NewCancelHandler(conv),
		Help:         handler.NewHelpHandler(deps.Presenter),
		Stats:        handler.NewStatsHandler(deps.Statistics, deps.Presenter),
		Conversation: conv,
	})

	recoveryConfig := middleware.DefaultRecoveryConfig()
	recoveryConfig.Logger = config.Logger

	bot := &Bot{
		config:             config,
		client:             deps.Client,
		messenger:          messenger,
		router:             router,
		presenter:          deps.Presenter,
		logger:             logger,
		authMiddleware:     middleware.NewAuthMiddleware(middleware.DefaultAuthConfig(config.AdminUsernames)),
		rateLimiter:        middleware.NewRateLimiter(config.RateLimit),
		updateSem:          make(chan struct{}, config.MaxConcurrentUpdates),
		stats: &BotStats{
			CommandsCount: make(map[string]int64),
		},
	}
	recoveryConfig.OnPanic = func(context.Context, *middleware.PanicInfo) {
		bot.stats.mu.Lock()
		bot.stats.PanicsCount++
		bot.stats.mu.Unlock()
	}
	bot.recoveryMiddleware = middleware.NewRecoveryMiddleware(recoveryConfig)

	return bot, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE MANAGEMENT
// ══════════════════════════════════════════════════════════════════════════════

// Start verifies the token and receives updates until ctx is cancelled.
// In webhook mode updates arrive through Dispatch; Start only registers the
// webhook and blocks.
func (b *Bot) Start(ctx context.Context) error {
	if b.client == nil {
		return errors.New("telegram client is required to start the bot")
	}

	b.runningMu.Lock()
	if b.running {
		b.runningMu.Unlock()
		return errors.New("bot is already running")
	}
	b.running = true
	b.runningMu.Unlock()

	b.stats.mu.Lock()
	b.stats.StartedAt = time.Now()
	b.stats.mu.Unlock()

	b.logger.Info("starting telegram bot",
		"mode", b.config.Mode,
		"admins", b.authMiddleware.AdminCount(),
	)

	if err := b.verifyToken(ctx); err != nil {
		return fmt.Errorf("failed to verify bot token: %w", err)
	}

	go b.rateLimiter.Run(ctx)

	switch b.config.Mode {
	case ModePolling, "":
		return b.startPolling(ctx)
	case ModeWebhook:
		return b.startWebhook(ctx)
	default:
		return fmt.Errorf("unknown bot mode: %s", b.config.Mode)
	}
}

// Stop waits for in-flight updates.
func (b *Bot) Stop(ctx context.Context) error {
	b.runningMu.Lock()
	if !b.running {
		b.runningMu.Unlock()
		return nil
	}
	b.running = false
	b.runningMu.Unlock()

	b.logger.Info("stopping telegram bot")

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("all handlers completed gracefully")
	case <-time.After(b.config.GracefulShutdownTimeout):
		b.logger.Warn("graceful shutdown timeout exceeded")
	case <-ctx.Done():
		b.logger.Warn("context cancelled during shutdown")
		return ctx.Err()
	}

	return nil
}

// IsRunning returns whether the bot is currently running.
func (b *Bot) IsRunning() bool {
	b.runningMu.RLock()
	defer b.runningMu.RUnlock()
	return b.running
}

// verifyToken verifies the bot token by calling getMe.
func (b *Bot) verifyToken(ctx context.Context) error {
	me, err := b.client.GetMe(ctx)
	if err != nil {
		return err
	}

	b.logger.Info("bot verified",
		"id", me.ID,
		"username", me.Username,
	)
	return nil
}

// startPolling removes any webhook and runs long polling.
func (b *Bot) startPolling(ctx context.Context) error {
	if err := b.client.DeleteWebhook(ctx, b.config.DropPendingUpdates); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	return b.client.StartPolling(ctx, b.Dispatch)
}

// startWebhook registers the webhook and blocks until ctx is cancelled.
func (b *Bot) startWebhook(ctx context.Context) error {
	if b.config.WebhookURL == "" {
		return errors.New("webhook URL is required for webhook mode")
	}

	if err := b.client.SetWebhook(ctx, b.config.WebhookURL, b.config.WebhookSecret, b.config.AllowedUpdates); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}
	b.logger.Info("webhook registered", "url", b.config.WebhookURL)

	<-ctx.Done()
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE HANDLING
// ══════════════════════════════════════════════════════════════════════════════

// Dispatch processes a single update. It is used by long polling and by the
// webhook endpoint.
func (b *Bot) Dispatch(ctx context.Context, update *telegram.Update) error {
	select {
	case b.updateSem <- struct{}{}:
		defer func() { <-b.updateSem }()
	case <-ctx.Done():
		return ctx.Err()
	}

	b.wg.Add(1)
	defer b.wg.Done()

	b.stats.mu.Lock()
	b.stats.UpdatesReceived++
	b.stats.mu.Unlock()

	startTime := time.Now()
	requestID := uuid.NewString()
	ctx = middleware.ContextWithRequestID(ctx, requestID)

	var err error
	switch {
	case update.Message != nil:
		err = b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		err = b.handleCallbackQuery(ctx, update.CallbackQuery)
	default:
		return nil
	}

	duration := time.Since(startTime)
	b.stats.mu.Lock()
	if err != nil {
		b.stats.ErrorsCount++
	} else {
		b.stats.UpdatesHandled++
	}
	b.stats.mu.Unlock()

	if err != nil {
		b.logger.Error("failed to handle update",
			"update_id", update.UpdateID,
			"request_id", requestID,
			"error", err,
			"duration", duration,
		)
		return err
	}

	if b.config.Debug {
		b.logger.Debug("update handled",
			"update_id", update.UpdateID,
			"request_id", requestID,
			"duration", duration,
		)
	}
	return nil
}

// handleMessage processes a Telegram message.
func (b *Bot) handleMessage(ctx context.Context, msg *telegram.Message) error {
	if msg.From == nil || msg.Chat == nil || msg.From.IsBot {
		return nil
	}

	telegramID := msg.From.ID
	chatID := msg.Chat.ID

	if !b.allow(ctx, telegramID, chatID) {
		return nil
	}

	if command := telegram.ExtractCommand(msg); command != "" {
		return b.handleCommand(ctx, command, CommandContext{
			TelegramID: telegramID,
			ChatID:     chatID,
			MessageID:  msg.MessageID,
			Username:   msg.From.Username,
			FirstName:  msg.From.FirstName,
			Args:       commandArgs(msg.Text),
			Message:    msg,
		})
	}

	return b.guard(ctx, telegramID, chatID, "message", func(ctx context.Context) error {
		return b.router.HandleMessage(ctx, MessageContext{
			TelegramID: telegramID,
			ChatID:     chatID,
			MessageID:  msg.MessageID,
			Message:    msg,
		})
	})
}

// handleCommand checks admin rights and routes the command.
func (b *Bot) handleCommand(ctx context.Context, command string, cmd CommandContext) error {
	b.stats.mu.Lock()
	b.stats.CommandsCount[command]++
	b.stats.mu.Unlock()

	auth := b.authMiddleware.Authorize(ctx, cmd.Username, command)
	if !auth.ShouldContinue {
		b.logger.Info("command refused",
			"command", command,
			"telegram_id", cmd.TelegramID,
			"username", cmd.Username,
		)
		return b.reply(ctx, cmd.ChatID, b.presenter.Unauthorized())
	}

	return b.guard(ctx, cmd.TelegramID, cmd.ChatID, command, func(ctx context.Context) error {
		return b.router.HandleCommand(ctx, command, cmd)
	})
}

// handleCallbackQuery processes a callback query from inline keyboard.
func (b *Bot) handleCallbackQuery(ctx context.Context, cq *telegram.CallbackQuery) error {
	if cq.From == nil {
		return nil
	}

	telegramID := cq.From.ID
	var chatID, messageID int64
	if cq.Message != nil && cq.Message.Chat != nil {
		chatID = cq.Message.Chat.ID
		messageID = cq.Message.MessageID
	}
	if chatID == 0 {
		// Inline-mode callbacks carry no chat; private chat id equals user id.
		chatID = telegramID
	}

	rl := b.rateLimiter.Check(ctx, telegramID)
	if !rl.Allowed {
		if !rl.IsBanned {
			_ = b.messenger.AnswerCallbackQuery(ctx, cq.ID, b.presenter.RateLimited(rl.RetryAfter).Text, true)
		}
		return nil
	}

	// Answer first so the client spinner stops even if the commit is slow.
	if err := b.messenger.AnswerCallbackQuery(ctx, cq.ID, "", false); err != nil {
		b.logger.Warn("failed to answer callback query", "error", err)
	}

	return b.guard(ctx, telegramID, chatID, "callback", func(ctx context.Context) error {
		return b.router.HandleCallback(ctx, CallbackContext{
			TelegramID: telegramID,
			ChatID:     chatID,
			MessageID:  messageID,
			QueryID:    cq.ID,
			Data:       cq.Data,
			Query:      cq,
		})
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER METHODS
// ══════════════════════════════════════════════════════════════════════════════

// allow applies the rate limiter and tells the sender when to retry.
func (b *Bot) allow(ctx context.Context, telegramID, chatID int64) bool {
	rl := b.rateLimiter.Check(ctx, telegramID)
	if rl.Allowed {
		return true
	}
	if !rl.IsBanned {
		if err := b.reply(ctx, chatID, b.presenter.RateLimited(rl.RetryAfter)); err != nil {
			b.logger.Warn("failed to send rate limit message", "error", err)
		}
	}
	return false
}

// guard runs fn under the recovery middleware. Handler errors and panics
// are answered with the generic error text.
func (b *Bot) guard(ctx context.Context, telegramID, chatID int64, command string, fn func(ctx context.Context) error) error {
	res := b.recoveryMiddleware.RecoverWithHandler(ctx, telegramID, command, fn)
	if !res.Recovered && res.Err == nil {
		return nil
	}

	if sendErr := b.reply(ctx, chatID, b.presenter.Error()); sendErr != nil && !telegram.IsBlocked(sendErr) {
		b.logger.Warn("failed to send error message", "error", sendErr)
	}
	if res.Recovered {
		return fmt.Errorf("panic in %s handler: %w", command, res.PanicInfo.Error)
	}
	if telegram.IsBlocked(res.Err) {
		b.logger.Info("user blocked the bot", "telegram_id", telegramID)
		return nil
	}
	return res.Err
}

func (b *Bot) reply(ctx context.Context, chatID int64, v *presenter.View) error {
	return b.router.send(ctx, chatID, handler.ResponseFromView(v))
}

// commandArgs returns the text after the first space of a command message.
func commandArgs(text string) string {
	for i, r := range text {
		if r == ' ' {
			return text[i+1:]
		}
	}
	return ""
}

// ══════════════════════════════════════════════════════════════════════════════
// STATISTICS
// ══════════════════════════════════════════════════════════════════════════════

// GetStats returns current bot statistics.
func (b *Bot) GetStats() map[string]any {
	b.stats.mu.RLock()
	defer b.stats.mu.RUnlock()

	commandsCopy := make(map[string]int64, len(b.stats.CommandsCount))
	for k, v := range b.stats.CommandsCount {
		commandsCopy[k] = v
	}

	var uptime string
	if !b.stats.StartedAt.IsZero() {
		uptime = time.Since(b.stats.StartedAt).Round(time.Second).String()
	}

	return map[string]any{
		"started_at":       b.stats.StartedAt,
		"uptime":           uptime,
		"updates_received": b.stats.UpdatesReceived,
		"updates_handled":  b.stats.UpdatesHandled,
		"errors_count":     b.stats.ErrorsCount,
		"panics_count":     b.stats.PanicsCount,
		"commands_count":   commandsCopy,
		"running":          b.IsRunning(),
	}
}

// Router returns the router.
func (b *Bot) Router() *Router {
	return b.router
}
