package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOVERY MIDDLEWARE
// Перехватывает паники в обработчиках: пользователь получает общее сообщение,
// стек уходит в лог. Бот продолжает обрабатывать остальные обновления.
// ══════════════════════════════════════════════════════════════════════════════

// RecoveryConfig holds configuration for the recovery middleware.
type RecoveryConfig struct {
	// EnableStackTrace enables capturing stack traces.
	EnableStackTrace bool

	// OnPanic is called when a panic is recovered.
	OnPanic func(ctx context.Context, info *PanicInfo)

	// MaxPanicsPerMinute caps how many panics are logged per minute.
	MaxPanicsPerMinute int

	Logger *slog.Logger
}

// DefaultRecoveryConfig returns sensible defaults for recovery middleware.
func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{
		EnableStackTrace:   true,
		MaxPanicsPerMinute: 100,
	}
}

// PanicInfo contains information about a recovered panic.
type PanicInfo struct {
	Error      error
	PanicValue any
	StackTrace string
	RequestID  string
	TelegramID int64

	// Command - команда или тип обновления ("message", "callback").
	Command   string
	Timestamp time.Time
}

// RecoveryMiddleware recovers from panics in update handlers.
type RecoveryMiddleware struct {
	config       RecoveryConfig
	logger       *slog.Logger
	panicCounter *panicRateLimiter
}

// NewRecoveryMiddleware creates a new recovery middleware.
func NewRecoveryMiddleware(config RecoveryConfig) *RecoveryMiddleware {
	if config.MaxPanicsPerMinute <= 0 {
		config.MaxPanicsPerMinute = DefaultRecoveryConfig().MaxPanicsPerMinute
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RecoveryMiddleware{
		config:       config,
		logger:       logger.With(slog.String("component", "recovery")),
		panicCounter: newPanicRateLimiter(config.MaxPanicsPerMinute),
	}
}

// RecoveryResult represents the outcome of a guarded handler call.
type RecoveryResult struct {
	// Recovered is true when the handler panicked.
	Recovered bool

	PanicInfo *PanicInfo

	// Err is the error returned by the handler when it did not panic.
	Err error
}

// RecoverWithHandler runs handler and converts a panic into a RecoveryResult.
func (m *RecoveryMiddleware) RecoverWithHandler(
	ctx context.Context,
	telegramID int64,
	command string,
	handler func(ctx context.Context) error,
) (result *RecoveryResult) {
	ctx = ContextWithTelegramID(ctx, telegramID)

	defer func() {
		if r := recover(); r != nil {
			result = m.handlePanic(ctx, r, telegramID, command)
		}
	}()

	return &RecoveryResult{Err: handler(ctx)}
}

func (m *RecoveryMiddleware) handlePanic(ctx context.Context, value any, telegramID int64, command string) *RecoveryResult {
	info := &PanicInfo{
		Error:      toError(value),
		PanicValue: value,
		RequestID:  RequestIDFromContext(ctx),
		TelegramID: telegramID,
		Command:    command,
		Timestamp:  time.Now(),
	}

	// Too many panics: answer the user, skip logging and callbacks.
	if !m.panicCounter.allow() {
		return &RecoveryResult{Recovered: true, PanicInfo: info}
	}

	if m.config.EnableStackTrace {
		info.StackTrace = string(debug.Stack())
	}

	m.logger.Error("panic recovered",
		slog.String("request_id", info.RequestID),
		slog.Int64("telegram_id", telegramID),
		slog.String("command", command),
		slog.String("error", info.Error.Error()),
		slog.String("stack", info.StackTrace),
	)

	if m.config.OnPanic != nil {
		m.config.OnPanic(ctx, info)
	}

	return &RecoveryResult{Recovered: true, PanicInfo: info}
}

// toError converts a panic value to an error.
func toError(value any) error {
	switch v := value.(type) {
	case error:
		return v
	case string:
		return fmt.Errorf("%s", v)
	default:
		return fmt.Errorf("panic: %v", v)
	}
}

// ─── panic rate limiter ───

type panicRateLimiter struct {
	mu        sync.Mutex
	count     int
	maxPerMin int
	window    time.Time
}

func newPanicRateLimiter(maxPerMin int) *panicRateLimiter {
	return &panicRateLimiter{
		maxPerMin: maxPerMin,
		window:    time.Now(),
	}
}

func (p *panicRateLimiter) allow() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	if now.Sub(p.window) > time.Minute {
		p.count = 0
		p.window = now
	}

	if p.count >= p.maxPerMin {
		return false
	}
	p.count++
	return true
}
