// Package middleware contains Telegram bot middlewares for request processing.
// Every update passes rate limiting, admin checks for protected commands and
// panic recovery before it reaches a handler.
package middleware

import (
	"context"
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONTEXT KEYS
// Used to pass data through the request context.
// ══════════════════════════════════════════════════════════════════════════════

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// TelegramIDContextKey is the context key for the Telegram user ID.
	TelegramIDContextKey contextKey = "telegram_id"

	// RequestIDContextKey is the context key for request tracing.
	RequestIDContextKey contextKey = "request_id"
)

// ContextWithRequestID stores the per-update request id.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDContextKey, id)
}

// RequestIDFromContext returns the request id or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDContextKey).(string)
	return id
}

// ContextWithTelegramID stores the sender's Telegram user id.
func ContextWithTelegramID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, TelegramIDContextKey, id)
}

// TelegramIDFromContext returns the sender's id or 0.
func TelegramIDFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(TelegramIDContextKey).(int64)
	return id
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTH MIDDLEWARE
// Статическая проверка администратора по username. Все команды, кроме
// защищённых, доступны любому пользователю.
// ══════════════════════════════════════════════════════════════════════════════

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	// AdminUsernames - username администраторов, с "@" или без.
	AdminUsernames []string

	// ProtectedCommands require an admin. Keys are command names without "/".
	ProtectedCommands map[string]bool
}

// DefaultAuthConfig protects /stats.
func DefaultAuthConfig(admins []string) AuthConfig {
	return AuthConfig{
		AdminUsernames:    admins,
		ProtectedCommands: map[string]bool{"stats": true},
	}
}

// AuthMiddleware decides whether a command may run for a sender.
type AuthMiddleware struct {
	admins    map[string]struct{}
	protected map[string]bool
}

// NewAuthMiddleware creates a new auth middleware with the given configuration.
func NewAuthMiddleware(config AuthConfig) *AuthMiddleware {
	admins := make(map[string]struct{}, len(config.AdminUsernames))
	for _, u := range config.AdminUsernames {
		if n := normalizeUsername(u); n != "" {
			admins[n] = struct{}{}
		}
	}
	protected := config.ProtectedCommands
	if protected == nil {
		protected = map[string]bool{}
	}
	return &AuthMiddleware{admins: admins, protected: protected}
}

// AuthResult represents the result of an authorization check.
type AuthResult struct {
	// IsAdmin - отправитель в списке администраторов.
	IsAdmin bool

	// ShouldContinue is false when a protected command was refused.
	ShouldContinue bool
}

// Authorize checks command for a sender with the given username.
// Senders without a username are never admins.
func (m *AuthMiddleware) Authorize(_ context.Context, username, command string) *AuthResult {
	admin := m.IsAdmin(username)
	if !m.protected[strings.TrimPrefix(command, "/")] {
		return &AuthResult{IsAdmin: admin, ShouldContinue: true}
	}
	return &AuthResult{IsAdmin: admin, ShouldContinue: admin}
}

// IsAdmin reports whether username is on the allow-list. Comparison ignores
// case and a leading "@".
func (m *AuthMiddleware) IsAdmin(username string) bool {
	n := normalizeUsername(username)
	if n == "" {
		return false
	}
	_, ok := m.admins[n]
	return ok
}

// AdminCount returns the size of the allow-list.
func (m *AuthMiddleware) AdminCount() int {
	return len(m.admins)
}

func normalizeUsername(u string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(u), "@"))
}
