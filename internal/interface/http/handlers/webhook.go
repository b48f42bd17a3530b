package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/alem-hub/applications-bot/internal/infrastructure/external/telegram"
)

// ══════════════════════════════════════════════════════════════════════════════
// TELEGRAM WEBHOOK
// ══════════════════════════════════════════════════════════════════════════════

// SecretTokenHeader is set by Telegram to the secret_token given to setWebhook.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// MaxUpdateSize bounds the request body of one update.
const MaxUpdateSize = 1 << 20

// UpdateDispatcher consumes one decoded update.
type UpdateDispatcher func(ctx context.Context, update *telegram.Update) error

// TelegramWebhook receives updates pushed by Telegram.
type TelegramWebhook struct {
	secret   string
	dispatch UpdateDispatcher
	logger   *slog.Logger
}

// NewTelegramWebhook creates the handler. An empty secret disables the check.
func NewTelegramWebhook(secret string, dispatch UpdateDispatcher, logger *slog.Logger) *TelegramWebhook {
	if logger == nil {
		logger = slog.Default()
	}
	return &TelegramWebhook{secret: secret, dispatch: dispatch, logger: logger}
}

// ServeHTTP verifies the secret, decodes the update and dispatches it.
// Handler errors are logged and still answered with 200: Telegram would
// otherwise redeliver the same update indefinitely.
func (h *TelegramWebhook) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.secret != "" {
		got := r.Header.Get(SecretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxUpdateSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	var update telegram.Update
	if err := json.Unmarshal(body, &update); err != nil {
		http.Error(w, "invalid update", http.StatusBadRequest)
		return
	}

	if err := h.dispatch(r.Context(), &update); err != nil {
		h.logger.Error("webhook update failed",
			slog.Int64("update_id", update.UpdateID),
			slog.String("error", err.Error()),
		)
	}
	w.WriteHeader(http.StatusOK)
}
