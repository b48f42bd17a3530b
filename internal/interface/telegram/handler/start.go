// Package handler contains Telegram command handlers.
// Each handler follows the pattern: receive update → build request → call application layer → format response.
package handler

import (
	"context"

	"github.com/alem-hub/applications-bot/internal/application/conversation"
	"github.com/alem-hub/applications-bot/internal/domain/registration"
)

// ══════════════════════════════════════════════════════════════════════════════
// START / CANCEL HANDLERS
// /start открывает новую анкету (из любого состояния), /cancel её сбрасывает.
// ══════════════════════════════════════════════════════════════════════════════

// StartRequest contains the parsed /start command data.
type StartRequest struct {
	// TelegramID is the user's Telegram ID.
	TelegramID int64

	// TelegramUsername is the user's Telegram username (without @).
	TelegramUsername string

	// FirstName is the user's first name from Telegram.
	FirstName string

	// ChatID is the chat ID for sending responses.
	ChatID int64
}

// StartHandler handles the /start command.
type StartHandler struct {
	conversation *ConversationHandler
}

// NewStartHandler creates a new StartHandler.
func NewStartHandler(conv *ConversationHandler) *StartHandler {
	return &StartHandler{conversation: conv}
}

// Handle starts a fresh application and returns the greeting.
func (h *StartHandler) Handle(ctx context.Context, req StartRequest) (*Response, error) {
	ev := conversation.StartEvent{
		Registrant: registration.NewRegistrant(req.TelegramID, req.TelegramUsername, req.FirstName),
		ChatID:     req.ChatID,
	}
	resp, _, err := h.conversation.Handle(ctx, ConversationRequest{
		TelegramID: req.TelegramID,
		ChatID:     req.ChatID,
		Event:      ev,
	})
	return resp, err
}

// CancelHandler handles the /cancel command.
type CancelHandler struct {
	conversation *ConversationHandler
}

// NewCancelHandler creates a new CancelHandler.
func NewCancelHandler(conv *ConversationHandler) *CancelHandler {
	return &CancelHandler{conversation: conv}
}

// Handle discards the sender's draft, if any.
func (h *CancelHandler) Handle(ctx context.Context, telegramID, chatID int64) (*Response, error) {
	resp, _, err := h.conversation.Handle(ctx, ConversationRequest{
		TelegramID: telegramID,
		ChatID:     chatID,
		Event:      conversation.CancelEvent{},
	})
	return resp, err
}
