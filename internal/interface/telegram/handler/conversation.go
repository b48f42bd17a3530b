package handler

import (
	"context"
	"fmt"
	"strconv"

	"github.com/alem-hub/applications-bot/internal/application/conversation"
	"github.com/alem-hub/applications-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONVERSATION HANDLER
// Передаёт событие анкеты в движок и рендерит ответ.
// Используется всеми обработчиками, которые двигают анкету: /start, /cancel,
// текст, файлы и нажатия кнопок.
// ══════════════════════════════════════════════════════════════════════════════

// Engine is the part of the conversation engine the handlers use.
type Engine interface {
	Handle(ctx context.Context, registrantID string, ev conversation.Event) (conversation.Reply, error)
}

// Response contains the message to send back.
type Response struct {
	// Text is the message text (HTML formatted).
	Text string

	// Keyboard is the inline keyboard to attach.
	Keyboard *presenter.InlineKeyboard

	// ParseMode is the parse mode (HTML).
	ParseMode string

	// IsError - ответ об ошибке сохранения или внутренней ошибке.
	IsError bool
}

// ResponseFromView wraps a rendered view.
func ResponseFromView(v *presenter.View) *Response {
	if v == nil {
		return nil
	}
	return &Response{Text: v.Text, Keyboard: v.Keyboard, ParseMode: v.ParseMode}
}

// ConversationRequest is one form event of one sender.
type ConversationRequest struct {
	// TelegramID keys the session.
	TelegramID int64

	// ChatID is the chat ID for sending responses.
	ChatID int64

	Event conversation.Event
}

// ConversationHandler drives the application form.
type ConversationHandler struct {
	engine    Engine
	presenter *presenter.RegistrationPresenter
}

// NewConversationHandler creates a new ConversationHandler.
func NewConversationHandler(engine Engine, p *presenter.RegistrationPresenter) *ConversationHandler {
	return &ConversationHandler{engine: engine, presenter: p}
}

// Handle feeds the event to the engine and renders its prompt.
func (h *ConversationHandler) Handle(ctx context.Context, req ConversationRequest) (*Response, conversation.Reply, error) {
	reply, err := h.engine.Handle(ctx, strconv.FormatInt(req.TelegramID, 10), req.Event)
	if err != nil {
		return nil, reply, fmt.Errorf("handle %T: %w", req.Event, err)
	}

	resp := ResponseFromView(h.presenter.Render(reply.Prompt))
	if resp != nil && reply.CommitErr != nil {
		resp.IsError = true
	}
	return resp, reply, nil
}
