package telegram

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/alem-hub/applications-bot/internal/application/conversation"
	"github.com/alem-hub/applications-bot/internal/infrastructure/external/telegram"
	"github.com/alem-hub/applications-bot/internal/interface/telegram/handler"
	"github.com/alem-hub/applications-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROUTER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	// Logger for structured logging.
	Logger *slog.Logger

	// Debug enables debug logging for routing decisions.
	Debug bool
}

// Messenger is the part of the Bot API client the router writes to.
type Messenger interface {
	SendMessage(ctx context.Context, params telegram.SendMessageParams) (*telegram.Message, error)
	EditMessageText(ctx context.Context, chatID, messageID int64, text, parseMode string, keyboard *telegram.InlineKeyboardMarkup) (*telegram.Message, error)
	AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string, showAlert bool) error
}

// ══════════════════════════════════════════════════════════════════════════════
// CONTEXT TYPES
// These types carry context information through the routing process.
// ══════════════════════════════════════════════════════════════════════════════

// CommandContext contains context for command handling.
type CommandContext struct {
	TelegramID int64
	ChatID     int64
	MessageID  int64

	// Username без "@", может быть пустым.
	Username  string
	FirstName string

	// Args is the text after the command.
	Args string

	Message *telegram.Message
}

// CallbackContext contains context for callback query handling.
type CallbackContext struct {
	TelegramID int64
	ChatID     int64

	// MessageID is the message carrying the keyboard, 0 if unknown.
	MessageID int64

	QueryID string
	Data    string
	Query   *telegram.CallbackQuery
}

// MessageContext contains context for non-command messages.
type MessageContext struct {
	TelegramID int64
	ChatID     int64
	MessageID  int64
	Message    *telegram.Message
}

// Handler function types. A nil response sends nothing.
type (
	CommandFunc  func(ctx context.Context, cmd CommandContext) (*handler.Response, error)
	CallbackFunc func(ctx context.Context, cb CallbackContext) (*handler.Response, error)
	MessageFunc  func(ctx context.Context, msg MessageContext) (*handler.Response, error)
)

// ══════════════════════════════════════════════════════════════════════════════
// ROUTER
// Routes incoming updates to appropriate handlers.
// ══════════════════════════════════════════════════════════════════════════════

// Router routes Telegram updates to appropriate handlers.
type Router struct {
	config    RouterConfig
	logger    *slog.Logger
	messenger Messenger
	presenter *presenter.RegistrationPresenter

	mu               sync.RWMutex
	commandHandlers  map[string]CommandFunc
	callbackHandlers map[string]CallbackFunc
	messageHandler   MessageFunc
}

// NewRouter creates a new router.
func NewRouter(config RouterConfig, messenger Messenger, p *presenter.RegistrationPresenter) *Router {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Router{
		config:           config,
		logger:           config.Logger,
		messenger:        messenger,
		presenter:        p,
		commandHandlers:  make(map[string]CommandFunc),
		callbackHandlers: make(map[string]CallbackFunc),
	}
}

// ─── registration ───

// RegisterCommand registers a handler for a command given without the leading "/".
func (r *Router) RegisterCommand(command string, h CommandFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commandHandlers[command] = h

	if r.config.Debug {
		r.logger.Debug("registered command handler", "command", command)
	}
}

// RegisterCallbackPrefix registers a handler for callbacks matching a prefix.
// The prefix should include the trailing delimiter (e.g., "fac:").
func (r *Router) RegisterCallbackPrefix(prefix string, h CallbackFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbackHandlers[prefix] = h

	if r.config.Debug {
		r.logger.Debug("registered callback prefix handler", "prefix", prefix)
	}
}

// RegisterMessageHandler registers the handler for text and attachments.
func (r *Router) RegisterMessageHandler(h MessageFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messageHandler = h
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTING METHODS
// ══════════════════════════════════════════════════════════════════════════════

// HandleCommand routes a command to its handler and sends the response.
func (r *Router) HandleCommand(ctx context.Context, command string, cmd CommandContext) error {
	r.mu.RLock()
	h, ok := r.commandHandlers[command]
	r.mu.RUnlock()

	if !ok {
		if r.config.Debug {
			r.logger.Debug("no handler for command", "command", command)
		}
		return r.send(ctx, cmd.ChatID, handler.ResponseFromView(r.presenter.UnknownCommand()))
	}

	resp, err := h(ctx, cmd)
	if err != nil {
		return err
	}
	return r.send(ctx, cmd.ChatID, resp)
}

// HandleCallback routes a callback by the longest matching prefix and
// replaces the keyboard message with the response.
func (r *Router) HandleCallback(ctx context.Context, cb CallbackContext) error {
	r.mu.RLock()
	var matched string
	var h CallbackFunc
	for prefix, fn := range r.callbackHandlers {
		if strings.HasPrefix(cb.Data, prefix) && len(prefix) > len(matched) {
			matched, h = prefix, fn
		}
	}
	r.mu.RUnlock()

	if h == nil {
		r.logger.Warn("unknown callback", "data", cb.Data)
		return nil
	}

	resp, err := h(ctx, cb)
	if err != nil {
		return err
	}
	if resp == nil {
		return nil
	}
	if cb.MessageID == 0 {
		return r.send(ctx, cb.ChatID, resp)
	}
	return r.edit(ctx, cb.ChatID, cb.MessageID, resp)
}

// HandleMessage routes a non-command message.
func (r *Router) HandleMessage(ctx context.Context, msg MessageContext) error {
	r.mu.RLock()
	h := r.messageHandler
	r.mu.RUnlock()

	if h == nil {
		return nil
	}
	resp, err := h(ctx, msg)
	if err != nil {
		return err
	}
	return r.send(ctx, msg.ChatID, resp)
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER ADAPTERS
// ══════════════════════════════════════════════════════════════════════════════

// Handlers groups the handlers registered by RegisterHandlers.
type Handlers struct {
	Start        *handler.StartHandler
	Cancel       *handler.CancelHandler
	Help         *handler.HelpHandler
	Stats        *handler.StatsHandler
	Conversation *handler.ConversationHandler
}

// RegisterHandlers wires the commands, keyboard prefixes and the form input.
func (r *Router) RegisterHandlers(h Handlers) {
	r.RegisterCommand("start", func(ctx context.Context, cmd CommandContext) (*handler.Response, error) {
		return h.Start.Handle(ctx, handler.StartRequest{
			TelegramID:       cmd.TelegramID,
			TelegramUsername: cmd.Username,
			FirstName:        cmd.FirstName,
			ChatID:           cmd.ChatID,
		})
	})
	r.RegisterCommand("cancel", func(ctx context.Context, cmd CommandContext) (*handler.Response, error) {
		return h.Cancel.Handle(ctx, cmd.TelegramID, cmd.ChatID)
	})
	r.RegisterCommand("help", func(context.Context, CommandContext) (*handler.Response, error) {
		return h.Help.Handle(), nil
	})
	r.RegisterCommand("stats", func(ctx context.Context, _ CommandContext) (*handler.Response, error) {
		return h.Stats.Handle(ctx)
	})

	choice := func(ctx context.Context, cb CallbackContext) (*handler.Response, error) {
		ev, ok := presenter.ParseCallbackData(cb.Data)
		if !ok {
			r.logger.Warn("malformed callback data", "data", cb.Data)
			return nil, nil
		}
		resp, _, err := h.Conversation.Handle(ctx, handler.ConversationRequest{
			TelegramID: cb.TelegramID,
			ChatID:     cb.ChatID,
			Event:      ev,
		})
		return resp, err
	}
	for _, kind := range []conversation.ChoiceKind{
		conversation.ChoiceFaculty,
		conversation.ChoiceParticipation,
		conversation.ChoiceConfirm,
	} {
		r.RegisterCallbackPrefix(string(kind)+presenter.CallbackSeparator, choice)
	}

	r.RegisterMessageHandler(func(ctx context.Context, msg MessageContext) (*handler.Response, error) {
		resp, _, err := h.Conversation.Handle(ctx, handler.ConversationRequest{
			TelegramID: msg.TelegramID,
			ChatID:     msg.ChatID,
			Event:      EventFromMessage(msg.Message),
		})
		return resp, err
	})
}

// EventFromMessage classifies a non-command message for the form.
func EventFromMessage(msg *telegram.Message) conversation.Event {
	switch {
	case msg.Document != nil:
		return conversation.AttachmentEvent{
			Kind:     conversation.AttachmentDocument,
			FileID:   msg.Document.FileID,
			FileName: msg.Document.FileName,
		}
	case len(msg.Photo) > 0:
		largest := msg.Photo[len(msg.Photo)-1]
		return conversation.AttachmentEvent{Kind: conversation.AttachmentPhoto, FileID: largest.FileID}
	case msg.HasOtherMedia():
		return conversation.AttachmentEvent{Kind: conversation.AttachmentOther}
	case msg.Text != "":
		return conversation.TextEvent{Text: msg.Text}
	}
	return conversation.AttachmentEvent{Kind: conversation.AttachmentOther}
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// send sends a new message with optional inline keyboard.
func (r *Router) send(ctx context.Context, chatID int64, resp *handler.Response) error {
	if resp == nil {
		return nil
	}
	_, err := r.messenger.SendMessage(ctx, telegram.SendMessageParams{
		ChatID:      chatID,
		Text:        resp.Text,
		ParseMode:   resp.ParseMode,
		ReplyMarkup: convertKeyboard(resp.Keyboard),
	})
	return err
}

// edit replaces the keyboard message. When the message can no longer be
// edited the response is sent as a new message.
func (r *Router) edit(ctx context.Context, chatID, messageID int64, resp *handler.Response) error {
	_, err := r.messenger.EditMessageText(ctx, chatID, messageID, resp.Text, resp.ParseMode, convertKeyboard(resp.Keyboard))
	if err == nil || telegram.IsMessageNotModified(err) {
		return nil
	}

	var apiErr *telegram.APIError
	if errors.As(err, &apiErr) && apiErr.Code == 400 {
		r.logger.Debug("edit failed, sending new message", "error", err)
		return r.send(ctx, chatID, resp)
	}
	return err
}

// convertKeyboard converts presenter.InlineKeyboard to telegram.InlineKeyboardMarkup.
func convertKeyboard(kb *presenter.InlineKeyboard) *telegram.InlineKeyboardMarkup {
	if kb == nil || len(kb.Rows) == 0 {
		return nil
	}

	markup := &telegram.InlineKeyboardMarkup{
		InlineKeyboard: make([][]telegram.InlineKeyboardButton, len(kb.Rows)),
	}
	for i, row := range kb.Rows {
		markup.InlineKeyboard[i] = make([]telegram.InlineKeyboardButton, len(row))
		for j, btn := range row {
			markup.InlineKeyboard[i][j] = telegram.InlineKeyboardButton{
				Text:         btn.Text,
				CallbackData: btn.CallbackData,
			}
		}
	}
	return markup
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTE INFO (for introspection)
// ══════════════════════════════════════════════════════════════════════════════

// GetRegisteredCommands returns the registered command names, sorted.
func (r *Router) GetRegisteredCommands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	commands := make([]string, 0, len(r.commandHandlers))
	for cmd := range r.commandHandlers {
		commands = append(commands, cmd)
	}
	sort.Strings(commands)
	return commands
}

// GetRegisteredCallbackPrefixes returns the registered callback prefixes, sorted.
func (r *Router) GetRegisteredCallbackPrefixes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	prefixes := make([]string, 0, len(r.callbackHandlers))
	for prefix := range r.callbackHandlers {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)
	return prefixes
}
