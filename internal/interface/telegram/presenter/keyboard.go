// Package presenter formats data for Telegram display.
// Presenters handle the conversion from conversation prompts and statistics
// to Telegram messages and inline keyboards.
package presenter

import (
	"strconv"
	"strings"

	"github.com/alem-hub/applications-bot/internal/application/conversation"
)

// ══════════════════════════════════════════════════════════════════════════════
// INLINE KEYBOARD TYPES
// These types represent Telegram inline keyboards in a library-agnostic way.
// The bot converts them to the Bot API markup.
// ══════════════════════════════════════════════════════════════════════════════

// InlineKeyboard represents an inline keyboard.
type InlineKeyboard struct {
	Rows [][]InlineButton
}

// InlineButton represents a single callback button.
type InlineButton struct {
	Text         string
	CallbackData string
}

// NewInlineKeyboard creates a new empty inline keyboard.
func NewInlineKeyboard() *InlineKeyboard {
	return &InlineKeyboard{
		Rows: make([][]InlineButton, 0),
	}
}

// AddRow adds a row of buttons.
func (k *InlineKeyboard) AddRow(buttons ...InlineButton) *InlineKeyboard {
	k.Rows = append(k.Rows, buttons)
	return k
}

// CallbackButton creates a callback button.
func CallbackButton(text, callbackData string) InlineButton {
	return InlineButton{
		Text:         text,
		CallbackData: callbackData,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// CALLBACK DATA
// Формат: "<kind>:<value>", например "fac:4", "part:yes", "confirm:no".
// ─────────────────────────────────────────────────────────────────────────────

// CallbackSeparator separates the choice kind from its value.
const CallbackSeparator = ":"

// CallbackData encodes a button payload.
func CallbackData(kind conversation.ChoiceKind, value string) string {
	return string(kind) + CallbackSeparator + value
}

// ParseCallbackData decodes a payload produced by CallbackData.
func ParseCallbackData(data string) (conversation.ChoiceEvent, bool) {
	kind, value, ok := strings.Cut(data, CallbackSeparator)
	if !ok || value == "" {
		return conversation.ChoiceEvent{}, false
	}
	switch k := conversation.ChoiceKind(kind); k {
	case conversation.ChoiceFaculty, conversation.ChoiceParticipation, conversation.ChoiceConfirm:
		return conversation.ChoiceEvent{Kind: k, Value: value}, true
	}
	return conversation.ChoiceEvent{}, false
}

// ══════════════════════════════════════════════════════════════════════════════
// KEYBOARD BUILDER
// ══════════════════════════════════════════════════════════════════════════════

// FacultyColumns is the number of faculty buttons per row.
const FacultyColumns = 2

// KeyboardBuilder builds the keyboards of the application form.
type KeyboardBuilder struct{}

// NewKeyboardBuilder creates a new KeyboardBuilder.
func NewKeyboardBuilder() *KeyboardBuilder {
	return &KeyboardBuilder{}
}

// FacultyKeyboard lays faculties out in two columns; the payload is the list index.
func (b *KeyboardBuilder) FacultyKeyboard(faculties []string) *InlineKeyboard {
	kb := NewInlineKeyboard()
	for i := 0; i < len(faculties); i += FacultyColumns {
		row := make([]InlineButton, 0, FacultyColumns)
		for j := i; j < i+FacultyColumns && j < len(faculties); j++ {
			row = append(row, CallbackButton(faculties[j], CallbackData(conversation.ChoiceFaculty, strconv.Itoa(j))))
		}
		kb.AddRow(row...)
	}
	return kb
}

// ParticipationKeyboard - "Да" / "Нет".
func (b *KeyboardBuilder) ParticipationKeyboard() *InlineKeyboard {
	return b.yesNo(conversation.ChoiceParticipation, "✅ Да", "❌ Нет")
}

// ConfirmationKeyboard - "Все верно" / "Исправить".
func (b *KeyboardBuilder) ConfirmationKeyboard() *InlineKeyboard {
	return b.yesNo(conversation.ChoiceConfirm, "✅ Все верно", "❌ Исправить")
}

func (b *KeyboardBuilder) yesNo(kind conversation.ChoiceKind, yes, no string) *InlineKeyboard {
	return NewInlineKeyboard().
		AddRow(
			CallbackButton(yes, CallbackData(kind, conversation.ChoiceYes)),
			CallbackButton(no, CallbackData(kind, conversation.ChoiceNo)),
		)
}
