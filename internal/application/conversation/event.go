package conversation

import "github.com/alem-hub/applications-bot/internal/domain/registration"

// Event is an inbound transport event. The set of implementations is closed.
type Event interface {
	isEvent()
}

// StartEvent - команда /start.
type StartEvent struct {
	Registrant registration.Registrant
	ChatID     int64
}

// CancelEvent - команда /cancel.
type CancelEvent struct{}

// TextEvent - обычное текстовое сообщение.
type TextEvent struct {
	Text string
}

// ChoiceKind identifies which keyboard a button belongs to.
type ChoiceKind string

const (
	ChoiceFaculty       ChoiceKind = "fac"
	ChoiceParticipation ChoiceKind = "part"
	ChoiceConfirm       ChoiceKind = "confirm"
)

// Values carried by yes/no buttons.
const (
	ChoiceYes = "yes"
	ChoiceNo  = "no"
)

// ChoiceEvent - нажатие inline-кнопки.
type ChoiceEvent struct {
	Kind  ChoiceKind
	Value string
}

// AttachmentKind classifies an uploaded file.
type AttachmentKind int

const (
	AttachmentDocument AttachmentKind = iota
	AttachmentPhoto
	AttachmentOther
)

// AttachmentEvent - пользователь прислал файл.
type AttachmentEvent struct {
	Kind     AttachmentKind
	FileID   string
	FileName string
}

func (StartEvent) isEvent()      {}
func (CancelEvent) isEvent()     {}
func (TextEvent) isEvent()       {}
func (ChoiceEvent) isEvent()     {}
func (AttachmentEvent) isEvent() {}
