package conversation

import (
	"strconv"
	"strings"
	"time"

	"github.com/alem-hub/applications-bot/internal/domain/registration"
)

// UnnamedFile replaces a missing document file name.
const UnnamedFile = "без_названия"

// Config is the immutable configuration shared by all sessions.
type Config struct {
	Catalog *registration.Catalog
}

// Transition computes the next session and the prompt to send.
// It performs no I/O and never mutates its arguments.
func Transition(cfg Config, s Session, ev Event) Outcome {
	switch e := ev.(type) {
	case StartEvent:
		d := registration.NewDraft(e.Registrant, e.ChatID, time.Time{})
		return Outcome{
			Session: Session{State: StateAwaitingName, Draft: d},
			Prompt:  Prompt{Kind: PromptWelcome, Draft: d},
		}
	case CancelEvent:
		next := StateIdle
		if s.State.IsActive() {
			next = StateCancelled
		}
		return Outcome{Session: Session{State: next}, Prompt: Prompt{Kind: PromptCancelled}}
	}

	if !s.State.IsActive() {
		return Outcome{Session: Session{State: StateIdle}, Prompt: Prompt{Kind: PromptNoSession}}
	}

	d := s.Draft
	switch s.State {
	case StateAwaitingName:
		if v, ok := textValue(ev); ok {
			d.FullName = v
			return advance(StateAwaitingFaculty, d, PromptAskFaculty)
		}
		return stay(s, Prompt{Kind: PromptAskName})

	case StateAwaitingFaculty:
		if c, ok := ev.(ChoiceEvent); ok && c.Kind == ChoiceFaculty {
			idx, err := strconv.Atoi(c.Value)
			if err == nil {
				if name, err := cfg.Catalog.FacultyAt(idx); err == nil {
					d.Faculty = name
					return advance(StateAwaitingParticipation, d, PromptAskParticipation)
				}
			}
		}
		return stay(s, Prompt{Kind: PromptAskFaculty})

	case StateAwaitingParticipation:
		if v, ok := yesNo(ev, ChoiceParticipation); ok {
			d.Participated = registration.Participation(v)
			return advance(StateAwaitingPhone, d, PromptAskPhone)
		}
		return stay(s, Prompt{Kind: PromptAskParticipation})

	case StateAwaitingPhone:
		if v, ok := textValue(ev); ok {
			d.Phone = v
			return advance(StateAwaitingCity, d, PromptAskCity)
		}
		return stay(s, Prompt{Kind: PromptAskPhone})

	case StateAwaitingCity:
		if v, ok := textValue(ev); ok {
			d.City = v
			return advance(StateAwaitingDocument, d, PromptAskDocument)
		}
		return stay(s, Prompt{Kind: PromptAskCity})

	case StateAwaitingDocument:
		return onDocument(cfg, s, ev)

	case StateAwaitingConfirmation:
		v, ok := yesNo(ev, ChoiceConfirm)
		switch {
		case ok && v:
			return Outcome{
				Session: Session{State: StateCommitted, Draft: d},
				Prompt:  Prompt{Kind: PromptCommitted, Draft: d},
				Effect:  EffectCommit,
			}
		case ok:
			return Outcome{Session: Session{State: StateCancelled}, Prompt: Prompt{Kind: PromptCancelled}}
		}
		return stay(s, Prompt{Kind: PromptSummary, Draft: d})
	}

	return Outcome{Session: Session{State: StateIdle}, Prompt: Prompt{Kind: PromptNoSession}}
}

func onDocument(cfg Config, s Session, ev Event) Outcome {
	a, ok := ev.(AttachmentEvent)
	if !ok || a.Kind == AttachmentOther || a.FileID == "" {
		return stay(s, Prompt{Kind: PromptAskDocument, Reason: RejectNotDocument})
	}
	if a.Kind == AttachmentPhoto {
		return stay(s, Prompt{Kind: PromptAskDocument, Reason: RejectPhoto})
	}

	name := a.FileName
	if name == "" {
		name = UnnamedFile
	}
	ext, err := cfg.Catalog.CheckExtension(name)
	if err != nil {
		return stay(s, Prompt{Kind: PromptWrongExtension, FileName: name, Extension: ext})
	}

	d := s.Draft
	d.Document = registration.Document{FileID: a.FileID, FileName: name, Extension: ext}
	return Outcome{
		Session: Session{State: StateAwaitingConfirmation, Draft: d},
		Prompt:  Prompt{Kind: PromptSummary, Draft: d},
	}
}

func advance(next State, d registration.Draft, kind PromptKind) Outcome {
	return Outcome{Session: Session{State: next, Draft: d}, Prompt: Prompt{Kind: kind, Draft: d}}
}

func stay(s Session, p Prompt) Outcome {
	if p.Draft.Registrant.ID == "" {
		p.Draft = s.Draft
	}
	return Outcome{Session: s, Prompt: p}
}

func textValue(ev Event) (string, bool) {
	t, ok := ev.(TextEvent)
	if !ok || strings.TrimSpace(t.Text) == "" {
		return "", false
	}
	return t.Text, true
}

func yesNo(ev Event, kind ChoiceKind) (bool, bool) {
	c, ok := ev.(ChoiceEvent)
	if !ok || c.Kind != kind {
		return false, false
	}
	switch c.Value {
	case ChoiceYes:
		return true, true
	case ChoiceNo:
		return false, true
	}
	return false, false
}
