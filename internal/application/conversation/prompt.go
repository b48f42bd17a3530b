package conversation

import "github.com/alem-hub/applications-bot/internal/domain/registration"

// PromptKind identifies the outbound message produced by a transition.
// Rendering into text and keyboards is done by the transport presenter.
type PromptKind int

const (
	PromptNone PromptKind = iota
	PromptWelcome
	PromptAskName
	PromptAskFaculty
	PromptAskParticipation
	PromptAskPhone
	PromptAskCity
	PromptAskDocument
	PromptWrongExtension
	PromptSummary
	PromptCommitted
	PromptCommitFailed
	PromptCancelled
	PromptNoSession
)

// RejectReason explains a PromptAskDocument re-prompt.
type RejectReason int

const (
	RejectNone RejectReason = iota
	RejectPhoto
	RejectNotDocument
)

// Prompt is a semantic outbound message.
type Prompt struct {
	Kind PromptKind

	// Draft - снимок анкеты на момент ответа (для приветствия и сводки).
	Draft registration.Draft

	// Reason is set for document re-prompts.
	Reason RejectReason

	// FileName and Extension echo a rejected upload.
	FileName  string
	Extension string
}

// Effect is a side effect the engine must perform after a transition.
type Effect int

const (
	EffectNone Effect = iota
	EffectCommit
)

// Outcome is the result of a single transition.
type Outcome struct {
	Session Session
	Prompt  Prompt
	Effect  Effect
}
