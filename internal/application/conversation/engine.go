package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alem-hub/applications-bot/internal/domain/registration"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENGINE
// ══════════════════════════════════════════════════════════════════════════════

// Committer persists a confirmed draft.
type Committer interface {
	Commit(ctx context.Context, d registration.Draft) (*registration.Receipt, error)
}

// ErrNoCatalog is returned by NewEngine when the configuration is incomplete.
var ErrNoCatalog = errors.New("conversation: catalog is required")

// EngineConfig contains engine dependencies and settings.
type EngineConfig struct {
	Config    Config
	Store     DraftStore
	Committer Committer
	Clock     func() time.Time
	Logger    *slog.Logger
}

// Engine applies transitions to stored sessions.
type Engine struct {
	cfg       Config
	store     DraftStore
	committer Committer
	clock     func() time.Time
	logger    *slog.Logger
	locks     *keyedMutex
}

// Reply is what the transport must send back after an event.
type Reply struct {
	Prompt Prompt

	// State - состояние после обработки события.
	State State

	// Receipt is set after a successful commit.
	Receipt *registration.Receipt

	// CommitErr is set when the registrant confirmed but saving failed.
	CommitErr error
}

// NewEngine creates a new conversation engine.
func NewEngine(c EngineConfig) (*Engine, error) {
	if c.Config.Catalog == nil {
		return nil, ErrNoCatalog
	}
	if c.Store == nil {
		c.Store = NewMemoryStore()
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return &Engine{
		cfg:       c.Config,
		store:     c.Store,
		committer: c.Committer,
		clock:     c.Clock,
		logger:    c.Logger.With(slog.String("component", "conversation")),
		locks:     newKeyedMutex(),
	}, nil
}

// Catalog returns the catalog the engine validates against.
func (e *Engine) Catalog() *registration.Catalog {
	return e.cfg.Catalog
}

// Handle processes one event of the registrant identified by registrantID.
// Events of the same registrant are serialised.
func (e *Engine) Handle(ctx context.Context, registrantID string, ev Event) (Reply, error) {
	if start, ok := ev.(StartEvent); ok && start.Registrant.ID != "" {
		registrantID = start.Registrant.ID
	}

	unlock := e.locks.Lock(registrantID)
	defer unlock()

	current, found, err := e.store.Load(ctx, registrantID)
	if err != nil {
		return Reply{}, fmt.Errorf("load session: %w", err)
	}
	if !found {
		current = Session{State: StateIdle}
	}

	out := Transition(e.cfg, current, ev)
	if _, ok := ev.(StartEvent); ok {
		out.Session.Draft.StartedAt = e.clock()
		out.Prompt.Draft.StartedAt = out.Session.Draft.StartedAt
	}

	reply := Reply{Prompt: out.Prompt, State: out.Session.State}

	if out.Effect == EffectCommit {
		reply = e.commit(ctx, registrantID, out)
	}

	if out.Session.State.IsActive() {
		if err := e.store.Save(ctx, registrantID, out.Session); err != nil {
			return Reply{}, fmt.Errorf("save session: %w", err)
		}
	} else if found {
		if err := e.store.Delete(ctx, registrantID); err != nil {
			return Reply{}, fmt.Errorf("delete session: %w", err)
		}
	}

	if current.State != out.Session.State {
		e.logger.Debug("state changed",
			slog.String("registrant", registrantID),
			slog.String("from", current.State.String()),
			slog.String("to", reply.State.String()),
		)
	}

	return reply, nil
}

func (e *Engine) commit(ctx context.Context, registrantID string, out Outcome) Reply {
	if e.committer == nil {
		return Reply{
			Prompt:    Prompt{Kind: PromptCommitFailed},
			State:     StateCancelled,
			CommitErr: errors.New("conversation: no committer configured"),
		}
	}

	receipt, err := e.committer.Commit(ctx, out.Session.Draft)
	if err != nil {
		e.logger.Error("commit failed",
			slog.String("registrant", registrantID),
			slog.String("faculty", out.Session.Draft.Faculty),
			slog.String("error", err.Error()),
		)
		return Reply{Prompt: Prompt{Kind: PromptCommitFailed}, State: StateCancelled, CommitErr: err}
	}

	e.logger.Info("application committed",
		slog.String("registrant", registrantID),
		slog.Int64("submission_id", receipt.Submission.ID),
		slog.String("faculty", receipt.Submission.Faculty),
		slog.String("file", receipt.Submission.FileName),
	)
	return Reply{Prompt: out.Prompt, State: StateCommitted, Receipt: receipt}
}
