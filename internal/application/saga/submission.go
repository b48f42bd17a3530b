// Package saga contains multi-step business processes that span the file
// tree and the database and must leave both consistent on failure.
package saga

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/alem-hub/applications-bot/internal/domain/registration"
	"github.com/alem-hub/applications-bot/pkg/circuitbreaker"
	"github.com/alem-hub/applications-bot/pkg/retry"
	"github.com/alem-hub/applications-bot/pkg/timeutil"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/text/unicode/norm"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMISSION SAGA
// Commit of a confirmed application
// Flow: Fetch Attachment → Build Filename → Ensure Folder → Write File → Insert Row
// Compensation: Insert Row failure removes the written file
// ══════════════════════════════════════════════════════════════════════════════

// CommitStep names a step of the commit.
type CommitStep string

const (
	StepValidate        CommitStep = "validate"
	StepFetchAttachment CommitStep = "fetch_attachment"
	StepBuildFilename   CommitStep = "build_filename"
	StepEnsureFolder    CommitStep = "ensure_folder"
	StepWriteFile       CommitStep = "write_file"
	StepInsertRow       CommitStep = "insert_row"
	StepComplete        CommitStep = "complete"
)

// FallbackName is used when nothing of the full name survives sanitising.
const FallbackName = "applicant"

// ─── Dependencies ───

// AttachmentFetcher downloads an uploaded file by its transport reference.
type AttachmentFetcher interface {
	Fetch(ctx context.Context, fileID string) ([]byte, error)
}

// SubmissionSagaConfig contains dependencies and settings of the saga.
type SubmissionSagaConfig struct {
	Catalog    *registration.Catalog
	Fetcher    AttachmentFetcher
	Files      registration.FileStore
	Repository registration.Repository
	Clock      *timeutil.Clock

	// Retrier wraps Fetch. Default: retry.TelegramRetrier()
	Retrier *retry.Retrier

	// Breaker wraps Fetch. Optional.
	Breaker *circuitbreaker.CircuitBreaker

	// OnCommitted is called after a successful commit, e.g. to drop cached statistics.
	OnCommitted func(ctx context.Context, r registration.Receipt)

	Logger *slog.Logger
}

// commitState tracks a single commit.
type commitState struct {
	step       CommitStep
	draft      registration.Draft
	data       []byte
	at         time.Time
	name       string
	stored     string
	path       string
	fileExists bool
}

// SubmissionSaga turns a confirmed Draft into a Submission and its stored file.
// It implements conversation.Committer.
type SubmissionSaga struct {
	catalog     *registration.Catalog
	fetcher     AttachmentFetcher
	files       registration.FileStore
	repo        registration.Repository
	clock       *timeutil.Clock
	retrier     *retry.Retrier
	breaker     *circuitbreaker.CircuitBreaker
	onCommitted func(ctx context.Context, r registration.Receipt)
	logger      *slog.Logger
}

// NewSubmissionSaga creates the saga. Catalog, Fetcher, Files, Repository and
// Clock are required.
func NewSubmissionSaga(cfg SubmissionSagaConfig) (*SubmissionSaga, error) {
	switch {
	case cfg.Catalog == nil:
		return nil, errors.New("catalog is required")
	case cfg.Fetcher == nil:
		return nil, errors.New("attachment fetcher is required")
	case cfg.Files == nil:
		return nil, errors.New("file store is required")
	case cfg.Repository == nil:
		return nil, errors.New("repository is required")
	case cfg.Clock == nil:
		return nil, errors.New("clock is required")
	}
	if cfg.Retrier == nil {
		cfg.Retrier = retry.TelegramRetrier()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &SubmissionSaga{
		catalog:     cfg.Catalog,
		fetcher:     cfg.Fetcher,
		files:       cfg.Files,
		repo:        cfg.Repository,
		clock:       cfg.Clock,
		retrier:     cfg.Retrier,
		breaker:     cfg.Breaker,
		onCommitted: cfg.OnCommitted,
		logger:      cfg.Logger.With(slog.String("component", "submission_saga")),
	}, nil
}

// Commit runs every step in order. On failure it returns a *CommitError
// naming the failed step; no row exists and no file is left behind.
func (s *SubmissionSaga) Commit(ctx context.Context, d registration.Draft) (*registration.Receipt, error) {
	st := &commitState{step: StepValidate, draft: d}

	if err := d.Validate(s.catalog); err != nil {
		return nil, s.fail(ctx, st, err)
	}

	st.step = StepFetchAttachment
	if err := s.stepFetch(ctx, st); err != nil {
		return nil, s.fail(ctx, st, err)
	}

	st.step = StepBuildFilename
	st.at = s.clock.Now()
	st.name = StoredFilename(st.at, d.FullName, d.Document.Extension)

	st.step = StepEnsureFolder
	if err := s.files.EnsureFolder(ctx, d.Faculty); err != nil {
		return nil, s.fail(ctx, st, err)
	}

	st.step = StepWriteFile
	stored, path, err := s.files.Create(ctx, d.Faculty, st.name, st.data)
	if err != nil {
		return nil, s.fail(ctx, st, err)
	}
	st.stored, st.path, st.fileExists = stored, path, true

	st.step = StepInsertRow
	sub := registration.NewSubmission(d, st.stored, st.at)
	id, err := s.repo.Insert(ctx, sub)
	if err != nil {
		return nil, s.fail(ctx, st, err)
	}
	sub.ID = id

	st.step = StepComplete
	sum := blake2b.Sum256(st.data)
	receipt := registration.Receipt{
		Submission: sub,
		Path:       st.path,
		Digest:     hex.EncodeToString(sum[:]),
	}

	s.logger.Info("submission stored",
		slog.Int64("id", id),
		slog.String("faculty", sub.Faculty),
		slog.String("path", st.path),
		slog.Int("bytes", len(st.data)),
		slog.String("blake2b", receipt.Digest),
	)

	if s.onCommitted != nil {
		s.onCommitted(ctx, receipt)
	}
	return &receipt, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SAGA STEPS
// ══════════════════════════════════════════════════════════════════════════════

func (s *SubmissionSaga) stepFetch(ctx context.Context, st *commitState) error {
	fetch := func(ctx context.Context) ([]byte, error) {
		if s.breaker == nil {
			return s.fetcher.Fetch(ctx, st.draft.Document.FileID)
		}
		var data []byte
		err := s.breaker.Execute(ctx, func(ctx context.Context) error {
			var ferr error
			data, ferr = s.fetcher.Fetch(ctx, st.draft.Document.FileID)
			return ferr
		})
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
			return nil, retry.Permanent(err)
		}
		return data, err
	}

	data, err := retry.DoWithData(ctx, s.retrier, fetch)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", st.draft.Document.FileID, err)
	}
	if len(data) == 0 {
		return ErrEmptyAttachment
	}
	st.data = data
	return nil
}

// fail runs compensation and wraps err with the failed step.
func (s *SubmissionSaga) fail(ctx context.Context, st *commitState, err error) error {
	ce := &CommitError{Step: st.step, Cause: err}

	if st.fileExists {
		// The context may already be cancelled; removal must still happen.
		if rmErr := s.files.Remove(context.WithoutCancel(ctx), st.draft.Faculty, st.stored); rmErr != nil {
			ce.CompensationErr = rmErr
			s.logger.Error("failed to remove orphaned file",
				slog.String("path", st.path),
				slog.String("error", rmErr.Error()),
			)
		} else {
			ce.Compensated = true
		}
	}

	s.logger.Warn("commit aborted",
		slog.String("step", string(st.step)),
		slog.String("faculty", st.draft.Faculty),
		slog.Bool("compensated", ce.Compensated),
		slog.String("error", err.Error()),
	)
	return ce
}

// ══════════════════════════════════════════════════════════════════════════════
// FILE NAMES
// ══════════════════════════════════════════════════════════════════════════════

// SanitizeName keeps letters, digits, spaces and underscores of the
// NFC-normalised full name and drops trailing spaces.
func SanitizeName(fullName string) string {
	var b strings.Builder
	for _, r := range norm.NFC.String(fullName) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '_' {
			b.WriteRune(r)
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// MaxNameBytes caps the name part so stamp, "_N" suffix and extension stay
// well under the 255-byte file name limit.
const MaxNameBytes = 120

// StoredFilename builds <YYYYMMDD_HHMMSS>_<sanitized name><ext>.
func StoredFilename(at time.Time, fullName, ext string) string {
	name := truncateBytes(SanitizeName(fullName), MaxNameBytes)
	if strings.TrimSpace(name) == "" {
		name = FallbackName
	}
	return at.Format(timeutil.FormatFileStamp) + "_" + name + ext
}

// truncateBytes cuts s to at most limit bytes on a rune boundary.
func truncateBytes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := 0
	for i := range s {
		if i > limit {
			break
		}
		cut = i
	}
	return strings.TrimRight(s[:cut], " ")
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

// ErrEmptyAttachment is returned when the transport delivered zero bytes.
var ErrEmptyAttachment = errors.New("submission: attachment is empty")

// CommitError reports which step of the commit failed.
type CommitError struct {
	Step  CommitStep
	Cause error

	// Compensated is true when a written file was removed again.
	Compensated     bool
	CompensationErr error
}

// Error implements the error interface.
func (e *CommitError) Error() string {
	return fmt.Sprintf("commit failed at step '%s': %v", e.Step, e.Cause)
}

// Unwrap returns the underlying error.
func (e *CommitError) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether restarting the form may succeed.
func (e *CommitError) IsRetryable() bool {
	return e.Step != StepValidate
}
