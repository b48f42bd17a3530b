// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alem-hub/applications-bot/internal/domain/registration"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXPORT SUBMISSIONS COMMAND
// Выгружает все заявки (новые первыми) в файл таблицы.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultExportPath is used when the command names no path.
const DefaultExportPath = "applications_summary.xlsx"

// ErrNothingToExport is returned when the store holds no submissions.
var ErrNothingToExport = errors.New("export_submissions: nothing to export")

// Exporter renders submissions into a tabular file format.
type Exporter interface {
	Write(w io.Writer, rows []registration.Submission) error
}

// ExportSubmissionsCommand contains the data to run an export.
type ExportSubmissionsCommand struct {
	// Path - куда сохранить файл. Пустой путь означает DefaultExportPath.
	Path string
}

// Validate validates the command.
func (c ExportSubmissionsCommand) Validate() error {
	if c.Path != "" && strings.HasSuffix(c.Path, string(filepath.Separator)) {
		return fmt.Errorf("export_submissions: path %q is a directory", c.Path)
	}
	return nil
}

// ExportSubmissionsResult contains the result of an export.
type ExportSubmissionsResult struct {
	// Path - абсолютный путь к созданному файлу.
	Path string

	// Count - количество выгруженных заявок.
	Count int
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// ExportSubmissionsHandler handles the ExportSubmissionsCommand.
type ExportSubmissionsHandler struct {
	repo     registration.Repository
	exporter Exporter
	logger   *slog.Logger
}

// NewExportSubmissionsHandler creates a new ExportSubmissionsHandler.
func NewExportSubmissionsHandler(repo registration.Repository, exporter Exporter, logger *slog.Logger) *ExportSubmissionsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportSubmissionsHandler{repo: repo, exporter: exporter, logger: logger}
}

// Handle executes the export. The workbook is written to a temporary file
// in the target directory and renamed into place.
func (h *ExportSubmissionsHandler) Handle(ctx context.Context, cmd ExportSubmissionsCommand) (*ExportSubmissionsResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	path := cmd.Path
	if path == "" {
		path = DefaultExportPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("export_submissions: resolve path: %w", err)
	}

	rows, err := h.repo.ListNewestFirst(ctx)
	if err != nil {
		return nil, fmt.Errorf("export_submissions: list: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNothingToExport
	}

	tmp, err := os.CreateTemp(filepath.Dir(abs), "."+filepath.Base(abs)+".*")
	if err != nil {
		return nil, fmt.Errorf("export_submissions: create: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := h.exporter.Write(tmp, rows); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("export_submissions: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("export_submissions: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), abs); err != nil {
		return nil, fmt.Errorf("export_submissions: rename: %w", err)
	}

	h.logger.Info("submissions exported", slog.String("path", abs), slog.Int("count", len(rows)))
	return &ExportSubmissionsResult{Path: abs, Count: len(rows)}, nil
}
