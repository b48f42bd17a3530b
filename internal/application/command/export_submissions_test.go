package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/alem-hub/applications-bot/internal/domain/registration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listRepo struct {
	rows []registration.Submission
	err  error
}

func (r *listRepo) Insert(context.Context, registration.Submission) (int64, error) { return 0, nil }
func (r *listRepo) Count(context.Context) (int, error)                            { return len(r.rows), nil }
func (r *listRepo) CountByFaculty(context.Context) ([]registration.FacultyCount, error) {
	return nil, nil
}
func (r *listRepo) CountOnDay(context.Context, string) (int, error) { return 0, nil }
func (r *listRepo) ListNewestFirst(context.Context) ([]registration.Submission, error) {
	return r.rows, r.err
}

// lineExporter writes one line per row so tests can inspect the order.
type lineExporter struct {
	fail error
}

func (e lineExporter) Write(w io.Writer, rows []registration.Submission) error {
	if e.fail != nil {
		return e.fail
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%d %s\n", r.ID, r.FullName); err != nil {
			return err
		}
	}
	return nil
}

func TestExportSubmissions(t *testing.T) {
	repo := &listRepo{rows: []registration.Submission{
		{ID: 2, FullName: "Мария"},
		{ID: 1, FullName: "Ivan Petrov"},
	}}
	h := NewExportSubmissionsHandler(repo, lineExporter{}, nil)
	path := filepath.Join(t.TempDir(), "out.xlsx")

	res, err := h.Handle(context.Background(), ExportSubmissionsCommand{Path: path})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, path, res.Path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "2 Мария\n1 Ivan Petrov\n", string(data))
}

func TestExportSubmissions_Empty(t *testing.T) {
	dir := t.TempDir()
	h := NewExportSubmissionsHandler(&listRepo{}, lineExporter{}, nil)

	_, err := h.Handle(context.Background(), ExportSubmissionsCommand{Path: filepath.Join(dir, "out.xlsx")})
	assert.ErrorIs(t, err, ErrNothingToExport)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExportSubmissions_WriterFailureLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	repo := &listRepo{rows: []registration.Submission{{ID: 1}}}
	h := NewExportSubmissionsHandler(repo, lineExporter{fail: errors.New("disk full")}, nil)

	_, err := h.Handle(context.Background(), ExportSubmissionsCommand{Path: filepath.Join(dir, "out.xlsx")})
	assert.ErrorContains(t, err, "disk full")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExportSubmissions_RepoError(t *testing.T) {
	h := NewExportSubmissionsHandler(&listRepo{err: errors.New("db down")}, lineExporter{}, nil)
	_, err := h.Handle(context.Background(), ExportSubmissionsCommand{Path: filepath.Join(t.TempDir(), "x.xlsx")})
	assert.ErrorContains(t, err, "db down")
}
