package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/alem-hub/applications-bot/internal/domain/registration"
	"github.com/alem-hub/applications-bot/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (*ApplicationRepository, *sql.DB) {
	t.Helper()
	db, err := Open(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	n, err := Migrate(context.Background(), db)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	return NewApplicationRepository(db), db
}

func sub(ts, faculty, file string) registration.Submission {
	return registration.Submission{
		Timestamp:    ts,
		FullName:     "Ivan Petrov",
		Faculty:      faculty,
		Participated: "Нет",
		Handle:       "@ivan",
		Phone:        "+1000",
		City:         "Minsk",
		FileName:     file,
		FileType:     ".docx",
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	_, db := newTestRepo(t)
	n, err := Migrate(context.Background(), db)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestApplicationRepository_InsertAndList(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	id1, err := repo.Insert(ctx, sub("2024-03-05 09:00:00", "ФПМИ", "a.docx"))
	require.NoError(t, err)
	id2, err := repo.Insert(ctx, sub("2024-03-06 10:00:00", "ФМО", "b.docx"))
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	list, err := repo.ListNewestFirst(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, id2, list[0].ID)
	assert.Equal(t, "ФМО", list[0].Faculty)
	assert.Equal(t, "Нет", list[1].Participated)
	assert.Equal(t, "@ivan", list[1].Handle)
}

func TestApplicationRepository_Aggregates(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	rows := []registration.Submission{
		sub("2024-03-05 09:00:00", "ФПМИ", "1.docx"),
		sub("2024-03-05 12:00:00", "ФПМИ", "2.docx"),
		sub("2024-03-04 23:59:59", "ФМО", "3.docx"),
		sub("2024-03-05 00:00:00", "ЮрФак", "4.docx"),
		sub("2024-03-05 01:00:00", "ЮрФак", "5.docx"),
		sub("2024-03-05 02:00:00", "ЮрФак", "6.docx"),
	}
	for _, r := range rows {
		_, err := repo.Insert(ctx, r)
		require.NoError(t, err)
	}

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, total)

	today, err := repo.CountOnDay(ctx, "2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, 5, today)

	byFaculty, err := repo.CountByFaculty(ctx)
	require.NoError(t, err)
	assert.Equal(t, []registration.FacultyCount{
		{Faculty: "ЮрФак", Count: 3},
		{Faculty: "ФПМИ", Count: 2},
		{Faculty: "ФМО", Count: 1},
	}, byFaculty)
}

func TestApplicationRepository_DuplicateStoredFile(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	_, err := repo.Insert(ctx, sub("2024-03-05 09:00:00", "ФПМИ", "same.docx"))
	require.NoError(t, err)
	_, err = repo.Insert(ctx, sub("2024-03-05 09:00:00", "ФПМИ", "same.docx"))
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	// Same name in another faculty folder is a different file.
	_, err = repo.Insert(ctx, sub("2024-03-05 09:00:00", "ФМО", "same.docx"))
	assert.NoError(t, err)
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "applications.db")
	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	_, err = Migrate(context.Background(), db)
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestApplicationRepository_Empty(t *testing.T) {
	repo, _ := newTestRepo(t)
	list, err := repo.ListNewestFirst(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)

	counts, err := repo.CountByFaculty(context.Background())
	require.NoError(t, err)
	assert.Empty(t, counts)
}
