package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/alem-hub/applications-bot/internal/domain/registration"
	"github.com/alem-hub/applications-bot/internal/domain/shared"
)

// ApplicationRepository implements registration.Repository for SQLite.
type ApplicationRepository struct {
	db *sql.DB
}

var _ registration.Repository = (*ApplicationRepository)(nil)

// NewApplicationRepository creates a new ApplicationRepository.
func NewApplicationRepository(db *sql.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Insert stores a submission and returns its id.
func (r *ApplicationRepository) Insert(ctx context.Context, s registration.Submission) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO applications (
			timestamp, fio, faculty, participated, tg_username,
			phone, city, file_name, file_type
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.Timestamp, s.FullName, s.Faculty, s.Participated, s.Handle,
		s.Phone, s.City, s.FileName, s.FileType,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, shared.WrapError("registration", "Insert", shared.ErrAlreadyExists, "stored file already recorded", err)
		}
		return 0, fmt.Errorf("failed to insert application: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read application id: %w", err)
	}
	return id, nil
}

// Count returns the total number of applications.
func (r *ApplicationRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM applications`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count applications: %w", err)
	}
	return n, nil
}

// CountByFaculty returns per-faculty counts, largest first.
func (r *ApplicationRepository) CountByFaculty(ctx context.Context) ([]registration.FacultyCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT faculty, COUNT(*) AS cnt
		FROM applications
		GROUP BY faculty
		ORDER BY cnt DESC, faculty`)
	if err != nil {
		return nil, fmt.Errorf("failed to count by faculty: %w", err)
	}
	defer rows.Close()

	var out []registration.FacultyCount
	for rows.Next() {
		var fc registration.FacultyCount
		if err := rows.Scan(&fc.Faculty, &fc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan faculty count: %w", err)
		}
		out = append(out, fc)
	}
	return out, rows.Err()
}

// CountOnDay returns the number of applications whose timestamp starts with day.
func (r *ApplicationRepository) CountOnDay(ctx context.Context, day string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM applications WHERE timestamp LIKE ? || '%'`, day,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count applications on %s: %w", day, err)
	}
	return n, nil
}

// ListNewestFirst returns all applications ordered by timestamp descending.
func (r *ApplicationRepository) ListNewestFirst(ctx context.Context) ([]registration.Submission, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, timestamp, fio, faculty, participated, tg_username,
		       phone, city, file_name, file_type
		FROM applications
		ORDER BY timestamp DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	var out []registration.Submission
	for rows.Next() {
		var s registration.Submission
		if err := rows.Scan(
			&s.ID, &s.Timestamp, &s.FullName, &s.Faculty, &s.Participated,
			&s.Handle, &s.Phone, &s.City, &s.FileName, &s.FileType,
		); err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
