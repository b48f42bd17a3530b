package postgres

import (
	"context"
	"fmt"

	"github.com/alem-hub/applications-bot/internal/domain/registration"
	"github.com/alem-hub/applications-bot/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ApplicationRepository implements registration.Repository for PostgreSQL.
type ApplicationRepository struct {
	conn *Connection
}

var _ registration.Repository = (*ApplicationRepository)(nil)

// NewApplicationRepository creates a new ApplicationRepository.
func NewApplicationRepository(conn *Connection) *ApplicationRepository {
	return &ApplicationRepository{conn: conn}
}

// Insert stores a submission and returns its id.
func (r *ApplicationRepository) Insert(ctx context.Context, s registration.Submission) (int64, error) {
	query := `
		INSERT INTO applications (
			timestamp, fio, faculty, participated, tg_username,
			phone, city, file_name, file_type
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	var id int64
	err := r.conn.QueryRow(ctx, query,
		s.Timestamp,
		s.FullName,
		s.Faculty,
		s.Participated,
		s.Handle,
		s.Phone,
		s.City,
		s.FileName,
		s.FileType,
	).Scan(&id)
	if err != nil {
		if IsUniqueViolation(err) {
			return 0, shared.WrapError("registration", "Insert", shared.ErrAlreadyExists, "stored file already recorded", err)
		}
		return 0, fmt.Errorf("failed to insert application: %w", err)
	}

	return id, nil
}

// Count returns the total number of applications.
func (r *ApplicationRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM applications`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count applications: %w", err)
	}
	return n, nil
}

// CountByFaculty returns per-faculty counts, largest first.
func (r *ApplicationRepository) CountByFaculty(ctx context.Context) ([]registration.FacultyCount, error) {
	query := `
		SELECT faculty, COUNT(*) AS cnt
		FROM applications
		GROUP BY faculty
		ORDER BY cnt DESC, faculty
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count by faculty: %w", err)
	}

	counts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (registration.FacultyCount, error) {
		var fc registration.FacultyCount
		err := row.Scan(&fc.Faculty, &fc.Count)
		return fc, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan faculty counts: %w", err)
	}
	return counts, nil
}

// CountOnDay returns the number of applications whose timestamp starts with day.
func (r *ApplicationRepository) CountOnDay(ctx context.Context, day string) (int, error) {
	var n int
	err := r.conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM applications WHERE timestamp LIKE $1 || '%'`,
		day,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count applications on %s: %w", day, err)
	}
	return n, nil
}

// ListNewestFirst returns all applications ordered by timestamp descending.
func (r *ApplicationRepository) ListNewestFirst(ctx context.Context) ([]registration.Submission, error) {
	query := `
		SELECT id, timestamp, fio, faculty, participated, tg_username,
			   phone, city, file_name, file_type
		FROM applications
		ORDER BY timestamp DESC, id DESC
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}

	subs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (registration.Submission, error) {
		var s registration.Submission
		err := row.Scan(
			&s.ID, &s.Timestamp, &s.FullName, &s.Faculty, &s.Participated,
			&s.Handle, &s.Phone, &s.City, &s.FileName, &s.FileType,
		)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan applications: %w", err)
	}
	return subs, nil
}
