package registration

import "context"

// Repository defines the interface for the applications table.
// Implementations live in infrastructure/persistence.
type Repository interface {
	// Insert stores a new submission and returns its surrogate id.
	Insert(ctx context.Context, s Submission) (int64, error)

	// Count returns the total number of submissions.
	Count(ctx context.Context) (int, error)

	// CountByFaculty returns per-faculty counts, largest first.
	CountByFaculty(ctx context.Context) ([]FacultyCount, error)

	// CountOnDay returns the number of submissions whose timestamp starts
	// with day (formatted with DayLayout).
	CountOnDay(ctx context.Context, day string) (int, error)

	// ListNewestFirst returns every submission ordered by timestamp descending.
	ListNewestFirst(ctx context.Context) ([]Submission, error)
}

// FileStore keeps uploaded documents in one folder per faculty.
type FileStore interface {
	// EnsureFolder creates <root>/<faculty> if it does not exist.
	EnsureFolder(ctx context.Context, faculty string) error

	// Create writes data under <root>/<faculty>/<name> without overwriting.
	// When name is taken a numeric suffix is added before the extension;
	// the name actually used and the full path are returned.
	Create(ctx context.Context, faculty, name string, data []byte) (stored string, path string, err error)

	// Remove deletes a previously created file.
	Remove(ctx context.Context, faculty, name string) error
}
