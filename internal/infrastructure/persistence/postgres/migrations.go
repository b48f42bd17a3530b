package postgres

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_applications",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "unique_stored_file",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE APPLICATIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS applications (
    id BIGSERIAL PRIMARY KEY,
    timestamp TEXT NOT NULL,
    fio TEXT NOT NULL,
    faculty TEXT NOT NULL,
    participated TEXT NOT NULL,
    tg_username TEXT NOT NULL,
    phone TEXT NOT NULL,
    city TEXT NOT NULL,
    file_name TEXT NOT NULL,
    file_type TEXT NOT NULL,

    CONSTRAINT valid_participated CHECK (participated IN ('Да', 'Нет'))
);

CREATE INDEX IF NOT EXISTS idx_faculty ON applications(faculty);
CREATE INDEX IF NOT EXISTS idx_applications_timestamp ON applications(timestamp DESC);
`

const migration001Down = `
DROP TABLE IF EXISTS applications;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: ONE ROW PER STORED FILE
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE UNIQUE INDEX IF NOT EXISTS idx_applications_stored_file ON applications(faculty, file_name);
`

const migration002Down = `
DROP INDEX IF EXISTS idx_applications_stored_file;
`
