// Package filestore keeps uploaded documents on the local disk in one
// folder per faculty.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alem-hub/applications-bot/internal/domain/registration"
	"github.com/google/uuid"
)

// Config holds file store configuration.
type Config struct {
	// Root is the folder containing one subfolder per faculty.
	Root string

	// DirPerm and FilePerm apply to created folders and files.
	DirPerm  fs.FileMode
	FilePerm fs.FileMode

	// MaxSuffix bounds the _2, _3, ... attempts for a taken name.
	MaxSuffix int

	Logger *slog.Logger
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		Root:      "applications",
		DirPerm:   0o755,
		FilePerm:  0o644,
		MaxSuffix: 1000,
	}
}

var (
	// ErrInvalidName is returned for names that would escape the faculty folder.
	ErrInvalidName = errors.New("filestore: invalid file name")
	// ErrNameExhausted is returned when every suffix up to MaxSuffix is taken.
	ErrNameExhausted = errors.New("filestore: no free file name")
)

// Local implements registration.FileStore on the local file system.
type Local struct {
	cfg    Config
	logger *slog.Logger
}

var _ registration.FileStore = (*Local)(nil)

// NewLocal creates a file store rooted at cfg.Root.
func NewLocal(cfg Config) *Local {
	def := DefaultConfig()
	if cfg.Root == "" {
		cfg.Root = def.Root
	}
	if cfg.DirPerm == 0 {
		cfg.DirPerm = def.DirPerm
	}
	if cfg.FilePerm == 0 {
		cfg.FilePerm = def.FilePerm
	}
	if cfg.MaxSuffix <= 0 {
		cfg.MaxSuffix = def.MaxSuffix
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Local{cfg: cfg, logger: cfg.Logger.With(slog.String("component", "filestore"))}
}

// Root returns the root folder.
func (l *Local) Root() string {
	return l.cfg.Root
}

// Bootstrap creates the root and every faculty folder. Called at startup.
func (l *Local) Bootstrap(ctx context.Context, faculties []string) error {
	if err := os.MkdirAll(l.cfg.Root, l.cfg.DirPerm); err != nil {
		return fmt.Errorf("failed to create root folder: %w", err)
	}
	for _, f := range faculties {
		if err := l.EnsureFolder(ctx, f); err != nil {
			return err
		}
	}
	l.logger.Info("folder structure ready",
		slog.String("root", l.cfg.Root),
		slog.Int("faculties", len(faculties)),
	)
	return nil
}

// EnsureFolder creates <root>/<faculty>.
func (l *Local) EnsureFolder(_ context.Context, faculty string) error {
	dir, err := l.dir(faculty)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, l.cfg.DirPerm); err != nil {
		return fmt.Errorf("failed to create folder %s: %w", dir, err)
	}
	return nil
}

// Create writes data to a temporary file and hard-links it under the first
// free name, so the final name never holds partial content and never
// replaces an existing file.
func (l *Local) Create(ctx context.Context, faculty, name string, data []byte) (string, string, error) {
	dir, err := l.dir(faculty)
	if err != nil {
		return "", "", err
	}
	if err := checkName(name); err != nil {
		return "", "", err
	}

	tmp := filepath.Join(dir, "."+uuid.NewString()+".part")
	if err := os.WriteFile(tmp, data, l.cfg.FilePerm); err != nil {
		_ = os.Remove(tmp)
		return "", "", fmt.Errorf("failed to write file: %w", err)
	}
	defer os.Remove(tmp)

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	for i := 1; i <= l.cfg.MaxSuffix; i++ {
		if err := ctx.Err(); err != nil {
			return "", "", err
		}

		candidate := name
		if i > 1 {
			candidate = base + "_" + strconv.Itoa(i) + ext
		}
		path := filepath.Join(dir, candidate)

		err := os.Link(tmp, path)
		if err == nil {
			return candidate, path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", "", fmt.Errorf("failed to store file %s: %w", path, err)
		}
	}
	return "", "", ErrNameExhausted
}

// Remove deletes <root>/<faculty>/<name>. A missing file is not an error.
func (l *Local) Remove(_ context.Context, faculty, name string) error {
	dir, err := l.dir(faculty)
	if err != nil {
		return err
	}
	if err := checkName(name); err != nil {
		return err
	}
	err = os.Remove(filepath.Join(dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

// Path returns the absolute location of a stored file.
func (l *Local) Path(faculty, name string) string {
	return filepath.Join(l.cfg.Root, faculty, name)
}

func (l *Local) dir(faculty string) (string, error) {
	if err := checkName(faculty); err != nil {
		return "", err
	}
	return filepath.Join(l.cfg.Root, faculty), nil
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return ErrInvalidName
	}
	return nil
}
