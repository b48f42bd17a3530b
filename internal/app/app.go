// Package app wires the applications bot together: stores, caches, the
// conversation engine, the Telegram bot and the HTTP server.
//
// Слои:
// - Domain: заявка, каталог факультетов, политика форматов
// - Application: диалог (Engine), сохранение (SubmissionSaga), статистика, экспорт
// - Infrastructure: SQLite/PostgreSQL, Redis, файловое хранилище, Bot API
// - Interface: Telegram бот, HTTP (health + webhook), консоль
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alem-hub/applications-bot/config"
	"github.com/alem-hub/applications-bot/internal/application/command"
	"github.com/alem-hub/applications-bot/internal/application/conversation"
	"github.com/alem-hub/applications-bot/internal/application/query"
	"github.com/alem-hub/applications-bot/internal/domain/registration"
	"github.com/alem-hub/applications-bot/internal/infrastructure/export"
	"github.com/alem-hub/applications-bot/internal/infrastructure/filestore"
	"github.com/alem-hub/applications-bot/internal/infrastructure/persistence/postgres"
	"github.com/alem-hub/applications-bot/internal/infrastructure/persistence/redis"
	"github.com/alem-hub/applications-bot/internal/infrastructure/persistence/sqlite"
	"github.com/alem-hub/applications-bot/internal/interface/http/handlers"
	"github.com/alem-hub/applications-bot/pkg/logger"
	"github.com/alem-hub/applications-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// APP
// ══════════════════════════════════════════════════════════════════════════════

// App holds the long-lived dependencies shared by the bot and the console.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	clock   *timeutil.Clock
	catalog *registration.Catalog

	repo    registration.Repository
	migrate func(ctx context.Context) (int, error)
	files   *filestore.Local

	// drafts и statsCache работают на Redis, если он настроен.
	drafts     conversation.DraftStore
	statsCache query.StatisticsCache

	statistics *query.GetStatisticsHandler
	listing    *query.ListSubmissionsHandler
	export     *command.ExportSubmissionsHandler

	health  *handlers.HealthChecker
	closers []func()
}

// New opens the relational store, runs migrations when enabled, connects to
// Redis when configured and creates the faculty folder tree.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	clock, err := timeutil.NewClock(cfg.App.Timezone)
	if err != nil {
		return nil, err
	}
	catalog, err := cfg.Catalog()
	if err != nil {
		return nil, fmt.Errorf("registration catalog: %w", err)
	}

	a := &App{
		cfg:     cfg,
		logger:  log,
		clock:   clock,
		catalog: catalog,
		health:  handlers.NewHealthChecker(cfg.App.Version),
	}

	if err := a.openStore(ctx); err != nil {
		a.Close()
		return nil, err
	}

	if cfg.Database.AutoMigrate {
		n, err := a.migrate(ctx)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("migrations completed", slog.Int("applied", n))
	}

	a.openRedis(ctx)

	a.files = filestore.NewLocal(filestore.Config{
		Root:   cfg.Storage.Root,
		Logger: log,
	})
	if err := a.files.Bootstrap(ctx, catalog.Faculties()); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create folders: %w", err)
	}
	log.Info("folder tree ready", slog.String("root", a.files.Root()))

	a.statistics = query.NewGetStatisticsHandler(a.repo, a.statsCache, clock, log)
	a.listing = query.NewListSubmissionsHandler(a.repo)
	a.export = command.NewExportSubmissionsHandler(a.repo, export.NewXLSXWriter(), log)

	return a, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// STORES
// ─────────────────────────────────────────────────────────────────────────────

// openStore picks the repository by DATABASE_URL scheme.
func (a *App) openStore(ctx context.Context) error {
	scheme, target, err := a.cfg.Database.Parse()
	if err != nil {
		return err
	}

	switch scheme {
	case config.SchemeSQLite:
		db, err := sqlite.Open(target)
		if err != nil {
			return err
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return fmt.Errorf("sqlite ping failed: %w", err)
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		a.repo = sqlite.NewApplicationRepository(db)
		a.migrate = func(ctx context.Context) (int, error) { return sqlite.Migrate(ctx, db) }
		a.health.AddCheck("database", sqlPinger{db}.Ping)
		a.logger.Info("using sqlite store", slog.String("path", target))

	case config.SchemePostgres:
		conn, err := postgres.NewConnectionFromURL(ctx, target, postgres.PoolConfig{
			MaxConns:        a.cfg.Database.MaxConns,
			MinConns:        a.cfg.Database.MinConns,
			MaxConnLifetime: a.cfg.Database.ConnMaxLifetime,
			MaxConnIdleTime: a.cfg.Database.ConnMaxIdleTime,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		a.closers = append(a.closers, conn.Close)
		a.repo = postgres.NewApplicationRepository(conn)
		a.migrate = postgres.NewMigrator(conn).Migrate
		a.health.AddCheck("database", handlers.PingCheck(conn))
		a.logger.Info("using postgres store")
	}
	return nil
}

// openRedis connects to Redis. Without it sessions stay in memory and
// statistics are not cached.
func (a *App) openRedis(ctx context.Context) {
	rc := a.cfg.Redis
	if rc.URL == "" {
		a.drafts = conversation.NewMemoryStore()
		return
	}

	cache, err := redis.NewCache(ctx, redis.Config{
		URL:          rc.URL,
		PoolSize:     rc.PoolSize,
		MinIdleConns: rc.MinIdleConns,
		DialTimeout:  rc.DialTimeout,
		ReadTimeout:  rc.ReadTimeout,
		WriteTimeout: rc.WriteTimeout,
		KeyPrefix:    rc.KeyPrefix,
	})
	if err != nil {
		a.logger.Warn("failed to connect to Redis, using in-memory sessions", logger.Err(err))
		a.drafts = conversation.NewMemoryStore()
		return
	}

	a.closers = append(a.closers, func() { _ = cache.Close() })
	a.drafts = redis.NewDraftStore(cache, rc.DraftTTL)
	a.statsCache = redis.NewStatisticsCache(cache, rc.StatsTTL)
	a.health.AddCheck("redis", handlers.PingCheck(cache))
	a.logger.Info("Redis connection established")
}

// sqlPinger adapts *sql.DB to handlers.Pinger.
type sqlPinger struct{ db *sql.DB }

func (p sqlPinger) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

// ─────────────────────────────────────────────────────────────────────────────
// ACCESSORS
// ─────────────────────────────────────────────────────────────────────────────

// Migrate applies pending migrations and returns how many ran.
func (a *App) Migrate(ctx context.Context) (int, error) {
	if a.migrate == nil {
		return 0, errors.New("store is not open")
	}
	return a.migrate(ctx)
}

// Statistics returns the statistics query.
func (a *App) Statistics() *query.GetStatisticsHandler { return a.statistics }

// Submissions returns the newest-first listing query.
func (a *App) Submissions() *query.ListSubmissionsHandler { return a.listing }

// Export returns the spreadsheet export command.
func (a *App) Export() *command.ExportSubmissionsHandler { return a.export }

// Catalog returns the faculty and extension policy.
func (a *App) Catalog() *registration.Catalog { return a.catalog }

// Config returns the loaded configuration.
func (a *App) Config() *config.Config { return a.cfg }

// Close releases stores in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
