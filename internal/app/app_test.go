package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/applications-bot/config"
	"github.com/alem-hub/applications-bot/internal/application/command"
	"github.com/alem-hub/applications-bot/pkg/logger"
)

func loadConfig(t *testing.T, env map[string]string) *config.Config {
	t.Helper()
	t.Setenv("DATABASE_URL", "sqlite://:memory:")
	t.Setenv("STORAGE_ROOT", filepath.Join(t.TempDir(), "applications"))
	for k, v := range env {
		t.Setenv(k, v)
	}
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func newApp(t *testing.T, env map[string]string) *App {
	t.Helper()
	a, err := New(context.Background(), loadConfig(t, env), logger.Discard())
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestNew_SQLite(t *testing.T) {
	a := newApp(t, nil)
	ctx := context.Background()

	// Folder tree is created eagerly.
	for _, f := range a.Catalog().Faculties() {
		info, err := os.Stat(filepath.Join(a.Config().Storage.Root, f))
		require.NoError(t, err, f)
		assert.True(t, info.IsDir())
	}

	res, err := a.Statistics().Handle(ctx)
	require.NoError(t, err)
	assert.True(t, res.IsEmpty())
	assert.False(t, res.FromCache)

	rows, err := a.Submissions().Handle(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)

	n, err := a.Migrate(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "migrations already applied on startup")

	_, err = a.Export().Handle(ctx, command.ExportSubmissionsCommand{Path: filepath.Join(t.TempDir(), "out.xlsx")})
	assert.ErrorIs(t, err, command.ErrNothingToExport)
}

func TestNew_RedisUnavailableFallsBack(t *testing.T) {
	a := newApp(t, map[string]string{
		"REDIS_URL":          "redis://127.0.0.1:1/0",
		"REDIS_DIAL_TIMEOUT": "100ms",
	})
	assert.Nil(t, a.statsCache)
	assert.NotNil(t, a.drafts)
}

func TestNewRuntime_RequiresToken(t *testing.T) {
	a := newApp(t, nil)
	_, err := a.NewRuntime()
	assert.ErrorIs(t, err, config.ErrMissingToken)
}

func TestNewRuntime_Webhook(t *testing.T) {
	a := newApp(t, map[string]string{
		"TELEGRAM_BOT_TOKEN":      "123456:TEST",
		"TELEGRAM_MODE":           "webhook",
		"TELEGRAM_WEBHOOK_URL":    "https://bot.example.org/telegram/webhook",
		"TELEGRAM_WEBHOOK_SECRET": "s3cret",
		"HTTP_ENABLED":            "true",
	})

	rt, err := a.NewRuntime()
	require.NoError(t, err)
	require.NotNil(t, rt.HTTP)
	assert.Equal(t, []string{"cancel", "help", "start", "stats"}, rt.Bot.Router().GetRegisteredCommands())
	assert.Equal(t, []string{"confirm:", "fac:", "part:"}, rt.Bot.Router().GetRegisteredCallbackPrefixes())

	h := rt.HTTP.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "database")

	// Wrong secret is rejected before any update reaches the bot.
	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(`{"update_id":1}`))
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", "wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestNewRuntime_PollingWithoutHTTP(t *testing.T) {
	a := newApp(t, map[string]string{"TELEGRAM_BOT_TOKEN": "123456:TEST"})

	rt, err := a.NewRuntime()
	require.NoError(t, err)
	assert.Nil(t, rt.HTTP)
	assert.NotNil(t, rt.Saga)
	assert.NotNil(t, rt.Engine)
}
