package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alem-hub/applications-bot/internal/infrastructure/external/telegram"
	"github.com/alem-hub/applications-bot/internal/interface/http/handlers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestServer_Healthz(t *testing.T) {
	health := handlers.NewHealthChecker("test")
	health.AddCheck("database", handlers.PingCheck(pinger{}))

	srv := NewServer(DefaultConfig(), Dependencies{Health: health})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var status handlers.HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Healthy)
	assert.True(t, status.Checks["database"].Healthy)
	assert.Equal(t, "test", status.Version)
}

func TestServer_HealthzFailing(t *testing.T) {
	health := handlers.NewHealthChecker("test")
	health.AddCheck("database", handlers.PingCheck(pinger{}))
	health.AddCheck("redis", handlers.PingCheck(pinger{err: errors.New("connection refused")}))

	srv := NewServer(DefaultConfig(), Dependencies{Health: health})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var status handlers.HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.Healthy)
	assert.Equal(t, "Some checks failed: redis", status.Message)
}

func TestServer_Webhook(t *testing.T) {
	var got []*telegram.Update
	cfg := DefaultConfig()
	cfg.WebhookSecret = "s3cret"
	srv := NewServer(cfg, Dependencies{
		Updates: func(_ context.Context, u *telegram.Update) error {
			got = append(got, u)
			return nil
		},
	})

	payload := []byte(`{"update_id":10,"message":{"message_id":1,"chat":{"id":5,"type":"private"},"text":"/start"}}`)

	t.Run("missing secret", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, cfg.WebhookPath, bytes.NewReader(payload)))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Empty(t, got)
	})

	t.Run("valid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, cfg.WebhookPath, bytes.NewReader(payload))
		req.Header.Set(handlers.SecretTokenHeader, "s3cret")
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, got, 1)
		assert.Equal(t, int64(10), got[0].UpdateID)
		assert.Equal(t, "/start", got[0].Message.Text)
	})

	t.Run("malformed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, cfg.WebhookPath, bytes.NewReader([]byte("{")))
		req.Header.Set(handlers.SecretTokenHeader, "s3cret")
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_WebhookNotMountedInPollingMode(t *testing.T) {
	srv := NewServer(DefaultConfig(), Dependencies{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/telegram/webhook", bytes.NewReader([]byte("{}"))))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
