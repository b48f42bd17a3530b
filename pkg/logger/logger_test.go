package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" WARNING "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "info", Format: FormatJSON, Output: &buf})

	l.Debug("hidden")
	l.Info("commit finished",
		TelegramID(42),
		Faculty("ФПМИ"),
		Latency(1500*time.Millisecond),
		Err(errors.New("disk full")),
	)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "commit finished", rec["msg"])
	assert.Equal(t, float64(42), rec["telegram_id"])
	assert.Equal(t, "ФПМИ", rec["faculty"])
	assert.Equal(t, "disk full", rec["error"])
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "debug", Output: &buf})

	l.Debug("routing", Component("router"), Err(nil))
	out := buf.String()
	assert.Contains(t, out, "component=router")
	assert.NotContains(t, out, "error=")
}

func TestContext(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))

	l := Discard()
	ctx := WithContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
}
