package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/applications-bot/internal/application/conversation"
	"github.com/alem-hub/applications-bot/internal/domain/registration"
)

func TestSessionRecord_PreservesDraft(t *testing.T) {
	d := registration.NewDraft(registration.NewRegistrant(42, "ivan", "Ivan"), 42, time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC))
	d.FullName = "Ivan Petrov"
	d.Faculty = "ФПМИ"
	d.Participated = true
	d.Document = registration.Document{FileID: "abc", FileName: "essay.PDF", Extension: ".pdf"}

	in := conversation.Session{State: conversation.StateAwaitingConfirmation, Draft: d}

	data, err := json.Marshal(encodeSession(in))
	require.NoError(t, err)

	var rec sessionRecord
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, "awaiting_confirmation", rec.State)

	out, ok := decodeSession(rec)
	require.True(t, ok)
	assert.Equal(t, in.State, out.State)
	assert.Equal(t, in.Draft.Registrant, out.Draft.Registrant)
	assert.Equal(t, in.Draft.Document, out.Draft.Document)
	assert.Equal(t, in.Draft.Participated, out.Draft.Participated)
	assert.True(t, in.Draft.StartedAt.Equal(out.Draft.StartedAt))
}

func TestDecodeSession_RejectsTerminalOrUnknown(t *testing.T) {
	for _, state := range []string{"committed", "cancelled", "idle", "bogus"} {
		_, ok := decodeSession(sessionRecord{State: state})
		assert.False(t, ok, state)
	}
}

func TestCache_Key(t *testing.T) {
	c := NewCacheWithClient(nil, "appbot:")
	assert.Equal(t, "appbot:session:42", c.Key(PrefixSession, "42"))
}

// ─── against an in-process Redis ───

func newMiniCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cache, err := NewCache(context.Background(), Config{URL: "redis://" + mr.Addr() + "/0", KeyPrefix: "appbot:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestDraftStore_RoundTrip(t *testing.T) {
	cache, mr := newMiniCache(t)
	store := NewDraftStore(cache, time.Hour)
	ctx := context.Background()

	_, ok, err := store.Load(ctx, "42")
	require.NoError(t, err)
	assert.False(t, ok)

	d := registration.NewDraft(registration.NewRegistrant(42, "ivan", "Ivan"), 42, time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC))
	d.FullName = "Ivan Petrov"
	d.Faculty = "ФПМИ"
	in := conversation.Session{State: conversation.StateAwaitingParticipation, Draft: d}
	require.NoError(t, store.Save(ctx, "42", in))

	assert.True(t, mr.Exists("appbot:session:42"))
	assert.Equal(t, time.Hour, mr.TTL("appbot:session:42"))

	out, ok, err := store.Load(ctx, "42")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, conversation.StateAwaitingParticipation, out.State)
	assert.Equal(t, "Ivan Petrov", out.Draft.FullName)
	assert.Equal(t, "ФПМИ", out.Draft.Faculty)

	require.NoError(t, store.Delete(ctx, "42"))
	assert.False(t, mr.Exists("appbot:session:42"))
	_, ok, err = store.Load(ctx, "42")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDraftStore_Expires(t *testing.T) {
	cache, mr := newMiniCache(t)
	store := NewDraftStore(cache, 0)
	ctx := context.Background()

	d := registration.NewDraft(registration.NewRegistrant(7, "", "Anna"), 7, time.Now())
	require.NoError(t, store.Save(ctx, "7", conversation.Session{State: conversation.StateAwaitingName, Draft: d}))
	assert.Equal(t, TTLSession, mr.TTL("appbot:session:7"))

	mr.FastForward(TTLSession + time.Second)
	_, ok, err := store.Load(ctx, "7")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStatisticsCache_DayAndInvalidate(t *testing.T) {
	cache, _ := newMiniCache(t)
	sc := NewStatisticsCache(cache, time.Minute)
	ctx := context.Background()

	stats := registration.Statistics{Total: 2, Today: 1, ByFaculty: []registration.FacultyCount{{Faculty: "ФПМИ", Count: 2}}}
	require.NoError(t, sc.Set(ctx, "2024-03-05", stats))

	got, ok, err := sc.Get(ctx, "2024-03-05")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, stats, got)

	// Другой день - кеш не подходит
	_, ok, err = sc.Get(ctx, "2024-03-06")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, sc.Invalidate(ctx))
	_, ok, err = sc.Get(ctx, "2024-03-05")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewCache_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewCache(context.Background(), Config{URL: "redis://" + addr, DialTimeout: 200 * time.Millisecond})
	assert.ErrorIs(t, err, ErrCacheConnection)
}
