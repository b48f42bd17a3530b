package filestore

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Local {
	t.Helper()
	return NewLocal(Config{Root: filepath.Join(t.TempDir(), "applications")})
}

func TestLocal_Bootstrap(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Bootstrap(context.Background(), []string{"ФПМИ", "ФМО"}))

	for _, f := range []string{"ФПМИ", "ФМО"} {
		info, err := os.Stat(filepath.Join(s.Root(), f))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	// Idempotent.
	assert.NoError(t, s.Bootstrap(context.Background(), []string{"ФПМИ"}))
}

func TestLocal_CreateNeverOverwrites(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.EnsureFolder(ctx, "ФПМИ"))

	name := "20240305_090701_Ivan Petrov.docx"
	first, path1, err := s.Create(ctx, "ФПМИ", name, []byte("one"))
	require.NoError(t, err)
	second, path2, err := s.Create(ctx, "ФПМИ", name, []byte("two"))
	require.NoError(t, err)

	assert.Equal(t, name, first)
	assert.Equal(t, "20240305_090701_Ivan Petrov_2.docx", second)
	assert.NotEqual(t, path1, path2)

	b1, _ := os.ReadFile(path1)
	b2, _ := os.ReadFile(path2)
	assert.Equal(t, "one", string(b1))
	assert.Equal(t, "two", string(b2))

	entries, err := os.ReadDir(filepath.Join(s.Root(), "ФПМИ"))
	require.NoError(t, err)
	assert.Len(t, entries, 2, "temporary files must be cleaned up")
}

func TestLocal_ConcurrentSameName(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.EnsureFolder(ctx, "ФМО"))

	const n = 8
	names := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stored, _, err := s.Create(ctx, "ФМО", "same.pdf", []byte{byte(i)})
			assert.NoError(t, err)
			names[i] = stored
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, n := range names {
		assert.False(t, seen[n], "duplicate name %s", n)
		seen[n] = true
	}
}

func TestLocal_Remove(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.EnsureFolder(ctx, "ФМО"))

	stored, path, err := s.Create(ctx, "ФМО", "a.pdf", []byte("x"))
	require.NoError(t, err)
	require.NoError(t, s.Remove(ctx, "ФМО", stored))

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, s.Remove(ctx, "ФМО", stored))
}

func TestLocal_RejectsTraversal(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	assert.ErrorIs(t, s.EnsureFolder(ctx, "../x"), ErrInvalidName)
	_, _, err := s.Create(ctx, "ФМО", "../../etc/passwd", nil)
	assert.ErrorIs(t, err, ErrInvalidName)
}
