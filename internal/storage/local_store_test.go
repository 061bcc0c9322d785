package storage_test

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/filedeck/internal/events"
	"github.com/TheMichaelB/filedeck/internal/storage"
)

func newStore(t *testing.T) *storage.LocalStore {
	t.Helper()
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "json", &buf)

	store, err := storage.NewLocalStore(t.TempDir(), logger)
	require.NoError(t, err)
	return store
}

func TestSaveAndRead(t *testing.T) {
	store := newStore(t)

	path, err := store.Save("report.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", path)

	data, err := store.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	info, err := store.Stat(path)
	require.NoError(t, err)
	sum := sha256.Sum256([]byte("%PDF-1.4"))
	assert.Equal(t, hex.EncodeToString(sum[:]), info.SHA256)
	assert.Equal(t, int64(8), info.Size)
}

func TestSaveNested(t *testing.T) {
	store := newStore(t)

	path, err := store.Save("Docs/Invoices/march.txt", strings.NewReader("paid"))
	require.NoError(t, err)
	assert.Equal(t, "Docs/Invoices/march.txt", path)
	assert.FileExists(t, filepath.Join(store.BaseDir(), "Docs", "Invoices", "march.txt"))

	require.NoError(t, store.Delete(path))
	assert.NoDirExists(t, filepath.Join(store.BaseDir(), "Docs"))
}

func TestConflictStrategies(t *testing.T) {
	t.Run("rename", func(t *testing.T) {
		store := newStore(t)

		first, err := store.Save("notes.txt", strings.NewReader("one"))
		require.NoError(t, err)
		second, err := store.Save("notes.txt", strings.NewReader("two"))
		require.NoError(t, err)
		third, err := store.Save("notes.txt", strings.NewReader("three"))
		require.NoError(t, err)

		assert.Equal(t, "notes.txt", first)
		assert.Equal(t, "notes (1).txt", second)
		assert.Equal(t, "notes (2).txt", third)

		data, err := store.Read("notes.txt")
		require.NoError(t, err)
		assert.Equal(t, "one", string(data))
	})

	t.Run("overwrite", func(t *testing.T) {
		store := newStore(t)
		store.SetConflictStrategy(storage.ConflictOverwrite)

		_, err := store.Save("notes.txt", strings.NewReader("one"))
		require.NoError(t, err)
		path, err := store.Save("notes.txt", strings.NewReader("two"))
		require.NoError(t, err)

		assert.Equal(t, "notes.txt", path)
		data, _ := store.Read(path)
		assert.Equal(t, "two", string(data))
	})

	t.Run("error", func(t *testing.T) {
		store := newStore(t)
		store.SetConflictStrategy(storage.ConflictError)

		_, err := store.Save("notes.txt", strings.NewReader("one"))
		require.NoError(t, err)
		_, err = store.Save("notes.txt", strings.NewReader("two"))
		assert.ErrorIs(t, err, storage.ErrExists)

		files, err := store.List()
		require.NoError(t, err)
		assert.Len(t, files, 1)
	})

	t.Run("skip", func(t *testing.T) {
		store := newStore(t)
		store.SetConflictStrategy(storage.ConflictSkip)

		_, err := store.Save("notes.txt", strings.NewReader("one"))
		require.NoError(t, err)
		path, err := store.Save("notes.txt", strings.NewReader("two"))
		require.NoError(t, err)

		assert.Equal(t, "notes.txt", path)
		data, _ := store.Read(path)
		assert.Equal(t, "one", string(data))
	})
}

func TestParseConflictStrategy(t *testing.T) {
	for in, want := range map[string]storage.ConflictStrategy{
		"":          storage.ConflictRename,
		"rename":    storage.ConflictRename,
		"overwrite": storage.ConflictOverwrite,
		"error":     storage.ConflictError,
		"skip":      storage.ConflictSkip,
	} {
		got, err := storage.ParseConflictStrategy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := storage.ParseConflictStrategy("merge")
	assert.Error(t, err)
}

func TestSizeLimit(t *testing.T) {
	store := newStore(t)
	store.SetMaxFileSize(1024)

	_, err := store.Save("small.bin", strings.NewReader(strings.Repeat("a", 1024)))
	assert.NoError(t, err)

	_, err = store.Save("large.bin", strings.NewReader(strings.Repeat("b", 2048)))
	assert.ErrorIs(t, err, storage.ErrTooLarge)

	exists, _ := store.Exists("large.bin")
	assert.False(t, exists)

	files, err := store.List()
	require.NoError(t, err)
	for _, f := range files {
		assert.False(t, strings.HasSuffix(f.Path, ".tmp"), "temp file left behind: %s", f.Path)
	}
	entries, err := os.ReadDir(store.BaseDir())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestPathSanitization(t *testing.T) {
	store := newStore(t)

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"normal path", "docs/test.md", false},
		{"path with dots", "docs/./test.md", false},
		{"parent traversal", "../etc/passwd", true},
		{"embedded traversal", "docs/../../etc/passwd", true},
		{"absolute path", "/etc/passwd", false},
		{"null bytes", "test\x00.md", true},
		{"empty", "", true},
		{"too long", strings.Repeat("a", 300) + ".txt", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Save(tt.path, strings.NewReader("x"))
			if tt.wantErr {
				assert.ErrorIs(t, err, storage.ErrInvalidPath)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	// absolute paths land inside the base
	assert.FileExists(t, filepath.Join(store.BaseDir(), "etc", "passwd"))
}

func TestSymlinkRefused(t *testing.T) {
	store := newStore(t)

	outside := filepath.Join(t.TempDir(), "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0600))
	require.NoError(t, os.Symlink(outside, filepath.Join(store.BaseDir(), "link.txt")))

	_, err := store.Read("link.txt")
	assert.ErrorIs(t, err, storage.ErrInvalidPath)
}

func TestReadMissing(t *testing.T) {
	store := newStore(t)

	_, err := store.Read("missing.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.Stat("missing.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.NoError(t, store.Delete("missing.txt"))
}

func TestConcurrentSavesSameName(t *testing.T) {
	store := newStore(t)

	var wg sync.WaitGroup
	paths := make(chan string, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			p, err := store.Save("photo.png", strings.NewReader(fmt.Sprintf("content-%d", n)))
			assert.NoError(t, err)
			paths <- p
		}(i)
	}
	wg.Wait()
	close(paths)

	seen := make(map[string]bool)
	for p := range paths {
		assert.False(t, seen[p], "duplicate path %s", p)
		seen[p] = true
	}
	assert.Len(t, seen, 10)

	files, err := store.List()
	require.NoError(t, err)
	assert.Len(t, files, 10)
}
