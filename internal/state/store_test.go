package state_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/filedeck/internal/events"
	"github.com/TheMichaelB/filedeck/internal/models"
	"github.com/TheMichaelB/filedeck/internal/state"
)

func testLogger() *events.Logger {
	var buf bytes.Buffer
	return events.NewTestLogger(events.DebugLevel, "json", &buf)
}

func sampleSession() *models.Session {
	return &models.Session{
		Trail: models.NewTrail(
			models.FolderEntry(2, "Docs"),
			models.FolderEntry(14, "Invoices"),
		),
		Location:  models.FolderLocation(14),
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestJSONStore(t *testing.T) {
	store, err := state.NewJSONStore(t.TempDir(), testLogger())
	require.NoError(t, err)
	defer store.Close()

	testStoreOperations(t, store)
}

func TestSQLiteStore(t *testing.T) {
	store, err := state.NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"), testLogger())
	require.NoError(t, err)
	defer store.Close()

	testStoreOperations(t, store)
}

func TestMemoryStore(t *testing.T) {
	testStoreOperations(t, state.NewMemoryStore())
}

func testStoreOperations(t *testing.T, store state.Store) {
	profile := "work"

	t.Run("load non-existent", func(t *testing.T) {
		_, err := store.Load(profile)
		assert.ErrorIs(t, err, state.ErrStateNotFound)
	})

	t.Run("save and load", func(t *testing.T) {
		session := sampleSession()
		require.NoError(t, store.Save(profile, session))

		loaded, err := store.Load(profile)
		require.NoError(t, err)

		assert.Equal(t, session.Trail, loaded.Trail)
		assert.Equal(t, session.Location, loaded.Location)
		assert.Equal(t, session.UpdatedAt.Unix(), loaded.UpdatedAt.Unix())
		assert.True(t, loaded.Trail.Valid())
	})

	t.Run("update existing", func(t *testing.T) {
		search := &models.Session{
			Trail:       models.NewTrail(models.SearchResultsEntry("report")),
			Location:    models.SearchLocation("report"),
			SearchQuery: "report",
		}
		require.NoError(t, store.Save(profile, search))

		loaded, err := store.Load(profile)
		require.NoError(t, err)

		assert.Len(t, loaded.Trail, 2)
		assert.Equal(t, models.SearchLocation("report"), loaded.Location)
		assert.Equal(t, models.SearchLocation("report"), loaded.Trail[1].Location)
		assert.Equal(t, "report", loaded.SearchQuery)
	})

	t.Run("list profiles", func(t *testing.T) {
		require.NoError(t, store.Save("home", &models.Session{
			Trail:    models.NewTrail(),
			Location: models.RootLocation(),
		}))

		profiles, err := store.List()
		require.NoError(t, err)
		assert.Equal(t, []string{"home", profile}, profiles)
	})

	t.Run("reset profile", func(t *testing.T) {
		require.NoError(t, store.Reset(profile))

		_, err := store.Load(profile)
		assert.ErrorIs(t, err, state.ErrStateNotFound)

		_, err = store.Load("home")
		assert.NoError(t, err)
	})
}

func TestInvalidProfile(t *testing.T) {
	store, err := state.NewJSONStore(t.TempDir(), testLogger())
	require.NoError(t, err)

	for _, profile := range []string{"", "../escape", "a/b", ".hidden"} {
		_, err := store.Load(profile)
		assert.ErrorIs(t, err, state.ErrInvalidProfile, profile)
		assert.ErrorIs(t, store.Save(profile, sampleSession()), state.ErrInvalidProfile, profile)
	}
}

func TestJSONStoreCorruption(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := state.NewJSONStore(tmpDir, testLogger())
	require.NoError(t, err)

	require.NoError(t, store.Save("corrupt", sampleSession()))

	statePath := filepath.Join(tmpDir, "corrupt.json")
	require.NoError(t, os.WriteFile(statePath, []byte("invalid json"), 0600))

	_, err = store.Load("corrupt")
	assert.ErrorIs(t, err, state.ErrStateCorrupt)
}

func TestJSONStoreChecksumMismatch(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := state.NewJSONStore(tmpDir, testLogger())
	require.NoError(t, err)

	require.NoError(t, store.Save("tampered", sampleSession()))

	statePath := filepath.Join(tmpDir, "tampered.json")
	data, err := os.ReadFile(statePath)
	require.NoError(t, err)
	data = bytes.Replace(data, []byte("Invoices"), []byte("Receipts"), 1)
	require.NoError(t, os.WriteFile(statePath, data, 0600))

	_, err = store.Load("tampered")
	assert.ErrorIs(t, err, state.ErrStateCorrupt)
}

func TestJSONStoreBackupRecovery(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := state.NewJSONStore(tmpDir, testLogger())
	require.NoError(t, err)
	defer store.Close()

	initial := sampleSession()
	require.NoError(t, store.Save("backup", initial))

	updated := &models.Session{Trail: models.NewTrail(models.RecycleBinEntry()), Location: models.RecycleBinLocation()}
	require.NoError(t, store.Save("backup", updated))

	loaded, err := store.Load("backup")
	require.NoError(t, err)
	assert.Equal(t, models.RecycleBinLocation(), loaded.Location)

	mainPath := filepath.Join(tmpDir, "backup.json")
	require.NoError(t, os.WriteFile(mainPath, []byte("corrupted"), 0600))

	recovered, err := store.Load("backup")
	require.NoError(t, err)
	assert.Equal(t, initial.Location, recovered.Location)
	assert.Equal(t, initial.Trail, recovered.Trail)
}

func TestMigration(t *testing.T) {
	tmpDir := t.TempDir()
	logger := testLogger()

	jsonStore, err := state.NewJSONStore(filepath.Join(tmpDir, "json"), logger)
	require.NoError(t, err)
	defer jsonStore.Close()

	profiles := []string{"p1", "p2", "p3"}
	for i, p := range profiles {
		id := int64(10 + i)
		require.NoError(t, jsonStore.Save(p, &models.Session{
			Trail:    models.NewTrail(models.FolderEntry(id, fmt.Sprintf("folder-%d", i))),
			Location: models.FolderLocation(id),
		}))
	}

	sqliteStore, err := state.NewSQLiteStore(filepath.Join(tmpDir, "state.db"), logger)
	require.NoError(t, err)
	defer sqliteStore.Close()

	require.NoError(t, jsonStore.Migrate(sqliteStore))

	migrated, err := sqliteStore.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, profiles, migrated)

	for i, p := range profiles {
		session, err := sqliteStore.Load(p)
		require.NoError(t, err)
		assert.Equal(t, models.FolderLocation(int64(10+i)), session.Location)
		assert.Len(t, session.Trail, 2)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	jsonStore, err := state.Open("json", filepath.Join(dir, "j"), testLogger())
	require.NoError(t, err)
	assert.IsType(t, &state.JSONStore{}, jsonStore)

	sqliteStore, err := state.Open("sqlite", filepath.Join(dir, "s"), testLogger())
	require.NoError(t, err)
	assert.IsType(t, &state.SQLiteStore{}, sqliteStore)
	require.NoError(t, sqliteStore.Close())

	memoryStore, err := state.Open("memory", "", testLogger())
	require.NoError(t, err)
	assert.IsType(t, &state.MemoryStore{}, memoryStore)

	_, err = state.Open("redis", dir, testLogger())
	assert.Error(t, err)
}
