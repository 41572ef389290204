package datastore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type settings struct {
	Prefix string   `json:"prefix"`
	Tags   []string `json:"tags"`
}

func open(t *testing.T, path string) *DataStore {
	t.Helper()
	cfg := DefaultConfig(path)
	cfg.AutoSaveInterval = 0
	ds, err := NewWithConfig(cfg)
	require.NoError(t, err)
	return ds
}

func TestPersistAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "store.json")
	ds := open(t, path)

	require.NoError(t, ds.Put("g1", settings{Prefix: "?"}))
	require.NoError(t, Update(ds, "g1", func(s *settings) error {
		s.Tags = append(s.Tags, "x")
		return nil
	}))
	require.NoError(t, ds.Close())
	require.NoError(t, ds.Close(), "close is idempotent")

	ds = open(t, path)
	defer ds.Close()

	var got settings
	ok, err := ds.Get("g1", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, settings{Prefix: "?", Tags: []string{"x"}}, got)

	ok, err = ds.Get("missing", &got)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateErrorLeavesValue(t *testing.T) {
	ds := open(t, filepath.Join(t.TempDir(), "s.json"))
	defer ds.Close()

	require.NoError(t, ds.Put("k", settings{Prefix: "!"}))
	boom := errors.New("boom")
	err := Update(ds, "k", func(s *settings) error {
		s.Prefix = "changed"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var got settings
	_, _ = ds.Get("k", &got)
	assert.Equal(t, "!", got.Prefix)
}

func TestClosedStoreRejects(t *testing.T) {
	ds := open(t, filepath.Join(t.TempDir(), "s.json"))
	require.NoError(t, ds.Close())

	assert.ErrorIs(t, ds.Put("k", 1), ErrClosed)
	_, err := ds.Get("k", new(int))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, ds.Delete("k"), ErrClosed)
	assert.ErrorIs(t, ds.SaveToFile(), ErrClosed)
}

func TestMemoryLimit(t *testing.T) {
	cfg := DefaultConfig(filepath.Join(t.TempDir(), "s.json"))
	cfg.AutoSaveInterval = 0
	cfg.MaxMemorySize = 16
	ds, err := NewWithConfig(cfg)
	require.NoError(t, err)
	defer ds.Close()

	assert.NoError(t, ds.Put("a", "short"))
	assert.ErrorIs(t, ds.Put("b", "this value is far too long"), ErrMemoryLimit)
	require.NoError(t, ds.Delete("a"))
	assert.Zero(t, ds.Stats().MemorySize)
}

func TestBackupsRotate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.json")
	cfg := DefaultConfig(path)
	cfg.AutoSaveInterval = 0
	cfg.BackupCount = 2
	ds, err := NewWithConfig(cfg)
	require.NoError(t, err)
	defer ds.Close()

	for i := range 5 {
		require.NoError(t, ds.Put("k", i))
		require.NoError(t, ds.SaveToFile())
	}
	backups, err := filepath.Glob(path + ".backup.*")
	require.NoError(t, err)
	assert.Len(t, backups, 2)
	assert.True(t, ds.Stats().Saved)
}

func TestInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))
	_, err := New(path)
	assert.ErrorContains(t, err, "invalid JSON format")

	_, err = NewWithConfig(nil)
	assert.Error(t, err)
	_, err = New("")
	assert.Error(t, err)
}
