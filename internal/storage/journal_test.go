package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freewebtopdf/propmerge/internal/domain"
)

func TestJournal_RecordAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merged", ".resolutions.yaml")
	j := NewJournal(path)
	require.NoError(t, j.Load())

	require.NoError(t, j.Record(Decision{Locale: "en_US", FileName: "app_en_US.properties", Key: "greeting", Value: "Hello"}))
	require.NoError(t, j.Record(Decision{Locale: "en_US", FileName: "app_en_US.properties", Key: "farewell", Value: "Bye"}))
	require.NoError(t, j.Record(Decision{Locale: "en_US", FileName: "app_en_US.properties", Key: "greeting", Value: "Hi"}))

	reloaded := NewJournal(path)
	require.NoError(t, reloaded.Load())

	decisions := reloaded.Decisions()
	require.Len(t, decisions, 2)
	assert.Equal(t, "greeting", decisions[0].Key)
	assert.Equal(t, "Hi", decisions[0].Value)
	assert.False(t, decisions[0].ResolvedAt.IsZero())

	d, ok := reloaded.Lookup(domain.GroupKey{Locale: "en_US", FileName: "app_en_US.properties", Key: "farewell"})
	require.True(t, ok)
	assert.Equal(t, "Bye", d.Value)

	values := reloaded.Values()
	assert.Equal(t, "Hi", values[domain.GroupKey{Locale: "en_US", FileName: "app_en_US.properties", Key: "greeting"}])
}

func TestJournal_RecordLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	j := NewJournal(filepath.Join(dir, ".resolutions.yaml"))

	for _, v := range []string{"Hello", "Hi", "Hey"} {
		require.NoError(t, j.Record(Decision{Locale: "en_US", FileName: "app_en_US.properties", Key: "greeting", Value: v}))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".resolutions.yaml", entries[0].Name())

	info, err := entries[0].Info()
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestJournal_MissingFileIsEmpty(t *testing.T) {
	j := NewJournal(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, j.Load())
	assert.Empty(t, j.Decisions())
}

func TestJournal_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("decisions: [unterminated"), 0644))

	assert.Error(t, NewJournal(path).Load())
}
