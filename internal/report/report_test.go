package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freewebtopdf/propmerge/internal/domain"
)

func sampleConflicts() []domain.ConflictRecord {
	return []domain.ConflictRecord{
		{
			Locale: "en_US", FileName: "app_en_US.properties", Key: "greeting",
			Candidates: []domain.Candidate{{Module: "mod_a", Value: "Hello"}, {Module: "mod_b", Value: "Hi"}},
		},
		{
			Locale: "fr_FR", FileName: "app_fr_FR.properties", Key: "cart",
			Candidates: []domain.Candidate{{Module: "mod_c", Value: "Panier, total"}, {Module: "mod_a", Value: "Chariot"}},
		},
	}
}

func TestWriteSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary_report.csv")

	err := WriteSummary(path, []domain.FileStats{
		{FileName: "app_en_US.properties", Locale: "en_US", Merged: 3, Conflicts: 1},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "File,Locale,Merged,Conflicts\napp_en_US.properties,en_US,3,1\n", string(data))
}

func TestWriteConflicts_ModuleColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conflict_details_report.csv")
	require.NoError(t, WriteConflicts(path, sampleConflicts()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "File,Locale,Properties Name,Contributors,mod_a,mod_b,mod_c", lines[0])
	assert.Equal(t, "app_en_US.properties,en_US,greeting,mod_a/mod_b,Hello,Hi,", lines[1])
	assert.Equal(t, `app_fr_FR.properties,fr_FR,cart,mod_c/mod_a,Chariot,,"Panier, total"`, lines[2])
}

func TestWriteConflicts_ReplacesExistingTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conflict_details_report.csv")
	require.NoError(t, WriteConflicts(path, sampleConflicts()))
	require.NoError(t, WriteConflicts(path, sampleConflicts()[:1]))

	records, err := ReadConflicts(path)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestReadConflicts_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conflicts.csv")
	require.NoError(t, WriteConflicts(path, sampleConflicts()))

	records, err := ReadConflicts(path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Candidates come back in contributor order
	assert.Equal(t, sampleConflicts(), records)
}

func TestReadConflicts_EmptyValueIsACandidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conflicts.csv")
	records := []domain.ConflictRecord{
		{
			Locale: "en_US", FileName: "app_en_US.properties", Key: "greeting",
			Candidates: []domain.Candidate{{Module: "mod_a", Value: "Hello"}, {Module: "mod_b", Value: ""}},
		},
		{
			Locale: "en_US", FileName: "app_en_US.properties", Key: "title",
			Candidates: []domain.Candidate{{Module: "mod_c", Value: "Home"}, {Module: "mod_a", Value: "Start"}},
		},
	}
	require.NoError(t, WriteConflicts(path, records))

	got, err := ReadConflicts(path)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestDecodeConflicts_WithoutContributorsColumn(t *testing.T) {
	records, err := DecodeConflicts(strings.NewReader(
		"File,Locale,Properties Name,mod_a,mod_b\napp_en_US.properties,en_US,title,,Start\n"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []domain.Candidate{{Module: "mod_b", Value: "Start"}}, records[0].Candidates)
}

func TestReadConflicts_Errors(t *testing.T) {
	_, err := ReadConflicts(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))

	_, err = DecodeConflicts(strings.NewReader("Locale,Key\nen_US,a\n"))
	assert.Error(t, err)

	_, err = DecodeConflicts(strings.NewReader("File,Locale,Properties Name\nf,,key\n"))
	assert.Error(t, err)

	_, err = DecodeConflicts(strings.NewReader("File,Locale,Properties Name,Contributors,mod_a\nf,en_US,key,mod_z,x\n"))
	assert.Error(t, err)

	records, err := DecodeConflicts(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestConflictModules(t *testing.T) {
	assert.Equal(t, []string{"mod_a", "mod_b", "mod_c"}, ConflictModules(sampleConflicts()))
	assert.Empty(t, ConflictModules(nil))
}
