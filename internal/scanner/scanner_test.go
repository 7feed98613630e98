package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanner_LocaleOf(t *testing.T) {
	s := NewScanner(ScanConfig{})

	tests := []struct {
		name     string
		fileName string
		locale   string
		ok       bool
	}{
		{"simple", "checkout_en_US.properties", "en_US", true},
		{"multi underscore", "account_page_fr_FR.properties", "fr_FR", true},
		{"no locale", "checkout.properties", "", false},
		{"language only", "checkout_en.properties", "", false},
		{"wrong case", "checkout_EN_us.properties", "", false},
		{"wrong extension", "checkout_en_US.txt", "", false},
		{"suffix after locale", "checkout_en_US_old.properties", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			locale, ok := s.LocaleOf(tt.fileName)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.locale, locale)
		})
	}
}

func TestScanner_Scan(t *testing.T) {
	root := t.TempDir()
	res := DefaultResourcesPath

	files := []string{
		filepath.Join("app_core", res, "checkout_en_US.properties"),
		filepath.Join("app_core", res, "checkout_fr_FR.properties"),
		filepath.Join("app_core", res, "checkout.properties"),
		filepath.Join("app_brand", res, "checkout_en_US.properties"),
		filepath.Join("app_brand", "cartridge", "other_en_US.properties"),
		filepath.Join("int_payment", res, "readme.md"),
	}
	for _, f := range files {
		path := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("k=v\n"), 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "stray_en_US.properties"), []byte("k=v\n"), 0644))

	found, err := NewScanner(ScanConfig{RootDir: root}).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, found, 3)

	assert.Equal(t, "app_brand", found[0].Module)
	assert.Equal(t, "checkout_en_US.properties", found[0].FileName)
	assert.Equal(t, "en_US", found[0].Locale)

	assert.Equal(t, "app_core", found[1].Module)
	assert.Equal(t, "en_US", found[1].Locale)
	assert.Equal(t, "app_core", found[2].Module)
	assert.Equal(t, "fr_FR", found[2].Locale)
	assert.Equal(t, filepath.Join(root, "app_core", res, "checkout_fr_FR.properties"), found[2].Path)
}

func TestScanner_CustomLayout(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "mod", "i18n", "labels_de_DE.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("k=v\n"), 0644))

	found, err := NewScanner(ScanConfig{RootDir: root, ResourcesPath: "i18n", Extension: ".txt"}).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "de_DE", found[0].Locale)
}

func TestScanner_MissingRoot(t *testing.T) {
	_, err := NewScanner(ScanConfig{RootDir: filepath.Join(t.TempDir(), "nope")}).Scan(context.Background())
	assert.Error(t, err)
}

func TestScanner_Cancelled(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "mod"), 0755))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewScanner(ScanConfig{RootDir: root}).Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
