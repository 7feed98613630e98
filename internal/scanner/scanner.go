// Package scanner discovers per-module localized properties files.
// Every top-level directory of the root is a module; its resources live at a fixed
// relative path and carry the locale in their name, e.g. checkout_en_US.properties.
package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/rs/zerolog/log"
)

// DefaultResourcesPath is where a module keeps its resource bundles
var DefaultResourcesPath = filepath.Join("cartridge", "templates", "resources")

// DefaultExtension is the extension of properties files
const DefaultExtension = ".properties"

// ScanConfig holds configuration for directory scanning
type ScanConfig struct {
	RootDir       string // Directory whose children are modules
	ResourcesPath string // Path of the resources folder relative to a module
	Extension     string // Properties file extension, including the dot
}

// SourceFile is a discovered properties file
type SourceFile struct {
	Path     string // Full path to the file
	Module   string // Name of the module directory
	FileName string // Base name, shared across modules for the same bundle
	Locale   string // Locale tag taken from the file name, e.g. en_US
}

// Scanner walks a module tree for localized properties files
type Scanner struct {
	config  ScanConfig
	pattern *regexp.Regexp
}

// NewScanner creates a new Scanner with the given configuration
func NewScanner(config ScanConfig) *Scanner {
	if config.ResourcesPath == "" {
		config.ResourcesPath = DefaultResourcesPath
	}
	if config.Extension == "" {
		config.Extension = DefaultExtension
	}
	return &Scanner{
		config:  config,
		pattern: localePattern(config.Extension),
	}
}

// localePattern matches _<ll>_<LL> right before the extension
func localePattern(ext string) *regexp.Regexp {
	return regexp.MustCompile(`_([a-z]{2}_[A-Z]{2})` + regexp.QuoteMeta(ext) + `$`)
}

// Scan lists every localized properties file below the root, modules and files
// in lexical order. Unreadable modules are logged and skipped.
func (s *Scanner) Scan(ctx context.Context) ([]SourceFile, error) {
	entries, err := os.ReadDir(s.config.RootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read root directory %s: %w", s.config.RootDir, err)
	}

	var files []SourceFile
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if !entry.IsDir() {
			continue
		}

		module := entry.Name()
		moduleFiles, err := s.scanModule(module)
		if err != nil {
			log.Warn().Err(err).Str("module", module).Msg("Skipping unreadable module")
			continue
		}
		files = append(files, moduleFiles...)
	}

	return files, nil
}

func (s *Scanner) scanModule(module string) ([]SourceFile, error) {
	resourcesDir := filepath.Join(s.config.RootDir, module, s.config.ResourcesPath)

	entries, err := os.ReadDir(resourcesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []SourceFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		locale, ok := s.LocaleOf(entry.Name())
		if !ok {
			continue
		}
		files = append(files, SourceFile{
			Path:     filepath.Join(resourcesDir, entry.Name()),
			Module:   module,
			FileName: entry.Name(),
			Locale:   locale,
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].FileName < files[j].FileName })
	return files, nil
}

// LocaleOf extracts the locale tag from a file name
func (s *Scanner) LocaleOf(fileName string) (string, bool) {
	m := s.pattern.FindStringSubmatch(fileName)
	if m == nil {
		return "", false
	}
	return m[1], true
}
