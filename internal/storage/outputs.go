// Package storage persists merged locale outputs and the resolution journal.
package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/freewebtopdf/propmerge/internal/domain"
	"github.com/freewebtopdf/propmerge/internal/properties"
)

// DefaultMergedDir is where merged outputs are written when no directory is configured
const DefaultMergedDir = "merged_properties"

// OutputStore reads and writes merged outputs at <baseDir>/<locale>/<fileName>.
// Writes to the same output are serialized with a per-file lock.
type OutputStore struct {
	baseDir string

	mu    sync.Mutex
	locks map[string]*pathLock
}

// pathLock is dropped from the map once no caller holds or waits for it
type pathLock struct {
	sync.Mutex
	refs int
}

// NewOutputStore creates a store rooted at baseDir
func NewOutputStore(baseDir string) *OutputStore {
	if baseDir == "" {
		baseDir = DefaultMergedDir
	}
	return &OutputStore{
		baseDir: baseDir,
		locks:   make(map[string]*pathLock),
	}
}

// BaseDir returns the root directory of merged outputs
func (s *OutputStore) BaseDir() string {
	return s.baseDir
}

// Path returns the file backing an output
func (s *OutputStore) Path(key domain.OutputKey) string {
	return filepath.Join(s.baseDir, key.Locale, key.FileName)
}

// lock takes the exclusive lock of path and returns its release
func (s *OutputStore) lock(path string) (unlock func()) {
	s.mu.Lock()
	l, ok := s.locks[path]
	if !ok {
		l = &pathLock{}
		s.locks[path] = l
	}
	l.refs++
	s.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, path)
		}
		s.mu.Unlock()
	}
}

// validateKey rejects keys that would escape the base directory
func validateKey(key domain.OutputKey) error {
	for _, part := range []string{key.Locale, key.FileName} {
		if part == "" || part == "." || part == ".." || strings.ContainsAny(part, `/\`) {
			return domain.NewAppError(
				domain.ErrInvalidInput,
				"Invalid output locale or file name",
				400,
				map[string]any{"locale": key.Locale, "file_name": key.FileName},
			)
		}
	}
	return nil
}

// Load reads an existing output. A missing file yields a NOT_FOUND error.
func (s *OutputStore) Load(ctx context.Context, key domain.OutputKey) (*domain.LocaleOutput, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	path := s.Path(key)
	defer s.lock(path)()

	doc, err := properties.ReadFile(path)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.NewAppErrorWithCause(
				domain.ErrNotFound,
				"Merged output not found",
				404,
				err,
				map[string]any{"locale": key.Locale, "file_name": key.FileName},
			).WithContext(ctx, "load_output")
		}
		return nil, err
	}

	out := domain.NewLocaleOutput(key)
	for _, e := range doc.Entries() {
		out.Set(e.Key, e.Value)
	}
	return out, nil
}

// Get returns the mapping of an output and its keys in file order
func (s *OutputStore) Get(ctx context.Context, key domain.OutputKey) (map[string]string, []string, error) {
	out, err := s.Load(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	return out.Values(), out.Keys(), nil
}

// Save replaces an output file with the full content of out
func (s *OutputStore) Save(ctx context.Context, out *domain.LocaleOutput) error {
	if err := validateKey(out.OutputKey); err != nil {
		return err
	}

	path := s.Path(out.OutputKey)
	defer s.lock(path)()

	entries := make([]properties.Entry, 0, out.Len())
	for _, k := range out.Keys() {
		v, _ := out.Get(k)
		entries = append(entries, properties.Entry{Key: k, Value: v})
	}

	if err := properties.WriteFile(path, entries, properties.UTF8); err != nil {
		return err
	}
	return nil
}

// Put sets one property of an output as a single read-modify-write, creating the
// output when it does not exist yet. Writing the same value twice is harmless.
// The value is stored as properties.CleanValue returns it.
func (s *OutputStore) Put(ctx context.Context, key domain.OutputKey, property, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	value, err := properties.CleanValue(value)
	if err != nil {
		return err
	}

	path := s.Path(key)
	defer s.lock(path)()

	doc, err := properties.ReadFile(path)
	if err != nil {
		if !domain.IsNotFound(err) {
			return domain.NewAppErrorWithCause(
				domain.ErrWriteFailure,
				"Failed to read merged output before update",
				500,
				err,
				map[string]any{"path": path},
			).WithContext(ctx, "put_output")
		}
		doc = properties.NewDocument()
	}

	entries := doc.Entries()
	replaced := false
	for i := range entries {
		if entries[i].Key == property {
			entries[i].Value = value
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append(entries, properties.Entry{Key: property, Value: value})
	}

	return properties.WriteFile(path, entries, properties.UTF8)
}

// HealthCheck reports whether the output directory can hold merged files
func (s *OutputStore) HealthCheck(ctx context.Context) domain.HealthStatus {
	status := domain.HealthStatus{
		Status:    domain.HealthStatusHealthy,
		Message:   "Output directory is available",
		Details:   map[string]any{"base_dir": s.baseDir},
		Timestamp: time.Now(),
	}

	info, err := os.Stat(s.baseDir)
	switch {
	case os.IsNotExist(err):
		status.Message = "Output directory will be created on first write"
	case err != nil:
		status.Status = domain.HealthStatusUnhealthy
		status.Message = "Output directory is not accessible"
		status.Details["error"] = err.Error()
	case !info.IsDir():
		status.Status = domain.HealthStatusUnhealthy
		status.Message = "Output path is not a directory"
	}
	return status
}
