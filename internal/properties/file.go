package properties

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/freewebtopdf/propmerge/internal/domain"
)

var errInvalidUTF8 = errors.New("text is not valid UTF-8")

// ReadFile loads and parses the properties file at path.
// A missing file yields a SOURCE_NOT_FOUND error.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.NewAppErrorWithCause(
				domain.ErrSourceNotFound,
				"Properties file not found",
				404,
				err,
				map[string]any{"path": path},
			)
		}
		return nil, domain.NewAppErrorWithCause(
			domain.ErrInternal,
			"Failed to read properties file",
			500,
			err,
			map[string]any{"path": path},
		)
	}

	doc, err := Parse(data)
	if err != nil {
		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			appErr.Details = map[string]any{"path": path}
		}
		return nil, err
	}
	return doc, nil
}

// CleanValue returns value as a written file would give it back: surrounding
// whitespace is dropped. A line break would start a new entry and is rejected.
func CleanValue(value string) (string, error) {
	if strings.ContainsAny(value, "\r\n") {
		return "", domain.NewAppError(
			domain.ErrInvalidInput,
			"Property values cannot contain line breaks",
			400,
			map[string]any{"value": value},
		)
	}
	return strings.TrimSpace(value), nil
}

// Format serializes entries as key=value lines
func Format(entries []Entry) string {
	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString(e.Key)
		sb.WriteByte('=')
		sb.WriteString(e.Value)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// WriteFile replaces path with entries serialized as key=value lines.
// The parent directory is created when missing.
func WriteFile(path string, entries []Entry, enc Encoding) error {
	return writeText(path, Format(entries), enc)
}

// Flush rewrites path with the document content when keys were removed from it.
// The document's original encoding is kept when possible.
func (d *Document) Flush(path string) error {
	if !d.dirty {
		return nil
	}
	text := d.Render()
	if d.bom && text != "" {
		text = string(utf8BOM) + text
	}
	if err := writeText(path, text, d.Encoding); err != nil {
		return err
	}
	d.dirty = false
	return nil
}

func writeText(path, text string, enc Encoding) error {
	data, _, err := encode(text, enc)
	if err != nil {
		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			appErr.Details = map[string]any{"path": path}
		}
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return writeFailure(path, fmt.Errorf("failed to create directory %s: %w", dir, err))
	}

	if err := AtomicWrite(path, data); err != nil {
		return writeFailure(path, err)
	}
	return nil
}

func writeFailure(path string, cause error) error {
	return domain.NewAppErrorWithCause(
		domain.ErrWriteFailure,
		"Failed to write properties file",
		500,
		cause,
		map[string]any{"path": path},
	)
}

// AtomicWrite replaces targetPath with data using a temp file in the same
// directory, synced before the rename. The directory must exist.
func AtomicWrite(targetPath string, data []byte) error {
	dir := filepath.Dir(targetPath)
	tempFile, err := os.CreateTemp(dir, "."+filepath.Base(targetPath)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// CreateTemp uses 0600
	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		return fmt.Errorf("failed to rename temp file to target: %w", err)
	}

	success = true
	return nil
}
