package aggregate

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/freewebtopdf/propmerge/internal/domain"
	"github.com/freewebtopdf/propmerge/internal/properties"
	"github.com/freewebtopdf/propmerge/internal/scanner"
)

// LoadError represents an error that occurred while loading a specific file
type LoadError struct {
	FilePath string `json:"file_path"`
	Module   string `json:"module"`
	Code     string `json:"code"`
	Error    string `json:"error"`
}

// Aggregator reads scanned files into a Catalog
type Aggregator struct {
	read func(path string) (*properties.Document, error)
}

// NewAggregator creates an Aggregator reading files from disk
func NewAggregator() *Aggregator {
	return &Aggregator{read: properties.ReadFile}
}

// Aggregate reads every file in scan order. A file that is missing or cannot be
// decoded is recorded as a LoadError and skipped; only cancellation aborts.
func (a *Aggregator) Aggregate(ctx context.Context, files []scanner.SourceFile) (*Catalog, []LoadError, error) {
	catalog := NewCatalog()
	var loadErrors []LoadError

	for _, f := range files {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		default:
		}

		doc, err := a.read(f.Path)
		if err != nil {
			code := domain.ErrInternal
			var appErr *domain.AppError
			if errors.As(err, &appErr) {
				code = appErr.Code
			}
			log.Warn().
				Err(err).
				Str("path", f.Path).
				Str("module", f.Module).
				Str("locale", f.Locale).
				Msg("Skipping unreadable properties file")
			loadErrors = append(loadErrors, LoadError{
				FilePath: f.Path,
				Module:   f.Module,
				Code:     code,
				Error:    err.Error(),
			})
			continue
		}

		if doc.Skipped > 0 {
			log.Debug().Str("path", f.Path).Int("lines", doc.Skipped).Msg("Ignored malformed lines")
		}

		catalog.AddSource(f.Module, f.Locale, f.FileName, f.Path, doc)
	}

	return catalog, loadErrors, nil
}
