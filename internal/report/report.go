// Package report writes the merge summary and conflict detail tables and reads the
// conflict table back for manual resolution.
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/freewebtopdf/propmerge/internal/domain"
	"github.com/freewebtopdf/propmerge/internal/properties"
)

// Column headers of the generated tables
const (
	ColFile      = "File"
	ColLocale    = "Locale"
	ColMerged    = "Merged"
	ColConflicts = "Conflicts"
	ColProperty  = "Properties Name"
)

// ColContributors lists the contributing modules of a row in contributor order,
// joined by contributorSep. Module names are directory names and cannot contain it.
const (
	ColContributors = "Contributors"
	contributorSep  = "/"
)

var summaryHeader = []string{ColFile, ColLocale, ColMerged, ColConflicts}

// WriteSummary writes one row of merge counters per merged output
func WriteSummary(path string, stats []domain.FileStats) error {
	return writeTable(path, func(w *csv.Writer) error {
		if err := w.Write(summaryHeader); err != nil {
			return err
		}
		for _, s := range stats {
			row := []string{s.FileName, s.Locale, strconv.Itoa(s.Merged), strconv.Itoa(s.Conflicts)}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// ConflictModules returns every module contributing to any conflict, first-seen order
func ConflictModules(records []domain.ConflictRecord) []string {
	seen := make(map[string]struct{})
	var modules []string
	for _, r := range records {
		for _, c := range r.Candidates {
			if _, ok := seen[c.Module]; ok {
				continue
			}
			seen[c.Module] = struct{}{}
			modules = append(modules, c.Module)
		}
	}
	return modules
}

// WriteConflicts writes one row per conflict with a column per contributing module.
// Modules that do not define the key leave their cell empty; the contributors
// column tells such cells apart from an empty value.
func WriteConflicts(path string, records []domain.ConflictRecord) error {
	modules := ConflictModules(records)

	return writeTable(path, func(w *csv.Writer) error {
		header := append([]string{ColFile, ColLocale, ColProperty, ColContributors}, modules...)
		if err := w.Write(header); err != nil {
			return err
		}

		for _, r := range records {
			byModule := make(map[string]string, len(r.Candidates))
			contributors := make([]string, 0, len(r.Candidates))
			for _, c := range r.Candidates {
				byModule[c.Module] = c.Value
				contributors = append(contributors, c.Module)
			}

			row := make([]string, 0, len(header))
			row = append(row, r.FileName, r.Locale, r.Key, strings.Join(contributors, contributorSep))
			for _, m := range modules {
				row = append(row, byModule[m])
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReadConflicts loads a conflict table written by WriteConflicts. Candidates follow
// the contributors column; tables without it take every non-empty module cell in
// column order.
func ReadConflicts(path string) ([]domain.ConflictRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		code := domain.ErrReportInvalid
		status := 500
		if os.IsNotExist(err) {
			code = domain.ErrNotFound
			status = 404
		}
		return nil, domain.NewAppErrorWithCause(code, "Cannot open conflict report", status, err, map[string]any{"path": path})
	}
	defer func() { _ = f.Close() }()

	records, err := DecodeConflicts(f)
	if err != nil {
		return nil, domain.NewAppErrorWithCause(domain.ErrReportInvalid, "Malformed conflict report", 500, err, map[string]any{"path": path})
	}
	return records, nil
}

// DecodeConflicts parses a conflict table from r
func DecodeConflicts(r io.Reader) ([]domain.ConflictRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		col[h] = i
	}
	for _, required := range []string{ColFile, ColLocale, ColProperty} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	var records []domain.ConflictRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		cell := func(i int) string {
			if i < len(row) {
				return row[i]
			}
			return ""
		}

		rec := domain.ConflictRecord{
			FileName: cell(col[ColFile]),
			Locale:   cell(col[ColLocale]),
			Key:      cell(col[ColProperty]),
		}
		if rec.Locale == "" || rec.Key == "" {
			return nil, fmt.Errorf("line %d: locale and property name are required", line)
		}

		if ci, ok := col[ColContributors]; ok {
			candidates, err := contributorCandidates(cell(ci), col, cell)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			rec.Candidates = candidates
		} else {
			for i, h := range header {
				if h == ColFile || h == ColLocale || h == ColProperty {
					continue
				}
				if v := cell(i); v != "" {
					rec.Candidates = append(rec.Candidates, domain.Candidate{Module: h, Value: v})
				}
			}
		}
		records = append(records, rec)
	}

	return records, nil
}

func contributorCandidates(list string, col map[string]int, cell func(int) string) ([]domain.Candidate, error) {
	if list == "" {
		return nil, nil
	}
	modules := strings.Split(list, contributorSep)
	candidates := make([]domain.Candidate, 0, len(modules))
	for _, m := range modules {
		i, ok := col[m]
		if !ok || m == ColFile || m == ColLocale || m == ColProperty || m == ColContributors {
			return nil, fmt.Errorf("contributor %q has no module column", m)
		}
		candidates = append(candidates, domain.Candidate{Module: m, Value: cell(i)})
	}
	return candidates, nil
}

func writeTable(path string, fill func(w *csv.Writer) error) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := fill(w); err != nil {
		return writeFailure(path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return writeFailure(path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return writeFailure(path, err)
	}
	if err := properties.AtomicWrite(path, buf.Bytes()); err != nil {
		return writeFailure(path, err)
	}
	return nil
}

func writeFailure(path string, cause error) error {
	return domain.NewAppErrorWithCause(
		domain.ErrWriteFailure,
		"Failed to write report",
		500,
		cause,
		map[string]any{"path": path},
	)
}
