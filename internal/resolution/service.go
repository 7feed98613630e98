// Package resolution drives manual resolution of merge conflicts: it filters the
// conflict dataset by locale, presents one conflict at a time and writes the
// chosen value into the merged output.
package resolution

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/freewebtopdf/propmerge/internal/domain"
	"github.com/freewebtopdf/propmerge/internal/properties"
	"github.com/freewebtopdf/propmerge/internal/report"
	"github.com/freewebtopdf/propmerge/internal/storage"
)

// Service holds the conflict dataset shared by every session
type Service struct {
	records  []domain.ConflictRecord
	byLocale map[string][]int
	locales  []string

	store   domain.OutputRepository
	journal *storage.Journal
}

// NewService creates a service over records. journal may be nil.
func NewService(records []domain.ConflictRecord, store domain.OutputRepository, journal *storage.Journal) *Service {
	s := &Service{
		records:  records,
		byLocale: make(map[string][]int),
		store:    store,
		journal:  journal,
	}
	for i, r := range records {
		if _, ok := s.byLocale[r.Locale]; !ok {
			s.locales = append(s.locales, r.Locale)
		}
		s.byLocale[r.Locale] = append(s.byLocale[r.Locale], i)
	}
	sort.Strings(s.locales)
	return s
}

// LoadService reads the conflict detail report at reportPath
func LoadService(reportPath string, store domain.OutputRepository, journal *storage.Journal) (*Service, error) {
	records, err := report.ReadConflicts(reportPath)
	if err != nil {
		return nil, err
	}

	if journal != nil {
		if err := journal.Load(); err != nil {
			return nil, err
		}
	}

	log.Info().
		Str("report", reportPath).
		Int("conflicts", len(records)).
		Msg("Conflict dataset loaded")

	return NewService(records, store, journal), nil
}

// LocaleNames returns every locale of the dataset, sorted
func (s *Service) LocaleNames() []string {
	return append([]string(nil), s.locales...)
}

// Locales describes every locale of the dataset, sorted by locale
func (s *Service) Locales() []domain.LocaleInfo {
	infos := make([]domain.LocaleInfo, 0, len(s.locales))
	for _, l := range s.locales {
		infos = append(infos, domain.LocaleInfo{
			Locale:      l,
			DisplayName: DisplayName(l),
			Conflicts:   len(s.byLocale[l]),
		})
	}
	return infos
}

// Count returns the number of conflicts for locale
func (s *Service) Count(locale string) int {
	return len(s.byLocale[locale])
}

// Conflicts returns the conflicts of locale in dataset order
func (s *Service) Conflicts(locale string) []domain.ConflictRecord {
	idx := s.byLocale[locale]
	out := make([]domain.ConflictRecord, 0, len(idx))
	for _, i := range idx {
		out = append(out, s.records[i])
	}
	return out
}

// Conflict returns the conflict at index in the filtered list of locale
func (s *Service) Conflict(locale string, index int) (domain.ConflictRecord, error) {
	idx := s.byLocale[locale]
	if index < 0 || index >= len(idx) {
		return domain.ConflictRecord{}, domain.NewAppError(
			domain.ErrIndexOutOfRange,
			"Conflict index is out of range",
			422,
			map[string]any{"locale": locale, "index": index, "total": len(idx)},
		)
	}
	return s.records[idx[index]], nil
}

// View builds what an operator sees for the conflict at index
func (s *Service) View(locale string, index int) (*domain.ConflictView, error) {
	record, err := s.Conflict(locale, index)
	if err != nil {
		return nil, err
	}

	view := &domain.ConflictView{
		Index:        index,
		Total:        s.Count(locale),
		FileName:     record.FileName,
		Locale:       record.Locale,
		PropertyName: record.Key,
		Candidates:   make(map[string]string, len(record.Candidates)),
		Order:        make([]string, 0, len(record.Candidates)),
	}
	for _, c := range record.Candidates {
		view.Candidates[c.Module] = c.Value
		view.Order = append(view.Order, c.Module)
	}
	view.MajorityValue, view.MajorityCount = Majority(record.Candidates)

	if s.journal != nil {
		_, view.Resolved = s.journal.Lookup(domain.GroupKey{Locale: record.Locale, FileName: record.FileName, Key: record.Key})
	}
	return view, nil
}

// ResolveAt writes value into the merged output of the conflict at index. The
// output is updated before the decision is journaled; a journal failure is only
// logged since the output already holds the value. Surrounding whitespace is
// trimmed and line breaks are rejected with INVALID_INPUT.
func (s *Service) ResolveAt(ctx context.Context, locale string, index int, value, sessionID string) error {
	record, err := s.Conflict(locale, index)
	if err != nil {
		return err
	}
	if value, err = properties.CleanValue(value); err != nil {
		return err
	}

	if err := s.store.Put(ctx, record.Output(), record.Key, value); err != nil {
		return err
	}

	log.Info().
		Str("locale", record.Locale).
		Str("file", record.FileName).
		Str("key", record.Key).
		Int("index", index).
		Str("session", sessionID).
		Msg("Conflict resolved")

	if s.journal != nil {
		decision := storage.Decision{
			Locale:   record.Locale,
			FileName: record.FileName,
			Key:      record.Key,
			Value:    value,
			Session:  sessionID,
		}
		if err := s.journal.Record(decision); err != nil {
			log.Warn().Err(err).Str("path", s.journal.Path()).Msg("Failed to journal resolution")
		}
	}
	return nil
}

// HealthCheck reports the size of the dataset
func (s *Service) HealthCheck(ctx context.Context) domain.HealthStatus {
	return domain.HealthStatus{
		Status:  domain.HealthStatusHealthy,
		Message: "Conflict dataset loaded",
		Details: map[string]any{
			"conflicts": len(s.records),
			"locales":   len(s.locales),
		},
		Timestamp: time.Now(),
	}
}

// DisplayName returns the English name of a locale such as en_US, or the locale
// itself when it is not a known tag
func DisplayName(locale string) string {
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return locale
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return locale
}
