package resolution

import (
	"context"
	"sync"

	"github.com/freewebtopdf/propmerge/internal/domain"
)

// Session is one operator's cursor over the conflicts of a locale.
// The cursor is not persisted; resolved values are.
type Session struct {
	id      string
	service *Service

	mu       sync.Mutex
	locale   string
	selected bool
	index    int
}

// NewSession creates a session without a selected locale
func NewSession(id string, service *Service) *Session {
	return &Session{id: id, service: service}
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// SelectLocale switches to locale and rewinds the cursor. A locale absent from
// the dataset is accepted and simply has no conflicts.
func (s *Session) SelectLocale(locale string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.locale = locale
	s.selected = true
	s.index = 0
}

// Locale returns the selected locale, or "" when none was selected
func (s *Session) Locale() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locale
}

// Cursor returns the index of the conflict that will be presented next
func (s *Session) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Current returns the conflict under the cursor, or nil when there is nothing
// to present. A cursor past the end of the list wraps to the first conflict.
func (s *Session) Current() (*domain.ConflictView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked()
}

func (s *Session) currentLocked() (*domain.ConflictView, error) {
	if !s.selected {
		return nil, nil
	}

	total := s.service.Count(s.locale)
	if total == 0 {
		return nil, nil
	}
	if s.index >= total {
		s.index = 0
	}
	return s.service.View(s.locale, s.index)
}

// Resolve writes value for the conflict at index of the selected locale and
// moves the cursor past it, wrapping to 0 after the last conflict. It returns
// the conflict presented next.
func (s *Session) Resolve(ctx context.Context, index int, value string) (*domain.ConflictView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.selected {
		return nil, domain.NewAppError(
			domain.ErrNoLocaleSelected,
			"Select a locale before resolving conflicts",
			409,
			nil,
		).WithContext(ctx, "resolve")
	}

	if err := s.service.ResolveAt(ctx, s.locale, index, value, s.id); err != nil {
		return nil, err
	}

	s.index = index + 1
	if s.index >= s.service.Count(s.locale) {
		s.index = 0
	}
	return s.currentLocked()
}

var _ domain.ResolutionSession = (*Session)(nil)
