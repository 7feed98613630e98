package resolution

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/freewebtopdf/propmerge/internal/cache"
	"github.com/freewebtopdf/propmerge/internal/domain"
)

// DefaultMaxSessions bounds the number of live operator sessions
const DefaultMaxSessions = 256

// Sessions hands out operator sessions by id. Sessions idle for longer than the
// configured timeout are forgotten, together with their cursor.
type Sessions struct {
	service  *Service
	sessions *cache.LRU[*Session]
}

// NewSessions creates a registry over service
func NewSessions(service *Service, idleTimeout time.Duration, maxSessions int) *Sessions {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &Sessions{
		service:  service,
		sessions: cache.New[*Session](maxSessions, idleTimeout),
	}
}

// Service returns the shared conflict dataset
func (r *Sessions) Service() *Service {
	return r.service
}

// Locales describes every locale of the dataset
func (r *Sessions) Locales() []domain.LocaleInfo {
	return r.service.Locales()
}

// Session returns the session for id, creating a new one with a fresh id when id
// is empty, unknown or expired
func (r *Sessions) Session(id string) (domain.ResolutionSession, string) {
	if id != "" {
		if s, ok := r.sessions.Get(id); ok {
			return s, id
		}
	}

	id = uuid.NewString()
	s := NewSession(id, r.service)
	r.sessions.Set(id, s)

	log.Debug().Str("session", id).Msg("Resolution session started")
	return s, id
}

// Lookup returns the live session for id without creating one
func (r *Sessions) Lookup(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	return r.sessions.Get(id)
}

// Len returns the number of tracked sessions
func (r *Sessions) Len() int {
	return r.sessions.Len()
}

// StartJanitor drops expired sessions every interval until stop is called
func (r *Sessions) StartJanitor(interval time.Duration) (stop func()) {
	return r.sessions.StartSweeper(interval)
}

// HealthCheck reports session cache usage
func (r *Sessions) HealthCheck(ctx context.Context) domain.HealthStatus {
	return r.sessions.HealthCheck(ctx)
}

var _ domain.SessionProvider = (*Sessions)(nil)
