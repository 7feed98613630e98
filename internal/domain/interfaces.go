package domain

import "context"

// OutputRepository defines the contract for merged output persistence
type OutputRepository interface {
	Get(ctx context.Context, key OutputKey) (map[string]string, []string, error)
	Put(ctx context.Context, key OutputKey, property, value string) error
}

// ResolutionSession defines the per-operator resolution workflow
type ResolutionSession interface {
	SelectLocale(locale string)
	Locale() string
	Current() (*ConflictView, error)
	Resolve(ctx context.Context, index int, value string) (*ConflictView, error)
}

// SessionProvider hands out resolution sessions by identifier
type SessionProvider interface {
	Locales() []LocaleInfo
	Session(id string) (ResolutionSession, string)
}
