package resolution

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/freewebtopdf/propmerge/internal/domain"
	"github.com/freewebtopdf/propmerge/internal/report"
	"github.com/freewebtopdf/propmerge/internal/storage"
)

// MockOutputRepository is a mock implementation of domain.OutputRepository
type MockOutputRepository struct {
	mock.Mock
}

func (m *MockOutputRepository) Get(ctx context.Context, key domain.OutputKey) (map[string]string, []string, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(map[string]string), args.Get(1).([]string), args.Error(2)
}

func (m *MockOutputRepository) Put(ctx context.Context, key domain.OutputKey, property, value string) error {
	args := m.Called(ctx, key, property, value)
	return args.Error(0)
}

func conflict(locale, key string, candidates ...string) domain.ConflictRecord {
	r := domain.ConflictRecord{Locale: locale, FileName: "app_" + locale + ".properties", Key: key}
	for i := 0; i+1 < len(candidates); i += 2 {
		r.Candidates = append(r.Candidates, domain.Candidate{Module: candidates[i], Value: candidates[i+1]})
	}
	return r
}

func sampleRecords() []domain.ConflictRecord {
	return []domain.ConflictRecord{
		conflict("fr_FR", "greeting", "A", "Bonjour", "B", "Salut"),
		conflict("en_US", "greeting", "A", "Hello", "B", "Hi"),
		conflict("en_US", "title", "A", "Home", "B", "Start", "C", "Start"),
		conflict("en_US", "cart", "A", "Cart", "B", "Basket"),
	}
}

func newTestService(t *testing.T) (*Service, *storage.OutputStore, *storage.Journal) {
	t.Helper()
	dir := t.TempDir()
	store := storage.NewOutputStore(filepath.Join(dir, "merged"))
	journal := storage.NewJournal(filepath.Join(dir, "merged", ".resolutions.yaml"))
	return NewService(sampleRecords(), store, journal), store, journal
}

func TestMajority(t *testing.T) {
	tests := []struct {
		name       string
		candidates []domain.Candidate
		value      string
		count      int
	}{
		{"empty", nil, "", 0},
		{"tie goes to first", conflict("en_US", "k", "A", "Hello", "B", "Hi").Candidates, "Hello", 1},
		{"clear winner", conflict("en_US", "k", "A", "Home", "B", "Start", "C", "Start").Candidates, "Start", 2},
		{"later tie keeps first", conflict("en_US", "k", "A", "x", "B", "y", "C", "y", "D", "x").Candidates, "x", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, count := Majority(tt.candidates)
			assert.Equal(t, tt.value, value)
			assert.Equal(t, tt.count, count)
		})
	}
}

func TestService_Locales(t *testing.T) {
	svc, _, _ := newTestService(t)

	assert.Equal(t, []string{"en_US", "fr_FR"}, svc.LocaleNames())

	infos := svc.Locales()
	require.Len(t, infos, 2)
	assert.Equal(t, "en_US", infos[0].Locale)
	assert.Equal(t, 3, infos[0].Conflicts)
	assert.Contains(t, infos[0].DisplayName, "English")
	assert.Equal(t, 1, infos[1].Conflicts)
}

func TestDisplayName_Unknown(t *testing.T) {
	assert.Equal(t, "not a tag", DisplayName("not a tag"))
}

func TestService_ConflictsKeepDatasetOrder(t *testing.T) {
	svc, _, _ := newTestService(t)

	keys := []string{}
	for _, c := range svc.Conflicts("en_US") {
		keys = append(keys, c.Key)
	}
	assert.Equal(t, []string{"greeting", "title", "cart"}, keys)
	assert.Empty(t, svc.Conflicts("de_DE"))
}

func TestSession_NoLocaleSelected(t *testing.T) {
	svc, _, _ := newTestService(t)
	s := NewSession("s1", svc)

	view, err := s.Current()
	require.NoError(t, err)
	assert.Nil(t, view)

	_, err = s.Resolve(context.Background(), 0, "Hi")
	require.Error(t, err)
	assert.True(t, domain.IsNoLocaleSelected(err))
}

func TestSession_CurrentConflict(t *testing.T) {
	svc, _, _ := newTestService(t)
	s := NewSession("s1", svc)
	s.SelectLocale("en_US")

	view, err := s.Current()
	require.NoError(t, err)
	require.NotNil(t, view)

	assert.Equal(t, 0, view.Index)
	assert.Equal(t, 3, view.Total)
	assert.Equal(t, "greeting", view.PropertyName)
	assert.Equal(t, "app_en_US.properties", view.FileName)
	assert.Equal(t, map[string]string{"A": "Hello", "B": "Hi"}, view.Candidates)
	assert.Equal(t, []string{"A", "B"}, view.Order)
	assert.Equal(t, "Hello", view.MajorityValue)
	assert.Equal(t, 1, view.MajorityCount)
	assert.False(t, view.Resolved)
}

func TestSession_ResolveWritesOutputAndAdvances(t *testing.T) {
	svc, store, journal := newTestService(t)
	s := NewSession("s1", svc)
	s.SelectLocale("en_US")

	next, err := s.Resolve(context.Background(), 0, "Hi")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Cursor())
	require.NotNil(t, next)
	assert.Equal(t, "title", next.PropertyName)

	values, keys, err := store.Get(context.Background(), domain.OutputKey{Locale: "en_US", FileName: "app_en_US.properties"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"greeting": "Hi"}, values)
	assert.Equal(t, []string{"greeting"}, keys)

	d, ok := journal.Lookup(domain.GroupKey{Locale: "en_US", FileName: "app_en_US.properties", Key: "greeting"})
	require.True(t, ok)
	assert.Equal(t, "Hi", d.Value)
	assert.Equal(t, "s1", d.Session)

	s.SelectLocale("en_US")
	view, err := s.Current()
	require.NoError(t, err)
	assert.True(t, view.Resolved)
}

func TestSession_ResolveIsIdempotent(t *testing.T) {
	svc, store, _ := newTestService(t)
	s := NewSession("s1", svc)
	s.SelectLocale("en_US")

	_, err := s.Resolve(context.Background(), 0, "Hi")
	require.NoError(t, err)
	_, err = s.Resolve(context.Background(), 0, "Hi")
	require.NoError(t, err)

	values, keys, err := store.Get(context.Background(), domain.OutputKey{Locale: "en_US", FileName: "app_en_US.properties"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"greeting": "Hi"}, values)
	assert.Len(t, keys, 1)
	assert.Equal(t, 1, s.Cursor())
}

func TestSession_CursorWraps(t *testing.T) {
	svc, _, _ := newTestService(t)
	s := NewSession("s1", svc)
	s.SelectLocale("en_US")

	cursors := []int{}
	for i := 0; i < 3; i++ {
		_, err := s.Resolve(context.Background(), s.Cursor(), fmt.Sprintf("v%d", i))
		require.NoError(t, err)
		cursors = append(cursors, s.Cursor())
	}
	assert.Equal(t, []int{1, 2, 0}, cursors)
}

func TestSession_IndexOutOfRange(t *testing.T) {
	svc, _, _ := newTestService(t)
	s := NewSession("s1", svc)
	s.SelectLocale("fr_FR")

	for _, index := range []int{-1, 1, 5} {
		_, err := s.Resolve(context.Background(), index, "Salut")
		require.Error(t, err)
		assert.True(t, domain.IsIndexOutOfRange(err), "index %d", index)
	}
	assert.Equal(t, 0, s.Cursor())
}

func TestSession_UnknownLocaleHasNoConflicts(t *testing.T) {
	svc, _, _ := newTestService(t)
	s := NewSession("s1", svc)
	s.SelectLocale("de_DE")

	view, err := s.Current()
	require.NoError(t, err)
	assert.Nil(t, view)
	assert.Equal(t, "de_DE", s.Locale())
}

func TestSession_SelectLocaleResetsCursor(t *testing.T) {
	svc, _, _ := newTestService(t)
	s := NewSession("s1", svc)
	s.SelectLocale("en_US")

	_, err := s.Resolve(context.Background(), 1, "Start")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Cursor())

	s.SelectLocale("fr_FR")
	assert.Equal(t, 0, s.Cursor())
}

func TestSession_ResolveCleansValue(t *testing.T) {
	repo := new(MockOutputRepository)
	repo.On("Put", mock.Anything, domain.OutputKey{Locale: "en_US", FileName: "app_en_US.properties"}, "greeting", "Hi there").
		Return(nil).Once()

	s := NewSession("s1", NewService(sampleRecords(), repo, nil))
	s.SelectLocale("en_US")

	_, err := s.Resolve(context.Background(), 0, "Hello\nadmin.title=pwned")
	require.Error(t, err)
	assert.True(t, domain.HasCode(err, domain.ErrInvalidInput))
	assert.Equal(t, 0, s.Cursor())

	_, err = s.Resolve(context.Background(), 0, "  Hi there \t")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Cursor())
	repo.AssertExpectations(t)
}

func TestSession_WriteFailureKeepsCursor(t *testing.T) {
	repo := new(MockOutputRepository)
	repo.On("Put", mock.Anything, domain.OutputKey{Locale: "en_US", FileName: "app_en_US.properties"}, "greeting", "Hi").
		Return(domain.NewAppErrorWithCause(domain.ErrWriteFailure, "disk full", 500, errors.New("ENOSPC"), nil))

	s := NewSession("s1", NewService(sampleRecords(), repo, nil))
	s.SelectLocale("en_US")

	_, err := s.Resolve(context.Background(), 0, "Hi")
	require.Error(t, err)
	assert.True(t, domain.IsWriteFailure(err))
	assert.Equal(t, 0, s.Cursor())
	repo.AssertExpectations(t)
}

func TestLoadService_FromReport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conflicts.csv")
	require.NoError(t, report.WriteConflicts(path, sampleRecords()))

	svc, err := LoadService(path, storage.NewOutputStore(filepath.Join(dir, "out")), storage.NewJournal(filepath.Join(dir, "j.yaml")))
	require.NoError(t, err)
	assert.Equal(t, 3, svc.Count("en_US"))
	assert.Equal(t, "Start", svc.Conflicts("en_US")[1].Candidates[1].Value)
}

func TestLoadService_EmptyValueCountsInMajority(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conflicts.csv")
	require.NoError(t, report.WriteConflicts(path, []domain.ConflictRecord{
		conflict("en_US", "greeting", "A", "Hello", "B", "", "C", ""),
	}))

	svc, err := LoadService(path, storage.NewOutputStore(filepath.Join(dir, "out")), nil)
	require.NoError(t, err)

	view, err := svc.View("en_US", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, view.Order)
	assert.Equal(t, "", view.MajorityValue)
	assert.Equal(t, 2, view.MajorityCount)
}

func TestLoadService_MissingReport(t *testing.T) {
	_, err := LoadService(filepath.Join(t.TempDir(), "missing.csv"), storage.NewOutputStore(t.TempDir()), nil)
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

func TestSessions_CreateAndReuse(t *testing.T) {
	svc, _, _ := newTestService(t)
	reg := NewSessions(svc, time.Minute, 0)

	s1, id := reg.Session("")
	require.NotEmpty(t, id)
	s1.SelectLocale("en_US")

	s2, same := reg.Session(id)
	assert.Equal(t, id, same)
	assert.Equal(t, "en_US", s2.Locale())

	_, other := reg.Session("unknown")
	assert.NotEqual(t, id, other)
	assert.Equal(t, 2, reg.Len())

	found, ok := reg.Lookup(id)
	require.True(t, ok)
	assert.Equal(t, id, found.ID())
	assert.Len(t, reg.Locales(), 2)
}

func TestProperty_CursorWrapsAfterNResolves(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("N resolves from 0 return the cursor to 0", prop.ForAll(
		func(n int) bool {
			records := make([]domain.ConflictRecord, n)
			for i := range records {
				records[i] = conflict("en_US", fmt.Sprintf("k%d", i), "A", "x", "B", "y")
			}
			repo := new(MockOutputRepository)
			repo.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

			s := NewSession("p", NewService(records, repo, nil))
			s.SelectLocale("en_US")
			for i := 0; i < n; i++ {
				if s.Cursor() != i {
					return false
				}
				if _, err := s.Resolve(context.Background(), i, "x"); err != nil {
					return false
				}
			}
			return s.Cursor() == 0
		},
		gen.IntRange(1, 20),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
