package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/freewebtopdf/propmerge/internal/domain"
	"github.com/freewebtopdf/propmerge/internal/properties"
)

// Decision is one operator resolution of a conflicting key
type Decision struct {
	Locale     string    `yaml:"locale" json:"locale"`
	FileName   string    `yaml:"file" json:"file_name"`
	Key        string    `yaml:"key" json:"key"`
	Value      string    `yaml:"value" json:"value"`
	Session    string    `yaml:"session,omitempty" json:"session,omitempty"`
	ResolvedAt time.Time `yaml:"resolved_at" json:"resolved_at"`
}

// Group returns the group the decision applies to
func (d Decision) Group() domain.GroupKey {
	return domain.GroupKey{Locale: d.Locale, FileName: d.FileName, Key: d.Key}
}

// journalFile represents the structure of the journal file on disk
type journalFile struct {
	Version   string     `yaml:"version"`
	UpdatedAt time.Time  `yaml:"updated_at"`
	Decisions []Decision `yaml:"decisions"`
}

// Journal keeps the latest decision per conflicting key in a YAML file
type Journal struct {
	mu        sync.RWMutex
	filePath  string
	decisions map[domain.GroupKey]Decision
	order     []domain.GroupKey
}

// NewJournal creates a journal persisted at filePath
func NewJournal(filePath string) *Journal {
	return &Journal{
		filePath:  filePath,
		decisions: make(map[domain.GroupKey]Decision),
	}
}

// Path returns the journal file location
func (j *Journal) Path() string {
	return j.filePath
}

// Load reads the journal file; a missing file starts an empty journal
func (j *Journal) Load() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.decisions = make(map[domain.GroupKey]Decision)
	j.order = nil

	data, err := os.ReadFile(j.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read journal %s: %w", j.filePath, err)
	}

	var file journalFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse journal %s: %w", j.filePath, err)
	}

	for _, d := range file.Decisions {
		j.put(d)
	}
	return nil
}

func (j *Journal) put(d Decision) {
	key := d.Group()
	if _, exists := j.decisions[key]; !exists {
		j.order = append(j.order, key)
	}
	j.decisions[key] = d
}

// Record stores d, replacing any earlier decision for the same key, and saves
func (j *Journal) Record(d Decision) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if d.ResolvedAt.IsZero() {
		d.ResolvedAt = time.Now().UTC()
	}
	j.put(d)
	return j.saveUnsafe()
}

// Lookup returns the decision recorded for key
func (j *Journal) Lookup(key domain.GroupKey) (Decision, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	d, ok := j.decisions[key]
	return d, ok
}

// Decisions returns every decision in first-recorded order
func (j *Journal) Decisions() []Decision {
	j.mu.RLock()
	defer j.mu.RUnlock()

	out := make([]Decision, 0, len(j.order))
	for _, k := range j.order {
		out = append(out, j.decisions[k])
	}
	return out
}

// Values returns the decided value of every recorded key
func (j *Journal) Values() map[domain.GroupKey]string {
	j.mu.RLock()
	defer j.mu.RUnlock()

	out := make(map[domain.GroupKey]string, len(j.decisions))
	for k, d := range j.decisions {
		out[k] = d.Value
	}
	return out
}

// saveUnsafe performs the save without acquiring locks (caller must hold lock)
func (j *Journal) saveUnsafe() error {
	file := journalFile{
		Version:   "1.0",
		UpdatedAt: time.Now().UTC(),
		Decisions: make([]Decision, 0, len(j.order)),
	}
	for _, k := range j.order {
		file.Decisions = append(file.Decisions, j.decisions[k])
	}

	data, err := yaml.Marshal(file)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(j.filePath), 0755); err != nil {
		return err
	}

	return properties.AtomicWrite(j.filePath, data)
}
