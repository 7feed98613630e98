package domain

// PropertyEntry is a single key/value read from a module's properties file
type PropertyEntry struct {
	Key        string `json:"key"`
	Value      string `json:"value"`
	Module     string `json:"module"`
	SourcePath string `json:"source_path"`
}

// OutputKey identifies one merged output file: a locale and the shared file name
type OutputKey struct {
	Locale   string `json:"locale"`
	FileName string `json:"file_name"`
}

// GroupKey identifies every contribution to one key of one merged output
type GroupKey struct {
	Locale   string `json:"locale"`
	FileName string `json:"file_name"`
	Key      string `json:"key"`
}

// Output returns the merged output the group belongs to
func (k GroupKey) Output() OutputKey {
	return OutputKey{Locale: k.Locale, FileName: k.FileName}
}

// PropertyGroup holds the ordered contributions of every module defining a key.
// Entries is never empty once the group exists.
type PropertyGroup struct {
	GroupKey
	Entries []PropertyEntry `json:"entries"`
}

// DistinctValues returns the contributed values without duplicates, in contributor order
func (g *PropertyGroup) DistinctValues() []string {
	seen := make(map[string]struct{}, len(g.Entries))
	values := make([]string, 0, len(g.Entries))
	for _, e := range g.Entries {
		if _, ok := seen[e.Value]; ok {
			continue
		}
		seen[e.Value] = struct{}{}
		values = append(values, e.Value)
	}
	return values
}

// OutcomeKind distinguishes agreeing groups from conflicting ones
type OutcomeKind string

const (
	// OutcomeMerged means every contributor supplied the same value
	OutcomeMerged OutcomeKind = "merged"
	// OutcomeConflict means at least two distinct values were contributed
	OutcomeConflict OutcomeKind = "conflict"
	// OutcomeDecided means the remaining contributors agree on a value other than
	// the operator's recorded decision; the decision is kept
	OutcomeDecided OutcomeKind = "decided"
)

// MergeOutcome records what the merge engine decided for a group
type MergeOutcome struct {
	Group GroupKey    `json:"group"`
	Kind  OutcomeKind `json:"kind"`
	// Value is the merged value, or the provisional representative for a conflict
	Value string `json:"value"`
	// Candidates is only set for conflicts
	Candidates []Candidate `json:"candidates,omitempty"`
}

// Candidate is one module's value for a conflicting key
type Candidate struct {
	Module string `json:"module"`
	Value  string `json:"value"`
}

// ConflictRecord describes a key for which modules disagree
type ConflictRecord struct {
	Locale     string      `json:"locale"`
	FileName   string      `json:"file_name"`
	Key        string      `json:"key"`
	Candidates []Candidate `json:"candidates"`
}

// Output returns the merged output the conflict must be resolved into
func (r ConflictRecord) Output() OutputKey {
	return OutputKey{Locale: r.Locale, FileName: r.FileName}
}

// FileStats counts merge outcomes for one merged output
type FileStats struct {
	FileName  string `json:"file_name"`
	Locale    string `json:"locale"`
	Merged    int    `json:"merged"`
	Conflicts int    `json:"conflicts"`
}

// ConflictView is what an operator sees for the current conflict of a session
// @Description Conflict presented for manual resolution
type ConflictView struct {
	Index         int               `json:"index" example:"0"`
	Total         int               `json:"total" example:"12"`
	FileName      string            `json:"file_name" example:"checkout_en_US.properties"`
	Locale        string            `json:"locale" example:"en_US"`
	PropertyName  string            `json:"property_name" example:"greeting"`
	Candidates    map[string]string `json:"candidates"`
	Order         []string          `json:"order"`
	MajorityValue string            `json:"majority_value" example:"Hello"`
	MajorityCount int               `json:"majority_count" example:"2"`
	Resolved      bool              `json:"resolved"`
}

// LocaleInfo summarizes one locale of the conflict dataset
// @Description Locale available for resolution
type LocaleInfo struct {
	Locale      string `json:"locale" example:"en_US"`
	DisplayName string `json:"display_name" example:"American English"`
	Conflicts   int    `json:"conflicts" example:"12"`
}
