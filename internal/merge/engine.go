// Package merge decides, for every aggregated key, whether modules agree, picks a
// representative value when they do not, and prunes merged keys from the sources.
package merge

import (
	"github.com/freewebtopdf/propmerge/internal/aggregate"
	"github.com/freewebtopdf/propmerge/internal/domain"
	"github.com/freewebtopdf/propmerge/internal/similarity"
)

// Result holds everything one merge pass produced
type Result struct {
	outputs map[domain.OutputKey]*domain.LocaleOutput
	order   []domain.OutputKey

	// Conflicts lists disagreeing keys in aggregation order
	Conflicts []domain.ConflictRecord
	// Outcomes lists the decision for every group in aggregation order
	Outcomes []domain.MergeOutcome
	// Pruned counts key removals applied to source documents
	Pruned int
	// Decided counts groups whose recorded decision outvoted the remaining sources
	Decided int
}

// Outputs returns the merged outputs in first-seen order
func (r *Result) Outputs() []*domain.LocaleOutput {
	outs := make([]*domain.LocaleOutput, 0, len(r.order))
	for _, k := range r.order {
		outs = append(outs, r.outputs[k])
	}
	return outs
}

// Output returns the merged output for key
func (r *Result) Output(key domain.OutputKey) (*domain.LocaleOutput, bool) {
	out, ok := r.outputs[key]
	return out, ok
}

// Stats returns the merge counters of every output in first-seen order
func (r *Result) Stats() []domain.FileStats {
	stats := make([]domain.FileStats, 0, len(r.order))
	for _, k := range r.order {
		stats = append(stats, r.outputs[k].Stats())
	}
	return stats
}

// Totals returns the merged and conflict counts across all outputs
func (r *Result) Totals() (merged, conflicts int) {
	for _, out := range r.outputs {
		merged += out.Merged
		conflicts += out.Conflicts
	}
	return merged, conflicts
}

// Engine merges aggregated groups
type Engine struct {
	prune     bool
	decisions map[domain.GroupKey]string
}

// Option configures an Engine
type Option func(*Engine)

// WithoutPruning leaves source documents untouched
func WithoutPruning() Option {
	return func(e *Engine) { e.prune = false }
}

// WithDecisions makes earlier operator decisions win over the representative
// value, and over a lone value left behind in the sources by an earlier prune
func WithDecisions(decisions map[domain.GroupKey]string) Option {
	return func(e *Engine) { e.decisions = decisions }
}

// NewEngine creates a merge engine. Merged keys are removed from the sources
// unless WithoutPruning is given.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{prune: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Merge evaluates every group of the catalog. Outputs present in base are used as
// the starting content of the corresponding output; their counters start at zero.
func (e *Engine) Merge(catalog *aggregate.Catalog, base map[domain.OutputKey]*domain.LocaleOutput) *Result {
	res := &Result{outputs: make(map[domain.OutputKey]*domain.LocaleOutput)}

	for _, key := range catalog.Outputs() {
		out, ok := base[key]
		if !ok || out == nil {
			out = domain.NewLocaleOutput(key)
		}
		out.Merged, out.Conflicts = 0, 0
		res.outputs[key] = out
		res.order = append(res.order, key)
	}

	for _, group := range catalog.Groups() {
		out := res.outputs[group.Output()]
		outcome := e.mergeGroup(group, out)
		res.Outcomes = append(res.Outcomes, outcome)

		if outcome.Kind == domain.OutcomeDecided {
			res.Decided++
		}
		if outcome.Kind == domain.OutcomeConflict {
			res.Conflicts = append(res.Conflicts, domain.ConflictRecord{
				Locale:     group.Locale,
				FileName:   group.FileName,
				Key:        group.Key,
				Candidates: outcome.Candidates,
			})
		}

		if e.prune {
			res.Pruned += e.pruneSources(catalog, group, outcome)
		}
	}

	return res
}

func (e *Engine) mergeGroup(group *domain.PropertyGroup, out *domain.LocaleOutput) domain.MergeOutcome {
	distinct := group.DistinctValues()
	decided, hasDecision := e.decisions[group.GroupKey]

	if len(distinct) == 1 && hasDecision && distinct[0] != decided {
		out.Set(group.Key, decided)
		return domain.MergeOutcome{Group: group.GroupKey, Kind: domain.OutcomeDecided, Value: decided}
	}

	if len(distinct) == 1 {
		out.Set(group.Key, distinct[0])
		out.Merged++
		return domain.MergeOutcome{Group: group.GroupKey, Kind: domain.OutcomeMerged, Value: distinct[0]}
	}

	out.Conflicts++

	candidates := make([]domain.Candidate, 0, len(group.Entries))
	for _, entry := range group.Entries {
		candidates = append(candidates, domain.Candidate{Module: entry.Module, Value: entry.Value})
	}

	chosen := similarity.Representative(distinct)
	if hasDecision {
		chosen = decided
	}
	out.Set(group.Key, chosen)

	return domain.MergeOutcome{
		Group:      group.GroupKey,
		Kind:       domain.OutcomeConflict,
		Value:      chosen,
		Candidates: candidates,
	}
}

// pruneSources removes the key from every source whose value ended up in the output.
// Sources holding any other value keep it so the disagreement stays visible.
func (e *Engine) pruneSources(catalog *aggregate.Catalog, group *domain.PropertyGroup, outcome domain.MergeOutcome) int {
	removed := 0
	for _, entry := range group.Entries {
		if entry.Value != outcome.Value {
			continue
		}
		if catalog.RemoveFromSource(entry.SourcePath, group.Key) {
			removed++
		}
	}
	return removed
}
