package merge

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/freewebtopdf/propmerge/internal/aggregate"
	"github.com/freewebtopdf/propmerge/internal/domain"
	"github.com/freewebtopdf/propmerge/internal/report"
	"github.com/freewebtopdf/propmerge/internal/scanner"
	"github.com/freewebtopdf/propmerge/internal/storage"
)

// Config holds everything a batch run needs
type Config struct {
	Scan           scanner.ScanConfig
	MergedDir      string
	SummaryReport  string // empty disables the summary table
	ConflictReport string // empty disables the conflict table
	JournalFile    string // empty ignores earlier resolutions
	PruneSources   bool
	FlushWorkers   int
}

// FlushError records a source file that could not be rewritten
type FlushError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// RunSummary describes one batch run
type RunSummary struct {
	FilesScanned   int                   `json:"files_scanned"`
	LoadErrors     []aggregate.LoadError `json:"load_errors,omitempty"`
	Groups         int                   `json:"groups"`
	Merged         int                   `json:"merged"`
	Conflicts      int                   `json:"conflicts"`
	Decided        int                   `json:"decided"`
	OutputsWritten int                   `json:"outputs_written"`
	KeysPruned     int                   `json:"keys_pruned"`
	SourcesFlushed int                   `json:"sources_flushed"`
	FlushErrors    []FlushError          `json:"flush_errors,omitempty"`
	Duration       time.Duration         `json:"duration"`
}

// Pipeline runs scan, aggregation, merge, flush and reporting as one pass
type Pipeline struct {
	config     Config
	scanner    *scanner.Scanner
	aggregator *aggregate.Aggregator
	store      *storage.OutputStore
	journal    *storage.Journal
}

// NewPipeline creates a pipeline for config
func NewPipeline(config Config) *Pipeline {
	if config.FlushWorkers < 1 {
		config.FlushWorkers = 1
	}

	p := &Pipeline{
		config:     config,
		scanner:    scanner.NewScanner(config.Scan),
		aggregator: aggregate.NewAggregator(),
		store:      storage.NewOutputStore(config.MergedDir),
	}
	if config.JournalFile != "" {
		p.journal = storage.NewJournal(config.JournalFile)
	}
	return p
}

// Run executes one batch. Unreadable sources and sources that cannot be rewritten
// are reported in the summary; failing to write a merged output or a report
// aborts the run before any source is modified.
func (p *Pipeline) Run(ctx context.Context) (*RunSummary, *Result, error) {
	start := time.Now()

	files, err := p.scanner.Scan(ctx)
	if err != nil {
		return nil, nil, err
	}

	catalog, loadErrors, err := p.aggregator.Aggregate(ctx, files)
	if err != nil {
		return nil, nil, err
	}

	base, err := p.loadExisting(ctx, catalog.Outputs())
	if err != nil {
		return nil, nil, err
	}

	var opts []Option
	if !p.config.PruneSources {
		opts = append(opts, WithoutPruning())
	}
	if p.journal != nil {
		if err := p.journal.Load(); err != nil {
			log.Warn().Err(err).Str("path", p.journal.Path()).Msg("Ignoring unreadable resolution journal")
		} else {
			opts = append(opts, WithDecisions(p.journal.Values()))
		}
	}

	result := NewEngine(opts...).Merge(catalog, base)
	for _, o := range result.Outcomes {
		if o.Kind == domain.OutcomeDecided {
			log.Info().
				Str("locale", o.Group.Locale).
				Str("file", o.Group.FileName).
				Str("key", o.Group.Key).
				Msg("Kept recorded decision over remaining source value")
		}
	}
	merged, conflicts := result.Totals()

	summary := &RunSummary{
		FilesScanned: len(files),
		LoadErrors:   loadErrors,
		Groups:       catalog.Len(),
		Merged:       merged,
		Conflicts:    conflicts,
		Decided:      result.Decided,
		KeysPruned:   result.Pruned,
	}

	if err := p.writeOutputs(ctx, result.Outputs()); err != nil {
		return nil, nil, err
	}
	summary.OutputsWritten = len(result.Outputs())

	if err := p.writeReports(result); err != nil {
		return nil, nil, err
	}

	if p.config.PruneSources {
		summary.SourcesFlushed, summary.FlushErrors = p.flushSources(catalog)
	}

	summary.Duration = time.Since(start)

	log.Info().
		Int("files", summary.FilesScanned).
		Int("load_errors", len(summary.LoadErrors)).
		Int("groups", summary.Groups).
		Int("merged", summary.Merged).
		Int("conflicts", summary.Conflicts).
		Int("decided", summary.Decided).
		Int("sources_flushed", summary.SourcesFlushed).
		Dur("duration", summary.Duration).
		Msg("Merge completed")

	return summary, result, nil
}

// loadExisting reads merged outputs left by an earlier run
func (p *Pipeline) loadExisting(ctx context.Context, keys []domain.OutputKey) (map[domain.OutputKey]*domain.LocaleOutput, error) {
	base := make(map[domain.OutputKey]*domain.LocaleOutput, len(keys))
	for _, key := range keys {
		out, err := p.store.Load(ctx, key)
		if err != nil {
			if domain.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		base[key] = out
	}
	return base, nil
}

func (p *Pipeline) writeOutputs(ctx context.Context, outputs []*domain.LocaleOutput) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.FlushWorkers)

	for _, out := range outputs {
		out := out
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return p.store.Save(gctx, out)
		})
	}
	return g.Wait()
}

func (p *Pipeline) writeReports(result *Result) error {
	if p.config.SummaryReport != "" {
		if err := report.WriteSummary(p.config.SummaryReport, result.Stats()); err != nil {
			return err
		}
		log.Info().Str("path", p.config.SummaryReport).Msg("Summary report generated")
	}
	if p.config.ConflictReport != "" {
		if err := report.WriteConflicts(p.config.ConflictReport, result.Conflicts); err != nil {
			return err
		}
		log.Info().Str("path", p.config.ConflictReport).Int("rows", len(result.Conflicts)).Msg("Conflict details report generated")
	}
	return nil
}

// flushSources rewrites every pruned source once. Each file is handled by a
// single goroutine; failures are logged and collected.
func (p *Pipeline) flushSources(catalog *aggregate.Catalog) (int, []FlushError) {
	var (
		mu      sync.Mutex
		flushed int
		errs    []FlushError
		g       errgroup.Group
	)
	g.SetLimit(p.config.FlushWorkers)

	for _, path := range catalog.SourcePaths() {
		path := path
		doc, ok := catalog.Source(path)
		if !ok || !doc.Modified() {
			continue
		}

		g.Go(func() error {
			err := doc.Flush(path)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("Failed to prune source file")
				errs = append(errs, FlushError{Path: path, Error: err.Error()})
				return nil
			}
			flushed++
			return nil
		})
	}
	_ = g.Wait()

	return flushed, errs
}
