package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/freewebtopdf/propmerge/internal/config"
	"github.com/freewebtopdf/propmerge/internal/merge"
	"github.com/freewebtopdf/propmerge/internal/scanner"
)

type mergeFlags struct {
	root      string
	out       string
	conflicts string
	noPrune   bool
	json      bool
}

func newMergeCmd() *cobra.Command {
	var flags mergeFlags

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge module properties into per-locale outputs",
		Long: `Scans every module under the root directory, merges keys on which the
modules agree, writes merged_properties/<locale>/<file>, and writes the summary
and conflict detail reports.

Merged keys are removed from the module files unless --no-prune is given.
Decisions already recorded by the resolution service override the provisional
value of conflicts that are still present.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			flags.apply(cfg)
			logStartupConfig(cfg)

			summary, _, err := merge.NewPipeline(pipelineConfig(cfg)).Run(cmd.Context())
			if err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), summary, flags.json)
		},
	}

	cmd.Flags().StringVar(&flags.root, "root", "", "Directory holding one folder per module (overrides ROOT_DIR)")
	cmd.Flags().StringVar(&flags.out, "out", "", "Directory for merged outputs (overrides MERGED_DIR)")
	cmd.Flags().StringVar(&flags.conflicts, "conflicts", "", "Conflict detail report path (overrides CONFLICT_REPORT)")
	cmd.Flags().BoolVar(&flags.noPrune, "no-prune", false, "Leave module files untouched")
	cmd.Flags().BoolVar(&flags.json, "json", false, "Print the run summary as JSON")

	return cmd
}

func (f mergeFlags) apply(cfg *config.Config) {
	if f.root != "" {
		cfg.Merge.RootDir = f.root
	}
	if f.out != "" {
		cfg.Output.MergedDir = f.out
	}
	if f.conflicts != "" {
		cfg.Output.ConflictReport = f.conflicts
	}
	if f.noPrune {
		cfg.Merge.PruneSources = false
	}
}

func pipelineConfig(cfg *config.Config) merge.Config {
	return merge.Config{
		Scan: scanner.ScanConfig{
			RootDir:       cfg.Merge.RootDir,
			ResourcesPath: cfg.Merge.ResourcesPath,
			Extension:     cfg.Merge.Extension,
		},
		MergedDir:      cfg.Output.MergedDir,
		SummaryReport:  cfg.Output.SummaryReport,
		ConflictReport: cfg.Output.ConflictReport,
		JournalFile:    cfg.Output.JournalFile,
		PruneSources:   cfg.Merge.PruneSources,
		FlushWorkers:   cfg.Merge.FlushWorkers,
	}
}

func printSummary(w io.Writer, s *merge.RunSummary, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}

	fmt.Fprintf(w, "Files scanned:    %d\n", s.FilesScanned)
	fmt.Fprintf(w, "Keys merged:      %d\n", s.Merged)
	fmt.Fprintf(w, "Conflicts:        %d\n", s.Conflicts)
	fmt.Fprintf(w, "Decisions kept:   %d\n", s.Decided)
	fmt.Fprintf(w, "Outputs written:  %d\n", s.OutputsWritten)
	fmt.Fprintf(w, "Sources pruned:   %d\n", s.SourcesFlushed)
	for _, e := range s.LoadErrors {
		fmt.Fprintf(w, "  skipped %s: %s\n", e.FilePath, e.Error)
	}
	for _, e := range s.FlushErrors {
		fmt.Fprintf(w, "  not pruned %s: %s\n", e.Path, e.Error)
	}
	return nil
}
