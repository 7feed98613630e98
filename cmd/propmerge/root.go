package main

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/freewebtopdf/propmerge/internal/config"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "propmerge",
		Short: "Merge per-module properties files and resolve conflicting keys",
		Long: `propmerge consolidates the localized properties files that several modules
keep under <root>/<module>/cartridge/templates/resources into one file per
locale and file name.

Keys on which every module agrees are merged and removed from the modules.
Conflicting keys get a provisional value and are listed in a conflict report,
which the serve command exposes for manual resolution.

Examples:
  propmerge merge --root ./cartridges
  propmerge merge --root ./cartridges --no-prune --json
  propmerge serve --port 5000`,
		SilenceUsage: true,
	}

	cmd.AddCommand(newMergeCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newHealthCmd())

	return cmd
}

// loadConfig reads the environment and applies the logging settings
func loadConfig(stderr io.Writer) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	setupLogger(cfg.Logging.Level, cfg.Logging.Format, stderr)
	return cfg, nil
}

func setupLogger(level, format string, out io.Writer) {
	zerolog.TimeFieldFormat = time.RFC3339

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if useConsoleWriter(format, out) {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

// useConsoleWriter resolves the auto format by checking whether out is a terminal
func useConsoleWriter(format string, out io.Writer) bool {
	switch format {
	case "text":
		return true
	case "json":
		return false
	}
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func logStartupConfig(cfg *config.Config) {
	log.Info().
		Str("root_dir", cfg.Merge.RootDir).
		Str("resources_path", cfg.Merge.ResourcesPath).
		Bool("prune_sources", cfg.Merge.PruneSources).
		Int("flush_workers", cfg.Merge.FlushWorkers).
		Str("merged_dir", cfg.Output.MergedDir).
		Str("conflict_report", cfg.Output.ConflictReport).
		Str("journal", cfg.Output.JournalFile).
		Int("server_port", cfg.Server.Port).
		Strs("security_cors_origins", cfg.Security.CORSOrigins).
		Dur("session_idle_timeout", cfg.Session.IdleTimeout).
		Str("logging_level", cfg.Logging.Level).
		Str("logging_format", cfg.Logging.Format).
		Msg("Configuration loaded successfully")
}
