package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/freewebtopdf/propmerge/docs"
	"github.com/freewebtopdf/propmerge/internal/api"
	"github.com/freewebtopdf/propmerge/internal/config"
	"github.com/freewebtopdf/propmerge/internal/domain"
	"github.com/freewebtopdf/propmerge/internal/health"
	"github.com/freewebtopdf/propmerge/internal/resolution"
	"github.com/freewebtopdf/propmerge/internal/storage"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	var (
		port      int
		out       string
		conflicts string
		host      string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the conflict report for manual resolution",
		Long: `Loads the conflict detail report written by merge and serves the resolution
API. Every accepted decision is written into the merged output immediately and
recorded in the resolution journal, so a later merge keeps it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Server.Port = port
			}
			if out != "" {
				cfg.Output.MergedDir = out
			}
			if conflicts != "" {
				cfg.Output.ConflictReport = conflicts
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			docs.SwaggerInfo.Host = host

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Listen port (overrides PORT)")
	cmd.Flags().StringVar(&out, "out", "", "Directory of merged outputs (overrides MERGED_DIR)")
	cmd.Flags().StringVar(&conflicts, "conflicts", "", "Conflict detail report path (overrides CONFLICT_REPORT)")
	cmd.Flags().StringVar(&host, "host", "", "Host advertised in the API docs")

	return cmd
}

// serve runs the resolution API until ctx is cancelled
func serve(ctx context.Context, cfg *config.Config) error {
	logStartupConfig(cfg)

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	store := storage.NewOutputStore(cfg.Output.MergedDir)
	var journal *storage.Journal
	if cfg.Output.JournalFile != "" {
		journal = storage.NewJournal(cfg.Output.JournalFile)
	}

	service, err := resolution.LoadService(cfg.Output.ConflictReport, store, journal)
	if err != nil {
		return fmt.Errorf("failed to load conflict report: %w", err)
	}

	sessions := resolution.NewSessions(service, cfg.Session.IdleTimeout, cfg.Session.MaxSessions)
	stopJanitor := sessions.StartJanitor(time.Minute)
	defer stopJanitor()

	healthChecker := health.NewSystemHealthChecker(map[string]domain.HealthReporter{
		"outputs":  store,
		"dataset":  service,
		"sessions": sessions,
	})

	router := api.SetupRouter(api.RouterDependencies{
		Sessions:      sessions,
		Outputs:       store,
		HealthChecker: healthChecker,
	}, api.RouterConfig{
		CORSOrigins:    cfg.Security.CORSOrigins,
		BodyLimit:      cfg.Server.BodyLimit,
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
		SecureCookies:  cfg.Security.EnableHTTPS,
	})
	defer router.Cleanup()

	app := router.App
	app.Server().ReadTimeout = cfg.Server.ReadTimeout
	app.Server().WriteTimeout = cfg.Server.WriteTimeout

	serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info().
		Int("port", cfg.Server.Port).
		Str("addr", serverAddr).
		Int("locales", len(service.LocaleNames())).
		Msg("Starting HTTP server")

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(serverAddr)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server stopped: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("Received shutdown signal, initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during HTTP server shutdown")
		return err
	}

	log.Info().Msg("Graceful shutdown completed")
	return nil
}
