package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aguxez/keecal/api"
	"github.com/aguxez/keecal/filewatch"
	"github.com/aguxez/keecal/logger"
)

func init() {
	var noInbox bool

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the photo inbox",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(noInbox)
		},
	}
	serveCmd.Flags().BoolVar(&noInbox, "no-inbox", false, "Do not watch the photo inbox")
	rootCmd.AddCommand(serveCmd)
}

func runServe(noInbox bool) error {
	log := logger.New(serviceName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, log, true)
	if err != nil {
		log.Error().Err(err).Msg("Startup failed")
		return err
	}
	defer a.Close()

	log.Info().
		Str("environment", string(a.cfg.Environment)).
		Str("db_path", a.cfg.DBPath).
		Int("http_port", a.cfg.HTTPPort).
		Str("llm_model", a.cfg.LLMModel).
		Msg("keecal starting")

	if !noInbox {
		inbox, err := filewatch.NewInboxWatcher(a.cfg.InboxDir, a.tracker, log)
		if err != nil {
			return err
		}
		defer inbox.Close()

		go func() {
			// Photos dropped in while the service was down.
			if err := inbox.ScanExisting(ctx); err != nil {
				log.Error().Err(err).Msg("inbox scan finished with errors")
			}
			inbox.Watch(ctx)
		}()
	}

	server := &http.Server{
		Addr:         a.cfg.GetHTTPAddr(),
		Handler:      api.NewRouter(a.tracker, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.Error().Err(err).Msg("HTTP server failed")
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server…")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return err
	}
	log.Info().Msg("Server exited")
	return nil
}
