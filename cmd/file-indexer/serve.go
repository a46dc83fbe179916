package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"file-indexer/internal/handlers"
	"file-indexer/internal/indexer"
	"file-indexer/internal/logging"
	"file-indexer/internal/metrics"
	"file-indexer/internal/startup"
)

const (
	shutdownTimeout   = 30 * time.Second
	collectorInterval = time.Minute
)

func (a *app) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the search API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().String("port", "", "HTTP listen port (PORT)")
	_ = a.v.BindPFlag(startup.KeyPort, cmd.Flags().Lookup("port"))
	return cmd
}

// serve runs the HTTP API until ctx is canceled, then shuts down in order:
// HTTP server, background scans, metrics collector, index.
func (a *app) serve(ctx context.Context) error {
	startTime := time.Now()

	startup.PrintBanner()
	startup.LogSystemInfo()
	startup.LogConfig(a.cfg)

	db, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	startup.LogDatabaseInit(time.Since(startTime))

	idx := indexer.New(db, a.cfg.IndexerConfig())
	defer closeIndexer(idx)

	var collector *metrics.Collector
	if a.cfg.MetricsEnabled {
		metrics.InitializeMetrics()
		collector = metrics.NewCollector(db, collectorInterval)
		collector.Start()
	}

	h := handlers.New(ctx, idx)
	router := h.Router(handlers.RouterConfig{
		MetricsEnabled:  a.cfg.MetricsEnabled,
		LogHealthChecks: a.cfg.LogHealthChecks,
	})
	startup.LogHTTPRoutes(router, a.cfg.LogHealthChecks)

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	startup.LogServerStarted(startup.ServerConfig{
		Port:            a.cfg.Port,
		MetricsEnabled:  a.cfg.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	select {
	case err := <-serveErr:
		if collector != nil {
			collector.Stop()
		}
		return err
	case <-ctx.Done():
	}

	startup.LogShutdownInitiated(context.Cause(ctx).Error())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Warn("Server error: %v", err)
	}

	startup.LogShutdownStep("Waiting for running scans")
	idx.Wait()
	startup.LogShutdownStepComplete("Scans stopped")

	if collector != nil {
		startup.LogShutdownStep("Stopping metrics collector")
		collector.Stop()
		startup.LogShutdownStepComplete("Metrics collector stopped")
	}

	startup.LogShutdownComplete()
	return nil
}
