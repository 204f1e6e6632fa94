package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"media-indexer/internal/handlers"
	"media-indexer/internal/indexer"
	"media-indexer/internal/logging"
	"media-indexer/internal/media"
	"media-indexer/internal/metrics"
	"media-indexer/internal/middleware"
	"media-indexer/internal/startup"
)

const (
	shutdownTimeout   = 30 * time.Second
	collectorInterval = time.Minute
)

// ServeCmd indexes in the background and serves the ops endpoints.
type ServeCmd struct {
	Port          string        `help:"Port to listen on. Overrides PORT."`
	RetryInterval time.Duration `name:"retry-interval" help:"Delay before retrying a failed indexing run." default:"1m"`
}

// indexRunner is the part of the orchestrator the background loop uses.
type indexRunner interface {
	Run(ctx context.Context) (indexer.RunResult, error)
	Done() <-chan struct{}
}

// indexInBackground runs idx until one run succeeds or ctx is done. Failed
// runs leave the orchestrator retryable and are attempted again after
// retryInterval. A skipped run belongs to another trigger, so the loop
// waits for it to succeed and retries if it does not.
func indexInBackground(ctx context.Context, idx indexRunner, retryInterval time.Duration) {
	for {
		result, err := idx.Run(ctx)
		switch {
		case err == nil && !result.Skipped:
			logRunResult(result)
			return
		case err == nil:
			logging.Debug("Index run owned by another caller, waiting")
		case ctx.Err() != nil:
			logging.Info("Indexing stopped: %v", err)
			return
		default:
			logging.Error("Indexing failed, retrying in %v: %v", retryInterval, err)
		}

		select {
		case <-ctx.Done():
			return
		case <-idx.Done():
			return
		case <-time.After(retryInterval):
		}
	}
}

// waitIndexer cancels the run and reports whether it stopped before
// timeout.
func waitIndexer(cancel context.CancelFunc, indexDone <-chan struct{}, timeout <-chan struct{}) bool {
	cancel()
	select {
	case <-indexDone:
		return true
	case <-timeout:
		return false
	}
}

func (c *ServeCmd) Run() error {
	startTime := time.Now()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config, err := startup.LoadConfig()
	if err != nil {
		return err
	}
	if c.Port != "" {
		config.Port = c.Port
	}

	if err := media.InitVips(); err != nil {
		logging.Warn("libvips unavailable, HEIC previews disabled: %v", err)
	}
	indexStopped := true
	defer func() {
		if indexStopped {
			media.ShutdownVips()
		}
	}()

	a, err := newApp(ctx, config)
	if err != nil {
		return err
	}
	defer a.Close()

	collector := metrics.NewCollector(a.indexer, collectorInterval)
	collector.Start()

	indexCtx, cancelIndex := context.WithCancel(ctx)
	indexDone := make(chan struct{})
	go func() {
		defer close(indexDone)
		indexInBackground(indexCtx, a.indexer, c.RetryInterval)
	}()

	router := handlers.New(a.indexer).Router()
	router.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	startup.LogHTTPRoutes(router)

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           middleware.Logger(middleware.DefaultLoggingConfig())(router),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		StartupDuration: time.Since(startTime),
	})

	var runErr error
	select {
	case <-ctx.Done():
		startup.LogShutdownInitiated("signal")
	case err := <-serverErr:
		startup.LogShutdownInitiated("server error")
		runErr = err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Stopping metrics collector")
	collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	// Cancelling the run flushes every committed record
	startup.LogShutdownStep("Stopping indexer")
	if waitIndexer(cancelIndex, indexDone, shutdownCtx.Done()) {
		startup.LogShutdownStepComplete("Indexer stopped")
	} else {
		// The run may still be flushing; its store and pool stay open.
		logging.Warn("Indexer did not stop within %v", shutdownTimeout)
		indexStopped = false
		a.Abandon()
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
	return runErr
}
