package main

import (
	"context"
	"fmt"
	"time"

	"media-indexer/internal/database"
	"media-indexer/internal/filesystem"
	"media-indexer/internal/indexer"
	"media-indexer/internal/logging"
	"media-indexer/internal/media"
	"media-indexer/internal/memory"
	"media-indexer/internal/mediatypes"
	"media-indexer/internal/metrics"
	"media-indexer/internal/startup"
	"media-indexer/internal/workers"
)

var helperTools = []string{"exiftool", "ffprobe", "ffmpeg"}

// app holds the wired components for one process.
type app struct {
	config  *startup.Config
	pool    *workers.Pool
	monitor *memory.Monitor
	store   *database.Store
	indexer *indexer.Orchestrator

	abandoned bool
}

// newApp wires every component from a validated config. The caller must
// call Close.
func newApp(ctx context.Context, config *startup.Config) (*app, error) {
	memory.ConfigureLimit()

	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"originals": config.OriginalsDir,
		"artifacts": config.ArtifactsDir,
	}))

	metrics.InitializeMetrics()
	metrics.AppInfo.WithLabelValues(startup.Version, startup.Commit, startup.GoVersion).Set(1)

	startup.LogToolsInit(config.MaxProcs, helperTools...)
	pool := workers.NewPool(config.MaxProcs, metrics.PoolOptions())
	metrics.WorkerPoolSize.Set(float64(pool.Size()))
	runner := workers.NewExecRunner(pool, metrics.NewToolObserver())

	storeStart := time.Now()
	backend, err := database.OpenBackend(ctx, config.MetadataBackend, config.MetadataPath)
	if err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("failed to open metadata store: %w", err)
	}
	store := database.NewStore(backend)
	startup.LogStoreInit(config.MetadataBackend, backend.Location(), time.Since(storeStart))

	monitor := memory.NewMonitor(memory.DefaultConfig())

	classifier := mediatypes.NewClassifier(config.ImageExtensions, config.VideoExtensions)

	startup.LogIndexerInit(config)
	idx, err := indexer.New(indexer.Options{
		Scanner:             media.NewScanner(config.OriginalsDir, classifier),
		Store:               store,
		Extractor:           media.NewExtractor(runner),
		Generator:           media.NewGenerator(runner),
		Layout:              media.NewLayout(config.ArtifactsDir),
		ErrorLog:            logging.NewErrorLog(config.ErrorLogPath),
		Backpressure:        monitor,
		SmallWidth:          config.SmallWidth,
		MediumWidth:         config.MediumWidth,
		SmallQuality:        config.SmallQuality,
		MediumQuality:       config.MediumQuality,
		FlushEvery:          config.FlushEvery,
		Workers:             config.IndexWorkers,
		LivePhotoMaxSeconds: config.LivePhotoMaxSeconds,
	})
	if err != nil {
		_ = store.Close()
		_ = pool.Close()
		return nil, err
	}

	monitor.Start()
	return &app{config: config, pool: pool, monitor: monitor, store: store, indexer: idx}, nil
}

// Abandon makes Close leave the store and pool to a run that is still in
// flight.
func (a *app) Abandon() {
	a.abandoned = true
}

// Close releases the store and waits for helper processes to exit.
func (a *app) Close() {
	a.monitor.Stop()
	if a.abandoned {
		logging.Warn("Indexer still running, leaving metadata store and helper-process pool open")
		return
	}

	startup.LogShutdownStep("Closing metadata store")
	if err := a.store.Close(); err != nil {
		logging.Warn("Metadata store close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Metadata store closed")
	}

	startup.LogShutdownStep("Stopping helper-process pool")
	if err := a.pool.Close(); err != nil {
		logging.Warn("Worker pool close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Helper-process pool stopped")
	}
}

// logRunResult prints the summary of a finished run.
func logRunResult(result indexer.RunResult) {
	if result.Skipped {
		logging.Info("Indexing skipped: a run is already in progress or done")
		return
	}
	logging.Info("Indexing complete in %v: scanned=%d added=%d removed=%d failed=%d degraded=%d repaired=%d artifactFailures=%d flushes=%d",
		result.Duration.Round(time.Millisecond), result.Scanned, result.Added, result.Removed,
		result.Failed, result.Degraded, result.Repaired, result.ArtifactFailures, result.Flushes)
}
