// Package metrics provides Prometheus instrumentation for media-indexer.
//
// All metrics are registered with the default registry through promauto and
// prefixed with "media_indexer_".
//
// # Metric Categories
//
// ## Indexer
//   - IndexerRunsTotal: runs by outcome (success, error, skipped)
//   - IndexerIsRunning, IndexerLastRunTimestamp, IndexerLastRunDuration
//   - IndexerFilesProcessed: files by outcome (indexed, degraded, failed, removed, repaired)
//   - IndexerPendingFiles: files left in the current run
//   - IndexerFlushesTotal, IndexerFlushDuration, StoreDocumentBytes
//
// ## Scanner
//   - ScansTotal, ScanDuration, ScanWarningsTotal
//
// ## Extraction and artifacts
//   - ExtractionFailuresTotal: degraded steps by stage and reason
//   - ArtifactGenerationsTotal, ArtifactGenerationDuration: by preview size
//
// ## Helper processes
//   - WorkerPoolSize, WorkerPoolInFlight
//   - ToolCallsTotal, ToolCallDuration: by tool (exiftool, ffprobe, ffmpeg)
//
// ## Memory
//   - MemoryUsageRatio, MemoryPaused, MemoryPausesTotal
//
// ## HTTP
//   - HTTPRequestsTotal, HTTPRequestDuration: by method and route template
//
// ## Library
//   - MediaRecordsTotal: records by media type
//   - MediaUndatedTotal: records carrying the no-date sentinel
//
// ## Filesystem
//   - FilesystemOperationDuration, FilesystemOperationErrors
//   - FilesystemRetryAttempts, FilesystemRetrySuccess, FilesystemRetryFailures,
//     FilesystemStaleErrors
//
// # Usage
//
// Mount promhttp.Handler() on the ops server:
//
//	mux.Handle("/metrics", promhttp.Handler())
//
// Wire the observers at startup so lower-level packages report without
// importing this one:
//
//	filesystem.SetObserver(metrics.NewFilesystemObserver())
//	pool := workers.NewPool(n, metrics.PoolOptions())
//	runner := workers.NewExecRunner(pool, metrics.NewToolObserver())
//
// # Collector
//
// A [Collector] periodically reads library statistics from a
// [StatsProvider] and updates the record gauges:
//
//	collector := metrics.NewCollector(orchestrator, time.Minute)
//	collector.Start()
//	defer collector.Stop()
//
// # Prometheus Queries
//
// Extraction degradation rate by reason:
//
//	sum(rate(media_indexer_extraction_failures_total[1h])) by (reason)
//
// Preview failure ratio:
//
//	sum(rate(media_indexer_artifact_generations_total{status="error"}[1h])) /
//	sum(rate(media_indexer_artifact_generations_total[1h]))
package metrics
