package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics for the ops server
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_indexer_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_indexer_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Indexer metrics
var (
	IndexerRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_indexer_runs_total",
			Help: "Total number of indexing runs by outcome (success, error, skipped)",
		},
		[]string{"status"},
	)

	IndexerLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_indexer_last_run_timestamp",
			Help: "Timestamp of the last completed indexing run",
		},
	)

	IndexerLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_indexer_last_run_duration_seconds",
			Help: "Duration of the last indexing run in seconds",
		},
	)

	IndexerIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_indexer_running",
			Help: "Whether an indexing run is in progress (1 = running, 0 = idle)",
		},
	)

	IndexerFilesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_indexer_files_processed_total",
			Help: "Files handled by the indexer by outcome (indexed, degraded, failed, removed, repaired)",
		},
		[]string{"status"},
	)

	IndexerPendingFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_indexer_pending_files",
			Help: "Files still waiting to be indexed in the current run",
		},
	)

	IndexerFlushesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_indexer_flushes_total",
			Help: "Metadata document flushes by status",
		},
		[]string{"status"},
	)

	IndexerFlushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_indexer_flush_duration_seconds",
			Help:    "Time taken to persist the metadata document",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	StoreDocumentBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_indexer_store_document_bytes",
			Help: "Size of the last persisted metadata document in bytes",
		},
	)
)

// Scanner metrics
var (
	ScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_indexer_scans_total",
			Help: "Directory scans by status",
		},
		[]string{"status"},
	)

	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_indexer_scan_duration_seconds",
			Help:    "Time taken to walk the originals directory",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
	)

	ScanWarningsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_indexer_scan_warnings_total",
			Help: "Entries skipped during scans because they could not be read",
		},
	)
)

// Extraction and artifact metrics
var (
	ExtractionFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_indexer_extraction_failures_total",
			Help: "Degraded metadata extraction steps by stage and reason",
		},
		[]string{"stage", "reason"},
	)

	ArtifactGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_indexer_artifact_generations_total",
			Help: "Preview generations by size (small, medium) and status",
		},
		[]string{"size", "status"},
	)

	ArtifactGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_indexer_artifact_generation_duration_seconds",
			Help:    "Preview generation duration by size",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"size"},
	)
)

// Helper process metrics
var (
	WorkerPoolSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_indexer_worker_pool_size",
			Help: "Maximum number of concurrent helper processes",
		},
	)

	WorkerPoolInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_indexer_worker_pool_in_flight",
			Help: "Helper processes currently running",
		},
	)

	ToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_indexer_tool_calls_total",
			Help: "External tool invocations by tool and status",
		},
		[]string{"tool", "status"},
	)

	ToolCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_indexer_tool_call_duration_seconds",
			Help:    "External tool wall time including pool wait",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"tool"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_indexer_memory_usage_ratio",
			Help: "Heap usage as a ratio of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_indexer_memory_paused",
			Help: "1 while extraction is paused for memory pressure",
		},
	)

	MemoryPausesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_indexer_memory_pauses_total",
			Help: "Times extraction was paused for memory pressure",
		},
	)
)

// Media library metrics
var (
	MediaRecordsTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_indexer_records_total",
			Help: "Indexed records by media type",
		},
		[]string{"type"}, // "photo", "video", "live-photo-video"
	)

	MediaUndatedTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_indexer_records_undated_total",
			Help: "Indexed records whose capture date could not be determined",
		},
	)
)

// Application info
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_indexer_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_indexer_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation latency by volume and operation",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_indexer_filesystem_operation_errors_total",
			Help: "Filesystem operation errors by volume and operation",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_indexer_filesystem_retry_attempts_total",
			Help: "NFS stale handle retry attempts",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_indexer_filesystem_retry_success_total",
			Help: "Operations that succeeded after retrying a stale handle",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_indexer_filesystem_retry_failures_total",
			Help: "Operations that failed after exhausting stale handle retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_indexer_filesystem_stale_errors_total",
			Help: "ESTALE errors observed",
		},
		[]string{"operation", "volume"},
	)
)
