package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, status := range []string{"success", "error", "skipped"} {
		IndexerRunsTotal.WithLabelValues(status)
	}

	for _, status := range []string{"indexed", "degraded", "failed", "removed", "repaired"} {
		IndexerFilesProcessed.WithLabelValues(status)
	}

	for _, status := range []string{"success", "error"} {
		IndexerFlushesTotal.WithLabelValues(status)
		ScansTotal.WithLabelValues(status)
	}

	// --- Extraction failures (stage × reason) ---
	for _, stage := range []string{"dimensions", "timestamp", "duration"} {
		for _, reason := range []string{"tool-missing", "tool-failed", "no-tag", "unreadable", "unsupported"} {
			ExtractionFailuresTotal.WithLabelValues(stage, reason)
		}
	}

	// --- Artifact generation (size × status) ---
	for _, size := range []string{"small", "medium"} {
		ArtifactGenerationsTotal.WithLabelValues(size, "success")
		ArtifactGenerationsTotal.WithLabelValues(size, "error")
		ArtifactGenerationDuration.WithLabelValues(size)
	}

	// --- Helper tools ---
	for _, tool := range []string{"exiftool", "ffprobe", "ffmpeg"} {
		ToolCallsTotal.WithLabelValues(tool, "success")
		ToolCallsTotal.WithLabelValues(tool, "error")
		ToolCallDuration.WithLabelValues(tool)
	}

	for _, t := range []string{"photo", "video", "live-photo-video"} {
		MediaRecordsTotal.WithLabelValues(t)
	}

	// --- Filesystem operation metrics (per volume × operation) ---
	volumes := []string{"originals", "artifacts", "unknown"}
	fsOps := []string{"stat", "open", "readdir", "write"}

	for _, vol := range volumes {
		for _, op := range fsOps {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
		}
	}
}
