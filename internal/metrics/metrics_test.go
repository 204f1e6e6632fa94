package metrics

import (
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRegistered(t *testing.T) {
	tests := []struct {
		name      string
		collector prometheus.Collector
	}{
		{"IndexerRunsTotal", IndexerRunsTotal},
		{"IndexerIsRunning", IndexerIsRunning},
		{"IndexerFilesProcessed", IndexerFilesProcessed},
		{"IndexerFlushesTotal", IndexerFlushesTotal},
		{"IndexerFlushDuration", IndexerFlushDuration},
		{"ScansTotal", ScansTotal},
		{"ScanWarningsTotal", ScanWarningsTotal},
		{"ExtractionFailuresTotal", ExtractionFailuresTotal},
		{"ArtifactGenerationsTotal", ArtifactGenerationsTotal},
		{"WorkerPoolInFlight", WorkerPoolInFlight},
		{"ToolCallsTotal", ToolCallsTotal},
		{"MediaRecordsTotal", MediaRecordsTotal},
		{"FilesystemOperationDuration", FilesystemOperationDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := prometheus.Register(tt.collector)
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				t.Errorf("%s should already be registered with the default registry, got %v", tt.name, err)
			}
		})
	}
}

func TestInitializeMetrics_PrePopulatesLabels(t *testing.T) {
	InitializeMetrics()

	if n := testutil.CollectAndCount(ExtractionFailuresTotal); n < 15 {
		t.Errorf("ExtractionFailuresTotal series = %d, want >= 15", n)
	}
	if n := testutil.CollectAndCount(ArtifactGenerationsTotal); n < 4 {
		t.Errorf("ArtifactGenerationsTotal series = %d, want >= 4", n)
	}
	if n := testutil.CollectAndCount(IndexerRunsTotal); n < 3 {
		t.Errorf("IndexerRunsTotal series = %d, want >= 3", n)
	}
}

func TestFilesystemObserver(t *testing.T) {
	obs := NewFilesystemObserver()

	before := testutil.ToFloat64(FilesystemOperationErrors.WithLabelValues("originals", "stat"))
	obs.ObserveOperation("originals", "stat", 0.001, errors.New("boom"))
	obs.ObserveOperation("originals", "stat", 0.001, nil)
	after := testutil.ToFloat64(FilesystemOperationErrors.WithLabelValues("originals", "stat"))

	if after-before != 1 {
		t.Errorf("error counter delta = %v, want 1", after-before)
	}

	staleBefore := testutil.ToFloat64(FilesystemStaleErrors.WithLabelValues("open", "artifacts"))
	obs.ObserveStaleError("open", "artifacts")
	if got := testutil.ToFloat64(FilesystemStaleErrors.WithLabelValues("open", "artifacts")) - staleBefore; got != 1 {
		t.Errorf("stale counter delta = %v, want 1", got)
	}
}

func TestToolObserver(t *testing.T) {
	obs := NewToolObserver()

	okBefore := testutil.ToFloat64(ToolCallsTotal.WithLabelValues("ffprobe", "success"))
	errBefore := testutil.ToFloat64(ToolCallsTotal.WithLabelValues("ffprobe", "error"))

	obs.ObserveToolCall("ffprobe", 0.2, nil)
	obs.ObserveToolCall("ffprobe", 0.2, errors.New("exit status 1"))

	if d := testutil.ToFloat64(ToolCallsTotal.WithLabelValues("ffprobe", "success")) - okBefore; d != 1 {
		t.Errorf("success delta = %v, want 1", d)
	}
	if d := testutil.ToFloat64(ToolCallsTotal.WithLabelValues("ffprobe", "error")) - errBefore; d != 1 {
		t.Errorf("error delta = %v, want 1", d)
	}
}

func TestPoolOptions_SetsInFlightGauge(t *testing.T) {
	opts := PoolOptions()
	opts.OnInFlight(3)
	if got := testutil.ToFloat64(WorkerPoolInFlight); got != 3 {
		t.Errorf("WorkerPoolInFlight = %v, want 3", got)
	}
	opts.OnInFlight(0)
}

func TestMetricNamesPrefixed(t *testing.T) {
	expected := `
# HELP media_indexer_records_undated_total Indexed records whose capture date could not be determined
# TYPE media_indexer_records_undated_total gauge
media_indexer_records_undated_total 7
`
	MediaUndatedTotal.Set(7)
	defer MediaUndatedTotal.Set(0)

	if err := testutil.CollectAndCompare(MediaUndatedTotal, strings.NewReader(expected)); err != nil {
		t.Error(err)
	}
}
