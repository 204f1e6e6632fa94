package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"media-indexer/internal/metrics"
)

type failingBackend struct {
	saveErr error
	saves   int
}

func (f *failingBackend) Load(context.Context) ([]MediaRecord, error) { return nil, nil }
func (f *failingBackend) Save(context.Context, []MediaRecord) error {
	f.saves++
	return f.saveErr
}
func (f *failingBackend) Location() string { return "memory" }
func (f *failingBackend) Close() error     { return nil }

func TestStoreLoadOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")
	ctx := context.Background()

	if err := NewJSONDocument(path).Save(ctx, sampleRecords()); err != nil {
		t.Fatal(err)
	}

	s := NewStore(NewJSONDocument(path))
	first, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	second, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("Expected the same catalog on repeated Load")
	}
	if first.Len() != 2 {
		t.Errorf("Expected 2 records, got %d", first.Len())
	}
}

func TestStoreFlushCountsAndMetrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")
	ctx := context.Background()
	s := NewStore(NewJSONDocument(path))

	if err := s.Flush(ctx); err != nil {
		t.Fatalf("Flush before Load should be a no-op, got %v", err)
	}

	c, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Add(record("/o/a.jpg", "2020-01-01 00:00:00")); err != nil {
		t.Fatal(err)
	}

	before := testutil.ToFloat64(metrics.IndexerFlushesTotal.WithLabelValues("success"))
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	after := testutil.ToFloat64(metrics.IndexerFlushesTotal.WithLabelValues("success"))

	if after-before != 1 {
		t.Errorf("Expected one successful flush counted, got %v", after-before)
	}
	if s.Flushes() != 1 {
		t.Errorf("Flushes() = %d, want 1", s.Flushes())
	}
	if testutil.ToFloat64(metrics.StoreDocumentBytes) <= 0 {
		t.Error("Expected document size gauge to be set")
	}
}

func TestStoreFlushPropagatesFailure(t *testing.T) {
	backend := &failingBackend{saveErr: &PersistenceFailure{Path: "memory", Op: "save", Err: errors.New("disk full")}}
	s := NewStore(backend)
	ctx := context.Background()

	if _, err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}

	err := s.Flush(ctx)
	var pf *PersistenceFailure
	if !errors.As(err, &pf) {
		t.Fatalf("Expected PersistenceFailure, got %v", err)
	}
	if s.Flushes() != 0 {
		t.Errorf("Failed flush must not be counted, got %d", s.Flushes())
	}
	if backend.saves != 1 {
		t.Errorf("Expected one save attempt, got %d", backend.saves)
	}
}
