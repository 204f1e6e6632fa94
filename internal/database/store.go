package database

import (
	"context"
	"time"

	"media-indexer/internal/logging"
	"media-indexer/internal/metrics"
)

// Store pairs the in-memory Catalog with its Backend. It loads once and
// writes the whole catalog on every Flush.
type Store struct {
	backend Backend
	catalog *Catalog
	flushes int
}

// NewStore wraps backend. Call Load before using Catalog.
func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// Load reads the persisted records on first call and returns the catalog.
// Later calls return the same catalog without touching the backend.
func (s *Store) Load(ctx context.Context) (*Catalog, error) {
	if s.catalog != nil {
		return s.catalog, nil
	}

	records, err := s.backend.Load(ctx)
	if err != nil {
		return nil, err
	}

	s.catalog = NewCatalog(records)
	logging.Info("Loaded %d metadata records from %s", s.catalog.Len(), s.backend.Location())
	return s.catalog, nil
}

// Catalog returns the loaded catalog, or nil before Load.
func (s *Store) Catalog() *Catalog {
	return s.catalog
}

// Flush persists the current catalog snapshot.
func (s *Store) Flush(ctx context.Context) error {
	if s.catalog == nil {
		return nil
	}

	start := time.Now()
	records := s.catalog.Snapshot()

	if err := s.backend.Save(ctx, records); err != nil {
		metrics.IndexerFlushesTotal.WithLabelValues("error").Inc()
		logging.Error("Failed to persist %d records to %s: %v", len(records), s.backend.Location(), err)
		return err
	}

	s.flushes++
	metrics.IndexerFlushesTotal.WithLabelValues("success").Inc()
	metrics.IndexerFlushDuration.Observe(time.Since(start).Seconds())
	if data, err := Encode(records); err == nil {
		metrics.StoreDocumentBytes.Set(float64(len(data)))
	}

	logging.Debug("Flushed %d records to %s in %v", len(records), s.backend.Location(), time.Since(start))
	return nil
}

// Flushes returns how many successful flushes this store performed.
func (s *Store) Flushes() int {
	return s.flushes
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
