package database

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"media-indexer/internal/logging"
	"media-indexer/internal/mediatypes"
)

// ErrDuplicatePath is returned when a record's location is already present.
var ErrDuplicatePath = errors.New("location already indexed")

// storedLess orders records ascending by capture timestamp, ties broken by
// location so the persisted bytes are deterministic.
func storedLess(a, b *MediaRecord) bool {
	if a.CaptureTimestamp != b.CaptureTimestamp {
		return a.CaptureTimestamp < b.CaptureTimestamp
	}
	return a.SourcePath < b.SourcePath
}

// listingLess orders records newest first with undated records last.
func listingLess(a, b *MediaRecord) bool {
	au, bu := a.Undated(), b.Undated()
	if au != bu {
		return bu
	}
	if a.CaptureTimestamp != b.CaptureTimestamp {
		return a.CaptureTimestamp > b.CaptureTimestamp
	}
	return a.SourcePath < b.SourcePath
}

// Catalog is the ordered in-memory collection of records. Records are kept
// sorted after every mutation. It is safe for concurrent use; the indexer
// is its only writer.
type Catalog struct {
	mu      sync.RWMutex
	records []*MediaRecord
	byPath  map[string]*MediaRecord
	byID    map[string]*MediaRecord
}

// NewCatalog builds a catalog from persisted records. Invalid records and
// repeated locations are dropped with a warning; the next flush rewrites the
// document without them.
func NewCatalog(records []MediaRecord) *Catalog {
	c := &Catalog{
		records: make([]*MediaRecord, 0, len(records)),
		byPath:  make(map[string]*MediaRecord, len(records)),
		byID:    make(map[string]*MediaRecord, len(records)),
	}

	for i := range records {
		rec := records[i]
		if err := rec.Validate(); err != nil {
			logging.Warn("Dropping invalid metadata record: %v", err)
			continue
		}
		if _, dup := c.byPath[rec.SourcePath]; dup {
			logging.Warn("Dropping duplicate metadata record for %s", rec.SourcePath)
			continue
		}
		c.index(&rec)
		c.records = append(c.records, &rec)
	}

	sort.SliceStable(c.records, func(i, j int) bool {
		return storedLess(c.records[i], c.records[j])
	})
	return c
}

func (c *Catalog) index(rec *MediaRecord) {
	c.byPath[rec.SourcePath] = rec
	c.byID[rec.ID] = rec
}

// search returns the insertion index for rec in stored order.
func (c *Catalog) search(rec *MediaRecord) int {
	return sort.Search(len(c.records), func(i int) bool {
		return !storedLess(c.records[i], rec)
	})
}

// Add inserts rec at its sorted position.
func (c *Catalog) Add(rec MediaRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, dup := c.byPath[rec.SourcePath]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicatePath, rec.SourcePath)
	}

	r := &rec
	i := c.search(r)
	c.records = append(c.records, nil)
	copy(c.records[i+1:], c.records[i:])
	c.records[i] = r
	c.index(r)
	return nil
}

// Remove deletes the record for path and returns it.
func (c *Catalog) Remove(path string) (MediaRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.byPath[path]
	if !ok {
		return MediaRecord{}, false
	}

	i := c.search(rec)
	for i < len(c.records) && c.records[i] != rec {
		i++
	}
	if i < len(c.records) {
		c.records = append(c.records[:i], c.records[i+1:]...)
	}
	delete(c.byPath, path)
	delete(c.byID, rec.ID)
	return *rec, true
}

// Get returns the record stored for path.
func (c *Catalog) Get(path string) (MediaRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.byPath[path]
	if !ok {
		return MediaRecord{}, false
	}
	return *rec, true
}

// GetByID returns the record with the given guid.
func (c *Catalog) GetByID(id string) (MediaRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.byID[id]
	if !ok {
		return MediaRecord{}, false
	}
	return *rec, true
}

// Contains reports whether path is indexed.
func (c *Catalog) Contains(path string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.byPath[path]
	return ok
}

// Len returns the number of records.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Paths returns the set of indexed locations.
func (c *Catalog) Paths() map[string]struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	paths := make(map[string]struct{}, len(c.byPath))
	for p := range c.byPath {
		paths[p] = struct{}{}
	}
	return paths
}

// Snapshot returns a copy of the records in stored order.
func (c *Catalog) Snapshot() []MediaRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]MediaRecord, len(c.records))
	for i, r := range c.records {
		out[i] = *r
	}
	return out
}

// Listing returns a copy of the records newest first, undated last.
func (c *Catalog) Listing() []MediaRecord {
	out := c.Snapshot()
	sort.SliceStable(out, func(i, j int) bool {
		return listingLess(&out[i], &out[j])
	})
	return out
}

// CountByType returns the number of records per media type and the number
// of undated records.
func (c *Catalog) CountByType() (map[mediatypes.MediaType]int, int) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	counts := make(map[mediatypes.MediaType]int, 3)
	undated := 0
	for _, r := range c.records {
		counts[r.MediaType]++
		if r.Undated() {
			undated++
		}
	}
	return counts, undated
}
