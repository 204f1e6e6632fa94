package database

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"media-indexer/internal/filesystem"
	"media-indexer/internal/logging"
)

// JSONDocument stores records as one indented JSON array.
type JSONDocument struct {
	path string
	now  func() time.Time
}

// NewJSONDocument returns a backend writing to path.
func NewJSONDocument(path string) *JSONDocument {
	return &JSONDocument{path: path, now: time.Now}
}

// Location returns the document path.
func (d *JSONDocument) Location() string {
	return d.path
}

// Load reads the document. A missing or empty file yields no records. A
// document that cannot be decoded is moved aside and treated as empty so
// the next run re-indexes instead of failing forever.
func (d *JSONDocument) Load(_ context.Context) ([]MediaRecord, error) {
	data, err := os.ReadFile(d.path)
	if errors.Is(err, os.ErrNotExist) {
		logging.Info("Metadata document %s not found, starting empty", d.path)
		return nil, nil
	}
	if err != nil {
		return nil, &PersistenceFailure{Path: d.path, Op: "load", Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var records []MediaRecord
	if err := json.Unmarshal(data, &records); err != nil {
		aside := fmt.Sprintf("%s.corrupt-%s", d.path, d.now().UTC().Format("20060102T150405Z"))
		logging.Error("Metadata document %s is unreadable (%v), moving it to %s", d.path, err, aside)
		if renameErr := os.Rename(d.path, aside); renameErr != nil {
			return nil, &PersistenceFailure{Path: d.path, Op: "load", Err: fmt.Errorf("%w (and could not move aside: %v)", err, renameErr)}
		}
		return nil, nil
	}

	return records, nil
}

// Encode returns the exact bytes Save writes for records.
func Encode(records []MediaRecord) ([]byte, error) {
	if records == nil {
		records = []MediaRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Save atomically replaces the document.
func (d *JSONDocument) Save(_ context.Context, records []MediaRecord) error {
	data, err := Encode(records)
	if err != nil {
		return &PersistenceFailure{Path: d.path, Op: "save", Err: err}
	}
	if err := filesystem.WriteFileAtomic(d.path, data, 0o644); err != nil {
		return &PersistenceFailure{Path: d.path, Op: "save", Err: err}
	}
	return nil
}

// Close is a no-op; the document holds no open handles.
func (d *JSONDocument) Close() error {
	return nil
}
