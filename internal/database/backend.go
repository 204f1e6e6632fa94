package database

import (
	"context"
	"fmt"
	"strings"
)

// Backend persists the full record list.
type Backend interface {
	// Load returns the persisted records, or nil when nothing has been
	// written yet.
	Load(ctx context.Context) ([]MediaRecord, error)
	// Save replaces the persisted records with records.
	Save(ctx context.Context, records []MediaRecord) error
	// Location describes where the records live, for logs.
	Location() string
	Close() error
}

// Backend kinds accepted by OpenBackend.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// OpenBackend returns the backend of the given kind stored at path.
func OpenBackend(ctx context.Context, kind, path string) (Backend, error) {
	switch strings.ToLower(kind) {
	case "", BackendJSON:
		return NewJSONDocument(path), nil
	case BackendSQLite:
		return OpenSQLite(ctx, path)
	default:
		return nil, fmt.Errorf("unknown metadata backend %q", kind)
	}
}
