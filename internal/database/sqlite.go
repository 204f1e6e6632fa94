package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"media-indexer/internal/logging"
	"media-indexer/internal/mediatypes"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// SQLiteStore keeps records in a single table. Row order is the catalog's
// stored order.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the database file at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	logging.Info("Metadata database path: %s", path)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &PersistenceFailure{Path: path, Op: "open", Err: err}
	}

	// busy_timeout helps prevent "database is locked" errors
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=FULL&_busy_timeout=5000", path)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, &PersistenceFailure{Path: path, Op: "open", Err: err}
	}

	// A single writer; the indexer never issues concurrent statements.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, &PersistenceFailure{Path: path, Op: "open", Err: err}
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, &PersistenceFailure{Path: path, Op: "open", Err: fmt.Errorf("initialize schema: %w", err)}
	}

	return s, nil
}

func (s *SQLiteStore) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS media_records (
		position INTEGER NOT NULL,
		guid TEXT PRIMARY KEY,
		location TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		width INTEGER NOT NULL DEFAULT 0,
		height INTEGER NOT NULL DEFAULT 0,
		length_seconds REAL,
		date_taken TEXT NOT NULL,
		size_kb INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_media_records_position ON media_records(position);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Location returns the database file path.
func (s *SQLiteStore) Location() string {
	return s.path
}

// Load reads every record in stored order.
func (s *SQLiteStore) Load(ctx context.Context) ([]MediaRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT guid, location, name, type, width, height, length_seconds, date_taken, size_kb
		FROM media_records
		ORDER BY position
	`)
	if err != nil {
		return nil, &PersistenceFailure{Path: s.path, Op: "load", Err: err}
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Warn("failed to close rows: %v", err)
		}
	}()

	var records []MediaRecord
	for rows.Next() {
		var rec MediaRecord
		var mediaType string
		var length sql.NullFloat64

		if err := rows.Scan(&rec.ID, &rec.SourcePath, &rec.DisplayName, &mediaType,
			&rec.Width, &rec.Height, &length, &rec.CaptureTimestamp, &rec.SizeKB); err != nil {
			return nil, &PersistenceFailure{Path: s.path, Op: "load", Err: err}
		}

		rec.MediaType = mediatypes.MediaType(mediaType)
		if length.Valid {
			v := length.Float64
			rec.DurationSeconds = &v
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceFailure{Path: s.path, Op: "load", Err: err}
	}

	return records, nil
}

// Save replaces the table contents in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, records []MediaRecord) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &PersistenceFailure{Path: s.path, Op: "save", Err: err}
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error("failed to rollback metadata transaction: %v", rbErr)
			}
			err = &PersistenceFailure{Path: s.path, Op: "save", Err: err}
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM media_records`); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO media_records
			(position, guid, location, name, type, width, height, length_seconds, date_taken, size_kb)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			logging.Warn("failed to close statement: %v", closeErr)
		}
	}()

	for i, rec := range records {
		var length sql.NullFloat64
		if rec.DurationSeconds != nil {
			length = sql.NullFloat64{Float64: *rec.DurationSeconds, Valid: true}
		}
		if _, err = stmt.ExecContext(ctx, i, rec.ID, rec.SourcePath, rec.DisplayName, string(rec.MediaType),
			rec.Width, rec.Height, length, rec.CaptureTimestamp, rec.SizeKB); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
