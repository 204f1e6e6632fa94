// Package database holds the metadata store: the ordered in-memory Catalog
// of indexed records and the Backend that persists it.
//
// Two backends are provided:
//   - JSONDocument: a single JSON array written atomically (temp file,
//     fsync, rename). This is the default and the wire format the gallery
//     front-end reads.
//   - SQLiteStore: the same records in one SQLite table, replaced inside a
//     single transaction per flush.
//
// Either way the whole catalog is written on every flush, so the persisted
// state is always a complete, sorted snapshot.
package database
