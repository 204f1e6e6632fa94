// Package main provides the media-indexer command.
//
// media-indexer walks a directory of original photos and videos, records
// their metadata in a single JSON (or SQLite) document and renders two JPEG
// previews per file. Each run is incremental: already indexed files are
// kept, new files are added and files that disappeared are removed together
// with their previews.
//
// # Commands
//
//	media-indexer index     run one indexing pass and exit
//	media-indexer serve     index in the background and serve the ops endpoints
//	media-indexer version   print build information
//
// # Application Lifecycle
//
//  1. .env loading (existing environment variables win)
//  2. Configuration Loading: reads environment variables and validates the
//     originals and artifact roots
//  3. Component Initialization: helper-process pool, libvips, metadata
//     store, scanner, extractor, preview generator and the orchestrator
//  4. Indexing: a single run per process; a failed run is retried by serve
//  5. Graceful Shutdown: on SIGINT/SIGTERM the run is cancelled, committed
//     records are flushed and the store is closed
//
// # External Tools
//
// exiftool, ffprobe and ffmpeg are expected on PATH. A missing tool is
// logged at startup; the affected metadata then falls back to in-process
// readers or is recorded as missing.
//
// # Related Packages
//
//   - [media-indexer/internal/indexer]: run orchestration and reconciliation
//   - [media-indexer/internal/media]: scanning, extraction and previews
//   - [media-indexer/internal/database]: catalog and metadata document
//   - [media-indexer/internal/handlers]: ops HTTP endpoints
//   - [media-indexer/internal/startup]: configuration and startup logging
package main
