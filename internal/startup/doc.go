// Package startup loads configuration and writes the lifecycle banner logs.
//
// # Configuration
//
// [LoadConfig] reads environment variables, optionally seeded from a .env
// file by [LoadDotEnv]. Variables already set in the environment win.
//
//   - ORIGINAL_PHOTOS: originals root, read only (default: /originals)
//   - GENERATED_THUMBNAILS: artifact root (default: /thumbs)
//   - METADATA_BACKEND: json or sqlite (default: json)
//   - METADATA_FILE: metadata file name under the artifact root
//     (default: metadata.json, or metadata.db for sqlite)
//   - ERRORS_FILE: error log name under the artifact root (default: errors.log)
//   - THUMBNAIL_SIZE / MEDIUM_SIZE: preview widths (default: 300 / 1200)
//   - SMALL_QUALITY / MEDIUM_QUALITY: JPEG quality (default: 80 / 95)
//   - EXIF_MAX_PROCS: helper process limit (default: GOMAXPROCS)
//   - INDEX_WORKERS: files prepared concurrently (default: 1)
//   - FLUSH_EVERY: files committed between flushes (default: 50)
//   - LIVE_PHOTO_MAX_SECONDS: live photo clip threshold (default: 4)
//   - IMAGE_EXTENSIONS / VIDEO_EXTENSIONS: comma-separated extension lists
//   - PORT: ops server port for the serve command (default: 8080)
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//
// Invalid values and an unusable originals or artifact root are reported as
// [*ConfigurationError] before any work starts.
//
// # Build Information
//
// Version, Commit and BuildTime are injected via ldflags and exposed via
// [GetBuildInfo].
package startup
