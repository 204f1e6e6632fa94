/*
Package filesystem provides the filesystem primitives the indexing pipeline
relies on: NFS-tolerant stat/open/readdir and crash-safe atomic file writes.

# Retry Behavior

Photo libraries commonly live on NFS shares. StatWithRetry, OpenWithRetry and
ReadDirWithRetry retry only on ESTALE (stale file handle) with exponential
backoff:
  - MaxRetries: 3 attempts
  - InitialBackoff: 50ms
  - MaxBackoff: 500ms

All other errors fail immediately.

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

# Atomic Writes

WriteFileAtomic writes to a temporary file in the destination directory,
fsyncs it, renames it over the destination and then fsyncs the directory on
a best-effort basis. A crash at any point leaves either the previous
document or the new one, never a truncated mix.

	err := filesystem.WriteFileAtomic("/thumbs/metadata.json", data, 0o644)

# Metrics

Operations report through an Observer set once at startup with SetObserver.
The metrics package provides the Prometheus implementation; with no observer
set, recording is skipped.
*/
package filesystem
