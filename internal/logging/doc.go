// Package logging provides the leveled process logger and the append-only
// error log used by the indexing pipeline.
//
// Log levels:
//   - DEBUG: Per-file pipeline detail, tool invocations
//   - INFO: Run lifecycle and progress
//   - WARN: Degraded extraction, scan warnings
//   - ERROR: Per-file failures and persistence problems
//   - FATAL: Configuration errors that stop the process
//
// The level is read once from the DEBUG or LOG_LEVEL environment variables
// and can be overridden with SetLevel (used by the --log-level CLI flag).
//
// ErrorLog writes one timestamped line per failure into a file that lives
// next to the generated artifacts. It is never truncated by the pipeline.
package logging
