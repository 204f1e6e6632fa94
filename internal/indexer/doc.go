// Package indexer reconciles an originals tree against the metadata store.
//
// One Orchestrator owns the catalog for the life of the process. A run:
//   - scans the originals root
//   - removes records (and their previews) whose files are gone
//   - extracts metadata for new files, photos before videos so short clips
//     can find the photo they belong to
//   - generates any missing small and medium previews
//   - flushes the catalog every FlushEvery committed files and once at the
//     end
//
// Runs are single-flight. The first successful run is terminal; later
// triggers are no-ops until the process restarts. A run that fails on a
// missing originals root or an unwritable store may be retried.
//
// Per-file failures never abort a run. They are written to the error log
// and the file is attempted again on the next run.
package indexer
