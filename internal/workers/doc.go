/*
Package workers sizes and runs the bounded pool that every external helper
process (exiftool, ffprobe, ffmpeg) goes through.

# Sizing

Count uses GOMAXPROCS rather than runtime.NumCPU so that container CPU limits
are respected (Go 1.19+ sets GOMAXPROCS from the cgroup quota):

	// Kubernetes pod with a 2 CPU limit on a 64-core node
	runtime.NumCPU()      // 64
	runtime.GOMAXPROCS(0) // 2

ForCPU is the default pool size when EXIF_MAX_PROCS is not configured.

# Pool

A Pool owns a fixed set of goroutines reading from a task channel. Submit
blocks until the task has run and returns its error, so callers keep a plain
sequential shape while concurrency stays bounded process-wide:

	pool := workers.NewPool(workers.ForCPU(0), workers.PoolOptions{})
	defer pool.Close()

	err := pool.Submit(ctx, func(ctx context.Context) error {
	    return doWork(ctx)
	})

Panics inside a task are recovered and returned as errors. Submit after Close
returns ErrPoolClosed.

# Tool Runner

ExecRunner implements Runner by executing a command on the pool and
collecting stdout. A binary that is not on PATH yields ErrToolMissing; a
non-zero exit yields a *ToolError carrying the captured stderr. Tests inject
their own Runner to avoid depending on installed binaries.
*/
package workers
