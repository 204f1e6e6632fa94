package workers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"media-indexer/internal/logging"
)

// ErrToolMissing indicates the helper binary could not be found on PATH.
var ErrToolMissing = errors.New("tool not installed")

// Runner executes an external tool and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ToolError is returned when a helper process exits unsuccessfully.
type ToolError struct {
	Tool   string
	Stderr string
	Err    error
}

func (e *ToolError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s failed: %v (stderr: %s)", e.Tool, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// ToolObserver records helper process calls.
type ToolObserver interface {
	ObserveToolCall(tool string, durationSeconds float64, err error)
}

// ExecRunner runs helper processes through a Pool.
type ExecRunner struct {
	pool     *Pool
	observer ToolObserver
	lookPath func(string) (string, error)
}

// NewExecRunner returns a Runner backed by pool. observer may be nil.
func NewExecRunner(pool *Pool, observer ToolObserver) *ExecRunner {
	return &ExecRunner{
		pool:     pool,
		observer: observer,
		lookPath: exec.LookPath,
	}
}

// Run executes name with args on the pool.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	bin, err := r.lookPath(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrToolMissing, name)
	}

	var stdout []byte
	start := time.Now()

	err = r.pool.Submit(ctx, func(ctx context.Context) error {
		cmd := exec.CommandContext(ctx, bin, args...)

		var out, stderr bytes.Buffer
		cmd.Stdout = &out
		cmd.Stderr = &stderr

		if runErr := cmd.Run(); runErr != nil {
			return &ToolError{
				Tool:   name,
				Stderr: strings.TrimSpace(stderr.String()),
				Err:    runErr,
			}
		}

		stdout = out.Bytes()
		return nil
	})

	if r.observer != nil {
		r.observer.ObserveToolCall(name, time.Since(start).Seconds(), err)
	}
	if err != nil {
		logging.Debug("%s %s: %v", name, strings.Join(args, " "), err)
		return nil, err
	}

	return stdout, nil
}
