package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ErrorLog is an append-only, timestamped log of per-file pipeline failures.
type ErrorLog struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewErrorLog returns an ErrorLog writing to path. The file is created on
// the first Record call.
func NewErrorLog(path string) *ErrorLog {
	return &ErrorLog{path: path, now: time.Now}
}

// Path returns the log file location.
func (l *ErrorLog) Path() string {
	return l.path
}

// Record appends one line describing a failure for the given source file.
// Write problems are reported through the process logger and otherwise
// ignored so that a full disk never stops indexing of other files.
func (l *ErrorLog) Record(message, source string, cause error) {
	if l == nil {
		return
	}

	line := formatLine(l.now(), message, source, cause)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		Error("failed to create error log directory for %s: %v", l.path, err)
		return
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		Error("failed to open error log %s: %v", l.path, err)
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			Warn("failed to close error log %s: %v", l.path, err)
		}
	}()

	if _, err := f.WriteString(line); err != nil {
		Error("failed to append to error log %s: %v", l.path, err)
	}
}

func formatLine(at time.Time, message, source string, cause error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s: %s", at.UTC().Format(time.RFC3339), message, source)
	if cause != nil {
		// Keep one line per failure even when tools print multi-line stderr.
		fmt.Fprintf(&b, ". Error: %s", strings.ReplaceAll(cause.Error(), "\n", " "))
	}
	b.WriteString("\n")
	return b.String()
}
