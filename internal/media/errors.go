package media

import (
	"errors"
	"fmt"
)

// ErrDirectoryUnavailable is returned when the originals root is missing or
// not a directory.
var ErrDirectoryUnavailable = errors.New("directory unavailable")

// ScanWarning describes an entry the scanner had to skip.
type ScanWarning struct {
	Path string
	Err  error
}

func (w ScanWarning) Error() string {
	return fmt.Sprintf("skipped %s: %v", w.Path, w.Err)
}

func (w ScanWarning) Unwrap() error {
	return w.Err
}

// FailureStage names the extraction step that degraded.
type FailureStage string

const (
	StageDimensions FailureStage = "dimensions"
	StageTimestamp  FailureStage = "timestamp"
	StageDuration   FailureStage = "duration"
)

// FailureReason classifies why an extraction step degraded.
type FailureReason string

const (
	ReasonToolMissing FailureReason = "tool-missing"
	ReasonToolFailed  FailureReason = "tool-failed"
	ReasonNoTag       FailureReason = "no-tag"
	ReasonUnreadable  FailureReason = "unreadable"
	ReasonUnsupported FailureReason = "unsupported"
)

// ExtractionFailure records one degraded extraction step. The record is
// still created with sentinel or zero values.
type ExtractionFailure struct {
	Path   string
	Stage  FailureStage
	Reason FailureReason
	Err    error
}

func (e *ExtractionFailure) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s extraction for %s: %s", e.Stage, e.Path, e.Reason)
	}
	return fmt.Sprintf("%s extraction for %s: %s: %v", e.Stage, e.Path, e.Reason, e.Err)
}

func (e *ExtractionFailure) Unwrap() error {
	return e.Err
}

// ArtifactGenerationFailure is returned when a preview could not be written.
// The artifact stays absent and is retried on the next run.
type ArtifactGenerationFailure struct {
	Source string
	Size   ArtifactSize
	Err    error
}

func (e *ArtifactGenerationFailure) Error() string {
	return fmt.Sprintf("generate %s preview for %s: %v", e.Size, e.Source, e.Err)
}

func (e *ArtifactGenerationFailure) Unwrap() error {
	return e.Err
}
