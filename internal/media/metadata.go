package media

import (
	"context"
	"errors"
	"image"
	"io/fs"

	"media-indexer/internal/logging"
	"media-indexer/internal/mediatypes"
	"media-indexer/internal/metrics"
	"media-indexer/internal/workers"
)

// Extraction is the outcome of reading one file's metadata. Failed steps
// leave zero dimensions, a nil duration or the SentinelNoDate timestamp and
// are listed in Failures.
type Extraction struct {
	Width            int
	Height           int
	DurationSeconds  *float64
	CaptureTimestamp string
	Failures         []*ExtractionFailure
}

// Degraded reports whether any step fell back to a default value.
func (e *Extraction) Degraded() bool {
	return len(e.Failures) > 0
}

func (e *Extraction) fail(path string, stage FailureStage, err error) {
	f := &ExtractionFailure{Path: path, Stage: stage, Reason: failureReason(err), Err: err}
	metrics.ExtractionFailuresTotal.WithLabelValues(string(f.Stage), string(f.Reason)).Inc()
	e.Failures = append(e.Failures, f)
}

func failureReason(err error) FailureReason {
	var toolErr *workers.ToolError
	var pathErr *fs.PathError

	switch {
	case errors.Is(err, workers.ErrToolMissing):
		return ReasonToolMissing
	case errors.Is(err, errNoTag):
		return ReasonNoTag
	case errors.As(err, &toolErr), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ReasonToolFailed
	case errors.Is(err, errVipsUnavailable), errors.Is(err, image.ErrFormat):
		return ReasonUnsupported
	case errors.As(err, &pathErr):
		return ReasonUnreadable
	default:
		return ReasonUnreadable
	}
}

// Extractor reads dimensions, capture timestamps and durations. It never
// returns an error; degraded steps are reported inside the Extraction.
type Extractor struct {
	runner workers.Runner
}

// NewExtractor returns an Extractor that invokes exiftool and ffprobe
// through runner.
func NewExtractor(runner workers.Runner) *Extractor {
	return &Extractor{runner: runner}
}

// ImageProperties extracts orientation-corrected dimensions and the
// DateTimeOriginal capture timestamp of a still image.
func (x *Extractor) ImageProperties(ctx context.Context, path string) Extraction {
	ex := Extraction{CaptureTimestamp: mediatypes.SentinelNoDate}

	dims, err := GetImageDimensions(path)
	if err != nil {
		logging.Debug("dimensions unavailable for %s: %v", path, err)
		ex.fail(path, StageDimensions, err)
	} else {
		ex.Width, ex.Height = dims.Width, dims.Height
	}

	ts, err := x.captureDate(ctx, path)
	if err != nil {
		ex.fail(path, StageTimestamp, err)
	} else {
		ex.CaptureTimestamp = ts
	}

	return ex
}

// VideoProperties probes a video once for dimensions, duration and creation
// time. When the container has no creation_time, exiftool is consulted.
func (x *Extractor) VideoProperties(ctx context.Context, path string) Extraction {
	ex := Extraction{CaptureTimestamp: mediatypes.SentinelNoDate}

	info, err := x.probeVideo(ctx, path)
	if err != nil {
		logging.Debug("ffprobe failed for %s: %v", path, err)
		ex.fail(path, StageDimensions, err)
		ex.fail(path, StageDuration, err)
		info = &VideoInfo{}
	} else {
		ex.Width, ex.Height = info.Width, info.Height
		if info.Width == 0 || info.Height == 0 {
			ex.fail(path, StageDimensions, errNoTag)
		}
		ex.DurationSeconds = info.Duration
		if info.Duration == nil {
			ex.fail(path, StageDuration, errNoTag)
		}
	}

	if info.CreationTime != "" {
		ex.CaptureTimestamp = info.CreationTime
		return ex
	}

	ts, err := x.exiftoolDate(ctx, path)
	if err != nil {
		ex.fail(path, StageTimestamp, err)
	} else {
		ex.CaptureTimestamp = ts
	}
	return ex
}

// captureDate prefers exiftool. When exiftool is missing, crashes or emits
// unparseable output the EXIF block is read in-process instead; a clean
// exiftool answer without the tag is final.
func (x *Extractor) captureDate(ctx context.Context, path string) (string, error) {
	ts, err := x.exiftoolDate(ctx, path)
	if err == nil || errors.Is(err, errNoTag) {
		return ts, err
	}
	if ctx.Err() != nil {
		return "", err
	}

	fallback, fbErr := goexifDate(path)
	if fbErr != nil {
		logging.Debug("exiftool failed for %s (%v) and in-process EXIF read failed: %v", path, err, fbErr)
		return "", err
	}

	logging.Debug("exiftool failed for %s (%v), using in-process EXIF date", path, err)
	return fallback, nil
}
