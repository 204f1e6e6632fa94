package media

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"media-indexer/internal/mediatypes"
	"media-indexer/internal/workers"
)

func exiftoolReturning(date string) func(string, []string) ([]byte, error) {
	return func(name string, args []string) ([]byte, error) {
		if name != "exiftool" {
			return nil, fmt.Errorf("unexpected tool %s", name)
		}
		path := args[len(args)-1]
		if date == "" {
			return []byte(fmt.Sprintf(`[{"SourceFile":%q}]`, path)), nil
		}
		return []byte(fmt.Sprintf(`[{"SourceFile":%q,"DateTimeOriginal":%q}]`, path, date)), nil
	}
}

func hasFailure(ex Extraction, stage FailureStage, reason FailureReason) bool {
	for _, f := range ex.Failures {
		if f.Stage == stage && f.Reason == reason {
			return true
		}
	}
	return false
}

func TestImageProperties_Success(t *testing.T) {
	path := writeFile(t, t.TempDir(), "IMG_01.png", pngBytes(t, 40, 30))
	x := NewExtractor(&fakeRunner{handler: exiftoolReturning("2020:05:06 07:08:09")})

	ex := x.ImageProperties(context.Background(), path)

	if ex.Width != 40 || ex.Height != 30 {
		t.Errorf("dimensions = %dx%d, want 40x30", ex.Width, ex.Height)
	}
	if ex.CaptureTimestamp != "2020-05-06 07:08:09" {
		t.Errorf("timestamp = %q", ex.CaptureTimestamp)
	}
	if ex.DurationSeconds != nil {
		t.Error("images must not carry a duration")
	}
	if ex.Degraded() {
		t.Errorf("unexpected failures: %v", ex.Failures)
	}
}

func TestImageProperties_NoTag(t *testing.T) {
	path := writeFile(t, t.TempDir(), "IMG_01.png", pngBytes(t, 8, 8))
	x := NewExtractor(&fakeRunner{handler: exiftoolReturning("")})

	ex := x.ImageProperties(context.Background(), path)

	if ex.CaptureTimestamp != mediatypes.SentinelNoDate {
		t.Errorf("timestamp = %q, want sentinel", ex.CaptureTimestamp)
	}
	if !hasFailure(ex, StageTimestamp, ReasonNoTag) {
		t.Errorf("failures = %v, want timestamp/no-tag", ex.Failures)
	}
	if ex.Width != 8 {
		t.Errorf("width = %d, want 8", ex.Width)
	}
}

func TestImageProperties_ToolMissingFallsBack(t *testing.T) {
	path := writeFile(t, t.TempDir(), "IMG_01.png", pngBytes(t, 8, 8))
	runner := &fakeRunner{handler: func(name string, _ []string) ([]byte, error) {
		return nil, fmt.Errorf("%w: %s", workers.ErrToolMissing, name)
	}}

	ex := NewExtractor(runner).ImageProperties(context.Background(), path)

	// PNG has no EXIF block, so the in-process fallback cannot help either.
	if ex.CaptureTimestamp != mediatypes.SentinelNoDate {
		t.Errorf("timestamp = %q, want sentinel", ex.CaptureTimestamp)
	}
	if !hasFailure(ex, StageTimestamp, ReasonToolMissing) {
		t.Errorf("failures = %v, want timestamp/tool-missing", ex.Failures)
	}
}

func TestImageProperties_CorruptFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.jpg", []byte("not an image"))
	x := NewExtractor(&fakeRunner{handler: func(string, []string) ([]byte, error) {
		return nil, &workers.ToolError{Tool: "exiftool", Err: errors.New("exit status 1")}
	}})

	ex := x.ImageProperties(context.Background(), path)

	if ex.Width != 0 || ex.Height != 0 {
		t.Errorf("dimensions = %dx%d, want 0x0", ex.Width, ex.Height)
	}
	if !hasFailure(ex, StageDimensions, ReasonUnsupported) {
		t.Errorf("failures = %v, want dimensions/unsupported", ex.Failures)
	}
	if !hasFailure(ex, StageTimestamp, ReasonToolFailed) {
		t.Errorf("failures = %v, want timestamp/tool-failed", ex.Failures)
	}
}

func TestImageProperties_MissingFile(t *testing.T) {
	x := NewExtractor(&fakeRunner{handler: exiftoolReturning("")})
	ex := x.ImageProperties(context.Background(), filepath.Join(t.TempDir(), "gone.jpg"))

	if !hasFailure(ex, StageDimensions, ReasonUnreadable) {
		t.Errorf("failures = %v, want dimensions/unreadable", ex.Failures)
	}
}

func TestVideoProperties_CreationTimeFromProbe(t *testing.T) {
	runner := &fakeRunner{handler: func(name string, _ []string) ([]byte, error) {
		if name == "ffprobe" {
			return []byte(`{"streams":[{"codec_type":"video","width":1080,"height":1920}],
				"format":{"duration":"2.5","tags":{"creation_time":"2023-06-01T12:00:00.000000Z"}}}`), nil
		}
		return nil, fmt.Errorf("unexpected tool %s", name)
	}}

	ex := NewExtractor(runner).VideoProperties(context.Background(), "/originals/IMG_01.mov")

	if ex.Width != 1080 || ex.Height != 1920 {
		t.Errorf("dimensions = %dx%d", ex.Width, ex.Height)
	}
	if ex.DurationSeconds == nil || *ex.DurationSeconds != 2.5 {
		t.Errorf("duration = %v, want 2.5", ex.DurationSeconds)
	}
	if ex.CaptureTimestamp != "2023-06-01 12:00:00" {
		t.Errorf("timestamp = %q", ex.CaptureTimestamp)
	}
	if runner.callCount("exiftool") != 0 {
		t.Error("exiftool should not run when ffprobe reports creation_time")
	}
	if runner.callCount("ffprobe") != 1 {
		t.Errorf("ffprobe called %d times, want 1", runner.callCount("ffprobe"))
	}
}

func TestVideoProperties_FallsBackToExiftool(t *testing.T) {
	runner := &fakeRunner{handler: func(name string, args []string) ([]byte, error) {
		if name == "ffprobe" {
			return []byte(`{"streams":[{"codec_type":"video","width":640,"height":480}],"format":{"duration":"10"}}`), nil
		}
		return exiftoolReturning("2018:01:01 00:00:00")(name, args)
	}}

	ex := NewExtractor(runner).VideoProperties(context.Background(), "/originals/clip.mp4")

	if ex.CaptureTimestamp != "2018-01-01 00:00:00" {
		t.Errorf("timestamp = %q", ex.CaptureTimestamp)
	}
	if ex.Degraded() {
		t.Errorf("unexpected failures: %v", ex.Failures)
	}
}

func TestVideoProperties_ToolsMissing(t *testing.T) {
	runner := &fakeRunner{handler: func(name string, _ []string) ([]byte, error) {
		return nil, fmt.Errorf("%w: %s", workers.ErrToolMissing, name)
	}}

	ex := NewExtractor(runner).VideoProperties(context.Background(), "/originals/clip.mp4")

	if ex.Width != 0 || ex.Height != 0 || ex.DurationSeconds != nil {
		t.Errorf("extraction = %+v, want zero values", ex)
	}
	if ex.CaptureTimestamp != mediatypes.SentinelNoDate {
		t.Errorf("timestamp = %q, want sentinel", ex.CaptureTimestamp)
	}
	for _, stage := range []FailureStage{StageDimensions, StageDuration, StageTimestamp} {
		if !hasFailure(ex, stage, ReasonToolMissing) {
			t.Errorf("missing %s/tool-missing failure in %v", stage, ex.Failures)
		}
	}
}

func TestFailureReason(t *testing.T) {
	tests := []struct {
		err  error
		want FailureReason
	}{
		{fmt.Errorf("wrap: %w", workers.ErrToolMissing), ReasonToolMissing},
		{&workers.ToolError{Tool: "ffprobe", Err: errors.New("exit 1")}, ReasonToolFailed},
		{errNoTag, ReasonNoTag},
		{context.DeadlineExceeded, ReasonToolFailed},
		{errVipsUnavailable, ReasonUnsupported},
		{errors.New("something else"), ReasonUnreadable},
	}
	for _, tt := range tests {
		if got := failureReason(tt.err); got != tt.want {
			t.Errorf("failureReason(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}
