package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"media-indexer/internal/filesystem"
	"media-indexer/internal/logging"
)

var (
	exifDatePattern = regexp.MustCompile(`^(\d{4}):(\d{2}):(\d{2}) (\d{2}):(\d{2}):(\d{2})`)
	isoDatePattern  = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})[T ](\d{2}):(\d{2}):(\d{2})`)
)

// errNoTag is returned when a file carries no usable capture date.
var errNoTag = errors.New("no capture date tag")

// NormalizeTimestamp rewrites an EXIF ("2019:07:04 10:11:12") or ISO 8601
// ("2019-07-04T10:11:12.000000Z") date prefix as "2019-07-04 10:11:12".
// Anything after the seconds field is dropped. Values that match neither
// form are returned unchanged.
func NormalizeTimestamp(raw string) string {
	raw = strings.TrimSpace(raw)
	if m := exifDatePattern.FindStringSubmatch(raw); m != nil {
		return fmt.Sprintf("%s-%s-%s %s:%s:%s", m[1], m[2], m[3], m[4], m[5], m[6])
	}
	if m := isoDatePattern.FindStringSubmatch(raw); m != nil {
		return fmt.Sprintf("%s-%s-%s %s:%s:%s", m[1], m[2], m[3], m[4], m[5], m[6])
	}
	return raw
}

// validTimestamp rejects the all-zero dates some cameras write.
func validTimestamp(ts string) bool {
	return ts != "" && !strings.HasPrefix(ts, "0000")
}

type exiftoolEntry struct {
	SourceFile       string `json:"SourceFile"`
	DateTimeOriginal any    `json:"DateTimeOriginal"`
}

// parseExiftoolDate extracts DateTimeOriginal from `exiftool -j` output.
func parseExiftoolDate(out []byte) (string, error) {
	var entries []exiftoolEntry
	if err := json.Unmarshal(out, &entries); err != nil {
		return "", fmt.Errorf("decode exiftool output: %w", err)
	}
	if len(entries) == 0 {
		return "", errNoTag
	}

	raw, ok := entries[0].DateTimeOriginal.(string)
	if !ok {
		return "", errNoTag
	}
	ts := NormalizeTimestamp(raw)
	if !validTimestamp(ts) {
		return "", errNoTag
	}
	return ts, nil
}

// exiftoolDate reads DateTimeOriginal with exiftool.
func (x *Extractor) exiftoolDate(ctx context.Context, path string) (string, error) {
	out, err := x.runner.Run(ctx, "exiftool", "-j", "-DateTimeOriginal", path)
	if err != nil {
		return "", err
	}
	return parseExiftoolDate(out)
}

// goexifDate reads DateTimeOriginal in-process. It only understands
// JPEG/TIFF-style EXIF blocks.
func goexifDate(path string) (string, error) {
	x, err := decodeExif(path)
	if err != nil {
		return "", err
	}

	t, err := x.DateTime()
	if err != nil {
		return "", errNoTag
	}
	ts := t.Format(time.DateTime)
	if !validTimestamp(ts) {
		return "", errNoTag
	}
	return ts, nil
}

func decodeExif(path string) (*exif.Exif, error) {
	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("failed to close %s: %v", path, err)
		}
	}()

	x, err := exif.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errNoTag, err)
	}
	return x, nil
}

// exifOrientation returns the EXIF orientation tag (1-8), or 1 if absent.
func exifOrientation(path string) int {
	x, err := decodeExif(path)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}
	return v
}
