package database

import (
	"errors"
	"fmt"

	"media-indexer/internal/mediatypes"
)

// MediaRecord is one indexed original. JSON names match the document read
// by the gallery front-end.
type MediaRecord struct {
	ID               string               `json:"guid"`
	SourcePath       string               `json:"location"`
	DisplayName      string               `json:"name"`
	MediaType        mediatypes.MediaType `json:"type"`
	Width            int                  `json:"width"`
	Height           int                  `json:"height"`
	DurationSeconds  *float64             `json:"lengthSeconds"`
	CaptureTimestamp string               `json:"dateTaken"`
	SizeKB           int64                `json:"sizeKb"`
}

// Undated reports whether the capture timestamp is the no-date sentinel.
func (r *MediaRecord) Undated() bool {
	return r.CaptureTimestamp == mediatypes.SentinelNoDate
}

// Validate checks the fields every persisted record must carry.
func (r *MediaRecord) Validate() error {
	switch {
	case r.ID == "":
		return errors.New("record has no guid")
	case r.SourcePath == "":
		return fmt.Errorf("record %s has no location", r.ID)
	case !r.MediaType.Valid():
		return fmt.Errorf("record %s has unknown type %q", r.ID, r.MediaType)
	case r.CaptureTimestamp == "":
		return fmt.Errorf("record %s has no dateTaken", r.ID)
	}
	return nil
}

// SizeKBFromBytes floor-divides a byte length into kilobytes.
func SizeKBFromBytes(n int64) int64 {
	if n <= 0 {
		return 0
	}
	return n / 1024
}

// PersistenceFailure is returned when the metadata store cannot be read or
// written. A failed write is fatal to the run.
type PersistenceFailure struct {
	Path string
	Op   string // "load", "save", "open"
	Err  error
}

func (e *PersistenceFailure) Error() string {
	return fmt.Sprintf("metadata %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceFailure) Unwrap() error {
	return e.Err
}
