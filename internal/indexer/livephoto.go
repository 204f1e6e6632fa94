package indexer

import (
	"path/filepath"
	"strings"

	"media-indexer/internal/database"
	"media-indexer/internal/media"
	"media-indexer/internal/mediatypes"
)

// DefaultLivePhotoMaxSeconds is the duration below which a video is taken
// to be the motion half of a live photo.
const DefaultLivePhotoMaxSeconds = 4.0

// sidecarKey identifies files that pair up as a live photo: same directory,
// same basename ignoring extension and case.
func sidecarKey(path string) string {
	dir, name := filepath.Split(path)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return filepath.Clean(dir) + "\x00" + strings.ToLower(stem)
}

// sidecarIndex maps sidecar keys to indexed photos. It is written only by
// the commit loop and read by video workers after every photo commit.
type sidecarIndex map[string]database.MediaRecord

func newSidecarIndex(records []database.MediaRecord) sidecarIndex {
	idx := make(sidecarIndex)
	for _, r := range records {
		idx.add(r)
	}
	return idx
}

func (s sidecarIndex) add(rec database.MediaRecord) {
	if rec.MediaType != mediatypes.MediaTypePhoto {
		return
	}
	key := sidecarKey(rec.SourcePath)
	if _, exists := s[key]; !exists {
		s[key] = rec
	}
}

func (s sidecarIndex) lookup(videoPath string) (database.MediaRecord, bool) {
	rec, ok := s[sidecarKey(videoPath)]
	return rec, ok
}

// classifyVideo decides between video and live-photo-video and returns the
// capture timestamp the record should carry.
//
// A known duration under maxSeconds makes a live photo. When the duration
// could not be probed, a paired photo is enough. A live photo with a dated
// paired photo takes the photo's timestamp.
func classifyVideo(ex media.Extraction, sidecar *database.MediaRecord, maxSeconds float64) (mediatypes.MediaType, string) {
	live := false
	switch {
	case ex.DurationSeconds != nil:
		live = *ex.DurationSeconds < maxSeconds
	case sidecar != nil:
		live = true
	}

	if !live {
		return mediatypes.MediaTypeVideo, ex.CaptureTimestamp
	}
	if sidecar != nil && !sidecar.Undated() {
		return mediatypes.MediaTypeLivePhotoVideo, sidecar.CaptureTimestamp
	}
	return mediatypes.MediaTypeLivePhotoVideo, ex.CaptureTimestamp
}
