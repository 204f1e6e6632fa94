package mediatypes

import "strings"

// Kind is the coarse content class derived from a file extension.
type Kind string

const (
	// KindImage represents a still image file.
	KindImage Kind = "image"
	// KindVideo represents a video file.
	KindVideo Kind = "video"
	// KindUnsupported represents any extension outside the configured sets.
	KindUnsupported Kind = "unsupported"
)

// MediaType is the classification stored on an indexed record.
type MediaType string

const (
	// MediaTypePhoto represents an indexed still image.
	MediaTypePhoto MediaType = "photo"
	// MediaTypeVideo represents an indexed video.
	MediaTypeVideo MediaType = "video"
	// MediaTypeLivePhotoVideo represents the short motion clip of a live photo.
	MediaTypeLivePhotoVideo MediaType = "live-photo-video"
)

// Valid reports whether m is one of the known media types.
func (m MediaType) Valid() bool {
	switch m {
	case MediaTypePhoto, MediaTypeVideo, MediaTypeLivePhotoVideo:
		return true
	}
	return false
}

// IsVideo reports whether records of this type were probed as video.
func (m MediaType) IsVideo() bool {
	return m == MediaTypeVideo || m == MediaTypeLivePhotoVideo
}

// SentinelNoDate marks a record whose capture timestamp could not be
// determined. It sorts after every dated record in descending listings.
const SentinelNoDate = "error-no-date-found"

// DefaultImageExtensions are the image formats indexed when none are configured.
var DefaultImageExtensions = []string{".jpg", ".jpeg", ".png", ".heic", ".heif", ".webp"}

// DefaultVideoExtensions are the video formats indexed when none are configured.
var DefaultVideoExtensions = []string{".mp4", ".mov", ".m4v"}

// PreConversionExtensions are image formats that the codec library cannot
// decode directly and that go through an intermediate conversion first.
var PreConversionExtensions = map[string]bool{
	".heic": true,
	".heif": true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".heic": "image/heic",
	".heif": "image/heif",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".m4v":  "video/x-m4v",
}

// Classifier maps extensions onto content kinds.
type Classifier struct {
	images map[string]bool
	videos map[string]bool
}

// NewClassifier builds a classifier from the configured extension lists.
// An extension listed in both sets is treated as an image.
func NewClassifier(imageExts, videoExts []string) *Classifier {
	c := &Classifier{
		images: make(map[string]bool, len(imageExts)),
		videos: make(map[string]bool, len(videoExts)),
	}
	for _, ext := range imageExts {
		if n := NormalizeExtension(ext); n != "" {
			c.images[n] = true
		}
	}
	for _, ext := range videoExts {
		if n := NormalizeExtension(ext); n != "" && !c.images[n] {
			c.videos[n] = true
		}
	}
	return c
}

// NormalizeExtension lowercases ext and ensures a single leading dot.
// The empty string stays empty.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	ext = strings.TrimLeft(ext, ".")
	if ext == "" {
		return ""
	}
	return "." + ext
}

// Classify returns the Kind for a file extension.
func (c *Classifier) Classify(ext string) Kind {
	ext = NormalizeExtension(ext)
	if c.images[ext] {
		return KindImage
	}
	if c.videos[ext] {
		return KindVideo
	}
	return KindUnsupported
}

// IsSupported reports whether ext is an image or video extension.
func (c *Classifier) IsSupported(ext string) bool {
	return c.Classify(ext) != KindUnsupported
}

// NeedsPreConversion reports whether ext requires a decode-to-common-format
// step before resizing.
func NeedsPreConversion(ext string) bool {
	return PreConversionExtensions[NormalizeExtension(ext)]
}

// GetMimeType returns the MIME type for a given file extension.
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[NormalizeExtension(ext)]; ok {
		return mime
	}
	return "application/octet-stream"
}
