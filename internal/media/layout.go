package media

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"media-indexer/internal/filesystem"
)

// ArtifactSize selects one of the two generated previews.
type ArtifactSize string

const (
	SizeSmall  ArtifactSize = "small"
	SizeMedium ArtifactSize = "medium"
)

// ArtifactSizes lists every preview generated per record.
var ArtifactSizes = []ArtifactSize{SizeSmall, SizeMedium}

// ArtifactFormat is the file extension of generated previews.
const ArtifactFormat = "jpg"

// Layout maps identifiers to artifact paths under Root:
//
//	{Root}/{id[0:2]}/{id[2:4]}/{id}.{small|medium}.jpg
type Layout struct {
	Root string
}

// NewLayout returns a Layout rooted at root.
func NewLayout(root string) *Layout {
	return &Layout{Root: root}
}

func (l *Layout) shardDir(id string) string {
	if len(id) < 4 {
		return filepath.Join(l.Root, "_", "_")
	}
	return filepath.Join(l.Root, id[0:2], id[2:4])
}

// Path returns the artifact path for id and size.
func (l *Layout) Path(id string, size ArtifactSize) string {
	return filepath.Join(l.shardDir(id), fmt.Sprintf("%s.%s.%s", id, size, ArtifactFormat))
}

// SmallPath returns the small preview path for id.
func (l *Layout) SmallPath(id string) string {
	return l.Path(id, SizeSmall)
}

// MediumPath returns the medium preview path for id.
func (l *Layout) MediumPath(id string) string {
	return l.Path(id, SizeMedium)
}

// Exists reports whether the artifact for id and size is on disk.
func (l *Layout) Exists(id string, size ArtifactSize) bool {
	return filesystem.Exists(l.Path(id, size))
}

// Ensure creates the shard directory for id.
func (l *Layout) Ensure(id string) error {
	dir := l.shardDir(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create shard directory %s: %w", dir, err)
	}
	return nil
}

// Remove deletes every artifact for id. Missing files are not an error.
func (l *Layout) Remove(id string) error {
	var errs []error
	for _, size := range ArtifactSizes {
		if err := os.Remove(l.Path(id, size)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
