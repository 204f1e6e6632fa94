package media

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"media-indexer/internal/filesystem"
	"media-indexer/internal/logging"
	"media-indexer/internal/mediatypes"
	"media-indexer/internal/metrics"
)

// ScannedFile is a supported original found under the scan root.
type ScannedFile struct {
	Path      string // absolute
	Name      string
	Ext       string // normalized, with leading dot
	Kind      mediatypes.Kind
	SizeBytes int64
}

// ScanResult holds the files found by one scan and the entries that were
// skipped along the way.
type ScanResult struct {
	Files    []ScannedFile
	Warnings []ScanWarning
}

// Scanner walks an originals root and returns its supported files.
type Scanner struct {
	root       string
	classifier *mediatypes.Classifier
}

// NewScanner creates a Scanner for root.
func NewScanner(root string, classifier *mediatypes.Classifier) *Scanner {
	return &Scanner{root: root, classifier: classifier}
}

// Root returns the directory being scanned.
func (s *Scanner) Root() string {
	return s.root
}

// Scan enumerates every supported file under the root, sorted by path.
// Hidden files and directories are skipped. Unreadable entries become
// warnings; only a missing root is an error.
func (s *Scanner) Scan(ctx context.Context) (*ScanResult, error) {
	start := time.Now()
	status := "success"
	defer func() {
		metrics.ScanDuration.Observe(time.Since(start).Seconds())
		metrics.ScansTotal.WithLabelValues(status).Inc()
	}()

	root, err := filepath.Abs(s.root)
	if err != nil {
		status = "error"
		return nil, fmt.Errorf("%w: %s: %v", ErrDirectoryUnavailable, s.root, err)
	}

	info, err := filesystem.StatWithRetry(root, filesystem.DefaultRetryConfig())
	if err != nil {
		status = "error"
		return nil, fmt.Errorf("%w: %s: %v", ErrDirectoryUnavailable, root, err)
	}
	if !info.IsDir() {
		status = "error"
		return nil, fmt.Errorf("%w: %s is not a directory", ErrDirectoryUnavailable, root)
	}

	result := &ScanResult{}
	warn := func(path string, err error) {
		logging.Warn("Scan: skipping %s: %v", path, err)
		metrics.ScanWarningsTotal.Inc()
		result.Warnings = append(result.Warnings, ScanWarning{Path: path, Err: err})
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if walkErr != nil {
			if path == root {
				return walkErr
			}
			warn(path, walkErr)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		ext := mediatypes.NormalizeExtension(filepath.Ext(d.Name()))
		kind := s.classifier.Classify(ext)
		if kind == mediatypes.KindUnsupported {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			warn(path, err)
			return nil
		}
		if !fi.Mode().IsRegular() {
			return nil
		}

		result.Files = append(result.Files, ScannedFile{
			Path:      path,
			Name:      d.Name(),
			Ext:       ext,
			Kind:      kind,
			SizeBytes: fi.Size(),
		})
		return nil
	})
	if err != nil {
		status = "error"
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrDirectoryUnavailable, root, err)
	}

	sort.Slice(result.Files, func(i, j int) bool {
		return result.Files[i].Path < result.Files[j].Path
	})

	logging.Info("Scan of %s found %d supported files (%d warnings) in %v",
		root, len(result.Files), len(result.Warnings), time.Since(start).Round(time.Millisecond))

	return result, nil
}
