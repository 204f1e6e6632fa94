package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"sync"

	"media-indexer/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsAvailable   bool
)

// errVipsUnavailable is returned by HEIC helpers before InitVips has run.
var errVipsUnavailable = errors.New("libvips not available")

// vipsLogLevelFor maps the application log level onto the libvips threshold.
func vipsLogLevelFor(level logging.LogLevel) vips.LogLevel {
	switch level {
	case logging.LevelDebug:
		return vips.LogLevelInfo
	case logging.LevelInfo:
		return vips.LogLevelWarning
	case logging.LevelWarn:
		return vips.LogLevelError
	default:
		return vips.LogLevelCritical
	}
}

func vipsLogHandler(domain string, level vips.LogLevel, msg string) {
	switch level {
	case vips.LogLevelError, vips.LogLevelCritical:
		logging.Error("[%s] %s", domain, msg)
	case vips.LogLevelWarning:
		logging.Warn("[%s] %s", domain, msg)
	default:
		logging.Debug("[%s] %s", domain, msg)
	}
}

// InitVips initializes libvips for HEIC/HEIF pre-conversion.
// It should be called once at startup; later calls are no-ops.
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	// Logging must be configured before Startup.
	vips.LoggingSettings(vipsLogHandler, vipsLogLevelFor(logging.GetLevel()))

	// One image at a time keeps memory flat; the helper-process pool bounds
	// overall concurrency anyway.
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized successfully (version: %s)", vips.Version)
	return nil
}

// ShutdownVips releases libvips. govips cannot be restarted afterwards.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable returns whether libvips is initialized and available
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

func loadHEIC(path string) (*vips.ImageRef, error) {
	if !IsVipsAvailable() {
		return nil, errVipsUnavailable
	}

	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return nil, fmt.Errorf("vips failed to load image: %w", err)
	}
	if err := ref.AutoRotate(); err != nil {
		ref.Close()
		return nil, fmt.Errorf("vips auto-rotate failed: %w", err)
	}
	return ref, nil
}

// heicDimensions returns the displayed dimensions of a HEIC/HEIF file.
func heicDimensions(path string) (*ImageDimensions, error) {
	ref, err := loadHEIC(path)
	if err != nil {
		return nil, err
	}
	defer ref.Close()

	return &ImageDimensions{Width: ref.Width(), Height: ref.Height()}, nil
}

// heicToImage converts a HEIC/HEIF file to JPEG in memory and decodes it.
func heicToImage(path string) (image.Image, error) {
	ref, err := loadHEIC(path)
	if err != nil {
		return nil, err
	}
	defer ref.Close()

	jpegBytes, _, err := ref.ExportJpeg(&vips.JpegExportParams{
		Quality:        95,
		OptimizeCoding: true,
	})
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(jpegBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode vips output: %w", err)
	}

	logging.Debug("Converted %s via libvips: %dx%d", path, img.Bounds().Dx(), img.Bounds().Dy())
	return img, nil
}
