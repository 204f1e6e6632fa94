package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"path/filepath"

	"media-indexer/internal/filesystem"
	"media-indexer/internal/logging"
	"media-indexer/internal/mediatypes"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageDimensions holds image width and height
type ImageDimensions struct {
	Width  int
	Height int
}

// orientationSwapsAxes reports whether an EXIF orientation rotates the image
// by 90 or 270 degrees.
func orientationSwapsAxes(orientation int) bool {
	return orientation >= 5 && orientation <= 8
}

// decodeDimensions returns the stored dimensions without decoding pixels.
func decodeDimensions(path string) (*ImageDimensions, error) {
	file, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, err
	}

	return &ImageDimensions{
		Width:  config.Width,
		Height: config.Height,
	}, nil
}

// GetImageDimensions returns the displayed dimensions of an image, with
// width and height swapped when the EXIF orientation rotates it.
// HEIC/HEIF files are read through libvips.
func GetImageDimensions(path string) (*ImageDimensions, error) {
	if mediatypes.NeedsPreConversion(filepath.Ext(path)) {
		return heicDimensions(path)
	}

	dims, err := decodeDimensions(path)
	if err != nil {
		return nil, err
	}

	if orientationSwapsAxes(exifOrientation(path)) {
		dims.Width, dims.Height = dims.Height, dims.Width
	}
	return dims, nil
}

// loadImage decodes a still image with orientation applied. HEIC/HEIF is
// pre-converted with libvips; anything the Go decoders reject falls back to
// ffmpeg.
func (g *Generator) loadImage(ctx context.Context, path string) (image.Image, error) {
	if mediatypes.NeedsPreConversion(filepath.Ext(path)) {
		img, err := heicToImage(path)
		if err == nil {
			return img, nil
		}
		logging.Debug("libvips conversion failed for %s: %v, trying ffmpeg fallback", path, err)
		return g.decodeWithFFmpeg(ctx, path)
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err == nil {
		return img, nil
	}

	logging.Debug("imaging.Open failed for %s: %v, trying ffmpeg fallback", path, err)

	img, ffErr := g.decodeWithFFmpeg(ctx, path)
	if ffErr != nil {
		return nil, fmt.Errorf("all image decode methods failed for %s: %w (ffmpeg: %v)", path, err, ffErr)
	}
	return img, nil
}

func (g *Generator) decodeWithFFmpeg(ctx context.Context, path string) (image.Image, error) {
	out, err := g.runner.Run(ctx, "ffmpeg",
		"-v", "error",
		"-i", path,
		"-vframes", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-pix_fmt", "rgb24",
		"-",
	)
	if err != nil {
		return nil, err
	}
	return decodePipeOutput(path, out)
}

func decodePipeOutput(path string, out []byte) (image.Image, error) {
	if len(out) == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output for %s", path)
	}

	logging.Debug("FFmpeg output size: %d bytes", len(out))

	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("failed to decode ffmpeg output: %w", err)
	}
	return img, nil
}
