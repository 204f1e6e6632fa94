package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"time"

	"media-indexer/internal/filesystem"
	"media-indexer/internal/logging"
	"media-indexer/internal/mediatypes"
	"media-indexer/internal/metrics"
	"media-indexer/internal/workers"

	"github.com/disintegration/imaging"
)

// FrameOffset is where the representative video frame is taken from.
const FrameOffset = "00:00:01"

// ArtifactRequest describes one preview to generate.
type ArtifactRequest struct {
	Source       string
	Kind         mediatypes.Kind
	Size         ArtifactSize
	TargetWidth  int
	TargetHeight int
	OutPath      string
	Quality      int
}

// TargetBox returns the bounding box for a preview of a srcW x srcH source:
// width is target capped at the source width, height follows the aspect
// ratio. Unknown source dimensions yield a square target box.
func TargetBox(srcW, srcH, target int) (int, int) {
	if srcW <= 0 || srcH <= 0 {
		return target, target
	}
	w := min(target, srcW)
	h := srcH * w / srcW
	if h < 1 {
		h = 1
	}
	return w, h
}

// Generator writes JPEG previews. It does not check whether the output
// already exists; callers do that.
type Generator struct {
	runner workers.Runner
}

// NewGenerator returns a Generator that runs ffmpeg through runner.
func NewGenerator(runner workers.Runner) *Generator {
	return &Generator{runner: runner}
}

// Generate resizes the source to fit the requested box and writes it to
// req.OutPath atomically. Errors are *ArtifactGenerationFailure.
func (g *Generator) Generate(ctx context.Context, req ArtifactRequest) error {
	start := time.Now()
	err := g.generate(ctx, req)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.ArtifactGenerationsTotal.WithLabelValues(string(req.Size), status).Inc()
	metrics.ArtifactGenerationDuration.WithLabelValues(string(req.Size)).Observe(time.Since(start).Seconds())

	if err != nil {
		return &ArtifactGenerationFailure{Source: req.Source, Size: req.Size, Err: err}
	}
	return nil
}

func (g *Generator) generate(ctx context.Context, req ArtifactRequest) error {
	if req.TargetWidth <= 0 || req.TargetHeight <= 0 {
		return fmt.Errorf("invalid target box %dx%d", req.TargetWidth, req.TargetHeight)
	}

	var img image.Image
	var err error

	switch req.Kind {
	case mediatypes.KindImage:
		img, err = g.loadImage(ctx, req.Source)
	case mediatypes.KindVideo:
		img, err = g.extractFrame(ctx, req.Source)
	default:
		return fmt.Errorf("unsupported kind: %s", req.Kind)
	}
	if err != nil {
		return err
	}
	if img == nil {
		return fmt.Errorf("decode returned nil image")
	}

	data, err := encodePreview(img, req.TargetWidth, req.TargetHeight, req.Quality)
	if err != nil {
		return err
	}

	if err := filesystem.WriteFileAtomic(req.OutPath, data, 0o644); err != nil {
		return err
	}

	logging.Debug("Generated %s preview %s (%d bytes)", req.Size, req.OutPath, len(data))
	return nil
}

// encodePreview fits img inside w x h without upscaling and encodes it as JPEG.
func encodePreview(img image.Image, w, h, quality int) ([]byte, error) {
	resized := imaging.Fit(img, w, h, imaging.Lanczos)

	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	return buf.Bytes(), nil
}

// extractFrame grabs one frame at FrameOffset. Clips shorter than the
// offset are retried from the first frame.
func (g *Generator) extractFrame(ctx context.Context, path string) (image.Image, error) {
	logging.Debug("Extracting video frame: %s", path)

	out, err := g.runner.Run(ctx, "ffmpeg",
		"-v", "error",
		"-ss", FrameOffset,
		"-i", path,
		"-vframes", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)
	if err != nil || len(out) == 0 {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logging.Debug("FFmpeg seek attempt failed for %s: %v, retrying from start", path, err)

		out, err = g.runner.Run(ctx, "ffmpeg",
			"-v", "error",
			"-i", path,
			"-vframes", "1",
			"-f", "image2pipe",
			"-vcodec", "png",
			"-",
		)
		if err != nil {
			return nil, err
		}
	}

	return decodePipeOutput(path, out)
}
