// Package media holds the per-file stages of the indexing pipeline.
//
// It covers:
//   - ID: stable artifact identifier derived from a file's absolute path
//   - Scanner: recursive enumeration of supported originals
//   - Extractor: dimensions, capture timestamp and duration through
//     exiftool, ffprobe, libvips and in-process decoders
//   - Generator: small and medium JPEG previews, from images or from a video
//     frame extracted with ffmpeg
//   - Layout: the sharded artifact tree under the artifact root
//
// External tools always run through a workers.Runner so the number of helper
// processes stays bounded.
package media
