package media

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// VideoInfo is the subset of ffprobe output the indexer uses.
type VideoInfo struct {
	Width        int
	Height       int
	Duration     *float64
	CreationTime string // normalized, empty when absent
}

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
	Format  struct {
		Duration string            `json:"duration"`
		Tags     map[string]string `json:"tags"`
	} `json:"format"`
}

type ffprobeStream struct {
	CodecType    string            `json:"codec_type"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	Duration     string            `json:"duration"`
	Tags         map[string]string `json:"tags"`
	SideDataList []struct {
		Rotation *float64 `json:"rotation"`
	} `json:"side_data_list"`
}

// rotation returns the display rotation in degrees from either the legacy
// "rotate" tag or the display matrix side data.
func (s ffprobeStream) rotation() int {
	if r, ok := s.Tags["rotate"]; ok {
		if v, err := strconv.Atoi(strings.TrimSpace(r)); err == nil {
			return v
		}
	}
	for _, sd := range s.SideDataList {
		if sd.Rotation != nil {
			return int(math.Round(*sd.Rotation))
		}
	}
	return 0
}

func parseDuration(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "N/A" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// parseProbe decodes `ffprobe -print_format json -show_format -show_streams`.
func parseProbe(out []byte) (*VideoInfo, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return nil, fmt.Errorf("decode ffprobe output: %w", err)
	}

	info := &VideoInfo{}

	var video *ffprobeStream
	for i := range probe.Streams {
		if probe.Streams[i].CodecType == "video" {
			video = &probe.Streams[i]
			break
		}
	}

	if video != nil {
		info.Width, info.Height = video.Width, video.Height
		if r := video.rotation(); r%180 != 0 && (r%90) == 0 {
			info.Width, info.Height = info.Height, info.Width
		}
	}

	info.Duration = parseDuration(probe.Format.Duration)
	if info.Duration == nil && video != nil {
		info.Duration = parseDuration(video.Duration)
	}

	if ct := probe.Format.Tags["creation_time"]; ct != "" {
		info.CreationTime = NormalizeTimestamp(ct)
	} else if video != nil && video.Tags["creation_time"] != "" {
		info.CreationTime = NormalizeTimestamp(video.Tags["creation_time"])
	}
	if !validTimestamp(info.CreationTime) {
		info.CreationTime = ""
	}

	return info, nil
}

// probeVideo runs ffprobe once for path.
func (x *Extractor) probeVideo(ctx context.Context, path string) (*VideoInfo, error) {
	out, err := x.runner.Run(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	if err != nil {
		return nil, err
	}
	return parseProbe(out)
}
