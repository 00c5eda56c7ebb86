package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"course-frames/internal/command"
	"course-frames/internal/logging"
	"course-frames/internal/manifest"
	"course-frames/internal/metrics"
	"course-frames/internal/naming"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// ErrNoFramesProduced is returned when the decoder exits cleanly but leaves
// no frames behind.
var ErrNoFramesProduced = errors.New("decoder produced no frames")

// Extractor runs the frame extraction stage.
type Extractor struct {
	runner  command.Runner
	ffmpeg  string
	ffprobe string
	quality int
}

// VideoInfo contains information about a video file.
type VideoInfo struct {
	Duration float64 `json:"duration"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Codec    string  `json:"codec"`
}

// Result describes the frames on disk after Extract.
type Result struct {
	Frames  int
	Skipped bool
	Elapsed time.Duration
}

// New creates an Extractor that runs tools through runner.
func New(runner command.Runner) *Extractor {
	if runner == nil {
		runner = command.ExecRunner{}
	}
	return &Extractor{
		runner:  runner,
		ffmpeg:  "ffmpeg",
		ffprobe: "ffprobe",
		quality: 2,
	}
}

// ExpectedFrames is the number of frames a 1 fps decode of duration seconds
// should yield. The decoder's own rounding decides the final boundary frame.
func ExpectedFrames(duration float64) int {
	if duration <= 0 {
		return 0
	}
	return int(math.Ceil(duration))
}

// Args builds the ffmpeg argument list for one video.
func (e *Extractor) Args(videoPath, outDir, id string, crop manifest.Crop) []string {
	h := strconv.Itoa(crop.Height)
	return ffmpeg.Input(videoPath).
		Filter("fps", ffmpeg.Args{"1"}).
		Filter("crop", ffmpeg.Args{"iw", h, "0", "ih-" + h}).
		Filter("scale", ffmpeg.Args{strconv.Itoa(crop.ScaleWidth), strconv.Itoa(crop.ScaleHeight)}).
		Output(filepath.Join(outDir, naming.FramePattern(id)), ffmpeg.KwArgs{"q:v": e.quality}).
		GlobalArgs("-hide_banner", "-loglevel", "error").
		OverWriteOutput().
		GetArgs()
}

// Extract writes the frames of one video into outDir unless frames of id
// already exist there, in which case the existing count is returned.
func (e *Extractor) Extract(ctx context.Context, videoPath, outDir, id string, crop manifest.Crop) (Result, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	existing, err := naming.CountFrames(outDir, id)
	if err != nil {
		return Result{}, fmt.Errorf("counting frames for %s: %w", id, err)
	}
	if existing > 0 {
		logging.Debug("Frames for %s already present (%d), skipping decoder", id, existing)
		metrics.FrameExtractionsTotal.WithLabelValues("skipped").Inc()
		return Result{Frames: existing, Skipped: true}, nil
	}

	start := time.Now()
	if _, err := e.runner.Run(ctx, e.ffmpeg, e.Args(videoPath, outDir, id, crop)...); err != nil {
		metrics.FrameExtractionsTotal.WithLabelValues("error").Inc()
		return Result{}, fmt.Errorf("extracting frames for %s: %w", id, err)
	}
	elapsed := time.Since(start)
	metrics.FrameExtractionDuration.Observe(elapsed.Seconds())

	count, err := naming.CountFrames(outDir, id)
	if err != nil {
		metrics.FrameExtractionsTotal.WithLabelValues("error").Inc()
		return Result{}, fmt.Errorf("counting frames for %s: %w", id, err)
	}
	if count == 0 {
		metrics.FrameExtractionsTotal.WithLabelValues("error").Inc()
		return Result{}, fmt.Errorf("extracting frames for %s: %w", id, ErrNoFramesProduced)
	}

	metrics.FrameExtractionsTotal.WithLabelValues("success").Inc()
	metrics.FramesExtractedTotal.Add(float64(count))
	logging.Debug("Extracted %d frames for %s in %v", count, id, elapsed)
	return Result{Frames: count, Elapsed: elapsed}, nil
}

// ClearFrames removes every frame of id from outDir and returns how many
// files were removed.
func ClearFrames(outDir, id string) (int, error) {
	names, err := naming.ListFrames(outDir, id)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, name := range names {
		if err := os.Remove(filepath.Join(outDir, name)); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("removing %s: %w", name, err)
		}
		removed++
	}
	return removed, nil
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

// Probe retrieves duration, codec and dimensions of a video file.
func (e *Extractor) Probe(ctx context.Context, filePath string) (*VideoInfo, error) {
	out, err := e.runner.Run(ctx, e.ffprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	)
	if err != nil {
		return nil, fmt.Errorf("ffprobe error: %w", err)
	}
	return parseProbe(out)
}

func parseProbe(out []byte) (*VideoInfo, error) {
	var p probeOutput
	if err := json.Unmarshal(out, &p); err != nil {
		return nil, fmt.Errorf("parsing ffprobe output: %w", err)
	}

	info := &VideoInfo{}
	if p.Format.Duration != "" {
		d, err := strconv.ParseFloat(p.Format.Duration, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing duration %q: %w", p.Format.Duration, err)
		}
		info.Duration = d
	}

	for _, s := range p.Streams {
		if s.CodecType == "video" {
			info.Codec = s.CodecName
			info.Width = s.Width
			info.Height = s.Height
			break
		}
	}
	return info, nil
}
