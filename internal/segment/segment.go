package segment

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"course-frames/internal/logging"
	"course-frames/internal/metrics"
	"course-frames/internal/naming"

	"github.com/disintegration/imaging"
)

// Defaults used by the command line.
const (
	DefaultDiffThreshold  = 15.0
	DefaultBlankThreshold = 30.0
	DefaultMinDuration    = 1
)

// Options tunes segmentation. Thresholds are on the 0-255 pixel scale.
type Options struct {
	DiffThreshold  float64
	BlankThreshold float64
	// MinDuration is the shortest segment kept, in seconds.
	MinDuration int
}

// DefaultOptions returns the command line defaults.
func DefaultOptions() Options {
	return Options{
		DiffThreshold:  DefaultDiffThreshold,
		BlankThreshold: DefaultBlankThreshold,
		MinDuration:    DefaultMinDuration,
	}
}

// Validate rejects thresholds outside the pixel scale.
func (o Options) Validate() error {
	for name, v := range map[string]float64{"diff threshold": o.DiffThreshold, "blank threshold": o.BlankThreshold} {
		if v < 0 || v > 255 {
			return fmt.Errorf("%s must be between 0 and 255, got %g", name, v)
		}
	}
	if o.MinDuration < 0 {
		return fmt.Errorf("min duration must not be negative, got %d", o.MinDuration)
	}
	return nil
}

// Segment is a run of frames showing one caption.
type Segment struct {
	VideoID             string `json:"video_id"`
	SegmentID           int    `json:"segment_id"`
	StartTime           int    `json:"start_time"`
	EndTime             int    `json:"end_time"`
	StartFrame          int    `json:"start_frame"`
	EndFrame            int    `json:"end_frame"`
	FrameCount          int    `json:"frame_count"`
	RepresentativeFrame string `json:"representative_frame"`
}

// Duration is the number of seconds the segment covers.
func (s Segment) Duration() int {
	return s.EndTime - s.StartTime + 1
}

type frameFile struct {
	index int
	name  string
}

// Frames segments the frames of id found in dir.
func Frames(ctx context.Context, dir, id string, opts Options) ([]Segment, error) {
	start := time.Now()

	files, err := listFrames(dir, id)
	if err != nil {
		return nil, err
	}
	logging.Info("Found %d frames for video %s", len(files), id)

	var (
		segments  []Segment
		current   *Segment
		prev      *pixels
		prevBlank = true
	)
	closeCurrent := func() {
		if current != nil {
			segments = append(segments, *current)
			current = nil
		}
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img, err := load(filepath.Join(dir, f.name))
		if err != nil {
			return nil, err
		}
		second := f.index - 1

		if img.stdDev() < opts.BlankThreshold {
			closeCurrent()
			prev, prevBlank = img, true
			continue
		}

		same := !prevBlank && prev.meanAbsDiff(img) < opts.DiffThreshold
		if same {
			current.EndTime = second
			current.EndFrame = f.index
			current.FrameCount++
		} else {
			closeCurrent()
			current = &Segment{
				VideoID:             id,
				SegmentID:           len(segments) + 1,
				StartTime:           second,
				EndTime:             second,
				StartFrame:          f.index,
				EndFrame:            f.index,
				FrameCount:          1,
				RepresentativeFrame: f.name,
			}
		}
		prev, prevBlank = img, false
	}
	closeCurrent()

	kept := make([]Segment, 0, len(segments))
	for _, s := range segments {
		if s.Duration() >= opts.MinDuration {
			kept = append(kept, s)
		}
	}
	logging.Info("Created %d segments (%d after filtering)", len(segments), len(kept))

	metrics.SegmentsCreatedTotal.Add(float64(len(kept)))
	metrics.SegmentationDuration.Observe(time.Since(start).Seconds())
	return kept, nil
}

func listFrames(dir, id string) ([]frameFile, error) {
	names, err := naming.ListFrames(dir, id)
	if err != nil {
		return nil, fmt.Errorf("listing frames: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w for %q in %s", naming.ErrNoFrames, id, dir)
	}

	files := make([]frameFile, 0, len(names))
	for _, name := range names {
		if n, ok := naming.FrameIndex(id, name); ok {
			files = append(files, frameFile{index: n, name: name})
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].index < files[j].index })
	return files, nil
}

// pixels is a decoded frame as 8-bit NRGBA.
type pixels struct {
	img *image.NRGBA
}

func load(path string) (*pixels, error) {
	src, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame: %w", err)
	}
	return &pixels{img: imaging.Clone(src)}, nil
}

// stdDev is the population standard deviation of the per-pixel mean of
// the red, green and blue channels.
func (p *pixels) stdDev() float64 {
	b := p.img.Bounds()
	n := float64(b.Dx() * b.Dy())
	if n == 0 {
		return 0
	}

	var sum, sumSq float64
	pix := p.img.Pix
	for y := 0; y < b.Dy(); y++ {
		row := pix[y*p.img.Stride : y*p.img.Stride+b.Dx()*4]
		for i := 0; i < len(row); i += 4 {
			g := (float64(row[i]) + float64(row[i+1]) + float64(row[i+2])) / 3
			sum += g
			sumSq += g * g
		}
	}
	mean := sum / n
	return math.Sqrt(math.Max(sumSq/n-mean*mean, 0))
}

// meanAbsDiff is the mean absolute difference over every colour channel.
// Frames of different sizes are as different as they can be.
func (p *pixels) meanAbsDiff(q *pixels) float64 {
	a, b := p.img.Bounds(), q.img.Bounds()
	if a.Dx() != b.Dx() || a.Dy() != b.Dy() {
		return 255
	}
	n := a.Dx() * a.Dy() * 3
	if n == 0 {
		return 0
	}

	var total int64
	for y := 0; y < a.Dy(); y++ {
		ra := p.img.Pix[y*p.img.Stride : y*p.img.Stride+a.Dx()*4]
		rb := q.img.Pix[y*q.img.Stride : y*q.img.Stride+a.Dx()*4]
		for i := 0; i < len(ra); i += 4 {
			for c := 0; c < 3; c++ {
				d := int64(ra[i+c]) - int64(rb[i+c])
				if d < 0 {
					d = -d
				}
				total += d
			}
		}
	}
	return float64(total) / float64(n)
}

// Write saves segments as indented JSON. An empty list is written as [].
func Write(path string, segments []Segment) error {
	if segments == nil {
		segments = []Segment{}
	}
	data, err := json.MarshalIndent(segments, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write segments: %w", err)
	}
	return nil
}
