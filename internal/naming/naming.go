package naming

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
)

// BatchSize is the number of frames stacked into one grid.
const BatchSize = 10

// FrameFormat is the zero-padding width used for frame indices.
type FrameFormat int

const (
	// FourDigit names frames {id}_0001.jpg. The extractor always writes this.
	FourDigit FrameFormat = iota
	// ThreeDigit names frames {id}_001.jpg.
	ThreeDigit
)

// ErrNoFrames is returned when neither frame naming pattern is present.
var ErrNoFrames = errors.New("no frames found")

func (f FrameFormat) String() string {
	switch f {
	case FourDigit:
		return "four-digit"
	case ThreeDigit:
		return "three-digit"
	default:
		return fmt.Sprintf("FrameFormat(%d)", int(f))
	}
}

// FrameName returns the file name of frame index (1-based) in format f.
func FrameName(id string, index int, f FrameFormat) string {
	if f == ThreeDigit {
		return fmt.Sprintf("%s_%03d.jpg", id, index)
	}
	return fmt.Sprintf("%s_%04d.jpg", id, index)
}

// FramePattern is the printf-style output pattern handed to the decoder.
func FramePattern(id string) string {
	return id + "_%04d.jpg"
}

// DetectFrameFormat inspects dir for the first frame of id. The four-digit
// name is checked first; ErrNoFrames is returned when neither exists.
func DetectFrameFormat(dir, id string) (FrameFormat, error) {
	for _, f := range []FrameFormat{FourDigit, ThreeDigit} {
		info, err := os.Stat(filepath.Join(dir, FrameName(id, 1, f)))
		if err == nil && !info.IsDir() {
			return f, nil
		}
		if err != nil && !os.IsNotExist(err) {
			return 0, fmt.Errorf("checking frames for %s: %w", id, err)
		}
	}
	return 0, fmt.Errorf("%w for %q in %s", ErrNoFrames, id, dir)
}

// GridWidth returns the index width shared by every grid of a video with
// batchCount grids.
func GridWidth(batchCount int) int {
	if batchCount > 99 {
		return 3
	}
	return 2
}

// GridName returns the file name of grid index (1-based) using width digits.
func GridName(id string, index, width int) string {
	return fmt.Sprintf("%s_grid_%0*d.jpg", id, width, index)
}

// AnnotatedGridName is the labelled variant of GridName.
func AnnotatedGridName(id string, index, width int) string {
	return fmt.Sprintf("%s_annotated_grid_%0*d.jpg", id, width, index)
}

// TimestampsName is the sidecar mapping grid rows to timestamps.
func TimestampsName(id string) string {
	return id + "_timestamps.tsv"
}

// Zero-padded indices overflow the padding without a leading zero, so
// frame 10000 is {id}_10000.jpg and grid 1000 is {id}_grid_1000.jpg.
// SegmentsName is the subtitle segment list written for a video.
func SegmentsName(id string) string {
	return id + "_segments.json"
}

// FrameIndex parses the 1-based index out of a frame file name of id.
func FrameIndex(id, name string) (int, bool) {
	m := frameRegexp(id).FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func frameRegexp(id string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(id) + `_(\d{3}|\d{4}|[1-9]\d{4,})\.jpg$`)
}

func gridRegexp(id string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(id) + `_grid_(\d{2}|\d{3}|[1-9]\d{3,})\.jpg$`)
}

// CountFrames returns how many frame files of id are in dir under either
// naming pattern. A missing directory counts as zero.
func CountFrames(dir, id string) (int, error) {
	return countMatching(dir, frameRegexp(id))
}

// CountGrids returns how many grid files of id are in dir under either
// index width. Annotated grids are not counted.
func CountGrids(dir, id string) (int, error) {
	return countMatching(dir, gridRegexp(id))
}

// ListFrames returns the frame file names of id in dir.
func ListFrames(dir, id string) ([]string, error) {
	return listMatching(dir, frameRegexp(id))
}

// ListGrids returns the grid file names of id in dir.
func ListGrids(dir, id string) ([]string, error) {
	return listMatching(dir, gridRegexp(id))
}

// ListAnnotatedGrids returns the annotated grid file names of id in dir.
func ListAnnotatedGrids(dir, id string) ([]string, error) {
	return listMatching(dir, regexp.MustCompile(`^`+regexp.QuoteMeta(id)+`_annotated_grid_(\d{2}|\d{3}|[1-9]\d{3,})\.jpg$`))
}

func countMatching(dir string, re *regexp.Regexp) (int, error) {
	names, err := listMatching(dir, re)
	return len(names), err
}

func listMatching(dir string, re *regexp.Regexp) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if re.MatchString(e.Name()) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
