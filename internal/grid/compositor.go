package grid

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"strconv"

	"course-frames/internal/command"
	"course-frames/internal/logging"

	"github.com/disintegration/imaging"
)

// DefaultQuality is the JPEG quality grids are written at.
const DefaultQuality = 90

// Compositor names accepted by NewCompositor.
const (
	CompositorImaging = "imaging"
	CompositorVips    = "vips"
	CompositorMagick  = "magick"
)

// Compositor stacks frames top to bottom into a single JPEG.
type Compositor interface {
	Name() string
	// Compose writes frames, in order, as rows of out. An existing out is
	// overwritten.
	Compose(ctx context.Context, frames []string, out string, quality int) error
}

// NewCompositor returns the compositor registered under name.
func NewCompositor(name string, runner command.Runner) (Compositor, error) {
	switch name {
	case "", CompositorImaging:
		return ImagingCompositor{}, nil
	case CompositorVips:
		if err := InitVips(); err != nil {
			return nil, err
		}
		return VipsCompositor{}, nil
	case CompositorMagick:
		if runner == nil {
			runner = command.ExecRunner{}
		}
		return &MagickCompositor{runner: runner, binary: "magick"}, nil
	default:
		return nil, fmt.Errorf("unknown compositor %q (want imaging, vips or magick)", name)
	}
}

// ImagingCompositor composes grids in-process with disintegration/imaging.
type ImagingCompositor struct{}

func (ImagingCompositor) Name() string { return CompositorImaging }

// Compose implements Compositor.
func (ImagingCompositor) Compose(ctx context.Context, frames []string, out string, quality int) error {
	images, err := openFrames(ctx, frames)
	if err != nil {
		return err
	}
	if err := imaging.Save(stack(images), out, imaging.JPEGQuality(quality)); err != nil {
		return fmt.Errorf("failed to save grid %s: %w", out, err)
	}
	return nil
}

func openFrames(ctx context.Context, frames []string) ([]image.Image, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames to compose")
	}
	images := make([]image.Image, 0, len(frames))
	for _, f := range frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := imaging.Open(f)
		if err != nil {
			return nil, fmt.Errorf("failed to open frame: %w", err)
		}
		images = append(images, img)
	}
	return images, nil
}

// stack appends images vertically, left aligned on a white background,
// the way "magick -append" does.
func stack(images []image.Image) *image.NRGBA {
	width, height := 0, 0
	for _, img := range images {
		b := img.Bounds()
		width = max(width, b.Dx())
		height += b.Dy()
	}

	dst := imaging.New(width, height, color.White)
	y := 0
	for _, img := range images {
		dst = imaging.Paste(dst, img, image.Pt(0, y))
		y += img.Bounds().Dy()
	}
	return dst
}

// MagickCompositor shells out to ImageMagick.
type MagickCompositor struct {
	runner command.Runner
	binary string
}

func (*MagickCompositor) Name() string { return CompositorMagick }

// Compose implements Compositor.
func (m *MagickCompositor) Compose(ctx context.Context, frames []string, out string, quality int) error {
	if len(frames) == 0 {
		return fmt.Errorf("no frames to compose")
	}
	args := make([]string, 0, len(frames)+4)
	args = append(args, frames...)
	args = append(args, "-append", "-quality", strconv.Itoa(quality), out)

	logging.Debug("Composing %d frames into %s with %s", len(frames), out, m.binary)
	if _, err := m.runner.Run(ctx, m.binary, args...); err != nil {
		return fmt.Errorf("composing %s: %w", out, err)
	}
	return nil
}
