package grid

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"course-frames/internal/naming"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DefaultLabelWidth is the width in pixels of the label column on
// annotated grids.
const DefaultLabelWidth = 96

var (
	labelBackground = color.RGBA{30, 30, 30, 255}
	labelText       = color.RGBA{0, 255, 0, 255}
	rowSeparator    = color.RGBA{80, 80, 80, 255}
)

// Row is one frame placed in a grid.
type Row struct {
	Frame int
	Path  string
}

// Label returns the three label lines for a frame: "_0002", "1s", "00:00:01".
func Label(frame int) []string {
	sec := naming.FrameSecond(frame)
	return []string{
		fmt.Sprintf("_%04d", frame),
		fmt.Sprintf("%ds", sec),
		naming.FormatClock(sec),
	}
}

// ComposeAnnotated writes rows as a grid with a label column on the left.
// All rows take the size of the first frame.
func ComposeAnnotated(ctx context.Context, rows []Row, out string, quality, labelWidth int) error {
	paths := make([]string, len(rows))
	for i, r := range rows {
		paths[i] = r.Path
	}
	images, err := openFrames(ctx, paths)
	if err != nil {
		return err
	}

	fb := images[0].Bounds()
	frameW, frameH := fb.Dx(), fb.Dy()
	gridW := labelWidth + frameW

	dst := imaging.New(gridW, frameH*len(rows), color.Black)
	face := basicfont.Face7x13
	lineHeight := face.Metrics().Height.Ceil()

	for i, r := range rows {
		y := i * frameH

		draw.Draw(dst, image.Rect(0, y, labelWidth, y+frameH), image.NewUniform(labelBackground), image.Point{}, draw.Src)

		d := font.Drawer{Dst: dst, Src: image.NewUniform(labelText), Face: face}
		for n, line := range Label(r.Frame) {
			baseline := y + 4 + (n+1)*lineHeight
			if baseline > y+frameH {
				break
			}
			d.Dot = fixed.P(6, baseline)
			d.DrawString(line)
		}

		for x := 0; x < labelWidth; x++ {
			dst.Set(x, y, rowSeparator)
		}

		draw.Draw(dst, image.Rect(labelWidth, y, gridW, y+frameH), images[i], images[i].Bounds().Min, draw.Src)
	}

	if err := imaging.Save(dst, out, imaging.JPEGQuality(quality)); err != nil {
		return fmt.Errorf("failed to save annotated grid %s: %w", out, err)
	}
	return nil
}
