package grid

import (
	"context"
	"image"
	"image/color"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
)

func writeJPEG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	if err := imaging.Save(imaging.New(w, h, c), path, imaging.JPEGQuality(95)); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func near(c color.Color, want color.RGBA) bool {
	r, g, b, _ := c.RGBA()
	d := func(a uint32, b uint8) bool {
		v := int(a>>8) - int(b)
		return v > -40 && v < 40
	}
	return d(r, want.R) && d(g, want.G) && d(b, want.B)
}

var (
	red   = color.RGBA{255, 0, 0, 255}
	green = color.RGBA{0, 200, 0, 255}
	blue  = color.RGBA{0, 0, 255, 255}
)

func TestImagingCompositorStacksInOrder(t *testing.T) {
	dir := t.TempDir()
	colors := []color.RGBA{red, green, blue}
	var frames []string
	for i, c := range colors {
		p := filepath.Join(dir, "f"+string(rune('a'+i))+".jpg")
		writeJPEG(t, p, 40, 20, c)
		frames = append(frames, p)
	}

	out := filepath.Join(dir, "grid.jpg")
	if err := (ImagingCompositor{}).Compose(context.Background(), frames, out, DefaultQuality); err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	img, err := imaging.Open(out)
	if err != nil {
		t.Fatalf("open grid: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 60 {
		t.Fatalf("grid size = %dx%d, want 40x60", b.Dx(), b.Dy())
	}
	for i, c := range colors {
		if got := img.At(20, i*20+10); !near(got, c) {
			t.Errorf("row %d color = %v, want near %v", i+1, got, c)
		}
	}
}

func TestImagingCompositorMissingFrame(t *testing.T) {
	dir := t.TempDir()
	err := (ImagingCompositor{}).Compose(context.Background(), []string{filepath.Join(dir, "nope.jpg")}, filepath.Join(dir, "g.jpg"), 90)
	if err == nil {
		t.Error("Compose() expected error for missing frame")
	}
}

func TestImagingCompositorCancelled(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.jpg")
	writeJPEG(t, p, 10, 10, red)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := (ImagingCompositor{}).Compose(ctx, []string{p}, filepath.Join(dir, "g.jpg"), 90); err != context.Canceled {
		t.Errorf("Compose() error = %v, want context.Canceled", err)
	}
}

func TestStackUnevenWidths(t *testing.T) {
	a := imaging.New(30, 10, red)
	b := imaging.New(50, 5, blue)
	got := stack([]image.Image{a, b})
	if bounds := got.Bounds(); bounds.Dx() != 50 || bounds.Dy() != 15 {
		t.Fatalf("stack size = %dx%d, want 50x15", bounds.Dx(), bounds.Dy())
	}
	if c := got.NRGBAAt(40, 5); c != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("padding = %v, want white", c)
	}
}

func TestComposeAnnotated(t *testing.T) {
	dir := t.TempDir()
	rows := []Row{
		{Frame: 1, Path: filepath.Join(dir, "a.jpg")},
		{Frame: 2, Path: filepath.Join(dir, "b.jpg")},
	}
	writeJPEG(t, rows[0].Path, 80, 60, red)
	writeJPEG(t, rows[1].Path, 80, 60, blue)

	out := filepath.Join(dir, "annotated.jpg")
	if err := ComposeAnnotated(context.Background(), rows, out, DefaultQuality, DefaultLabelWidth); err != nil {
		t.Fatalf("ComposeAnnotated() error = %v", err)
	}

	img, err := imaging.Open(out)
	if err != nil {
		t.Fatalf("open annotated grid: %v", err)
	}
	if b := img.Bounds(); b.Dx() != DefaultLabelWidth+80 || b.Dy() != 120 {
		t.Fatalf("annotated size = %dx%d, want %dx120", b.Dx(), b.Dy(), DefaultLabelWidth+80)
	}
	if got := img.At(2, 50); !near(got, labelBackground) {
		t.Errorf("label column = %v, want near %v", got, labelBackground)
	}
	if got := img.At(DefaultLabelWidth+40, 30); !near(got, red) {
		t.Errorf("first row = %v, want near red", got)
	}
	if got := img.At(DefaultLabelWidth+40, 90); !near(got, blue) {
		t.Errorf("second row = %v, want near blue", got)
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		frame int
		want  []string
	}{
		{1, []string{"_0001", "0s", "00:00:00"}},
		{2, []string{"_0002", "1s", "00:00:01"}},
		{3662, []string{"_3662", "3661s", "01:01:01"}},
	}
	for _, tt := range tests {
		if got := Label(tt.frame); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Label(%d) = %v, want %v", tt.frame, got, tt.want)
		}
	}
}

type recordingRunner struct {
	name string
	args []string
}

func (r *recordingRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.name, r.args = name, args
	return nil, nil
}

func TestMagickCompositorArgs(t *testing.T) {
	rr := &recordingRunner{}
	c, err := NewCompositor(CompositorMagick, rr)
	if err != nil {
		t.Fatalf("NewCompositor() error = %v", err)
	}
	if err := c.Compose(context.Background(), []string{"a.jpg", "b.jpg"}, "g.jpg", 85); err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if rr.name != "magick" {
		t.Errorf("tool = %s, want magick", rr.name)
	}
	if got := strings.Join(rr.args, " "); got != "a.jpg b.jpg -append -quality 85 g.jpg" {
		t.Errorf("args = %q", got)
	}
}

func TestNewCompositor(t *testing.T) {
	for _, name := range []string{"", CompositorImaging} {
		c, err := NewCompositor(name, nil)
		if err != nil {
			t.Fatalf("NewCompositor(%q) error = %v", name, err)
		}
		if c.Name() != CompositorImaging {
			t.Errorf("NewCompositor(%q).Name() = %s", name, c.Name())
		}
	}
	if _, err := NewCompositor("gimp", nil); err == nil {
		t.Error("NewCompositor(gimp) expected error")
	}
}
