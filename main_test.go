package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
)

func writeCourse(t *testing.T, manifest string) string {
	t.Helper()
	dir := t.TempDir()
	if manifest != "" {
		if err := os.WriteFile(filepath.Join(dir, "course.json"), []byte(manifest), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestRunMissingSourceExitsZero(t *testing.T) {
	dir := writeCourse(t, `{
		"crop": {"height": 120, "scale_width": 1280, "scale_height": 120},
		"videos": [{"id": "0-1", "filename": "intro.mp4"}]
	}`)

	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), []string{"run", dir, "--json"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}

	var report struct {
		Videos []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
			Frames int    `json:"frames"`
			Grids  int    `json:"grids"`
		} `json:"videos"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &report); err != nil {
		t.Fatalf("report is not JSON: %v\n%s", err, stdout.String())
	}
	if len(report.Videos) != 1 {
		t.Fatalf("videos = %d, want 1", len(report.Videos))
	}
	v := report.Videos[0]
	if v.ID != "0-1" || v.Status != "missing_source" || v.Frames != 0 || v.Grids != 0 {
		t.Errorf("video = %+v", v)
	}

	if _, err := os.Stat(filepath.Join(dir, ".state", "markers.db")); err != nil {
		t.Errorf("marker database should be created: %v", err)
	}
}

func TestRunTableOutput(t *testing.T) {
	dir := writeCourse(t, `{
		"crop": {"height": 120, "scale_width": 1280, "scale_height": 120},
		"videos": [{"id": "0-1", "filename": "intro.mp4"}, {"id": "0-2", "filename": "next.mp4"}]
	}`)

	var stdout, stderr bytes.Buffer
	if code := execute(context.Background(), []string{"run", dir}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if !strings.Contains(stdout.String(), "Processed 2 videos (0 ok, 2 missing source, 0 failed)") {
		t.Errorf("unexpected table output:\n%s", stdout.String())
	}
}

func TestRunWritesMetricsFile(t *testing.T) {
	dir := writeCourse(t, `{"crop": {"height": 1, "scale_width": 1, "scale_height": 1}, "videos": []}`)
	prom := filepath.Join(t.TempDir(), "course.prom")

	var stdout, stderr bytes.Buffer
	if code := execute(context.Background(), []string{"run", dir, "--metrics-file", prom}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	data, err := os.ReadFile(prom)
	if err != nil {
		t.Fatalf("metrics file not written: %v", err)
	}
	if !strings.Contains(string(data), "course_frames_videos_processed_total") {
		t.Errorf("metrics file missing videos counter:\n%s", data)
	}
}

func TestRunConfigurationErrors(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		args     func(dir string) []string
	}{
		{
			name: "missing manifest",
			args: func(dir string) []string { return []string{"run", dir} },
		},
		{
			name:     "invalid manifest",
			manifest: `{"crop": {"height": 0, "scale_width": 1, "scale_height": 1}, "videos": []}`,
			args:     func(dir string) []string { return []string{"run", dir} },
		},
		{
			name:     "missing course argument",
			manifest: `{}`,
			args:     func(string) []string { return []string{"run"} },
		},
		{
			name:     "unknown compositor",
			manifest: `{"crop": {"height": 1, "scale_width": 1, "scale_height": 1}, "videos": []}`,
			args:     func(dir string) []string { return []string{"run", dir, "--compositor", "gimp"} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeCourse(t, tt.manifest)
			var stdout, stderr bytes.Buffer
			if code := execute(context.Background(), tt.args(dir), &stdout, &stderr); code != 1 {
				t.Errorf("exit code = %d, want 1", code)
			}
		})
	}
}

func TestRunInterruptedExitCode(t *testing.T) {
	dir := writeCourse(t, `{
		"crop": {"height": 120, "scale_width": 1280, "scale_height": 120},
		"videos": [{"id": "0-1", "filename": "intro.mp4"}]
	}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer
	if code := execute(ctx, []string{"run", dir}, &stdout, &stderr); code != exitInterrupted {
		t.Errorf("exit code = %d, want %d", code, exitInterrupted)
	}
}

func TestVersionCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := execute(context.Background(), []string{"version"}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if !strings.HasPrefix(stdout.String(), "course-frames dev") {
		t.Errorf("version output = %q", stdout.String())
	}
}

func TestSegmentCommand(t *testing.T) {
	frames := t.TempDir()
	out := filepath.Join(t.TempDir(), "segments")
	caption := imaging.Paste(imaging.New(40, 20, color.Black), imaging.New(10, 10, color.White), image.Pt(2, 5))
	for i := 1; i <= 3; i++ {
		if err := imaging.Save(caption, filepath.Join(frames, fmt.Sprintf("0-1_%04d.jpg", i))); err != nil {
			t.Fatal(err)
		}
	}

	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), []string{"segment", "0-1", "--frames-dir", frames, "--output-dir", out, "--summary"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0\n%s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "Saved 1 segments") || !strings.Contains(stdout.String(), "Total segments: 1") {
		t.Errorf("stdout = %q", stdout.String())
	}

	data, err := os.ReadFile(filepath.Join(out, "0-1_segments.json"))
	if err != nil {
		t.Fatal(err)
	}
	var segments []struct {
		FrameCount int `json:"frame_count"`
	}
	if err := json.Unmarshal(data, &segments); err != nil {
		t.Fatal(err)
	}
	if len(segments) != 1 || segments[0].FrameCount != 3 {
		t.Errorf("segments = %s", data)
	}
}

func TestSegmentCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing frames dir", []string{"segment", "a", "--frames-dir", filepath.Join(t.TempDir(), "absent"), "--output-dir", t.TempDir()}},
		{"no frames", []string{"segment", "a", "--frames-dir", t.TempDir(), "--output-dir", t.TempDir()}},
		{"bad threshold", []string{"segment", "a", "--frames-dir", t.TempDir(), "--diff-threshold=-3"}},
		{"missing id", []string{"segment"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := execute(context.Background(), tt.args, &stdout, &stderr); code != 1 {
				t.Errorf("exit code = %d, want 1", code)
			}
		})
	}
}
