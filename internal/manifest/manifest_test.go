package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validJSON = `{
  "course_title": "Intro",
  "author": "someone",
  "crop": {"height": 120, "scale_width": 960, "scale_height": 60},
  "videos": [
    {"id": "0-1", "filename": "0-1 Welcome.mp4", "title": "Welcome"},
    {"id": "0-2", "filename": "0-2 Setup.mp4"}
  ]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return p
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "course.json", validJSON)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if m.Path != path {
		t.Errorf("Path = %q, want %q", m.Path, path)
	}
	if m.Crop != (Crop{Height: 120, ScaleWidth: 960, ScaleHeight: 60}) {
		t.Errorf("Crop = %+v", m.Crop)
	}
	if len(m.Videos) != 2 {
		t.Fatalf("len(Videos) = %d, want 2", len(m.Videos))
	}
	if m.Videos[0].ID != "0-1" || m.Videos[1].ID != "0-2" {
		t.Errorf("manifest order not preserved: %+v", m.Videos)
	}
	if m.Videos[0].Title != "Welcome" {
		t.Errorf("Title = %q, want Welcome", m.Videos[0].Title)
	}
	if m.CourseTitle != "Intro" {
		t.Errorf("CourseTitle = %q", m.CourseTitle)
	}
}

func TestLoadYAMLFallback(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "course.yaml", `
crop:
  height: 100
  scale_width: 800
  scale_height: 50
videos:
  - id: a
    filename: a.mp4
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if m.Crop.Height != 100 || len(m.Videos) != 1 || m.Videos[0].Filename != "a.mp4" {
		t.Errorf("unexpected manifest: %+v", m)
	}
}

func TestLoadPrefersJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "course.json", validJSON)
	writeFile(t, dir, "course.yaml", "crop: {height: 1, scale_width: 1, scale_height: 1}\nvideos: []\n")

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if filepath.Base(m.Path) != "course.json" {
		t.Errorf("Path = %q, want course.json", m.Path)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(t.TempDir())
	if Code(err) != ErrCodeNotFound {
		t.Fatalf("Code(err) = %q, want %q (err=%v)", Code(err), ErrCodeNotFound, err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error should wrap os.ErrNotExist: %v", err)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"malformed json", `{"crop":`, "unexpected end"},
		{"zero height", `{"crop":{"height":0,"scale_width":1,"scale_height":1},"videos":[]}`, "crop.height"},
		{"negative width", `{"crop":{"height":1,"scale_width":-1,"scale_height":1},"videos":[]}`, "crop.scale_width"},
		{"missing scale height", `{"crop":{"height":1,"scale_width":1},"videos":[]}`, "crop.scale_height"},
		{"missing id", `{"crop":{"height":1,"scale_width":1,"scale_height":1},"videos":[{"filename":"a.mp4"}]}`, "videos[0].id"},
		{"duplicate id", `{"crop":{"height":1,"scale_width":1,"scale_height":1},"videos":[{"id":"a","filename":"a.mp4"},{"id":"a","filename":"b.mp4"}]}`, "duplicates"},
		{"separator in id", `{"crop":{"height":1,"scale_width":1,"scale_height":1},"videos":[{"id":"a/b","filename":"a.mp4"}]}`, "path separators"},
		{"missing filename", `{"crop":{"height":1,"scale_width":1,"scale_height":1},"videos":[{"id":"a"}]}`, "videos[0].filename"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "course.json", tt.content)

			_, err := Load(dir)
			if Code(err) != ErrCodeInvalid {
				t.Fatalf("Code(err) = %q, want %q (err=%v)", Code(err), ErrCodeInvalid, err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestEmptyVideoListIsValid(t *testing.T) {
	m := Manifest{Crop: Crop{Height: 1, ScaleWidth: 1, ScaleHeight: 1}}
	if err := Validate(m); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestSourcePath(t *testing.T) {
	v := Video{ID: "a", Filename: "a.mp4"}
	if got := v.SourcePath("/in"); got != filepath.Join("/in", "a.mp4") {
		t.Errorf("SourcePath() = %q", got)
	}

	abs := Video{ID: "b", Filename: "/videos/../videos/b.mp4"}
	if got := abs.SourcePath("/in"); got != "/videos/b.mp4" {
		t.Errorf("SourcePath() = %q, want /videos/b.mp4", got)
	}
}

func TestErrorMessages(t *testing.T) {
	e := &Error{Code: ErrCodeNotFound, Path: "/c/course.json"}
	if !strings.Contains(e.Error(), "no manifest found") {
		t.Errorf("Error() = %q", e.Error())
	}
	if Code(errors.New("plain")) != "" {
		t.Error("Code() of plain error should be empty")
	}
}
