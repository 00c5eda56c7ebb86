// Package manifest loads the per-course descriptor that lists the crop
// parameters and the videos to process.
//
// The manifest is read once at the start of a run into a Manifest value
// that is passed explicitly to the components that need it.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// ErrCodeNotFound means no manifest file exists in the course directory.
	ErrCodeNotFound = "manifest_not_found"
	// ErrCodeInvalid means the manifest could not be parsed or failed validation.
	ErrCodeInvalid = "manifest_invalid"
)

// FileNames are the manifest names looked up in a course directory, in order.
var FileNames = []string{"course.json", "course.yaml", "course.yml"}

// Crop describes how every frame is cut and scaled: the bottom Height
// pixels of the source frame are kept, then scaled to ScaleWidth x ScaleHeight.
type Crop struct {
	Height      int `json:"height" yaml:"height"`
	ScaleWidth  int `json:"scale_width" yaml:"scale_width"`
	ScaleHeight int `json:"scale_height" yaml:"scale_height"`
}

// Video is one entry of the manifest.
type Video struct {
	ID       string `json:"id" yaml:"id"`
	Filename string `json:"filename" yaml:"filename"`
	Title    string `json:"title,omitempty" yaml:"title,omitempty"`
}

// Manifest is the parsed course descriptor. Treat it as read-only.
type Manifest struct {
	Path        string  `json:"-" yaml:"-"`
	CourseTitle string  `json:"course_title,omitempty" yaml:"course_title,omitempty"`
	Author      string  `json:"author,omitempty" yaml:"author,omitempty"`
	Crop        Crop    `json:"crop" yaml:"crop"`
	Videos      []Video `json:"videos" yaml:"videos"`
}

// Error is a structured manifest error carrying an error code.
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s: no manifest found at %q", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s: manifest %q is invalid: %v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s: manifest %q is invalid", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code extracts the error code from err, or "" if err is not an *Error.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Find returns the path of the first manifest present in courseDir.
func Find(courseDir string) (string, error) {
	for _, name := range FileNames {
		p := filepath.Join(courseDir, name)
		info, err := os.Stat(p)
		if err == nil && !info.IsDir() {
			return p, nil
		}
		if err != nil && !os.IsNotExist(err) {
			return "", &Error{Code: ErrCodeInvalid, Path: p, Err: err}
		}
	}
	return "", &Error{Code: ErrCodeNotFound, Path: filepath.Join(courseDir, FileNames[0]), Err: os.ErrNotExist}
}

// Load finds, parses and validates the manifest of courseDir.
func Load(courseDir string) (Manifest, error) {
	path, err := Find(courseDir)
	if err != nil {
		return Manifest{}, err
	}
	return LoadFile(path)
}

// LoadFile parses and validates the manifest at path. The format is chosen
// from the extension: .yaml/.yml are YAML, anything else is JSON.
func LoadFile(path string) (Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Manifest{}, &Error{Code: ErrCodeNotFound, Path: path, Err: err}
		}
		return Manifest{}, &Error{Code: ErrCodeInvalid, Path: path, Err: err}
	}

	var m Manifest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &m)
	default:
		err = json.Unmarshal(b, &m)
	}
	if err != nil {
		return Manifest{}, &Error{Code: ErrCodeInvalid, Path: path, Err: err}
	}

	if err := Validate(m); err != nil {
		return Manifest{}, &Error{Code: ErrCodeInvalid, Path: path, Err: err}
	}

	m.Path = path
	return m, nil
}

// Validate checks the crop values and the video list.
func Validate(m Manifest) error {
	if m.Crop.Height <= 0 {
		return fmt.Errorf("crop.height must be > 0, got %d", m.Crop.Height)
	}
	if m.Crop.ScaleWidth <= 0 {
		return fmt.Errorf("crop.scale_width must be > 0, got %d", m.Crop.ScaleWidth)
	}
	if m.Crop.ScaleHeight <= 0 {
		return fmt.Errorf("crop.scale_height must be > 0, got %d", m.Crop.ScaleHeight)
	}

	seen := make(map[string]int, len(m.Videos))
	for i, v := range m.Videos {
		id := strings.TrimSpace(v.ID)
		if id == "" {
			return fmt.Errorf("videos[%d].id is required", i)
		}
		if id != v.ID {
			return fmt.Errorf("videos[%d].id %q has surrounding whitespace", i, v.ID)
		}
		if strings.ContainsAny(id, `/\`) {
			return fmt.Errorf("videos[%d].id %q must not contain path separators", i, id)
		}
		if prev, ok := seen[id]; ok {
			return fmt.Errorf("videos[%d].id %q duplicates videos[%d]", i, id, prev)
		}
		seen[id] = i

		if strings.TrimSpace(v.Filename) == "" {
			return fmt.Errorf("videos[%d].filename is required", i)
		}
	}
	return nil
}

// SourcePath resolves the video's file against inputDir.
func (v Video) SourcePath(inputDir string) string {
	if filepath.IsAbs(v.Filename) {
		return filepath.Clean(v.Filename)
	}
	return filepath.Join(inputDir, v.Filename)
}
