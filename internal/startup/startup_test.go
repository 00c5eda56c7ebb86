package startup

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.GoVersion == "" {
		t.Error("Expected GoVersion to be set")
	}
	if info.OS == "" {
		t.Error("Expected OS to be set")
	}
	if info.Arch == "" {
		t.Error("Expected Arch to be set")
	}
	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
		setEnv       bool
	}{
		{
			name:         "Returns default when env var not set",
			key:          "TEST_UNSET_VAR",
			defaultValue: "default",
			want:         "default",
		},
		{
			name:         "Returns env value when set",
			key:          "TEST_SET_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
			setEnv:       true,
		},
		{
			name:         "Returns default when env var is empty",
			key:          "TEST_EMPTY_VAR",
			defaultValue: "default",
			envValue:     "",
			want:         "default",
			setEnv:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				t.Setenv(tt.key, tt.envValue)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv(%q, %q) = %q, want %q", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue bool
		want         bool
		setEnv       bool
	}{
		{name: "Returns default when unset", defaultValue: true, want: true},
		{name: "Parses true", envValue: "true", want: true, setEnv: true},
		{name: "Parses 0", envValue: "0", defaultValue: true, want: false, setEnv: true},
		{name: "Parses T", envValue: "T", want: true, setEnv: true},
		{name: "Invalid falls back to default", envValue: "yes please", defaultValue: true, want: true, setEnv: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				t.Setenv("TEST_BOOL_VAR", tt.envValue)
			}
			if got := getEnvBool("TEST_BOOL_VAR", tt.defaultValue); got != tt.want {
				t.Errorf("getEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("TEST_INT_VAR", "75")
	if got := getEnvInt("TEST_INT_VAR", 90); got != 75 {
		t.Errorf("getEnvInt() = %d, want 75", got)
	}

	t.Setenv("TEST_INT_VAR", "high")
	if got := getEnvInt("TEST_INT_VAR", 90); got != 90 {
		t.Errorf("getEnvInt() with invalid value = %d, want default 90", got)
	}
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("GRID_COMPOSITOR", "magick")
	t.Setenv("GRID_QUALITY", "80")
	t.Setenv("GRID_ANNOTATE", "true")
	t.Setenv("OUTPUT_DIR", "/tmp/frames")

	opts := EnvDefaults()
	if opts.Compositor != "magick" || opts.Quality != 80 || !opts.Annotate || opts.OutputDir != "/tmp/frames" {
		t.Errorf("EnvDefaults() = %+v", opts)
	}
	if opts.Timestamps || opts.VerifyMarkers {
		t.Errorf("unset booleans should be false: %+v", opts)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"defaults", Options{Compositor: "imaging", Quality: 90}, false},
		{"vips", Options{Compositor: "vips", Quality: 1}, false},
		{"unknown compositor", Options{Compositor: "gimp", Quality: 90}, true},
		{"quality zero", Options{Compositor: "imaging", Quality: 0}, true},
		{"quality too high", Options{Compositor: "magick", Quality: 101}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	course := t.TempDir()

	cfg, err := LoadConfig(course, Options{Compositor: "imaging", Quality: 90})
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	want := map[string]string{
		"input":  filepath.Join(course, "step1-input", "videos"),
		"output": filepath.Join(course, "step1-output", "subtitle_frames_for_ocr"),
		"state":  filepath.Join(course, ".state"),
		"db":     filepath.Join(course, ".state", "markers.db"),
	}
	got := map[string]string{
		"input":  cfg.InputDir,
		"output": cfg.OutputDir,
		"state":  cfg.StateDir,
		"db":     cfg.MarkerDBPath,
	}
	for k, w := range want {
		if got[k] != w {
			t.Errorf("%s = %s, want %s", k, got[k], w)
		}
	}

	if info, err := os.Stat(cfg.OutputDir); err != nil || !info.IsDir() {
		t.Errorf("output directory should be created: %v", err)
	}
	if _, err := os.Stat(cfg.InputDir); !os.IsNotExist(err) {
		t.Errorf("input directory should not be created, stat err = %v", err)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	course := t.TempDir()
	out := filepath.Join(t.TempDir(), "frames")

	cfg, err := LoadConfig(course, Options{
		OutputDir:   out,
		Compositor:  "vips",
		Quality:     70,
		Timestamps:  true,
		MetricsFile: "/tmp/course.prom",
	})
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.OutputDir != out || cfg.Compositor != "vips" || cfg.Quality != 70 || !cfg.Timestamps {
		t.Errorf("LoadConfig() = %+v", cfg)
	}
	if cfg.MetricsFile != "/tmp/course.prom" {
		t.Errorf("MetricsFile = %s", cfg.MetricsFile)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "course.txt")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	valid := Options{Compositor: "imaging", Quality: 90}

	if _, err := LoadConfig(filepath.Join(dir, "missing"), valid); err == nil {
		t.Error("missing course directory should fail")
	}
	if _, err := LoadConfig(file, valid); err == nil {
		t.Error("course path that is a file should fail")
	}
	if _, err := LoadConfig(dir, Options{OutputDir: file, Compositor: "imaging", Quality: 90}); err == nil {
		t.Error("output path that is a file should fail")
	}
	if _, err := LoadConfig(dir, Options{Compositor: "imaging"}); err == nil {
		t.Error("invalid quality should fail")
	}
}
