package startup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"course-frames/internal/command"
	"course-frames/internal/grid"
	"course-frames/internal/logging"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// Course-relative layout defaults.
const (
	DefaultInputSubdir  = "step1-input/videos"
	DefaultOutputSubdir = "step1-output/subtitle_frames_for_ocr"
	DefaultStateSubdir  = ".state"
	MarkerDBName        = "markers.db"

	// DefaultSegmentsSubdir is where the segment command writes by default.
	DefaultSegmentsSubdir = "step2-output/segments"
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Options are unresolved settings, as given by flags or the environment.
// Empty paths mean "use the course-relative default".
type Options struct {
	InputDir      string
	OutputDir     string
	StateDir      string
	Compositor    string
	Quality       int
	Annotate      bool
	Timestamps    bool
	VerifyMarkers bool
	MetricsFile   string
	JSON          bool
}

// EnvDefaults reads Options from the environment.
func EnvDefaults() Options {
	return Options{
		InputDir:      getEnv("INPUT_DIR", ""),
		OutputDir:     getEnv("OUTPUT_DIR", ""),
		StateDir:      getEnv("STATE_DIR", ""),
		Compositor:    getEnv("GRID_COMPOSITOR", grid.CompositorImaging),
		Quality:       getEnvInt("GRID_QUALITY", grid.DefaultQuality),
		Annotate:      getEnvBool("GRID_ANNOTATE", false),
		Timestamps:    getEnvBool("GRID_TIMESTAMPS", false),
		VerifyMarkers: getEnvBool("VERIFY_MARKERS", false),
		MetricsFile:   getEnv("METRICS_FILE", ""),
	}
}

// Validate checks the settings shared by both commands.
func (o Options) Validate() error {
	switch o.Compositor {
	case grid.CompositorImaging, grid.CompositorVips, grid.CompositorMagick:
	default:
		return fmt.Errorf("unknown compositor %q (want imaging, vips or magick)", o.Compositor)
	}
	if o.Quality < 1 || o.Quality > 100 {
		return fmt.Errorf("grid quality must be between 1 and 100, got %d", o.Quality)
	}
	return nil
}

// Config holds the resolved configuration of one course run.
type Config struct {
	CourseDir     string
	InputDir      string
	OutputDir     string
	StateDir      string
	Compositor    string
	Quality       int
	Annotate      bool
	Timestamps    bool
	VerifyMarkers bool
	MetricsFile   string
	JSON          bool

	// Derived paths
	MarkerDBPath string
}

// LoadConfig resolves opts against courseDir and prepares the output and
// state directories.
func LoadConfig(courseDir string, opts Options) (*Config, error) {
	printBanner()
	logSystemInfo()

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	courseDir, err := filepath.Abs(courseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve course directory path: %w", err)
	}
	info, err := os.Stat(courseDir)
	if err != nil {
		return nil, fmt.Errorf("course directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("course directory %s is not a directory", courseDir)
	}

	resolve := func(value, def string) (string, error) {
		if value == "" {
			return filepath.Join(courseDir, def), nil
		}
		return filepath.Abs(value)
	}

	config := &Config{
		CourseDir:     courseDir,
		Compositor:    opts.Compositor,
		Quality:       opts.Quality,
		Annotate:      opts.Annotate,
		Timestamps:    opts.Timestamps,
		VerifyMarkers: opts.VerifyMarkers,
		MetricsFile:   opts.MetricsFile,
		JSON:          opts.JSON,
	}
	if config.InputDir, err = resolve(opts.InputDir, DefaultInputSubdir); err != nil {
		return nil, fmt.Errorf("failed to resolve input directory path: %w", err)
	}
	if config.OutputDir, err = resolve(opts.OutputDir, DefaultOutputSubdir); err != nil {
		return nil, fmt.Errorf("failed to resolve output directory path: %w", err)
	}
	if config.StateDir, err = resolve(opts.StateDir, DefaultStateSubdir); err != nil {
		return nil, fmt.Errorf("failed to resolve state directory path: %w", err)
	}
	config.MarkerDBPath = filepath.Join(config.StateDir, MarkerDBName)

	logSection("CONFIGURATION")
	logging.Info("  COURSE_DIR:       %s", config.CourseDir)
	logging.Info("  INPUT_DIR:        %s", config.InputDir)
	logging.Info("  OUTPUT_DIR:       %s", config.OutputDir)
	logging.Info("  STATE_DIR:        %s", config.StateDir)
	logging.Info("  GRID_COMPOSITOR:  %s", config.Compositor)
	logging.Info("  GRID_QUALITY:     %d", config.Quality)
	logging.Info("  GRID_ANNOTATE:    %v", config.Annotate)
	logging.Info("  GRID_TIMESTAMPS:  %v", config.Timestamps)
	logging.Info("  VERIFY_MARKERS:   %v", config.VerifyMarkers)
	logging.Info("  METRICS_FILE:     %s", valueOr(config.MetricsFile, "(disabled)"))
	logging.Info("  LOG_LEVEL:        %s", logging.GetLevel())

	logSection("DIRECTORY SETUP")
	if err := checkDirectory(config.InputDir, "input"); err != nil {
		// Missing videos are reported per video.
		logging.Warn("  Input directory issue: %v", err)
	}
	if err := ensureDirectory(config.OutputDir, "output"); err != nil {
		return nil, fmt.Errorf("output directory error: %w", err)
	}
	if err := testWriteAccess(config.OutputDir); err != nil {
		return nil, fmt.Errorf("output directory is not writable: %w", err)
	}
	logging.Info("  [OK] Output directory is writable")
	if err := ensureDirectory(config.StateDir, "state"); err != nil {
		return nil, fmt.Errorf("state directory error: %w", err)
	}
	logging.Info("  [OK] State directory ready")

	return config, nil
}

// CheckTools verifies the external programs the run needs.
func CheckTools(ctx context.Context, compositor string) error {
	logSection("TOOL CHECK")

	tools := []string{"ffmpeg", "ffprobe"}
	if compositor == grid.CompositorMagick {
		tools = append(tools, "magick")
	}

	var missing []string
	for _, tool := range tools {
		if err := checkTool(ctx, tool); err != nil {
			logging.Warn("  %s: %v", tool, err)
			missing = append(missing, tool)
			continue
		}
		logging.Info("  [OK] %s is available", tool)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing tools: %s", strings.Join(missing, ", "))
	}
	return nil
}

func checkTool(ctx context.Context, tool string) error {
	if !command.Available(tool) {
		return fmt.Errorf("%s not found in PATH", tool)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	output, err := command.ExecRunner{}.Run(ctx, tool, "-version")
	if err != nil {
		return fmt.Errorf("failed to get %s version: %w", tool, err)
	}

	lines := strings.Split(string(output), "\n")
	if len(lines) > 0 {
		logging.Debug("  %s version: %s", tool, strings.TrimSpace(lines[0]))
	}
	return nil
}

// LogRunStarted logs the start of a course run.
func LogRunStarted(runID, courseTitle string, videos int) {
	logSection("RUN STARTED")
	logging.Info("  Run ID:   %s", runID)
	if courseTitle != "" {
		logging.Info("  Course:   %s", courseTitle)
	}
	logging.Info("  Videos:   %d", videos)
	logging.Info("")
}

// LogRunComplete logs the end of a course run.
func LogRunComplete(duration time.Duration, processed, failed int) {
	logSection("RUN COMPLETE")
	logging.Info("  Videos processed: %d", processed)
	if failed > 0 {
		logging.Warn("  Videos failed:    %d", failed)
	}
	logging.Info("  Duration:         %v", duration.Round(time.Millisecond))
}

// LogShutdownInitiated logs an interrupt
func LogShutdownInitiated(signal string) {
	logSection(fmt.Sprintf("SHUTDOWN INITIATED (received %s)", signal))
}

// Helper functions

func logSection(title string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("%s", title)
	logging.Info("------------------------------------------------------------")
}

func printBanner() {
	logging.Printf("------------------------------------------------------------")
	logging.Printf("  course-frames: subtitle frames and OCR grids")
	logging.Printf("------------------------------------------------------------")
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Debug("------------------------------------------------------------")
	logging.Debug("SYSTEM INFORMATION")
	logging.Debug("------------------------------------------------------------")
	logging.Debug("  Go version:      %s", runtime.Version())
	logging.Debug("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Debug("  CPUs available:  %d", runtime.NumCPU())

	if wd, err := os.Getwd(); err == nil {
		logging.Debug("  Working dir:     %s", wd)
	}
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func checkDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s exists but is not a directory", path)
	}

	if logging.IsDebugEnabled() {
		if entries, err := os.ReadDir(path); err == nil {
			logging.Debug("    Contents: %d entries", len(entries))
		}
	}
	return nil
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
