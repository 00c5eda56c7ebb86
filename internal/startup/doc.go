// Package startup handles configuration loading and run lifecycle logging.
//
// # Configuration
//
// Every setting has three layers: a built-in default, an environment
// variable, and a command-line flag. [EnvDefaults] reads the environment so
// the CLI can use the result as flag defaults; [LoadConfig] then resolves
// course-relative paths and validates the result.
//
//   - INPUT_DIR: Source video directory (default: <course>/step1-input/videos)
//   - OUTPUT_DIR: Flat frame and grid directory (default: <course>/step1-output/subtitle_frames_for_ocr)
//   - STATE_DIR: Stage marker directory (default: <course>/.state)
//   - GRID_COMPOSITOR: imaging, vips or magick (default: imaging)
//   - GRID_QUALITY: JPEG quality of grids, 1-100 (default: 90)
//   - GRID_ANNOTATE: Also write annotated grids (default: false)
//   - GRID_TIMESTAMPS: Also write {id}_timestamps.tsv (default: false)
//   - VERIFY_MARKERS: Redo stages whose outputs exist without a marker (default: false)
//   - METRICS_FILE: Write Prometheus metrics to this textfile at exit (default: unset)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//   - Version: Application version
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//   - GoVersion: Go compiler version
//
// # Example Usage
//
//	opts := startup.EnvDefaults()
//	// ... bind opts fields to flags and parse ...
//	config, err := startup.LoadConfig(courseDir, opts)
//	if err != nil {
//	    return fmt.Errorf("configuration error: %w", err)
//	}
//	if err := startup.CheckTools(ctx, config.Compositor); err != nil {
//	    logging.Warn("%v", err)
//	}
package startup
