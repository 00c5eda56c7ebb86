package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"course-frames/internal/command"
	"course-frames/internal/driver"
	"course-frames/internal/extractor"
	"course-frames/internal/grid"
	"course-frames/internal/logging"
	"course-frames/internal/manifest"
	"course-frames/internal/markers"
	"course-frames/internal/metrics"
	"course-frames/internal/naming"
	"course-frames/internal/segment"
	"course-frames/internal/startup"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// exitInterrupted is the conventional status for a run stopped by SIGINT.
const exitInterrupted = 130

// exitError carries a specific process exit status.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		startup.LogShutdownInitiated(sig.String())
		cancel()
	}()

	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	logging.Sync()
	os.Exit(code)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		logging.Error("%v", err)
		var ee *exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		return 1
	}
	return 0
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "course-frames",
		Short:         "Extract subtitle frames from course videos and batch them into OCR grids",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	opts := startup.EnvDefaults()
	run := &cobra.Command{
		Use:   "run <course-dir>",
		Short: "Process every video listed in <course-dir>/course.json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCourse(cmd.Context(), args[0], opts, stdout)
		},
	}

	f := run.Flags()
	f.StringVar(&opts.InputDir, "input-dir", opts.InputDir, "source video directory (default <course>/"+startup.DefaultInputSubdir+")")
	f.StringVar(&opts.OutputDir, "output-dir", opts.OutputDir, "frame and grid directory (default <course>/"+startup.DefaultOutputSubdir+")")
	f.StringVar(&opts.StateDir, "state-dir", opts.StateDir, "stage marker directory (default <course>/"+startup.DefaultStateSubdir+")")
	f.StringVar(&opts.Compositor, "compositor", opts.Compositor, "grid compositor: imaging, vips or magick")
	f.IntVar(&opts.Quality, "quality", opts.Quality, "JPEG quality of grids")
	f.BoolVar(&opts.Annotate, "annotate", opts.Annotate, "also write annotated grids with frame and timestamp labels")
	f.BoolVar(&opts.Timestamps, "timestamps", opts.Timestamps, "also write {id}_timestamps.tsv")
	f.BoolVar(&opts.VerifyMarkers, "verify-markers", opts.VerifyMarkers, "redo stages whose outputs exist without a completion marker")
	f.StringVar(&opts.MetricsFile, "metrics-file", opts.MetricsFile, "write Prometheus metrics to this textfile when done")
	f.BoolVar(&opts.JSON, "json", opts.JSON, "print the report as JSON")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := startup.GetBuildInfo()
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "course-frames %s (commit %s, built %s, %s %s/%s)\n",
				info.Version, info.Commit, info.BuildTime, info.GoVersion, info.OS, info.Arch)
			return err
		},
	}

	root.AddCommand(run, newSegmentCmd(stdout), version)
	return root
}

func runCourse(ctx context.Context, courseDir string, opts startup.Options, stdout io.Writer) error {
	// Nothing is created on disk until the manifest is known to be good.
	m, err := manifest.Load(courseDir)
	if err != nil {
		return err
	}

	config, err := startup.LoadConfig(courseDir, opts)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	logging.Info("  Manifest: %s (%d videos)", m.Path, len(m.Videos))

	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	metrics.InitializeMetrics(config.Compositor)
	defer writeMetrics(config.MetricsFile)

	if err := startup.CheckTools(ctx, config.Compositor); err != nil {
		logging.Warn("  %v, affected videos will fail", err)
	}

	runner := command.ExecRunner{}
	comp, err := grid.NewCompositor(config.Compositor, runner)
	if err != nil {
		return err
	}
	defer grid.ShutdownVips()

	d := &driver.Driver{
		Extractor: extractor.New(runner),
		Batcher: &grid.Batcher{
			Compositor: comp,
			Quality:    config.Quality,
			Annotate:   config.Annotate,
			Timestamps: config.Timestamps,
			Progress:   progressWriter(),
		},
		InputDir:      config.InputDir,
		OutputDir:     config.OutputDir,
		VerifyMarkers: config.VerifyMarkers,
		RunID:         uuid.NewString(),
	}

	store, err := markers.New(ctx, config.MarkerDBPath)
	if err != nil {
		logging.Warn("  Stage markers disabled: %v", err)
	} else {
		defer func() {
			if err := store.Close(); err != nil {
				logging.Warn("failed to close marker database: %v", err)
			}
		}()
		logging.Info("  Stage markers: %s", store.Path())
		d.Markers = store
	}

	startup.LogRunStarted(d.RunID, m.CourseTitle, len(m.Videos))
	report := d.Run(ctx, m)
	startup.LogRunComplete(report.Duration, report.Processed(), report.Count(driver.StatusFailed))

	if config.JSON {
		err = report.WriteJSON(stdout)
	} else {
		err = report.RenderTable(stdout)
	}
	if err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	if report.Interrupted {
		return &exitError{code: exitInterrupted, err: errors.New("run interrupted")}
	}
	return nil
}

type segmentFlags struct {
	framesDir string
	outputDir string
	summary   bool
	opts      segment.Options
}

func newSegmentCmd(stdout io.Writer) *cobra.Command {
	sf := segmentFlags{opts: segment.DefaultOptions()}
	cmd := &cobra.Command{
		Use:   "segment <id>",
		Short: "Group the frames of one video into segments showing the same subtitle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return segmentVideo(cmd.Context(), args[0], sf, stdout)
		},
	}

	f := cmd.Flags()
	f.StringVar(&sf.framesDir, "frames-dir", startup.DefaultOutputSubdir, "directory containing frame images")
	f.StringVar(&sf.outputDir, "output-dir", startup.DefaultSegmentsSubdir, "output directory for {id}_segments.json")
	f.Float64Var(&sf.opts.DiffThreshold, "diff-threshold", sf.opts.DiffThreshold, "pixel difference below which consecutive frames share a subtitle")
	f.Float64Var(&sf.opts.BlankThreshold, "blank-threshold", sf.opts.BlankThreshold, "grayscale standard deviation below which a frame is blank")
	f.IntVar(&sf.opts.MinDuration, "min-duration", sf.opts.MinDuration, "minimum segment duration in seconds")
	f.BoolVar(&sf.summary, "summary", false, "print a table of every segment")
	return cmd
}

func segmentVideo(ctx context.Context, id string, sf segmentFlags, stdout io.Writer) error {
	if err := sf.opts.Validate(); err != nil {
		return err
	}
	info, err := os.Stat(sf.framesDir)
	if err != nil {
		return fmt.Errorf("frames directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("frames directory %s is not a directory", sf.framesDir)
	}
	if err := os.MkdirAll(sf.outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	logging.Info("Segmenting frames for video %s in %s (diff %g, blank %g, min %ds)",
		id, sf.framesDir, sf.opts.DiffThreshold, sf.opts.BlankThreshold, sf.opts.MinDuration)

	segments, err := segment.Frames(ctx, sf.framesDir, id, sf.opts)
	if err != nil {
		return err
	}
	path := filepath.Join(sf.outputDir, naming.SegmentsName(id))
	if err := segment.Write(path, segments); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(stdout, "Saved %d segments to %s\n", len(segments), path); err != nil {
		return err
	}
	if sf.summary {
		return segment.RenderSummary(stdout, segments)
	}
	return nil
}

func writeMetrics(path string) {
	if path == "" {
		return
	}
	start := time.Now()
	if err := metrics.WriteTextfile(path); err != nil {
		logging.Warn("Failed to write metrics to %s: %v", path, err)
		return
	}
	logging.Debug("Metrics written to %s in %v", path, time.Since(start))
}

// progressWriter returns stderr when it is a terminal.
func progressWriter() io.Writer {
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return os.Stderr
	}
	return nil
}
