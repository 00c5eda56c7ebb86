package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"course-frames/internal/command"
	"course-frames/internal/grid"
	"course-frames/internal/logging"
	"course-frames/internal/startup"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	logging.Sync()
	os.Exit(code)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newCmd(stdout)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		logging.Error("%v", err)
		return 1
	}
	return 0
}

func newCmd(stdout io.Writer) *cobra.Command {
	opts := startup.EnvDefaults()

	cmd := &cobra.Command{
		Use:           "make-grids <id> <total_frames> <frames_dir>",
		Short:         "Stack the frames of one video into grids of ten",
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			total, err := strconv.Atoi(args[1])
			if err != nil || total < 1 {
				return fmt.Errorf("total_frames must be a positive integer, got %q", args[1])
			}
			return makeGrids(cmd.Context(), args[0], total, args[2], opts, stdout)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Compositor, "compositor", opts.Compositor, "grid compositor: imaging, vips or magick")
	f.IntVar(&opts.Quality, "quality", opts.Quality, "JPEG quality of grids")
	f.BoolVar(&opts.Annotate, "annotate", opts.Annotate, "also write annotated grids with frame and timestamp labels")
	f.BoolVar(&opts.Timestamps, "timestamps", opts.Timestamps, "also write {id}_timestamps.tsv")
	return cmd
}

func makeGrids(ctx context.Context, id string, total int, framesDir string, opts startup.Options, stdout io.Writer) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	info, err := os.Stat(framesDir)
	if err != nil {
		return fmt.Errorf("frames directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("frames directory %s is not a directory", framesDir)
	}

	comp, err := grid.NewCompositor(opts.Compositor, command.ExecRunner{})
	if err != nil {
		return err
	}
	defer grid.ShutdownVips()

	b := &grid.Batcher{
		Compositor: comp,
		Quality:    opts.Quality,
		Annotate:   opts.Annotate,
		Timestamps: opts.Timestamps,
	}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		b.Progress = os.Stderr
	}

	count, err := b.Run(ctx, id, total, framesDir)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "Created %d grids for %s in %s\n", count, id, framesDir)
	return err
}
