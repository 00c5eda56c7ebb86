package grid

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"course-frames/internal/logging"
	"course-frames/internal/metrics"
	"course-frames/internal/naming"

	"github.com/schollz/progressbar/v3"
)

// ErrNoFrames is returned when neither frame naming pattern matches the
// first frame of a video.
var ErrNoFrames = naming.ErrNoFrames

// Batcher writes the grids of one video at a time.
type Batcher struct {
	Compositor Compositor
	Quality    int

	// Annotate also writes {id}_annotated_grid_NN.jpg with a label column.
	Annotate   bool
	LabelWidth int

	// Timestamps also writes {id}_timestamps.tsv.
	Timestamps bool

	// Progress receives a progress bar when non-nil.
	Progress io.Writer
}

// Run composites frames 1..total of id found in framesDir into grids in the
// same directory, overwriting existing grids, and returns the number of grid
// files present afterwards.
func (b *Batcher) Run(ctx context.Context, id string, total int, framesDir string) (int, error) {
	start := time.Now()

	format, err := naming.DetectFrameFormat(framesDir, id)
	if err != nil {
		metrics.GridStagesTotal.WithLabelValues("error").Inc()
		return 0, err
	}

	comp := b.Compositor
	if comp == nil {
		comp = ImagingCompositor{}
	}
	quality := b.Quality
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	labelWidth := b.LabelWidth
	if labelWidth <= 0 {
		labelWidth = DefaultLabelWidth
	}

	batches := naming.PlanBatches(total)
	width := naming.GridWidth(len(batches))
	logging.Debug("Batching %d frames of %s (%s) into %d grids", total, id, format, len(batches))

	bar := b.progress(id, len(batches))
	for _, batch := range batches {
		rows := make([]Row, 0, batch.Size())
		paths := make([]string, 0, batch.Size())
		for _, frame := range batch.Frames() {
			p := filepath.Join(framesDir, naming.FrameName(id, frame, format))
			rows = append(rows, Row{Frame: frame, Path: p})
			paths = append(paths, p)
		}

		name := naming.GridName(id, batch.Index, width)
		composeStart := time.Now()
		if err := comp.Compose(ctx, paths, filepath.Join(framesDir, name), quality); err != nil {
			metrics.GridStagesTotal.WithLabelValues("error").Inc()
			return 0, fmt.Errorf("grid %s: %w", name, err)
		}
		metrics.GridCompositeDuration.WithLabelValues(comp.Name()).Observe(time.Since(composeStart).Seconds())
		metrics.GridsWrittenTotal.WithLabelValues(comp.Name()).Inc()

		if b.Annotate {
			annotated := naming.AnnotatedGridName(id, batch.Index, width)
			if err := ComposeAnnotated(ctx, rows, filepath.Join(framesDir, annotated), quality, labelWidth); err != nil {
				metrics.GridStagesTotal.WithLabelValues("error").Inc()
				return 0, fmt.Errorf("grid %s: %w", annotated, err)
			}
		}

		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	if b.Timestamps {
		gridName := func(batch naming.Batch) string {
			if b.Annotate {
				return naming.AnnotatedGridName(id, batch.Index, width)
			}
			return naming.GridName(id, batch.Index, width)
		}
		path := filepath.Join(framesDir, naming.TimestampsName(id))
		if err := WriteTimestamps(path, TimestampRows(batches, gridName)); err != nil {
			metrics.GridStagesTotal.WithLabelValues("error").Inc()
			return 0, fmt.Errorf("writing timestamps for %s: %w", id, err)
		}
	}

	count, err := naming.CountGrids(framesDir, id)
	if err != nil {
		metrics.GridStagesTotal.WithLabelValues("error").Inc()
		return 0, err
	}
	metrics.GridStagesTotal.WithLabelValues("success").Inc()
	logging.Debug("Wrote %d grids for %s in %v", len(batches), id, time.Since(start))
	return count, nil
}

func (b *Batcher) progress(id string, n int) *progressbar.ProgressBar {
	if b.Progress == nil || n == 0 {
		return nil
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(b.Progress),
		progressbar.OptionSetDescription(id+" grids"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}
