package driver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"course-frames/internal/extractor"
	"course-frames/internal/grid"
	"course-frames/internal/logging"
	"course-frames/internal/manifest"
	"course-frames/internal/markers"
	"course-frames/internal/metrics"
	"course-frames/internal/naming"

	"github.com/google/uuid"
)

// FrameExtractor produces the frames of one video.
type FrameExtractor interface {
	Extract(ctx context.Context, videoPath, outDir, id string, crop manifest.Crop) (extractor.Result, error)
	Probe(ctx context.Context, videoPath string) (*extractor.VideoInfo, error)
}

// GridBatcher produces the grids of one video.
type GridBatcher interface {
	Run(ctx context.Context, id string, total int, framesDir string) (int, error)
}

// MarkerStore persists stage completion.
type MarkerStore interface {
	Get(ctx context.Context, id string, stage markers.Stage) (*markers.Marker, error)
	Put(ctx context.Context, m markers.Marker) error
	Delete(ctx context.Context, id string, stage markers.Stage) error
}

// Driver sequences the stages for a course.
type Driver struct {
	Extractor FrameExtractor
	Batcher   GridBatcher
	// Markers is optional; without it existing outputs are trusted.
	Markers MarkerStore

	InputDir  string
	OutputDir string

	// VerifyMarkers redoes stages whose outputs exist without a marker.
	VerifyMarkers bool

	RunID string
}

// Run processes every video of m and returns the report. Run stops early
// only when ctx is cancelled; the report then covers the videos reached.
func (d *Driver) Run(ctx context.Context, m manifest.Manifest) Report {
	start := time.Now()
	if d.RunID == "" {
		d.RunID = uuid.NewString()
	}

	report := Report{
		RunID:       d.RunID,
		CourseTitle: m.CourseTitle,
		Started:     start,
		Items:       make([]ItemResult, 0, len(m.Videos)),
	}

	for i, v := range m.Videos {
		if ctx.Err() != nil {
			report.Interrupted = true
			logging.Warn("Run interrupted, %d of %d videos not processed", len(m.Videos)-i, len(m.Videos))
			break
		}

		logging.Info("[%d/%d] %s", i+1, len(m.Videos), v.ID)
		item := d.processVideo(ctx, m.Crop, v)
		metrics.VideosProcessedTotal.WithLabelValues(string(item.Status)).Inc()
		report.Items = append(report.Items, item)
	}

	report.Duration = time.Since(start)
	metrics.ObserveRun(report.Duration, time.Now())
	return report
}

// stageCheck is the verdict on outputs that are already present.
type stageCheck int

const (
	stageVerified stageCheck = iota
	stageUnverified
	stageRedo
)

func (d *Driver) processVideo(ctx context.Context, crop manifest.Crop, v manifest.Video) ItemResult {
	item := ItemResult{ID: v.ID, Title: v.Title, Status: StatusOK}

	src := v.SourcePath(d.InputDir)
	if _, err := os.Stat(src); err != nil {
		logging.Warn("Video %s: source %s not found, skipping", v.ID, src)
		item.Status = StatusMissingSource
		return item
	}

	// Frames
	frames, err := naming.CountFrames(d.OutputDir, v.ID)
	if err != nil {
		return item.fail(markers.StageFrames, err)
	}

	redoGrids := false
	framesUnverified := false
	if frames > 0 {
		switch d.checkStage(ctx, v.ID, markers.StageFrames, frames, &item) {
		case stageRedo:
			// Markers go first so an interrupted redo never leaves a marker
			// next to partial outputs.
			if err := d.deleteMarkers(ctx, v.ID, markers.StageFrames, markers.StageGrids); err != nil {
				return item.fail(markers.StageFrames, err)
			}
			removed, err := extractor.ClearFrames(d.OutputDir, v.ID)
			if err != nil {
				return item.fail(markers.StageFrames, err)
			}
			logging.Info("  Removed %d unverified frames of %s", removed, v.ID)
			frames = 0
			redoGrids = true
		case stageUnverified:
			framesUnverified = true
			fallthrough
		default:
			item.FramesSkipped = true
			logging.Info("  Frames: %d already present, skipping", frames)
			metrics.FrameExtractionsTotal.WithLabelValues("skipped").Inc()
		}
	}

	if frames == 0 {
		item.ExpectedFrames = d.expectedFrames(ctx, src)

		res, err := d.Extractor.Extract(ctx, src, d.OutputDir, v.ID, crop)
		if err != nil {
			item.Frames, _ = naming.CountFrames(d.OutputDir, v.ID)
			return item.fail(markers.StageFrames, err)
		}
		if frames, err = naming.CountFrames(d.OutputDir, v.ID); err != nil {
			return item.fail(markers.StageFrames, err)
		}
		logging.Info("  Frames: extracted %d in %v", frames, res.Elapsed.Round(time.Millisecond))

		if item.ExpectedFrames > 0 && abs(frames-item.ExpectedFrames) > 1 {
			logging.Warn("  Frames: %s yielded %d frames, duration suggests %d", v.ID, frames, item.ExpectedFrames)
		}
		d.putMarker(ctx, v.ID, markers.StageFrames, frames)
	}
	item.Frames = frames

	// Grids
	grids, err := naming.CountGrids(d.OutputDir, v.ID)
	if err != nil {
		return item.fail(markers.StageGrids, err)
	}

	if grids > 0 {
		verdict := stageRedo
		if !redoGrids {
			verdict = d.checkStage(ctx, v.ID, markers.StageGrids, grids, &item)
		}
		if verdict == stageRedo {
			if err := d.deleteMarkers(ctx, v.ID, markers.StageGrids); err != nil {
				return item.fail(markers.StageGrids, err)
			}
			if _, err := grid.ClearGrids(d.OutputDir, v.ID); err != nil {
				return item.fail(markers.StageGrids, err)
			}
			logging.Info("  Removed stale grids of %s", v.ID)
			grids = 0
		} else {
			item.GridsSkipped = true
			logging.Info("  Grids: %d already present, skipping", grids)
			metrics.GridStagesTotal.WithLabelValues("skipped").Inc()
		}
	}

	if grids == 0 {
		_, runErr := d.Batcher.Run(ctx, v.ID, frames, d.OutputDir)
		grids, err = naming.CountGrids(d.OutputDir, v.ID)
		item.Grids = grids
		if runErr != nil {
			return item.fail(markers.StageGrids, runErr)
		}
		if err != nil {
			return item.fail(markers.StageGrids, err)
		}
		logging.Info("  Grids: wrote %d", grids)
		if framesUnverified {
			// Grids inherit the doubt about the frames they were built from.
			logging.Warn("  %s: grids built from unverified frames, no marker recorded", v.ID)
			item.Unverified = append(item.Unverified, string(markers.StageGrids))
		} else {
			d.putMarker(ctx, v.ID, markers.StageGrids, grids)
		}
	}
	item.Grids = grids

	return item
}

// checkStage decides what to do with outputs of stage that already exist.
func (d *Driver) checkStage(ctx context.Context, id string, stage markers.Stage, count int, item *ItemResult) stageCheck {
	if d.Markers == nil {
		return stageVerified
	}

	m, err := d.Markers.Get(ctx, id, stage)
	switch {
	case errors.Is(err, markers.ErrNotFound):
		logging.Warn("  %s: %d %s present without a completion marker (possibly partial)", id, count, stage)
	case err != nil:
		logging.Warn("  %s: could not read %s marker: %v", id, stage, err)
		return stageVerified
	case m.Count != count:
		logging.Warn("  %s: %d %s present but marker recorded %d (possibly partial)", id, count, stage, m.Count)
	default:
		return stageVerified
	}

	if d.VerifyMarkers {
		return stageRedo
	}
	item.Unverified = append(item.Unverified, string(stage))
	return stageUnverified
}

func (d *Driver) putMarker(ctx context.Context, id string, stage markers.Stage, count int) {
	if d.Markers == nil {
		return
	}
	err := d.Markers.Put(ctx, markers.Marker{
		VideoID: id,
		Stage:   stage,
		Count:   count,
		RunID:   d.RunID,
	})
	if err != nil {
		logging.Warn("  %s: failed to record %s marker: %v", id, stage, err)
	}
}

func (d *Driver) deleteMarkers(ctx context.Context, id string, stages ...markers.Stage) error {
	if d.Markers == nil {
		return nil
	}
	for _, stage := range stages {
		if err := d.Markers.Delete(ctx, id, stage); err != nil {
			return err
		}
	}
	return nil
}

// expectedFrames probes the source duration. Probe failures are logged and
// yield 0.
func (d *Driver) expectedFrames(ctx context.Context, src string) int {
	info, err := d.Extractor.Probe(ctx, src)
	if err != nil {
		logging.Debug("  Probe of %s failed: %v", src, err)
		return 0
	}
	return extractor.ExpectedFrames(info.Duration)
}

func (item ItemResult) fail(stage markers.Stage, err error) ItemResult {
	item.Status = StatusFailed
	item.Error = fmt.Sprintf("%s: %v", stage, err)
	logging.Error("  %s: %s stage failed: %v", item.ID, stage, err)
	return item
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
