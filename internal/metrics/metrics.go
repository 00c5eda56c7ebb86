package metrics

import (
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every metric declared in this package.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

// Extraction metrics
var (
	FrameExtractionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "course_frames_frame_extractions_total",
			Help: "Total number of frame extraction stages by status",
		},
		[]string{"status"},
	)

	FramesExtractedTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "course_frames_frames_extracted_total",
			Help: "Total number of frame images produced by the decoder",
		},
	)

	FrameExtractionDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "course_frames_frame_extraction_duration_seconds",
			Help:    "Frame extraction duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200},
		},
	)
)

// Grid metrics
var (
	GridStagesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "course_frames_grid_stages_total",
			Help: "Total number of grid stages by status",
		},
		[]string{"status"},
	)

	GridsWrittenTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "course_frames_grids_written_total",
			Help: "Total number of grid images written",
		},
		[]string{"compositor"},
	)

	GridCompositeDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "course_frames_grid_composite_duration_seconds",
			Help:    "Time spent compositing a single grid in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"compositor"},
	)
)

// Segmentation metrics
var (
	SegmentsCreatedTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "course_frames_segments_created_total",
			Help: "Total number of subtitle segments kept after filtering",
		},
	)

	SegmentationDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "course_frames_segmentation_duration_seconds",
			Help:    "Time spent segmenting the frames of one video in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
	)
)

// External tool metrics
var (
	ToolInvocationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "course_frames_tool_invocations_total",
			Help: "Total number of external tool invocations",
		},
		[]string{"tool", "status"},
	)

	ToolDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "course_frames_tool_duration_seconds",
			Help:    "External tool run time in seconds",
			Buckets: []float64{0.05, 0.25, 1, 5, 30, 120, 600},
		},
		[]string{"tool"},
	)
)

// Marker store metrics
var (
	MarkerQueriesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "course_frames_marker_queries_total",
			Help: "Total number of marker store queries",
		},
		[]string{"operation", "status"},
	)

	MarkerQueryDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "course_frames_marker_query_duration_seconds",
			Help:    "Marker store query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)
)

// Run metrics
var (
	VideosProcessedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "course_frames_videos_processed_total",
			Help: "Total number of videos processed by final status",
		},
		[]string{"status"},
	)

	RunDuration = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "course_frames_run_duration_seconds",
			Help: "Duration of the last course run in seconds",
		},
	)

	RunLastTimestamp = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "course_frames_run_last_timestamp",
			Help: "Unix timestamp of the last course run completion",
		},
	)

	AppInfo = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "course_frames_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}

// ObserveTool records one external tool invocation.
func ObserveTool(name string, d time.Duration, err error) {
	tool := filepath.Base(name)
	ToolInvocationsTotal.WithLabelValues(tool, statusLabel(err)).Inc()
	ToolDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// ObserveMarkerQuery records a marker store query.
func ObserveMarkerQuery(operation string, start time.Time, err error) {
	MarkerQueriesTotal.WithLabelValues(operation, statusLabel(err)).Inc()
	MarkerQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// ObserveRun records the end of a course run.
func ObserveRun(d time.Duration, finished time.Time) {
	RunDuration.Set(d.Seconds())
	RunLastTimestamp.Set(float64(finished.Unix()))
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// WriteTextfile writes the registry to path in the text exposition format.
// The file is written atomically so a concurrent scrape never sees a partial file.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
