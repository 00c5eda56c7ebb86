// Package metrics provides Prometheus instrumentation for course-frames runs.
//
// All metrics are registered on a package-level Registry rather than the
// global default so that a run can be exported on its own. All names are
// prefixed with "course_frames_".
//
// # Metric Categories
//
// ## Extraction Metrics
//   - FrameExtractionsTotal: Counter of extraction stages by status (success/skipped/error)
//   - FramesExtractedTotal: Counter of frame files produced by the decoder
//   - FrameExtractionDuration: Histogram of decoder wall time
//
// ## Grid Metrics
//   - GridStagesTotal: Counter of grid stages by status (success/skipped/error)
//   - GridsWrittenTotal: Counter of grid images written by compositor
//   - GridCompositeDuration: Histogram of time spent compositing one grid
//
// ## External Tool Metrics
//   - ToolInvocationsTotal: Counter of external tool runs by tool and status
//   - ToolDuration: Histogram of external tool run time by tool
//
// ## Marker Store Metrics
//   - MarkerQueriesTotal: Counter of marker store queries by operation and status
//   - MarkerQueryDuration: Histogram of marker store query time by operation
//
// ## Run Metrics
//   - VideosProcessedTotal: Counter of videos by final status
//   - RunDuration: Gauge of the last run's duration
//   - RunLastTimestamp: Gauge of the last run's completion time
//   - AppInfo: Build information
//
// # Export
//
// A command-line run has nothing to scrape it, so WriteTextfile writes the
// registry in the text exposition format for the node_exporter textfile
// collector.
package metrics
