package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every series is present in the exported textfile even on a run where
// nothing happened. Call this once at startup.
func InitializeMetrics(compositor string) {
	for _, status := range []string{"success", "skipped", "error"} {
		FrameExtractionsTotal.WithLabelValues(status)
		GridStagesTotal.WithLabelValues(status)
	}

	GridsWrittenTotal.WithLabelValues(compositor)
	GridCompositeDuration.WithLabelValues(compositor)

	for _, tool := range []string{"ffmpeg", "ffprobe"} {
		ToolInvocationsTotal.WithLabelValues(tool, "success")
		ToolInvocationsTotal.WithLabelValues(tool, "error")
		ToolDuration.WithLabelValues(tool)
	}

	for _, op := range []string{"initialize_schema", "get_marker", "put_marker", "delete_marker"} {
		MarkerQueriesTotal.WithLabelValues(op, "success")
		MarkerQueriesTotal.WithLabelValues(op, "error")
		MarkerQueryDuration.WithLabelValues(op)
	}

	for _, status := range []string{"ok", "missing_source", "failed"} {
		VideosProcessedTotal.WithLabelValues(status)
	}
}
