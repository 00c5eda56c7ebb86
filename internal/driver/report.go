package driver

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Status is the outcome of one video.
type Status string

// Video outcomes.
const (
	StatusOK            Status = "ok"
	StatusMissingSource Status = "missing_source"
	StatusFailed        Status = "failed"
)

// ItemResult is the report line of one video.
type ItemResult struct {
	ID             string   `json:"id"`
	Title          string   `json:"title,omitempty"`
	Frames         int      `json:"frames"`
	Grids          int      `json:"grids"`
	Status         Status   `json:"status"`
	Error          string   `json:"error,omitempty"`
	FramesSkipped  bool     `json:"frames_skipped"`
	GridsSkipped   bool     `json:"grids_skipped"`
	ExpectedFrames int      `json:"expected_frames,omitempty"`
	Unverified     []string `json:"unverified,omitempty"`
}

// Report summarizes a run. It is printed, never persisted.
type Report struct {
	RunID       string        `json:"run_id"`
	CourseTitle string        `json:"course_title,omitempty"`
	Started     time.Time     `json:"started"`
	Duration    time.Duration `json:"duration_ns"`
	Interrupted bool          `json:"interrupted,omitempty"`
	Items       []ItemResult  `json:"videos"`
}

// Processed is the number of videos the run reached.
func (r Report) Processed() int { return len(r.Items) }

// Count returns how many videos ended with status s.
func (r Report) Count(s Status) int {
	n := 0
	for _, it := range r.Items {
		if it.Status == s {
			n++
		}
	}
	return n
}

// Totals sums frames and grids over all videos.
func (r Report) Totals() (frames, grids int) {
	for _, it := range r.Items {
		frames += it.Frames
		grids += it.Grids
	}
	return frames, grids
}

// WriteJSON writes the report as indented JSON.
func (r Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	warnStyle   = cellStyle.Foreground(lipgloss.Color("3"))
	errorStyle  = cellStyle.Foreground(lipgloss.Color("1"))
)

// RenderTable writes the summary table followed by a totals line.
func (r Report) RenderTable(w io.Writer) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "FRAMES", "GRIDS", "STATUS", "NOTE")

	for _, it := range r.Items {
		t.Row(it.ID, strconv.Itoa(it.Frames), strconv.Itoa(it.Grids), string(it.Status), note(it))
	}

	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		if row < 0 || row >= len(r.Items) || col != 3 {
			return cellStyle
		}
		switch r.Items[row].Status {
		case StatusFailed:
			return errorStyle
		case StatusMissingSource:
			return warnStyle
		}
		return cellStyle
	})

	frames, grids := r.Totals()
	summary := fmt.Sprintf("Processed %d videos (%d ok, %d missing source, %d failed): %d frames, %d grids in %v",
		r.Processed(), r.Count(StatusOK), r.Count(StatusMissingSource), r.Count(StatusFailed),
		frames, grids, r.Duration.Round(time.Millisecond))
	if r.Interrupted {
		summary += " (interrupted)"
	}

	_, err := fmt.Fprintf(w, "%s\n%s\n", t.String(), summary)
	return err
}

func note(it ItemResult) string {
	var parts []string
	if it.Error != "" {
		parts = append(parts, it.Error)
	}
	if it.FramesSkipped && it.GridsSkipped {
		parts = append(parts, "skipped")
	} else if it.FramesSkipped {
		parts = append(parts, "frames skipped")
	} else if it.GridsSkipped {
		parts = append(parts, "grids skipped")
	}
	if len(it.Unverified) > 0 {
		parts = append(parts, "unverified: "+strings.Join(it.Unverified, ","))
	}
	return strings.Join(parts, "; ")
}
