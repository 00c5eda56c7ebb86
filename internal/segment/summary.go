package segment

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// SRTTimestamp formats whole seconds as HH:MM:SS,000.
func SRTTimestamp(seconds int) string {
	return fmt.Sprintf("%02d:%02d:%02d,000", seconds/3600, seconds%3600/60, seconds%60)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// RenderSummary writes one table row per segment and the total caption
// time.
func RenderSummary(w io.Writer, segments []Segment) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("SEGMENT", "START", "END", "SECONDS", "FRAMES", "REPRESENTATIVE")

	total := 0
	for _, s := range segments {
		t.Row(strconv.Itoa(s.SegmentID), SRTTimestamp(s.StartTime), SRTTimestamp(s.EndTime),
			strconv.Itoa(s.Duration()), strconv.Itoa(s.FrameCount), s.RepresentativeFrame)
		total += s.Duration()
	}
	t.StyleFunc(func(row, _ int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		return cellStyle
	})

	_, err := fmt.Fprintf(w, "%s\nTotal segments: %d\nTotal subtitle duration: %ds (%.1f minutes)\n",
		t.String(), len(segments), total, float64(total)/60)
	return err
}
