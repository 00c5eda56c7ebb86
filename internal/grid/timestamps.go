package grid

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"course-frames/internal/naming"
)

var timestampsHeader = []string{"grid_file", "row", "frame", "second", "srt_timestamp"}

// TimestampRow maps one grid row to the source time of its frame.
type TimestampRow struct {
	GridFile string
	Row      int
	Frame    int
	Second   int
	Clock    string
}

// TimestampRows lists every row of every batch, gridName naming the file
// each batch is written to.
func TimestampRows(batches []naming.Batch, gridName func(naming.Batch) string) []TimestampRow {
	var rows []TimestampRow
	for _, b := range batches {
		name := gridName(b)
		for i, frame := range b.Frames() {
			sec := naming.FrameSecond(frame)
			rows = append(rows, TimestampRow{
				GridFile: name,
				Row:      i + 1,
				Frame:    frame,
				Second:   sec,
				Clock:    naming.FormatClock(sec),
			})
		}
	}
	return rows
}

// WriteTimestamps writes rows as a tab separated file with a header line.
func WriteTimestamps(path string, rows []TimestampRow) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	w.Comma = '\t'
	if err := w.Write(timestampsHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.GridFile,
			strconv.Itoa(r.Row),
			fmt.Sprintf("_%04d", r.Frame),
			strconv.Itoa(r.Second),
			r.Clock,
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
