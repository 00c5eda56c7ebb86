package naming

import "fmt"

// Batch is a contiguous run of frames that becomes one grid.
type Batch struct {
	Index int // 1-based grid index
	First int // first frame index, inclusive
	Last  int // last frame index, inclusive
}

// Size returns the number of frames in the batch.
func (b Batch) Size() int {
	return b.Last - b.First + 1
}

// Frames returns the frame indices of the batch in row order.
func (b Batch) Frames() []int {
	out := make([]int, 0, b.Size())
	for i := b.First; i <= b.Last; i++ {
		out = append(out, i)
	}
	return out
}

// BatchCount returns ceil(total / BatchSize).
func BatchCount(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + BatchSize - 1) / BatchSize
}

// PlanBatches partitions frames 1..total into consecutive batches of at
// most BatchSize frames.
func PlanBatches(total int) []Batch {
	n := BatchCount(total)
	batches := make([]Batch, 0, n)
	for g := 1; g <= n; g++ {
		first := (g-1)*BatchSize + 1
		last := g * BatchSize
		if last > total {
			last = total
		}
		batches = append(batches, Batch{Index: g, First: first, Last: last})
	}
	return batches
}

// FrameSecond returns the source second held by frame index.
func FrameSecond(index int) int {
	return index - 1
}

// FormatClock renders seconds as HH:MM:SS.
func FormatClock(seconds int) string {
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}
