package grid

import (
	"fmt"
	"os"
	"path/filepath"

	"course-frames/internal/naming"
)

// ClearGrids removes every grid, annotated grid and the timestamps sidecar
// of id from dir. It returns the number of grids removed.
func ClearGrids(dir, id string) (int, error) {
	grids, err := naming.ListGrids(dir, id)
	if err != nil {
		return 0, err
	}
	annotated, err := naming.ListAnnotatedGrids(dir, id)
	if err != nil {
		return 0, err
	}

	for _, name := range append(grids, annotated...) {
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !os.IsNotExist(err) {
			return 0, fmt.Errorf("removing %s: %w", name, err)
		}
	}
	if err := os.Remove(filepath.Join(dir, naming.TimestampsName(id))); err != nil && !os.IsNotExist(err) {
		return 0, fmt.Errorf("removing timestamps of %s: %w", id, err)
	}
	return len(grids), nil
}
