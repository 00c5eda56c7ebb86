// Command make-grids rebuilds the OCR grids of one video from frames that
// are already on disk.
//
// Usage:
//
//	make-grids <id> <total_frames> <frames_dir> [--compositor imaging|vips|magick]
//	           [--quality 90] [--annotate] [--timestamps]
//
// Existing grids of the same name are overwritten. The command exits 1 when
// an argument is missing or when no frame of <id> exists in <frames_dir>.
package main
