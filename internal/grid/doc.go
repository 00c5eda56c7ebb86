// Package grid stacks consecutive subtitle frames into tall composite
// images ("grids") for OCR.
//
// Frames are grouped in batches of naming.BatchSize. Row k of grid G is
// frame (G-1)*10+k. The index width of grid names (2 or 3 digits) is
// chosen once per video from the total batch count.
//
// Three compositors are available:
//
//   - imaging: in-process, pure Go (default)
//   - vips: libvips via govips, requires InitVips
//   - magick: the ImageMagick CLI, "magick <frames> -append"
//
// Optionally the batcher also writes annotated grids, with a label column
// giving each row's frame number, second and HH:MM:SS timestamp, and a
// {id}_timestamps.tsv sidecar mapping every row to its timestamp.
package grid
