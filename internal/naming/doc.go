// Package naming owns the on-disk naming contract shared by the frame
// extractor, the grid batcher and downstream OCR tooling.
//
// Frames are named {id}_{NNNN}.jpg (four digits) or {id}_{NNN}.jpg (three
// digits, written by older runs). The two are never mixed within one
// video. Frame N holds second N-1 of the source video.
//
// Grids are named {id}_grid_{GG}.jpg, or {id}_grid_{GGG}.jpg when a video
// needs more than 99 grids. Row k of grid G is frame (G-1)*BatchSize+k.
package naming
