// Package driver runs the frame and grid stages over every video of a
// course manifest.
//
// Videos are processed one at a time in manifest order. Each stage is
// skipped when its outputs already exist in the output directory. A missing
// source video is a warning, and an extractor or batcher failure is recorded
// against that video only; the sweep always continues with the next video.
//
// When a marker store is configured, a "stage complete" marker is written
// after each successful stage. Outputs found without a marker are reported
// as unverified, and are redone when VerifyMarkers is set.
package driver
