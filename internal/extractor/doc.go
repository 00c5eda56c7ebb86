// Package extractor turns a source video into one JPEG frame per second
// using FFmpeg.
//
// Frames are written flat into the output directory as {id}_NNNN.jpg.
// Each frame keeps only the bottom crop.Height pixels of the picture (where
// burned-in subtitles live) and is scaled to crop.ScaleWidth x
// crop.ScaleHeight. Sampling starts at t=0 with the fps filter, so frame N
// is second N-1 of the video.
//
// Extraction is all-or-nothing per video: if any frame of the id is already
// on disk the decoder is not run again.
//
// FFmpeg and ffprobe must be installed and available in the system PATH.
package extractor
