// Command course-frames runs the frame extraction and grid batching stage of
// the course transcript pipeline.
//
// Usage:
//
//	course-frames run <course-dir> [flags]
//	course-frames segment <id> [flags]
//	course-frames version
//
// The course directory holds a course.json manifest (course.yaml is accepted
// as a fallback) listing the crop settings and the videos to process:
//
//	{
//	  "crop": {"height": 120, "scale_width": 1280, "scale_height": 120},
//	  "videos": [{"id": "0-1", "filename": "01 Intro.mp4"}]
//	}
//
// For every video, in manifest order, one JPEG per second is extracted with
// FFmpeg into a single flat output directory, then every ten consecutive
// frames are stacked into a grid image. Stages whose outputs already exist
// are skipped. A missing source video is a warning, not an error; failures
// of one video never stop the others.
//
// The segment command reads the frames of one video (by default from
// step1-output/subtitle_frames_for_ocr under the working directory) and
// writes {id}_segments.json, grouping consecutive frames that show the same
// subtitle and dropping blank ones.
//
// # Exit Status
//
//   - 0: the run completed, including runs where videos were skipped or failed
//   - 1: missing or invalid manifest, bad arguments or configuration
//   - 130: the run was interrupted
//
// # Environment Variables
//
// Each flag of the run command can also be set from the environment; see
// package startup for the full list. LOG_LEVEL selects the log verbosity.
//
// # Related Commands
//
// make-grids (cmd/make-grids) rebuilds the grids of a single video.
package main
