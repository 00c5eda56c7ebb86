// Package segment groups consecutive subtitle frames that show the same
// caption.
//
// Frames are read in index order. A frame whose grayscale standard
// deviation is below the blank threshold carries no caption and closes the
// current segment. A non-blank frame joins the current segment when its
// mean absolute pixel difference to the previous frame is below the diff
// threshold; otherwise it starts a new one. Segments shorter than the
// minimum duration are dropped, keeping the ids they were numbered with.
//
// Frame N is second N-1 of the video, so start and end times are whole
// seconds.
package segment
