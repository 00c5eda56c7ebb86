// Package markers records which pipeline stages finished for which video.
//
// A marker is written only after a stage completed successfully, so on a
// later run "outputs exist but no marker" means the previous attempt was
// interrupted or failed part way. Markers live in a small SQLite database
// next to the course (by default <course>/.state/markers.db).
package markers
