package markers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"course-frames/internal/logging"
	"course-frames/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// Stage identifies a pipeline step.
type Stage string

// Stages tracked by the store.
const (
	StageFrames Stage = "frames"
	StageGrids  Stage = "grids"
)

// ErrNotFound is returned by Get when no marker exists.
var ErrNotFound = errors.New("marker not found")

// Marker records a completed stage.
type Marker struct {
	VideoID     string
	Stage       Stage
	Count       int
	RunID       string
	CompletedAt time.Time
}

// Store is a SQLite-backed marker store.
type Store struct {
	db   *sql.DB
	path string
}

// New opens (creating if needed) the marker database at path.
func New(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open marker database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close marker database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to marker database: %w", err)
	}

	// The driver is sequential; one connection avoids lock contention.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
	if err := s.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close marker database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize marker schema: %w", err)
	}

	logging.Debug("Marker database ready at %s", path)
	return s, nil
}

func (s *Store) initialize(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveMarkerQuery("initialize_schema", start, err) }()

	schema := `
	CREATE TABLE IF NOT EXISTS stage_markers (
		video_id TEXT NOT NULL,
		stage TEXT NOT NULL,
		output_count INTEGER NOT NULL DEFAULT 0,
		run_id TEXT NOT NULL DEFAULT '',
		completed_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		PRIMARY KEY (video_id, stage)
	);

	CREATE INDEX IF NOT EXISTS idx_stage_markers_run ON stage_markers(run_id);
	`
	_, err = s.db.ExecContext(ctx, schema)
	return err
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the marker for id and stage, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string, stage Stage) (m *Marker, err error) {
	start := time.Now()
	defer func() {
		if errors.Is(err, ErrNotFound) {
			metrics.ObserveMarkerQuery("get_marker", start, nil)
			return
		}
		metrics.ObserveMarkerQuery("get_marker", start, err)
	}()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var completed int64
	marker := Marker{VideoID: id, Stage: stage}
	err = s.db.QueryRowContext(ctx, `
		SELECT output_count, run_id, completed_at
		FROM stage_markers WHERE video_id = ? AND stage = ?
	`, id, string(stage)).Scan(&marker.Count, &marker.RunID, &completed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s marker for %s: %w", stage, id, err)
	}
	marker.CompletedAt = time.Unix(completed, 0)
	return &marker, nil
}

// Put records that stage finished for m.VideoID, replacing any previous
// marker of the same stage.
func (s *Store) Put(ctx context.Context, m Marker) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveMarkerQuery("put_marker", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	completed := m.CompletedAt
	if completed.IsZero() {
		completed = time.Now()
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO stage_markers (video_id, stage, output_count, run_id, completed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(video_id, stage) DO UPDATE SET
			output_count = excluded.output_count,
			run_id = excluded.run_id,
			completed_at = excluded.completed_at
	`, m.VideoID, string(m.Stage), m.Count, m.RunID, completed.Unix())
	if err != nil {
		return fmt.Errorf("writing %s marker for %s: %w", m.Stage, m.VideoID, err)
	}
	return nil
}

// Delete removes the marker for id and stage. Deleting a missing marker is
// not an error.
func (s *Store) Delete(ctx context.Context, id string, stage Stage) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveMarkerQuery("delete_marker", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err = s.db.ExecContext(ctx,
		"DELETE FROM stage_markers WHERE video_id = ? AND stage = ?",
		id, string(stage),
	); err != nil {
		return fmt.Errorf("deleting %s marker for %s: %w", stage, id, err)
	}
	return nil
}
