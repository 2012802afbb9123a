package duckdb

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Matches reports whether two fingerprints describe the same file contents.
// Modification times are compared at second precision.
func (f FileFingerprint) Matches(o FileFingerprint) bool {
	return f.Path == o.Path && f.Size == o.Size &&
		f.ModTime.Truncate(time.Second).Equal(o.ModTime.Truncate(time.Second))
}

// Run describes one aggregation run exported to the store.
type Run struct {
	Input      FileFingerprint
	WindowSize int64
	Intervals  int
	Dropped    int
	Windows    int
	CreatedAt  time.Time
}

// RecordRun appends run metadata.
func (s *Store) RecordRun(r Run) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(`INSERT INTO runs
		(input_path, input_size, input_mod_time, window_size, intervals, dropped, windows, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Input.Path, r.Input.Size, r.Input.ModTime.UTC(), r.WindowSize,
		r.Intervals, r.Dropped, r.Windows, r.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// LastRun returns the most recent run for size.
// The bool is false when no run has been recorded.
func (s *Store) LastRun(size int64) (Run, bool, error) {
	var r Run
	err := s.db.QueryRow(`SELECT input_path, input_size, input_mod_time, window_size,
		intervals, dropped, windows, created_at
		FROM runs
		WHERE window_size=?
		ORDER BY created_at DESC
		LIMIT 1`, size).Scan(
		&r.Input.Path, &r.Input.Size, &r.Input.ModTime, &r.WindowSize,
		&r.Intervals, &r.Dropped, &r.Windows, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, fmt.Errorf("query last run: %w", err)
	}
	return r, true, nil
}

// Fresh reports whether the store already holds windows computed from input
// at size, so a run can be skipped.
func (s *Store) Fresh(input FileFingerprint, size int64) (bool, error) {
	last, ok, err := s.LastRun(size)
	if err != nil || !ok {
		return false, err
	}
	return last.Input.Matches(input), nil
}
