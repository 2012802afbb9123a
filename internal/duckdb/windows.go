package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/recomb-window/internal/window"
)

// WriteWindows replaces the stored windows for size with cws, batch-inserted
// through the DuckDB Appender API. The delete and the append run in one
// transaction on a single connection, so a failed write keeps the previous
// windows for size.
func (s *Store) WriteWindows(size int64, cws []window.ChromosomeWindows) (err error) {
	ctx := context.Background()
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN TRANSACTION"); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			conn.ExecContext(ctx, "ROLLBACK")
		}
	}()

	if _, err := conn.ExecContext(ctx, "DELETE FROM recomb_windows WHERE window_size=?", size); err != nil {
		return fmt.Errorf("clear windows: %w", err)
	}

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "recomb_windows")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}

	for _, c := range cws {
		for _, w := range c.Windows {
			if err := appender.AppendRow(size, w.Chrom, w.Start, w.End, w.MeanRate); err != nil {
				appender.Close()
				return fmt.Errorf("append window %s:%d-%d: %w", w.Chrom, w.Start, w.End, err)
			}
		}
	}

	// Close flushes the remaining rows.
	if err := appender.Close(); err != nil {
		return fmt.Errorf("flush windows: %w", err)
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("commit windows: %w", err)
	}
	return nil
}

// ClearWindows removes stored windows for size.
func (s *Store) ClearWindows(size int64) error {
	if _, err := s.db.Exec("DELETE FROM recomb_windows WHERE window_size=?", size); err != nil {
		return fmt.Errorf("clear windows: %w", err)
	}
	return nil
}

// LookupWindows returns the stored windows of chrom for size, ordered by start.
func (s *Store) LookupWindows(chrom string, size int64) ([]window.Window, error) {
	rows, err := s.db.Query(`SELECT chrom, span_start, span_end, mean_rate
		FROM recomb_windows
		WHERE window_size=? AND chrom=?
		ORDER BY span_start`,
		size, chrom)
	if err != nil {
		return nil, fmt.Errorf("query windows: %w", err)
	}
	defer rows.Close()

	var ws []window.Window
	for rows.Next() {
		var w window.Window
		if err := rows.Scan(&w.Chrom, &w.Start, &w.End, &w.MeanRate); err != nil {
			return nil, fmt.Errorf("scan window: %w", err)
		}
		ws = append(ws, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate windows: %w", err)
	}
	return ws, nil
}

// WindowAt returns the stored window of chrom covering pos for size.
// The bool is false when no window covers pos.
func (s *Store) WindowAt(chrom string, pos, size int64) (window.Window, bool, error) {
	var w window.Window
	err := s.db.QueryRow(`SELECT chrom, span_start, span_end, mean_rate
		FROM recomb_windows
		WHERE window_size=? AND chrom=? AND span_start<=? AND span_end>?
		ORDER BY span_start
		LIMIT 1`,
		size, chrom, pos, pos).Scan(&w.Chrom, &w.Start, &w.End, &w.MeanRate)
	if errors.Is(err, sql.ErrNoRows) {
		return window.Window{}, false, nil
	}
	if err != nil {
		return window.Window{}, false, fmt.Errorf("query window at %s:%d: %w", chrom, pos, err)
	}
	return w, true, nil
}

// Chromosomes returns the chromosomes stored for size in lexicographic order.
func (s *Store) Chromosomes(size int64) ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT chrom FROM recomb_windows
		WHERE window_size=? ORDER BY chrom`, size)
	if err != nil {
		return nil, fmt.Errorf("query chromosomes: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan chromosome: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
