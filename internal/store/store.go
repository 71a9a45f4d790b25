package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/scornlab/scorn/internal/patch"
	"github.com/scornlab/scorn/internal/scan"
)

const schema = `
CREATE TABLE IF NOT EXISTS scans (
	id          TEXT PRIMARY KEY,
	language    TEXT NOT NULL,
	score       INTEGER NOT NULL,
	degraded    INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	source      TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS findings (
	id       TEXT NOT NULL,
	scan_id  TEXT NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
	severity TEXT NOT NULL,
	line     INTEGER NOT NULL,
	col      INTEGER NOT NULL,
	message  TEXT NOT NULL,
	rule_id  TEXT NOT NULL,
	context  TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (scan_id, id)
);
CREATE TABLE IF NOT EXISTS patches (
	id         TEXT PRIMARY KEY,
	finding_id TEXT NOT NULL,
	scan_id    TEXT NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
	original   TEXT NOT NULL,
	corrected  TEXT NOT NULL,
	rationale  TEXT NOT NULL,
	confidence REAL NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_findings_scan ON findings(scan_id);
CREATE INDEX IF NOT EXISTS idx_patches_scan ON patches(scan_id);
`

// Store persists scan reports and synthesized patches to a local
// SQLite database.
type Store struct {
	db *sql.DB
}

// ScanSummary is one row of scan history.
type ScanSummary struct {
	ID         string
	Language   string
	Score      int
	Degraded   bool
	DurationMs int64
	Source     string
	CreatedAt  time.Time
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	// modernc.org/sqlite serializes writes itself, but a single
	// connection avoids SQLITE_BUSY under concurrent saves.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// SaveScan writes a report and its findings in one transaction. The
// source string records where the code came from (file path, "stdin",
// "staged" and so on).
func (s *Store) SaveScan(ctx context.Context, rep *scan.Report, source string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	degraded := 0
	if rep.Degraded {
		degraded = 1
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO scans (id, language, score, degraded, duration_ms, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rep.ScanID, string(rep.Language), rep.Result.OverallScore, degraded,
		rep.DurationMs, source, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting scan: %w", err)
	}
	for _, f := range rep.Result.Findings {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO findings (id, scan_id, severity, line, col, message, rule_id, context)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			f.ID, rep.ScanID, string(f.Severity), f.Line, f.Column, f.Message, f.RuleID, f.Context)
		if err != nil {
			return fmt.Errorf("inserting finding %s: %w", f.ID, err)
		}
	}
	return tx.Commit()
}

// SavePatch records a synthesized patch against the scan it came from.
func (s *Store) SavePatch(ctx context.Context, scanID string, p *patch.Patch) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO patches (id, finding_id, scan_id, original, corrected, rationale, confidence, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.FindingID, scanID, p.OriginalCode, p.CorrectedCode, p.Rationale,
		p.Confidence, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting patch: %w", err)
	}
	return nil
}

// ListScans returns the most recent scans, newest first.
func (s *Store) ListScans(ctx context.Context, limit int) ([]ScanSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, language, score, degraded, duration_ms, source, created_at
		 FROM scans ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying scans: %w", err)
	}
	defer rows.Close()

	var out []ScanSummary
	for rows.Next() {
		var (
			sum      ScanSummary
			degraded int
			created  string
		)
		if err := rows.Scan(&sum.ID, &sum.Language, &sum.Score, &degraded,
			&sum.DurationMs, &sum.Source, &created); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		sum.Degraded = degraded != 0
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			sum.CreatedAt = t
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Findings returns the findings recorded for one scan, in stored order.
func (s *Store) Findings(ctx context.Context, scanID string) ([]scan.Finding, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, severity, line, col, message, rule_id, context
		 FROM findings WHERE scan_id = ? ORDER BY line, col, rule_id`, scanID)
	if err != nil {
		return nil, fmt.Errorf("querying findings: %w", err)
	}
	defer rows.Close()

	var out []scan.Finding
	for rows.Next() {
		var (
			f   scan.Finding
			sev string
		)
		if err := rows.Scan(&f.ID, &sev, &f.Line, &f.Column, &f.Message, &f.RuleID, &f.Context); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		f.Severity = scan.Severity(sev)
		out = append(out, f)
	}
	return out, rows.Err()
}

// DefaultPath returns the default history database location.
func DefaultPath() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "scorn", "history.db"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "scorn", "history.db"), nil
}
