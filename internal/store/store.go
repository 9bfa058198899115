// Package store is the SQLite persistence layer for run history: each
// analysis run, its findings, and its per-rule cost are recorded so that
// normalized time and files/second can be compared across runs.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for the three history tables.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS runs (
  id               INTEGER PRIMARY KEY,
  started_at       TIMESTAMP NOT NULL,
  file_count       INTEGER NOT NULL,
  failed_count     INTEGER NOT NULL DEFAULT 0,
  finding_count    INTEGER NOT NULL DEFAULT 0,
  elapsed_ms       REAL NOT NULL,
  normalized_ms    REAL NOT NULL,
  files_per_second REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS findings (
  id        INTEGER PRIMARY KEY,
  run_id    INTEGER NOT NULL REFERENCES runs(id),
  rule      TEXT NOT NULL,
  severity  TEXT NOT NULL,
  file      TEXT NOT NULL,
  line      INTEGER,
  col       INTEGER,
  message   TEXT NOT NULL,
  help      TEXT
);

CREATE INDEX IF NOT EXISTS idx_findings_run ON findings(run_id);
CREATE INDEX IF NOT EXISTS idx_findings_rule ON findings(rule);

CREATE TABLE IF NOT EXISTS rule_stats (
  id            INTEGER PRIMARY KEY,
  run_id        INTEGER NOT NULL REFERENCES runs(id),
  rule          TEXT NOT NULL,
  file_count    INTEGER NOT NULL,
  match_count   INTEGER NOT NULL,
  total_ms      REAL NOT NULL,
  normalized_ms REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_rule_stats_run ON rule_stats(run_id);
`

// Run is one recorded analysis run.
type Run struct {
	ID             int64
	StartedAt      time.Time
	FileCount      int
	FailedCount    int
	FindingCount   int
	ElapsedMs      float64
	NormalizedMs   float64
	FilesPerSecond float64
}

// Finding is one diagnostic persisted for a run.
type Finding struct {
	Rule     string
	Severity string
	File     string
	Line     int
	Column   int
	Message  string
	Help     string
}

// RuleStat is one rule's cost row for a run.
type RuleStat struct {
	Rule         string
	FileCount    int
	MatchCount   int
	TotalMs      float64
	NormalizedMs float64
}

// InsertRun records a run and returns its assigned ID.
func (s *Store) InsertRun(r *Run) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO runs (started_at, file_count, failed_count, finding_count,
		                  elapsed_ms, normalized_ms, files_per_second)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.StartedAt, r.FileCount, r.FailedCount, r.FindingCount,
		r.ElapsedMs, r.NormalizedMs, r.FilesPerSecond,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return res.LastInsertId()
}

// InsertFindings records a run's findings in one transaction.
func (s *Store) InsertFindings(runID int64, findings []Finding) error {
	if len(findings) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO findings (run_id, rule, severity, file, line, col, message, help)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, f := range findings {
		if _, err := stmt.Exec(runID, f.Rule, f.Severity, f.File, f.Line, f.Column, f.Message, f.Help); err != nil {
			return fmt.Errorf("insert finding: %w", err)
		}
	}
	return tx.Commit()
}

// InsertRuleStats records a run's per-rule cost rows in one transaction.
func (s *Store) InsertRuleStats(runID int64, stats []RuleStat) error {
	if len(stats) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO rule_stats (run_id, rule, file_count, match_count, total_ms, normalized_ms)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, rs := range stats {
		if _, err := stmt.Exec(runID, rs.Rule, rs.FileCount, rs.MatchCount, rs.TotalMs, rs.NormalizedMs); err != nil {
			return fmt.Errorf("insert rule stat: %w", err)
		}
	}
	return tx.Commit()
}

// RecentRuns returns up to limit runs, most recent first.
func (s *Store) RecentRuns(limit int) ([]*Run, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, file_count, failed_count, finding_count,
		       elapsed_ms, normalized_ms, files_per_second
		FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r := &Run{}
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FileCount, &r.FailedCount,
			&r.FindingCount, &r.ElapsedMs, &r.NormalizedMs, &r.FilesPerSecond); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RuleStatsByRun returns a run's rule cost rows, slowest first.
func (s *Store) RuleStatsByRun(runID int64) ([]*RuleStat, error) {
	rows, err := s.db.Query(`
		SELECT rule, file_count, match_count, total_ms, normalized_ms
		FROM rule_stats WHERE run_id = ? ORDER BY total_ms DESC, rule ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("query rule stats: %w", err)
	}
	defer rows.Close()

	var stats []*RuleStat
	for rows.Next() {
		rs := &RuleStat{}
		if err := rows.Scan(&rs.Rule, &rs.FileCount, &rs.MatchCount, &rs.TotalMs, &rs.NormalizedMs); err != nil {
			return nil, fmt.Errorf("scan rule stat: %w", err)
		}
		stats = append(stats, rs)
	}
	return stats, rows.Err()
}

// FindingsByRun returns a run's findings in insertion order.
func (s *Store) FindingsByRun(runID int64) ([]*Finding, error) {
	rows, err := s.db.Query(`
		SELECT rule, severity, file, line, col, message, help
		FROM findings WHERE run_id = ? ORDER BY id ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("query findings: %w", err)
	}
	defer rows.Close()

	var findings []*Finding
	for rows.Next() {
		f := &Finding{}
		if err := rows.Scan(&f.Rule, &f.Severity, &f.File, &f.Line, &f.Column, &f.Message, &f.Help); err != nil {
			return nil, fmt.Errorf("scan finding: %w", err)
		}
		findings = append(findings, f)
	}
	return findings, rows.Err()
}
