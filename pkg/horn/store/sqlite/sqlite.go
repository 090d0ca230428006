package sqlite

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/horn/pkg/horn/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled and creates the
// schema if needed.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Batch runs save from several goroutines; one writer avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	// Initialize schema
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	source TEXT,
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	goals INTEGER DEFAULT 0,
	rule_trials INTEGER DEFAULT 0,
	loops_detected INTEGER DEFAULT 0,
	derived_facts INTEGER DEFAULT 0,
	depth_exceeded INTEGER DEFAULT 0
);

CREATE INDEX IF NOT EXISTS runs_started_at ON runs(started_at);

CREATE TABLE IF NOT EXISTS answers (
	run_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	query TEXT NOT NULL,
	result INTEGER NOT NULL,
	err TEXT,
	PRIMARY KEY(run_id, position),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS derived_facts (
	run_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	fact TEXT NOT NULL,
	PRIMARY KEY(run_id, position),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveRun inserts or replaces a run with its answers and derived facts
func (s *sqliteStore) SaveRun(ctx context.Context, r store.Run) error {
	if err := r.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const stmt = `
INSERT INTO runs (id, source, started_at, finished_at, goals, rule_trials, loops_detected, derived_facts, depth_exceeded)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	source=excluded.source,
	started_at=excluded.started_at,
	finished_at=excluded.finished_at,
	goals=excluded.goals,
	rule_trials=excluded.rule_trials,
	loops_detected=excluded.loops_detected,
	derived_facts=excluded.derived_facts,
	depth_exceeded=excluded.depth_exceeded;
`
	_, err = tx.ExecContext(
		ctx,
		stmt,
		r.ID,
		r.Source,
		formatTime(r.StartedAt),
		formatTime(r.FinishedAt),
		r.Stats.Goals,
		r.Stats.RuleTrials,
		r.Stats.LoopsDetected,
		r.Stats.DerivedFacts,
		r.Stats.DepthExceeded,
	)
	if err != nil {
		return err
	}

	if err := replaceAnswers(ctx, tx, r.ID, r.Answers); err != nil {
		return err
	}
	if err := replaceDerived(ctx, tx, r.ID, r.Derived); err != nil {
		return err
	}

	return tx.Commit()
}

func replaceAnswers(ctx context.Context, tx *sql.Tx, runID string, answers []store.Answer) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM answers WHERE run_id=?`, runID); err != nil {
		return err
	}
	if len(answers) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO answers (run_id, position, query, result, err) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, a := range answers {
		result := 0
		if a.Result {
			result = 1
		}
		if _, err := stmt.ExecContext(ctx, runID, i, a.Query, result, a.Err); err != nil {
			return err
		}
	}
	return nil
}

func replaceDerived(ctx context.Context, tx *sql.Tx, runID string, facts []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM derived_facts WHERE run_id=?`, runID); err != nil {
		return err
	}
	if len(facts) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO derived_facts (run_id, position, fact) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, f := range facts {
		if f == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, runID, i, f); err != nil {
			return err
		}
	}
	return nil
}

// GetRun retrieves a run by ID
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, bool, error) {
	var (
		r                     store.Run
		startedAt, finishedAt string
		source                sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, source, started_at, finished_at, goals, rule_trials, loops_detected, derived_facts, depth_exceeded
FROM runs WHERE id = ?`, id).Scan(
		&r.ID,
		&source,
		&startedAt,
		&finishedAt,
		&r.Stats.Goals,
		&r.Stats.RuleTrials,
		&r.Stats.LoopsDetected,
		&r.Stats.DerivedFacts,
		&r.Stats.DepthExceeded,
	)
	if err == sql.ErrNoRows {
		return store.Run{}, false, nil
	}
	if err != nil {
		return store.Run{}, false, err
	}
	r.Source = source.String
	r.StartedAt = parseTime(startedAt)
	r.FinishedAt = parseTime(finishedAt)

	if r.Answers, err = s.loadAnswers(ctx, id); err != nil {
		return store.Run{}, false, err
	}
	if r.Derived, err = s.loadDerived(ctx, id); err != nil {
		return store.Run{}, false, err
	}
	return r, true, nil
}

func (s *sqliteStore) loadAnswers(ctx context.Context, runID string) ([]store.Answer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT query, result, err FROM answers WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Answer
	for rows.Next() {
		var (
			a      store.Answer
			result int
			errStr sql.NullString
		)
		if err := rows.Scan(&a.Query, &result, &errStr); err != nil {
			return nil, err
		}
		a.Result = result != 0
		a.Err = errStr.String
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *sqliteStore) loadDerived(ctx context.Context, runID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT fact FROM derived_facts WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ListRuns returns the most recent runs, newest first
func (s *sqliteStore) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = store.DefaultListLimit
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	out := make([]store.Run, 0, len(ids))
	for _, id := range ids {
		r, found, err := s.GetRun(ctx, id)
		if err != nil {
			return nil, err
		}
		if found {
			out = append(out, r)
		}
	}
	return out, nil
}

// timeLayout has a fixed-width fraction so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
