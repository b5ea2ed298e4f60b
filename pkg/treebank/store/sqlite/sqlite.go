package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/treebank/pkg/treebank/internalerr"
	"github.com/cognicore/treebank/pkg/treebank/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", internalerr.ErrStoreUnavailable, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", internalerr.ErrStoreUnavailable, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", internalerr.ErrStoreUnavailable, err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
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
	source TEXT NOT NULL,
	format TEXT NOT NULL,
	labeled INTEGER NOT NULL,
	started_at TEXT NOT NULL,
	finished_at TEXT
);

CREATE TABLE IF NOT EXISTS sentences (
	run_id TEXT NOT NULL,
	ordinal INTEGER NOT NULL,
	length INTEGER NOT NULL,
	has_confidence INTEGER NOT NULL,
	relations TEXT NOT NULL,
	PRIMARY KEY(run_id, ordinal),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS tokens (
	run_id TEXT NOT NULL,
	ordinal INTEGER NOT NULL,
	position INTEGER NOT NULL,
	form TEXT NOT NULL,
	lemma TEXT NOT NULL,
	cpos TEXT NOT NULL,
	pos TEXT NOT NULL,
	feats TEXT NOT NULL,
	head INTEGER NOT NULL,
	deprel TEXT NOT NULL,
	confidence REAL NOT NULL,
	PRIMARY KEY(run_id, ordinal, position),
	FOREIGN KEY(run_id, ordinal) REFERENCES sentences(run_id, ordinal) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS tokens_deprel ON tokens(run_id, deprel);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// BeginRun records a new import run
func (s *sqliteStore) BeginRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("%w: run without ID", internalerr.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, r.ID).Scan(&exists)
	if err == nil {
		return fmt.Errorf("%w: run %s", internalerr.ErrDuplicate, r.ID)
	}
	if err != sql.ErrNoRows {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, source, format, labeled, started_at, finished_at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.Source, r.Format, boolToInt(r.Labeled), formatTime(r.StartedAt), nullTime(r.FinishedAt),
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// FinishRun marks a run complete
func (s *sqliteStore) FinishRun(ctx context.Context, runID string, finishedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE runs SET finished_at = ? WHERE id = ?`, formatTime(finishedAt), runID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: run %s", internalerr.ErrNotFound, runID)
	}
	return nil
}

// Runs returns all runs ordered by ID, which is also start order for ULIDs
func (s *sqliteStore) Runs(ctx context.Context) ([]store.Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, source, format, labeled, started_at, finished_at FROM runs ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Run
	for rows.Next() {
		var (
			r       store.Run
			labeled int
			started  string
			finished sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Source, &r.Format, &labeled, &started, &finished); err != nil {
			return nil, err
		}
		r.Labeled = labeled != 0
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("run %s started_at: %w", r.ID, err)
		}
		if finished.Valid {
			if r.FinishedAt, err = time.Parse(time.RFC3339Nano, finished.String); err != nil {
				return nil, fmt.Errorf("run %s finished_at: %w", r.ID, err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PutSentence stores a sentence, replacing any previous one at the same ordinal
func (s *sqliteStore) PutSentence(ctx context.Context, sent store.Sentence) error {
	relations := sent.Relations
	if relations == nil {
		relations = []string{}
	}
	relJSON, err := json.Marshal(relations)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, sent.RunID).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: run %s", internalerr.ErrNotFound, sent.RunID)
	}
	if err != nil {
		return err
	}

	const stmt = `
INSERT INTO sentences (run_id, ordinal, length, has_confidence, relations)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(run_id, ordinal) DO UPDATE SET
	length=excluded.length,
	has_confidence=excluded.has_confidence,
	relations=excluded.relations;
`
	if _, err := tx.ExecContext(ctx, stmt, sent.RunID, sent.Ordinal, len(sent.Tokens), boolToInt(sent.HasConfidence), string(relJSON)); err != nil {
		return err
	}

	if err := replaceTokens(ctx, tx, sent); err != nil {
		return err
	}

	return tx.Commit()
}

func replaceTokens(ctx context.Context, tx *sql.Tx, sent store.Sentence) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM tokens WHERE run_id=? AND ordinal=?`, sent.RunID, sent.Ordinal); err != nil {
		return err
	}
	if len(sent.Tokens) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO tokens (run_id, ordinal, position, form, lemma, cpos, pos, feats, head, deprel, confidence)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, tok := range sent.Tokens {
		if _, err := stmt.ExecContext(ctx, sent.RunID, sent.Ordinal, i+1,
			tok.Form, tok.Lemma, tok.CPOS, tok.POS, tok.Feats, tok.Head, tok.Deprel, tok.Confidence); err != nil {
			return err
		}
	}
	return nil
}

// GetSentence retrieves a sentence by run and ordinal
func (s *sqliteStore) GetSentence(ctx context.Context, runID string, ordinal int) (store.Sentence, bool, error) {
	var (
		hasConf int
		relJSON string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT has_confidence, relations FROM sentences WHERE run_id = ? AND ordinal = ?`,
		runID, ordinal,
	).Scan(&hasConf, &relJSON)
	if err == sql.ErrNoRows {
		return store.Sentence{}, false, nil
	}
	if err != nil {
		return store.Sentence{}, false, err
	}

	sent := store.Sentence{RunID: runID, Ordinal: ordinal, HasConfidence: hasConf != 0}
	if err := json.Unmarshal([]byte(relJSON), &sent.Relations); err != nil {
		return store.Sentence{}, false, fmt.Errorf("decode relations: %w", err)
	}
	if len(sent.Relations) == 0 {
		sent.Relations = nil
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT form, lemma, cpos, pos, feats, head, deprel, confidence
FROM tokens WHERE run_id = ? AND ordinal = ? ORDER BY position`, runID, ordinal)
	if err != nil {
		return store.Sentence{}, false, err
	}
	defer rows.Close()

	for rows.Next() {
		var tok store.Token
		if err := rows.Scan(&tok.Form, &tok.Lemma, &tok.CPOS, &tok.POS, &tok.Feats, &tok.Head, &tok.Deprel, &tok.Confidence); err != nil {
			return store.Sentence{}, false, err
		}
		sent.Tokens = append(sent.Tokens, tok)
	}
	if err := rows.Err(); err != nil {
		return store.Sentence{}, false, err
	}
	return sent, true, nil
}

// CountSentences returns how many sentences a run holds
func (s *sqliteStore) CountSentences(ctx context.Context, runID string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sentences WHERE run_id = ?`, runID).Scan(&n)
	return n, err
}

// LabelCounts returns the count per dependency relation for a run
func (s *sqliteStore) LabelCounts(ctx context.Context, runID string) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT deprel, COUNT(*) FROM tokens WHERE run_id = ? GROUP BY deprel`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			label string
			n     int64
		)
		if err := rows.Scan(&label, &n); err != nil {
			return nil, err
		}
		counts[label] = n
	}
	return counts, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// nullTime stores the zero time as NULL
func nullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(t), Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
