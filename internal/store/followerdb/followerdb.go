package followerdb

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"flockwatch/internal/model"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database holding follower presence records.
type DB struct{ sql *sql.DB }

func Open(path string) (*DB, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// the driver serializes writers anyway; one connection also keeps
	// :memory: databases coherent across the pool
	d.SetMaxOpenConns(1)
	if _, err := d.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		return nil, err
	}
	db := &DB{sql: d}
	if err := db.migrate(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) migrate() error {
	_, err := d.sql.Exec(`
	CREATE TABLE IF NOT EXISTS followers (
	  id TEXT PRIMARY KEY,
	  screen_name TEXT NOT NULL,
	  display_name TEXT NOT NULL,
	  first_seen INTEGER NOT NULL,
	  last_seen INTEGER NOT NULL,
	  gone INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_followers_last_seen ON followers(gone, last_seen);
	CREATE TABLE IF NOT EXISTS cursors (
	  key TEXT PRIMARY KEY,
	  value TEXT NOT NULL
	);
	`)
	return err
}

// Begin opens the transaction that scopes one run's store operations.
func (d *DB) Begin(ctx context.Context) (*Tx, error) {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx}, nil
}

// Tx is a run-scoped transaction over the followers table.
type Tx struct{ tx *sql.Tx }

func (t *Tx) Commit() error   { return t.tx.Commit() }
func (t *Tx) Rollback() error { return t.tx.Rollback() }

// Upsert records one observation of a follower at time now. A new id gets
// first_seen = last_seen = now; an existing id keeps first_seen and has its
// names refreshed, last_seen advanced, and gone cleared.
func (t *Tx) Upsert(ctx context.Context, id, screenName, displayName string, now time.Time) error {
	if id == "" {
		return errors.New("empty follower id")
	}
	_, err := t.tx.ExecContext(ctx, `
	INSERT INTO followers(id, screen_name, display_name, first_seen, last_seen, gone)
	VALUES(?,?,?,?,?,0)
	ON CONFLICT(id) DO UPDATE SET
	  screen_name=excluded.screen_name,
	  display_name=excluded.display_name,
	  last_seen=excluded.last_seen,
	  gone=0`,
		id, screenName, displayName, now.Unix(), now.Unix())
	return err
}

// SelectStale returns records not yet gone whose last observation predates
// cutoff, ordered by id for stable output.
func (t *Tx) SelectStale(ctx context.Context, cutoff time.Time) ([]model.Follower, error) {
	rows, err := t.tx.QueryContext(ctx, `
	SELECT id, screen_name, display_name, first_seen, last_seen, gone
	FROM followers WHERE gone=0 AND last_seen < ? ORDER BY id`, cutoff.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Follower
	for rows.Next() {
		f, err := scanFollower(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// MarkGone flips gone on for the given ids.
func (t *Tx) MarkGone(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.Repeat(",?", len(ids))[1:]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := t.tx.ExecContext(ctx, `UPDATE followers SET gone=1 WHERE id IN (`+placeholders+`)`, args...)
	return err
}

type rowScanner interface{ Scan(dest ...any) error }

func scanFollower(r rowScanner) (model.Follower, error) {
	var f model.Follower
	var first, last int64
	var gone int
	if err := r.Scan(&f.ID, &f.ScreenName, &f.DisplayName, &first, &last, &gone); err != nil {
		return f, err
	}
	f.FirstSeen = time.Unix(first, 0).UTC()
	f.LastSeen = time.Unix(last, 0).UTC()
	f.Gone = gone != 0
	return f, nil
}

// Get returns the record for id, or sql.ErrNoRows.
func (d *DB) Get(ctx context.Context, id string) (model.Follower, error) {
	row := d.sql.QueryRowContext(ctx, `
	SELECT id, screen_name, display_name, first_seen, last_seen, gone
	FROM followers WHERE id=?`, id)
	return scanFollower(row)
}

// Count returns total records and how many are currently gone.
func (d *DB) Count(ctx context.Context) (total, gone int, err error) {
	row := d.sql.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(gone),0) FROM followers`)
	err = row.Scan(&total, &gone)
	return total, gone, err
}

// SaveCursor stores a named run marker, e.g. the last reconcile time.
func (d *DB) SaveCursor(ctx context.Context, key, value string) error {
	_, err := d.sql.ExecContext(ctx, `
	INSERT INTO cursors(key, value) VALUES(?,?)
	ON CONFLICT(key) DO UPDATE SET value=excluded.value`, key, value)
	return err
}

func (d *DB) LoadCursor(ctx context.Context, key string) (string, error) {
	row := d.sql.QueryRowContext(ctx, `SELECT value FROM cursors WHERE key=?`, key)
	var v string
	if err := row.Scan(&v); err != nil {
		return "", err
	}
	return v, nil
}
