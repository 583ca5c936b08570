// Package store keeps named nouns and shell sessions in a SQLite file.
// Nouns are stored jammed, next to their mug.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sigilante/pinochle"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS nouns (
	name TEXT PRIMARY KEY,
	mug INTEGER NOT NULL,
	jam BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_nouns_mug ON nouns(mug);

CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	subject BLOB NOT NULL,
	vars BLOB NOT NULL,
	saved_at INTEGER NOT NULL
);
`

type Store struct {
	db   *sql.DB
	log  *zap.Logger
	path string
}

// Entry describes a stored noun without decoding it.
type Entry struct {
	Name    string
	Mug     uint32
	Updated time.Time
}

// Open creates the file and its schema if needed.
func Open(ctx context.Context, path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// one writer; also keeps a :memory: database from splitting per connection
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("open store %s: create schema: %w", path, err)
	}
	log.Info("store opened", zap.String("path", path))
	return &Store{db: db, log: log, path: path}, nil
}

func (me *Store) Close() error {
	me.log.Debug("store closed", zap.String("path", me.path))
	return me.db.Close()
}

// Put stores n under name, replacing any earlier noun of that name.
func (me *Store) Put(ctx context.Context, name string, n pinochle.Noun) error {
	if name == "" {
		return errors.New("put: empty name")
	}
	mug := pinochle.Mug(n)
	jam := pinochle.Jam(n)
	_, err := me.db.ExecContext(ctx, `
		INSERT INTO nouns (name, mug, jam, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET mug = excluded.mug, jam = excluded.jam, updated_at = excluded.updated_at`,
		name, int64(mug), jam, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("put %s: %w", name, err)
	}
	me.log.Debug("noun stored", zap.String("name", name), zap.Uint32("mug", mug), zap.Int("bytes", len(jam)))
	return nil
}

// Get cues the noun stored under name. A row that does not cue fails with the
// codec error.
func (me *Store) Get(ctx context.Context, name string) (pinochle.Noun, error) {
	var jam []byte
	err := me.db.QueryRowContext(ctx, `SELECT jam FROM nouns WHERE name = ?`, name).Scan(&jam)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("noun %s: %w", name, ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("get %s: %w", name, err)
	}
	n, err := pinochle.Cue(jam)
	if err != nil {
		me.log.Warn("corrupt noun row", zap.String("name", name), zap.Error(err))
		return nil, fmt.Errorf("noun %s: %w", name, err)
	}
	return n, nil
}

// List returns every entry, ordered by name.
func (me *Store) List(ctx context.Context) ([]Entry, error) {
	return me.entries(ctx, `SELECT name, mug, updated_at FROM nouns ORDER BY name`)
}

// FindByMug returns the entries whose noun has the given mug. Distinct nouns
// can share a mug, so callers compare the nouns themselves.
func (me *Store) FindByMug(ctx context.Context, mug uint32) ([]Entry, error) {
	return me.entries(ctx, `SELECT name, mug, updated_at FROM nouns WHERE mug = ? ORDER BY name`, int64(mug))
}

func (me *Store) entries(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := me.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list nouns: %w", err)
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var e Entry
		var mug, updated int64
		if err := rows.Scan(&e.Name, &mug, &updated); err != nil {
			return nil, fmt.Errorf("list nouns: %w", err)
		}
		e.Mug, e.Updated = uint32(mug), time.UnixMilli(updated)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (me *Store) Delete(ctx context.Context, name string) error {
	res, err := me.db.ExecContext(ctx, `DELETE FROM nouns WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("noun %s: %w", name, ErrNotFound)
	}
	me.log.Debug("noun deleted", zap.String("name", name))
	return nil
}
