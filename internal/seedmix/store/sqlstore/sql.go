// Package sqlstore keeps per-save blobs in one SQL table. Importing it
// registers sqlite:// (modernc.org/sqlite) and postgres:// (pgx stdlib).
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/chenzhangda16/seedmix/internal/seedmix/store"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

func init() {
	store.Register("sqlite", func(ctx context.Context, u *url.URL) (store.Store, error) {
		return OpenSQLite(ctx, store.Path(u))
	})
	open := func(ctx context.Context, u *url.URL) (store.Store, error) {
		return OpenPostgres(ctx, u.String())
	}
	store.Register("postgres", open)
	store.Register("postgresql", open)
}

type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

const schemaSQLite = `CREATE TABLE IF NOT EXISTS seedmix_kv (
	save_id INTEGER NOT NULL,
	k       TEXT    NOT NULL,
	v       BLOB    NOT NULL,
	PRIMARY KEY (save_id, k)
)`

const schemaPostgres = `CREATE TABLE IF NOT EXISTS seedmix_kv (
	save_id BIGINT NOT NULL,
	k       TEXT   NOT NULL,
	v       BYTEA  NOT NULL,
	PRIMARY KEY (save_id, k)
)`

const (
	getSQL = `SELECT v FROM seedmix_kv WHERE save_id = ? AND k = ?`
	putSQL = `INSERT INTO seedmix_kv (save_id, k, v) VALUES (?, ?, ?)
ON CONFLICT (save_id, k) DO UPDATE SET v = excluded.v`
)

type Store struct {
	db      *sql.DB
	dialect Dialect
	get     string
	put     string
	closed  atomic.Bool
}

func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite: path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// one writer keeps sqlite from reporting SQLITE_BUSY under the store's own load
	db.SetMaxOpenConns(1)
	return New(ctx, db, SQLite)
}

func OpenPostgres(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres db: %w", err)
	}
	return New(ctx, db, Postgres)
}

// New takes ownership of db and creates the table if needed.
func New(ctx context.Context, db *sql.DB, d Dialect) (*Store, error) {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	schema := schemaSQLite
	if d == Postgres {
		schema = schemaPostgres
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{
		db:      db,
		dialect: d,
		get:     Rebind(d, getSQL),
		put:     Rebind(d, putSQL),
	}, nil
}

// Rebind rewrites ? placeholders to $1, $2, ... for Postgres.
func Rebind(d Dialect, query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) Get(ctx context.Context, saveID uint64, key string) ([]byte, bool, error) {
	if s.closed.Load() {
		return nil, false, store.ErrClosed
	}
	var v []byte
	err := s.db.QueryRowContext(ctx, s.get, int64(saveID), key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if v == nil {
		v = []byte{}
	}
	return v, true, nil
}

func (s *Store) Put(ctx context.Context, saveID uint64, key string, value []byte) error {
	if s.closed.Load() {
		return store.ErrClosed
	}
	if value == nil {
		value = []byte{}
	}
	_, err := s.db.ExecContext(ctx, s.put, int64(saveID), key, value)
	return err
}

func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}
