package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite connection backing the graph store.
type DB struct {
	conn *sql.DB
	Path string

	// Now is the clock used for progress timestamps. Tests replace it.
	Now func() time.Time

	locks *keyedMutex

	obsMu     sync.RWMutex
	observers []ProgressObserver
}

// OpenDB opens the store at path, creating it if absent, and brings the
// schema up to SchemaVersion. Any failure is reported as ErrStorageUnavailable.
func OpenDB(ctx context.Context, path string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, unavailable("opening database", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, unavailable("opening database", err)
	}

	// WAL for concurrent readers; not available for in-memory databases
	if path != ":memory:" {
		if _, err := conn.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			conn.Close()
			return nil, unavailable("setting WAL mode", err)
		}
	} else {
		conn.SetMaxOpenConns(1)
	}

	d := &DB{
		conn:  conn,
		Path:  path,
		Now:   time.Now,
		locks: newKeyedMutex(),
	}

	if err := d.migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	return d, nil
}

// dsn appends per-connection pragmas. busy_timeout lets competing writers
// wait instead of failing with SQLITE_BUSY; immediate transactions take the
// write lock at BEGIN so read-modify-write never has to upgrade.
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)&_txlock=immediate"
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.conn.Close()
}

// Conn returns the underlying sql.DB for custom queries
func (d *DB) Conn() *sql.DB {
	return d.conn
}

func (d *DB) nowMillis() int64 {
	return d.Now().UnixMilli()
}

func (d *DB) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return unavailable(op, err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return unavailable(op, fmt.Errorf("commit: %w", err))
	}
	return nil
}
