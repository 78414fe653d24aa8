package db

import (
	"context"
	"database/sql"
	"fmt"
)

const (
	// StoreName identifies the store; kept as the application_id tag below.
	StoreName = "HistoryBowlGraph"

	// SchemaVersion is the version OpenDB migrates to.
	SchemaVersion = 1

	// applicationID is "HBGR" as a big-endian int32.
	applicationID = 0x48424752
)

// migrations[i] upgrades a store from version i to i+1.
var migrations = []string{
	`
	CREATE TABLE IF NOT EXISTS nodes (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL DEFAULT '',
		division    TEXT NOT NULL,
		subdivision TEXT NOT NULL DEFAULT '',
		type        TEXT NOT NULL,
		summary     TEXT,
		created_at  INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS nodes_by_division ON nodes(division);
	CREATE INDEX IF NOT EXISTS nodes_by_subdivision ON nodes(subdivision);
	CREATE INDEX IF NOT EXISTS nodes_by_type ON nodes(type);

	CREATE TABLE IF NOT EXISTS relationships (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		from_node TEXT NOT NULL,
		to_node   TEXT NOT NULL,
		relation  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS relationships_by_from ON relationships(from_node);
	CREATE INDEX IF NOT EXISTS relationships_by_to ON relationships(to_node);

	CREATE TABLE IF NOT EXISTS node_questions (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		node_id     TEXT NOT NULL,
		question_id TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS node_questions_by_node ON node_questions(node_id);
	CREATE INDEX IF NOT EXISTS node_questions_by_question ON node_questions(question_id);

	CREATE TABLE IF NOT EXISTS user_progress (
		node_id        TEXT PRIMARY KEY,
		stars          INTEGER NOT NULL DEFAULT 0,
		platinum_until INTEGER,
		times_correct  INTEGER NOT NULL DEFAULT 0,
		times_wrong    INTEGER NOT NULL DEFAULT 0,
		last_practiced INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS wrong_answers (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		payload    TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	`,
}

// SchemaVersionOf reports the user_version stored in the database.
func (d *DB) SchemaVersionOf(ctx context.Context) (int, error) {
	var v int
	if err := d.conn.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, unavailable("reading schema version", err)
	}
	return v, nil
}

// migrate applies pending migrations, one transaction per version.
// Opening a store that is already current is a no-op.
func (d *DB) migrate(ctx context.Context) error {
	var appID int
	if err := d.conn.QueryRowContext(ctx, "PRAGMA application_id").Scan(&appID); err != nil {
		return unavailable("reading application id", err)
	}
	if appID != 0 && appID != applicationID {
		return unavailable("checking store identity",
			fmt.Errorf("database is not a %s store (application_id %#x)", StoreName, appID))
	}

	version, err := d.SchemaVersionOf(ctx)
	if err != nil {
		return err
	}
	if version > SchemaVersion {
		return unavailable("upgrading schema",
			fmt.Errorf("store is at version %d, this build supports up to %d", version, SchemaVersion))
	}

	for v := version; v < SchemaVersion; v++ {
		err := d.withTx(ctx, "upgrading schema", func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, migrations[v]); err != nil {
				return unavailable("upgrading schema", fmt.Errorf("migration %d: %w", v+1, err))
			}
			if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA application_id = %d", applicationID)); err != nil {
				return unavailable("upgrading schema", err)
			}
			if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", v+1)); err != nil {
				return unavailable("upgrading schema", err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}
