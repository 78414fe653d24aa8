package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// setupTestDB opens a fresh store in a temp dir with a fixed clock.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := OpenDB(context.Background(), filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	d.Now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	t.Cleanup(func() { d.Close() })
	return d
}

func insertNode(t *testing.T, d *DB, id, division string) {
	t.Helper()
	_, err := d.InsertNode(context.Background(), Node{
		ID:       id,
		Name:     id,
		Division: division,
		Type:     TypeConcept,
	})
	require.NoError(t, err)
}

func insertRel(t *testing.T, d *DB, from, to, relation string) {
	t.Helper()
	_, err := d.AddRelationship(context.Background(), from, to, relation)
	require.NoError(t, err)
}

func sqliteObjects(t *testing.T, d *DB, kind string) []string {
	t.Helper()
	rows, err := d.conn.Query(
		`SELECT name FROM sqlite_master WHERE type = ? AND name NOT LIKE 'sqlite_%' ORDER BY name`, kind)
	require.NoError(t, err)
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		require.NoError(t, rows.Scan(&n))
		names = append(names, n)
	}
	require.NoError(t, rows.Err())
	return names
}

func TestOpenDB_CreatesSchema(t *testing.T) {
	d := setupTestDB(t)

	assert.Equal(t,
		[]string{"node_questions", "nodes", "relationships", "user_progress", "wrong_answers"},
		sqliteObjects(t, d, "table"))
	assert.Equal(t, []string{
		"node_questions_by_node", "node_questions_by_question",
		"nodes_by_division", "nodes_by_subdivision", "nodes_by_type",
		"relationships_by_from", "relationships_by_to",
	}, sqliteObjects(t, d, "index"))

	v, err := d.SchemaVersionOf(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, v)
}

func TestOpenDB_Idempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "graph.db")

	d, err := OpenDB(ctx, path)
	require.NoError(t, err)
	_, err = d.InsertNode(ctx, Node{ID: "lincoln", Division: "US History", Type: TypePerson})
	require.NoError(t, err)
	tables := sqliteObjects(t, d, "table")
	require.NoError(t, d.Close())

	d, err = OpenDB(ctx, path)
	require.NoError(t, err)
	defer d.Close()

	assert.Equal(t, tables, sqliteObjects(t, d, "table"))
	nodes, err := d.AllNodes(ctx)
	require.NoError(t, err)
	assert.Len(t, nodes, 1, "reopening must keep existing data")
}

func TestOpenDB_NewerVersionRejected(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "graph.db")

	d, err := OpenDB(ctx, path)
	require.NoError(t, err)
	_, err = d.conn.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	require.NoError(t, d.Close())

	_, err = OpenDB(ctx, path)
	require.ErrorIs(t, err, ErrStorageUnavailable)
	assert.Contains(t, err.Error(), "version 99")
}

func TestOpenDB_ForeignStoreRejected(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "other.db")

	d, err := OpenDB(ctx, path)
	require.NoError(t, err)
	_, err = d.conn.Exec("PRAGMA application_id = 42")
	require.NoError(t, err)
	require.NoError(t, d.Close())

	_, err = OpenDB(ctx, path)
	require.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestOpenDB_UnopenablePath(t *testing.T) {
	_, err := OpenDB(context.Background(), filepath.Join(t.TempDir(), "missing", "dir", "graph.db"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.NotEmpty(t, se.Op)
}

func TestClosedStoreReportsUnavailable(t *testing.T) {
	ctx := context.Background()
	d, err := OpenDB(ctx, filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	require.NoError(t, d.Close())

	_, err = d.NodesByDivision(ctx, "US History")
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	_, err = d.RelatedNodes(ctx, "x")
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	_, err = d.UpdateProgress(ctx, "x", true, "initial")
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}
