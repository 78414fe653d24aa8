package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

const nodeColumns = `id, name, division, subdivision, type, summary, created_at`

// scanNode scans a row into a Node. The row must have nodeColumns in order.
func scanNode(scanner interface{ Scan(dest ...any) error }) (Node, error) {
	var n Node
	err := scanner.Scan(&n.ID, &n.Name, &n.Division, &n.Subdivision, &n.Type, &n.Summary, &n.CreatedAt)
	return n, err
}

func collectNodes(rows *sql.Rows) ([]Node, error) {
	defer rows.Close()
	nodes := []Node{}
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// NormalizeDivision converts a human-readable division ("US History") to
// its stored key ("us_history"): lowercased, each whitespace run replaced
// by one underscore.
func NormalizeDivision(division string) string {
	return strings.Join(strings.Fields(strings.ToLower(division)), "_")
}

// NodesByDivision returns all nodes in the division, in storage order.
// An unknown division yields an empty slice.
func (d *DB) NodesByDivision(ctx context.Context, division string) ([]Node, error) {
	rows, err := d.conn.QueryContext(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE division = ? ORDER BY rowid`,
		NormalizeDivision(division))
	if err != nil {
		return nil, unavailable("querying nodes by division", err)
	}
	nodes, err := collectNodes(rows)
	if err != nil {
		return nil, unavailable("querying nodes by division", err)
	}
	return nodes, nil
}

// AllNodes returns every node in storage order.
func (d *DB) AllNodes(ctx context.Context) ([]Node, error) {
	rows, err := d.conn.QueryContext(ctx, `SELECT `+nodeColumns+` FROM nodes ORDER BY rowid`)
	if err != nil {
		return nil, unavailable("listing nodes", err)
	}
	nodes, err := collectNodes(rows)
	if err != nil {
		return nil, unavailable("listing nodes", err)
	}
	return nodes, nil
}

// GetNode returns a single node by ID, or ErrNotFound.
func (d *DB) GetNode(ctx context.Context, id string) (*Node, error) {
	n, err := scanNode(d.conn.QueryRowContext(ctx, `SELECT `+nodeColumns+` FROM nodes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("reading node", err)
	}
	return &n, nil
}

// InsertNode stores n unless a node with the same ID exists; existing nodes
// are never overwritten. The division is normalized and CreatedAt defaults
// to now. Returns whether a row was written.
func (d *DB) InsertNode(ctx context.Context, n Node) (bool, error) {
	if n.CreatedAt == 0 {
		n.CreatedAt = d.nowMillis()
	}
	res, err := d.conn.ExecContext(ctx, `
		INSERT INTO nodes (`+nodeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, n.ID, n.Name, NormalizeDivision(n.Division), n.Subdivision, n.Type, n.Summary, n.CreatedAt)
	if err != nil {
		return false, unavailable("inserting node", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, unavailable("inserting node", err)
	}
	return affected > 0, nil
}

// SetNodeSummary replaces the summary text of an existing node.
func (d *DB) SetNodeSummary(ctx context.Context, id, summary string) error {
	res, err := d.conn.ExecContext(ctx, `UPDATE nodes SET summary = ? WHERE id = ?`, summary, id)
	if err != nil {
		return unavailable("updating node summary", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// DivisionCount is a division key with the number of nodes in it.
type DivisionCount struct {
	Division string `json:"division"`
	Nodes    int    `json:"nodes"`
}

// Divisions lists every division present in the store, alphabetically.
func (d *DB) Divisions(ctx context.Context) ([]DivisionCount, error) {
	rows, err := d.conn.QueryContext(ctx,
		`SELECT division, COUNT(*) FROM nodes GROUP BY division ORDER BY division`)
	if err != nil {
		return nil, unavailable("listing divisions", err)
	}
	defer rows.Close()

	result := []DivisionCount{}
	for rows.Next() {
		var dc DivisionCount
		if err := rows.Scan(&dc.Division, &dc.Nodes); err != nil {
			return nil, unavailable("listing divisions", err)
		}
		result = append(result, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("listing divisions", err)
	}
	return result, nil
}
