package db

import (
	"context"
	"errors"
	"sort"

	"golang.org/x/sync/errgroup"
)

const relationshipColumns = `id, from_node, to_node, relation`

// scanRelationship scans a row into a Relationship.
func scanRelationship(scanner interface{ Scan(dest ...any) error }) (Relationship, error) {
	var r Relationship
	err := scanner.Scan(&r.ID, &r.FromNode, &r.ToNode, &r.Relation)
	return r, err
}

// AddRelationship stores a directed edge and returns its ID. An identical
// edge (same endpoints and relation) is not duplicated; its existing ID is
// returned instead.
func (d *DB) AddRelationship(ctx context.Context, from, to, relation string) (int64, error) {
	res, err := d.conn.ExecContext(ctx, `
		INSERT INTO relationships (from_node, to_node, relation)
		SELECT ?, ?, ?
		WHERE NOT EXISTS (
			SELECT 1 FROM relationships WHERE from_node = ? AND to_node = ? AND relation = ?
		)
	`, from, to, relation, from, to, relation)
	if err != nil {
		return 0, unavailable("inserting relationship", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		id, err := res.LastInsertId()
		if err != nil {
			return 0, unavailable("inserting relationship", err)
		}
		return id, nil
	}

	var id int64
	err = d.conn.QueryRowContext(ctx, `
		SELECT id FROM relationships WHERE from_node = ? AND to_node = ? AND relation = ?
	`, from, to, relation).Scan(&id)
	if err != nil {
		return 0, unavailable("inserting relationship", err)
	}
	return id, nil
}

// AllRelationships returns every relationship in ID order.
func (d *DB) AllRelationships(ctx context.Context) ([]Relationship, error) {
	rows, err := d.conn.QueryContext(ctx, `SELECT `+relationshipColumns+` FROM relationships ORDER BY id`)
	if err != nil {
		return nil, unavailable("listing relationships", err)
	}
	defer rows.Close()

	rels := []Relationship{}
	for rows.Next() {
		r, err := scanRelationship(rows)
		if err != nil {
			return nil, unavailable("listing relationships", err)
		}
		rels = append(rels, r)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("listing relationships", err)
	}
	return rels, nil
}

// RelationshipsForNode returns all relationships where the node is either
// endpoint.
func (d *DB) RelationshipsForNode(ctx context.Context, nodeID string) ([]Relationship, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT `+relationshipColumns+` FROM relationships
		WHERE from_node = ? OR to_node = ? ORDER BY id
	`, nodeID, nodeID)
	if err != nil {
		return nil, unavailable("querying relationships", err)
	}
	defer rows.Close()

	rels := []Relationship{}
	for rows.Next() {
		r, err := scanRelationship(rows)
		if err != nil {
			return nil, unavailable("querying relationships", err)
		}
		rels = append(rels, r)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("querying relationships", err)
	}
	return rels, nil
}

// RelatedNodes returns the neighbours of nodeID treating relationships as
// undirected. Each neighbour appears once however many edges connect it;
// endpoints that no longer resolve to a stored node are skipped. Results
// are sorted by ID, though callers should not rely on any order.
func (d *DB) RelatedNodes(ctx context.Context, nodeID string) ([]Node, error) {
	var outgoing, incoming []string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ids, err := d.endpointIDs(gctx, `SELECT to_node FROM relationships WHERE from_node = ?`, nodeID)
		outgoing = ids
		return err
	})
	g.Go(func() error {
		ids, err := d.endpointIDs(gctx, `SELECT from_node FROM relationships WHERE to_node = ?`, nodeID)
		incoming = ids
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, unavailable("querying related nodes", err)
	}

	seen := make(map[string]bool, len(outgoing)+len(incoming))
	var ids []string
	for _, id := range append(outgoing, incoming...) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	related := make([]Node, 0, len(ids))
	for _, id := range ids {
		n, err := d.GetNode(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue // dangling reference
		}
		if err != nil {
			return nil, err
		}
		related = append(related, *n)
	}
	return related, nil
}

func (d *DB) endpointIDs(ctx context.Context, query, nodeID string) ([]string, error) {
	rows, err := d.conn.QueryContext(ctx, query, nodeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
