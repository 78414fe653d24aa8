package graph

import (
	"context"
	"fmt"

	"github.com/Kizuruki/historybowlreview/internal/db"
)

// SnapshotFromDB loads a GraphSnapshot from the store.
// A non-empty division restricts the snapshot to that division.
func SnapshotFromDB(ctx context.Context, d *db.DB, division string) (*GraphSnapshot, error) {
	var (
		nodes []db.Node
		err   error
	)
	if division != "" {
		nodes, err = d.NodesByDivision(ctx, division)
	} else {
		nodes, err = d.AllNodes(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("loading nodes: %w", err)
	}

	rels, err := d.AllRelationships(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading relationships: %w", err)
	}

	return FromStore(nodes, rels), nil
}
