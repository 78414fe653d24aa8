package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDivision(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"US History", "us_history"},
		{"us_history", "us_history"},
		{"US   history", "us_history"},
		{"  European History ", "european_history"},
		{"World\tHistory", "world_history"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeDivision(tt.in); got != tt.want {
			t.Errorf("NormalizeDivision(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if again := NormalizeDivision(tt.want); again != tt.want {
			t.Errorf("NormalizeDivision is not idempotent on %q: got %q", tt.want, again)
		}
	}
}

func TestNodesByDivision_NormalizesQuery(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	insertNode(t, d, "reconstruction_acts", "US History")
	insertNode(t, d, "radical_republicans", "us_history")
	insertNode(t, d, "congress_of_vienna", "European History")

	for _, q := range []string{"US History", "us_history", "US   history"} {
		nodes, err := d.NodesByDivision(ctx, q)
		require.NoError(t, err)
		require.Len(t, nodes, 2, "query %q", q)
		assert.Equal(t, "reconstruction_acts", nodes[0].ID, "storage order")
		assert.Equal(t, "radical_republicans", nodes[1].ID, "storage order")
		assert.Equal(t, "us_history", nodes[0].Division)
	}
}

func TestNodesByDivision_EmptyResult(t *testing.T) {
	d := setupTestDB(t)
	nodes, err := d.NodesByDivision(context.Background(), "nonexistent_division")
	require.NoError(t, err)
	assert.NotNil(t, nodes)
	assert.Empty(t, nodes)
}

func TestInsertNode_NeverOverwrites(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	wrote, err := d.InsertNode(ctx, Node{ID: "lincoln", Name: "Abraham Lincoln", Division: "US History", Type: TypePerson})
	require.NoError(t, err)
	assert.True(t, wrote)

	wrote, err = d.InsertNode(ctx, Node{ID: "lincoln", Name: "Changed", Division: "World History", Type: TypeConcept})
	require.NoError(t, err)
	assert.False(t, wrote)

	n, err := d.GetNode(ctx, "lincoln")
	require.NoError(t, err)
	assert.Equal(t, "Abraham Lincoln", n.Name)
	assert.Equal(t, "us_history", n.Division)
	assert.Equal(t, TypePerson, n.Type)
	assert.Equal(t, int64(1_700_000_000_000), n.CreatedAt)
}

func TestGetNode_NotFound(t *testing.T) {
	d := setupTestDB(t)
	_, err := d.GetNode(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrStorageUnavailable)
}

func TestSetNodeSummary(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	insertNode(t, d, "lincoln", "US History")

	require.NoError(t, d.SetNodeSummary(ctx, "lincoln", "Sixteenth president."))
	n, err := d.GetNode(ctx, "lincoln")
	require.NoError(t, err)
	require.NotNil(t, n.Summary)
	assert.Equal(t, "Sixteenth president.", *n.Summary)

	assert.ErrorIs(t, d.SetNodeSummary(ctx, "nobody", "x"), ErrNotFound)
}

func TestDivisions(t *testing.T) {
	d := setupTestDB(t)
	insertNode(t, d, "a", "US History")
	insertNode(t, d, "b", "US History")
	insertNode(t, d, "c", "European History")

	got, err := d.Divisions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []DivisionCount{
		{Division: "european_history", Nodes: 1},
		{Division: "us_history", Nodes: 2},
	}, got)
}
