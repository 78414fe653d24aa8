package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nodeIDs(nodes []Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

func TestRelatedNodes_Symmetric(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	insertNode(t, d, "reconstruction_acts", "US History")
	insertNode(t, d, "radical_republicans", "US History")
	insertRel(t, d, "reconstruction_acts", "radical_republicans", RelEnactedBy)

	fromA, err := d.RelatedNodes(ctx, "reconstruction_acts")
	require.NoError(t, err)
	assert.Equal(t, []string{"radical_republicans"}, nodeIDs(fromA))

	fromB, err := d.RelatedNodes(ctx, "radical_republicans")
	require.NoError(t, err)
	assert.Equal(t, []string{"reconstruction_acts"}, nodeIDs(fromB))
}

func TestRelatedNodes_Dedup(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	insertNode(t, d, "a", "US History")
	insertNode(t, d, "b", "US History")
	insertNode(t, d, "c", "US History")
	insertRel(t, d, "a", "b", RelCaused)
	insertRel(t, d, "a", "b", RelLed)
	insertRel(t, d, "b", "a", RelOpposed)
	insertRel(t, d, "c", "a", RelRelatedTo)

	related, err := d.RelatedNodes(ctx, "a")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b", "c"}, nodeIDs(related))
}

func TestRelatedNodes_SkipsDangling(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	insertNode(t, d, "a", "US History")
	insertNode(t, d, "b", "US History")
	insertRel(t, d, "a", "b", RelCaused)
	insertRel(t, d, "a", "ghost", RelCaused)
	insertRel(t, d, "phantom", "a", RelLed)

	related, err := d.RelatedNodes(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, nodeIDs(related))
}

func TestRelatedNodes_NoRelationships(t *testing.T) {
	d := setupTestDB(t)
	insertNode(t, d, "loner", "US History")

	related, err := d.RelatedNodes(context.Background(), "loner")
	require.NoError(t, err)
	assert.NotNil(t, related)
	assert.Empty(t, related)
}

func TestRelatedNodes_SelfLoopCountsOnce(t *testing.T) {
	d := setupTestDB(t)
	insertNode(t, d, "a", "US History")
	insertRel(t, d, "a", "a", RelRelatedTo)
	insertRel(t, d, "a", "a", RelCaused)

	related, err := d.RelatedNodes(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, nodeIDs(related))
}

func TestAddRelationship_DuplicateReturnsExistingID(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	id1, err := d.AddRelationship(ctx, "a", "b", RelCaused)
	require.NoError(t, err)
	id2, err := d.AddRelationship(ctx, "a", "b", RelCaused)
	require.NoError(t, err)
	id3, err := d.AddRelationship(ctx, "a", "b", RelLed)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.NotEqual(t, id1, id3)

	all, err := d.AllRelationships(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	forB, err := d.RelationshipsForNode(ctx, "b")
	require.NoError(t, err)
	assert.Len(t, forB, 2)
}

func TestIsRelationAndNodeType(t *testing.T) {
	for _, r := range []string{"caused", "opposed", "led", "enacted_by", "occurred_in", "related_to"} {
		assert.True(t, IsRelation(r), r)
	}
	assert.False(t, IsRelation("befriended"))
	for _, ty := range []string{"person", "event", "place", "concept"} {
		assert.True(t, IsNodeType(ty), ty)
	}
	assert.False(t, IsNodeType("document"))
}
