package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchTerms(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"The Battle of Gettysburg", []string{"battle", "gettysburg"}},
		{"go do run fast", []string{"run", "fast"}},
		{"(Reconstruction) Acts,", []string{"reconstruction", "acts"}},
		{"the a an in on at", nil},
		{"", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SearchTerms(tt.in), "SearchTerms(%q)", tt.in)
	}
}

func TestSearchNodes(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	for _, n := range []Node{
		{ID: "reconstruction_acts", Name: "Reconstruction Acts", Division: "US History", Type: TypeEvent},
		{ID: "reconstruction", Name: "Reconstruction", Division: "US History", Type: TypeConcept},
		{ID: "townshend_acts", Name: "Townshend Acts", Division: "US History", Type: TypeEvent},
	} {
		_, err := d.InsertNode(ctx, n)
		require.NoError(t, err)
	}

	got, err := d.SearchNodes(ctx, "reconstruction", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"reconstruction", "reconstruction_acts"}, nodeIDs(got))

	got, err = d.SearchNodes(ctx, "the acts of reconstruction", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"reconstruction_acts"}, nodeIDs(got))

	got, err = d.SearchNodes(ctx, "of the", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchByIDPrefix_EscapesWildcards(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	insertNode(t, d, "us_grant", "US History")
	insertNode(t, d, "usxgrant", "US History")

	got, err := d.SearchByIDPrefix(ctx, "us_", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"us_grant"}, nodeIDs(got))
}
