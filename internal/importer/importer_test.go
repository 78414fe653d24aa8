package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Kizuruki/historybowlreview/internal/db"
	"github.com/Kizuruki/historybowlreview/internal/extract"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func setupImporter(t *testing.T) (*Importer, *db.DB) {
	t.Helper()
	d, err := db.OpenDB(context.Background(), filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return New(d, nil), d
}

func sampleOutput() *extract.OutputFile {
	return &extract.OutputFile{
		RunID:    "run-1",
		Source:   "bank.json",
		Taxonomy: "division",
		Records: []extract.Record{
			{
				QuestionID: "q1",
				Nodes: []extract.PayloadNode{
					{Name: "Reconstruction Acts", Type: db.TypeEvent, Division: "us_history", Subdivision: "government"},
				},
				Relationships: []extract.PayloadRelationship{
					// Radical Republicans only appears in the next record.
					{From: "Reconstruction Acts", To: "Radical Republicans", Relation: db.RelEnactedBy},
					{From: "Reconstruction Acts", To: "Nobody In Particular", Relation: db.RelRelatedTo},
				},
			},
			{
				QuestionID: "q2",
				Nodes: []extract.PayloadNode{
					{Name: "Radical Republicans", Type: db.TypeConcept, Division: "us_history", Subdivision: "government"},
					{Name: "Reconstruction Acts", Type: db.TypeEvent, Division: "us_history", Subdivision: "government"},
				},
				Relationships: []extract.PayloadRelationship{
					{From: "radical republicans", To: "Radical Republicans", Relation: db.RelRelatedTo},
				},
			},
		},
		Skipped: []extract.Skipped{},
	}
}

func writeOutput(t *testing.T, dir, name string, f *extract.OutputFile) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, f.WriteFile(path))
	return path
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Reconstruction Acts":       "reconstruction_acts",
		"  Shays' Rebellion ":       "shays_rebellion",
		"Treaty of Brest-Litovsk":   "treaty_of_brest_litovsk",
		"19th Amendment":            "19th_amendment",
		"Otto von Bismarck (1815)":  "otto_von_bismarck_1815",
		"Ōkubo Toshimichi":          "ōkubo_toshimichi",
		"!!!":                       "",
		"already_slugged_name":      "already_slugged_name",
		"Reconstruction   --  Acts": "reconstruction_acts",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slug(in), "Slug(%q)", in)
		assert.Equal(t, Slug(in), Slug(Slug(in)), "Slug should be idempotent for %q", in)
	}
}

func TestImportFile(t *testing.T) {
	im, d := setupImporter(t)
	ctx := context.Background()
	path := writeOutput(t, t.TempDir(), "run.json", sampleOutput())

	res, err := im.ImportFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, Result{
		Files:         1,
		Records:       2,
		NodesAdded:    2,
		NodesExisting: 1,
		Relationships: 1,
		Unresolved:    2,
		QuestionLinks: 3,
	}, res)

	node, err := d.GetNode(ctx, "reconstruction_acts")
	require.NoError(t, err)
	assert.Equal(t, "Reconstruction Acts", node.Name)
	assert.Equal(t, db.TypeEvent, node.Type)

	related, err := d.RelatedNodes(ctx, "reconstruction_acts")
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, "radical_republicans", related[0].ID)

	questions, err := d.QuestionsForNode(ctx, "reconstruction_acts")
	require.NoError(t, err)
	assert.Equal(t, []string{"q1", "q2"}, questions)
}

func TestImportFile_Idempotent(t *testing.T) {
	im, d := setupImporter(t)
	ctx := context.Background()
	path := writeOutput(t, t.TempDir(), "run.json", sampleOutput())

	_, err := im.ImportFile(ctx, path)
	require.NoError(t, err)
	res, err := im.ImportFile(ctx, path)
	require.NoError(t, err)

	assert.Zero(t, res.NodesAdded)
	assert.Zero(t, res.QuestionLinks)
	assert.Equal(t, 3, res.NodesExisting)

	rels, err := d.AllRelationships(ctx)
	require.NoError(t, err)
	assert.Len(t, rels, 1)
}

func TestImportDir(t *testing.T) {
	im, d := setupImporter(t)
	ctx := context.Background()
	dir := t.TempDir()

	second := &extract.OutputFile{Records: []extract.Record{{
		QuestionID: "q9",
		Nodes:      []extract.PayloadNode{{Name: "Gettysburg", Type: db.TypePlace, Division: "us_history"}},
	}}}
	writeOutput(t, dir, "b.json", second)
	writeOutput(t, dir, "a.json", sampleOutput())
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".partial.json"), []byte("{"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	res, err := im.Import(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Files)
	assert.Equal(t, 3, res.NodesAdded)

	nodes, err := d.NodesByDivision(ctx, "US History")
	require.NoError(t, err)
	assert.Len(t, nodes, 3)
}

func TestImportFile_BadInput(t *testing.T) {
	im, _ := setupImporter(t)
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("not json"), 0o644))

	_, err := im.ImportFile(context.Background(), bad)
	assert.Error(t, err)
	_, err = im.Import(context.Background(), filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestImport_StoreUnavailable(t *testing.T) {
	im, d := setupImporter(t)
	path := writeOutput(t, t.TempDir(), "run.json", sampleOutput())
	require.NoError(t, d.Close())

	_, err := im.ImportFile(context.Background(), path)
	assert.ErrorIs(t, err, db.ErrStorageUnavailable)
}

func TestWatch_ImportsNewFiles(t *testing.T) {
	im, d := setupImporter(t)
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan ImportEvent, 4)
	done := make(chan error, 1)
	go func() {
		done <- im.Watch(ctx, dir, 20*time.Millisecond, func(ev ImportEvent) { events <- ev })
	}()
	defer func() {
		cancel()
		<-done
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	writeOutput(t, dir, "run.json", sampleOutput())

	select {
	case ev := <-events:
		require.NoError(t, ev.Err)
		assert.Equal(t, "run.json", filepath.Base(ev.Path))
		assert.Equal(t, 2, ev.Result.NodesAdded)
	case <-time.After(5 * time.Second):
		t.Fatal("watched file was not imported")
	}

	_, err := d.GetNode(context.Background(), "radical_republicans")
	require.NoError(t, err)
}

func TestWatch_MissingDir(t *testing.T) {
	im, _ := setupImporter(t)
	err := im.Watch(context.Background(), filepath.Join(t.TempDir(), "nope"), 0, nil)
	assert.Error(t, err)
}
