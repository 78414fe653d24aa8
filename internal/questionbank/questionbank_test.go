package questionbank

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile_Formats(t *testing.T) {
	dir := t.TempDir()
	want := []Question{
		{ID: "q1", Question: "This act divided the South into five military districts.", Answer: "Reconstruction Acts", Quarter: 1, Division: "US History"},
		{ID: "bank-2", Question: "Name this leader of the Radical Republicans.", Answer: "Thaddeus Stevens", Quarter: 2, Division: "US History"},
	}

	tests := []struct {
		name    string
		content string
	}{
		{"bank.json", `[
			{"id": "q1", "question": "This act divided the South into five military districts.", "answer": "Reconstruction Acts", "quarter": 1, "division": "US History"},
			{"question": "Name this leader of the Radical Republicans.", "answer": "Thaddeus Stevens", "quarter": 2, "division": "US History"}
		]`},
		{"bank.yaml", `questions:
  - id: q1
    question: This act divided the South into five military districts.
    answer: Reconstruction Acts
    quarter: 1
    division: US History
  - question: Name this leader of the Radical Republicans.
    answer: Thaddeus Stevens
    quarter: 2
    division: US History
`},
		{"bank.html", `<html><body>
<div class="question" data-id="q1" data-quarter="1" data-division="US History">
  <p class="text">This act divided the South
     into five military districts.</p>
  <p class="answer">Reconstruction Acts</p>
</div>
<div class="question" data-quarter="2" data-division="US History">
  <p class="text">Name this leader of the Radical Republicans.</p>
  <p class="answer">Thaddeus Stevens</p>
</div>
</body></html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadFile(writeFile(t, dir, tt.name, tt.content))
			require.NoError(t, err)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("questions (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadFile_WrappedJSONAndCategories(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "official.json", `{"questions": [
		{"question": "Q", "answer": "A", "category": "American History", "subcategory": "Civil War", "subsubcategory": "Battles"},
		{"question": "   ", "answer": "dropped"}
	]}`)
	got, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "official-1", got[0].ID)
	require.Equal(t, "Battles", got[0].Subsubcategory)
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(writeFile(t, dir, "notes.txt", "hello"))
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = LoadFile(writeFile(t, dir, "broken.json", "{"))
	require.Error(t, err)

	_, err = LoadFile(writeFile(t, dir, "bad.html", `<div class="question" data-quarter="x"><p class="text">Q</p></div>`))
	require.ErrorContains(t, err, "data-quarter")

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}

func TestLoadDir_NameOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.json", `[{"id": "b1", "question": "Q", "answer": "A"}]`)
	writeFile(t, dir, "a.yml", "- id: a1\n  question: Q\n  answer: A\n")
	writeFile(t, dir, "readme.md", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0o755))

	got, err := Load(dir)
	require.NoError(t, err)
	var ids []string
	for _, q := range got {
		ids = append(ids, q.ID)
	}
	require.Equal(t, []string{"a1", "b1"}, ids)
	require.Equal(t, []string{"b1"}, []string{Find(got, []string{"b1", "zzz"})[0].ID})
}

func TestLoadDir_Empty(t *testing.T) {
	got, err := LoadDir(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}
