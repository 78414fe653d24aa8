package extract

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// OutputFile is one extraction run, written as indented JSON and read back
// by the importer.
type OutputFile struct {
	RunID     string    `json:"run_id"`
	Source    string    `json:"source"`
	Taxonomy  string    `json:"taxonomy"`
	Model     string    `json:"model"`
	CreatedAt int64     `json:"created_at"`
	Records   []Record  `json:"records"`
	Skipped   []Skipped `json:"skipped"`
}

// Record is the extraction of one question.
type Record struct {
	QuestionID    string                `json:"question_id"`
	Quarter       int                   `json:"quarter,omitempty"`
	Nodes         []PayloadNode         `json:"nodes"`
	Relationships []PayloadRelationship `json:"relationships"`
}

// Skipped names a question that produced no record.
type Skipped struct {
	QuestionID string `json:"question_id"`
	Reason     string `json:"reason"`
}

// WriteFile writes f to path via a temp file and rename, so a watching
// importer never sees a half-written file.
func (f *OutputFile) WriteFile(path string) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".extract-*.tmp")
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("writing output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// ReadOutputFile loads an extraction output file.
func ReadOutputFile(path string) (*OutputFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading extraction output: %w", err)
	}
	var f OutputFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &f, nil
}
