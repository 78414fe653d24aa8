// Package questionbank loads History Bowl questions from JSON, YAML and HTML files.
package questionbank

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for files whose extension has no loader.
var ErrUnsupportedFormat = errors.New("unsupported question bank format")

// Question is one tossup or bonus as it appears in a bank.
// Division is the free-form division label; Category, Subcategory and
// Subsubcategory carry the official taxonomy when the bank has it.
type Question struct {
	ID             string `json:"id" yaml:"id"`
	Question       string `json:"question" yaml:"question"`
	Answer         string `json:"answer" yaml:"answer"`
	Quarter        int    `json:"quarter,omitempty" yaml:"quarter,omitempty"`
	Division       string `json:"division,omitempty" yaml:"division,omitempty"`
	Category       string `json:"category,omitempty" yaml:"category,omitempty"`
	Subcategory    string `json:"subcategory,omitempty" yaml:"subcategory,omitempty"`
	Subsubcategory string `json:"subsubcategory,omitempty" yaml:"subsubcategory,omitempty"`
}

type wrapped struct {
	Questions []Question `json:"questions" yaml:"questions"`
}

// Supported reports whether path has an extension LoadFile understands.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml", ".html", ".htm":
		return true
	}
	return false
}

// LoadFile reads one bank. Questions without an id get "<file-stem>-<n>",
// n counting from 1 in file order. Questions with no text are dropped.
func LoadFile(path string) ([]Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading question bank: %w", err)
	}

	var qs []Question
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		qs, err = parseJSON(data)
	case ".yaml", ".yml":
		qs, err = parseYAML(data)
	case ".html", ".htm":
		qs, err = parseHTML(data)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return normalize(qs, stem(path)), nil
}

// LoadDir loads every supported file directly inside dir, in name order.
func LoadDir(dir string) ([]Question, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading question bank dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && Supported(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	all := []Question{}
	for _, name := range names {
		qs, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		all = append(all, qs...)
	}
	return all, nil
}

// Load dispatches to LoadDir or LoadFile depending on what path is.
func Load(path string) ([]Question, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("opening question bank: %w", err)
	}
	if info.IsDir() {
		return LoadDir(path)
	}
	return LoadFile(path)
}

// Find returns the questions whose id is in ids, in bank order.
func Find(qs []Question, ids []string) []Question {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := []Question{}
	for _, q := range qs {
		if want[q.ID] {
			out = append(out, q)
		}
	}
	return out
}

func parseJSON(data []byte) ([]Question, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var qs []Question
		if err := json.Unmarshal(trimmed, &qs); err != nil {
			return nil, err
		}
		return qs, nil
	}
	var w wrapped
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return nil, err
	}
	return w.Questions, nil
}

func parseYAML(data []byte) ([]Question, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	root := node.Content[0]
	if root.Kind == yaml.SequenceNode {
		var qs []Question
		if err := root.Decode(&qs); err != nil {
			return nil, err
		}
		return qs, nil
	}
	var w wrapped
	if err := root.Decode(&w); err != nil {
		return nil, err
	}
	return w.Questions, nil
}

// parseHTML reads elements with class "question". Metadata comes from data-*
// attributes; text and answer from ".text" and ".answer" children.
func parseHTML(data []byte) ([]Question, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var qs []Question
	var parseErr error
	doc.Find(".question").EachWithBreak(func(i int, s *goquery.Selection) bool {
		q := Question{
			ID:             attr(s, "data-id"),
			Question:       collapse(s.Find(".text").First().Text()),
			Answer:         collapse(s.Find(".answer").First().Text()),
			Division:       attr(s, "data-division"),
			Category:       attr(s, "data-category"),
			Subcategory:    attr(s, "data-subcategory"),
			Subsubcategory: attr(s, "data-subsubcategory"),
		}
		if quarter := attr(s, "data-quarter"); quarter != "" {
			n, err := strconv.Atoi(quarter)
			if err != nil {
				parseErr = fmt.Errorf("question %d: bad data-quarter %q", i+1, quarter)
				return false
			}
			q.Quarter = n
		}
		qs = append(qs, q)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return qs, nil
}

func attr(s *goquery.Selection, name string) string {
	v, _ := s.Attr(name)
	return strings.TrimSpace(v)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func normalize(qs []Question, stem string) []Question {
	out := make([]Question, 0, len(qs))
	for i, q := range qs {
		q.Question = strings.TrimSpace(q.Question)
		q.Answer = strings.TrimSpace(q.Answer)
		if q.Question == "" {
			continue
		}
		if strings.TrimSpace(q.ID) == "" {
			q.ID = fmt.Sprintf("%s-%d", stem, i+1)
		}
		out = append(out, q)
	}
	return out
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
