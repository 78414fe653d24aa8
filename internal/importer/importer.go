// Package importer loads extraction output files into the graph store.
package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/Kizuruki/historybowlreview/internal/db"
	"github.com/Kizuruki/historybowlreview/internal/extract"
)

// Result counts what an import wrote. Re-importing the same file yields
// zero NodesAdded and QuestionLinks.
type Result struct {
	Files         int `json:"files"`
	Records       int `json:"records"`
	NodesAdded    int `json:"nodes_added"`
	NodesExisting int `json:"nodes_existing"`
	Relationships int `json:"relationships"`
	Unresolved    int `json:"unresolved"`
	QuestionLinks int `json:"question_links"`
}

func (r *Result) add(o Result) {
	r.Files += o.Files
	r.Records += o.Records
	r.NodesAdded += o.NodesAdded
	r.NodesExisting += o.NodesExisting
	r.Relationships += o.Relationships
	r.Unresolved += o.Unresolved
	r.QuestionLinks += o.QuestionLinks
}

// Importer writes extraction records into a store.
type Importer struct {
	DB     *db.DB
	Logger *zap.Logger
}

// New creates an Importer.
func New(d *db.DB, log *zap.Logger) *Importer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{DB: d, Logger: log}
}

// Slug derives a node ID from an entity name: lowercase letters and digits,
// every other run of characters collapsed to a single underscore.
func Slug(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		// Apostrophes join rather than split: "Shays' Rebellion" -> shays_rebellion.
		if r == '\'' || r == '’' {
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// ImportFile loads one extraction output file.
func (im *Importer) ImportFile(ctx context.Context, path string) (Result, error) {
	f, err := extract.ReadOutputFile(path)
	if err != nil {
		return Result{}, err
	}
	res, err := im.ImportOutput(ctx, f)
	if err != nil {
		return res, fmt.Errorf("importing %s: %w", path, err)
	}
	res.Files = 1
	im.Logger.Info("imported extraction output",
		zap.String("path", path),
		zap.String("run_id", f.RunID),
		zap.Int("nodes_added", res.NodesAdded),
		zap.Int("relationships", res.Relationships),
		zap.Int("unresolved", res.Unresolved),
	)
	return res, nil
}

// ImportOutput writes every record of f. Nodes are inserted first so a
// relationship may point at a node defined by a later record of the same run.
// Relationship endpoints missing from the store are counted as Unresolved.
func (im *Importer) ImportOutput(ctx context.Context, f *extract.OutputFile) (Result, error) {
	var res Result
	res.Records = len(f.Records)

	for _, rec := range f.Records {
		for _, n := range rec.Nodes {
			id := Slug(n.Name)
			if id == "" {
				continue
			}
			added, err := im.DB.InsertNode(ctx, db.Node{
				ID:          id,
				Name:        n.Name,
				Division:    n.Division,
				Subdivision: n.Subdivision,
				Type:        n.Type,
			})
			if err != nil {
				return res, err
			}
			if added {
				res.NodesAdded++
			} else {
				res.NodesExisting++
			}
			if rec.QuestionID != "" {
				linked, err := im.DB.LinkQuestion(ctx, id, rec.QuestionID)
				if err != nil {
					return res, err
				}
				if linked {
					res.QuestionLinks++
				}
			}
		}
	}

	known := make(map[string]bool)
	exists := func(id string) (bool, error) {
		if v, ok := known[id]; ok {
			return v, nil
		}
		_, err := im.DB.GetNode(ctx, id)
		switch {
		case err == nil:
			known[id] = true
		case errors.Is(err, db.ErrNotFound):
			known[id] = false
		default:
			return false, err
		}
		return known[id], nil
	}

	for _, rec := range f.Records {
		for _, r := range rec.Relationships {
			from, to := Slug(r.From), Slug(r.To)
			if from == "" || to == "" || from == to {
				res.Unresolved++
				continue
			}
			okFrom, err := exists(from)
			if err != nil {
				return res, err
			}
			okTo, err := exists(to)
			if err != nil {
				return res, err
			}
			if !okFrom || !okTo {
				res.Unresolved++
				im.Logger.Debug("unresolved relationship",
					zap.String("from", r.From), zap.String("to", r.To), zap.String("relation", r.Relation))
				continue
			}
			if _, err := im.DB.AddRelationship(ctx, from, to, r.Relation); err != nil {
				return res, err
			}
			res.Relationships++
		}
	}
	return res, nil
}

// ImportDir imports every *.json file directly inside dir, in name order.
// Hidden files (including in-progress temp files) are skipped.
func (im *Importer) ImportDir(ctx context.Context, dir string) (Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Result{}, fmt.Errorf("reading import dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && isOutputFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var total Result
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		res, err := im.ImportFile(ctx, filepath.Join(dir, name))
		total.add(res)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Import dispatches to ImportDir or ImportFile depending on what path is.
func (im *Importer) Import(ctx context.Context, path string) (Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Result{}, fmt.Errorf("opening import path: %w", err)
	}
	if info.IsDir() {
		return im.ImportDir(ctx, path)
	}
	return im.ImportFile(ctx, path)
}

func isOutputFile(name string) bool {
	return !strings.HasPrefix(name, ".") && strings.EqualFold(filepath.Ext(name), ".json")
}
