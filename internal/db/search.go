package db

import (
	"context"
	"strings"
	"unicode"
)

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "in": true, "on": true,
	"at": true, "to": true, "for": true, "of": true, "is": true,
	"it": true, "and": true, "or": true, "with": true, "from": true,
	"by": true, "this": true, "that": true, "as": true, "be": true,
}

// SearchTerms splits a free-text query into lowercase terms, trimming
// punctuation and dropping stopwords and words shorter than 3 characters.
func SearchTerms(query string) []string {
	var terms []string
	for _, w := range strings.Fields(query) {
		trimmed := strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		lower := strings.ToLower(trimmed)
		if len(lower) < 3 || stopwords[lower] {
			continue
		}
		terms = append(terms, lower)
	}
	return terms
}

// SearchNodes finds nodes whose name contains every search term, up to
// limit results ordered by name. An empty query matches nothing.
func (d *DB) SearchNodes(ctx context.Context, query string, limit int) ([]Node, error) {
	terms := SearchTerms(query)
	if len(terms) == 0 {
		return []Node{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	where := make([]string, len(terms))
	args := make([]any, 0, len(terms)+1)
	for i, t := range terms {
		where[i] = `LOWER(name) LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(t)+"%")
	}
	args = append(args, limit)

	rows, err := d.conn.QueryContext(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE `+strings.Join(where, " AND ")+` ORDER BY name LIMIT ?`,
		args...)
	if err != nil {
		return nil, unavailable("searching nodes", err)
	}
	nodes, err := collectNodes(rows)
	if err != nil {
		return nil, unavailable("searching nodes", err)
	}
	return nodes, nil
}

// SearchByIDPrefix finds nodes whose ID starts with prefix.
func (d *DB) SearchByIDPrefix(ctx context.Context, prefix string, limit int) ([]Node, error) {
	rows, err := d.conn.QueryContext(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE id LIKE ? ESCAPE '\' ORDER BY id LIMIT ?`,
		escapeLike(prefix)+"%", limit)
	if err != nil {
		return nil, unavailable("searching nodes", err)
	}
	nodes, err := collectNodes(rows)
	if err != nil {
		return nil, unavailable("searching nodes", err)
	}
	return nodes, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
