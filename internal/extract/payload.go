package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Kizuruki/historybowlreview/internal/db"
)

// ErrMalformedPayload is returned when model output is not a usable extraction.
var ErrMalformedPayload = errors.New("malformed extraction payload")

// PayloadNode is one extracted entity. Division and Subdivision are always
// filled after parsing; in category mode they hold category and subcategory.
type PayloadNode struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	Division       string `json:"division"`
	Subdivision    string `json:"subdivision"`
	Subsubcategory string `json:"subsubcategory,omitempty"`
}

// PayloadRelationship links two nodes by name.
type PayloadRelationship struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Relation string `json:"relation"`
}

// Payload is the validated extraction for one question.
type Payload struct {
	Nodes         []PayloadNode         `json:"nodes"`
	Relationships []PayloadRelationship `json:"relationships"`
}

type rawNode struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	Division       string `json:"division"`
	Subdivision    string `json:"subdivision"`
	Category       string `json:"category"`
	Subcategory    string `json:"subcategory"`
	Subsubcategory string `json:"subsubcategory"`
}

type rawPayload struct {
	Nodes         []rawNode             `json:"nodes"`
	Relationships []PayloadRelationship `json:"relationships"`
}

// fenceRe matches markdown code fences with an optional language tag.
var fenceRe = regexp.MustCompile("```[a-zA-Z]*\\n?")

// ParsePayload cleans model output and decodes it. It strips code fences,
// keeps the outermost {...} span, and rejects unknown node types or relations.
// Divisions are normalized to lowercase_underscore form.
func ParsePayload(text string) (*Payload, error) {
	cleaned := strings.TrimSpace(fenceRe.ReplaceAllString(text, ""))

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON object found", ErrMalformedPayload)
	}

	var raw rawPayload
	dec := json.NewDecoder(strings.NewReader(cleaned[start : end+1]))
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	p := &Payload{
		Nodes:         make([]PayloadNode, 0, len(raw.Nodes)),
		Relationships: make([]PayloadRelationship, 0, len(raw.Relationships)),
	}
	for i, n := range raw.Nodes {
		name := strings.TrimSpace(n.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: node %d has no name", ErrMalformedPayload, i)
		}
		nodeType := strings.ToLower(strings.TrimSpace(n.Type))
		if !db.IsNodeType(nodeType) {
			return nil, fmt.Errorf("%w: node %q has unknown type %q", ErrMalformedPayload, name, n.Type)
		}
		division := firstNonEmpty(n.Division, n.Category)
		subdivision := firstNonEmpty(n.Subdivision, n.Subcategory)
		p.Nodes = append(p.Nodes, PayloadNode{
			Name:           name,
			Type:           nodeType,
			Division:       db.NormalizeDivision(division),
			Subdivision:    db.NormalizeDivision(subdivision),
			Subsubcategory: db.NormalizeDivision(n.Subsubcategory),
		})
	}
	for i, r := range raw.Relationships {
		from, to := strings.TrimSpace(r.From), strings.TrimSpace(r.To)
		if from == "" || to == "" {
			return nil, fmt.Errorf("%w: relationship %d is missing an endpoint", ErrMalformedPayload, i)
		}
		relation := strings.ToLower(strings.TrimSpace(r.Relation))
		if !db.IsRelation(relation) {
			return nil, fmt.Errorf("%w: relationship %q -> %q has unknown relation %q", ErrMalformedPayload, from, to, r.Relation)
		}
		p.Relationships = append(p.Relationships, PayloadRelationship{From: from, To: to, Relation: relation})
	}
	return p, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
