package extract

import (
	"fmt"
	"strings"

	"github.com/Kizuruki/historybowlreview/internal/config"
	"github.com/Kizuruki/historybowlreview/internal/questionbank"
)

const vocabulary = `Types: person, event, place, concept
Relations: caused, opposed, led, enacted_by, occurred_in, related_to`

// NodePrompt asks the model for the entities and relationships in one question.
// taxonomy selects division/subdivision or category/subcategory/subsubcategory keys.
func NodePrompt(q questionbank.Question, taxonomy string) string {
	var b strings.Builder
	b.WriteString("Extract historical entities from this question. Return ONLY valid JSON.\n\n")
	fmt.Fprintf(&b, "Question: %q\n", q.Question)
	fmt.Fprintf(&b, "Answer: %q\n", q.Answer)

	if taxonomy == config.TaxonomyCategory {
		fmt.Fprintf(&b, "Category: %s\n", q.Category)
		if q.Subcategory != "" {
			fmt.Fprintf(&b, "Subcategory: %s\n", q.Subcategory)
		}
		b.WriteString(`
Return format:
{
  "nodes": [
    {
      "name": "Reconstruction Acts",
      "type": "event",
      "category": "american_history",
      "subcategory": "reconstruction",
      "subsubcategory": "legislation"
    }
  ],
  "relationships": [
    {
      "from": "Reconstruction Acts",
      "to": "Radical Republicans",
      "relation": "enacted_by"
    }
  ]
}

`)
	} else {
		fmt.Fprintf(&b, "Division: %s\n", q.Division)
		b.WriteString(`
Return format:
{
  "nodes": [
    {
      "name": "Reconstruction Acts",
      "type": "event",
      "division": "us_history",
      "subdivision": "government"
    }
  ],
  "relationships": [
    {
      "from": "Reconstruction Acts",
      "to": "Radical Republicans",
      "relation": "enacted_by"
    }
  ]
}

`)
	}
	b.WriteString(vocabulary)
	return b.String()
}

// SummaryPrompt asks for a short study summary of a node, using the questions
// that mention it as context.
func SummaryPrompt(name string, questions []questionbank.Question) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a concise 2-3 paragraph summary about %q for History Bowl study.\n", name)
	b.WriteString("Use these questions as context:\n\n")
	for _, q := range questions {
		b.WriteString(q.Question)
		b.WriteByte('\n')
	}
	b.WriteString("\nFocus on: what it was, when it happened, key people involved, historical significance.\n")
	b.WriteString("Write at high school level. Do not use bullet points.")
	return b.String()
}
