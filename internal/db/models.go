package db

import "encoding/json"

// Node types
const (
	TypePerson  = "person"
	TypeEvent   = "event"
	TypePlace   = "place"
	TypeConcept = "concept"
)

// Relation vocabulary
const (
	RelCaused     = "caused"
	RelOpposed    = "opposed"
	RelLed        = "led"
	RelEnactedBy  = "enacted_by"
	RelOccurredIn = "occurred_in"
	RelRelatedTo  = "related_to"
)

// Node represents a row in the nodes table
type Node struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Division    string  `json:"division"` // normalized, e.g. "us_history"
	Subdivision string  `json:"subdivision"`
	Type        string  `json:"type"` // person, event, place, concept
	Summary     *string `json:"summary"`
	CreatedAt   int64   `json:"created_at"` // Unix millis
}

// Relationship represents a row in the relationships table
type Relationship struct {
	ID       int64  `json:"id"`
	FromNode string `json:"from_node"`
	ToNode   string `json:"to_node"`
	Relation string `json:"relation"`
}

// NodeQuestion links a node to a question in a question bank.
type NodeQuestion struct {
	ID         int64  `json:"id"`
	NodeID     string `json:"node_id"`
	QuestionID string `json:"question_id"`
}

// UserProgress is the per-node mastery record.
type UserProgress struct {
	NodeID        string `json:"node_id"`
	Stars         int    `json:"stars"`
	PlatinumUntil *int64 `json:"platinum_until"` // Unix millis, nil until 3 stars
	TimesCorrect  int    `json:"times_correct"`
	TimesWrong    int    `json:"times_wrong"`
	LastPracticed int64  `json:"last_practiced"` // Unix millis
}

// WrongAnswer is an opaque record of a missed attempt.
type WrongAnswer struct {
	ID        int64           `json:"id"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt int64           `json:"created_at"` // Unix millis
}

// IsNodeType reports whether t is one of the four node types.
func IsNodeType(t string) bool {
	switch t {
	case TypePerson, TypeEvent, TypePlace, TypeConcept:
		return true
	default:
		return false
	}
}

// IsRelation reports whether r is in the relation vocabulary.
func IsRelation(r string) bool {
	switch r {
	case RelCaused, RelOpposed, RelLed, RelEnactedBy, RelOccurredIn, RelRelatedTo:
		return true
	default:
		return false
	}
}
