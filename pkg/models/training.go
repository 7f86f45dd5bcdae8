package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ItemKind identifies which part of the training corpus an item belongs to.
type ItemKind string

const (
	ItemKindSchema        ItemKind = "schema"
	ItemKindDocumentation ItemKind = "documentation"
	ItemKindExemplar      ItemKind = "exemplar"
)

// SchemaFragment is the DDL for one table. It conditions the retrieval
// backend and is never executed.
type SchemaFragment struct {
	DDL string `json:"ddl"`
}

// DocumentationEntry is a free-text sentence about semantics, units or conventions.
type DocumentationEntry struct {
	Text string `json:"text"`
}

// Exemplar pairs a natural-language question with the SQL that answers it.
type Exemplar struct {
	Question string `json:"question"`
	SQL      string `json:"sql"`
}

// TrainingItem is one immutable entry of the training corpus.
// Exactly one of Schema, Documentation or Exemplar is set, matching Kind.
// Stored in training_items table when persistence is enabled.
type TrainingItem struct {
	ID            uuid.UUID           `json:"id"`
	Kind          ItemKind            `json:"kind"`
	Schema        *SchemaFragment     `json:"schema,omitempty"`
	Documentation *DocumentationEntry `json:"documentation,omitempty"`
	Exemplar      *Exemplar           `json:"exemplar,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

// NewSchemaItem wraps a DDL string as a training item.
func NewSchemaItem(ddl string) *TrainingItem {
	return &TrainingItem{ID: uuid.New(), Kind: ItemKindSchema, Schema: &SchemaFragment{DDL: ddl}, CreatedAt: time.Now().UTC()}
}

// NewDocumentationItem wraps a documentation sentence as a training item.
func NewDocumentationItem(text string) *TrainingItem {
	return &TrainingItem{ID: uuid.New(), Kind: ItemKindDocumentation, Documentation: &DocumentationEntry{Text: text}, CreatedAt: time.Now().UTC()}
}

// NewExemplarItem wraps a question/SQL pair as a training item.
func NewExemplarItem(question, sql string) *TrainingItem {
	return &TrainingItem{ID: uuid.New(), Kind: ItemKindExemplar, Exemplar: &Exemplar{Question: question, SQL: sql}, CreatedAt: time.Now().UTC()}
}

// Content renders the item as plain text for retrieval and prompting.
func (t *TrainingItem) Content() string {
	switch t.Kind {
	case ItemKindSchema:
		if t.Schema != nil {
			return t.Schema.DDL
		}
	case ItemKindDocumentation:
		if t.Documentation != nil {
			return t.Documentation.Text
		}
	case ItemKindExemplar:
		if t.Exemplar != nil {
			return fmt.Sprintf("Question: %s\nSQL: %s", t.Exemplar.Question, t.Exemplar.SQL)
		}
	}
	return ""
}

// CorpusSnapshot is a point-in-time copy of the training corpus, in insertion order per kind.
type CorpusSnapshot struct {
	Schemas       []SchemaFragment     `json:"schemas"`
	Documentation []DocumentationEntry `json:"documentation"`
	Exemplars     []Exemplar           `json:"exemplars"`
}

// Size returns the total number of items in the snapshot.
func (s CorpusSnapshot) Size() int {
	return len(s.Schemas) + len(s.Documentation) + len(s.Exemplars)
}

// ItemOutcome reports what happened to one item of a bulk load or training call.
type ItemOutcome struct {
	Kind    ItemKind `json:"kind"`
	Index   int      `json:"index"` // position within its kind in the submitted batch
	Success bool     `json:"success"`
	Reason  string   `json:"reason,omitempty"`
}
