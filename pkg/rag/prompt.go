package rag

import (
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-analyst/pkg/models"
)

// Context is the retrieved material a prompt is built from.
type Context struct {
	Schemas       []string
	Documentation []string
	Exemplars     []models.Exemplar
}

const systemPrompt = `You are a PostgreSQL expert. Write one SQL query that answers the user's question about invoice data.
Use only the tables and columns given in the context. Table and camelCase column names must be double-quoted exactly as shown.

Response rules:
- Return a single read-only SELECT (or WITH ... SELECT) statement.
- Do not modify data or schema.
- If the context is insufficient, return the closest useful query rather than an explanation.
- Return only the SQL, without commentary.`

// buildPrompt renders retrieved context and the question into the user message.
func buildPrompt(question string, rc Context) string {
	var b strings.Builder

	if len(rc.Schemas) > 0 {
		b.WriteString("=== Tables\n")
		for _, ddl := range rc.Schemas {
			b.WriteString(strings.TrimSpace(ddl))
			b.WriteString("\n\n")
		}
	}

	if len(rc.Documentation) > 0 {
		b.WriteString("=== Additional context\n")
		for _, doc := range rc.Documentation {
			fmt.Fprintf(&b, "- %s\n", strings.TrimSpace(doc))
		}
		b.WriteString("\n")
	}

	if len(rc.Exemplars) > 0 {
		b.WriteString("=== Example questions and SQL\n")
		for _, ex := range rc.Exemplars {
			fmt.Fprintf(&b, "Question: %s\nSQL: %s\n\n", strings.TrimSpace(ex.Question), strings.TrimSpace(ex.SQL))
		}
	}

	fmt.Fprintf(&b, "=== Question\n%s\n", strings.TrimSpace(question))
	return b.String()
}

// contextFromItems splits retrieved items by kind.
func contextFromItems(schemas, docs, exemplars []*models.TrainingItem) Context {
	var rc Context
	for _, it := range schemas {
		rc.Schemas = append(rc.Schemas, it.Schema.DDL)
	}
	for _, it := range docs {
		rc.Documentation = append(rc.Documentation, it.Documentation.Text)
	}
	for _, it := range exemplars {
		rc.Exemplars = append(rc.Exemplars, *it.Exemplar)
	}
	return rc
}

// contextFromSnapshot takes at most topK of each kind from a corpus snapshot, in order.
func contextFromSnapshot(snap models.CorpusSnapshot, topK int) Context {
	rc := Context{}
	for i, s := range snap.Schemas {
		if i >= topK {
			break
		}
		rc.Schemas = append(rc.Schemas, s.DDL)
	}
	for i, d := range snap.Documentation {
		if i >= topK {
			break
		}
		rc.Documentation = append(rc.Documentation, d.Text)
	}
	for i, e := range snap.Exemplars {
		if i >= topK {
			break
		}
		rc.Exemplars = append(rc.Exemplars, e)
	}
	return rc
}
