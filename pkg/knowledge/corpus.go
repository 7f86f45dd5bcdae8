// Package knowledge holds the training corpus that conditions the retrieval backend.
package knowledge

import (
	"sync"

	"github.com/ekaya-inc/ekaya-analyst/pkg/models"
)

// Corpus is the append-only, in-process training corpus.
// Items keep insertion order within each kind. Duplicates are allowed.
// Readers take a snapshot and never block each other.
type Corpus struct {
	mu            sync.RWMutex
	schemas       []models.SchemaFragment
	documentation []models.DocumentationEntry
	exemplars     []models.Exemplar
}

// NewCorpus creates an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{}
}

// Append adds an item to the end of its kind. Items with no payload are ignored.
func (c *Corpus) Append(item *models.TrainingItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch item.Kind {
	case models.ItemKindSchema:
		if item.Schema != nil {
			c.schemas = append(c.schemas, *item.Schema)
		}
	case models.ItemKindDocumentation:
		if item.Documentation != nil {
			c.documentation = append(c.documentation, *item.Documentation)
		}
	case models.ItemKindExemplar:
		if item.Exemplar != nil {
			c.exemplars = append(c.exemplars, *item.Exemplar)
		}
	}
}

// Snapshot returns a copy of the corpus that later appends do not affect.
func (c *Corpus) Snapshot() models.CorpusSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return models.CorpusSnapshot{
		Schemas:       append([]models.SchemaFragment(nil), c.schemas...),
		Documentation: append([]models.DocumentationEntry(nil), c.documentation...),
		Exemplars:     append([]models.Exemplar(nil), c.exemplars...),
	}
}

// Len returns the number of items across all kinds.
func (c *Corpus) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.schemas) + len(c.documentation) + len(c.exemplars)
}
