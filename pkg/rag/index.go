// Package rag implements the retrieval-augmented SQL generation backend.
package rag

import (
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/ekaya-inc/ekaya-analyst/pkg/models"
)

// entry is one indexed training item.
type entry struct {
	item   *models.TrainingItem
	terms  map[string]int
	vector []float32 // nil when no embedder is configured or embedding failed
	seq    int
}

// Index holds training items for similarity search. Safe for concurrent use.
type Index struct {
	mu      sync.RWMutex
	entries []entry
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{}
}

// Add indexes an item. vector may be nil.
func (ix *Index) Add(item *models.TrainingItem, vector []float32) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.entries = append(ix.entries, entry{
		item:   item,
		terms:  termCounts(item.Content()),
		vector: vector,
		seq:    len(ix.entries),
	})
}

// Len returns the number of indexed items.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

type scored struct {
	item  *models.TrainingItem
	score float64
	seq   int
}

// Search returns up to k items of the given kind, most similar first. Items with a
// vector are ranked by cosine similarity when queryVec is set; everything else
// falls back to lexical overlap. Ties keep insertion order.
func (ix *Index) Search(question string, queryVec []float32, kind models.ItemKind, k int) []*models.TrainingItem {
	if k <= 0 {
		return nil
	}
	queryTerms := termCounts(question)

	ix.mu.RLock()
	candidates := make([]scored, 0, len(ix.entries))
	for _, e := range ix.entries {
		if e.item.Kind != kind {
			continue
		}
		var score float64
		if queryVec != nil && e.vector != nil {
			score = cosineSimilarity(queryVec, e.vector)
		} else {
			score = lexicalScore(queryTerms, e.terms)
		}
		candidates = append(candidates, scored{item: e.item, score: score, seq: e.seq})
	}
	ix.mu.RUnlock()

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].seq < candidates[j].seq
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	out := make([]*models.TrainingItem, len(candidates))
	for i, c := range candidates {
		out[i] = c.item
	}
	return out
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// lexicalScore is a saturated term-frequency score (tf / (tf + k1)) averaged over
// query terms, with a bonus for covering more of the question.
func lexicalScore(query, doc map[string]int) float64 {
	if len(query) == 0 {
		return 0
	}
	const k1 = 1.2

	total, matched := 0.0, 0
	for term := range query {
		tf := float64(doc[term])
		if tf == 0 {
			continue
		}
		matched++
		total += tf / (tf + k1)
	}
	if matched == 0 {
		return 0
	}
	coverage := float64(matched) / float64(len(query))
	return total / float64(len(query)) * (0.7 + 0.3*coverage)
}

// termCounts lowercases and splits on anything that is not a letter or digit.
// Single-character terms are dropped.
func termCounts(text string) map[string]int {
	counts := make(map[string]int)
	for _, f := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len([]rune(f)) < 2 {
			continue
		}
		counts[f]++
	}
	return counts
}
