package knowledge

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-analyst/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-analyst/pkg/logging"
	"github.com/ekaya-inc/ekaya-analyst/pkg/models"
)

// Trainer receives every corpus item. Implemented by the retrieval backend.
type Trainer interface {
	Train(ctx context.Context, item *models.TrainingItem) error
}

// Store persists corpus items so they survive a restart.
type Store interface {
	Append(ctx context.Context, item *models.TrainingItem) error
}

// Seed is the fixed training set loaded once at startup.
type Seed struct {
	Schemas       []string
	Documentation []string
	Exemplars     []models.Exemplar
}

var ddlPattern = regexp.MustCompile(`(?is)^\s*create\s+(table|view)\b`)

// Base is the handle for adding to a corpus. Writers are serialized so that
// concurrent training calls never interleave partial writes to the backend.
type Base struct {
	corpus  *Corpus
	trainer Trainer // nil when running rule-only
	store   Store   // nil when persistence is disabled
	logger  *zap.Logger

	writeMu sync.Mutex
}

// NewBase creates a knowledge base over corpus. trainer and store are optional.
func NewBase(corpus *Corpus, trainer Trainer, store Store, logger *zap.Logger) *Base {
	return &Base{
		corpus:  corpus,
		trainer: trainer,
		store:   store,
		logger:  logger.Named("knowledge"),
	}
}

// Corpus returns the underlying corpus for readers.
func (b *Base) Corpus() *Corpus {
	return b.corpus
}

// Snapshot returns a copy of the current corpus.
func (b *Base) Snapshot() models.CorpusSnapshot {
	return b.corpus.Snapshot()
}

// AddSchema adds a DDL fragment.
func (b *Base) AddSchema(ctx context.Context, ddl string) error {
	item, err := schemaItem(ddl)
	if err != nil {
		return err
	}
	return b.add(ctx, item, true)
}

// AddDocumentation adds a documentation sentence.
func (b *Base) AddDocumentation(ctx context.Context, text string) error {
	item, err := documentationItem(text)
	if err != nil {
		return err
	}
	return b.add(ctx, item, true)
}

// AddExemplar adds a question/SQL pair.
func (b *Base) AddExemplar(ctx context.Context, question, sql string) error {
	item, err := exemplarItem(question, sql)
	if err != nil {
		return err
	}
	return b.add(ctx, item, true)
}

func schemaItem(ddl string) (*models.TrainingItem, error) {
	ddl = strings.TrimSpace(ddl)
	if ddl == "" {
		return nil, apperrors.ErrEmptyInput
	}
	if !ddlPattern.MatchString(ddl) {
		return nil, fmt.Errorf("%w: expected CREATE TABLE or CREATE VIEW", apperrors.ErrMalformedFragment)
	}
	return models.NewSchemaItem(ddl), nil
}

func documentationItem(text string) (*models.TrainingItem, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.ErrEmptyInput
	}
	return models.NewDocumentationItem(text), nil
}

func exemplarItem(question, sql string) (*models.TrainingItem, error) {
	question = strings.TrimSpace(question)
	sql = strings.TrimSpace(sql)
	if question == "" || sql == "" {
		return nil, apperrors.ErrIncompleteExemplar
	}
	return models.NewExemplarItem(question, sql), nil
}

// add forwards the item to the backend, appends it to the corpus and persists it.
// The corpus is authoritative: a backend failure is reported but the item is kept.
func (b *Base) add(ctx context.Context, item *models.TrainingItem, persist bool) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	var trainErr error
	if b.trainer != nil {
		if err := b.trainer.Train(ctx, item); err != nil {
			b.logger.Warn("Failed to forward training item to backend",
				zap.String("kind", string(item.Kind)),
				zap.String("id", item.ID.String()),
				zap.String("error", logging.SanitizeError(err)))
			trainErr = fmt.Errorf("failed to train backend on %s: %w", item.Kind, err)
		}
	}

	b.corpus.Append(item)

	if persist && b.store != nil {
		if err := b.store.Append(ctx, item); err != nil {
			b.logger.Warn("Failed to persist training item",
				zap.String("kind", string(item.Kind)),
				zap.String("id", item.ID.String()),
				zap.String("error", logging.SanitizeError(err)))
			if trainErr == nil {
				return fmt.Errorf("failed to persist %s: %w", item.Kind, err)
			}
		}
	}

	return trainErr
}

// Load ingests the seed set. It never aborts: every item gets an outcome,
// in seed order (schemas, documentation, exemplars). Seed items are not
// persisted since they are loaded again on every start.
func (b *Base) Load(ctx context.Context, seed Seed) []models.ItemOutcome {
	outcomes := make([]models.ItemOutcome, 0, len(seed.Schemas)+len(seed.Documentation)+len(seed.Exemplars))

	for i, ddl := range seed.Schemas {
		outcomes = append(outcomes, outcome(models.ItemKindSchema, i, b.loadItem(ctx, schemaItem(ddl))))
	}
	for i, doc := range seed.Documentation {
		outcomes = append(outcomes, outcome(models.ItemKindDocumentation, i, b.loadItem(ctx, documentationItem(doc))))
	}
	for i, ex := range seed.Exemplars {
		outcomes = append(outcomes, outcome(models.ItemKindExemplar, i, b.loadItem(ctx, exemplarItem(ex.Question, ex.SQL))))
	}

	failed := CountFailures(outcomes)
	fields := []zap.Field{
		zap.Int("items", len(outcomes)),
		zap.Int("failed", failed),
		zap.Int("corpus_size", b.corpus.Len()),
	}
	if failed > 0 {
		b.logger.Warn("Knowledge base loaded with failures", fields...)
	} else {
		b.logger.Info("Knowledge base loaded", fields...)
	}

	return outcomes
}

func (b *Base) loadItem(ctx context.Context, item *models.TrainingItem, err error) error {
	if err != nil {
		return err
	}
	return b.add(ctx, item, false)
}

// Replay re-ingests previously persisted items without persisting them again.
func (b *Base) Replay(ctx context.Context, items []*models.TrainingItem) []models.ItemOutcome {
	outcomes := make([]models.ItemOutcome, 0, len(items))
	for i, item := range items {
		outcomes = append(outcomes, outcome(item.Kind, i, b.add(ctx, item, false)))
	}
	if len(items) > 0 {
		b.logger.Info("Replayed persisted training items",
			zap.Int("items", len(items)),
			zap.Int("failed", CountFailures(outcomes)))
	}
	return outcomes
}

// CountFailures returns how many outcomes failed.
func CountFailures(outcomes []models.ItemOutcome) int {
	n := 0
	for _, o := range outcomes {
		if !o.Success {
			n++
		}
	}
	return n
}

func outcome(kind models.ItemKind, index int, err error) models.ItemOutcome {
	o := models.ItemOutcome{Kind: kind, Index: index, Success: err == nil}
	if err != nil {
		o.Reason = logging.SanitizeError(err)
	}
	return o
}
