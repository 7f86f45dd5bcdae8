package rag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-analyst/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-analyst/pkg/llm"
	"github.com/ekaya-inc/ekaya-analyst/pkg/logging"
	"github.com/ekaya-inc/ekaya-analyst/pkg/models"
	"github.com/ekaya-inc/ekaya-analyst/pkg/retry"
)

// Config tunes retrieval and generation.
type Config struct {
	TopK           int
	Temperature    float64
	EmbeddingModel string
	Retry          *retry.Config
}

// Backend retrieves training material relevant to a question and asks an LLM for SQL.
type Backend struct {
	generator llm.LLMClient
	embedder  llm.Embedder // nil: lexical retrieval only
	index     *Index
	cfg       Config
	logger    *zap.Logger
}

// NewBackend creates a backend. embedder may be nil.
func NewBackend(generator llm.LLMClient, embedder llm.Embedder, cfg Config, logger *zap.Logger) *Backend {
	if cfg.TopK <= 0 {
		cfg.TopK = 8
	}
	if cfg.Retry == nil {
		cfg.Retry = retry.DefaultConfig()
	}
	return &Backend{
		generator: generator,
		embedder:  embedder,
		index:     NewIndex(),
		cfg:       cfg,
		logger:    logger.Named("rag"),
	}
}

// Index exposes the retrieval index.
func (b *Backend) Index() *Index {
	return b.index
}

// Train indexes one item. When an embedder is configured the item is embedded
// first; if that fails the item is still indexed for lexical retrieval and the
// error is returned.
func (b *Backend) Train(ctx context.Context, item *models.TrainingItem) error {
	if item == nil || item.Content() == "" {
		return apperrors.ErrEmptyInput
	}

	var (
		vector   []float32
		embedErr error
	)
	if b.embedder != nil {
		vector, embedErr = b.embed(ctx, item.Content())
	}

	b.index.Add(item, vector)

	if embedErr != nil {
		return fmt.Errorf("failed to embed %s item: %w", item.Kind, embedErr)
	}
	return nil
}

// GenerateSQL builds a prompt from the most relevant training items and returns
// the SQL extracted from the model's reply. When nothing has been indexed yet the
// snapshot supplies the context instead.
func (b *Backend) GenerateSQL(ctx context.Context, question string, snap models.CorpusSnapshot) (string, error) {
	rc := b.retrieve(ctx, question, snap)
	prompt := buildPrompt(question, rc)

	start := time.Now()
	var result *llm.GenerateResponseResult
	err := retry.DoIfRetryable(ctx, b.cfg.Retry, func() error {
		res, err := b.generator.GenerateResponse(ctx, prompt, systemPrompt, b.cfg.Temperature)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate SQL: %w", err)
	}

	sqlText := llm.ExtractSQL(result.Content)
	b.logger.Debug("Generated SQL",
		zap.String("sql", logging.SanitizeQuery(sqlText)),
		zap.Int("schemas", len(rc.Schemas)),
		zap.Int("documentation", len(rc.Documentation)),
		zap.Int("exemplars", len(rc.Exemplars)),
		zap.Duration("elapsed", time.Since(start)))

	if sqlText == "" {
		return "", fmt.Errorf("failed to generate SQL: %w", apperrors.ErrImplausibleSQL)
	}
	return sqlText, nil
}

func (b *Backend) retrieve(ctx context.Context, question string, snap models.CorpusSnapshot) Context {
	if b.index.Len() == 0 {
		return contextFromSnapshot(snap, b.cfg.TopK)
	}

	var queryVec []float32
	if b.embedder != nil {
		vec, err := b.embed(ctx, question)
		if err != nil {
			b.logger.Warn("Failed to embed question, using lexical retrieval",
				zap.String("error", logging.SanitizeError(err)))
		} else {
			queryVec = vec
		}
	}

	return contextFromItems(
		b.index.Search(question, queryVec, models.ItemKindSchema, b.cfg.TopK),
		b.index.Search(question, queryVec, models.ItemKindDocumentation, b.cfg.TopK),
		b.index.Search(question, queryVec, models.ItemKindExemplar, b.cfg.TopK),
	)
}

func (b *Backend) embed(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	err := retry.DoIfRetryable(ctx, b.cfg.Retry, func() error {
		vectors, err := b.embedder.CreateEmbeddings(ctx, []string{text}, b.cfg.EmbeddingModel)
		if err != nil {
			return err
		}
		if len(vectors) != 1 || len(vectors[0]) == 0 {
			return errors.New("empty embedding in response")
		}
		vector = vectors[0]
		return nil
	})
	return vector, err
}
