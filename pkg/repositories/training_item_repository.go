package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/ekaya-analyst/pkg/models"
)

// TrainingItemRepository persists training items so the corpus survives a restart.
type TrainingItemRepository interface {
	Append(ctx context.Context, item *models.TrainingItem) error
	List(ctx context.Context) ([]*models.TrainingItem, error)
}

type trainingItemRepository struct {
	db Querier
}

// NewTrainingItemRepository creates a new TrainingItemRepository.
func NewTrainingItemRepository(db Querier) TrainingItemRepository {
	return &trainingItemRepository{db: db}
}

var _ TrainingItemRepository = (*trainingItemRepository)(nil)

func (r *trainingItemRepository) Append(ctx context.Context, item *models.TrainingItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	var ddl, documentation, question, sqlText *string
	switch item.Kind {
	case models.ItemKindSchema:
		if item.Schema == nil {
			return fmt.Errorf("schema item %s has no fragment", item.ID)
		}
		ddl = &item.Schema.DDL
	case models.ItemKindDocumentation:
		if item.Documentation == nil {
			return fmt.Errorf("documentation item %s has no text", item.ID)
		}
		documentation = &item.Documentation.Text
	case models.ItemKindExemplar:
		if item.Exemplar == nil {
			return fmt.Errorf("exemplar item %s has no question/sql pair", item.ID)
		}
		question = &item.Exemplar.Question
		sqlText = &item.Exemplar.SQL
	default:
		return fmt.Errorf("unknown training item kind %q", item.Kind)
	}

	query := `
		INSERT INTO training_items (id, kind, ddl, documentation, question, sql, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if _, err := r.db.Exec(ctx, query,
		item.ID, string(item.Kind), ddl, documentation, question, sqlText, item.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert training item: %w", err)
	}

	return nil
}

func (r *trainingItemRepository) List(ctx context.Context) ([]*models.TrainingItem, error) {
	query := `
		SELECT id, kind, ddl, documentation, question, sql, created_at
		FROM training_items
		ORDER BY seq`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list training items: %w", err)
	}
	defer rows.Close()

	items := make([]*models.TrainingItem, 0)
	for rows.Next() {
		item, err := scanTrainingItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating training items: %w", err)
	}

	return items, nil
}

func scanTrainingItem(rows pgx.Rows) (*models.TrainingItem, error) {
	var (
		item                                  models.TrainingItem
		kind                                  string
		ddl, documentation, question, sqlText *string
	)
	if err := rows.Scan(&item.ID, &kind, &ddl, &documentation, &question, &sqlText, &item.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan training item: %w", err)
	}

	item.Kind = models.ItemKind(kind)
	switch item.Kind {
	case models.ItemKindSchema:
		item.Schema = &models.SchemaFragment{DDL: deref(ddl)}
	case models.ItemKindDocumentation:
		item.Documentation = &models.DocumentationEntry{Text: deref(documentation)}
	case models.ItemKindExemplar:
		item.Exemplar = &models.Exemplar{Question: deref(question), SQL: deref(sqlText)}
	}
	return &item, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
