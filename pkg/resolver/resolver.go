// Package resolver turns a free-text question into one SQL statement.
package resolver

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-analyst/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-analyst/pkg/audit"
	"github.com/ekaya-inc/ekaya-analyst/pkg/logging"
	"github.com/ekaya-inc/ekaya-analyst/pkg/models"
	"github.com/ekaya-inc/ekaya-analyst/pkg/sql"
)

// Backend proposes SQL for a question given the training corpus.
type Backend interface {
	GenerateSQL(ctx context.Context, question string, snap models.CorpusSnapshot) (string, error)
}

// SnapshotSource provides the current training corpus.
type SnapshotSource interface {
	Snapshot() models.CorpusSnapshot
}

// Options configures a Resolver.
type Options struct {
	// BackendEnabled selects whether the backend is consulted before the rule table.
	BackendEnabled bool
	// BackendTimeout bounds each backend call.
	BackendTimeout time.Duration
	// Auditor records flagged questions and rejected backend SQL. Optional.
	Auditor *audit.SecurityAuditor
}

// Resolver prefers the backend's SQL when it is plausible and otherwise falls back
// to the rule table, which always resolves.
type Resolver struct {
	backend Backend // nil: rule-only
	corpus  SnapshotSource
	rules   *RuleTable
	opts    Options
	logger  *zap.Logger
}

// New creates a resolver. backend may be nil for rule-only operation.
func New(backend Backend, corpus SnapshotSource, rules *RuleTable, opts Options, logger *zap.Logger) *Resolver {
	if opts.BackendTimeout <= 0 {
		opts.BackendTimeout = 5 * time.Second
	}
	return &Resolver{
		backend: backend,
		corpus:  corpus,
		rules:   rules,
		opts:    opts,
		logger:  logger.Named("resolver"),
	}
}

// BackendEnabled reports whether the backend path is active.
func (r *Resolver) BackendEnabled() bool {
	return r.backend != nil && r.opts.BackendEnabled
}

// Resolve returns SQL for text. The only error is apperrors.ErrEmptyInput;
// backend failures degrade to the rule table.
func (r *Resolver) Resolve(ctx context.Context, text string) (*models.ResolvedQuery, error) {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return nil, apperrors.ErrEmptyInput
	}

	if r.BackendEnabled() {
		if resolved, ok := r.fromBackend(ctx, normalized); ok {
			return resolved, nil
		}
	}

	rule := r.rules.Match(normalized)
	r.logger.Debug("Resolved from rule table",
		zap.String("rule", rule.Name),
		zap.String("question", logging.TruncateString(normalized, logging.MaxQueryLogLength)))

	return &models.ResolvedQuery{
		SQL:    rule.SQL,
		Origin: models.OriginRuleTable,
		Rule:   rule.Name,
	}, nil
}

func (r *Resolver) fromBackend(ctx context.Context, normalized string) (*models.ResolvedQuery, bool) {
	if check := sql.CheckTextForInjection(normalized); check != nil {
		r.logger.Warn("Question looks like SQL injection, skipping backend",
			zap.String("fingerprint", check.Fingerprint))
		r.opts.Auditor.LogInjectionAttempt(ctx, audit.InjectionDetails{
			Question:    normalized,
			Fingerprint: check.Fingerprint,
		})
		return nil, false
	}

	ctx, cancel := context.WithTimeout(ctx, r.opts.BackendTimeout)
	defer cancel()

	start := time.Now()
	raw, err := r.backend.GenerateSQL(ctx, normalized, r.corpus.Snapshot())
	if err != nil {
		r.logger.Warn("Backend failed, falling back to rule table",
			zap.Duration("elapsed", time.Since(start)),
			zap.String("error", logging.SanitizeError(err)))
		return nil, false
	}

	statement, err := sql.IsPlausible(raw)
	if err != nil {
		r.logger.Warn("Backend SQL rejected, falling back to rule table",
			zap.String("sql", logging.SanitizeQuery(raw)),
			zap.Error(err))
		r.opts.Auditor.LogRejectedSQL(ctx, raw, err)
		return nil, false
	}

	r.logger.Debug("Resolved from backend",
		zap.String("sql", logging.SanitizeQuery(statement)),
		zap.Duration("elapsed", time.Since(start)))

	return &models.ResolvedQuery{SQL: statement, Origin: models.OriginBackend}, true
}
