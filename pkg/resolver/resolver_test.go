package resolver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ekaya-inc/ekaya-analyst/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-analyst/pkg/audit"
	"github.com/ekaya-inc/ekaya-analyst/pkg/models"
)

type mockBackend struct {
	mu        sync.Mutex
	sql       string
	err       error
	delay     time.Duration
	calls     int
	questions []string
	snapSize  int
}

func (m *mockBackend) GenerateSQL(ctx context.Context, question string, snap models.CorpusSnapshot) (string, error) {
	m.mu.Lock()
	m.calls++
	m.questions = append(m.questions, question)
	m.snapSize = snap.Size()
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return m.sql, m.err
}

type staticCorpus struct{ snap models.CorpusSnapshot }

func (s staticCorpus) Snapshot() models.CorpusSnapshot { return s.snap }

func newTestResolver(t *testing.T, backend Backend, enabled bool) *Resolver {
	t.Helper()
	corpus := staticCorpus{snap: models.CorpusSnapshot{
		Documentation: []models.DocumentationEntry{{Text: "Amounts are in EUR"}},
	}}
	return New(backend, corpus, mustDefaultTable(t), Options{
		BackendEnabled: enabled,
		BackendTimeout: 50 * time.Millisecond,
	}, zap.NewNop())
}

func TestResolve_EmptyInput(t *testing.T) {
	r := newTestResolver(t, nil, false)

	_, err := r.Resolve(context.Background(), "   ")
	assert.ErrorIs(t, err, apperrors.ErrEmptyInput)
}

func TestResolve_RuleOnly(t *testing.T) {
	r := newTestResolver(t, nil, true)
	assert.False(t, r.BackendEnabled())

	resolved, err := r.Resolve(context.Background(), "Show top 5 vendors by spend")

	require.NoError(t, err)
	assert.Equal(t, models.OriginRuleTable, resolved.Origin)
	assert.Equal(t, "top_vendors", resolved.Rule)
	assert.Contains(t, resolved.SQL, "ORDER BY total_spend DESC")
	assert.Contains(t, resolved.SQL, "LIMIT 10")
}

func TestResolve_BackendWinsWhenPlausible(t *testing.T) {
	backend := &mockBackend{sql: `SELECT v.name FROM "Vendor" v LIMIT 5;`}
	r := newTestResolver(t, backend, true)

	resolved, err := r.Resolve(context.Background(), "Which Supplier got the most money")

	require.NoError(t, err)
	assert.Equal(t, models.OriginBackend, resolved.Origin)
	assert.Equal(t, `SELECT v.name FROM "Vendor" v LIMIT 5`, resolved.SQL)
	assert.Empty(t, resolved.Rule)
	assert.Equal(t, []string{"which supplier got the most money"}, backend.questions, "backend receives case-folded text")
	assert.Equal(t, 1, backend.snapSize, "backend receives the corpus snapshot")
}

func TestResolve_DisablingBackendSelectsRulePath(t *testing.T) {
	backend := &mockBackend{sql: `SELECT 42`}
	r := newTestResolver(t, backend, false)

	resolved, err := r.Resolve(context.Background(), "total per vendor")

	require.NoError(t, err)
	assert.Equal(t, models.OriginRuleTable, resolved.Origin)
	assert.Equal(t, "vendor_totals", resolved.Rule)
	assert.Equal(t, 0, backend.calls)
}

func TestResolve_FallsBackToRules(t *testing.T) {
	tests := []struct {
		name    string
		backend *mockBackend
	}{
		{"backend error", &mockBackend{err: errors.New("dial tcp: connection refused")}},
		{"write statement", &mockBackend{sql: `DELETE FROM "Invoice"`}},
		{"two statements", &mockBackend{sql: `SELECT 1; DROP TABLE "Invoice"`}},
		{"prose", &mockBackend{sql: "Sorry, I cannot help with that."}},
		{"empty", &mockBackend{sql: ""}},
		{"timeout", &mockBackend{sql: "SELECT 1", delay: time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResolver(t, tt.backend, true)

			resolved, err := r.Resolve(context.Background(), "spend by category")

			require.NoError(t, err)
			assert.Equal(t, models.OriginRuleTable, resolved.Origin)
			assert.Equal(t, "category_spend", resolved.Rule)
			assert.Equal(t, 1, tt.backend.calls)
		})
	}
}

func TestResolve_InjectionSkipsBackend(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	backend := &mockBackend{sql: "SELECT 1"}
	r := New(backend, staticCorpus{}, mustDefaultTable(t), Options{BackendEnabled: true}, zap.New(core))

	resolved, err := r.Resolve(context.Background(), "' OR '1'='1")

	require.NoError(t, err)
	assert.Equal(t, DefaultRuleName, resolved.Rule)
	assert.Equal(t, 0, backend.calls)
	assert.Equal(t, 1, logs.FilterMessage("Question looks like SQL injection, skipping backend").Len())
}

func TestResolve_ConcurrentCallsAgree(t *testing.T) {
	r := newTestResolver(t, nil, false)

	var wg sync.WaitGroup
	results := make([]string, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resolved, err := r.Resolve(context.Background(), "monthly spend")
			if err == nil {
				results[i] = resolved.Rule
			}
		}(i)
	}
	wg.Wait()

	for _, name := range results {
		assert.Equal(t, "monthly_trend", name)
	}
}

func TestResolve_AuditsFlaggedQuestionsAndRejectedSQL(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(core)
	opts := Options{BackendEnabled: true, Auditor: audit.NewSecurityAuditor(logger)}

	flagged := New(&mockBackend{sql: "SELECT 1"}, staticCorpus{}, mustDefaultTable(t), opts, logger)
	_, err := flagged.Resolve(context.Background(), "' OR '1'='1")
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("SQL injection attempt detected").Len())

	rejecting := New(&mockBackend{sql: `DELETE FROM "Invoice"`}, staticCorpus{}, mustDefaultTable(t), opts, logger)
	resolved, err := rejecting.Resolve(context.Background(), "total spend")
	require.NoError(t, err)
	assert.Equal(t, models.OriginRuleTable, resolved.Origin)
	assert.Equal(t, 1, logs.FilterMessage("Generated SQL rejected").Len())
}
