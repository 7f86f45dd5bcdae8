package services

import (
	"context"
	"sync"
	"time"

	"github.com/ekaya-inc/ekaya-analyst/pkg/models"
)

type mockResolver struct {
	resolved *models.ResolvedQuery
	err      error
	texts    []string
}

func (m *mockResolver) Resolve(_ context.Context, text string) (*models.ResolvedQuery, error) {
	m.texts = append(m.texts, text)
	return m.resolved, m.err
}

type mockExecutor struct {
	outcome *models.QueryOutcome
	queries []string
}

func (m *mockExecutor) Run(_ context.Context, sqlQuery string) *models.QueryOutcome {
	m.queries = append(m.queries, sqlQuery)
	return m.outcome
}

type mockKnowledgeWriter struct {
	schemaErr, docErr, exemplarErr error

	schemas   []string
	docs      []string
	exemplars [][2]string
}

func (m *mockKnowledgeWriter) AddSchema(_ context.Context, ddl string) error {
	m.schemas = append(m.schemas, ddl)
	return m.schemaErr
}

func (m *mockKnowledgeWriter) AddDocumentation(_ context.Context, text string) error {
	m.docs = append(m.docs, text)
	return m.docErr
}

func (m *mockKnowledgeWriter) AddExemplar(_ context.Context, question, sql string) error {
	m.exemplars = append(m.exemplars, [2]string{question, sql})
	return m.exemplarErr
}

type mockInvoiceRepository struct {
	mu sync.Mutex

	totalSpend float64
	count      int64
	documents  int64
	average    float64
	countErr   error

	since      []time.Time
	topLimit   int
	lastFilter models.InvoiceFilter
}

func (m *mockInvoiceRepository) TotalSpendSince(_ context.Context, since time.Time) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.since = append(m.since, since)
	return m.totalSpend, nil
}

func (m *mockInvoiceRepository) CountSince(_ context.Context, since time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.since = append(m.since, since)
	return m.count, m.countErr
}

func (m *mockInvoiceRepository) CountDocuments(context.Context) (int64, error) {
	return m.documents, nil
}

func (m *mockInvoiceRepository) AverageInvoiceTotal(context.Context) (float64, error) {
	return m.average, nil
}

func (m *mockInvoiceRepository) MonthlyTrends(context.Context) ([]models.MonthlyTrend, error) {
	return []models.MonthlyTrend{{Month: "2025-01", Count: 1, Total: 10}}, nil
}

func (m *mockInvoiceRepository) TopVendors(_ context.Context, limit int) ([]models.VendorSpend, error) {
	m.topLimit = limit
	return []models.VendorSpend{}, nil
}

func (m *mockInvoiceRepository) CategorySpend(context.Context) ([]models.CategorySpend, error) {
	return []models.CategorySpend{}, nil
}

func (m *mockInvoiceRepository) CashOutflow(context.Context) ([]models.CashOutflow, error) {
	return []models.CashOutflow{}, nil
}

func (m *mockInvoiceRepository) ListInvoices(_ context.Context, filter models.InvoiceFilter) (*models.InvoicePage, error) {
	m.lastFilter = filter
	return &models.InvoicePage{Data: []models.InvoiceSummary{}, Limit: filter.Limit, Offset: filter.Offset}, nil
}
