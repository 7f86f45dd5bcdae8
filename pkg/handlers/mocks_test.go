package handlers

import (
	"context"

	"github.com/ekaya-inc/ekaya-analyst/pkg/models"
	"github.com/ekaya-inc/ekaya-analyst/pkg/services"
)

type mockQueryService struct {
	outcome *models.QueryOutcome
	err     error
	texts   []string
}

func (m *mockQueryService) Ask(_ context.Context, text string) (*models.QueryOutcome, error) {
	m.texts = append(m.texts, text)
	return m.outcome, m.err
}

type mockTrainingService struct {
	result *services.TrainResult
	err    error
	reqs   []services.TrainRequest
}

func (m *mockTrainingService) Train(_ context.Context, req services.TrainRequest) (*services.TrainResult, error) {
	m.reqs = append(m.reqs, req)
	return m.result, m.err
}

type mockAnalyticsService struct {
	stats      *models.DashboardStats
	err        error
	lastFilter models.InvoiceFilter
}

func (m *mockAnalyticsService) Stats(context.Context) (*models.DashboardStats, error) {
	return m.stats, m.err
}

func (m *mockAnalyticsService) InvoiceTrends(context.Context) ([]models.MonthlyTrend, error) {
	return []models.MonthlyTrend{{Month: "2025-01", Count: 2, Total: 300}}, m.err
}

func (m *mockAnalyticsService) TopVendors(context.Context) ([]models.VendorSpend, error) {
	return []models.VendorSpend{{ID: "v-1", Name: "Acme GmbH", TotalSpend: 300}}, m.err
}

func (m *mockAnalyticsService) CategorySpend(context.Context) ([]models.CategorySpend, error) {
	return []models.CategorySpend{}, m.err
}

func (m *mockAnalyticsService) CashOutflow(context.Context) ([]models.CashOutflow, error) {
	return []models.CashOutflow{}, m.err
}

func (m *mockAnalyticsService) ListInvoices(_ context.Context, filter models.InvoiceFilter) (*models.InvoicePage, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, m.err
	}
	return &models.InvoicePage{Data: []models.InvoiceSummary{}, Limit: filter.Limit, Offset: filter.Offset}, nil
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(context.Context) error {
	return m.err
}
