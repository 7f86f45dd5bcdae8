package services

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ekaya-inc/ekaya-analyst/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-analyst/pkg/models"
	"github.com/ekaya-inc/ekaya-analyst/pkg/repositories"
)

// Invoice list paging bounds.
const (
	DefaultInvoiceLimit = 100
	MaxInvoiceLimit     = 1000
	TopVendorLimit      = 10
)

// AnalyticsService serves the dashboard aggregates.
type AnalyticsService interface {
	Stats(ctx context.Context) (*models.DashboardStats, error)
	InvoiceTrends(ctx context.Context) ([]models.MonthlyTrend, error)
	TopVendors(ctx context.Context) ([]models.VendorSpend, error)
	CategorySpend(ctx context.Context) ([]models.CategorySpend, error)
	CashOutflow(ctx context.Context) ([]models.CashOutflow, error)
	ListInvoices(ctx context.Context, filter models.InvoiceFilter) (*models.InvoicePage, error)
}

type analyticsService struct {
	repo   repositories.InvoiceRepository // nil when running without a database
	now    func() time.Time
	logger *zap.Logger
}

// NewAnalyticsService creates a new analytics service.
func NewAnalyticsService(repo repositories.InvoiceRepository, logger *zap.Logger) AnalyticsService {
	return &analyticsService{
		repo:   repo,
		now:    time.Now,
		logger: logger.Named("analytics"),
	}
}

var _ AnalyticsService = (*analyticsService)(nil)

// Stats reports this year's spend and invoice count, all documents, and the all-time average.
func (s *analyticsService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	if s.repo == nil {
		return nil, apperrors.ErrDatabaseUnavailable
	}

	now := s.now()
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())

	var stats models.DashboardStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats.TotalSpend, err = s.repo.TotalSpendSince(gctx, yearStart)
		return err
	})
	g.Go(func() error {
		var err error
		stats.TotalInvoices, err = s.repo.CountSince(gctx, yearStart)
		return err
	})
	g.Go(func() error {
		var err error
		stats.DocumentsUploaded, err = s.repo.CountDocuments(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.AverageInvoiceValue, err = s.repo.AverageInvoiceTotal(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to compute dashboard stats", zap.Error(err))
		return nil, err
	}
	return &stats, nil
}

func (s *analyticsService) InvoiceTrends(ctx context.Context) ([]models.MonthlyTrend, error) {
	if s.repo == nil {
		return nil, apperrors.ErrDatabaseUnavailable
	}
	return s.repo.MonthlyTrends(ctx)
}

func (s *analyticsService) TopVendors(ctx context.Context) ([]models.VendorSpend, error) {
	if s.repo == nil {
		return nil, apperrors.ErrDatabaseUnavailable
	}
	return s.repo.TopVendors(ctx, TopVendorLimit)
}

func (s *analyticsService) CategorySpend(ctx context.Context) ([]models.CategorySpend, error) {
	if s.repo == nil {
		return nil, apperrors.ErrDatabaseUnavailable
	}
	return s.repo.CategorySpend(ctx)
}

func (s *analyticsService) CashOutflow(ctx context.Context) ([]models.CashOutflow, error) {
	if s.repo == nil {
		return nil, apperrors.ErrDatabaseUnavailable
	}
	return s.repo.CashOutflow(ctx)
}

func (s *analyticsService) ListInvoices(ctx context.Context, filter models.InvoiceFilter) (*models.InvoicePage, error) {
	if s.repo == nil {
		return nil, apperrors.ErrDatabaseUnavailable
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultInvoiceLimit
	}
	if filter.Limit > MaxInvoiceLimit {
		filter.Limit = MaxInvoiceLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.ListInvoices(ctx, filter)
}
