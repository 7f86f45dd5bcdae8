package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/ekaya-inc/ekaya-analyst/pkg/models"
)

// InvoiceRepository answers the dashboard's aggregate queries.
// Amounts are reported as absolute values; credit notes count as spend.
type InvoiceRepository interface {
	TotalSpendSince(ctx context.Context, since time.Time) (float64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	CountDocuments(ctx context.Context) (int64, error)
	AverageInvoiceTotal(ctx context.Context) (float64, error)
	MonthlyTrends(ctx context.Context) ([]models.MonthlyTrend, error)
	TopVendors(ctx context.Context, limit int) ([]models.VendorSpend, error)
	CategorySpend(ctx context.Context) ([]models.CategorySpend, error)
	CashOutflow(ctx context.Context) ([]models.CashOutflow, error)
	ListInvoices(ctx context.Context, filter models.InvoiceFilter) (*models.InvoicePage, error)
}

type invoiceRepository struct {
	db Querier
}

// NewInvoiceRepository creates a new InvoiceRepository.
func NewInvoiceRepository(db Querier) InvoiceRepository {
	return &invoiceRepository{db: db}
}

var _ InvoiceRepository = (*invoiceRepository)(nil)

// Invoice statuses that still lead to a payment.
var outstandingStatuses = []string{"processed", "pending"}

func (r *invoiceRepository) TotalSpendSince(ctx context.Context, since time.Time) (float64, error) {
	var total float64
	err := r.db.QueryRow(ctx, `
		SELECT ABS(COALESCE(SUM("invoiceTotal"), 0))::float8
		FROM "Invoice"
		WHERE "invoiceDate" >= $1`, since).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum invoice totals: %w", err)
	}
	return total, nil
}

func (r *invoiceRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM "Invoice" WHERE "invoiceDate" >= $1`, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count invoices: %w", err)
	}
	return n, nil
}

func (r *invoiceRepository) CountDocuments(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM "Document"`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

func (r *invoiceRepository) AverageInvoiceTotal(ctx context.Context) (float64, error) {
	var avg float64
	err := r.db.QueryRow(ctx, `SELECT ABS(COALESCE(AVG("invoiceTotal"), 0))::float8 FROM "Invoice"`).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("failed to average invoice totals: %w", err)
	}
	return avg, nil
}

func (r *invoiceRepository) MonthlyTrends(ctx context.Context) ([]models.MonthlyTrend, error) {
	query := `
		SELECT TO_CHAR(DATE_TRUNC('month', "invoiceDate"), 'YYYY-MM') AS month,
		       COUNT(*) AS count,
		       SUM(ABS("invoiceTotal"))::float8 AS total
		FROM "Invoice"
		GROUP BY 1
		ORDER BY 1`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get monthly trends: %w", err)
	}
	defer rows.Close()

	trends := make([]models.MonthlyTrend, 0)
	for rows.Next() {
		var t models.MonthlyTrend
		if err := rows.Scan(&t.Month, &t.Count, &t.Total); err != nil {
			return nil, fmt.Errorf("failed to scan monthly trend: %w", err)
		}
		trends = append(trends, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monthly trends: %w", err)
	}

	return trends, nil
}

func (r *invoiceRepository) TopVendors(ctx context.Context, limit int) ([]models.VendorSpend, error) {
	query := `
		SELECT v.id, v.name, COALESCE(SUM(ABS(i."invoiceTotal")), 0)::float8 AS total_spend
		FROM "Vendor" v
		LEFT JOIN "Invoice" i ON i."vendorId" = v.id
		GROUP BY v.id, v.name
		ORDER BY total_spend DESC, v.name
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top vendors: %w", err)
	}
	defer rows.Close()

	vendors := make([]models.VendorSpend, 0)
	for rows.Next() {
		var v models.VendorSpend
		if err := rows.Scan(&v.ID, &v.Name, &v.TotalSpend); err != nil {
			return nil, fmt.Errorf("failed to scan vendor spend: %w", err)
		}
		vendors = append(vendors, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vendors: %w", err)
	}

	return vendors, nil
}

func (r *invoiceRepository) CategorySpend(ctx context.Context) ([]models.CategorySpend, error) {
	query := `
		SELECT category, SUM(ABS("totalPrice"))::float8 AS total
		FROM "LineItem"
		GROUP BY category
		ORDER BY total DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get category spend: %w", err)
	}
	defer rows.Close()

	spend := make([]models.CategorySpend, 0)
	for rows.Next() {
		var c models.CategorySpend
		if err := rows.Scan(&c.Category, &c.Total); err != nil {
			return nil, fmt.Errorf("failed to scan category spend: %w", err)
		}
		spend = append(spend, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return spend, nil
}

func (r *invoiceRepository) CashOutflow(ctx context.Context) ([]models.CashOutflow, error) {
	query := `
		SELECT TO_CHAR(COALESCE("dueDate", "invoiceDate") AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day,
		       SUM(ABS("invoiceTotal"))::float8 AS amount
		FROM "Invoice"
		WHERE status = ANY($1)
		GROUP BY 1
		ORDER BY 1`

	rows, err := r.db.Query(ctx, query, outstandingStatuses)
	if err != nil {
		return nil, fmt.Errorf("failed to get cash outflow: %w", err)
	}
	defer rows.Close()

	outflow := make([]models.CashOutflow, 0)
	for rows.Next() {
		var o models.CashOutflow
		if err := rows.Scan(&o.Date, &o.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan cash outflow: %w", err)
		}
		outflow = append(outflow, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cash outflow: %w", err)
	}

	return outflow, nil
}

func (r *invoiceRepository) ListInvoices(ctx context.Context, filter models.InvoiceFilter) (*models.InvoicePage, error) {
	where := `
		WHERE ($1 = '' OR i."invoiceNumber" ILIKE '%' || $1 || '%' OR v.name ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR i.status = $2)`

	var total int64
	countQuery := `SELECT COUNT(*) FROM "Invoice" i JOIN "Vendor" v ON i."vendorId" = v.id` + where
	if err := r.db.QueryRow(ctx, countQuery, filter.Search, filter.Status).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count invoices: %w", err)
	}

	listQuery := `
		SELECT i.id, i."invoiceNumber", i."invoiceDate", v.name, ABS(i."invoiceTotal")::float8, i.status, i."dueDate"
		FROM "Invoice" i
		JOIN "Vendor" v ON i."vendorId" = v.id` + where + `
		ORDER BY i."invoiceDate" DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.db.Query(ctx, listQuery, filter.Search, filter.Status, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	page := &models.InvoicePage{
		Data:   make([]models.InvoiceSummary, 0),
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	for rows.Next() {
		var s models.InvoiceSummary
		if err := rows.Scan(&s.ID, &s.InvoiceNumber, &s.InvoiceDate, &s.VendorName, &s.Amount, &s.Status, &s.DueDate); err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		page.Data = append(page.Data, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoices: %w", err)
	}

	return page, nil
}
