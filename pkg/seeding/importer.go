package seeding

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-analyst/pkg/logging"
)

// DB is the subset of *pgxpool.Pool the importer needs.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Options control an import run.
type Options struct {
	// Reset truncates the invoicing tables before importing.
	Reset bool
}

// Counts are the row counts of the invoicing tables after an import.
type Counts struct {
	Documents int64 `json:"documents"`
	Invoices  int64 `json:"invoices"`
	Vendors   int64 `json:"vendors"`
	Customers int64 `json:"customers"`
	LineItems int64 `json:"line_items"`
}

// Summary reports an import run. Failed documents are rolled back individually.
type Summary struct {
	Processed int    `json:"processed"`
	Skipped   int    `json:"skipped"` // documents without extracted data
	Failed    int    `json:"failed"`
	Counts    Counts `json:"counts"`
}

// Importer writes export documents into the invoicing schema.
type Importer struct {
	db     DB
	logger *zap.Logger
}

// NewImporter creates an importer over db.
func NewImporter(db DB, logger *zap.Logger) *Importer {
	return &Importer{db: db, logger: logger.Named("seeding")}
}

// Import writes each document in its own transaction. A failing document is
// logged and counted; it does not stop the run.
func (im *Importer) Import(ctx context.Context, docs []ExportDocument, opts Options) (*Summary, error) {
	if opts.Reset {
		if err := im.reset(ctx); err != nil {
			return nil, err
		}
	}

	summary := &Summary{}
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		imported, err := im.importDocument(ctx, doc)
		switch {
		case err != nil:
			summary.Failed++
			im.logger.Warn("Failed to import document",
				zap.String("document_id", doc.ID),
				zap.String("error", logging.SanitizeError(err)))
		case !imported:
			summary.Skipped++
		default:
			summary.Processed++
			if summary.Processed%10 == 0 {
				im.logger.Info("Import progress",
					zap.Int("processed", summary.Processed),
					zap.Int("total", len(docs)))
			}
		}
	}

	counts, err := im.counts(ctx)
	if err != nil {
		return summary, err
	}
	summary.Counts = *counts

	im.logger.Info("Import completed",
		zap.Int("processed", summary.Processed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Int64("invoices", counts.Invoices),
		zap.Int64("vendors", counts.Vendors))

	return summary, nil
}

func (im *Importer) reset(ctx context.Context) error {
	_, err := im.db.Exec(ctx,
		`TRUNCATE "LineItem", "Payment", "Invoice", "Customer", "Vendor", "Document"`)
	if err != nil {
		return fmt.Errorf("failed to clear invoicing tables: %w", err)
	}
	im.logger.Info("Cleared invoicing tables")
	return nil
}

// importDocument reports false when the document carried no extracted invoice.
func (im *Importer) importDocument(ctx context.Context, doc ExportDocument) (imported bool, err error) {
	rec, err := MapDocument(doc)
	if err != nil {
		return false, err
	}

	tx, err := im.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = insertDocument(ctx, tx, &rec.Document); err != nil {
		return false, err
	}

	if rec.Invoice != nil {
		if err = insertInvoice(ctx, tx, rec); err != nil {
			return false, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit document %s: %w", doc.ID, err)
	}
	return rec.Invoice != nil, nil
}

func insertDocument(ctx context.Context, tx pgx.Tx, d *DocumentRecord) error {
	query := `
		INSERT INTO "Document" (id, name, "filePath", "fileSize", "fileType", status,
		                        "organizationId", "departmentId", "uploadedById", "createdAt", "updatedAt")
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := tx.Exec(ctx, query,
		d.ID, d.Name, d.FilePath, d.FileSize, d.FileType, d.Status,
		d.OrganizationID, d.DepartmentID, d.UploadedByID, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

func insertInvoice(ctx context.Context, tx pgx.Tx, rec *Records) error {
	vendorID, err := upsertVendor(ctx, tx, &rec.Vendor)
	if err != nil {
		return err
	}
	customerID, err := findOrCreateCustomer(ctx, tx, &rec.Customer)
	if err != nil {
		return err
	}

	inv := rec.Invoice
	invoiceID := uuid.NewString()
	_, err = tx.Exec(ctx, `
		INSERT INTO "Invoice" (id, "documentId", "vendorId", "customerId", "invoiceNumber", "invoiceDate",
		                       "deliveryDate", "dueDate", "subTotal", "totalTax", "invoiceTotal",
		                       "currencySymbol", status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		invoiceID, rec.Document.ID, vendorID, customerID, inv.InvoiceNumber, inv.InvoiceDate,
		inv.DeliveryDate, inv.DueDate, inv.SubTotal, inv.TotalTax, inv.InvoiceTotal,
		inv.CurrencySymbol, inv.Status)
	if err != nil {
		return fmt.Errorf("failed to insert invoice: %w", err)
	}

	if p := rec.Payment; p != nil {
		_, err = tx.Exec(ctx, `
			INSERT INTO "Payment" (id, "invoiceId", "bankAccountNumber", bic, "accountName", "paymentTerms",
			                       "netDays", "discountPercentage", "discountDays", "discountDueDate", "discountedTotal")
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			uuid.NewString(), invoiceID, p.BankAccountNumber, p.BIC, p.AccountName, p.PaymentTerms,
			p.NetDays, p.DiscountPercentage, p.DiscountDays, p.DiscountDueDate, p.DiscountedTotal)
		if err != nil {
			return fmt.Errorf("failed to insert payment: %w", err)
		}
	}

	for _, item := range rec.LineItems {
		_, err = tx.Exec(ctx, `
			INSERT INTO "LineItem" (id, "invoiceId", "srNo", description, quantity, "unitPrice",
			                        "totalPrice", sachkonto, "buSchluessel", category)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			uuid.NewString(), invoiceID, item.SrNo, item.Description, item.Quantity, item.UnitPrice,
			item.TotalPrice, item.Sachkonto, item.BUSchluessel, item.Category)
		if err != nil {
			return fmt.Errorf("failed to insert line item %d: %w", item.SrNo, err)
		}
	}

	return nil
}

// upsertVendor returns the id of the vendor with the same (name, taxId), creating it
// if needed. Existing vendors are not updated.
func upsertVendor(ctx context.Context, tx pgx.Tx, v *VendorRecord) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		INSERT INTO "Vendor" (id, name, "partyNumber", "taxId", address)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name, "taxId") DO UPDATE SET name = EXCLUDED.name
		RETURNING id`,
		uuid.NewString(), v.Name, v.PartyNumber, v.TaxID, v.Address).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to upsert vendor: %w", err)
	}
	return id, nil
}

func findOrCreateCustomer(ctx context.Context, tx pgx.Tx, c *CustomerRecord) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `SELECT id FROM "Customer" WHERE name = $1 ORDER BY id LIMIT 1`, c.Name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("failed to look up customer: %w", err)
	}

	id = uuid.NewString()
	if _, err := tx.Exec(ctx, `INSERT INTO "Customer" (id, name, address) VALUES ($1, $2, $3)`,
		id, c.Name, c.Address); err != nil {
		return "", fmt.Errorf("failed to insert customer: %w", err)
	}
	return id, nil
}

func (im *Importer) counts(ctx context.Context) (*Counts, error) {
	var c Counts
	err := im.db.QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM "Document"),
		       (SELECT COUNT(*) FROM "Invoice"),
		       (SELECT COUNT(*) FROM "Vendor"),
		       (SELECT COUNT(*) FROM "Customer"),
		       (SELECT COUNT(*) FROM "LineItem")`).
		Scan(&c.Documents, &c.Invoices, &c.Vendors, &c.Customers, &c.LineItems)
	if err != nil {
		return nil, fmt.Errorf("failed to count imported rows: %w", err)
	}
	return &c, nil
}
