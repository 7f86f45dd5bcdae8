//go:build integration

package seeding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-analyst/pkg/testhelpers"
)

func TestImporter_Import(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	testDB.Truncate(t)
	ctx := context.Background()

	docs, err := ReadExportFile("testdata/export.json")
	require.NoError(t, err)

	importer := NewImporter(testDB.DB, zap.NewNop())
	summary, err := importer.Import(ctx, docs, Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, Counts{Documents: 3, Invoices: 2, Vendors: 1, Customers: 1, LineItems: 3}, summary.Counts,
		"vendor and customer are shared between both invoices")

	var category string
	var total float64
	err = testDB.DB.QueryRow(ctx,
		`SELECT category, "totalPrice" FROM "LineItem" WHERE "srNo" = 2`).Scan(&category, &total)
	require.NoError(t, err)
	assert.Equal(t, "Materials", category)
	assert.Equal(t, 200.0, total)

	var netDays int
	err = testDB.DB.QueryRow(ctx, `
		SELECT p."netDays" FROM "Payment" p
		JOIN "Invoice" i ON p."invoiceId" = i.id
		WHERE i."invoiceNumber" = 'RE-1001'`).Scan(&netDays)
	require.NoError(t, err)
	assert.Equal(t, 30, netDays)
}

func TestImporter_FailedDocumentIsRolledBack(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	testDB.Truncate(t)
	ctx := context.Background()

	docs, err := ReadExportFile("testdata/export.json")
	require.NoError(t, err)

	importer := NewImporter(testDB.DB, zap.NewNop())
	_, err = importer.Import(ctx, docs[:1], Options{})
	require.NoError(t, err)

	// Importing the same document again violates the Document primary key.
	summary, err := importer.Import(ctx, docs[:2], Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, int64(2), summary.Counts.Documents)
	assert.Equal(t, int64(2), summary.Counts.Invoices)
}

func TestImporter_Reset(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	testDB.Truncate(t)
	ctx := context.Background()

	docs, err := ReadExportFile("testdata/export.json")
	require.NoError(t, err)

	importer := NewImporter(testDB.DB, zap.NewNop())
	_, err = importer.Import(ctx, docs, Options{})
	require.NoError(t, err)

	summary, err := importer.Import(ctx, docs, Options{Reset: true})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, int64(3), summary.Counts.Documents)
}
