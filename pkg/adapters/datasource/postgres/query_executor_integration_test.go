//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-analyst/pkg/testhelpers"
)

// setupQueryExecutorTest creates a QueryExecutor connected to the test container.
func setupQueryExecutorTest(t *testing.T, cfg Config) *QueryExecutor {
	t.Helper()

	testDB := testhelpers.GetTestDB(t)
	testDB.Truncate(t)

	ctx := context.Background()
	if _, err := testDB.DB.Exec(ctx, `
		INSERT INTO "Vendor" (id, name, "taxId") VALUES ('v-1', 'Acme GmbH', 'DE1'), ('v-2', 'Bolt AG', 'DE2')`); err != nil {
		t.Fatalf("failed to insert vendors: %v", err)
	}

	sqlDB := testDB.DB.SQL()
	t.Cleanup(func() { _ = sqlDB.Close() })

	return NewQueryExecutor(sqlDB, cfg, zap.NewNop())
}

func TestQueryExecutor_Integration_Select(t *testing.T) {
	executor := setupQueryExecutorTest(t, Config{})

	outcome := executor.Run(context.Background(), `SELECT name, 12.5::numeric AS amount FROM "Vendor" ORDER BY name`)

	if outcome.Error != nil {
		t.Fatalf("unexpected error: %s", *outcome.Error)
	}
	if len(outcome.Data) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(outcome.Data))
	}
	name, _ := outcome.Data[0].Get("name")
	if name != "Acme GmbH" {
		t.Errorf("expected Acme GmbH, got %v", name)
	}
	amount, _ := outcome.Data[0].Get("amount")
	if amount != 12.5 {
		t.Errorf("expected numeric normalized to 12.5, got %#v", amount)
	}
}

func TestQueryExecutor_Integration_ReadOnly(t *testing.T) {
	executor := setupQueryExecutorTest(t, Config{})

	outcome := executor.Run(context.Background(), `DELETE FROM "Vendor"`)

	if outcome.Error == nil {
		t.Fatal("expected write to fail inside a read-only transaction")
	}
	if len(outcome.Data) != 0 {
		t.Errorf("expected no rows, got %d", len(outcome.Data))
	}
}

func TestQueryExecutor_Integration_UnknownTable(t *testing.T) {
	executor := setupQueryExecutorTest(t, Config{})

	sqlText := `SELECT * FROM "Nope"`
	outcome := executor.Run(context.Background(), sqlText)

	if outcome.Error == nil {
		t.Fatal("expected error for unknown table")
	}
	if outcome.SQL != sqlText {
		t.Errorf("expected SQL to be echoed, got %q", outcome.SQL)
	}
}

func TestQueryExecutor_Integration_Timeout(t *testing.T) {
	executor := setupQueryExecutorTest(t, Config{QueryTimeout: 100 * time.Millisecond})

	start := time.Now()
	outcome := executor.Run(context.Background(), `SELECT pg_sleep(5)`)

	if outcome.Error == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > 3*time.Second {
		t.Errorf("query was not cancelled promptly: %v", time.Since(start))
	}
}
