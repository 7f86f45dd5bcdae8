package catalog

import (
	"fmt"

	"github.com/jinzhu/inflection"

	"github.com/ekaya-inc/ekaya-analyst/pkg/knowledge"
	"github.com/ekaya-inc/ekaya-analyst/pkg/models"
)

// conventions describe units, signs and enumerations that the DDL alone does not carry.
var conventions = []string{
	`The "Invoice" table contains all invoice records with amounts in EUR currency`,
	`"invoiceTotal" represents the final amount including tax`,
	`"subTotal" is the amount before tax`,
	`Negative values in "invoiceTotal" indicate credits or refunds`,
	`Use ABS() function to get absolute values when calculating spend`,
	`The status field can be 'processed', 'pending', or 'rejected'`,
	`"invoiceDate" is when the invoice was issued`,
	`"dueDate" is when payment is expected`,
	`Vendors are companies that provide goods or services`,
	`"LineItem" contains individual products/services on an invoice`,
	`category in "LineItem" groups items (Services, Materials, Shipping, Utilities, Office Supplies, General)`,
	`Table and column names are camelCase and must be double-quoted, e.g. "Invoice"."invoiceTotal"`,
}

// Documentation returns the seed documentation: fixed conventions followed by
// one join hint per foreign key in the catalog.
func Documentation() []string {
	docs := make([]string, 0, len(conventions)+len(ForeignKeys()))
	docs = append(docs, conventions...)
	for _, fk := range ForeignKeys() {
		docs = append(docs, JoinHint(fk))
	}
	return docs
}

// JoinHint describes how to join along a foreign key and its cardinality.
func JoinHint(fk ForeignKey) string {
	return fmt.Sprintf("Join %s with %s on %s.%s = %s.%s; one %s has many %s",
		QuoteIdent(fk.Table), QuoteIdent(fk.ReferencedTable),
		QuoteIdent(fk.Table), QuoteIdent(fk.Column),
		QuoteIdent(fk.ReferencedTable), QuoteIdent(fk.ReferencedColumn),
		fk.ReferencedTable, inflection.Plural(fk.Table))
}

// Exemplars returns the seed question/SQL pairs.
func Exemplars() []models.Exemplar {
	return []models.Exemplar{
		{
			Question: "What is the total spend?",
			SQL:      `SELECT ABS(SUM("invoiceTotal")) AS total_spend FROM "Invoice"`,
		},
		{
			Question: "Show top 5 vendors by spend",
			SQL: `SELECT v.name, ABS(SUM(i."invoiceTotal")) AS total_spend
FROM "Vendor" v
JOIN "Invoice" i ON v.id = i."vendorId"
GROUP BY v.name
ORDER BY total_spend DESC
LIMIT 5`,
		},
		{
			Question: "What's the spend by category?",
			SQL: `SELECT li.category, ABS(SUM(li."totalPrice")) AS total
FROM "LineItem" li
GROUP BY li.category
ORDER BY total DESC`,
		},
	}
}

// DDL returns the CREATE TABLE statement of every catalog table.
func DDL() []string {
	tables := Tables()
	ddl := make([]string, len(tables))
	for i, t := range tables {
		ddl[i] = t.DDL()
	}
	return ddl
}

// Seed is the fixed training set loaded at startup.
func Seed() knowledge.Seed {
	return knowledge.Seed{
		Schemas:       DDL(),
		Documentation: Documentation(),
		Exemplars:     Exemplars(),
	}
}
