// Package catalog describes the invoicing schema the service answers questions about.
// The tables mirror migrations/000001_invoicing_schema and are read-only at runtime.
package catalog

import (
	"fmt"
	"strings"
	"unicode"
)

// Reference points a column at the primary key of another table.
type Reference struct {
	Table  string
	Column string
}

// Column is one column of a catalog table.
type Column struct {
	Name       string
	Type       string
	PrimaryKey bool
	NotNull    bool
	Unique     bool
	References *Reference
}

// Table is one relational entity of the invoicing schema.
type Table struct {
	Name    string
	Columns []Column
	// UniqueTogether lists composite unique constraints.
	UniqueTogether [][]string
}

// ForeignKey is a resolved relationship between two tables.
type ForeignKey struct {
	Table            string
	Column           string
	ReferencedTable  string
	ReferencedColumn string
}

func ref(table string) *Reference {
	return &Reference{Table: table, Column: "id"}
}

// Tables returns the six entities in dependency order (referenced tables first).
func Tables() []Table {
	return []Table{
		{
			Name: "Document",
			Columns: []Column{
				{Name: "id", Type: "TEXT", PrimaryKey: true},
				{Name: "name", Type: "TEXT", NotNull: true},
				{Name: "filePath", Type: "TEXT"},
				{Name: "fileSize", Type: "BIGINT"},
				{Name: "fileType", Type: "TEXT"},
				{Name: "status", Type: "TEXT"},
				{Name: "organizationId", Type: "TEXT"},
				{Name: "departmentId", Type: "TEXT"},
				{Name: "uploadedById", Type: "TEXT"},
				{Name: "createdAt", Type: "TIMESTAMPTZ", NotNull: true},
				{Name: "updatedAt", Type: "TIMESTAMPTZ", NotNull: true},
			},
		},
		{
			Name: "Vendor",
			Columns: []Column{
				{Name: "id", Type: "TEXT", PrimaryKey: true},
				{Name: "name", Type: "TEXT", NotNull: true},
				{Name: "partyNumber", Type: "TEXT"},
				{Name: "taxId", Type: "TEXT", NotNull: true},
				{Name: "address", Type: "TEXT"},
			},
			UniqueTogether: [][]string{{"name", "taxId"}},
		},
		{
			Name: "Customer",
			Columns: []Column{
				{Name: "id", Type: "TEXT", PrimaryKey: true},
				{Name: "name", Type: "TEXT", NotNull: true},
				{Name: "address", Type: "TEXT"},
			},
		},
		{
			Name: "Invoice",
			Columns: []Column{
				{Name: "id", Type: "TEXT", PrimaryKey: true},
				{Name: "documentId", Type: "TEXT", NotNull: true, References: ref("Document")},
				{Name: "vendorId", Type: "TEXT", NotNull: true, References: ref("Vendor")},
				{Name: "customerId", Type: "TEXT", NotNull: true, References: ref("Customer")},
				{Name: "invoiceNumber", Type: "TEXT", NotNull: true},
				{Name: "invoiceDate", Type: "TIMESTAMPTZ", NotNull: true},
				{Name: "deliveryDate", Type: "TIMESTAMPTZ"},
				{Name: "dueDate", Type: "TIMESTAMPTZ"},
				{Name: "subTotal", Type: "DOUBLE PRECISION", NotNull: true},
				{Name: "totalTax", Type: "DOUBLE PRECISION", NotNull: true},
				{Name: "invoiceTotal", Type: "DOUBLE PRECISION", NotNull: true},
				{Name: "currencySymbol", Type: "TEXT", NotNull: true},
				{Name: "status", Type: "TEXT", NotNull: true},
			},
		},
		{
			Name: "LineItem",
			Columns: []Column{
				{Name: "id", Type: "TEXT", PrimaryKey: true},
				{Name: "invoiceId", Type: "TEXT", NotNull: true, References: ref("Invoice")},
				{Name: "srNo", Type: "INTEGER", NotNull: true},
				{Name: "description", Type: "TEXT", NotNull: true},
				{Name: "quantity", Type: "DOUBLE PRECISION", NotNull: true},
				{Name: "unitPrice", Type: "DOUBLE PRECISION", NotNull: true},
				{Name: "totalPrice", Type: "DOUBLE PRECISION", NotNull: true},
				{Name: "sachkonto", Type: "TEXT"},
				{Name: "buSchluessel", Type: "TEXT"},
				{Name: "category", Type: "TEXT", NotNull: true},
			},
		},
		{
			Name: "Payment",
			Columns: []Column{
				{Name: "id", Type: "TEXT", PrimaryKey: true},
				{Name: "invoiceId", Type: "TEXT", NotNull: true, Unique: true, References: ref("Invoice")},
				{Name: "bankAccountNumber", Type: "TEXT"},
				{Name: "bic", Type: "TEXT"},
				{Name: "accountName", Type: "TEXT"},
				{Name: "paymentTerms", Type: "TEXT"},
				{Name: "netDays", Type: "INTEGER", NotNull: true},
				{Name: "discountPercentage", Type: "DOUBLE PRECISION"},
				{Name: "discountDays", Type: "INTEGER", NotNull: true},
				{Name: "discountDueDate", Type: "TIMESTAMPTZ"},
				{Name: "discountedTotal", Type: "DOUBLE PRECISION"},
			},
		},
	}
}

// Lookup returns the table with the given name.
func Lookup(name string) (Table, bool) {
	for _, t := range Tables() {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// ForeignKeys returns every relationship in the catalog, in table order.
func ForeignKeys() []ForeignKey {
	var fks []ForeignKey
	for _, t := range Tables() {
		fks = append(fks, t.ForeignKeys()...)
	}
	return fks
}

// ForeignKeys returns the relationships declared by this table.
func (t Table) ForeignKeys() []ForeignKey {
	var fks []ForeignKey
	for _, c := range t.Columns {
		if c.References == nil {
			continue
		}
		fks = append(fks, ForeignKey{
			Table:            t.Name,
			Column:           c.Name,
			ReferencedTable:  c.References.Table,
			ReferencedColumn: c.References.Column,
		})
	}
	return fks
}

// DDL renders the table as a PostgreSQL CREATE TABLE statement.
func (t Table) DDL() string {
	var lines []string
	for _, c := range t.Columns {
		line := fmt.Sprintf("    %s %s", QuoteIdent(c.Name), c.Type)
		if c.PrimaryKey {
			line += " PRIMARY KEY"
		}
		if c.NotNull && !c.PrimaryKey {
			line += " NOT NULL"
		}
		if c.Unique {
			line += " UNIQUE"
		}
		if c.References != nil {
			line += fmt.Sprintf(" REFERENCES %s(%s)", QuoteIdent(c.References.Table), QuoteIdent(c.References.Column))
		}
		lines = append(lines, line)
	}
	for _, cols := range t.UniqueTogether {
		quoted := make([]string, len(cols))
		for i, c := range cols {
			quoted[i] = QuoteIdent(c)
		}
		lines = append(lines, fmt.Sprintf("    UNIQUE (%s)", strings.Join(quoted, ", ")))
	}
	return fmt.Sprintf("CREATE TABLE %s (\n%s\n);", QuoteIdent(t.Name), strings.Join(lines, ",\n"))
}

// QuoteIdent double-quotes identifiers that PostgreSQL would otherwise fold to lower case.
func QuoteIdent(name string) string {
	for _, r := range name {
		if unicode.IsUpper(r) {
			return `"` + name + `"`
		}
	}
	return name
}
