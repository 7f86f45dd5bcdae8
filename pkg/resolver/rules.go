package resolver

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// IntentRule pairs a CEL predicate over the lowercased question (variable `text`)
// with the SQL template it selects.
type IntentRule struct {
	Name       string `yaml:"name"`
	Expression string `yaml:"expression"`
	SQL        string `yaml:"sql"`
}

// DefaultRuleName is the always-true rule that closes the built-in table.
const DefaultRuleName = "recent_invoices"

// DefaultRules returns the built-in table in priority order. The last rule is always true.
func DefaultRules() []IntentRule {
	return []IntentRule{
		{
			Name:       "vendor_totals",
			Expression: `text.contains("total") && text.contains("vendor")`,
			SQL: `SELECT v.name AS vendor, COUNT(i.id) AS total_invoices,
       SUM(i."invoiceTotal") AS total_amount
FROM "Invoice" i
JOIN "Vendor" v ON i."vendorId" = v.id
GROUP BY v.name
ORDER BY total_amount DESC`,
		},
		{
			Name:       "top_vendors",
			Expression: `text.contains("top") && (text.contains("vendor") || text.contains("supplier"))`,
			SQL: `SELECT v.name AS vendor, SUM(i."invoiceTotal") AS total_spend
FROM "Invoice" i
JOIN "Vendor" v ON i."vendorId" = v.id
GROUP BY v.name
ORDER BY total_spend DESC
LIMIT 10`,
		},
		{
			Name:       "largest_invoices",
			Expression: `text.contains("expensive") || text.contains("highest") || text.contains("largest")`,
			SQL: `SELECT i."invoiceNumber", v.name AS vendor,
       i."invoiceTotal", i."invoiceDate"
FROM "Invoice" i
JOIN "Vendor" v ON i."vendorId" = v.id
ORDER BY i."invoiceTotal" DESC
LIMIT 10`,
		},
		{
			Name:       "category_spend",
			Expression: `text.contains("category") || text.contains("categories")`,
			SQL: `SELECT li.category, COUNT(*) AS count,
       SUM(li."totalPrice") AS total_amount
FROM "LineItem" li
GROUP BY li.category
ORDER BY total_amount DESC`,
		},
		{
			Name:       "monthly_trend",
			Expression: `text.contains("month") || text.contains("monthly")`,
			SQL: `SELECT DATE_TRUNC('month', i."invoiceDate") AS month,
       COUNT(*) AS invoice_count,
       SUM(i."invoiceTotal") AS total_amount
FROM "Invoice" i
GROUP BY month
ORDER BY month DESC`,
		},
		{
			Name:       "recent_spend",
			Expression: `text.contains("90 days") || text.contains("last 90")`,
			SQL: `SELECT SUM("invoiceTotal")::float AS total_spend,
       COUNT(*)::int AS invoice_count
FROM "Invoice"
WHERE "invoiceDate" >= NOW() - INTERVAL '90 days'`,
		},
		{
			Name:       DefaultRuleName,
			Expression: `true`,
			SQL: `SELECT i."invoiceNumber", v.name AS vendor,
       i."invoiceTotal", i."invoiceDate", i.status
FROM "Invoice" i
JOIN "Vendor" v ON i."vendorId" = v.id
ORDER BY i."invoiceDate" DESC
LIMIT 20`,
		},
	}
}

type rulesFile struct {
	Rules []IntentRule `yaml:"rules"`
}

// LoadRulesFile reads a replacement rule table from YAML:
//
//	rules:
//	  - name: vendor_totals
//	    expression: text.contains("total") && text.contains("vendor")
//	    sql: SELECT ...
//
// Order in the file is priority order.
func LoadRulesFile(path string) ([]IntentRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("rules file %s defines no rules", path)
	}
	return f.Rules, nil
}
