package models

import "time"

// DashboardStats summarizes spend for the overview cards.
// Amounts are absolute values; credits count as spend.
type DashboardStats struct {
	TotalSpend          float64 `json:"totalSpend"`
	TotalInvoices       int64   `json:"totalInvoices"`
	DocumentsUploaded   int64   `json:"documentsUploaded"`
	AverageInvoiceValue float64 `json:"averageInvoiceValue"`
}

// MonthlyTrend is invoice volume for one calendar month (YYYY-MM).
type MonthlyTrend struct {
	Month string  `json:"month"`
	Count int64   `json:"count"`
	Total float64 `json:"total"`
}

// VendorSpend is total spend with one vendor.
type VendorSpend struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	TotalSpend float64 `json:"totalSpend"`
}

// CategorySpend is line item spend for one category.
type CategorySpend struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

// CashOutflow is the amount expected to leave on one day (YYYY-MM-DD).
type CashOutflow struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// InvoiceSummary is one row of the invoice table view.
type InvoiceSummary struct {
	ID            string     `json:"id"`
	InvoiceNumber string     `json:"invoiceNumber"`
	InvoiceDate   time.Time  `json:"invoiceDate"`
	VendorName    string     `json:"vendorName"`
	Amount        float64    `json:"amount"`
	Status        string     `json:"status"`
	DueDate       *time.Time `json:"dueDate"`
}

// InvoiceFilter selects invoices for the table view.
type InvoiceFilter struct {
	Search string // matches invoice number or vendor name, case-insensitive
	Status string
	Limit  int
	Offset int
}

// InvoicePage is a page of invoices plus the unpaged total.
type InvoicePage struct {
	Data   []InvoiceSummary `json:"data"`
	Total  int64            `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}
