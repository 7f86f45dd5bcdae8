package seeding

import (
	"fmt"
	"time"
)

// Fallbacks for values the extraction did not produce.
const (
	UnknownVendor      = "Unknown Vendor"
	UnknownCustomer    = "Unknown Customer"
	DefaultCurrency    = "EUR"
	DefaultDescription = "No description"
	DefaultCategory    = "General"
)

// categoryBySachkonto maps a German ledger account (Sachkonto) to a spend category.
var categoryBySachkonto = map[string]string{
	"4400": "Services",
	"4300": "Materials",
	"4500": "Shipping",
	"4600": "Utilities",
	"4700": "Office Supplies",
}

// Category returns the spend category for a ledger account, or General.
func Category(sachkonto string) string {
	if c, ok := categoryBySachkonto[sachkonto]; ok {
		return c
	}
	return DefaultCategory
}

// DocumentRecord is a row of "Document".
type DocumentRecord struct {
	ID             string
	Name           string
	FilePath       string
	FileSize       int64
	FileType       string
	Status         string
	OrganizationID string
	DepartmentID   string
	UploadedByID   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// VendorRecord is a row of "Vendor". Vendors are deduplicated by (Name, TaxID).
type VendorRecord struct {
	Name        string
	TaxID       string
	PartyNumber *string
	Address     *string
}

// CustomerRecord is a row of "Customer". Customers are deduplicated by name.
type CustomerRecord struct {
	Name    string
	Address *string
}

// InvoiceRecord is a row of "Invoice" without its foreign keys.
type InvoiceRecord struct {
	InvoiceNumber  string
	InvoiceDate    time.Time
	DeliveryDate   *time.Time
	DueDate        *time.Time
	SubTotal       float64
	TotalTax       float64
	InvoiceTotal   float64
	CurrencySymbol string
	Status         string
}

// PaymentRecord is a row of "Payment" without its invoice key.
type PaymentRecord struct {
	BankAccountNumber  *string
	BIC                *string
	AccountName        *string
	PaymentTerms       *string
	NetDays            int
	DiscountPercentage *float64
	DiscountDays       int
	DiscountDueDate    *time.Time
	DiscountedTotal    *float64
}

// LineItemRecord is a row of "LineItem" without its invoice key.
type LineItemRecord struct {
	SrNo         int
	Description  string
	Quantity     float64
	UnitPrice    float64
	TotalPrice   float64
	Sachkonto    *string
	BUSchluessel *string
	Category     string
}

// Records are the rows derived from one export document. Invoice is nil when the
// document has no extracted data; only the document row is written then.
type Records struct {
	Document  DocumentRecord
	Vendor    VendorRecord
	Customer  CustomerRecord
	Invoice   *InvoiceRecord
	Payment   *PaymentRecord
	LineItems []LineItemRecord
}

// MapDocument derives the rows for one export document.
func MapDocument(doc ExportDocument) (*Records, error) {
	if doc.ID == "" {
		return nil, fmt.Errorf("document has no _id")
	}

	rec := &Records{
		Document: DocumentRecord{
			ID:             doc.ID,
			Name:           doc.Name,
			FilePath:       doc.FilePath,
			FileSize:       int64(doc.FileSize),
			FileType:       doc.FileType,
			Status:         doc.Status,
			OrganizationID: doc.OrganizationID,
			DepartmentID:   doc.DepartmentID,
			UploadedByID:   doc.UploadedByID,
			CreatedAt:      doc.CreatedAt.Time,
			UpdatedAt:      doc.UpdatedAt.Time,
		},
	}

	data := doc.ExtractedData.LLMData
	if data == nil {
		return rec, nil
	}

	vendor := data.Vendor.get()
	if vendor == nil {
		vendor = &vendorFields{}
	}
	rec.Vendor = VendorRecord{
		Name:        orDefault(vendor.VendorName.String(), UnknownVendor),
		TaxID:       vendor.VendorTaxID.String(),
		PartyNumber: optionalString(vendor.VendorPartyNumber),
		Address:     optionalString(vendor.VendorAddress),
	}

	customer := data.Customer.get()
	if customer == nil {
		customer = &customerFields{}
	}
	rec.Customer = CustomerRecord{
		Name:    orDefault(customer.CustomerName.String(), UnknownCustomer),
		Address: optionalString(customer.CustomerAddress),
	}

	invoice := data.Invoice.get()
	if invoice == nil {
		invoice = &invoiceFields{}
	}
	summary := data.Summary.get()
	if summary == nil {
		summary = &summaryFields{}
	}
	payment := data.Payment.get()

	invoiceNumber := invoice.InvoiceID.String()
	if invoiceNumber == "" {
		invoiceNumber = doc.ID[:min(8, len(doc.ID))]
	}

	invoiceDate := doc.CreatedAt.Time
	if s := invoice.InvoiceDate.String(); s != "" {
		t, err := parseDate(s)
		if err != nil {
			return nil, fmt.Errorf("invoice date: %w", err)
		}
		invoiceDate = t
	}
	deliveryDate, err := optionalDate(invoice.DeliveryDate)
	if err != nil {
		return nil, fmt.Errorf("delivery date: %w", err)
	}

	inv := &InvoiceRecord{
		InvoiceNumber:  invoiceNumber,
		InvoiceDate:    invoiceDate,
		DeliveryDate:   deliveryDate,
		SubTotal:       floatOrZero(summary.SubTotal),
		TotalTax:       floatOrZero(summary.TotalTax),
		InvoiceTotal:   floatOrZero(summary.InvoiceTotal),
		CurrencySymbol: orDefault(summary.CurrencySymbol.String(), DefaultCurrency),
		Status:         doc.Status,
	}

	if payment != nil {
		inv.DueDate, err = optionalDate(payment.DueDate)
		if err != nil {
			return nil, fmt.Errorf("due date: %w", err)
		}
		discountDueDate, err := optionalDate(payment.DiscountDueDate)
		if err != nil {
			return nil, fmt.Errorf("discount due date: %w", err)
		}
		rec.Payment = &PaymentRecord{
			BankAccountNumber:  optionalString(payment.BankAccountNumber),
			BIC:                optionalString(payment.BIC),
			AccountName:        optionalString(payment.AccountName),
			PaymentTerms:       optionalString(payment.PaymentTerms),
			NetDays:            intOrZero(payment.NetDays),
			DiscountPercentage: optionalFloat(payment.DiscountPercentage),
			DiscountDays:       intOrZero(payment.DiscountDays),
			DiscountDueDate:    discountDueDate,
			DiscountedTotal:    optionalFloat(payment.DiscountedTotal),
		}
	}
	rec.Invoice = inv

	if items := data.LineItems.get(); items != nil {
		if list := items.Items.get(); list != nil {
			for _, item := range *list {
				rec.LineItems = append(rec.LineItems, mapLineItem(item))
			}
		}
	}

	return rec, nil
}

func mapLineItem(item lineItemFields) LineItemRecord {
	sachkonto := item.Sachkonto.String()
	if sachkonto == "" {
		sachkonto = item.SachkontoLower.String()
	}
	buSchluessel := item.BUSchluessel.String()
	if buSchluessel == "" {
		buSchluessel = item.BUSchluesselLower.String()
	}

	return LineItemRecord{
		SrNo:         intOrZero(item.SrNo),
		Description:  orDefault(item.Description.String(), DefaultDescription),
		Quantity:     floatOrZero(item.Quantity),
		UnitPrice:    floatOrZero(item.UnitPrice),
		TotalPrice:   floatOrZero(item.TotalPrice),
		Sachkonto:    nonEmpty(sachkonto),
		BUSchluessel: nonEmpty(buSchluessel),
		Category:     Category(sachkonto),
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalString(f *field) *string {
	return nonEmpty(f.String())
}

func optionalFloat(f *field) *float64 {
	v, ok := f.Float()
	if !ok {
		return nil
	}
	return &v
}

func floatOrZero(f *field) float64 {
	v, _ := f.Float()
	return v
}

func intOrZero(f *field) int {
	v, _ := f.Int()
	return v
}

func optionalDate(f *field) (*time.Time, error) {
	s := f.String()
	if s == "" {
		return nil, nil
	}
	t, err := parseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
