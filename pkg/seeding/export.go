// Package seeding imports the Analytics_Test_Data document export into the invoicing schema.
package seeding

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ekaya-inc/ekaya-analyst/pkg/jsonutil"
)

// ExportDocument is one document of the export, with its extracted invoice data.
type ExportDocument struct {
	ID             string     `json:"_id"`
	Name           string     `json:"name"`
	FilePath       string     `json:"filePath"`
	FileSize       numberLong `json:"fileSize"`
	FileType       string     `json:"fileType"`
	Status         string     `json:"status"`
	OrganizationID string     `json:"organizationId"`
	DepartmentID   string     `json:"departmentId"`
	UploadedByID   string     `json:"uploadedById"`
	CreatedAt      mongoDate  `json:"createdAt"`
	UpdatedAt      mongoDate  `json:"updatedAt"`
	ExtractedData  struct {
		LLMData *LLMData `json:"llmData"`
	} `json:"extractedData"`
}

// LLMData is the structured extraction of one invoice. Every section and field is
// wrapped as {"value": ...}.
type LLMData struct {
	Invoice   *section[invoiceFields]   `json:"invoice"`
	Vendor    *section[vendorFields]    `json:"vendor"`
	Customer  *section[customerFields]  `json:"customer"`
	Payment   *section[paymentFields]   `json:"payment"`
	Summary   *section[summaryFields]   `json:"summary"`
	LineItems *section[lineItemsFields] `json:"lineItems"`
}

type section[T any] struct {
	Value *T `json:"value"`
}

// get returns the section body, or nil when the section or its value is missing.
func (s *section[T]) get() *T {
	if s == nil {
		return nil
	}
	return s.Value
}

type invoiceFields struct {
	InvoiceID    *field `json:"invoiceId"`
	InvoiceDate  *field `json:"invoiceDate"`
	DeliveryDate *field `json:"deliveryDate"`
}

type vendorFields struct {
	VendorName        *field `json:"vendorName"`
	VendorTaxID       *field `json:"vendorTaxId"`
	VendorPartyNumber *field `json:"vendorPartyNumber"`
	VendorAddress     *field `json:"vendorAddress"`
}

type customerFields struct {
	CustomerName    *field `json:"customerName"`
	CustomerAddress *field `json:"customerAddress"`
}

type paymentFields struct {
	DueDate            *field `json:"dueDate"`
	BankAccountNumber  *field `json:"bankAccountNumber"`
	BIC                *field `json:"BIC"`
	AccountName        *field `json:"accountName"`
	PaymentTerms       *field `json:"paymentTerms"`
	NetDays            *field `json:"netDays"`
	DiscountPercentage *field `json:"discountPercentage"`
	DiscountDays       *field `json:"discountDays"`
	DiscountDueDate    *field `json:"discountDueDate"`
	DiscountedTotal    *field `json:"discountedTotal"`
}

type summaryFields struct {
	SubTotal       *field `json:"subTotal"`
	TotalTax       *field `json:"totalTax"`
	InvoiceTotal   *field `json:"invoiceTotal"`
	CurrencySymbol *field `json:"currencySymbol"`
}

type lineItemsFields struct {
	Items *section[[]lineItemFields] `json:"items"`
}

type lineItemFields struct {
	SrNo              *field `json:"srNo"`
	Description       *field `json:"description"`
	Quantity          *field `json:"quantity"`
	UnitPrice         *field `json:"unitPrice"`
	TotalPrice        *field `json:"totalPrice"`
	Sachkonto         *field `json:"Sachkonto"`
	SachkontoLower    *field `json:"sachkonto"`
	BUSchluessel      *field `json:"BUSchluessel"`
	BUSchluesselLower *field `json:"buSchluessel"`
}

// field is a single extracted value. Its JSON type varies between documents.
type field struct {
	Value json.RawMessage `json:"value"`
}

func (f *field) String() string {
	if f == nil {
		return ""
	}
	return jsonutil.FlexibleStringValue(f.Value)
}

func (f *field) Float() (float64, bool) {
	if f == nil {
		return 0, false
	}
	return jsonutil.FlexibleFloatValue(f.Value)
}

func (f *field) Int() (int, bool) {
	if f == nil {
		return 0, false
	}
	return jsonutil.FlexibleIntValue(f.Value)
}

// numberLong accepts {"$numberLong": "123"} as well as a bare number.
type numberLong int64

func (n *numberLong) UnmarshalJSON(data []byte) error {
	var wrapped struct {
		NumberLong string `json:"$numberLong"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.NumberLong != "" {
		v, err := strconv.ParseInt(wrapped.NumberLong, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid $numberLong %q: %w", wrapped.NumberLong, err)
		}
		*n = numberLong(v)
		return nil
	}

	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid long value %s: %w", string(data), err)
	}
	*n = numberLong(v)
	return nil
}

// mongoDate accepts {"$date": "2024-01-02T03:04:05Z"}, {"$date": {"$numberLong": "ms"}}
// and a bare timestamp string.
type mongoDate struct {
	time.Time
}

func (d *mongoDate) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var wrapped struct {
		Date json.RawMessage `json:"$date"`
	}
	raw := json.RawMessage(data)
	if err := json.Unmarshal(data, &wrapped); err == nil && len(wrapped.Date) > 0 {
		raw = wrapped.Date
	}

	var ms numberLong
	if err := json.Unmarshal(raw, &ms); err == nil {
		d.Time = time.UnixMilli(int64(ms)).UTC()
		return nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return fmt.Errorf("invalid date %s", string(data))
	}
	t, err := parseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02.01.2006",
	"02/01/2006",
}

// parseDate reads the date formats seen in extracted invoices. Values without a
// zone are taken as UTC.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// ReadExport decodes the export, a JSON array of documents.
func ReadExport(r io.Reader) ([]ExportDocument, error) {
	var docs []ExportDocument
	if err := json.NewDecoder(r).Decode(&docs); err != nil {
		return nil, fmt.Errorf("failed to decode export: %w", err)
	}
	return docs, nil
}

// ReadExportFile opens and decodes an export file.
func ReadExportFile(path string) ([]ExportDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open export: %w", err)
	}
	defer f.Close()
	return ReadExport(f)
}
