// Package export renders a filing's detailed return as CSV or XLSX and reads
// sales registers back from XLSX workbooks.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"gstfiling/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// Columns is the invoice header shared by the CSV and XLSX renderings and
// understood by ReadSalesRegister.
var Columns = []string{
	"Invoice Number",
	"Invoice Date",
	"Category",
	"Supply Scope",
	"Counterparty GSTIN",
	"Counterparty Name",
	"Place Of Supply",
	"Taxable Value",
	"Rate",
	"Tax A",
	"Tax B",
	"Tax C",
	"Total Value",
}

// Writer wraps csv.Writer for exporting invoices as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the invoice header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(Columns)
}

// WriteInvoices writes one row per invoice.
func (w *Writer) WriteInvoices(invoices []domain.Invoice) error {
	for i := range invoices {
		if err := w.csv.Write(invoiceRow(&invoices[i])); err != nil {
			return err
		}
	}
	return nil
}

// WriteTotals writes the aggregate row of a detailed return.
func (w *Writer) WriteTotals(dr *domain.DetailedReturn) error {
	if dr == nil {
		return nil
	}
	row := make([]string, len(Columns))
	row[0] = "TOTAL"
	row[2] = fmt.Sprintf("%d invoice(s)", dr.InvoiceCount)
	row[7] = money(dr.TaxableValue)
	row[9] = money(dr.TaxA)
	row[10] = money(dr.TaxB)
	row[11] = money(dr.TaxC)
	row[12] = money(dr.TaxableValue.Add(dr.TotalTax()))
	return w.csv.Write(row)
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// WriteDetailedCSV writes BOM, header, invoices and totals for f.
func WriteDetailedCSV(out io.Writer, f *domain.Filing) error {
	if _, err := out.Write(BOM); err != nil {
		return err
	}
	w := NewWriter(out)
	if err := w.WriteHeader(); err != nil {
		return err
	}
	if err := w.WriteInvoices(f.Invoices); err != nil {
		return err
	}
	if err := w.WriteTotals(f.Detailed); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func invoiceRow(inv *domain.Invoice) []string {
	return []string{
		inv.Number,
		inv.Date,
		string(inv.Category),
		string(inv.Scope),
		inv.CounterpartyGSTIN,
		inv.CounterpartyName,
		inv.PlaceOfSupply,
		money(inv.TaxableValue),
		inv.Rate.String(),
		money(inv.TaxA),
		money(inv.TaxB),
		money(inv.TaxC),
		money(inv.TotalValue),
	}
}

func money(v decimal.Decimal) string {
	return v.StringFixed(2)
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename keeps alphanumerics, hyphens and underscores, collapses
// runs of underscores and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns {gstin}_{period}_detailed.{ext} for Content-Disposition.
func BuildFilename(gstin, period, ext string) string {
	return fmt.Sprintf("%s_%s_detailed.%s", SanitizeFilename(gstin), SanitizeFilename(period), ext)
}
