package gst

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gstfiling/internal/domain"
)

// Invoice validation codes.
const (
	CodeInvoiceNumberMissing      = "INVOICE_NUMBER_MISSING"
	CodeInvoiceDateMissing        = "INVOICE_DATE_MISSING"
	CodeInvoiceDateInvalid        = "INVOICE_DATE_INVALID"
	CodeInvoiceDateFuture         = "INVOICE_DATE_FUTURE"
	CodeCounterpartyInvalidLength = "COUNTERPARTY_GSTIN_INVALID_LENGTH"
	CodeCounterpartyFormat        = "COUNTERPARTY_GSTIN_FORMAT"
	CodeTaxableValueInvalid       = "TAXABLE_VALUE_INVALID"
	CodeRateInvalid               = "RATE_INVALID"
	CodeInvalidSupplyScope        = "INVALID_SUPPLY_SCOPE"
	CodeCrossTaxInIntra           = "CROSS_TAX_IN_INTRA_SUPPLY"
	CodeSameTaxInInter            = "SAME_TAX_IN_INTER_SUPPLY"
	CodeTaxMismatch               = "TAX_MISMATCH"
	CodeTaxSplitUneven            = "TAX_SPLIT_UNEVEN"
	CodeNegativeAmount            = "NEGATIVE_AMOUNT"
	CodeTotalValueMismatch        = "TOTAL_VALUE_MISMATCH"
	CodePlaceOfSupplyUnknown      = "PLACE_OF_SUPPLY_UNKNOWN"
	CodeScopePlaceMismatch        = "SCOPE_PLACE_OF_SUPPLY_MISMATCH"
	CodeInvoiceDuplicate          = "INVOICE_DUPLICATE"
)

var dateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
	"02.01.2006",
	"2006/01/02",
	"02 Jan 2006",
	"2 Jan 2006",
}

// ParseInvoiceDate parses an invoice date in any of the accepted layouts.
func ParseInvoiceDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date: %s", s)
}

// InvoiceResult is the outcome of validating one invoice.
type InvoiceResult struct {
	Accepted bool                    `json:"accepted"`
	Category domain.Category         `json:"category"`
	Errors   domain.ValidationErrors `json:"errors"`
}

// Categorize classifies an invoice. It is a pure function of the invoice.
func (e *Engine) Categorize(inv *domain.Invoice) domain.Category {
	if strings.TrimSpace(inv.CounterpartyGSTIN) != "" {
		return domain.CategoryB2B
	}
	if inv.Scope == domain.ScopeInter && inv.TotalValue.GreaterThan(e.table.LargeB2CThreshold()) {
		return domain.CategoryB2CLarge
	}
	return domain.CategoryB2CSmall
}

// invoiceCheck is one independent rule over an invoice.
type invoiceCheck func(e *Engine, inv *domain.Invoice, cat domain.Category) domain.ValidationErrors

var invoiceChecks = []invoiceCheck{
	checkInvoiceNumber,
	checkInvoiceDate,
	checkCounterparty,
	checkTaxableValue,
	checkRate,
	checkTaxAmounts,
	checkNegativeAmounts,
	checkTotalValue,
	checkPlaceOfSupply,
}

// ValidateInvoice categorizes inv and runs every check, accumulating all findings.
func (e *Engine) ValidateInvoice(inv *domain.Invoice) InvoiceResult {
	cat := e.Categorize(inv)
	errs := domain.ValidationErrors{}
	for _, check := range invoiceChecks {
		errs = append(errs, check(e, inv, cat)...)
	}
	for i := range errs {
		errs[i].Message = fmt.Sprintf("%s invoice %s: %s", cat, invoiceLabel(inv), errs[i].Message)
	}
	return InvoiceResult{Accepted: !errs.HasBlocker(), Category: cat, Errors: errs}
}

func invoiceLabel(inv *domain.Invoice) string {
	if n := strings.TrimSpace(inv.Number); n != "" {
		return n
	}
	return "(unnumbered)"
}

func invoiceBlocker(code, msg, hint, field string) domain.ValidationError {
	return domain.NewBlocker(domain.SectionInvoice, code, msg, hint).On(field)
}

func invoiceWarning(code, msg, hint, field string) domain.ValidationError {
	return domain.NewWarning(domain.SectionInvoice, code, msg, hint).On(field)
}

func checkInvoiceNumber(_ *Engine, inv *domain.Invoice, _ domain.Category) domain.ValidationErrors {
	if strings.TrimSpace(inv.Number) == "" {
		return domain.ValidationErrors{invoiceBlocker(CodeInvoiceNumberMissing,
			"invoice number is required", "Enter the invoice number as printed on the invoice", "invoice_number")}
	}
	return nil
}

func checkInvoiceDate(e *Engine, inv *domain.Invoice, _ domain.Category) domain.ValidationErrors {
	if strings.TrimSpace(inv.Date) == "" {
		return domain.ValidationErrors{invoiceBlocker(CodeInvoiceDateMissing,
			"invoice date is required", "Enter the invoice date", "invoice_date")}
	}
	d, err := ParseInvoiceDate(inv.Date)
	if err != nil {
		return domain.ValidationErrors{invoiceBlocker(CodeInvoiceDateInvalid,
			fmt.Sprintf("invoice date %q cannot be parsed", inv.Date), "Use YYYY-MM-DD or DD-MM-YYYY", "invoice_date")}
	}
	now := e.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if d.After(today) {
		return domain.ValidationErrors{invoiceBlocker(CodeInvoiceDateFuture,
			fmt.Sprintf("invoice date %s is in the future", d.Format("2006-01-02")),
			"Invoices can only be reported after they are issued", "invoice_date")}
	}
	return nil
}

func checkCounterparty(e *Engine, inv *domain.Invoice, cat domain.Category) domain.ValidationErrors {
	if cat != domain.CategoryB2B {
		return nil
	}
	gstin := strings.TrimSpace(inv.CounterpartyGSTIN)
	if len(gstin) != gstinLength {
		return domain.ValidationErrors{invoiceBlocker(CodeCounterpartyInvalidLength,
			fmt.Sprintf("recipient GSTIN must be %d characters, got %d", gstinLength, len(gstin)),
			"Check the recipient GSTIN, or clear it for an unregistered buyer", "counterparty_gstin")}
	}
	if !e.ValidGSTIN(gstin) {
		return domain.ValidationErrors{invoiceWarning(CodeCounterpartyFormat,
			fmt.Sprintf("recipient GSTIN %s does not look like a valid GSTIN", gstin),
			"Verify the recipient GSTIN on the registration portal", "counterparty_gstin")}
	}
	return nil
}

func checkTaxableValue(_ *Engine, inv *domain.Invoice, _ domain.Category) domain.ValidationErrors {
	if !inv.TaxableValue.IsPositive() {
		return domain.ValidationErrors{invoiceBlocker(CodeTaxableValueInvalid,
			fmt.Sprintf("taxable value must be greater than zero, got %s", fmtd(inv.TaxableValue)),
			"Enter the value of supply before tax", "taxable_value")}
	}
	return nil
}

func checkRate(e *Engine, inv *domain.Invoice, _ domain.Category) domain.ValidationErrors {
	if !e.table.ValidRate(inv.Rate) {
		return domain.ValidationErrors{invoiceBlocker(CodeRateInvalid,
			fmt.Sprintf("tax rate %s%% is not a notified rate", inv.Rate.String()),
			"Use one of 0, 0.25, 3, 5, 12, 18 or 28 percent", "rate")}
	}
	return nil
}

func checkTaxAmounts(e *Engine, inv *domain.Invoice, _ domain.Category) domain.ValidationErrors {
	if !inv.Scope.Valid() {
		return domain.ValidationErrors{invoiceBlocker(CodeInvalidSupplyScope,
			fmt.Sprintf("supply scope %q is not recognised", inv.Scope),
			"Use intra for supplies within the state and inter for supplies across states", "supply_scope")}
	}
	if !e.table.ValidRate(inv.Rate) {
		return nil
	}

	tol := e.table.InvoiceTolerance()
	expected := pctOf(inv.TaxableValue, inv.Rate)
	var errs domain.ValidationErrors

	switch inv.Scope {
	case domain.ScopeIntra:
		if !inv.TaxC.IsZero() {
			errs = append(errs, invoiceBlocker(CodeCrossTaxInIntra,
				fmt.Sprintf("intra-state supply carries IGST of %s", fmtd(inv.TaxC)),
				"Intra-state supplies are taxed as CGST + SGST; move the amount or change the scope", "tax_c"))
		}
		got := inv.TaxA.Add(inv.TaxB)
		if !within(got, expected, tol) {
			eh := expected.Div(two)
			errs = append(errs, invoiceBlocker(CodeTaxMismatch,
				fmt.Sprintf("CGST + SGST is %s but taxable value × rate is %s (expected %s each)",
					fmtd(got), fmtd(expected), fmtd(eh)),
				"Recompute CGST and SGST as half of taxable value × rate each", "tax_a"))
			return errs
		}
		eh := expected.Div(two)
		if !within(inv.TaxA, eh, tol) || !within(inv.TaxB, eh, tol) {
			errs = append(errs, invoiceBlocker(CodeTaxSplitUneven,
				fmt.Sprintf("CGST %s and SGST %s are not an even split of %s",
					fmtd(inv.TaxA), fmtd(inv.TaxB), fmtd(expected)),
				"CGST and SGST must each be half of the tax", "tax_b"))
		}
	case domain.ScopeInter:
		if !inv.TaxA.IsZero() || !inv.TaxB.IsZero() {
			errs = append(errs, invoiceBlocker(CodeSameTaxInInter,
				fmt.Sprintf("inter-state supply carries CGST %s / SGST %s", fmtd(inv.TaxA), fmtd(inv.TaxB)),
				"Inter-state supplies are taxed as IGST only", "tax_a"))
		}
		if !within(inv.TaxC, expected, tol) {
			errs = append(errs, invoiceBlocker(CodeTaxMismatch,
				fmt.Sprintf("IGST is %s but taxable value × rate is %s", fmtd(inv.TaxC), fmtd(expected)),
				"Recompute IGST as taxable value × rate", "tax_c"))
		}
	}
	return errs
}

func checkNegativeAmounts(_ *Engine, inv *domain.Invoice, _ domain.Category) domain.ValidationErrors {
	fields := []struct {
		name string
		val  decimal.Decimal
	}{
		{"taxable_value", inv.TaxableValue},
		{"rate", inv.Rate},
		{"tax_a", inv.TaxA},
		{"tax_b", inv.TaxB},
		{"tax_c", inv.TaxC},
		{"total_value", inv.TotalValue},
	}
	var errs domain.ValidationErrors
	for _, f := range fields {
		if f.val.IsNegative() {
			errs = append(errs, invoiceBlocker(CodeNegativeAmount,
				fmt.Sprintf("%s is negative (%s)", f.name, fmtd(f.val)),
				"Report credit notes separately instead of negative invoice amounts", f.name))
		}
	}
	return errs
}

func checkTotalValue(e *Engine, inv *domain.Invoice, _ domain.Category) domain.ValidationErrors {
	if inv.TotalValue.IsZero() {
		return nil
	}
	expected := inv.TaxableValue.Add(inv.Tax())
	if !within(inv.TotalValue, expected, e.table.InvoiceTolerance()) {
		return domain.ValidationErrors{invoiceWarning(CodeTotalValueMismatch,
			fmt.Sprintf("total value %s differs from taxable value plus tax %s", fmtd(inv.TotalValue), fmtd(expected)),
			"Check for cess, rounding or discounts not reflected in the taxable value", "total_value")}
	}
	return nil
}

func checkPlaceOfSupply(e *Engine, inv *domain.Invoice, _ domain.Category) domain.ValidationErrors {
	pos := placeCode(inv.PlaceOfSupply)
	if pos == "" {
		return nil
	}
	if !e.table.KnownState(pos) {
		return domain.ValidationErrors{invoiceWarning(CodePlaceOfSupplyUnknown,
			fmt.Sprintf("place of supply %q is not a known state code", inv.PlaceOfSupply),
			"Use the two-digit state code of the place of supply", "place_of_supply")}
	}
	if len(inv.FilerGSTIN) < 2 {
		return nil
	}
	home := inv.FilerGSTIN[:2]
	if inv.Scope == domain.ScopeIntra && pos != home {
		return domain.ValidationErrors{invoiceWarning(CodeScopePlaceMismatch,
			fmt.Sprintf("intra-state supply with place of supply %s outside home state %s", pos, home),
			"A supply to another state is usually inter-state", "supply_scope")}
	}
	if inv.Scope == domain.ScopeInter && pos == home {
		return domain.ValidationErrors{invoiceWarning(CodeScopePlaceMismatch,
			fmt.Sprintf("inter-state supply with place of supply in home state %s", home),
			"A supply within the home state is usually intra-state", "supply_scope")}
	}
	return nil
}

// placeCode extracts the state code from "29" or "29-Karnataka".
func placeCode(pos string) string {
	pos = strings.TrimSpace(pos)
	if len(pos) < 2 {
		return pos
	}
	return pos[:2]
}

func duplicateKey(inv *domain.Invoice) string {
	return strings.ToUpper(strings.TrimSpace(inv.Number)) + "|" +
		strings.ToUpper(strings.TrimSpace(inv.FilerGSTIN)) + "|" +
		strings.TrimSpace(inv.Period)
}

// CheckDuplicate rejects inv when the live set already holds an invoice with
// the same (invoice number, filer, period).
func (e *Engine) CheckDuplicate(inv *domain.Invoice, live []domain.Invoice) domain.ValidationErrors {
	key := duplicateKey(inv)
	for i := range live {
		if inv.ID != uuid.Nil && live[i].ID == inv.ID {
			continue
		}
		if duplicateKey(&live[i]) == key {
			return domain.ValidationErrors{invoiceBlocker(CodeInvoiceDuplicate,
				fmt.Sprintf("invoice %s already exists for %s in period %s", invoiceLabel(inv), inv.FilerGSTIN, inv.Period),
				"Use a unique invoice number or edit the existing invoice", "invoice_number")}
		}
	}
	return nil
}

// FindDuplicates scans a set and reports each repeated (number, filer, period) once.
func (e *Engine) FindDuplicates(invoices []domain.Invoice) domain.ValidationErrors {
	seen := make(map[string]int, len(invoices))
	var order []string
	labels := make(map[string]string)
	for i := range invoices {
		k := duplicateKey(&invoices[i])
		if seen[k] == 0 {
			order = append(order, k)
			labels[k] = invoiceLabel(&invoices[i])
		}
		seen[k]++
	}
	var errs domain.ValidationErrors
	for _, k := range order {
		if n := seen[k]; n > 1 {
			errs = append(errs, invoiceBlocker(CodeInvoiceDuplicate,
				fmt.Sprintf("invoice number %s appears %d times in the period", labels[k], n),
				"Delete or renumber the duplicate invoices", "invoice_number"))
		}
	}
	return errs
}
