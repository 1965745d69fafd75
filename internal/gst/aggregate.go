package gst

import (
	"fmt"

	"gstfiling/internal/domain"
)

// Aggregation codes.
const (
	CodeNoSuppliesNoNil = "NO_SUPPLIES_NO_NIL"
	CodeNilFlagIgnored  = "NIL_FLAG_IGNORED"
	CodeHighValueReturn = "HIGH_VALUE_RETURN"
)

// Aggregate sums a period's invoices into a DetailedReturn. An empty set
// without a nil declaration is a BLOCKER and yields no aggregate.
func (e *Engine) Aggregate(invoices []domain.Invoice, declareNil bool) (*domain.DetailedReturn, domain.ValidationErrors) {
	errs := domain.ValidationErrors{}
	if len(invoices) == 0 {
		if !declareNil {
			errs = append(errs, domain.NewBlocker(domain.SectionDetailedReturn, CodeNoSuppliesNoNil,
				"No outward supplies recorded and no nil return declared",
				"Add the period's invoices, or declare a nil return if there were no supplies"))
			return nil, errs
		}
		return &domain.DetailedReturn{IsNil: true}, errs
	}
	if declareNil {
		errs = append(errs, domain.NewInfo(domain.SectionDetailedReturn, CodeNilFlagIgnored,
			fmt.Sprintf("Nil declaration ignored because %d invoices are recorded", len(invoices)),
			"Clear the nil flag, or delete the invoices if the period really had no supplies"))
	}

	dr := &domain.DetailedReturn{InvoiceCount: len(invoices)}
	for i := range invoices {
		inv := &invoices[i]
		dr.TaxableValue = dr.TaxableValue.Add(inv.TaxableValue)
		dr.TaxA = dr.TaxA.Add(inv.TaxA)
		dr.TaxB = dr.TaxB.Add(inv.TaxB)
		dr.TaxC = dr.TaxC.Add(inv.TaxC)
		switch e.Categorize(inv) {
		case domain.CategoryB2B:
			dr.B2BCount++
			dr.B2BTaxable = dr.B2BTaxable.Add(inv.TaxableValue)
		case domain.CategoryB2CLarge:
			dr.B2CLCount++
			dr.B2CLTaxable = dr.B2CLTaxable.Add(inv.TaxableValue)
		case domain.CategoryB2CSmall:
			dr.B2CSCount++
			dr.B2CSTaxable = dr.B2CSTaxable.Add(inv.TaxableValue)
		}
	}
	dr.TaxableValue = round2(dr.TaxableValue)
	dr.TaxA = round2(dr.TaxA)
	dr.TaxB = round2(dr.TaxB)
	dr.TaxC = round2(dr.TaxC)
	dr.B2BTaxable = round2(dr.B2BTaxable)
	dr.B2CLTaxable = round2(dr.B2CLTaxable)
	dr.B2CSTaxable = round2(dr.B2CSTaxable)

	if dr.TaxableValue.GreaterThan(e.table.HighValueThreshold()) {
		errs = append(errs, domain.NewWarning(domain.SectionDetailedReturn, CodeHighValueReturn,
			fmt.Sprintf("Total taxable value %s exceeds %s", fmtd(dr.TaxableValue), fmtd(e.table.HighValueThreshold())),
			"Double-check the invoice values before filing"))
	}
	return dr, errs
}
