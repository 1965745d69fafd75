package gst

import (
	"fmt"

	"github.com/shopspring/decimal"

	"gstfiling/internal/domain"
)

// Reconciliation codes.
const (
	CodeGoldenRuleMismatch    = "GOLDEN_RULE_MISMATCH"
	CodeTaxLiabilityMismatch  = "TAX_LIABILITY_MISMATCH"
	CodePayableNegative       = "PAYABLE_NEGATIVE"
	CodeHighITCClaim          = "HIGH_ITC_CLAIM"
	CodeLiabilityInconsistent = "LIABILITY_INCONSISTENT"
	CodeITCInconsistent       = "ITC_INCONSISTENT"
	CodePayableInconsistent   = "PAYABLE_INCONSISTENT"
)

// Reconcile runs every cross-return check between a detailed and a summary return.
func (e *Engine) Reconcile(dr *domain.DetailedReturn, sr *domain.SummaryReturn) domain.ValidationErrors {
	errs := domain.ValidationErrors{}
	errs = append(errs, e.CheckGoldenRule(dr, sr)...)
	errs = append(errs, e.CheckTaxLiability(dr, sr)...)
	errs = append(errs, e.CheckNonNegativePayable(sr)...)
	errs = append(errs, e.CheckSummaryArithmetic(sr)...)
	errs = append(errs, e.CheckITCSanity(sr)...)
	return errs
}

// CheckGoldenRule compares the detailed return's taxable value with the
// summary return's outward taxable value.
func (e *Engine) CheckGoldenRule(dr *domain.DetailedReturn, sr *domain.SummaryReturn) domain.ValidationErrors {
	if dr == nil || sr == nil {
		return nil
	}
	a, b := dr.TaxableValue, sr.OutwardTaxableValue
	if within(a, b, e.table.ReconTolerance(a, b)) {
		return nil
	}
	return domain.ValidationErrors{domain.NewBlocker(domain.SectionReconciliation, CodeGoldenRuleMismatch,
		fmt.Sprintf("Detailed return taxable value %s does not match summary return outward taxable value %s: %s",
			fmtd(a), fmtd(b), fmtDiff(a, b)),
		"Regenerate the summary return from the validated detailed return, or correct the invoices").On("outward_taxable_value")}
}

// CheckTaxLiability compares total declared tax with the summary return's liability.
func (e *Engine) CheckTaxLiability(dr *domain.DetailedReturn, sr *domain.SummaryReturn) domain.ValidationErrors {
	if dr == nil || sr == nil {
		return nil
	}
	a, b := dr.TotalTax(), sr.OutwardTaxLiability
	if within(a, b, e.table.ReconTolerance(a, b)) {
		return nil
	}
	return domain.ValidationErrors{domain.NewBlocker(domain.SectionReconciliation, CodeTaxLiabilityMismatch,
		fmt.Sprintf("Detailed return tax %s does not match summary return liability %s: %s",
			fmtd(a), fmtd(b), fmtDiff(a, b)),
		"Regenerate the summary return so the liability equals the invoice tax").On("outward_tax_liability")}
}

// CheckNonNegativePayable rejects a negative total or component payable.
func (e *Engine) CheckNonNegativePayable(sr *domain.SummaryReturn) domain.ValidationErrors {
	if sr == nil {
		return nil
	}
	total := sumPayable(sr)
	if !total.IsNegative() && !sr.TotalPayable.IsNegative() &&
		!sr.PayableA.IsNegative() && !sr.PayableB.IsNegative() && !sr.PayableC.IsNegative() {
		return nil
	}
	return domain.ValidationErrors{domain.NewBlocker(domain.SectionSummaryReturn, CodePayableNegative,
		fmt.Sprintf("Tax payable cannot be negative (CGST %s, SGST %s, IGST %s, total %s)",
			fmtd(sr.PayableA), fmtd(sr.PayableB), fmtd(sr.PayableC), fmtd(total)),
		"Excess credit is carried forward; payable must be zero or more").On("total_payable")}
}

// CheckITCSanity warns when claimed ITC exceeds twice the outward liability.
func (e *Engine) CheckITCSanity(sr *domain.SummaryReturn) domain.ValidationErrors {
	if sr == nil || !sr.OutwardTaxLiability.IsPositive() {
		return nil
	}
	limit := sr.OutwardTaxLiability.Mul(e.table.ITCSanityMultiple())
	if !sr.ITCAvailable.GreaterThan(limit) {
		return nil
	}
	return domain.ValidationErrors{domain.NewWarning(domain.SectionSummaryReturn, CodeHighITCClaim,
		fmt.Sprintf("ITC available %s is more than %s times the output tax liability %s",
			fmtd(sr.ITCAvailable), e.table.ITCSanityMultiple(), fmtd(sr.OutwardTaxLiability)),
		"Check the purchase register for duplicated or ineligible credit").On("itc_available")}
}

// CheckSummaryArithmetic verifies that a summary return's figures follow
// from one another. Component liabilities must add up to the outward
// liability, net ITC may not exceed available less blocked and reversed, and
// each payable must equal its liability less its credit, clamped at zero.
func (e *Engine) CheckSummaryArithmetic(sr *domain.SummaryReturn) domain.ValidationErrors {
	if sr == nil {
		return nil
	}
	tol := e.table.InvoiceTolerance()
	errs := domain.ValidationErrors{}

	liability := sr.LiabilityA.Add(sr.LiabilityB).Add(sr.LiabilityC)
	if !within(liability, sr.OutwardTaxLiability, tol) {
		errs = append(errs, domain.NewBlocker(domain.SectionSummaryReturn, CodeLiabilityInconsistent,
			fmt.Sprintf("Component liabilities add up to %s but the outward tax liability is %s",
				fmtd(liability), fmtd(sr.OutwardTaxLiability)),
			"Regenerate the summary return from the validated detailed return").On("outward_tax_liability"))
	}

	eligible := decimal.Max(zero, sr.ITCAvailable.Sub(sr.ITCBlocked).Sub(sr.ITCReversed))
	if sr.NetITC.Sub(eligible).GreaterThan(tol) {
		errs = append(errs, domain.NewBlocker(domain.SectionSummaryReturn, CodeITCInconsistent,
			fmt.Sprintf("Net ITC %s exceeds available %s less blocked %s and reversed %s (%s)",
				fmtd(sr.NetITC), fmtd(sr.ITCAvailable), fmtd(sr.ITCBlocked), fmtd(sr.ITCReversed), fmtd(eligible)),
			"Net ITC is available credit less blocked and reversed credit").On("net_itc"))
	}
	credits := sr.ITCA.Add(sr.ITCB).Add(sr.ITCC)
	if credits.Sub(sr.NetITC).GreaterThan(tol) {
		errs = append(errs, domain.NewBlocker(domain.SectionSummaryReturn, CodeITCInconsistent,
			fmt.Sprintf("Component ITC adds up to %s, more than the net ITC %s", fmtd(credits), fmtd(sr.NetITC)),
			"Split only the net ITC across the tax components").On("net_itc"))
	}

	components := []struct {
		field                      string
		liability, credit, payable decimal.Decimal
	}{
		{"payable_a", sr.LiabilityA, sr.ITCA, sr.PayableA},
		{"payable_b", sr.LiabilityB, sr.ITCB, sr.PayableB},
		{"payable_c", sr.LiabilityC, sr.ITCC, sr.PayableC},
	}
	for _, c := range components {
		if c.credit.IsNegative() {
			errs = append(errs, domain.NewBlocker(domain.SectionSummaryReturn, CodeITCInconsistent,
				fmt.Sprintf("Component ITC against %s is negative (%s)", c.field, fmtd(c.credit)),
				"ITC components are reported as positive amounts").On(c.field))
			continue
		}
		want := decimal.Max(zero, c.liability.Sub(c.credit))
		if !within(c.payable, want, tol) {
			errs = append(errs, domain.NewBlocker(domain.SectionSummaryReturn, CodePayableInconsistent,
				fmt.Sprintf("%s is %s but liability %s less ITC %s gives %s",
					c.field, fmtd(c.payable), fmtd(c.liability), fmtd(c.credit), fmtd(want)),
				"Payable is liability less ITC per component, never below zero").On(c.field))
		}
	}
	if total := sumPayable(sr); !within(sr.TotalPayable, total, tol) {
		errs = append(errs, domain.NewBlocker(domain.SectionSummaryReturn, CodePayableInconsistent,
			fmt.Sprintf("Total payable %s does not equal the component payables %s: %s",
				fmtd(sr.TotalPayable), fmtd(total), fmtDiff(sr.TotalPayable, total)),
			"Total payable is the sum of the component payables").On("total_payable"))
	}
	return errs
}
