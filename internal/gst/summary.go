package gst

import (
	"github.com/shopspring/decimal"

	"gstfiling/internal/domain"
)

// CodeDetailedReturnNotValidated is emitted when a summary return is
// requested before its detailed return has been validated.
const CodeDetailedReturnNotValidated = "DETAILED_RETURN_NOT_VALIDATED"

// SummaryFromDetailed derives the summary return from a validated detailed
// return plus the period's ITC figures. When the ITC scope is unset it follows
// the dominant tax component of the detailed return.
func (e *Engine) SummaryFromDetailed(dr *domain.DetailedReturn, validated bool, itc domain.ITCInput) (*domain.SummaryReturn, domain.ValidationErrors) {
	if dr == nil || !validated {
		return nil, domain.ValidationErrors{domain.NewBlocker(domain.SectionSummaryReturn, CodeDetailedReturnNotValidated,
			"The detailed return must be validated before the summary return is generated",
			"Validate the detailed return first")}
	}
	if itc.Scope == "" {
		itc.Scope = dominantScope(dr)
	}
	itcRes, errs := e.ITC(itc)
	if errs.HasBlocker() {
		return nil, errs
	}

	out := OutputTaxResult{
		TaxableValue: dr.TaxableValue,
		TaxA:         dr.TaxA,
		TaxB:         dr.TaxB,
		TaxC:         dr.TaxC,
		Total:        dr.TotalTax(),
	}
	return buildSummary(out, itcRes), errs
}

// SummaryFromCalculation derives the summary return straight from a calculation.
func (e *Engine) SummaryFromCalculation(c Calculation) *domain.SummaryReturn {
	return buildSummary(c.Output, c.ITC)
}

func buildSummary(out OutputTaxResult, itc ITCResult) *domain.SummaryReturn {
	p := NetPayable(out, itc)
	return &domain.SummaryReturn{
		OutwardTaxableValue: round2(out.TaxableValue),
		OutwardTaxLiability: round2(out.TaxA.Add(out.TaxB).Add(out.TaxC)),
		LiabilityA:          round2(out.TaxA),
		LiabilityB:          round2(out.TaxB),
		LiabilityC:          round2(out.TaxC),
		ITCAvailable:        itc.Total,
		ITCBlocked:          itc.Blocked,
		ITCReversed:         itc.Reversed,
		NetITC:              itc.Eligible,
		ITCA:                itc.A,
		ITCB:                itc.B,
		ITCC:                itc.C,
		PayableA:            round2(p.A),
		PayableB:            round2(p.B),
		PayableC:            round2(p.C),
		TotalPayable:        round2(p.Total),
	}
}

func dominantScope(dr *domain.DetailedReturn) domain.SupplyScope {
	if dr.TaxC.GreaterThan(dr.TaxA.Add(dr.TaxB)) {
		return domain.ScopeInter
	}
	return domain.ScopeIntra
}

// sumPayable returns the total of the payable components as stated.
func sumPayable(sr *domain.SummaryReturn) decimal.Decimal {
	return sr.PayableA.Add(sr.PayableB).Add(sr.PayableC)
}
