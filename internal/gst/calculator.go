package gst

import (
	"fmt"

	"github.com/shopspring/decimal"

	"gstfiling/internal/domain"
)

// Calculator codes.
const (
	CodeRateBreakdownMissing    = "RATE_BREAKDOWN_MISSING"
	CodeRateBreakdownAssumed    = "RATE_BREAKDOWN_ASSUMED"
	CodeRateBreakdownIncomplete = "RATE_BREAKDOWN_INCOMPLETE"
	CodeITCNegative             = "ITC_NEGATIVE"
)

// RateLine is the taxable value supplied at one rate.
type RateLine struct {
	Rate    decimal.Decimal `json:"rate"`
	Taxable decimal.Decimal `json:"taxable"`
}

// RateBreakdown is a pre-aggregated view of outward supplies. TotalTaxable
// may be given without lines; lines may be given without a total.
type RateBreakdown struct {
	TotalTaxable decimal.Decimal `json:"total_taxable"`
	Lines        []RateLine      `json:"lines"`
}

// OutputTaxLine is the tax computed for one rate.
type OutputTaxLine struct {
	Rate    decimal.Decimal `json:"rate"`
	Taxable decimal.Decimal `json:"taxable"`
	TaxA    decimal.Decimal `json:"tax_a"`
	TaxB    decimal.Decimal `json:"tax_b"`
	TaxC    decimal.Decimal `json:"tax_c"`
}

// OutputTaxResult is the tax owed on outward supplies.
type OutputTaxResult struct {
	Scope        domain.SupplyScope `json:"scope"`
	TaxableValue decimal.Decimal    `json:"taxable_value"`
	Lines        []OutputTaxLine    `json:"lines"`
	TaxA         decimal.Decimal    `json:"tax_a"`
	TaxB         decimal.Decimal    `json:"tax_b"`
	TaxC         decimal.Decimal    `json:"tax_c"`
	Total        decimal.Decimal    `json:"total"`
	// AssumedStandardRate is set when the whole value was taxed at the standard rate.
	AssumedStandardRate bool `json:"assumed_standard_rate"`
}

// ITCResult is the eligible input tax credit split by component.
type ITCResult struct {
	Total    decimal.Decimal `json:"total_itc"`
	Blocked  decimal.Decimal `json:"blocked_itc"`
	Reversed decimal.Decimal `json:"reversed_itc"`
	Eligible decimal.Decimal `json:"eligible_itc"`
	A        decimal.Decimal `json:"itc_a"`
	B        decimal.Decimal `json:"itc_b"`
	C        decimal.Decimal `json:"itc_c"`
}

// Payable is the net tax payable per component.
type Payable struct {
	A     decimal.Decimal `json:"payable_a"`
	B     decimal.Decimal `json:"payable_b"`
	C     decimal.Decimal `json:"payable_c"`
	Total decimal.Decimal `json:"total_payable"`
}

// CalculationInput feeds Calculate.
type CalculationInput struct {
	Scope   domain.SupplyScope `json:"scope"`
	Outward RateBreakdown      `json:"outward"`
	ITC     domain.ITCInput    `json:"itc"`
}

// Calculation is the combined output-tax, ITC and payable figure set.
type Calculation struct {
	Output  OutputTaxResult `json:"output_tax"`
	ITC     ITCResult       `json:"itc"`
	Payable Payable         `json:"payable"`
}

func scopeError(section domain.Section, scope domain.SupplyScope) domain.ValidationError {
	return domain.NewBlocker(section, CodeInvalidSupplyScope,
		fmt.Sprintf("supply scope %q is not recognised", scope),
		"Use intra or inter").On("scope")
}

// split assigns tax to components by scope.
func split(tax decimal.Decimal, scope domain.SupplyScope) (a, b, c decimal.Decimal) {
	if scope == domain.ScopeIntra {
		a, b = half(tax)
		return a, b, zero
	}
	return zero, zero, round2(tax)
}

// OutputTax computes tax on rate-wise aggregate outward supplies.
func (e *Engine) OutputTax(b RateBreakdown, scope domain.SupplyScope) (OutputTaxResult, domain.ValidationErrors) {
	res := OutputTaxResult{Scope: scope}
	errs := domain.ValidationErrors{}
	if !scope.Valid() {
		return res, append(errs, scopeError(domain.SectionSummaryReturn, scope))
	}

	lines := make([]RateLine, 0, len(b.Lines))
	sum := zero
	for _, l := range b.Lines {
		if l.Taxable.IsNegative() {
			errs = append(errs, domain.NewBlocker(domain.SectionSummaryReturn, CodeNegativeAmount,
				fmt.Sprintf("taxable value at %s%% is negative (%s)", l.Rate, fmtd(l.Taxable)),
				"Rate-wise taxable values cannot be negative").On("lines"))
			continue
		}
		if !e.table.ValidRate(l.Rate) {
			errs = append(errs, domain.NewBlocker(domain.SectionSummaryReturn, CodeRateInvalid,
				fmt.Sprintf("rate %s%% is not a notified rate", l.Rate),
				"Use one of 5, 12, 18 or 28 percent for taxable supplies").On("lines"))
			continue
		}
		if l.Taxable.IsZero() {
			continue
		}
		lines = append(lines, l)
		sum = sum.Add(l.Taxable)
	}
	if errs.HasBlocker() {
		return res, errs
	}

	switch {
	case len(lines) == 0 && b.TotalTaxable.IsPositive():
		if !e.opts.AssumeStandardRate {
			errs = append(errs, domain.NewBlocker(domain.SectionSummaryReturn, CodeRateBreakdownMissing,
				fmt.Sprintf("taxable value %s has no rate-wise breakdown", fmtd(b.TotalTaxable)),
				"Supply the taxable value per rate (5, 12, 18, 28 percent)"))
			res.TaxableValue = round2(b.TotalTaxable)
			return res, errs
		}
		lines = append(lines, RateLine{Rate: e.table.StandardRate(), Taxable: b.TotalTaxable})
		sum = b.TotalTaxable
		res.AssumedStandardRate = true
		errs = append(errs, domain.NewWarning(domain.SectionSummaryReturn, CodeRateBreakdownAssumed,
			fmt.Sprintf("no rate-wise breakdown; all %s assumed taxable at %s%%", fmtd(b.TotalTaxable), e.table.StandardRate()),
			"Supply the rate-wise breakdown if any supplies were at another rate"))
	case len(lines) > 0 && !b.TotalTaxable.IsZero() && !within(sum, b.TotalTaxable, e.table.InvoiceTolerance()):
		errs = append(errs, domain.NewWarning(domain.SectionSummaryReturn, CodeRateBreakdownIncomplete,
			fmt.Sprintf("rate-wise taxable values sum to %s but total taxable is %s", fmtd(sum), fmtd(b.TotalTaxable)),
			"The difference is treated as exempt or nil-rated; check the breakdown"))
	}

	for _, bucket := range e.table.StandardBuckets() {
		res.Lines = append(res.Lines, e.outputLine(bucket, lines, scope))
	}
	for _, l := range lines {
		if !isBucket(l.Rate, e.table.StandardBuckets()) && !containsRate(res.Lines, l.Rate) {
			res.Lines = append(res.Lines, e.outputLine(l.Rate, lines, scope))
		}
	}
	for _, ol := range res.Lines {
		res.TaxA = res.TaxA.Add(ol.TaxA)
		res.TaxB = res.TaxB.Add(ol.TaxB)
		res.TaxC = res.TaxC.Add(ol.TaxC)
	}
	res.TaxableValue = round2(decimal.Max(sum, b.TotalTaxable))
	res.Total = res.TaxA.Add(res.TaxB).Add(res.TaxC)
	return res, errs
}

func (e *Engine) outputLine(rate decimal.Decimal, lines []RateLine, scope domain.SupplyScope) OutputTaxLine {
	taxable := zero
	for _, l := range lines {
		if l.Rate.Equal(rate) {
			taxable = taxable.Add(l.Taxable)
		}
	}
	a, b, c := split(pctOf(taxable, rate), scope)
	return OutputTaxLine{Rate: rate, Taxable: round2(taxable), TaxA: a, TaxB: b, TaxC: c}
}

func isBucket(rate decimal.Decimal, buckets []decimal.Decimal) bool {
	for _, b := range buckets {
		if b.Equal(rate) {
			return true
		}
	}
	return false
}

func containsRate(lines []OutputTaxLine, rate decimal.Decimal) bool {
	for _, l := range lines {
		if l.Rate.Equal(rate) {
			return true
		}
	}
	return false
}

// ITC computes eligible credit: max(0, total − blocked − reversed), split by scope.
func (e *Engine) ITC(in domain.ITCInput) (ITCResult, domain.ValidationErrors) {
	res := ITCResult{Total: round2(in.Total), Blocked: round2(in.Blocked), Reversed: round2(in.Reversed)}
	errs := domain.ValidationErrors{}
	for _, f := range []struct {
		name string
		val  decimal.Decimal
	}{{"total_itc", in.Total}, {"blocked_itc", in.Blocked}, {"reversed_itc", in.Reversed}} {
		if f.val.IsNegative() {
			errs = append(errs, domain.NewBlocker(domain.SectionITC, CodeITCNegative,
				fmt.Sprintf("%s is negative (%s)", f.name, fmtd(f.val)),
				"ITC figures are reported as positive amounts").On(f.name))
		}
	}
	if !in.Scope.Valid() {
		errs = append(errs, scopeError(domain.SectionITC, in.Scope))
	}
	if errs.HasBlocker() {
		return res, errs
	}

	res.Eligible = decimal.Max(zero, res.Total.Sub(res.Blocked).Sub(res.Reversed))
	res.A, res.B, res.C = split(res.Eligible, in.Scope)
	return res, errs
}

// NetPayable nets ITC against output tax per component, clamped at zero.
// Components are never netted against each other.
func NetPayable(out OutputTaxResult, itc ITCResult) Payable {
	p := Payable{
		A: decimal.Max(zero, out.TaxA.Sub(itc.A)),
		B: decimal.Max(zero, out.TaxB.Sub(itc.B)),
		C: decimal.Max(zero, out.TaxC.Sub(itc.C)),
	}
	p.Total = p.A.Add(p.B).Add(p.C)
	return p
}

// Calculate runs the output-tax and ITC computations and nets them.
func (e *Engine) Calculate(in CalculationInput) (Calculation, domain.ValidationErrors) {
	out, errs := e.OutputTax(in.Outward, in.Scope)
	itc, itcErrs := e.ITC(in.ITC)
	errs = append(errs, itcErrs...)
	return Calculation{Output: out, ITC: itc, Payable: NetPayable(out, itc)}, errs
}
