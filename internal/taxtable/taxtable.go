// Package taxtable holds the jurisdiction-defined rates, codes and limits the
// filing engine works against. A Table is immutable once built.
package taxtable

import (
	"sort"

	"github.com/shopspring/decimal"

	"gstfiling/internal/domain"
)

var stateNames = map[string]string{
	"01": "Jammu and Kashmir", "02": "Himachal Pradesh", "03": "Punjab",
	"04": "Chandigarh", "05": "Uttarakhand", "06": "Haryana",
	"07": "Delhi", "08": "Rajasthan", "09": "Uttar Pradesh",
	"10": "Bihar", "11": "Sikkim", "12": "Arunachal Pradesh",
	"13": "Nagaland", "14": "Manipur", "15": "Mizoram",
	"16": "Tripura", "17": "Meghalaya", "18": "Assam",
	"19": "West Bengal", "20": "Jharkhand", "21": "Odisha",
	"22": "Chhattisgarh", "23": "Madhya Pradesh", "24": "Gujarat",
	"25": "Daman and Diu", "26": "Dadra and Nagar Haveli",
	"27": "Maharashtra", "28": "Andhra Pradesh (old)", "29": "Karnataka",
	"30": "Goa", "31": "Lakshadweep", "32": "Kerala",
	"33": "Tamil Nadu", "34": "Puducherry", "35": "Andaman and Nicobar",
	"36": "Telangana", "37": "Andhra Pradesh", "38": "Ladakh",
	"97": "Other Territory",
}

// LateFee is the per-day fee for one return type.
type LateFee struct {
	PerDay    decimal.Decimal
	PerDayNil decimal.Decimal
	// Acts multiplies the daily fee when the fee is levied under more than one tax act.
	Acts int64
}

// Options overrides the tunable parts of the table.
type Options struct {
	StandardRate        decimal.Decimal
	TimeBarMonths       int
	StalePeriodMonths   int
	InterestRatePercent decimal.Decimal
}

// Table is a read-only lookup of rates, jurisdiction codes, thresholds and fees.
type Table struct {
	rates               []decimal.Decimal
	buckets             []decimal.Decimal
	states              map[string]string
	standardRate        decimal.Decimal
	largeB2C            decimal.Decimal
	highValue           decimal.Decimal
	invoiceTolerance    decimal.Decimal
	reconRelative       decimal.Decimal
	reconAbsolute       decimal.Decimal
	itcSanityMultiple   decimal.Decimal
	provisionalITC      decimal.Decimal
	timeBarMonths       int
	stalePeriodMonths   int
	interestRatePercent decimal.Decimal
	lateFees            map[domain.ReturnType]LateFee
	dueDays             map[domain.ReturnType]int
}

// Default returns the table with statutory defaults.
func Default() *Table {
	return New(Options{})
}

// New builds a table, falling back to statutory defaults for zero-valued options.
func New(opts Options) *Table {
	t := &Table{
		rates:               pcts("0", "0.25", "3", "5", "12", "18", "28"),
		buckets:             pcts("5", "12", "18", "28"),
		states:              make(map[string]string, len(stateNames)),
		standardRate:        decimal.NewFromInt(18),
		largeB2C:            decimal.NewFromInt(250000),
		highValue:           decimal.NewFromInt(10000000),
		invoiceTolerance:    decimal.NewFromInt(1),
		reconRelative:       decimal.RequireFromString("0.0001"),
		reconAbsolute:       decimal.NewFromInt(1),
		itcSanityMultiple:   decimal.NewFromInt(2),
		provisionalITC:      decimal.RequireFromString("0.05"),
		timeBarMonths:       3,
		stalePeriodMonths:   12,
		interestRatePercent: decimal.NewFromInt(18),
		lateFees: map[domain.ReturnType]LateFee{
			domain.ReturnDetailed: {PerDay: decimal.NewFromInt(20), PerDayNil: decimal.NewFromInt(10), Acts: 1},
			domain.ReturnSummary:  {PerDay: decimal.NewFromInt(50), PerDayNil: decimal.NewFromInt(20), Acts: 2},
		},
		dueDays: map[domain.ReturnType]int{
			domain.ReturnDetailed: 11,
			domain.ReturnSummary:  20,
		},
	}
	for code, name := range stateNames {
		t.states[code] = name
	}
	if opts.StandardRate.IsPositive() {
		t.standardRate = opts.StandardRate
	}
	if opts.TimeBarMonths > 0 {
		t.timeBarMonths = opts.TimeBarMonths
	}
	if opts.StalePeriodMonths > 0 {
		t.stalePeriodMonths = opts.StalePeriodMonths
	}
	if opts.InterestRatePercent.IsPositive() {
		t.interestRatePercent = opts.InterestRatePercent
	}
	return t
}

func pcts(vals ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(vals))
	for i, v := range vals {
		out[i] = decimal.RequireFromString(v)
	}
	return out
}

// ValidRate reports whether rate (in percent) belongs to the rate set.
func (t *Table) ValidRate(rate decimal.Decimal) bool {
	for _, r := range t.rates {
		if r.Equal(rate) {
			return true
		}
	}
	return false
}

// Rates returns a copy of the rate set, ascending.
func (t *Table) Rates() []decimal.Decimal {
	return append([]decimal.Decimal(nil), t.rates...)
}

// StandardBuckets returns a copy of the rate buckets used for output-tax computation.
func (t *Table) StandardBuckets() []decimal.Decimal {
	return append([]decimal.Decimal(nil), t.buckets...)
}

// StandardRate is the rate assumed when an aggregate carries no rate breakdown
// and the assumption has been switched on.
func (t *Table) StandardRate() decimal.Decimal { return t.standardRate }

// KnownState reports whether code is a jurisdiction code.
func (t *Table) KnownState(code string) bool {
	_, ok := t.states[code]
	return ok
}

// StateName returns the jurisdiction name for code, or "".
func (t *Table) StateName(code string) string { return t.states[code] }

// StateCodes lists every jurisdiction code, sorted.
func (t *Table) StateCodes() []string {
	codes := make([]string, 0, len(t.states))
	for c := range t.states {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// LargeB2CThreshold is the invoice value above which an unregistered
// inter-state supply is reported as large B2C.
func (t *Table) LargeB2CThreshold() decimal.Decimal { return t.largeB2C }

// HighValueThreshold is the period taxable value that draws a review warning.
func (t *Table) HighValueThreshold() decimal.Decimal { return t.highValue }

// InvoiceTolerance is the absolute difference allowed in invoice and
// return arithmetic.
func (t *Table) InvoiceTolerance() decimal.Decimal { return t.invoiceTolerance }

// ITCSanityMultiple is how many times the output liability ITC may reach
// before it is flagged.
func (t *Table) ITCSanityMultiple() decimal.Decimal { return t.itcSanityMultiple }

// ProvisionalITCShare is the fraction of the unmatched purchase value quoted
// in the provisional-credit advisory.
func (t *Table) ProvisionalITCShare() decimal.Decimal { return t.provisionalITC }

// TimeBarMonths is the age in months after which a period is time-barred.
func (t *Table) TimeBarMonths() int { return t.timeBarMonths }

// StalePeriodMonths is the age in months after which a period draws a
// staleness warning.
func (t *Table) StalePeriodMonths() int { return t.stalePeriodMonths }

// InterestRatePercent is the annual interest rate on late payment.
func (t *Table) InterestRatePercent() decimal.Decimal { return t.interestRatePercent }

// ReconTolerance is the allowed difference between two reconciled figures:
// max(1, 0.0001 × max(a, b)).
func (t *Table) ReconTolerance(a, b decimal.Decimal) decimal.Decimal {
	rel := decimal.Max(a.Abs(), b.Abs()).Mul(t.reconRelative)
	return decimal.Max(t.reconAbsolute, rel)
}

// LateFeeFor returns the late-fee schedule of a return type.
func (t *Table) LateFeeFor(rt domain.ReturnType) LateFee { return t.lateFees[rt] }

// DueDay returns the day of the following month a return type is due on.
func (t *Table) DueDay(rt domain.ReturnType) int { return t.dueDays[rt] }
