package gst

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"gstfiling/internal/domain"
)

// Period codes.
const (
	CodePeriodMissing       = "PERIOD_MISSING"
	CodePeriodInvalidFormat = "PERIOD_INVALID_FORMAT"
	CodePeriodAlreadyFiled  = "PERIOD_ALREADY_FILED"
	CodePeriodInFuture      = "PERIOD_IN_FUTURE"
	CodePeriodStale         = "PERIOD_STALE"
	CodePeriodTimeBarred    = "PERIOD_TIME_BARRED"
)

// Period is a calendar month of filing.
type Period struct {
	Month time.Month
	Year  int
}

// ParsePeriod parses "MM-YYYY" (or the compact "MMYYYY").
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	var mm, yyyy string
	switch {
	case len(s) == 7 && s[2] == '-':
		mm, yyyy = s[:2], s[3:]
	case len(s) == 6:
		mm, yyyy = s[:2], s[2:]
	default:
		return Period{}, fmt.Errorf("%w: %q, expected MM-YYYY", domain.ErrInvalidPeriod, s)
	}
	if !digits(mm) || !digits(yyyy) {
		return Period{}, fmt.Errorf("%w: %q, expected MM-YYYY", domain.ErrInvalidPeriod, s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 1 || m > 12 {
		return Period{}, fmt.Errorf("%w: month %q", domain.ErrInvalidPeriod, mm)
	}
	y, err := strconv.Atoi(yyyy)
	if err != nil || y < 2017 {
		return Period{}, fmt.Errorf("%w: year %q", domain.ErrInvalidPeriod, yyyy)
	}
	return Period{Month: time.Month(m), Year: y}, nil
}

func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// String renders the period as MM-YYYY.
func (p Period) String() string { return fmt.Sprintf("%02d-%04d", int(p.Month), p.Year) }

// Compact renders the period as MMYYYY, the interchange form.
func (p Period) Compact() string { return fmt.Sprintf("%02d%04d", int(p.Month), p.Year) }

// Start is the first day of the period.
func (p Period) Start() time.Time { return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC) }

// MonthsBefore counts whole calendar months from p to the month containing t.
// It is negative when p lies after t.
func (p Period) MonthsBefore(t time.Time) int {
	return (t.Year()-p.Year)*12 + int(t.Month()) - int(p.Month)
}

// PeriodInfo describes where a period stands relative to now.
type PeriodInfo struct {
	Period        string              `json:"period"`
	Status        domain.PeriodStatus `json:"status"`
	MonthsElapsed int                 `json:"months_elapsed"`
	IsFiled       bool                `json:"is_filed"`
	IsTimeBarred  bool                `json:"is_time_barred"`
	IsFuture      bool                `json:"is_future"`
	CanEdit       bool                `json:"can_edit"`
}

// PeriodStatus classifies period against the list of already-filed periods.
func (e *Engine) PeriodStatus(period string, filed []string) (PeriodInfo, error) {
	p, err := ParsePeriod(period)
	if err != nil {
		return PeriodInfo{}, err
	}
	info := PeriodInfo{Period: p.String(), MonthsElapsed: p.MonthsBefore(e.Now())}
	info.IsFiled = containsPeriod(filed, p)
	info.IsFuture = info.MonthsElapsed < 0
	info.IsTimeBarred = info.MonthsElapsed > e.table.TimeBarMonths()

	switch {
	case info.IsFiled:
		info.Status = domain.PeriodFiled
	case info.IsFuture:
		info.Status = domain.PeriodFuture
	case info.IsTimeBarred:
		info.Status = domain.PeriodTimeBarred
	default:
		info.Status = domain.PeriodOpen
	}
	info.CanEdit = info.Status == domain.PeriodOpen
	return info, nil
}

func containsPeriod(list []string, p Period) bool {
	for _, s := range list {
		if q, err := ParsePeriod(s); err == nil && q == p {
			return true
		}
	}
	return false
}

// ValidatePeriod checks that a period may be filed: present, well-formed, not
// already filed and not in the future. Periods older than the stale window warn.
func (e *Engine) ValidatePeriod(period string, filed []string) domain.ValidationErrors {
	if strings.TrimSpace(period) == "" {
		return domain.ValidationErrors{domain.NewBlocker(domain.SectionPeriod, CodePeriodMissing,
			"No filing period selected", "Select the month being filed").On("period")}
	}
	info, err := e.PeriodStatus(period, filed)
	if err != nil {
		return domain.ValidationErrors{domain.NewBlocker(domain.SectionPeriod, CodePeriodInvalidFormat,
			fmt.Sprintf("Filing period %q is not valid", period), "Use the MM-YYYY format, e.g. 03-2025").On("period")}
	}
	errs := domain.ValidationErrors{}
	if info.IsFiled {
		errs = append(errs, domain.NewBlocker(domain.SectionPeriod, CodePeriodAlreadyFiled,
			fmt.Sprintf("Returns for %s have already been filed", info.Period),
			"Corrections go into the next period's return").On("period"))
	}
	if info.IsFuture {
		errs = append(errs, domain.NewBlocker(domain.SectionPeriod, CodePeriodInFuture,
			fmt.Sprintf("Cannot file for future period %s", info.Period),
			"Wait until the period has started").On("period"))
	}
	if info.MonthsElapsed > e.table.StalePeriodMonths() {
		errs = append(errs, domain.NewWarning(domain.SectionPeriod, CodePeriodStale,
			fmt.Sprintf("Filing for %s, which is %d months old", info.Period, info.MonthsElapsed),
			"Late fees and interest will apply").On("period"))
	}
	return errs
}

// DueDate is the statutory due date of a return for a period.
func (e *Engine) DueDate(p Period, rt domain.ReturnType) time.Time {
	return time.Date(p.Year, p.Month+1, e.table.DueDay(rt), 0, 0, 0, 0, time.UTC)
}

// LateFeeResult is the fee for filing one return late.
type LateFeeResult struct {
	ReturnType domain.ReturnType `json:"return_type"`
	DueDate    time.Time         `json:"due_date"`
	DaysLate   int               `json:"days_late"`
	PerDay     decimal.Decimal   `json:"per_day"`
	Amount     decimal.Decimal   `json:"amount"`
}

// LateFee computes the fee for filing rt on filedOn. Nil returns use the lower rate.
func (e *Engine) LateFee(p Period, rt domain.ReturnType, isNil bool, filedOn time.Time) LateFeeResult {
	due := e.DueDate(p, rt)
	sched := e.table.LateFeeFor(rt)
	perDay := sched.PerDay
	if isNil {
		perDay = sched.PerDayNil
	}
	res := LateFeeResult{ReturnType: rt, DueDate: due, PerDay: perDay, Amount: zero}
	days := DaysLate(due, filedOn)
	if days <= 0 {
		return res
	}
	acts := sched.Acts
	if acts < 1 {
		acts = 1
	}
	res.DaysLate = days
	res.Amount = perDay.Mul(decimal.NewFromInt(int64(days))).Mul(decimal.NewFromInt(acts))
	return res
}

// DaysLate counts whole days from due to on, zero or negative when on time.
func DaysLate(due, on time.Time) int {
	d := time.Date(on.Year(), on.Month(), on.Day(), 0, 0, 0, 0, time.UTC)
	return int(d.Sub(due).Hours() / 24)
}

// Interest is simple interest on payable at the table's annual rate for days.
func (e *Engine) Interest(payable decimal.Decimal, days int) decimal.Decimal {
	if days <= 0 || !payable.IsPositive() {
		return zero
	}
	return round2(payable.Mul(e.table.InterestRatePercent()).Div(hundred).
		Mul(decimal.NewFromInt(int64(days))).Div(decimal.NewFromInt(365)))
}
