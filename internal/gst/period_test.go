package gst_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gstfiling/internal/domain"
	"gstfiling/internal/gst"
)

func TestParsePeriod(t *testing.T) {
	p, err := gst.ParsePeriod("03-2025")
	require.NoError(t, err)
	assert.Equal(t, gst.Period{Month: time.March, Year: 2025}, p)
	assert.Equal(t, "03-2025", p.String())
	assert.Equal(t, "032025", p.Compact())

	compact, err := gst.ParsePeriod("032025")
	require.NoError(t, err)
	assert.Equal(t, p, compact)

	for _, bad := range []string{"", "3-2025", "13-2025", "00-2025", "03-2016", "03/2025x", "ab-2025", "+1-2025", "+12025", "-1-2025", "1 -2025"} {
		_, err := gst.ParsePeriod(bad)
		assert.ErrorIs(t, err, domain.ErrInvalidPeriod, bad)
	}
}

func TestPeriodStatus(t *testing.T) {
	tests := []struct {
		period string
		filed  []string
		status domain.PeriodStatus
		months int
		edit   bool
	}{
		{"06-2025", nil, domain.PeriodOpen, 0, true},
		{"03-2025", nil, domain.PeriodOpen, 3, true},
		{"02-2025", nil, domain.PeriodTimeBarred, 4, false},
		{"07-2025", nil, domain.PeriodFuture, -1, false},
		{"05-2025", []string{"05-2025"}, domain.PeriodFiled, 1, false},
		{"05-2025", []string{"052025"}, domain.PeriodFiled, 1, false},
	}
	e := newEngine()
	for _, tt := range tests {
		info, err := e.PeriodStatus(tt.period, tt.filed)
		require.NoError(t, err)
		assert.Equal(t, tt.status, info.Status, tt.period)
		assert.Equal(t, tt.months, info.MonthsElapsed, tt.period)
		assert.Equal(t, tt.edit, info.CanEdit, tt.period)
	}

	_, err := e.PeriodStatus("2025-06", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)
}

func TestValidatePeriod(t *testing.T) {
	tests := []struct {
		name   string
		period string
		filed  []string
		want   []string
	}{
		{"current", "06-2025", nil, []string{}},
		{"missing", " ", nil, []string{gst.CodePeriodMissing}},
		{"malformed", "13-2025", nil, []string{gst.CodePeriodInvalidFormat}},
		{"future", "08-2025", nil, []string{gst.CodePeriodInFuture}},
		{"filed", "05-2025", []string{"05-2025"}, []string{gst.CodePeriodAlreadyFiled}},
		{"stale", "05-2024", nil, []string{gst.CodePeriodStale}},
		{"twelve months is not stale", "06-2024", nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := newEngine().ValidatePeriod(tt.period, tt.filed)
			assert.Equal(t, tt.want, codesOf(errs))
		})
	}
}

func TestValidatePeriod_StaleIsWarningOnly(t *testing.T) {
	errs := newEngine().ValidatePeriod("01-2023", nil)

	require.Len(t, errs, 1)
	assert.Equal(t, domain.SeverityWarning, errs[0].Severity)
	assert.False(t, errs.HasBlocker())
}

func TestDueDate(t *testing.T) {
	e := newEngine()
	mar := gst.Period{Month: time.March, Year: 2025}
	dec := gst.Period{Month: time.December, Year: 2024}

	assert.Equal(t, time.Date(2025, 4, 11, 0, 0, 0, 0, time.UTC), e.DueDate(mar, domain.ReturnDetailed))
	assert.Equal(t, time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC), e.DueDate(mar, domain.ReturnSummary))
	assert.Equal(t, time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC), e.DueDate(dec, domain.ReturnSummary))
}

func TestLateFee(t *testing.T) {
	e := newEngine()
	apr := gst.Period{Month: time.April, Year: 2025}
	filedOn := time.Date(2025, 5, 30, 16, 45, 0, 0, time.UTC)

	summary := e.LateFee(apr, domain.ReturnSummary, false, filedOn)
	assert.Equal(t, 10, summary.DaysLate)
	assertDec(t, "1000", summary.Amount)

	nilSummary := e.LateFee(apr, domain.ReturnSummary, true, filedOn)
	assertDec(t, "400", nilSummary.Amount)

	detailedFee := e.LateFee(apr, domain.ReturnDetailed, false, filedOn)
	assert.Equal(t, 19, detailedFee.DaysLate)
	assertDec(t, "380", detailedFee.Amount)

	onTime := e.LateFee(apr, domain.ReturnSummary, false, time.Date(2025, 5, 20, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, 0, onTime.DaysLate)
	assert.True(t, onTime.Amount.IsZero())
}

func TestInterest(t *testing.T) {
	e := newEngine()

	assertDec(t, "180", e.Interest(d("36500"), 10))
	assert.True(t, e.Interest(d("36500"), 0).IsZero())
	assert.True(t, e.Interest(d("0"), 30).IsZero())
}
