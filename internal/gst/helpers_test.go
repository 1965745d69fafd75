package gst_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"gstfiling/internal/domain"
	"gstfiling/internal/gst"
	"gstfiling/internal/taxtable"
)

const (
	filerGSTIN     = "29ABCDE1234F1Z5"
	recipientGSTIN = "07FGHIJ5678K2Z3"
)

var fixedNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func newEngine() *gst.Engine {
	return gst.NewEngine(taxtable.Default(), gst.Options{Clock: func() time.Time { return fixedNow }})
}

func newEngineAssuming() *gst.Engine {
	return gst.NewEngine(taxtable.Default(), gst.Options{
		AssumeStandardRate: true,
		Clock:              func() time.Time { return fixedNow },
	})
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func validProfile() *domain.Profile {
	return &domain.Profile{
		GSTIN:                filerGSTIN,
		LegalName:            "Acme Traders Private Limited",
		RegistrationCategory: domain.RegistrationRegular,
		FilingFrequency:      domain.FrequencyMonthly,
	}
}

func intraInvoice() domain.Invoice {
	return domain.Invoice{
		FilerGSTIN:    filerGSTIN,
		Period:        "06-2025",
		Number:        "INV-001",
		Date:          "2025-06-01",
		Scope:         domain.ScopeIntra,
		PlaceOfSupply: "29",
		TaxableValue:  d("10000"),
		Rate:          d("18"),
		TaxA:          d("900"),
		TaxB:          d("900"),
		TotalValue:    d("11800"),
	}
}

func interB2BInvoice() domain.Invoice {
	return domain.Invoice{
		FilerGSTIN:        filerGSTIN,
		Period:            "06-2025",
		Number:            "INV-002",
		Date:              "2025-06-03",
		Scope:             domain.ScopeInter,
		CounterpartyGSTIN: recipientGSTIN,
		PlaceOfSupply:     "07",
		TaxableValue:      d("50000"),
		Rate:              d("12"),
		TaxC:              d("6000"),
		TotalValue:        d("56000"),
	}
}

func codesOf(errs domain.ValidationErrors) []string { return errs.Codes() }

func findCode(errs domain.ValidationErrors, code string) (domain.ValidationError, bool) {
	for _, e := range errs {
		if e.Code == code {
			return e, true
		}
	}
	return domain.ValidationError{}, false
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Truef(t, d(want).Equal(got), "want %s, got %s %v", want, got.String(), msgAndArgs)
}
