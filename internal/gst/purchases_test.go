package gst_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gstfiling/internal/domain"
	"gstfiling/internal/gst"
)

func purchase(supplier, number, taxable, tax string) domain.PurchaseRecord {
	return domain.PurchaseRecord{SupplierGSTIN: supplier, InvoiceNumber: number, InvoiceDate: "2025-06-02", TaxableValue: d(taxable), Tax: d(tax)}
}

func TestReconcilePurchases(t *testing.T) {
	books := []domain.PurchaseRecord{
		purchase(recipientGSTIN, "P-1", "1000", "180"),
		purchase(recipientGSTIN, "P-2", "500", "90"),
		purchase("27AAACB2230M1Z2", "X-9", "200", "36"),
	}
	reported := []domain.PurchaseRecord{
		purchase(recipientGSTIN, "p-1", "1000.40", "180"),
		purchase(recipientGSTIN, "P-2", "520", "93.60"),
		purchase("33AAACC1111Q1Z9", "Z-1", "700", "126"),
	}

	m := newEngine().ReconcilePurchases(books, reported)

	require.Len(t, m.Matched, 1)
	assert.Equal(t, "P-1", m.Matched[0].InvoiceNumber)
	require.Len(t, m.AmountMismatch, 1)
	assertDec(t, "-20", m.AmountMismatch[0].TaxableDiff)
	require.Len(t, m.MissingInReported, 1)
	assert.Equal(t, "X-9", m.MissingInReported[0].InvoiceNumber)
	require.Len(t, m.MissingInBooks, 1)
	assert.Equal(t, "Z-1", m.MissingInBooks[0].InvoiceNumber)
	assertDec(t, "1000", m.MatchedValue)
	assertDec(t, "200", m.UnmatchedValue)
	assertDec(t, "83.33", m.MatchPercentage)

	assert.Equal(t, []string{gst.CodeUnmatchedPurchases, gst.CodeProvisionalITCAdvisory, gst.CodePurchaseAmountMismatch}, codesOf(m.Advisories))
	for _, a := range m.Advisories {
		assert.Equal(t, domain.SeverityInfo, a.Severity, a.Code)
	}
	assert.Contains(t, m.Advisories[1].Message, "10.00")
}

func TestReconcilePurchases_AllMatched(t *testing.T) {
	set := []domain.PurchaseRecord{purchase(recipientGSTIN, "P-1", "1000", "180")}

	m := newEngine().ReconcilePurchases(set, set)

	assertDec(t, "100", m.MatchPercentage)
	assert.Equal(t, []string{gst.CodePurchasesReconciled}, codesOf(m.Advisories))
}

func TestReconcilePurchases_Empty(t *testing.T) {
	m := newEngine().ReconcilePurchases(nil, nil)

	assertDec(t, "100", m.MatchPercentage)
	assert.NotNil(t, m.Matched)
	assert.False(t, m.Advisories.HasBlocker())
}
