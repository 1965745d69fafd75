package gst_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gstfiling/internal/domain"
	"gstfiling/internal/gst"
)

func TestDetailedPayload(t *testing.T) {
	june := gst.Period{Month: time.June, Year: 2025}

	b2b1 := interB2BInvoice()
	b2b2 := interB2BInvoice()
	b2b2.Number = "INV-004"
	large := interB2BInvoice()
	large.Number = "INV-003"
	large.CounterpartyGSTIN = ""
	large.PlaceOfSupply = "27-Maharashtra"
	large.TaxableValue = d("300000")
	large.Rate = d("5")
	large.TaxC = d("15000")
	large.TotalValue = d("315000")
	small1 := intraInvoice()
	small2 := intraInvoice()
	small2.Number = "INV-005"

	p := newEngine().DetailedPayload(filerGSTIN, june, []domain.Invoice{b2b1, small1, large, b2b2, small2})

	assert.Equal(t, "062025", p.FP)
	assert.Equal(t, filerGSTIN, p.GSTIN)

	require.Len(t, p.B2B, 1)
	assert.Equal(t, recipientGSTIN, p.B2B[0].CTIN)
	require.Len(t, p.B2B[0].Invoices, 2)
	assert.Equal(t, "03-06-2025", p.B2B[0].Invoices[0].Date)
	assert.Equal(t, "N", p.B2B[0].Invoices[0].ReverseCharge)
	assertDec(t, "6000", p.B2B[0].Invoices[0].Items[0].Detail.IGST)

	require.Len(t, p.B2CL, 1)
	assert.Equal(t, "27", p.B2CL[0].PlaceOfSupply)
	assert.Empty(t, p.B2CL[0].Invoices[0].ReverseCharge)

	require.Len(t, p.B2CS, 1)
	assert.Equal(t, "INTRA", p.B2CS[0].SupplyType)
	assert.Equal(t, "OE", p.B2CS[0].Type)
	assertDec(t, "20000", p.B2CS[0].Taxable)
	assertDec(t, "1800", p.B2CS[0].CGST)

	assert.Equal(t, gst.DocIssue{Total: 5, From: "INV-001", To: "INV-005"}, p.DocIssue)
}

func TestDetailedPayload_EmptyCategoriesMarshalAsArrays(t *testing.T) {
	p := newEngine().DetailedPayload(filerGSTIN, gst.Period{Month: time.June, Year: 2025}, nil)

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"b2b":[]`)
	assert.Contains(t, string(raw), `"b2cs":[]`)
}

func TestSummaryPayload(t *testing.T) {
	sr := &domain.SummaryReturn{
		OutwardTaxableValue: d("500000"),
		OutwardTaxLiability: d("90000"),
		LiabilityA:          d("45000"),
		LiabilityB:          d("45000"),
		ITCAvailable:        d("10000"),
		ITCBlocked:          d("2000"),
		ITCReversed:         d("1000"),
		NetITC:              d("7000"),
		ITCA:                d("3500"),
		ITCB:                d("3500"),
		PayableA:            d("41500"),
		PayableB:            d("41500"),
		TotalPayable:        d("83000"),
	}

	p := newEngine().SummaryPayload(filerGSTIN, gst.Period{Month: time.June, Year: 2025}, sr)

	assert.Equal(t, "062025", p.RetPeriod)
	assertDec(t, "500000", p.SupDetails.Outward.Taxable)
	assertDec(t, "45000", p.SupDetails.Outward.CGST)
	assertDec(t, "2000", p.ITCElg.Ineligible)
	assertDec(t, "3500", p.ITCElg.Net.SGST)
	assertDec(t, "41500", p.TaxPmt.Payable.CGST)
	assertDec(t, "83000", p.TaxPmt.Total)
}
