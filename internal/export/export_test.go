package export_test

import (
	"bytes"
	"encoding/csv"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"gstfiling/internal/domain"
	"gstfiling/internal/export"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleFiling() *domain.Filing {
	return &domain.Filing{
		GSTIN:  "29ABCDE1234F1Z5",
		Period: "06-2025",
		State:  domain.StateDetailedReturnValidated,
		Invoices: []domain.Invoice{
			{
				Number:        "INV-001",
				Date:          "2025-06-10",
				Scope:         domain.ScopeIntra,
				PlaceOfSupply: "29",
				TaxableValue:  d("10000"),
				Rate:          d("18"),
				TaxA:          d("900"),
				TaxB:          d("900"),
				TotalValue:    d("11800"),
				Category:      domain.CategoryB2CSmall,
			},
			{
				Number:            "INV-002",
				Date:              "2025-06-12",
				Scope:             domain.ScopeInter,
				CounterpartyGSTIN: "07FGHIJ5678K2Z3",
				CounterpartyName:  "Delhi Retail, LLP",
				PlaceOfSupply:     "07",
				TaxableValue:      d("50000.50"),
				Rate:              d("12"),
				TaxC:              d("6000.06"),
				TotalValue:        d("56000.56"),
				Category:          domain.CategoryB2B,
			},
		},
		Detailed: &domain.DetailedReturn{
			TaxableValue: d("60000.50"),
			TaxA:         d("900"),
			TaxB:         d("900"),
			TaxC:         d("6000.06"),
			InvoiceCount: 2,
		},
	}
}

func TestWriteDetailedCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteDetailedCSV(&buf, sampleFiling()))

	raw := buf.Bytes()
	require.True(t, bytes.HasPrefix(raw, export.BOM))

	rows, err := csv.NewReader(bytes.NewReader(raw[len(export.BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, export.Columns, rows[0])
	assert.Equal(t, "INV-001", rows[1][0])
	assert.Equal(t, "B2CS", rows[1][2])
	assert.Equal(t, "900.00", rows[1][9])
	assert.Equal(t, "Delhi Retail, LLP", rows[2][5])
	assert.Equal(t, "6000.06", rows[2][11])

	total := rows[3]
	assert.Equal(t, "TOTAL", total[0])
	assert.Equal(t, "2 invoice(s)", total[2])
	assert.Equal(t, "60000.50", total[7])
	assert.Equal(t, "67800.56", total[12])
}

func TestWriteDetailedCSV_NoDetailedReturn(t *testing.T) {
	f := sampleFiling()
	f.Detailed = nil

	var buf bytes.Buffer
	require.NoError(t, export.WriteDetailedCSV(&buf, f))

	rows, err := csv.NewReader(bytes.NewReader(buf.Bytes()[len(export.BOM):])).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestBuildFilename(t *testing.T) {
	assert.Equal(t, "29ABCDE1234F1Z5_06-2025_detailed.csv", export.BuildFilename("29ABCDE1234F1Z5", "06-2025", "csv"))
	assert.Equal(t, "a_b", export.SanitizeFilename("  a / b  "))
}

func TestWriteXLSX_ReadsBack(t *testing.T) {
	f := sampleFiling()

	var buf bytes.Buffer
	require.NoError(t, export.WriteXLSX(&buf, f))

	wb, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer func() { _ = wb.Close() }()
	assert.Equal(t, []string{"Invoices", "Summary"}, wb.GetSheetList())

	summary, err := wb.GetRows("Summary")
	require.NoError(t, err)
	assert.Equal(t, []string{"GSTIN", "29ABCDE1234F1Z5"}, summary[0])

	invoices, err := export.ReadSalesRegister(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, invoices, 2)
	for i, got := range invoices {
		want := f.Invoices[i]
		assert.Equal(t, want.Number, got.Number)
		assert.Equal(t, want.Scope, got.Scope)
		assert.Equal(t, want.CounterpartyGSTIN, got.CounterpartyGSTIN)
		assert.True(t, want.TaxableValue.Equal(got.TaxableValue), "taxable %s", got.TaxableValue)
		assert.True(t, want.TaxC.Equal(got.TaxC), "tax c %s", got.TaxC)
	}
}

// register builds a single-sheet workbook from string rows.
func register(t *testing.T, rows ...[]interface{}) *bytes.Buffer {
	t.Helper()
	wb := excelize.NewFile()
	defer func() { _ = wb.Close() }()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, wb.SetSheetRow("Sheet1", cell, &r))
	}
	var buf bytes.Buffer
	require.NoError(t, wb.Write(&buf))
	return &buf
}

func TestReadSalesRegister_FreeColumnOrder(t *testing.T) {
	buf := register(t,
		[]interface{}{"Rate", "Invoice Number", "invoice_date", "SUPPLY SCOPE", "Place of Supply", "Taxable Value", "Tax A", "Tax B", "Notes"},
		[]interface{}{"18%", "A-1", "01-06-2025", "Intra", "29", "1,000.00", "90", "90", "ignored"},
		[]interface{}{},
	)

	invoices, err := export.ReadSalesRegister(buf)

	require.NoError(t, err)
	require.Len(t, invoices, 1)
	inv := invoices[0]
	assert.Equal(t, "A-1", inv.Number)
	assert.Equal(t, domain.ScopeIntra, inv.Scope)
	assert.True(t, inv.Rate.Equal(d("18")))
	assert.True(t, inv.TaxableValue.Equal(d("1000")))
	assert.True(t, inv.TaxC.IsZero())
}

func TestReadSalesRegister_RowErrorsJoined(t *testing.T) {
	buf := register(t,
		[]interface{}{"Invoice Number", "Invoice Date", "Supply Scope", "Place Of Supply", "Taxable Value", "Rate"},
		[]interface{}{"A-1", "2025-06-01", "intra", "29", "abc", "18"},
		[]interface{}{"A-2", "2025-06-01", "intra", "29", "500", "18"},
		[]interface{}{"", "2025-06-01", "inter", "07", "700", ""},
	)

	invoices, err := export.ReadSalesRegister(buf)

	require.Error(t, err)
	assert.Len(t, invoices, 1)
	assert.Contains(t, err.Error(), "row 2: taxable_value \"abc\" is not a number")
	assert.Contains(t, err.Error(), "row 4:")
	assert.Contains(t, err.Error(), "rate is empty")
	assert.Contains(t, err.Error(), "invoice_number is empty")
}

func TestReadSalesRegister_MissingColumns(t *testing.T) {
	buf := register(t, []interface{}{"Invoice Number", "Rate"})

	_, err := export.ReadSalesRegister(buf)

	assert.True(t, errors.Is(err, domain.ErrInvalidSpreadsheet))
	assert.Contains(t, err.Error(), "invoice_date")
}

func TestReadSalesRegister_NotAWorkbook(t *testing.T) {
	_, err := export.ReadSalesRegister(bytes.NewReader([]byte("not a zip")))
	assert.ErrorIs(t, err, domain.ErrInvalidSpreadsheet)
}
