package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"gstfiling/internal/domain"
	"gstfiling/internal/filing"
)

func writeRegister(t *testing.T, rows ...[]interface{}) string {
	t.Helper()
	wb := excelize.NewFile()
	defer func() { _ = wb.Close() }()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, wb.SetSheetRow("Sheet1", cell, &r))
	}
	path := filepath.Join(t.TempDir(), "register.xlsx")
	require.NoError(t, wb.SaveAs(path))
	return path
}

var header = []interface{}{"Invoice Number", "Invoice Date", "Supply Scope", "Place Of Supply", "Taxable Value", "Rate", "Tax A", "Tax B", "Tax C"}

func TestRunImport_CleanRegister(t *testing.T) {
	path := writeRegister(t, header,
		[]interface{}{"A-1", "2025-06-01", "intra", "29", "1000", "18", "90", "90", "0"},
		[]interface{}{"A-2", "2025-06-02", "inter", "07", "2000", "12", "0", "0", "240"},
	)

	var out bytes.Buffer
	err := runImport(&out, filing.NewMachine(nil), path, "29ABCDE1234F1Z5", "06-2025")

	require.NoError(t, err)
	var report RegisterReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, 2, report.Rows)
	assert.Equal(t, 2, report.Accepted)
	require.NotNil(t, report.Detailed)
	assert.Equal(t, 2, report.Detailed.InvoiceCount)
	assert.True(t, report.Detailed.TaxableValue.Equal(decimal.NewFromInt(3000)), report.Detailed.TaxableValue.String())
}

func TestRunImport_RejectsBadInvoices(t *testing.T) {
	path := writeRegister(t, header,
		[]interface{}{"A-1", "2025-06-01", "intra", "29", "1000", "18", "50", "50", "0"},
		[]interface{}{"A-2", "2025-06-02", "intra", "29", "oops", "18", "0", "0", "0"},
	)

	var out bytes.Buffer
	err := runImport(&out, filing.NewMachine(nil), path, "", "")

	require.Error(t, err)
	var report RegisterReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, 1, report.Rejected)
	assert.Len(t, report.RowErrors, 1)
	assert.Contains(t, report.Findings.Codes(), "TAX_MISMATCH")
}

func TestRunValidate_UnfileableSnapshot(t *testing.T) {
	f := domain.Filing{
		GSTIN:        "29ABCDE1234F1Z5",
		Period:       "06-2025",
		State:        domain.StateProfileIncomplete,
		PeriodStatus: domain.PeriodOpen,
		Invoices:     []domain.Invoice{},
	}
	raw, err := json.Marshal(f)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "filing.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	var out bytes.Buffer
	err = runValidate(&out, filing.NewMachine(nil), path, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be filed")
	var res filing.ComprehensiveResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.False(t, res.CanFile)
	assert.NotEmpty(t, res.Errors)
}

func TestRunValidate_MissingFile(t *testing.T) {
	err := runValidate(&bytes.Buffer{}, filing.NewMachine(nil), filepath.Join(t.TempDir(), "nope.json"), nil)
	assert.ErrorContains(t, err, "read filing")
}
