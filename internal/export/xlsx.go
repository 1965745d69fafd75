package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"gstfiling/internal/domain"
)

const (
	invoiceSheet = "Invoices"
	summarySheet = "Summary"
)

// WriteXLSX writes a workbook with an Invoices sheet (same layout as the
// CSV) and a Summary sheet holding both returns' figures.
func WriteXLSX(out io.Writer, f *domain.Filing) error {
	wb := excelize.NewFile()
	defer func() { _ = wb.Close() }()

	if err := wb.SetSheetName("Sheet1", invoiceSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := setRow(wb, invoiceSheet, 1, toCells(Columns)); err != nil {
		return err
	}
	for i := range f.Invoices {
		if err := setRow(wb, invoiceSheet, i+2, invoiceCells(&f.Invoices[i])); err != nil {
			return err
		}
	}
	if err := wb.SetPanes(invoiceSheet, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := wb.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("add summary sheet: %w", err)
	}
	for i, row := range summaryRows(f) {
		if err := setRow(wb, summarySheet, i+1, row); err != nil {
			return err
		}
	}

	if err := wb.Write(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setRow(wb *excelize.File, sheet string, row int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := wb.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toCells(vals []string) []interface{} {
	out := make([]interface{}, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

func invoiceCells(inv *domain.Invoice) []interface{} {
	return []interface{}{
		inv.Number,
		inv.Date,
		string(inv.Category),
		string(inv.Scope),
		inv.CounterpartyGSTIN,
		inv.CounterpartyName,
		inv.PlaceOfSupply,
		inv.TaxableValue.InexactFloat64(),
		inv.Rate.InexactFloat64(),
		inv.TaxA.InexactFloat64(),
		inv.TaxB.InexactFloat64(),
		inv.TaxC.InexactFloat64(),
		inv.TotalValue.InexactFloat64(),
	}
}

func summaryRows(f *domain.Filing) [][]interface{} {
	rows := [][]interface{}{
		{"GSTIN", f.GSTIN},
		{"Period", f.Period},
		{"State", string(f.State)},
	}
	if dr := f.Detailed; dr != nil {
		rows = append(rows,
			[]interface{}{"Detailed return"},
			[]interface{}{"Invoices", dr.InvoiceCount},
			[]interface{}{"Nil return", dr.IsNil},
			[]interface{}{"Taxable value", dr.TaxableValue.InexactFloat64()},
			[]interface{}{"Tax A", dr.TaxA.InexactFloat64()},
			[]interface{}{"Tax B", dr.TaxB.InexactFloat64()},
			[]interface{}{"Tax C", dr.TaxC.InexactFloat64()},
			[]interface{}{"B2B", dr.B2BCount, dr.B2BTaxable.InexactFloat64()},
			[]interface{}{"B2CL", dr.B2CLCount, dr.B2CLTaxable.InexactFloat64()},
			[]interface{}{"B2CS", dr.B2CSCount, dr.B2CSTaxable.InexactFloat64()},
		)
	}
	if sr := f.Summary; sr != nil {
		rows = append(rows,
			[]interface{}{"Summary return"},
			[]interface{}{"Outward tax liability", sr.OutwardTaxLiability.InexactFloat64()},
			[]interface{}{"Net ITC", sr.NetITC.InexactFloat64()},
			[]interface{}{"Payable A", sr.PayableA.InexactFloat64()},
			[]interface{}{"Payable B", sr.PayableB.InexactFloat64()},
			[]interface{}{"Payable C", sr.PayableC.InexactFloat64()},
			[]interface{}{"Total payable", sr.TotalPayable.InexactFloat64()},
		)
	}
	return rows
}

// registerColumn names the invoice field a sales-register column fills.
type registerColumn string

const (
	colNumber       registerColumn = "invoice_number"
	colDate         registerColumn = "invoice_date"
	colScope        registerColumn = "supply_scope"
	colCounterparty registerColumn = "counterparty_gstin"
	colName         registerColumn = "counterparty_name"
	colPlace        registerColumn = "place_of_supply"
	colTaxable      registerColumn = "taxable_value"
	colRate         registerColumn = "rate"
	colTaxA         registerColumn = "tax_a"
	colTaxB         registerColumn = "tax_b"
	colTaxC         registerColumn = "tax_c"
	colTotal        registerColumn = "total_value"
)

var requiredColumns = []registerColumn{colNumber, colDate, colScope, colPlace, colTaxable, colRate}

// headerKey turns "Place Of Supply" into "place_of_supply".
func headerKey(h string) registerColumn {
	return registerColumn(strings.Join(strings.Fields(strings.ToLower(h)), "_"))
}

// ReadSalesRegister reads invoices from the first sheet of an XLSX workbook.
// Row 1 is the header; column order is free and unknown columns are ignored.
// Every bad row is reported, joined into one error.
func ReadSalesRegister(r io.Reader) ([]domain.Invoice, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidSpreadsheet, err.Error())
	}
	defer func() { _ = wb.Close() }()

	rows, err := wb.GetRows(wb.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: workbook is empty", domain.ErrInvalidSpreadsheet)
	}

	index := make(map[registerColumn]int, len(rows[0]))
	for i, h := range rows[0] {
		index[headerKey(h)] = i
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := index[c]; !ok {
			missing = append(missing, string(c))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing column(s) %s", domain.ErrInvalidSpreadsheet, strings.Join(missing, ", "))
	}

	invoices := make([]domain.Invoice, 0, len(rows)-1)
	var rowErrs []error
	for n, row := range rows[1:] {
		if blank(row) {
			continue
		}
		inv, err := parseRegisterRow(row, index)
		if err != nil {
			rowErrs = append(rowErrs, fmt.Errorf("row %d: %w", n+2, err))
			continue
		}
		invoices = append(invoices, inv)
	}
	if len(rowErrs) > 0 {
		return invoices, errors.Join(rowErrs...)
	}
	return invoices, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseRegisterRow(row []string, index map[registerColumn]int) (domain.Invoice, error) {
	cell := func(c registerColumn) string {
		i, ok := index[c]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var errs []error
	amount := func(c registerColumn, required bool) decimal.Decimal {
		s := strings.ReplaceAll(cell(c), ",", "")
		if s == "" {
			if required {
				errs = append(errs, fmt.Errorf("%s is empty", c))
			}
			return decimal.Zero
		}
		v, err := decimal.NewFromString(strings.TrimSuffix(s, "%"))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s %q is not a number", c, s))
			return decimal.Zero
		}
		return v
	}

	inv := domain.Invoice{
		Number:            cell(colNumber),
		Date:              cell(colDate),
		Scope:             domain.SupplyScope(strings.ToLower(cell(colScope))),
		CounterpartyGSTIN: strings.ToUpper(cell(colCounterparty)),
		CounterpartyName:  cell(colName),
		PlaceOfSupply:     cell(colPlace),
		TaxableValue:      amount(colTaxable, true),
		Rate:              amount(colRate, true),
		TaxA:              amount(colTaxA, false),
		TaxB:              amount(colTaxB, false),
		TaxC:              amount(colTaxC, false),
		TotalValue:        amount(colTotal, false),
	}
	if inv.Number == "" {
		errs = append(errs, fmt.Errorf("%s is empty", colNumber))
	}
	return inv, errors.Join(errs...)
}
