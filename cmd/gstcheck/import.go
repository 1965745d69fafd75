package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"gstfiling/internal/domain"
	"gstfiling/internal/export"
	"gstfiling/internal/filing"
	"gstfiling/internal/logger"
)

var importCmd = &cobra.Command{
	Use:   "import <register.xlsx>",
	Short: "Check an XLSX sales register before uploading it",
	Long: `Reads a sales register (first sheet, header row, free column order) and
validates every invoice the way POST .../invoices would, then aggregates the
accepted ones into a detailed-return preview. Nothing is stored.`,
	Example: `  gstcheck import june.xlsx --gstin 29ABCDE1234F1Z5 --period 06-2025`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		machine, err := newMachine(cmd)
		if err != nil {
			return err
		}
		gstin, _ := cmd.Flags().GetString("gstin")
		period, _ := cmd.Flags().GetString("period")
		return runImport(cmd.OutOrStdout(), machine, args[0], gstin, period)
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().String("gstin", "", "Filer GSTIN, used for duplicate detection")
	importCmd.Flags().String("period", "", "Return period (MM-YYYY), used for duplicate detection")
}

// RegisterReport is what import prints.
type RegisterReport struct {
	Rows      int                        `json:"rows"`
	Accepted  int                        `json:"accepted"`
	Rejected  int                        `json:"rejected"`
	RowErrors []string                   `json:"row_errors,omitempty"`
	Findings  domain.ValidationErrors    `json:"findings"`
	Detailed  *domain.DetailedReturn     `json:"detailed_return,omitempty"`
	Summary   domain.ValidationErrors    `json:"aggregate_findings,omitempty"`
	ByInvoice map[string]domain.Category `json:"categories"`
}

func runImport(out io.Writer, machine *filing.Machine, path, gstin, period string) error {
	log := logger.WithComponent("import")
	engine := machine.Engine()

	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open register: %w", err)
	}
	defer func() { _ = src.Close() }()

	invoices, readErr := export.ReadSalesRegister(src)
	if readErr != nil && errors.Is(readErr, domain.ErrInvalidSpreadsheet) {
		return readErr
	}

	report := RegisterReport{
		Findings:  domain.ValidationErrors{},
		ByInvoice: make(map[string]domain.Category, len(invoices)),
	}
	if readErr != nil {
		report.RowErrors = splitJoined(readErr)
	}

	accepted := make([]domain.Invoice, 0, len(invoices))
	for i := range invoices {
		inv := invoices[i]
		inv.FilerGSTIN = gstin
		inv.Period = period
		res := engine.ValidateInvoice(&inv)
		report.Findings = append(report.Findings, res.Errors...)
		if !res.Accepted {
			report.Rejected++
			continue
		}
		inv.Category = res.Category
		report.ByInvoice[inv.Number] = res.Category
		accepted = append(accepted, inv)
	}
	report.Findings = append(report.Findings, engine.FindDuplicates(accepted)...)
	report.Rows = len(invoices) + len(report.RowErrors)
	report.Accepted = len(accepted)

	if len(accepted) > 0 {
		report.Detailed, report.Summary = engine.Aggregate(accepted, false)
	}

	log.Info().Str("file", path).Int("accepted", report.Accepted).Int("rejected", report.Rejected).
		Int("row_errors", len(report.RowErrors)).Msg("register checked")

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if report.Rejected > 0 || len(report.RowErrors) > 0 || report.Findings.HasBlocker() {
		return fmt.Errorf("register has %d rejected invoice(s) and %d unreadable row(s)", report.Rejected, len(report.RowErrors))
	}
	return nil
}

// splitJoined unpacks an errors.Join result into its messages.
func splitJoined(err error) []string {
	var joined interface{ Unwrap() []error }
	if !errors.As(err, &joined) {
		return []string{err.Error()}
	}
	errs := joined.Unwrap()
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Error())
	}
	return out
}
