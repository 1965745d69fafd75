package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"gstfiling/internal/domain"
	"gstfiling/internal/port"
)

type invoiceRepo struct {
	db sqlx.ExtContext
}

// NewInvoiceRepo creates a new PostgreSQL-backed InvoiceRepository.
func NewInvoiceRepo(db sqlx.ExtContext) port.InvoiceRepository {
	return &invoiceRepo{db: db}
}

func (r *invoiceRepo) ListByFiling(ctx context.Context, filingID uuid.UUID) ([]domain.Invoice, error) {
	invoices := []domain.Invoice{}
	err := sqlx.SelectContext(ctx, r.db, &invoices,
		"SELECT * FROM invoices WHERE filing_id = $1 ORDER BY created_at, invoice_number", filingID)
	if err != nil {
		return nil, fmt.Errorf("invoiceRepo.ListByFiling: %w", err)
	}
	return invoices, nil
}

// ReplaceForFiling swaps the filing's stored invoices for the given set.
// Callers run it inside a transaction.
func (r *invoiceRepo) ReplaceForFiling(ctx context.Context, filingID uuid.UUID, invoices []domain.Invoice) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM invoices WHERE filing_id = $1", filingID); err != nil {
		return fmt.Errorf("invoiceRepo.ReplaceForFiling: %w", err)
	}
	if len(invoices) == 0 {
		return nil
	}
	for i := range invoices {
		invoices[i].FilingID = filingID
	}

	query := `INSERT INTO invoices (id, filing_id, filer_gstin, period, invoice_number, invoice_date,
			supply_scope, counterparty_gstin, counterparty_name, place_of_supply, taxable_value,
			rate, tax_a, tax_b, tax_c, total_value, category, created_at)
		VALUES (:id, :filing_id, :filer_gstin, :period, :invoice_number, :invoice_date,
			:supply_scope, :counterparty_gstin, :counterparty_name, :place_of_supply, :taxable_value,
			:rate, :tax_a, :tax_b, :tax_c, :total_value, :category, :created_at)`

	if _, err := sqlx.NamedExecContext(ctx, r.db, query, invoices); err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return fmt.Errorf("invoiceRepo.ReplaceForFiling: %w", domain.ErrConflict)
		}
		return fmt.Errorf("invoiceRepo.ReplaceForFiling: %w", err)
	}
	return nil
}
