package port

import (
	"context"

	"github.com/google/uuid"

	"gstfiling/internal/domain"
)

// ProfileRepository defines persistence operations for filer profiles.
type ProfileRepository interface {
	Upsert(ctx context.Context, profile *domain.Profile) error
	GetByGSTIN(ctx context.Context, gstin string) (*domain.Profile, error)
}

// FilingRepository defines persistence operations for filings. Invoices and
// the profile are not loaded here.
type FilingRepository interface {
	Create(ctx context.Context, filing *domain.Filing) error
	GetByKey(ctx context.Context, gstin, period string) (*domain.Filing, error)
	// GetForUpdate row-locks the filing until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, gstin, period string) (*domain.Filing, error)
	// Update writes the filing if its stored version still equals
	// filing.Version, then increments the version.
	Update(ctx context.Context, filing *domain.Filing) error
	ListFiledPeriods(ctx context.Context, gstin string) ([]string, error)
}

// InvoiceRepository defines persistence operations for a filing's invoices.
type InvoiceRepository interface {
	ListByFiling(ctx context.Context, filingID uuid.UUID) ([]domain.Invoice, error)
	ReplaceForFiling(ctx context.Context, filingID uuid.UUID, invoices []domain.Invoice) error
}

// Repos groups the repositories bound to one transaction.
type Repos struct {
	Profiles ProfileRepository
	Filings  FilingRepository
	Invoices InvoiceRepository
}

// TxRunner runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repos) error) error
}
