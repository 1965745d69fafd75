package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"gstfiling/internal/domain"
)

// MockInvoiceRepo is a mock implementation of port.InvoiceRepository.
type MockInvoiceRepo struct {
	mock.Mock
}

func (m *MockInvoiceRepo) ListByFiling(ctx context.Context, filingID uuid.UUID) ([]domain.Invoice, error) {
	args := m.Called(ctx, filingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepo) ReplaceForFiling(ctx context.Context, filingID uuid.UUID, invoices []domain.Invoice) error {
	args := m.Called(ctx, filingID, invoices)
	return args.Error(0)
}
