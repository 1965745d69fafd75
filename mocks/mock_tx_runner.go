package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gstfiling/internal/port"
)

// MockTxRunner is a mock implementation of port.TxRunner. When the
// expectation returns nil it runs fn against Repos and returns fn's error.
type MockTxRunner struct {
	mock.Mock
	Repos port.Repos
}

// NewMockTxRunner wires a runner to fresh repository mocks.
func NewMockTxRunner() (*MockTxRunner, *MockProfileRepo, *MockFilingRepo, *MockInvoiceRepo) {
	profiles := new(MockProfileRepo)
	filings := new(MockFilingRepo)
	invoices := new(MockInvoiceRepo)
	tx := &MockTxRunner{Repos: port.Repos{Profiles: profiles, Filings: filings, Invoices: invoices}}
	return tx, profiles, filings, invoices
}

func (m *MockTxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context, repos port.Repos) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx, m.Repos)
}
