package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gstfiling/internal/domain"
)

// MockFilingRepo is a mock implementation of port.FilingRepository.
type MockFilingRepo struct {
	mock.Mock
}

func (m *MockFilingRepo) Create(ctx context.Context, filing *domain.Filing) error {
	args := m.Called(ctx, filing)
	return args.Error(0)
}

func (m *MockFilingRepo) GetByKey(ctx context.Context, gstin, period string) (*domain.Filing, error) {
	args := m.Called(ctx, gstin, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Filing), args.Error(1)
}

func (m *MockFilingRepo) GetForUpdate(ctx context.Context, gstin, period string) (*domain.Filing, error) {
	args := m.Called(ctx, gstin, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Filing), args.Error(1)
}

func (m *MockFilingRepo) Update(ctx context.Context, filing *domain.Filing) error {
	args := m.Called(ctx, filing)
	return args.Error(0)
}

func (m *MockFilingRepo) ListFiledPeriods(ctx context.Context, gstin string) ([]string, error) {
	args := m.Called(ctx, gstin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
