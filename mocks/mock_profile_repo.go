package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gstfiling/internal/domain"
)

// MockProfileRepo is a mock implementation of port.ProfileRepository.
type MockProfileRepo struct {
	mock.Mock
}

func (m *MockProfileRepo) Upsert(ctx context.Context, profile *domain.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockProfileRepo) GetByGSTIN(ctx context.Context, gstin string) (*domain.Profile, error) {
	args := m.Called(ctx, gstin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}
