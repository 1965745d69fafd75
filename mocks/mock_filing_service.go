package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gstfiling/internal/domain"
	"gstfiling/internal/filing"
	"gstfiling/internal/gst"
)

// MockFilingService is a mock implementation of service.FilingService.
type MockFilingService struct {
	mock.Mock
}

func outcome(args mock.Arguments, i int) filing.Outcome {
	if args.Get(i) == nil {
		return filing.Outcome{}
	}
	return args.Get(i).(filing.Outcome)
}

func (m *MockFilingService) SaveProfile(ctx context.Context, profile domain.Profile) (*domain.Profile, domain.ValidationErrors, error) {
	args := m.Called(ctx, profile)
	var p *domain.Profile
	if args.Get(0) != nil {
		p = args.Get(0).(*domain.Profile)
	}
	var errs domain.ValidationErrors
	if args.Get(1) != nil {
		errs = args.Get(1).(domain.ValidationErrors)
	}
	return p, errs, args.Error(2)
}

func (m *MockFilingService) GetFiling(ctx context.Context, gstin, period string) (*domain.Filing, error) {
	args := m.Called(ctx, gstin, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Filing), args.Error(1)
}

func (m *MockFilingService) OpenFiling(ctx context.Context, gstin, period string) (filing.Outcome, error) {
	args := m.Called(ctx, gstin, period)
	return outcome(args, 0), args.Error(1)
}

func (m *MockFilingService) AttachProfile(ctx context.Context, gstin, period string) (filing.Outcome, error) {
	args := m.Called(ctx, gstin, period)
	return outcome(args, 0), args.Error(1)
}

func (m *MockFilingService) AddInvoice(ctx context.Context, gstin, period string, inv domain.Invoice) (filing.Outcome, error) {
	args := m.Called(ctx, gstin, period, inv)
	return outcome(args, 0), args.Error(1)
}

func (m *MockFilingService) DeleteInvoice(ctx context.Context, gstin, period, number string) (filing.Outcome, error) {
	args := m.Called(ctx, gstin, period, number)
	return outcome(args, 0), args.Error(1)
}

func (m *MockFilingService) SetNil(ctx context.Context, gstin, period string, isNil bool) (filing.Outcome, error) {
	args := m.Called(ctx, gstin, period, isNil)
	return outcome(args, 0), args.Error(1)
}

func (m *MockFilingService) ValidateDetailedReturn(ctx context.Context, gstin, period string) (filing.Outcome, error) {
	args := m.Called(ctx, gstin, period)
	return outcome(args, 0), args.Error(1)
}

func (m *MockFilingService) GenerateSummaryReturn(ctx context.Context, gstin, period string, itc domain.ITCInput) (filing.Outcome, error) {
	args := m.Called(ctx, gstin, period, itc)
	return outcome(args, 0), args.Error(1)
}

func (m *MockFilingService) ValidateSummaryReturn(ctx context.Context, gstin, period string, submitted *domain.SummaryReturn) (filing.Outcome, error) {
	args := m.Called(ctx, gstin, period, submitted)
	return outcome(args, 0), args.Error(1)
}

func (m *MockFilingService) PreparePreview(ctx context.Context, gstin, period string) (filing.Outcome, *filing.Preview, error) {
	args := m.Called(ctx, gstin, period)
	var p *filing.Preview
	if args.Get(1) != nil {
		p = args.Get(1).(*filing.Preview)
	}
	return outcome(args, 0), p, args.Error(2)
}

func (m *MockFilingService) Export(ctx context.Context, gstin, period string) (filing.Outcome, *filing.ExportBundle, error) {
	args := m.Called(ctx, gstin, period)
	var b *filing.ExportBundle
	if args.Get(1) != nil {
		b = args.Get(1).(*filing.ExportBundle)
	}
	return outcome(args, 0), b, args.Error(2)
}

func (m *MockFilingService) ValidateComplete(ctx context.Context, gstin, period string) (*filing.ComprehensiveResult, error) {
	args := m.Called(ctx, gstin, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*filing.ComprehensiveResult), args.Error(1)
}

func (m *MockFilingService) MarkFiled(ctx context.Context, gstin, period string) (filing.Outcome, *filing.ComprehensiveResult, error) {
	args := m.Called(ctx, gstin, period)
	var r *filing.ComprehensiveResult
	if args.Get(1) != nil {
		r = args.Get(1).(*filing.ComprehensiveResult)
	}
	return outcome(args, 0), r, args.Error(2)
}

func (m *MockFilingService) ReconcilePurchases(ctx context.Context, books, reported []domain.PurchaseRecord) gst.PurchaseMatch {
	args := m.Called(ctx, books, reported)
	return args.Get(0).(gst.PurchaseMatch)
}
