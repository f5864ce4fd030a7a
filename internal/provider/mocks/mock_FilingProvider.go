package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	"github.com/sells-group/evidence-cli/internal/model"
)

// MockFilingProvider is a mock type for the FilingProvider interface.
type MockFilingProvider struct {
	mock.Mock
}

// NewMockFilingProvider creates a mock whose expectations are asserted on cleanup.
func NewMockFilingProvider(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockFilingProvider {
	m := &MockFilingProvider{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Filings provides a mock function with given fields: ctx, ticker, cik, form, count
func (_m *MockFilingProvider) Filings(ctx context.Context, ticker, cik, form string, count int) ([]model.FilingRecord, error) {
	ret := _m.Called(ctx, ticker, cik, form, count)

	if len(ret) == 0 {
		panic("no return value specified for Filings")
	}

	var r0 []model.FilingRecord
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, string, string, int) ([]model.FilingRecord, error)); ok {
		return rf(ctx, ticker, cik, form, count)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.FilingRecord)
	}
	r1 = ret.Error(1)

	return r0, r1
}
