package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	"github.com/sells-group/evidence-cli/internal/model"
)

// MockTrialProvider is a mock type for the TrialProvider interface.
type MockTrialProvider struct {
	mock.Mock
}

// NewMockTrialProvider creates a mock whose expectations are asserted on cleanup.
func NewMockTrialProvider(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTrialProvider {
	m := &MockTrialProvider{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Search provides a mock function with given fields: ctx, term, pageSize
func (_m *MockTrialProvider) Search(ctx context.Context, term string, pageSize int) ([]model.Study, error) {
	ret := _m.Called(ctx, term, pageSize)

	if len(ret) == 0 {
		panic("no return value specified for Search")
	}

	var r0 []model.Study
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, int) ([]model.Study, error)); ok {
		return rf(ctx, term, pageSize)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.Study)
	}
	r1 = ret.Error(1)

	return r0, r1
}
