// Package mocks provides test doubles for the provider interfaces.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	"github.com/sells-group/evidence-cli/internal/model"
)

// MockNewsProvider is a mock type for the NewsProvider interface.
type MockNewsProvider struct {
	mock.Mock
}

// NewMockNewsProvider creates a mock with the given name. Expectations are
// asserted on cleanup.
func NewMockNewsProvider(t interface {
	mock.TestingT
	Cleanup(func())
}, name string) *MockNewsProvider {
	m := &MockNewsProvider{}
	m.Mock.Test(t)
	m.On("Name").Return(name).Maybe()
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Name provides a mock function with given fields:
func (_m *MockNewsProvider) Name() string {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Name")
	}

	return ret.String(0)
}

// Search provides a mock function with given fields: ctx, company, max
func (_m *MockNewsProvider) Search(ctx context.Context, company string, max int) ([]model.RawArticle, error) {
	ret := _m.Called(ctx, company, max)

	if len(ret) == 0 {
		panic("no return value specified for Search")
	}

	var r0 []model.RawArticle
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, int) ([]model.RawArticle, error)); ok {
		return rf(ctx, company, max)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.RawArticle)
	}
	r1 = ret.Error(1)

	return r0, r1
}
