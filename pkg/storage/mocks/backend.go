// Code generated manually. DO NOT EDIT.

package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
	"github.com/williamokano/objstore/pkg/storage"
)

// MockBackend is a mock implementation of the storage.Backend interface
type MockBackend struct {
	mock.Mock
}

// Type provides a mock function with given fields:
func (m *MockBackend) Type() string {
	ret := m.Called()

	var r0 string
	if rf, ok := ret.Get(0).(func() string); ok {
		r0 = rf()
	} else {
		r0 = ret.Get(0).(string)
	}

	return r0
}

// Connect provides a mock function with given fields: ctx
func (m *MockBackend) Connect(ctx context.Context) (storage.Conn, error) {
	ret := m.Called(ctx)

	var r0 storage.Conn
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context) (storage.Conn, error)); ok {
		return rf(ctx)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(storage.Conn)
	}

	r1 = ret.Error(1)

	return r0, r1
}

// NewMockBackend creates a new instance of MockBackend
func NewMockBackend(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockBackend {
	mock_1 := &MockBackend{}
	mock_1.Mock.Test(t)

	t.Cleanup(func() { mock_1.AssertExpectations(t) })

	return mock_1
}

// MockConn is a mock implementation of the storage.Conn interface
type MockConn struct {
	mock.Mock
}

// Put provides a mock function with given fields: ctx, key, r, size
func (m *MockConn) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	ret := m.Called(ctx, key, r, size)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, string, io.Reader, int64) error); ok {
		r0 = rf(ctx, key, r, size)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// Get provides a mock function with given fields: ctx, key, w
func (m *MockConn) Get(ctx context.Context, key string, w io.Writer) (int64, error) {
	ret := m.Called(ctx, key, w)

	var r0 int64
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, io.Writer) (int64, error)); ok {
		return rf(ctx, key, w)
	}
	r0 = ret.Get(0).(int64)
	r1 = ret.Error(1)

	return r0, r1
}

// Delete provides a mock function with given fields: ctx, key
func (m *MockConn) Delete(ctx context.Context, key string) error {
	ret := m.Called(ctx, key)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, string) error); ok {
		r0 = rf(ctx, key)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// List provides a mock function with given fields: ctx
func (m *MockConn) List(ctx context.Context) ([]string, error) {
	ret := m.Called(ctx)

	var r0 []string
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context) ([]string, error)); ok {
		return rf(ctx)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]string)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// Head provides a mock function with given fields: ctx, key
func (m *MockConn) Head(ctx context.Context, key string) error {
	ret := m.Called(ctx, key)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, string) error); ok {
		r0 = rf(ctx, key)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// Close provides a mock function with given fields:
func (m *MockConn) Close() error {
	ret := m.Called()

	var r0 error
	if rf, ok := ret.Get(0).(func() error); ok {
		r0 = rf()
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// NewMockConn creates a new instance of MockConn
func NewMockConn(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockConn {
	mock_1 := &MockConn{}
	mock_1.Mock.Test(t)

	t.Cleanup(func() { mock_1.AssertExpectations(t) })

	return mock_1
}
