package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/sthagen/awslabs-mountpoint-s3/pkg/executor"
)

// Executor is a mock of executor.Executor.
type Executor struct {
	mock.Mock
}

// Execute provides a mock function with given fields: command
func (_m *Executor) Execute(command executor.Command) (executor.TaskHandle, error) {
	ret := _m.Called(command)

	var r0 executor.TaskHandle
	if rf, ok := ret.Get(0).(func(executor.Command) executor.TaskHandle); ok {
		r0 = rf(command)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(executor.TaskHandle)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(executor.Command) error); ok {
		r1 = rf(command)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Name provides a mock function with given fields:
func (_m *Executor) Name() string {
	ret := _m.Called()
	return ret.String(0)
}
