package mocks

import (
	"os"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sthagen/awslabs-mountpoint-s3/pkg/executor"
)

// TaskHandle is a mock of executor.TaskHandle.
type TaskHandle struct {
	mock.Mock
}

// Stop provides a mock function with given fields:
func (_m *TaskHandle) Stop() error {
	ret := _m.Called()
	return ret.Error(0)
}

// Status provides a mock function with given fields:
func (_m *TaskHandle) Status() executor.TaskState {
	ret := _m.Called()
	return ret.Get(0).(executor.TaskState)
}

// ExitCode provides a mock function with given fields:
func (_m *TaskHandle) ExitCode() (int, error) {
	ret := _m.Called()
	return ret.Int(0), ret.Error(1)
}

// Pid provides a mock function with given fields:
func (_m *TaskHandle) Pid() int {
	ret := _m.Called()
	return ret.Int(0)
}

// StdoutFile provides a mock function with given fields:
func (_m *TaskHandle) StdoutFile() (*os.File, error) {
	ret := _m.Called()

	var r0 *os.File
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*os.File)
	}
	return r0, ret.Error(1)
}

// StderrFile provides a mock function with given fields:
func (_m *TaskHandle) StderrFile() (*os.File, error) {
	ret := _m.Called()

	var r0 *os.File
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*os.File)
	}
	return r0, ret.Error(1)
}

// Wait provides a mock function with given fields: timeout
func (_m *TaskHandle) Wait(timeout time.Duration) bool {
	ret := _m.Called(timeout)
	return ret.Bool(0)
}

// Clean provides a mock function with given fields:
func (_m *TaskHandle) Clean() error {
	ret := _m.Called()
	return ret.Error(0)
}

// EraseOutput provides a mock function with given fields:
func (_m *TaskHandle) EraseOutput() error {
	ret := _m.Called()
	return ret.Error(0)
}
