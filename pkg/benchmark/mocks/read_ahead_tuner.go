package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/sthagen/awslabs-mountpoint-s3/pkg/mounttable"
)

// ReadAheadTuner is a mock of benchmark.ReadAheadTuner.
type ReadAheadTuner struct {
	mock.Mock
}

// SetReadAhead provides a mock function with given fields: deviceID, targetBytes
func (_m *ReadAheadTuner) SetReadAhead(deviceID mounttable.DeviceID, targetBytes int) error {
	ret := _m.Called(deviceID, targetBytes)
	return ret.Error(0)
}

// ReadAhead provides a mock function with given fields: deviceID
func (_m *ReadAheadTuner) ReadAhead(deviceID mounttable.DeviceID) (int, error) {
	ret := _m.Called(deviceID)
	return ret.Int(0), ret.Error(1)
}
