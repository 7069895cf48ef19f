package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/sthagen/awslabs-mountpoint-s3/pkg/mounttable"
)

// Resolver is a mock of mounttable.Resolver.
type Resolver struct {
	mock.Mock
}

// ResolveDeviceID provides a mock function with given fields: mountPath
func (_m *Resolver) ResolveDeviceID(mountPath string) (mounttable.DeviceID, error) {
	ret := _m.Called(mountPath)

	var r0 mounttable.DeviceID
	if rf, ok := ret.Get(0).(func(string) mounttable.DeviceID); ok {
		r0 = rf(mountPath)
	} else {
		r0 = ret.Get(0).(mounttable.DeviceID)
	}

	return r0, ret.Error(1)
}
