package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sthagen/awslabs-mountpoint-s3/pkg/mountpoint"
)

// Mounter is a mock of mountpoint.Mounter.
type Mounter struct {
	mock.Mock
}

// Mount provides a mock function with given fields: ctx, directory
func (_m *Mounter) Mount(ctx context.Context, directory string) (*mountpoint.Mount, error) {
	ret := _m.Called(ctx, directory)

	var r0 *mountpoint.Mount
	if rf, ok := ret.Get(0).(func(context.Context, string) *mountpoint.Mount); ok {
		r0 = rf(ctx, directory)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*mountpoint.Mount)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, directory)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Unmount provides a mock function with given fields: ctx, mount
func (_m *Mounter) Unmount(ctx context.Context, mount *mountpoint.Mount) error {
	ret := _m.Called(ctx, mount)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, *mountpoint.Mount) error); ok {
		r0 = rf(ctx, mount)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}
