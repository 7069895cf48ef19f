// Package mountpoint mounts S3 buckets with the mount-s3 FUSE client and
// releases them after the benchmark.
package mountpoint

import (
	"context"
	"fmt"

	"github.com/sthagen/awslabs-mountpoint-s3/pkg/executor"
)

// Mount describes a mounted filesystem.
type Mount struct {
	Directory string
	// TargetPID is the pid of the client process serving the mount.
	TargetPID int
	// Metadata describes the mount; it is merged into the run metadata.
	Metadata map[string]string

	task executor.TaskHandle
}

// Mounter mounts a filesystem at a directory and releases it.
type Mounter interface {
	// Mount blocks until the filesystem is visible at directory.
	Mount(ctx context.Context, directory string) (*Mount, error)
	// Unmount releases the mount and waits for its client process to exit.
	Unmount(ctx context.Context, mount *Mount) error
}

// MountError is returned when the filesystem could not be mounted.
type MountError struct {
	Directory string
	Err       error
}

func (e *MountError) Error() string {
	return fmt.Sprintf("cannot mount %q: %v", e.Directory, e.Err)
}

// Unwrap returns the underlying failure.
func (e *MountError) Unwrap() error {
	return e.Err
}

// UnmountError is returned when the filesystem could not be released.
type UnmountError struct {
	Directory string
	Err       error
}

func (e *UnmountError) Error() string {
	return fmt.Sprintf("cannot unmount %q: %v", e.Directory, e.Err)
}

// Unwrap returns the underlying failure.
func (e *UnmountError) Unwrap() error {
	return e.Err
}
