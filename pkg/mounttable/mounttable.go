// Package mounttable resolves mount points to the kernel device identifier
// ("major:minor") of their backing device, as listed in /proc/<pid>/mountinfo.
package mounttable

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/prometheus/procfs"
	"github.com/sirupsen/logrus"
)

// DeviceID is the "major:minor" identifier of a backing device, e.g. "0:52".
// It names the entry under /sys/class/bdi holding the device's tunables.
type DeviceID string

// DeviceNotFoundError is returned when no mount table entry matches the queried path.
type DeviceNotFoundError struct {
	Path string
}

func (e *DeviceNotFoundError) Error() string {
	return fmt.Sprintf("could not find device ID for mount point %q", e.Path)
}

// Resolver resolves a mount path to the device identifier backing it.
type Resolver interface {
	ResolveDeviceID(mountPath string) (DeviceID, error)
}

// Reader reads the mount table of a process from a proc filesystem.
type Reader struct {
	procRoot string
	pid      int
}

// NewReader returns a Reader of the mount table of the current process.
func NewReader() Reader {
	return NewReaderFor(procfs.DefaultMountPoint, os.Getpid())
}

// NewReaderFor returns a Reader of /<procRoot>/<pid>/mountinfo.
func NewReaderFor(procRoot string, pid int) Reader {
	return Reader{procRoot: procRoot, pid: pid}
}

// Mounts returns the mount table entries in mount order.
func (r Reader) Mounts() ([]*procfs.MountInfo, error) {
	fs, err := procfs.NewFS(r.procRoot)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open proc filesystem at %q", r.procRoot)
	}
	proc, err := fs.Proc(r.pid)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open process %d in %q", r.pid, r.procRoot)
	}
	mounts, err := proc.MountInfo()
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read mountinfo of process %d", r.pid)
	}
	return mounts, nil
}

// ResolveDeviceID returns the device identifier of the first mount table entry whose
// mount point equals mountPath. The table is ordered by mount event, so the first
// exact match is the entry describing that mount point.
func (r Reader) ResolveDeviceID(mountPath string) (DeviceID, error) {
	mounts, err := r.Mounts()
	if err != nil {
		return "", err
	}

	for _, mount := range mounts {
		if mount.MountPoint == mountPath {
			logrus.Debugf("mount point %q is backed by device %s (%s)", mountPath, mount.MajorMinorVer, mount.FSType)
			return DeviceID(mount.MajorMinorVer), nil
		}
	}
	return "", &DeviceNotFoundError{Path: mountPath}
}

// IsMounted reports whether mountPath is present in the mount table.
func (r Reader) IsMounted(mountPath string) (bool, error) {
	_, err := r.ResolveDeviceID(mountPath)
	if _, ok := err.(*DeviceNotFoundError); ok {
		return false, nil
	}
	return err == nil, err
}
