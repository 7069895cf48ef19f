package benchmark

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sthagen/awslabs-mountpoint-s3/pkg/mountpoint"
	"github.com/sthagen/awslabs-mountpoint-s3/pkg/mounttable"
	"github.com/sthagen/awslabs-mountpoint-s3/pkg/readahead"
	"github.com/sthagen/awslabs-mountpoint-s3/pkg/utils/err_collection"
	"github.com/sthagen/awslabs-mountpoint-s3/pkg/workloads/fio"
)

// MountDirPattern is the os.MkdirTemp pattern of the mount directory.
const MountDirPattern = "*.mountpoint-s3"

// ReadAheadTuner reads and sets device read-ahead limits.
type ReadAheadTuner interface {
	SetReadAhead(deviceID mounttable.DeviceID, targetBytes int) error
	ReadAhead(deviceID mounttable.DeviceID) (int, error)
}

type phase int

const (
	created phase = iota
	setUp
	ran
	finished
)

// FioBenchmark runs an fio job against a freshly mounted directory.
type FioBenchmark struct {
	common   CommonConfig
	fio      fio.Fio
	mounter  mountpoint.Mounter
	resolver mounttable.Resolver
	tuner    ReadAheadTuner
	now      func() time.Time

	phase    phase
	mountDir string
	mount    *mountpoint.Mount
	metadata *Metadata
}

// NewFioBenchmark is a constructor for FioBenchmark.
func NewFioBenchmark(common CommonConfig, launcher fio.Fio, mounter mountpoint.Mounter, resolver mounttable.Resolver, tuner ReadAheadTuner) *FioBenchmark {
	return &FioBenchmark{
		common:   common,
		fio:      launcher,
		mounter:  mounter,
		resolver: resolver,
		tuner:    tuner,
		now:      time.Now,
		metadata: NewMetadata(),
	}
}

// Metadata returns the metadata collected so far.
func (b *FioBenchmark) Metadata() *Metadata {
	return b.metadata
}

// Setup creates a temporary directory and mounts the filesystem there.
func (b *FioBenchmark) Setup(ctx context.Context) error {
	if b.phase != created {
		return ErrPhaseOrder
	}
	b.phase = setUp

	mountDir, err := os.MkdirTemp("", MountDirPattern)
	if err != nil {
		return errors.Wrap(err, "cannot create mount directory")
	}
	b.mountDir = mountDir

	mount, err := b.mounter.Mount(ctx, mountDir)
	if err != nil {
		return err
	}
	b.mount = mount

	b.metadata.Merge(mount.Metadata)
	b.metadata.Set("target_pid", strconv.Itoa(mount.TargetPID))
	b.metadata.Set("mount_dir", mountDir)
	return nil
}

// Run tunes read-ahead when buffered reads are larger than the kernel default
// and runs the fio job against the mount directory.
func (b *FioBenchmark) Run(ctx context.Context) error {
	if b.phase != setUp || b.mount == nil {
		return ErrPhaseOrder
	}
	b.phase = ran

	config := b.fio.Config()
	workload := fio.Workload{
		ApplicationWorkers: b.common.ApplicationWorkers,
		ObjectSizeInGiB:    b.common.ObjectSizeInGiB,
		RunTime:            b.common.RunTime,
		ReadSize:           b.common.ReadSize,
		UniqueDir:          b.now().UTC().Format(fio.UniqueDirLayout),
	}
	b.metadata.Set("fio_benchmark", config.Benchmark)
	b.metadata.Set("unique_dir", workload.UniqueDir)

	if readahead.ShouldTune(config.DirectIO, b.common.ReadSize) {
		if err := b.tuneReadAhead(); err != nil {
			return err
		}
	}

	output, err := b.fio.Run(ctx, b.mountDir, workload)
	if err != nil {
		return err
	}
	b.metadata.Set("fio_output_file", output)
	return nil
}

func (b *FioBenchmark) tuneReadAhead() error {
	deviceID, err := b.resolver.ResolveDeviceID(b.mountDir)
	if err != nil {
		return err
	}

	if before, err := b.tuner.ReadAhead(deviceID); err != nil {
		logrus.Warnf("cannot read current read-ahead of device %s: %v", deviceID, err)
	} else {
		b.metadata.Set("read_ahead_kb_before", strconv.Itoa(before))
	}

	if err := b.tuner.SetReadAhead(deviceID, b.common.ReadSize); err != nil {
		return err
	}
	b.metadata.Set("device_id", string(deviceID))
	b.metadata.Set("read_ahead_kb", strconv.Itoa(b.common.ReadSize/1024))
	return nil
}

// PostProcess unmounts the filesystem and removes the mount directory.
// Unmount is called once per benchmark, even when Setup failed before
// the directory was created.
func (b *FioBenchmark) PostProcess(ctx context.Context) error {
	if b.phase == finished {
		return ErrPhaseOrder
	}
	b.phase = finished

	mount := b.mount
	if mount == nil {
		mount = &mountpoint.Mount{Directory: b.mountDir}
	}

	errs := errcollection.ErrorCollection{}
	if err := b.mounter.Unmount(ctx, mount); err != nil {
		errs.Add(err)
	} else if b.mountDir == "" {
		return nil
	} else if err := os.Remove(b.mountDir); err != nil {
		// Never remove recursively: a directory still mounted would lose bucket content.
		errs.Add(errors.Wrapf(err, "cannot remove mount directory %q", b.mountDir))
	}
	return errs.GetErrIfAny()
}
