package mountpoint

import (
	"context"
	"io/ioutil"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sthagen/awslabs-mountpoint-s3/pkg/conf"
	"github.com/sthagen/awslabs-mountpoint-s3/pkg/executor"
	"github.com/sthagen/awslabs-mountpoint-s3/pkg/mounttable"
)

const (
	name         = "mountpoint"
	pollInterval = 100 * time.Millisecond
	unknown      = "unknown"
)

// Config is a config for the mount-s3 client.
type Config struct {
	Path           string        `help:"Path or name of the mount-s3 binary" default:"mount-s3"`
	Bucket         string        `help:"S3 bucket to mount"`
	Prefix         string        `help:"Mount only keys under this prefix (--prefix)"`
	Region         string        `help:"AWS region of the bucket (--region)"`
	EndpointURL    string        `help:"S3 endpoint URL (--endpoint-url)"`
	ReadPartSize   int           `help:"Part size for GET requests in bytes, 0 keeps client default (--read-part-size)"`
	MaxThreads     int           `help:"Maximum number of FUSE threads, 0 keeps client default (--max-threads)"`
	ExtraArgs      string        `help:"Additional mount-s3 arguments, quoted like a shell command line"`
	CheckBucket    bool          `help:"Check the bucket is accessible with a HeadBucket request before mounting" default:"false"`
	MountTimeout   time.Duration `help:"How long to wait for the mount to appear and for mount-s3 to exit after unmount" default:"30s"`
	UnmountCommand string        `help:"Command releasing a mount, run with the mount directory as argument" default:"umount"`

	flagPrefix string
}

var defaultConfig = Config{
	flagPrefix: name,
}

func init() {
	conf.Process(&defaultConfig)
}

// DefaultConfig returns the mount-s3 configuration resolved from flags and environment.
func DefaultConfig() Config {
	conf.Process(&defaultConfig)
	return defaultConfig
}

// MountpointS3 mounts a bucket by running mount-s3 in foreground mode.
type MountpointS3 struct {
	exec        executor.Executor
	conf        Config
	isMounted   func(path string) (bool, error)              // For mocking purposes.
	checkBucket func(ctx context.Context, conf Config) error // For mocking purposes.
}

// New is a constructor for MountpointS3.
func New(exec executor.Executor, config Config) MountpointS3 {
	return MountpointS3{
		exec:        exec,
		conf:        config,
		isMounted:   mounttable.NewReader().IsMounted,
		checkBucket: headBucket,
	}
}

func (m MountpointS3) buildCommand(directory string) (executor.Command, error) {
	args := []string{m.conf.Bucket, directory, "--foreground"}
	if m.conf.Prefix != "" {
		args = append(args, "--prefix", m.conf.Prefix)
	}
	if m.conf.Region != "" {
		args = append(args, "--region", m.conf.Region)
	}
	if m.conf.EndpointURL != "" {
		args = append(args, "--endpoint-url", m.conf.EndpointURL)
	}
	if m.conf.ReadPartSize > 0 {
		args = append(args, "--read-part-size", strconv.Itoa(m.conf.ReadPartSize))
	}
	if m.conf.MaxThreads > 0 {
		args = append(args, "--max-threads", strconv.Itoa(m.conf.MaxThreads))
	}
	extraArgs, err := shlex.Split(m.conf.ExtraArgs)
	if err != nil {
		return executor.Command{}, errors.Wrapf(err, "cannot split extra arguments %q", m.conf.ExtraArgs)
	}
	args = append(args, extraArgs...)

	return executor.Command{Binary: m.conf.Path, Args: args}, nil
}

// Mount starts mount-s3 and waits until directory shows up in the mount table.
func (m MountpointS3) Mount(ctx context.Context, directory string) (*Mount, error) {
	if m.conf.Bucket == "" {
		return nil, &MountError{Directory: directory, Err: errors.New("no bucket configured")}
	}
	command, err := m.buildCommand(directory)
	if err != nil {
		return nil, &MountError{Directory: directory, Err: err}
	}
	if m.conf.CheckBucket {
		if err := m.checkBucket(ctx, m.conf); err != nil {
			return nil, &MountError{Directory: directory, Err: err}
		}
	}
	version := m.version()

	task, err := m.exec.Execute(command)
	if err != nil {
		return nil, &MountError{Directory: directory, Err: err}
	}

	if err := m.waitForMount(ctx, task, directory); err != nil {
		if stopErr := task.Stop(); stopErr != nil {
			logrus.Errorf("failed to stop mount-s3 instance: %v", stopErr)
		}
		if cleanErr := task.Clean(); cleanErr != nil {
			logrus.Errorf("failed to cleanup mount-s3 task: %v", cleanErr)
		}
		return nil, &MountError{Directory: directory, Err: err}
	}

	logrus.Infof("mounted bucket %q at %q (pid %d)", m.conf.Bucket, directory, task.Pid())
	return &Mount{
		Directory: directory,
		TargetPID: task.Pid(),
		Metadata: map[string]string{
			"mount_s3_version": version,
			"mount_s3_command": command.String(),
			"bucket":           m.conf.Bucket,
			"prefix":           m.conf.Prefix,
			"region":           m.conf.Region,
			"mount_dir":        directory,
		},
		task: task,
	}, nil
}

func (m MountpointS3) waitForMount(ctx context.Context, task executor.TaskHandle, directory string) error {
	deadline := time.Now().Add(m.conf.MountTimeout)
	for {
		mounted, err := m.isMounted(directory)
		if err != nil {
			return err
		}
		if mounted {
			return nil
		}
		if time.Now().After(deadline) {
			return errors.Errorf("mount did not appear within %s", m.conf.MountTimeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if task.Wait(pollInterval) {
			exitCode, _ := task.ExitCode()
			executor.LogOutput(task)
			return errors.Errorf("mount-s3 exited with code %d before the mount appeared", exitCode)
		}
	}
}

// version returns the output of mount-s3 --version, "unknown" when it cannot be read.
func (m MountpointS3) version() string {
	task, err := m.exec.Execute(executor.Command{Binary: m.conf.Path, Args: []string{"--version"}})
	if err != nil {
		logrus.Warnf("cannot get mount-s3 version: %v", err)
		return unknown
	}
	defer func() {
		task.Clean()
		task.EraseOutput()
	}()

	task.Wait(0)
	stdout, err := task.StdoutFile()
	if err != nil {
		logrus.Warnf("cannot get mount-s3 version: %v", err)
		return unknown
	}
	content, err := ioutil.ReadFile(stdout.Name())
	if err != nil {
		logrus.Warnf("cannot get mount-s3 version: %v", err)
		return unknown
	}
	return strings.TrimSpace(string(content))
}

// Unmount releases the mount when it is still present and waits for mount-s3 to exit.
// mount-s3 is stopped when it does not exit within the mount timeout.
func (m MountpointS3) Unmount(ctx context.Context, mount *Mount) error {
	if mount.Directory == "" {
		return nil
	}
	mounted, err := m.isMounted(mount.Directory)
	if err != nil {
		return &UnmountError{Directory: mount.Directory, Err: err}
	}

	if mounted {
		command := executor.Command{Binary: m.conf.UnmountCommand, Args: []string{mount.Directory}}
		if _, err := executor.Run(ctx, m.exec, command); err != nil {
			return &UnmountError{Directory: mount.Directory, Err: err}
		}
		logrus.Infof("unmounted %q", mount.Directory)
	} else {
		logrus.Warnf("%q is not mounted anymore", mount.Directory)
	}

	if mount.task == nil {
		return nil
	}
	defer mount.task.Clean()
	if !mount.task.Wait(m.conf.MountTimeout) {
		logrus.Warnf("mount-s3 (pid %d) still running after unmount, stopping it", mount.TargetPID)
		if err := mount.task.Stop(); err != nil {
			return &UnmountError{Directory: mount.Directory, Err: err}
		}
	}
	return nil
}
