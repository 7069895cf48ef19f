// Package readahead adjusts the read-ahead limit of backing devices through
// /sys/class/bdi/<major:minor>/read_ahead_kb.
//
// The setting is machine-wide: it changes kernel behaviour for all I/O on the
// device, not only for the benchmark. It is not restored after a run.
package readahead

import (
	"fmt"
	"io/ioutil"
	"path"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sthagen/awslabs-mountpoint-s3/pkg/mounttable"
)

const (
	// DefaultBDIRoot is where the kernel exposes backing device tunables.
	DefaultBDIRoot = "/sys/class/bdi"
	// Threshold is the read size above which buffered reads need a raised read-ahead limit.
	Threshold = 256 * 1024

	controlFile = "read_ahead_kb"
)

// ShouldTune reports whether a run with given direct I/O mode and read size needs the
// read-ahead limit raised. Direct I/O bypasses the page cache, so read-ahead is irrelevant;
// reads up to Threshold are served by the kernel default.
func ShouldTune(directIO bool, readSize int) bool {
	return !directIO && readSize > Threshold
}

// TuningError is returned when the read-ahead limit could not be written.
type TuningError struct {
	DeviceID mounttable.DeviceID
	Path     string
	Err      error
}

func (e *TuningError) Error() string {
	return fmt.Sprintf("cannot set read-ahead of device %s (%s): %v", e.DeviceID, e.Path, e.Err)
}

// Unwrap returns the underlying write failure.
func (e *TuningError) Unwrap() error {
	return e.Err
}

// Tuner writes read-ahead limits through a PrivilegedWriter.
type Tuner struct {
	bdiRoot string
	writer  PrivilegedWriter
}

// New returns a Tuner for /sys/class/bdi.
func New(writer PrivilegedWriter) Tuner {
	return NewWithRoot(DefaultBDIRoot, writer)
}

// NewWithRoot returns a Tuner for the bdi tree under bdiRoot.
func NewWithRoot(bdiRoot string, writer PrivilegedWriter) Tuner {
	return Tuner{bdiRoot: bdiRoot, writer: writer}
}

// ControlFile returns the path of the read-ahead control file of the device.
func (t Tuner) ControlFile(deviceID mounttable.DeviceID) string {
	return path.Join(t.bdiRoot, string(deviceID), controlFile)
}

// SetReadAhead writes targetBytes, converted to kilobytes (truncating), as the
// read-ahead limit of the device.
func (t Tuner) SetReadAhead(deviceID mounttable.DeviceID, targetBytes int) error {
	controlFile := t.ControlFile(deviceID)
	kilobytes := targetBytes / 1024

	if err := t.writer.Write(controlFile, strconv.Itoa(kilobytes)); err != nil {
		return &TuningError{DeviceID: deviceID, Path: controlFile, Err: err}
	}
	logrus.Infof("set read_ahead_kb to %d (%d bytes) for device %s", kilobytes, targetBytes, deviceID)
	return nil
}

// ReadAhead returns the current read-ahead limit of the device in kilobytes.
func (t Tuner) ReadAhead(deviceID mounttable.DeviceID) (int, error) {
	controlFile := t.ControlFile(deviceID)
	content, err := ioutil.ReadFile(controlFile)
	if err != nil {
		return 0, errors.Wrapf(err, "cannot read %q", controlFile)
	}
	// Sysfs values are terminated with a newline.
	value, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil {
		return 0, errors.Wrapf(err, "unexpected content of %q", controlFile)
	}
	return value, nil
}
