package readahead

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/sthagen/awslabs-mountpoint-s3/pkg/mounttable"
)

type write struct {
	path  string
	value string
}

// recordingWriter is a PrivilegedWriter remembering every write.
type recordingWriter struct {
	writes []write
	err    error
}

func (w *recordingWriter) Write(path string, value string) error {
	w.writes = append(w.writes, write{path, value})
	return w.err
}

func TestShouldTune(t *testing.T) {
	testCases := []struct {
		directIO bool
		readSize int
		expected bool
	}{
		{false, 1048576, true},
		{false, Threshold + 1, true},
		{false, Threshold, false},
		{false, 4096, false},
		{true, 1048576, false},
		{true, Threshold, false},
		{true, 4096, false},
	}

	for _, testCase := range testCases {
		Convey(fmt.Sprintf("With direct=%v and read size %d tuning should be %v", testCase.directIO, testCase.readSize, testCase.expected), t, func() {
			So(ShouldTune(testCase.directIO, testCase.readSize), ShouldEqual, testCase.expected)
		})
	}
}

func TestSetReadAhead(t *testing.T) {
	Convey("While tuning read-ahead with a fake privileged writer", t, func() {
		writer := &recordingWriter{}
		tuner := NewWithRoot("/fake/bdi", writer)

		Convey("Bytes are converted to kilobytes with truncation", func() {
			So(tuner.SetReadAhead("0:52", 300000), ShouldBeNil)
			So(writer.writes, ShouldResemble, []write{{"/fake/bdi/0:52/read_ahead_kb", "292"}})
		})

		Convey("One MiB gives 1024 kilobytes", func() {
			So(tuner.SetReadAhead("0:52", 1048576), ShouldBeNil)
			So(writer.writes, ShouldResemble, []write{{"/fake/bdi/0:52/read_ahead_kb", "1024"}})
		})

		Convey("A failed write is a TuningError", func() {
			writer.err = errors.New("permission denied")
			err := tuner.SetReadAhead("0:52", 1048576)

			tuningErr, ok := err.(*TuningError)
			So(ok, ShouldBeTrue)
			So(tuningErr.DeviceID, ShouldEqual, mounttable.DeviceID("0:52"))
			So(tuningErr.Path, ShouldEqual, "/fake/bdi/0:52/read_ahead_kb")
			So(errors.Is(err, writer.err), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "permission denied")
		})
	})
}

func TestFileWriterAndReadAhead(t *testing.T) {
	Convey("With a fake bdi tree", t, func() {
		root, err := ioutil.TempDir("", "bdi")
		So(err, ShouldBeNil)
		defer os.RemoveAll(root)

		deviceDir := filepath.Join(root, "0:52")
		So(os.MkdirAll(deviceDir, 0755), ShouldBeNil)
		So(ioutil.WriteFile(filepath.Join(deviceDir, "read_ahead_kb"), []byte("128\n"), 0644), ShouldBeNil)

		tuner := NewWithRoot(root, FileWriter{})

		Convey("The current value can be read", func() {
			value, err := tuner.ReadAhead("0:52")
			So(err, ShouldBeNil)
			So(value, ShouldEqual, 128)
		})

		Convey("The value can be written directly", func() {
			So(tuner.SetReadAhead("0:52", 1048576), ShouldBeNil)
			value, err := tuner.ReadAhead("0:52")
			So(err, ShouldBeNil)
			So(value, ShouldEqual, 1024)
		})

		Convey("A missing device is not created", func() {
			err := tuner.SetReadAhead("9:99", 1048576)
			So(err, ShouldNotBeNil)
			_, statErr := os.Stat(filepath.Join(root, "9:99"))
			So(os.IsNotExist(statErr), ShouldBeTrue)

			_, err = tuner.ReadAhead("9:99")
			So(err, ShouldNotBeNil)
		})
	})
}
