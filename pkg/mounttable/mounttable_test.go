package mounttable

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

const fakePid = 4242

// fakeProc writes a proc tree with a single process whose mountinfo holds given lines.
func fakeProc(lines ...string) (string, error) {
	root, err := ioutil.TempDir("", "mounttable")
	if err != nil {
		return "", err
	}
	processDir := filepath.Join(root, strconv.Itoa(fakePid))
	if err := os.MkdirAll(processDir, 0755); err != nil {
		return "", err
	}
	content := strings.Join(lines, "\n") + "\n"
	return root, ioutil.WriteFile(filepath.Join(processDir, "mountinfo"), []byte(content), 0644)
}

const (
	rootLine    = "22 1 259:1 / / rw,relatime shared:1 - ext4 /dev/nvme0n1p1 rw"
	tmpLine     = "30 22 0:27 / /tmp rw,nosuid,nodev shared:14 - tmpfs tmpfs rw"
	s3Line      = "45 30 0:52 / /tmp/abc.mountpoint-s3 rw,nosuid,nodev,relatime shared:80 - fuse mountpoint-s3 rw,user_id=0,group_id=0"
	overlayLine = "46 45 0:53 / /tmp/abc.mountpoint-s3 rw,nosuid,nodev,relatime shared:81 - fuse mountpoint-s3 rw,user_id=0,group_id=0"
)

func TestResolveDeviceID(t *testing.T) {
	Convey("While reading a mount table", t, func() {
		Convey("With exactly one matching line its device identifier is returned", func() {
			root, err := fakeProc(rootLine, tmpLine, s3Line)
			So(err, ShouldBeNil)
			defer os.RemoveAll(root)

			reader := NewReaderFor(root, fakePid)
			deviceID, err := reader.ResolveDeviceID("/tmp/abc.mountpoint-s3")
			So(err, ShouldBeNil)
			So(deviceID, ShouldEqual, DeviceID("0:52"))

			mounted, err := reader.IsMounted("/tmp/abc.mountpoint-s3")
			So(err, ShouldBeNil)
			So(mounted, ShouldBeTrue)
		})

		Convey("With overlaying mounts the first line in mount order wins", func() {
			root, err := fakeProc(rootLine, tmpLine, s3Line, overlayLine)
			So(err, ShouldBeNil)
			defer os.RemoveAll(root)

			deviceID, err := NewReaderFor(root, fakePid).ResolveDeviceID("/tmp/abc.mountpoint-s3")
			So(err, ShouldBeNil)
			So(deviceID, ShouldEqual, DeviceID("0:52"))
		})

		Convey("Only exact matches count, prefixes do not", func() {
			root, err := fakeProc(rootLine, tmpLine, s3Line)
			So(err, ShouldBeNil)
			defer os.RemoveAll(root)

			deviceID, err := NewReaderFor(root, fakePid).ResolveDeviceID("/tmp/abc")
			So(err, ShouldNotBeNil)
			So(deviceID, ShouldEqual, DeviceID(""))
		})

		Convey("Without a matching line DeviceNotFoundError carries the path", func() {
			root, err := fakeProc(rootLine, tmpLine)
			So(err, ShouldBeNil)
			defer os.RemoveAll(root)

			reader := NewReaderFor(root, fakePid)
			_, err = reader.ResolveDeviceID("/mnt/missing")
			notFound, ok := err.(*DeviceNotFoundError)
			So(ok, ShouldBeTrue)
			So(notFound.Path, ShouldEqual, "/mnt/missing")
			So(err.Error(), ShouldContainSubstring, "/mnt/missing")

			mounted, err := reader.IsMounted("/mnt/missing")
			So(err, ShouldBeNil)
			So(mounted, ShouldBeFalse)
		})

		Convey("A missing process gives a plain error", func() {
			root, err := fakeProc(rootLine)
			So(err, ShouldBeNil)
			defer os.RemoveAll(root)

			_, err = NewReaderFor(root, fakePid+1).ResolveDeviceID("/")
			So(err, ShouldNotBeNil)
			_, ok := err.(*DeviceNotFoundError)
			So(ok, ShouldBeFalse)
		})
	})
}
