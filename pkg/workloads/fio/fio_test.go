package fio

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/sthagen/awslabs-mountpoint-s3/pkg/executor"
)

// fakeFio records its environment and arguments into the --output file.
const fakeFio = `#!/bin/sh
for arg in "$@"; do
	case "$arg" in
		--output=*) out="${arg#--output=}" ;;
	esac
done
echo "$APP_WORKERS $SIZE_GIB $DIRECT $IO_ENGINE $RUN_TIME $BLOCK_SIZE" > "$out"
echo "$@" >> "$out"
`

const failingFio = `#!/bin/sh
echo "fio: job file not found" >&2
exit 1
`

func writeScript(dir, name, content string) string {
	script := filepath.Join(dir, name)
	So(ioutil.WriteFile(script, []byte(content), 0755), ShouldBeNil)
	return script
}

func TestFioCommand(t *testing.T) {
	Convey("While using fio launcher", t, func() {
		config := DefaultConfig()
		config.JobsDir = "/opt/fio-jobs"
		config.Benchmark = "read"
		config.IOEngine = "psync"
		config.OutputDir = "."
		launcher := New(nil, config)
		launcher.now = func() time.Time {
			return time.Date(2024, 5, 6, 7, 8, 9, 123456000, time.FixedZone("CEST", 2*3600))
		}
		workload := Workload{ApplicationWorkers: 4, ObjectSizeInGiB: 1, RunTime: 60, ReadSize: 1048576}

		Convey("Default flags are registered with fio prefix", func() {
			def := DefaultConfig()
			So(def.Path, ShouldEqual, "fio")
			So(def.IOEngine, ShouldEqual, "psync")
			So(def.DirectIO, ShouldBeFalse)
		})

		Convey("Output and job files are named after the job", func() {
			So(launcher.OutputFile(), ShouldEqual, "fio.read.json")
			jobFile, err := launcher.JobFile()
			So(err, ShouldBeNil)
			So(jobFile, ShouldEqual, "/opt/fio-jobs/read.fio")
		})

		Convey("Environment carries the workload parameters", func() {
			env := launcher.Env(workload)
			So(env, ShouldResemble, map[string]string{
				"APP_WORKERS": "4",
				"SIZE_GIB":    "1",
				"DIRECT":      "0",
				"UNIQUE_DIR":  "2024-05-06T05:08:09.123456+00:00",
				"IO_ENGINE":   "psync",
				"RUN_TIME":    "60",
				"BLOCK_SIZE":  "1048576",
			})
		})

		Convey("Direct I/O and explicit unique directory are honoured", func() {
			launcher.conf.DirectIO = true
			workload.UniqueDir = "fixed"
			env := launcher.Env(workload)
			So(env["DIRECT"], ShouldEqual, "1")
			So(env["UNIQUE_DIR"], ShouldEqual, "fixed")
		})

		Convey("Command has the fixed argument order", func() {
			command, err := launcher.Command("/tmp/abc.mountpoint-s3", workload)
			So(err, ShouldBeNil)
			So(command.Binary, ShouldEqual, "fio")
			So(command.Args, ShouldResemble, []string{
				"--eta=never",
				"--output-format=json",
				"--output=fio.read.json",
				"--directory=/tmp/abc.mountpoint-s3",
				"/opt/fio-jobs/read.fio",
			})
		})
	})
}

func TestFioRun(t *testing.T) {
	logrus.SetLevel(logrus.ErrorLevel)

	Convey("While running fio through local executor", t, func() {
		dir, err := ioutil.TempDir("", "fio")
		So(err, ShouldBeNil)
		defer os.RemoveAll(dir)

		config := DefaultConfig()
		config.JobsDir = dir
		config.Benchmark = "read"
		config.OutputDir = dir
		workload := Workload{ApplicationWorkers: 4, ObjectSizeInGiB: 1, RunTime: 60, ReadSize: 1048576}

		Convey("A successful run returns the report path", func() {
			config.Path = writeScript(dir, "fio", fakeFio)
			launcher := New(executor.NewLocalWithOutputDir(dir), config)

			output, err := launcher.Run(context.Background(), "/mnt/target", workload)
			So(err, ShouldBeNil)
			So(output, ShouldEqual, filepath.Join(dir, "fio.read.json"))

			content, err := ioutil.ReadFile(output)
			So(err, ShouldBeNil)
			lines := strings.Split(string(content), "\n")
			So(lines[0], ShouldEqual, "4 1 0 psync 60 1048576")
			So(lines[1], ShouldContainSubstring, "--directory=/mnt/target")
			So(lines[1], ShouldEndWith, filepath.Join(dir, "read.fio"))
		})

		Convey("A non-zero exit is reported as execution error", func() {
			config.Path = writeScript(dir, "fio", failingFio)
			launcher := New(executor.NewLocalWithOutputDir(dir), config)

			_, err := launcher.Run(context.Background(), "/mnt/target", workload)
			So(err, ShouldNotBeNil)
			executionErr, ok := errors.Cause(err).(*executor.ExecutionError)
			So(ok, ShouldBeTrue)
			So(executionErr.ExitCode, ShouldEqual, 1)
		})
	})
}
