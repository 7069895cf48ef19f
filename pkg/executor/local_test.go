package executor

import (
	"io/ioutil"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	. "github.com/smartystreets/goconvey/convey"
)

func shell(script string) Command {
	return Command{Binary: "sh", Args: []string{"-c", script}}
}

// TestLocal tests the execution of process on local machine.
func TestLocal(t *testing.T) {
	logrus.SetLevel(logrus.ErrorLevel)

	Convey("While using Local executor", t, func() {
		outputDir, err := ioutil.TempDir("", "executor")
		So(err, ShouldBeNil)
		defer os.RemoveAll(outputDir)

		l := NewLocalWithOutputDir(outputDir)

		Convey("When blocking sleep command is executed", func() {
			task, err := l.Execute(shell("sleep 300"))
			So(err, ShouldBeNil)
			defer task.Clean()

			Convey("Task should be still running", func() {
				So(task.Status(), ShouldEqual, RUNNING)
				So(task.Pid(), ShouldBeGreaterThan, 0)

				_, err := task.ExitCode()
				So(err, ShouldNotBeNil)
				So(task.Stop(), ShouldBeNil)
			})

			Convey("When we wait for task termination with a short timeout", func() {
				So(task.Wait(1*time.Millisecond), ShouldBeFalse)
				So(task.Status(), ShouldEqual, RUNNING)
				So(task.Stop(), ShouldBeNil)
			})

			Convey("When we stop the task", func() {
				So(task.Stop(), ShouldBeNil)

				Convey("The task should be terminated by SIGTERM", func() {
					So(task.Status(), ShouldEqual, TERMINATED)
					exitCode, err := task.ExitCode()
					So(err, ShouldBeNil)
					So(exitCode, ShouldEqual, -15)
				})

				Convey("Stopping again is a no-op", func() {
					So(task.Stop(), ShouldBeNil)
				})
			})
		})

		Convey("When command `echo output` is executed", func() {
			task, err := l.Execute(shell("echo output"))
			So(err, ShouldBeNil)
			defer task.Clean()

			So(task.Wait(0), ShouldBeTrue)

			Convey("The task should be terminated with exit code 0 and output in stdout file", func() {
				So(task.Status(), ShouldEqual, TERMINATED)
				exitCode, err := task.ExitCode()
				So(err, ShouldBeNil)
				So(exitCode, ShouldEqual, 0)

				stdout, err := task.StdoutFile()
				So(err, ShouldBeNil)
				content, err := ioutil.ReadFile(stdout.Name())
				So(err, ShouldBeNil)
				So(string(content), ShouldEqual, "output\n")
			})

			Convey("Erasing output removes the task output directory", func() {
				stdout, _ := task.StdoutFile()
				So(task.Clean(), ShouldBeNil)
				So(task.EraseOutput(), ShouldBeNil)
				_, err := os.Stat(stdout.Name())
				So(os.IsNotExist(err), ShouldBeTrue)
			})
		})

		Convey("When the environment is overridden the process sees the override", func() {
			os.Setenv("EXECUTOR_TEST_BASE", "base")
			defer os.Unsetenv("EXECUTOR_TEST_BASE")

			command := shell(`test "$EXECUTOR_TEST_BASE" = base && test "$EXECUTOR_TEST_OVERRIDE" = over`)
			command.Env = map[string]string{"EXECUTOR_TEST_OVERRIDE": "over"}
			task, err := l.Execute(command)
			So(err, ShouldBeNil)
			defer task.Clean()

			task.Wait(0)
			exitCode, err := task.ExitCode()
			So(err, ShouldBeNil)
			So(exitCode, ShouldEqual, 0)
		})

		Convey("When binary which does not exist is executed we get an error", func() {
			task, err := l.Execute(Command{Binary: "commandThatDoesNotExist"})
			So(err, ShouldNotBeNil)
			So(task, ShouldBeNil)
		})
	})
}

func TestMergeEnv(t *testing.T) {
	Convey("When merging environments", t, func() {
		base := []string{"A=1", "B=2", "C=x=y"}

		Convey("Overrides win and new keys are appended sorted", func() {
			merged := mergeEnv(base, map[string]string{"B": "20", "Z": "26", "D": "4"})
			So(merged, ShouldResemble, []string{"A=1", "B=20", "C=x=y", "D=4", "Z=26"})
		})

		Convey("No overrides keep the base untouched", func() {
			So(mergeEnv(base, nil), ShouldResemble, base)
		})
	})
}
