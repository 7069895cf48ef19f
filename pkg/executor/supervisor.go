package executor

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sthagen/awslabs-mountpoint-s3/pkg/conf"
	"github.com/sthagen/awslabs-mountpoint-s3/pkg/utils/fs"
)

// LogLinesCount is the number of lines printed from stderr & stdout in case of task failure.
var LogLinesCount = conf.NewIntFlag("output_lines_count", "Number of lines printed from stderr & stdout in case of task unsuccessful termination", 5)

// Outcome is the result of a supervised process.
type Outcome struct {
	ExitCode int
	// Signaled is set when the process was terminated by a signal; ExitCode is then -signal.
	Signaled bool
}

// signalReporter is implemented by task handles which know whether the process was killed by a signal.
type signalReporter interface {
	Signaled() bool
}

// ExecutionError is returned when a supervised process exits with non-zero code.
type ExecutionError struct {
	Command  string
	ExitCode int
	Signaled bool
}

func (e *ExecutionError) Error() string {
	if e.Signaled {
		return fmt.Sprintf("%q terminated by signal %d", e.Command, -e.ExitCode)
	}
	return fmt.Sprintf("%q failed with exit code %d", e.Command, e.ExitCode)
}

// Run executes the command and blocks until it terminates.
// A non-zero exit code is reported as *ExecutionError; there are no retries.
// When ctx is cancelled the task is stopped and ctx.Err() is returned, so passing
// context.Background() keeps the wait unbounded.
func Run(ctx context.Context, executor Executor, command Command) (Outcome, error) {
	task, err := executor.Execute(command)
	if err != nil {
		return Outcome{}, errors.Wrapf(err, "%s cannot execute %q", executor.Name(), command)
	}
	defer func() {
		if err := task.Clean(); err != nil {
			logrus.Warnf("cannot clean task %q: %v", command, err)
		}
	}()

	terminated := make(chan struct{})
	go func() {
		task.Wait(0)
		close(terminated)
	}()

	select {
	case <-terminated:
	case <-ctx.Done():
		logrus.Warnf("stopping %q: %v", command, ctx.Err())
		if err := task.Stop(); err != nil {
			logrus.Errorf("cannot stop %q: %v", command, err)
		}
		<-terminated
		return Outcome{}, ctx.Err()
	}

	exitCode, err := task.ExitCode()
	if err != nil {
		return Outcome{}, errors.Wrapf(err, "cannot get exit code of %q", command)
	}
	outcome := Outcome{ExitCode: exitCode}
	if reporter, ok := task.(signalReporter); ok {
		outcome.Signaled = reporter.Signaled()
	}
	if exitCode != 0 {
		logrus.Errorf("%q launched on %q failed with exit code %d", command, executor.Name(), exitCode)
		LogOutput(task)
		return outcome, &ExecutionError{Command: command.String(), ExitCode: exitCode, Signaled: outcome.Signaled}
	}

	logrus.Debugf("%q launched on %q has ended successfully", command, executor.Name())
	return outcome, nil
}

// LogOutput logs the last lines of task's stdout and stderr.
func LogOutput(task TaskHandle) {
	lines := LogLinesCount.Value()

	stdout, err := task.StdoutFile()
	logTail("stdout", stdout, err, lines)
	stderr, err := task.StderrFile()
	logTail("stderr", stderr, err, lines)
}

func logTail(name string, file *os.File, err error, lines int) {
	if err != nil {
		logrus.Errorf("impossible to retrieve %s file: %v", name, err)
		return
	}
	tail, err := fs.ReadTail(file.Name(), lines)
	if err != nil {
		logrus.Errorf("tailing %s file failed: %v", name, err)
		return
	}
	logrus.Errorf("last %d lines of %s (%s):", lines, name, file.Name())
	for _, line := range strings.Split(strings.TrimRight(tail, "\n"), "\n") {
		logrus.Errorf("  %s", line)
	}
}
