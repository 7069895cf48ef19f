package executor

import (
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// StopGracePeriod is how long Stop waits after SIGTERM before sending SIGKILL.
const StopGracePeriod = 10 * time.Second

// Local provides the execution environment on local machine via exec.Command.
// It runs command as current user.
type Local struct {
	outputDir string
}

// NewLocal returns a Local instance writing task output under the current working directory.
func NewLocal() Local {
	return Local{}
}

// NewLocalWithOutputDir returns a Local instance writing task output under outputDir.
func NewLocalWithOutputDir(outputDir string) Local {
	return Local{outputDir: outputDir}
}

// Name returns user-friendly name of executor.
func (l Local) Name() string {
	return "Local Executor"
}

// Execute starts the command. The binary is resolved via PATH and the process gets
// the current environment merged with command.Env.
// Returned TaskHandle is able to stop & monitor the provisioned process.
func (l Local) Execute(command Command) (TaskHandle, error) {
	binary, err := exec.LookPath(command.Binary)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot find %q", command.Binary)
	}

	stdoutFile, stderrFile, err := createExecutorOutputFiles(l.outputDir, command, "local")
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(binary, command.Args...)
	cmd.Env = Environ(command.Env)
	// Own process group lets Stop signal the process together with its children.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Stdout = stdoutFile
	cmd.Stderr = stderrFile

	logrus.Debugf("%s: starting %q", l.Name(), command)
	if err := cmd.Start(); err != nil {
		stdoutFile.Close()
		stderrFile.Close()
		os.RemoveAll(filepath.Dir(stdoutFile.Name()))
		return nil, errors.Wrapf(err, "cannot start %q", command)
	}
	logrus.Debugf("%s: started %q with pid %d", l.Name(), command, cmd.Process.Pid)

	task := newLocalTaskHandle(cmd, command, stdoutFile, stderrFile)
	go task.wait()
	return task, nil
}

// localTaskHandle implements TaskHandle interface.
type localTaskHandle struct {
	cmd        *exec.Cmd
	command    Command
	stdoutFile *os.File
	stderrFile *os.File

	done     chan struct{}
	mutex    sync.Mutex
	exitCode int
	signaled bool
}

func newLocalTaskHandle(cmd *exec.Cmd, command Command, stdoutFile, stderrFile *os.File) *localTaskHandle {
	return &localTaskHandle{
		cmd:        cmd,
		command:    command,
		stdoutFile: stdoutFile,
		stderrFile: stderrFile,
		done:       make(chan struct{}),
	}
}

// wait reaps the process and records its exit code.
func (t *localTaskHandle) wait() {
	// Wait() error is not interesting here: the process state is inspected in any case.
	t.cmd.Wait()

	exitCode, signaled := -1, false
	if t.cmd.ProcessState == nil {
		logrus.Errorf("%q with pid %d: no process state after wait", t.command, t.Pid())
	} else if status, ok := t.cmd.ProcessState.Sys().(syscall.WaitStatus); ok {
		if signaled = status.Signaled(); signaled {
			exitCode = -int(status.Signal())
		} else {
			exitCode = status.ExitStatus()
		}
	}
	logrus.Debugf("%q with pid %d ended with exit code %d; stdout in %q, stderr in %q",
		t.command, t.Pid(), exitCode, t.stdoutFile.Name(), t.stderrFile.Name())

	t.mutex.Lock()
	t.exitCode = exitCode
	t.signaled = signaled
	t.mutex.Unlock()
	close(t.done)
}

func (t *localTaskHandle) isTerminated() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Pid returns the process identifier.
func (t *localTaskHandle) Pid() int {
	return t.cmd.Process.Pid
}

// Stop sends SIGTERM to the process group and SIGKILL when the task does not
// terminate within StopGracePeriod.
func (t *localTaskHandle) Stop() error {
	if t.isTerminated() {
		return nil
	}

	// The kill syscall interprets a negated PID N as the process group N belongs to.
	logrus.Debugf("sending %s to process group %d", syscall.SIGTERM, t.Pid())
	if err := syscall.Kill(-t.Pid(), syscall.SIGTERM); err != nil && err != syscall.ESRCH {
		return errors.Wrapf(err, "cannot terminate %q", t.command)
	}
	if t.Wait(StopGracePeriod) {
		return nil
	}

	logrus.Debugf("sending %s to process group %d", syscall.SIGKILL, t.Pid())
	if err := syscall.Kill(-t.Pid(), syscall.SIGKILL); err != nil && err != syscall.ESRCH {
		return errors.Wrapf(err, "cannot kill %q", t.command)
	}
	t.Wait(0)
	return nil
}

// Status returns a state of the task.
func (t *localTaskHandle) Status() TaskState {
	if t.isTerminated() {
		return TERMINATED
	}
	return RUNNING
}

// ExitCode returns the exit code of a terminated task.
func (t *localTaskHandle) ExitCode() (int, error) {
	if !t.isTerminated() {
		return -1, errors.Errorf("task %q is not terminated", t.command)
	}
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.exitCode, nil
}

// Signaled reports whether the terminated task was killed by a signal.
func (t *localTaskHandle) Signaled() bool {
	if !t.isTerminated() {
		return false
	}
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.signaled
}

// StdoutFile returns the file the task's stdout is written to.
func (t *localTaskHandle) StdoutFile() (*os.File, error) {
	return t.stdoutFile, nil
}

// StderrFile returns the file the task's stderr is written to.
func (t *localTaskHandle) StderrFile() (*os.File, error) {
	return t.stderrFile, nil
}

// Wait blocks until process is terminated or timeout appeared.
func (t *localTaskHandle) Wait(timeout time.Duration) bool {
	if timeout == 0 {
		<-t.done
		return true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-t.done:
		return true
	case <-timer.C:
		return false
	}
}

// Clean closes stdout & stderr files.
func (t *localTaskHandle) Clean() error {
	if err := t.stdoutFile.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return errors.Wrapf(err, "cannot close %q", t.stdoutFile.Name())
	}
	if err := t.stderrFile.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return errors.Wrapf(err, "cannot close %q", t.stderrFile.Name())
	}
	return nil
}

// EraseOutput removes the task's output directory.
func (t *localTaskHandle) EraseOutput() error {
	outputDir := filepath.Dir(t.stdoutFile.Name())
	return errors.Wrapf(os.RemoveAll(outputDir), "cannot remove %q", outputDir)
}
