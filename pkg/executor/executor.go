package executor

import (
	"fmt"
	"strings"
)

// Command describes a process to start: a binary looked up in PATH, its ordered
// arguments and the environment variables overriding the ones of the current process.
type Command struct {
	Binary string
	Args   []string
	Env    map[string]string
}

// String renders the command line, used for logging.
func (c Command) String() string {
	return strings.TrimSpace(fmt.Sprint(c.Binary, " ", strings.Join(c.Args, " ")))
}

// Executor is responsible for creating execution environment for given command.
// It returns a TaskHandle when the process started.
// The process is executed asynchronously.
type Executor interface {
	// Execute starts the command on underlying platform.
	Execute(command Command) (TaskHandle, error)
	// Name returns user-friendly name of executor.
	Name() string
}
