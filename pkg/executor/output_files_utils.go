package executor

import (
	"io/ioutil"
	"os"
	"path"
	"path/filepath"

	"github.com/pkg/errors"
)

// createExecutorOutputFiles creates a fresh directory inside outputDir with
// stdout and stderr files for a single task.
func createExecutorOutputFiles(outputDir string, command Command, prefix string) (stdout, stderr *os.File, err error) {
	if command.Binary == "" {
		return nil, nil, errors.New("empty command")
	}
	commandName := filepath.Base(command.Binary)

	if outputDir == "" {
		outputDir, err = os.Getwd()
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to get working directory")
		}
	}
	taskDir, err := ioutil.TempDir(outputDir, prefix+"_"+commandName+"_")
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to create output directory for %s", commandName)
	}

	stdout, err = os.Create(path.Join(taskDir, "stdout"))
	if err != nil {
		os.RemoveAll(taskDir)
		return nil, nil, errors.Wrap(err, "failed to create stdout file")
	}

	stderr, err = os.Create(path.Join(taskDir, "stderr"))
	if err != nil {
		stdout.Close()
		os.RemoveAll(taskDir)
		return nil, nil, errors.Wrap(err, "failed to create stderr file")
	}

	return stdout, stderr, nil
}
