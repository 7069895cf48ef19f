package readahead

import (
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// PrivilegedWriter writes a value to a file that usually needs elevated privileges.
type PrivilegedWriter interface {
	Write(path string, value string) error
}

// SudoWriter writes through `sudo tee`, so only the write itself runs elevated.
// The process must be allowed to run sudo without a password prompt.
type SudoWriter struct{}

// Write implements PrivilegedWriter.
func (SudoWriter) Write(path string, value string) error {
	cmd := exec.Command("sudo", "--non-interactive", "tee", path)
	cmd.Stdin = strings.NewReader(value + "\n")
	logrus.Debugf("running %q with input %q", strings.Join(cmd.Args, " "), value)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "sudo tee %s: %s", path, strings.TrimSpace(string(output)))
	}
	return nil
}

// FileWriter writes directly, for processes already running as root.
type FileWriter struct{}

// Write implements PrivilegedWriter.
func (FileWriter) Write(path string, value string) error {
	// Sysfs attributes already exist; never create a regular file instead.
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return errors.Wrapf(err, "cannot open %q", path)
	}
	if _, err := file.WriteString(value + "\n"); err != nil {
		file.Close()
		return errors.Wrapf(err, "cannot write %q", path)
	}
	return errors.Wrapf(file.Close(), "cannot close %q", path)
}
