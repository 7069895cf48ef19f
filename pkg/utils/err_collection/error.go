package errcollection

import (
	"strings"

	"github.com/pkg/errors"
)

const delimiter = "; "

// ErrorCollection gathers multiple errors and reports them as one,
// with messages delimited by "; ". Nil errors are ignored.
type ErrorCollection struct {
	errorList []error
}

// Add inserts new error to collection.
func (e *ErrorCollection) Add(err error) {
	if err == nil {
		return
	}
	e.errorList = append(e.errorList, err)
}

// First returns the first collected error or nil.
func (e *ErrorCollection) First() error {
	if len(e.errorList) == 0 {
		return nil
	}
	return e.errorList[0]
}

// GetErrIfAny returns the only collected error as is, an error combining all
// messages when there are more, or nil when nothing was collected.
func (e *ErrorCollection) GetErrIfAny() error {
	switch len(e.errorList) {
	case 0:
		return nil
	case 1:
		return e.errorList[0]
	}

	messages := make([]string, 0, len(e.errorList))
	for _, err := range e.errorList {
		messages = append(messages, err.Error())
	}
	return errors.New(strings.Join(messages, delimiter))
}
