package conf

import (
	"fmt"
	"strings"

	"gopkg.in/alecthomas/kingpin.v2"
)

const stringListDelimiter = ","

// StringListValue is a kingpin.Value holding a list of strings. Every occurrence
// of the flag is split on `stringListDelimiter` and appended, so
// `--mount_arg=a,b --mount_arg=c` results in [a b c].
type StringListValue []string

// Set splits the input and appends it. Implements kingpin.Value.
func (s *StringListValue) Set(value string) error {
	*s = append(*s, strings.Split(value, stringListDelimiter)...)
	return nil
}

// String implements kingpin.Value.
func (s *StringListValue) String() string {
	return fmt.Sprintf("%v", []string(*s))
}

// IsCumulative marks the flag as repeatable for kingpin.
func (s *StringListValue) IsCumulative() bool {
	return true
}

// StringList is a helper for defining kingpin list flags.
func StringList(s kingpin.Settings) (target *[]string) {
	target = new([]string)
	s.SetValue((*StringListValue)(target))
	return
}
