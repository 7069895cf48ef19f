package conf

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/alecthomas/kingpin.v2"
)

// flagType is an internal interface for all flags.
// Every flag knows its environment variable name, can clear it from the environment
// and can render its current value for DumpConfig.
type flagType interface {
	envName() string
	clear()
	current() string
	model() (name, help, defaultValue string)
}

// definedFlags stores all the defined flags by name. It lets us reuse a flag defined
// twice with the same type and default, and panic otherwise.
var definedFlags = map[string]flagType{}

// cliAndEnvFlag is the generic part of every flag: kingpin clause with env override.
type cliAndEnvFlag struct {
	*kingpin.FlagClause
	name         string
	help         string
	defaultValue string
}

func newCliAndEnvFlag(flagName string, description string, defaultValue string) *cliAndEnvFlag {
	if definedFlags[flagName] != nil {
		panic(fmt.Sprintf("flag %q was already defined", flagName))
	}

	c := &cliAndEnvFlag{
		FlagClause:   app.Flag(flagName, description),
		name:         flagName,
		help:         description,
		defaultValue: defaultValue,
	}
	c.Envar(c.envName())
	if defaultValue != "" {
		c.Default(defaultValue)
	}
	return c
}

// envName returns name converted to environment variable name, e.g.
// "fio_io_engine" becomes "FIOBENCH_FIO_IO_ENGINE".
func (f *cliAndEnvFlag) envName() string {
	return fmt.Sprintf("%s_%s", EnvironmentPrefix, strings.ToUpper(f.name))
}

// clear unsets the corresponding environment variable.
func (f *cliAndEnvFlag) clear() {
	os.Unsetenv(f.envName())
}

func (f *cliAndEnvFlag) model() (string, string, string) {
	return f.name, f.help, f.defaultValue
}

// redefined returns an already registered flag of the same name.
// It panics when the earlier definition has a different type or default.
func redefined(flagName string, defaultValue string, sameType func(flagType) bool) flagType {
	flag := definedFlags[flagName]
	if flag == nil {
		return nil
	}
	if !sameType(flag) {
		panic(fmt.Sprintf("flag %q was redefined with a different type", flagName))
	}
	if _, _, def := flag.model(); def != defaultValue {
		panic(fmt.Sprintf("flag %q was redefined with a different default value", flagName))
	}
	return flag
}

func register(flagName string, flag flagType) {
	definedFlags[flagName] = flag
	isEnvParsed = false
}

// StringFlag represents flag with string value.
type StringFlag struct {
	*cliAndEnvFlag
	value *string
}

// NewStringFlag is a constructor of StringFlag struct.
func NewStringFlag(flagName string, description string, defaultValue string) *StringFlag {
	if flag := redefined(flagName, defaultValue, func(f flagType) bool { _, ok := f.(*StringFlag); return ok }); flag != nil {
		return flag.(*StringFlag)
	}

	flagDef := &StringFlag{cliAndEnvFlag: newCliAndEnvFlag(flagName, description, defaultValue)}
	flagDef.value = flagDef.String()
	register(flagName, flagDef)
	return flagDef
}

// Value returns value of defined flag after parse.
// NOTE: If conf is not parsed it returns default value (!)
func (s StringFlag) Value() string {
	if !isEnvParsed {
		return s.defaultValue
	}
	return *s.value
}

func (s StringFlag) current() string {
	return s.Value()
}

// FileFlag is a string flag which must point to an existing file once parsed.
type FileFlag struct {
	*StringFlag
}

// NewFileFlag is a constructor of FileFlag struct.
func NewFileFlag(flagName string, description string, defaultValue string) *FileFlag {
	if flag := redefined(flagName, defaultValue, func(f flagType) bool { _, ok := f.(*FileFlag); return ok }); flag != nil {
		return flag.(*FileFlag)
	}

	flagDef := &FileFlag{StringFlag: &StringFlag{cliAndEnvFlag: newCliAndEnvFlag(flagName, description, defaultValue)}}
	flagDef.value = flagDef.ExistingFile()
	register(flagName, flagDef)
	return flagDef
}

// IntFlag represents flag with int value.
type IntFlag struct {
	*cliAndEnvFlag
	defaultInt int
	value      *int
}

// NewIntFlag is a constructor of IntFlag struct.
func NewIntFlag(flagName string, description string, defaultValue int) *IntFlag {
	defaultString := strconv.Itoa(defaultValue)
	if flag := redefined(flagName, defaultString, func(f flagType) bool { _, ok := f.(*IntFlag); return ok }); flag != nil {
		return flag.(*IntFlag)
	}

	flagDef := &IntFlag{
		cliAndEnvFlag: newCliAndEnvFlag(flagName, description, defaultString),
		defaultInt:    defaultValue,
	}
	flagDef.value = flagDef.Int()
	register(flagName, flagDef)
	return flagDef
}

// Value returns value of defined flag after parse.
// NOTE: If conf is not parsed it returns default value (!)
func (i IntFlag) Value() int {
	if !isEnvParsed {
		return i.defaultInt
	}
	return *i.value
}

func (i IntFlag) current() string {
	return strconv.Itoa(i.Value())
}

// BoolFlag represents flag with bool value.
type BoolFlag struct {
	*cliAndEnvFlag
	defaultBool bool
	value       *bool
}

// NewBoolFlag is a constructor of BoolFlag struct.
func NewBoolFlag(flagName string, description string, defaultValue bool) *BoolFlag {
	defaultString := strconv.FormatBool(defaultValue)
	if flag := redefined(flagName, defaultString, func(f flagType) bool { _, ok := f.(*BoolFlag); return ok }); flag != nil {
		return flag.(*BoolFlag)
	}

	flagDef := &BoolFlag{
		cliAndEnvFlag: newCliAndEnvFlag(flagName, description, defaultString),
		defaultBool:   defaultValue,
	}
	flagDef.value = flagDef.Bool()
	register(flagName, flagDef)
	return flagDef
}

// Value returns value of defined flag after parse.
// NOTE: If conf is not parsed it returns default value (!)
func (b BoolFlag) Value() bool {
	if !isEnvParsed {
		return b.defaultBool
	}
	return *b.value
}

func (b BoolFlag) current() string {
	return strconv.FormatBool(b.Value())
}

// DurationFlag represents flag with duration value.
type DurationFlag struct {
	*cliAndEnvFlag
	defaultDuration time.Duration
	value           *time.Duration
}

// NewDurationFlag is a constructor of DurationFlag struct.
func NewDurationFlag(flagName string, description string, defaultValue time.Duration) *DurationFlag {
	defaultString := defaultValue.String()
	if flag := redefined(flagName, defaultString, func(f flagType) bool { _, ok := f.(*DurationFlag); return ok }); flag != nil {
		return flag.(*DurationFlag)
	}

	flagDef := &DurationFlag{
		cliAndEnvFlag:   newCliAndEnvFlag(flagName, description, defaultString),
		defaultDuration: defaultValue,
	}
	flagDef.value = flagDef.Duration()
	register(flagName, flagDef)
	return flagDef
}

// Value returns value of defined flag after parse.
// NOTE: If conf is not parsed it returns default value (!)
func (d DurationFlag) Value() time.Duration {
	if !isEnvParsed {
		return d.defaultDuration
	}
	return *d.value
}

func (d DurationFlag) current() string {
	return d.Value().String()
}

// SliceFlag represents flag with a list of strings, given as repeated flags
// or as a comma separated list.
type SliceFlag struct {
	*cliAndEnvFlag
	value *[]string
}

// NewSliceFlag is a constructor of SliceFlag struct.
func NewSliceFlag(flagName string, description string, elemsInDefaultSlice ...string) *SliceFlag {
	defaultString := strings.Join(elemsInDefaultSlice, stringListDelimiter)
	if flag := redefined(flagName, defaultString, func(f flagType) bool { _, ok := f.(*SliceFlag); return ok }); flag != nil {
		return flag.(*SliceFlag)
	}

	flagDef := &SliceFlag{cliAndEnvFlag: newCliAndEnvFlag(flagName, description, defaultString)}
	flagDef.value = StringList(flagDef)
	register(flagName, flagDef)
	return flagDef
}

// Value returns value of defined flag after parse.
// NOTE: If conf is not parsed it returns an empty slice.
func (s SliceFlag) Value() []string {
	if !isEnvParsed {
		return []string{}
	}
	return *s.value
}

func (s SliceFlag) current() string {
	return strings.Join(s.Value(), stringListDelimiter)
}
