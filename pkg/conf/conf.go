package conf

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"
)

// EnvironmentPrefix is the prefix of every environment variable read by conf.
const EnvironmentPrefix = "FIOBENCH"

var (
	app = kingpin.New("fio-benchmark", "No help available")

	logLevelFlag = NewStringFlag(
		"log",
		"Log level: debug, info, warn, error, fatal, panic",
		"error",
	)
	isEnvParsed = false
)

// SetHelp sets the help message for the CLI.
func SetHelp(help string) {
	app.Help = help
}

// SetAppName sets application name for CLI output.
func SetAppName(name string) {
	app.Name = name
}

// AppName returns specified app name.
func AppName() string {
	return app.Name
}

// LogLevel returns configured log level from input option or env variable.
// If it cannot parse the log level, it returns the default one.
func LogLevel() logrus.Level {
	level, err := logrus.ParseLevel(logLevelFlag.Value())
	if err == nil {
		return level
	}

	level, err = logrus.ParseLevel(logLevelFlag.defaultValue)
	if err != nil {
		// Programmer error.
		panic(errors.Wrap(err, "parsing default log level failed"))
	}
	return level
}

// ParseFlags parses both the command line flags of the process and
// environment variables.
func ParseFlags() error {
	return parse(os.Args[1:], "could not parse command line flags")
}

// ParseEnv parses only the environment.
func ParseEnv() error {
	return parse([]string{}, "could not parse environment flags")
}

func parse(args []string, context string) error {
	if _, err := app.Parse(args); err != nil {
		return errors.Wrap(err, context)
	}
	isEnvParsed = true
	return nil
}

func sortedFlagNames() []string {
	names := make([]string, 0, len(definedFlags))
	for name := range definedFlags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetFlags returns flags as map with current values.
func GetFlags() map[string]string {
	flagsMap := map[string]string{}
	for name, flag := range definedFlags {
		flagsMap[name] = flag.current()
	}
	return flagsMap
}

// DumpConfig dumps environment based configuration with current values of flags.
func DumpConfig() string {
	return DumpConfigMap(nil)
}

// DumpConfigMap dumps environment based configuration with current values overwritten by given flagMap.
// Includes "allexport" directives for bash.
func DumpConfigMap(flagMap map[string]string) string {
	buffer := &bytes.Buffer{}

	buffer.WriteString("# Export all values.\n")
	buffer.WriteString("set -o allexport\n")

	for _, name := range sortedFlagNames() {
		// Dashed flags control the dump itself.
		if strings.Contains(name, "-") {
			continue
		}
		flag := definedFlags[name]
		_, help, defaultValue := flag.model()

		fmt.Fprintf(buffer, "\n# %s\n", help)
		if defaultValue != "" {
			fmt.Fprintf(buffer, "# Default: %s\n", defaultValue)
		}

		value := flag.current()
		if mapValue, ok := flagMap[name]; ok {
			value = mapValue
		}
		fmt.Fprintf(buffer, "%s=%v\n", flag.envName(), value)
	}

	buffer.WriteString("set +o allexport\n")
	return buffer.String()
}
