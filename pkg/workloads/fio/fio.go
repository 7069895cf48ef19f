// Package fio launches the fio flexible I/O tester against a directory.
//
// Job files are looked up by name in the jobs directory and parameterized
// through the environment (APP_WORKERS, SIZE_GIB, DIRECT, UNIQUE_DIR,
// IO_ENGINE, RUN_TIME, BLOCK_SIZE). The JSON report is written to
// fio.<job>.json and is not interpreted here.
package fio

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sthagen/awslabs-mountpoint-s3/pkg/conf"
	"github.com/sthagen/awslabs-mountpoint-s3/pkg/executor"
)

const (
	name = "fio"

	// UniqueDirLayout renders UNIQUE_DIR as ISO 8601 with microseconds and UTC offset.
	UniqueDirLayout = "2006-01-02T15:04:05.000000-07:00"
)

// Config is a config for the fio benchmark.
type Config struct {
	Path      string `help:"Path or name of the fio binary" default:"fio"`
	JobsDir   string `help:"Directory containing <job>.fio job files" default:"fio"`
	Benchmark string `help:"Name of the fio job to run (job file without .fio suffix)" default:"sequential_read"`
	DirectIO  bool   `help:"Use O_DIRECT for fio I/O, bypassing the page cache" default:"false"`
	IOEngine  string `help:"fio I/O engine (IO_ENGINE)" default:"psync"`
	OutputDir string `help:"Directory the fio JSON report is written to" default:"."`

	flagPrefix string
}

var defaultConfig = Config{
	flagPrefix: name,
}

func init() {
	conf.Process(&defaultConfig)
}

// DefaultConfig returns the fio configuration resolved from flags and environment.
func DefaultConfig() Config {
	conf.Process(&defaultConfig)
	return defaultConfig
}

// Workload holds the run parameters shared by all benchmarks.
type Workload struct {
	ApplicationWorkers int
	ObjectSizeInGiB    int
	RunTime            int
	ReadSize           int
	// UniqueDir is generated from the current time when empty.
	UniqueDir string
}

// Fio is a launcher for fio jobs.
type Fio struct {
	exec executor.Executor
	conf Config
	now  func() time.Time
}

// New is a constructor for Fio.
func New(exec executor.Executor, config Config) Fio {
	return Fio{
		exec: exec,
		conf: config,
		now:  time.Now,
	}
}

// Name returns human readable name for job.
func (f Fio) Name() string {
	return name
}

// Config returns configuration of the launcher.
func (f Fio) Config() Config {
	return f.conf
}

// OutputFile returns the path of the JSON report of the configured job.
func (f Fio) OutputFile() string {
	return filepath.Join(f.conf.OutputDir, fmt.Sprintf("fio.%s.json", f.conf.Benchmark))
}

// JobFile returns the absolute path of the configured job file.
func (f Fio) JobFile() (string, error) {
	jobFile, err := filepath.Abs(filepath.Join(f.conf.JobsDir, f.conf.Benchmark+".fio"))
	if err != nil {
		return "", errors.Wrapf(err, "cannot resolve job file of %q", f.conf.Benchmark)
	}
	return jobFile, nil
}

// Env returns the job parameters passed to fio through the environment.
func (f Fio) Env(workload Workload) map[string]string {
	uniqueDir := workload.UniqueDir
	if uniqueDir == "" {
		uniqueDir = f.now().UTC().Format(UniqueDirLayout)
	}
	direct := "0"
	if f.conf.DirectIO {
		direct = "1"
	}

	return map[string]string{
		"APP_WORKERS": strconv.Itoa(workload.ApplicationWorkers),
		"SIZE_GIB":    strconv.Itoa(workload.ObjectSizeInGiB),
		"DIRECT":      direct,
		"UNIQUE_DIR":  uniqueDir,
		"IO_ENGINE":   f.conf.IOEngine,
		"RUN_TIME":    strconv.Itoa(workload.RunTime),
		"BLOCK_SIZE":  strconv.Itoa(workload.ReadSize),
	}
}

// Command builds the fio invocation running the configured job in directory.
func (f Fio) Command(directory string, workload Workload) (executor.Command, error) {
	jobFile, err := f.JobFile()
	if err != nil {
		return executor.Command{}, err
	}

	return executor.Command{
		Binary: f.conf.Path,
		Args: []string{
			"--eta=never",
			"--output-format=json",
			"--output=" + f.OutputFile(),
			"--directory=" + directory,
			jobFile,
		},
		Env: f.Env(workload),
	}, nil
}

// Run executes the job against directory and blocks until fio exits.
// It returns the path of the JSON report.
func (f Fio) Run(ctx context.Context, directory string, workload Workload) (string, error) {
	command, err := f.Command(directory, workload)
	if err != nil {
		return "", err
	}
	logrus.Debugf("fio environment: %v", command.Env)
	logrus.Infof("running fio job %q in %q", f.conf.Benchmark, directory)

	if _, err := executor.Run(ctx, f.exec, command); err != nil {
		return "", errors.Wrapf(err, "fio job %q failed", f.conf.Benchmark)
	}
	return f.OutputFile(), nil
}
