package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nu7hatch/gouuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sthagen/awslabs-mountpoint-s3/pkg/benchmark"
	"github.com/sthagen/awslabs-mountpoint-s3/pkg/conf"
	"github.com/sthagen/awslabs-mountpoint-s3/pkg/executor"
	"github.com/sthagen/awslabs-mountpoint-s3/pkg/metadata"
	"github.com/sthagen/awslabs-mountpoint-s3/pkg/mountpoint"
	"github.com/sthagen/awslabs-mountpoint-s3/pkg/mounttable"
	"github.com/sthagen/awslabs-mountpoint-s3/pkg/readahead"
	"github.com/sthagen/awslabs-mountpoint-s3/pkg/utils/errutil"
	"github.com/sthagen/awslabs-mountpoint-s3/pkg/workloads/fio"
)

// exUsage is the exit code for command line usage errors (sysexits.h).
const exUsage = 64

var (
	// Dumping flags include dash to exclude them from the dump.
	dumpConfigFlag      = conf.NewBoolFlag("config-dump", "Dump configuration as environment script and exit", false)
	dumpConfigRunIDFlag = conf.NewStringFlag("config-dump-run-id", "Dump configuration recorded for given run id", "")

	privilegedWriterFlag = conf.NewStringFlag("privileged_writer", "How read_ahead_kb is written: sudo or direct", writerSudo)
	taskOutputDirFlag    = conf.NewStringFlag("task_output_dir", "Directory for stdout & stderr of launched processes (default: working directory)", "")
	metadataFileFlag     = conf.NewStringFlag("metadata_file", "File the run metadata is written to", "")
	metadataFormatFlag   = conf.NewStringFlag("metadata_format", "Format of printed run metadata: json or yaml", formatJSON)
	progressFlag         = conf.NewBoolFlag("progress", "Show progress of benchmark phases on stderr", false)
)

// validateDumpFlags rejects dumping a recorded run when no metadata database is configured.
func validateDumpFlags(runID, metadataDB string) error {
	if runID != "" && metadataDB == metadata.BackendNone {
		return errors.Errorf("--config-dump-run-id requires --metadata_db other than %q", metadata.BackendNone)
	}
	return nil
}

// configure parses flags and handles config-* flags.
// It exits if configuration dump was requested.
func configure() {
	if err := conf.ParseFlags(); err != nil {
		logrus.Errorf("cannot parse flags: %v", err)
		os.Exit(exUsage)
	}
	logrus.SetLevel(conf.LogLevel())

	if err := validateDumpFlags(dumpConfigRunIDFlag.Value(), metadata.MetadataDB.Value()); err != nil {
		logrus.Errorf("invalid flags: %v", err)
		os.Exit(exUsage)
	}
	if !dumpConfigFlag.Value() {
		return
	}
	if runID := dumpConfigRunIDFlag.Value(); runID != "" {
		store, err := metadata.NewDefault(runID)
		errutil.Check(err)
		flags, err := store.GetByKind(metadata.TypeFlags)
		metadata.Close(store)
		errutil.Check(err)
		fmt.Println(conf.DumpConfigMap(flags))
	} else {
		fmt.Println(conf.DumpConfig())
	}
	os.Exit(0)
}

func main() {
	conf.SetAppName("fio-benchmark")
	conf.SetHelp(`Mounts an S3 bucket with mount-s3, runs an fio job against the mount and reports run metadata.
Read-ahead of the mount's backing device is raised to the read size for buffered reads larger than 256KiB.`)
	configure()

	runID, err := uuid.NewV4()
	errutil.Check(errors.Wrap(err, "could not create uuid"))
	logrus.Infof("starting %s with run id %s", conf.AppName(), runID)
	start := time.Now()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	writer, err := privilegedWriter(privilegedWriterFlag.Value())
	errutil.Check(err)

	exec := executor.NewLocalWithOutputDir(taskOutputDirFlag.Value())
	var fioBenchmark benchmark.Benchmark = benchmark.NewFioBenchmark(
		benchmark.DefaultCommonConfig(),
		fio.New(exec, fio.DefaultConfig()),
		mountpoint.New(exec, mountpoint.DefaultConfig()),
		mounttable.NewReader(),
		readahead.New(writer),
	)
	if progressFlag.Value() {
		fioBenchmark = withProgress(fioBenchmark, os.Stderr)
	}

	runMetadata, runErr := benchmark.Execute(ctx, fioBenchmark)
	runMetadata["run_id"] = runID.String()
	if runErr != nil {
		logrus.Errorf("benchmark failed: %v", runErr)
	}

	errutil.CheckWithContext(report(os.Stdout, os.Stderr, runMetadata, metadataFormatFlag.Value()), "cannot report run metadata")
	if path := metadataFileFlag.Value(); path != "" {
		errutil.CheckWithContext(writeMetadataFile(path, runMetadata, metadataFormatFlag.Value()), "cannot write run metadata")
	}
	errutil.CheckWithContext(persist(runID.String(), runMetadata, start), "cannot store run metadata")
	errutil.Check(runErr)
}

// persist stores run metadata and runtime environment in the configured metadata database.
func persist(runID string, runMetadata map[string]string, start time.Time) error {
	if metadata.MetadataDB.Value() == metadata.BackendNone {
		return nil
	}
	store, err := metadata.NewDefault(runID)
	if err != nil {
		return err
	}
	defer metadata.Close(store)

	if err := store.RecordMap(runMetadata, metadata.TypeRun); err != nil {
		return err
	}
	return metadata.RecordRuntimeEnv(store, start)
}
