// Package benchmark drives a benchmark through its Setup, Run and PostProcess
// phases and collects the run metadata.
package benchmark

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sthagen/awslabs-mountpoint-s3/pkg/conf"
)

// ErrPhaseOrder is returned when a phase is invoked out of order or twice.
var ErrPhaseOrder = errors.New("benchmark phase invoked out of order")

// CommonConfig holds the parameters shared by all benchmarks.
type CommonConfig struct {
	ApplicationWorkers int `help:"Number of application workers (APP_WORKERS)" default:"1"`
	ObjectSizeInGiB    int `help:"Size of each object in GiB (SIZE_GIB)" name:"ObjectSizeInGib" default:"100"`
	RunTime            int `help:"Benchmark run time in seconds (RUN_TIME)" default:"30"`
	ReadSize           int `help:"Size of a single read in bytes (BLOCK_SIZE)" default:"262144"`
}

var defaultCommonConfig = CommonConfig{}

func init() {
	conf.Process(&defaultCommonConfig)
}

// DefaultCommonConfig returns the common configuration resolved from flags and environment.
func DefaultCommonConfig() CommonConfig {
	conf.Process(&defaultCommonConfig)
	return defaultCommonConfig
}

// Benchmark is a single benchmark run split into phases.
// Phases must be invoked in order: Setup, Run, PostProcess. PostProcess may follow
// a failed Setup or Run and runs at most once.
type Benchmark interface {
	Setup(ctx context.Context) error
	Run(ctx context.Context) error
	PostProcess(ctx context.Context) error
	// Metadata returns the metadata collected so far.
	Metadata() *Metadata
}

// Execute runs Setup and Run of the benchmark, then PostProcess regardless of their
// outcome. The first failure is returned; a PostProcess failure following an earlier
// one is attached to its message. PostProcess is not cancelled by ctx.
func Execute(ctx context.Context, benchmark Benchmark) (metadata map[string]string, err error) {
	defer func() {
		logrus.Info("post-processing benchmark")
		if postErr := benchmark.PostProcess(context.WithoutCancel(ctx)); postErr != nil {
			if err == nil {
				err = errors.Wrap(postErr, "post-processing failed")
			} else {
				logrus.Errorf("post-processing failed: %v", postErr)
				err = errors.Wrapf(err, "post-processing failed too (%v)", postErr)
			}
		}
		metadata = benchmark.Metadata().Map()
	}()

	logrus.Info("setting up benchmark")
	if err := benchmark.Setup(ctx); err != nil {
		return nil, errors.Wrap(err, "setup failed")
	}

	logrus.Info("running benchmark")
	if err := benchmark.Run(ctx); err != nil {
		return nil, errors.Wrap(err, "run failed")
	}
	return nil, nil
}
