package main

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/cheggaaa/pb.v1"

	"github.com/sthagen/awslabs-mountpoint-s3/pkg/benchmark"
)

// totalPhases is the number of benchmark phases shown on the progress bar.
const totalPhases = 3

// progressBenchmark advances a progress bar after every phase of the wrapped benchmark.
type progressBenchmark struct {
	benchmark.Benchmark
	bar *pb.ProgressBar
}

func withProgress(wrapped benchmark.Benchmark, output io.Writer) *progressBenchmark {
	bar := pb.New(totalPhases)
	bar.Output = output
	bar.ShowCounters = false
	bar.ShowTimeLeft = true
	return &progressBenchmark{Benchmark: wrapped, bar: bar.Start()}
}

func (p *progressBenchmark) phase(ctx context.Context, name string, run func(context.Context) error) error {
	p.bar.Prefix(fmt.Sprintf("[%d / %d] %s ", p.bar.Get()+1, totalPhases, name))
	// Prefix change should be shown immediately.
	p.bar.AlwaysUpdate = true
	p.bar.Update()
	p.bar.AlwaysUpdate = false
	defer p.bar.Increment()
	return run(ctx)
}

func (p *progressBenchmark) Setup(ctx context.Context) error {
	return p.phase(ctx, "setup", p.Benchmark.Setup)
}

func (p *progressBenchmark) Run(ctx context.Context) error {
	return p.phase(ctx, "fio", p.Benchmark.Run)
}

func (p *progressBenchmark) PostProcess(ctx context.Context) error {
	defer p.bar.Finish()
	return p.phase(ctx, "post-processing", p.Benchmark.PostProcess)
}
