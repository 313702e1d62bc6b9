package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"

	"gorgonia.org/tensor"

	"github.com/cyrusvahidi/gosynth/internal/config"
	"github.com/cyrusvahidi/gosynth/internal/dataset"
	"github.com/cyrusvahidi/gosynth/internal/device"
	"github.com/cyrusvahidi/gosynth/internal/logger"
	"github.com/cyrusvahidi/gosynth/internal/monitoring"
	"github.com/cyrusvahidi/gosynth/internal/profile"
	"github.com/cyrusvahidi/gosynth/internal/runner"
	"github.com/cyrusvahidi/gosynth/internal/synth"
)

// totalSamples is the profiling workload: one billion-scale budget of synth
// sounds, rendered 64 at a time.
const totalSamples = 1 << 30

var (
	maxBatches  = flag.Int("batches", 0, "Cap the run at N batches (0 = full pass)")
	numWorkers  = flag.Int("workers", 0, "Data loader workers (0 = sequential)")
	metricsAddr = flag.String("metrics", ":9090", "Address serving health and Prometheus metrics")
	profileOut  = flag.String("profile-out", "", "Write per-forward timings to this Arrow IPC file")
	logLevel    = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	logFormat   = flag.String("log-format", "console", "Log format (console, json)")
)

func main() {
	flag.Parse()
	logger.Setup(*logLevel, *logFormat)

	gpus := device.Count()
	cores := device.Cores()
	logger.Log.Info("hardware detected", "gpus", gpus, "cores", cores)

	plan := device.Select(gpus)
	logger.Log.Info("run plan resolved",
		"precision", plan.Precision.String(),
		"strategy", plan.Strategy.String(),
		"devices", len(plan.Devices),
	)

	cfg := config.Default()
	cfg.Precision = plan.Precision
	cfg.Strategy = plan.Strategy
	cfg.NumWorkers = *numWorkers
	cfg.MaxBatches = *maxBatches
	cfg.MetricsAddr = *metricsAddr
	cfg.ProfilePath = *profileOut
	if err := cfg.Validate(); err != nil {
		logger.Log.Fatal("invalid config", "error", err)
	}

	globals := synth.DefaultGlobals()
	ds, err := dataset.NewIndexDataset(totalSamples / globals.BatchSize)
	if err != nil {
		logger.Log.Fatal("dataset", "error", err)
	}
	loader, err := dataset.NewLoader(ds, dataset.LoaderOptions{
		BatchSize:  cfg.LoaderBatch,
		NumWorkers: cfg.NumWorkers,
	})
	if err != nil {
		logger.Log.Fatal("loader", "error", err)
	}

	voice, err := synth.NewVoice(globals)
	if err != nil {
		logger.Log.Fatal("synth", "error", err)
	}
	voice.SetPrecision(cfg.Precision)
	voice.SetDeterministic(cfg.Deterministic, cfg.Seed)
	voice.To(plan.Primary())

	sink := profile.NewSink(cfg.ProfilePath)
	monitor := monitoring.New(loader.NumBatches())
	go func() {
		if err := monitor.Start(cfg.MetricsAddr); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("monitor server", "error", err)
		}
	}()

	callbacks := []runner.Callback{
		&runner.ProfilingCallback{Sink: sink},
		runner.CallbackFunc(func(runner.Module, *tensor.Dense, int) error {
			monitor.RecordBatch()
			return nil
		}),
	}

	r, err := runner.New(runner.Options{
		Precision:     cfg.Precision,
		Devices:       plan.Devices,
		Strategy:      cfg.Strategy,
		Deterministic: cfg.Deterministic,
		MaxEpochs:     cfg.MaxEpochs,
		Callbacks:     callbacks,
		Replicas: func(d device.Device) runner.Module {
			return voice.ReplicaOn(d)
		},
		MaxBatches: cfg.MaxBatches,
		LogEvery:   cfg.LogEvery,
	})
	if err != nil {
		logger.Log.Fatal("runner", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := r.Test(ctx, voice, loader)
	if flushErr := sink.Flush(); flushErr != nil {
		logger.Log.Error("profile flush", "error", flushErr)
	}
	monitor.Stop(context.Background())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Log.Warn("test loop interrupted", "batches", report.Batches)
			return
		}
		logger.Log.Fatal("test loop failed", "error", err, "batches", report.Batches)
	}

	logger.Log.Info("test loop complete",
		"batches", report.Batches,
		"samples", report.Samples,
		"elapsed", report.Elapsed.String(),
	)
}
