package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cyrusvahidi/gosynth/internal/config"
	"github.com/cyrusvahidi/gosynth/internal/dataset"
	"github.com/cyrusvahidi/gosynth/internal/device"
	"github.com/cyrusvahidi/gosynth/internal/logger"
	"github.com/cyrusvahidi/gosynth/internal/metrics"
)

// Options configure the test loop. This mirrors the construction surface of
// the upstream trainer: precision, devices, strategy, determinism, epoch
// limit and callbacks are all fixed before the run starts.
type Options struct {
	Precision     config.PrecisionMode
	Devices       []device.Device
	Strategy      config.Strategy
	Deterministic bool

	// MaxEpochs is accepted for parity with the trainer construction API.
	// The test loop runs regardless of its value.
	MaxEpochs int

	Callbacks []Callback

	// Replicas supplies per-device model copies under StrategyDDP. When nil
	// the primary model is shared across workers.
	Replicas ReplicaFactory

	// MaxBatches caps the run when > 0.
	MaxBatches int

	LogEvery int
}

// Report summarises one completed test pass.
type Report struct {
	Batches int
	Samples int64
	Elapsed time.Duration
}

// Runner owns the test loop. It requests batches from the loader, performs
// the per-batch pass, and invokes callbacks. Invocation timing and ordering
// belong to the runner; callbacks own only their effect.
type Runner struct {
	opts Options
}

func New(opts Options) (*Runner, error) {
	if opts.Strategy == config.StrategyDDP && len(opts.Devices) < 2 {
		return nil, fmt.Errorf("runner: ddp needs at least 2 devices (got %d)", len(opts.Devices))
	}
	if opts.MaxBatches < 0 {
		return nil, fmt.Errorf("runner: max batches must be non-negative (got %d)", opts.MaxBatches)
	}
	if opts.LogEvery <= 0 {
		opts.LogEvery = 1000
	}
	return &Runner{opts: opts}, nil
}

// Test runs the full test pass: every loader batch goes through the model's
// TestStep and then through each registered callback, until the loader is
// exhausted, the batch cap is reached, or ctx is cancelled. The first error
// from a step or callback aborts the run.
func (r *Runner) Test(ctx context.Context, m Module, loader *dataset.Loader) (Report, error) {
	if m == nil {
		return Report{}, errors.New("runner: model is nil")
	}
	if loader == nil {
		return Report{}, errors.New("runner: loader is nil")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger.Log.Info("test loop starting",
		"strategy", r.opts.Strategy.String(),
		"precision", r.opts.Precision.String(),
		"devices", len(r.opts.Devices),
		"batches", loader.NumBatches(),
	)

	start := time.Now()
	batches, loaderErr := loader.Batches(ctx)

	var processed int
	var err error
	if r.opts.Strategy == config.StrategyDDP {
		processed, err = r.runSharded(ctx, m, batches)
	} else {
		processed, err = r.runSequential(ctx, m, batches)
	}
	cancel()

	if err == nil {
		if lerr, ok := <-loaderErr; ok && lerr != nil {
			err = fmt.Errorf("runner: loader: %w", lerr)
		}
	}

	report := Report{
		Batches: processed,
		Samples: metrics.TotalSamples(),
		Elapsed: time.Since(start),
	}
	return report, err
}

func (r *Runner) runSequential(ctx context.Context, m Module, batches <-chan dataset.Batch) (int, error) {
	processed := 0
	waitStart := time.Now()
	for {
		select {
		case <-ctx.Done():
			return processed, ctx.Err()
		case batch, ok := <-batches:
			if !ok {
				return processed, nil
			}
			metrics.RecordBatch(time.Since(waitStart))
			if err := r.step(m, batch); err != nil {
				return processed, err
			}
			processed++
			r.logProgress(processed)
			if r.opts.MaxBatches > 0 && processed >= r.opts.MaxBatches {
				return processed, nil
			}
			waitStart = time.Now()
		}
	}
}

// runSharded fans batches out to one worker per device. Workers preserve
// their own batch order; no global order is guaranteed across devices.
func (r *Runner) runSharded(ctx context.Context, m Module, batches <-chan dataset.Batch) (int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		processed int
		firstErr  error
	)

	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
		cancel()
	}

	for _, dev := range r.opts.Devices {
		replica := m
		if r.opts.Replicas != nil {
			replica = r.opts.Replicas(dev)
		}
		worker := logger.Log.With("device", dev.String())

		wg.Add(1)
		go func() {
			defer wg.Done()
			waitStart := time.Now()
			for {
				select {
				case <-ctx.Done():
					return
				case batch, ok := <-batches:
					if !ok {
						return
					}
					metrics.RecordBatch(time.Since(waitStart))
					if err := r.step(replica, batch); err != nil {
						fail(err)
						return
					}
					mu.Lock()
					processed++
					n := processed
					mu.Unlock()
					if n%r.opts.LogEvery == 0 {
						worker.Debug("batch complete", "processed", n)
						r.logProgress(n)
					}
					if r.opts.MaxBatches > 0 && n >= r.opts.MaxBatches {
						cancel()
						return
					}
					waitStart = time.Now()
				}
			}
		}()
	}

	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if firstErr != nil {
		return processed, firstErr
	}
	return processed, nil
}

func (r *Runner) step(m Module, batch dataset.Batch) error {
	if err := m.TestStep(batch.Indices, batch.Ordinal); err != nil {
		return fmt.Errorf("runner: test step for batch %d: %w", batch.Ordinal, err)
	}
	for _, cb := range r.opts.Callbacks {
		if err := cb.OnTestBatchEnd(m, batch.Indices, batch.Ordinal); err != nil {
			return fmt.Errorf("runner: callback at batch %d: %w", batch.Ordinal, err)
		}
	}
	return nil
}

func (r *Runner) logProgress(processed int) {
	if processed%r.opts.LogEvery != 0 {
		return
	}
	logger.Log.Info("progress",
		"batches", processed,
		"samples", metrics.TotalSamples(),
	)
}
