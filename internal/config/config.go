package config

import (
	"fmt"
	"strings"
)

// PrecisionMode selects the numeric bit-width used when rendering audio.
type PrecisionMode int

const (
	PrecisionAuto PrecisionMode = iota
	Precision32
	Precision16
)

func (p PrecisionMode) String() string {
	switch p {
	case Precision32:
		return "fp32"
	case Precision16:
		return "fp16"
	default:
		return "auto"
	}
}

// Bits returns the bit-width of the mode. Auto reports 32 until resolved.
func (p PrecisionMode) Bits() int {
	if p == Precision16 {
		return 16
	}
	return 32
}

// Strategy names the mechanism used to spread batches across devices.
type Strategy int

const (
	StrategyNone Strategy = iota
	StrategyDDP
)

func (s Strategy) String() string {
	if s == StrategyDDP {
		return "ddp"
	}
	return "none"
}

// ParseStrategy resolves a strategy name. Empty means none.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return StrategyNone, nil
	case "ddp":
		return StrategyDDP, nil
	default:
		return StrategyNone, fmt.Errorf("unknown strategy: %q", name)
	}
}

// Run captures the knobs for one profiling run. Precision and Strategy are
// normally resolved from the detected device count, not set by hand.
type Run struct {
	Precision     PrecisionMode
	Strategy      Strategy
	Deterministic bool
	Seed          int64

	// MaxEpochs is carried for construction parity with the upstream trainer
	// API; the test loop does not consult it.
	MaxEpochs int

	// LoaderBatch is the data-loader batch width, distinct from the synth's
	// internal batch size.
	LoaderBatch int
	NumWorkers  int

	// MaxBatches caps the run when > 0. Zero means exhaust the dataset.
	MaxBatches int

	LogEvery int

	MetricsAddr string
	ProfilePath string
}

// Default returns the run configuration matching a full profiling pass.
func Default() Run {
	return Run{
		Precision:     PrecisionAuto,
		Strategy:      StrategyNone,
		Deterministic: true,
		Seed:          42,
		MaxEpochs:     0,
		LoaderBatch:   1,
		NumWorkers:    0,
		LogEvery:      1000,
		MetricsAddr:   ":9090",
	}
}

func (r *Run) Validate() error {
	if r == nil {
		return fmt.Errorf("run config is nil")
	}
	if r.LoaderBatch <= 0 {
		return fmt.Errorf("invalid loader_batch: %d (must be positive)", r.LoaderBatch)
	}
	if r.NumWorkers < 0 {
		return fmt.Errorf("invalid num_workers: %d (must be non-negative)", r.NumWorkers)
	}
	if r.MaxBatches < 0 {
		return fmt.Errorf("invalid max_batches: %d (must be non-negative)", r.MaxBatches)
	}
	if r.MaxEpochs < 0 {
		return fmt.Errorf("invalid max_epochs: %d (must be non-negative)", r.MaxEpochs)
	}
	if r.LogEvery <= 0 {
		r.LogEvery = 1000
	}
	return nil
}
