package runner

import (
	"fmt"
	"time"

	"gorgonia.org/tensor"

	"github.com/cyrusvahidi/gosynth/internal/device"
	"github.com/cyrusvahidi/gosynth/internal/metrics"
	"github.com/cyrusvahidi/gosynth/internal/profile"
)

// Module is the model driven by the test loop. TestStep is the loop's own
// per-batch pass; Forward is the direct entry the profiling callback uses.
type Module interface {
	Forward(batchIdx int64) (*tensor.Dense, error)
	TestStep(batch *tensor.Dense, batchIdx int) error
}

// ReplicaFactory builds a per-device model replica for sharded runs.
type ReplicaFactory func(d device.Device) Module

// Callback is invoked by the test loop after each completed batch.
type Callback interface {
	OnTestBatchEnd(m Module, batch *tensor.Dense, batchIdx int) error
}

// CallbackFunc adapts a function to the Callback interface.
type CallbackFunc func(m Module, batch *tensor.Dense, batchIdx int) error

func (f CallbackFunc) OnTestBatchEnd(m Module, batch *tensor.Dense, batchIdx int) error {
	return f(m, batch, batchIdx)
}

// ProfilingCallback issues one extra forward pass per batch so profiling
// tools instrumented around the callback boundary see raw synth compute,
// isolated from the loop's own bookkeeping. Only the first element of the
// batch is used; the synth manages its own batch width internally.
type ProfilingCallback struct {
	// Sink receives per-forward timing records when non-nil.
	Sink *profile.Sink
}

// OnTestBatchEnd validates the batch shape and forwards its first element
// into the model. The returned audio is discarded. A malformed batch is a
// fatal error; the run aborts without recovery.
func (c *ProfilingCallback) OnTestBatchEnd(m Module, batch *tensor.Dense, batchIdx int) error {
	if batch == nil {
		metrics.RecordShapeViolation()
		return fmt.Errorf("callback: nil batch at batch %d", batchIdx)
	}
	if batch.Dims() != 1 {
		metrics.RecordShapeViolation()
		return fmt.Errorf("callback: batch %d has %d dimensions, want 1", batchIdx, batch.Dims())
	}
	// Data() yields the bare element for one-element tensors.
	var indices []int64
	switch data := batch.Data().(type) {
	case []int64:
		indices = data
	case int64:
		indices = []int64{data}
	}
	if len(indices) == 0 {
		metrics.RecordShapeViolation()
		return fmt.Errorf("callback: batch %d is not a non-empty int64 vector", batchIdx)
	}

	start := time.Now()
	audio, err := m.Forward(indices[0])
	if err != nil {
		return fmt.Errorf("callback: forward for index %d: %w", indices[0], err)
	}
	elapsed := time.Since(start)

	metrics.RecordCallbackForward()
	if c.Sink != nil {
		samples := int64(0)
		if audio != nil {
			samples = int64(audio.Shape().TotalSize())
		}
		c.Sink.Record(indices[0], elapsed, samples)
	}
	return nil
}
