package synth

import "fmt"

// Globals are the batch-wide synth settings. Every module in a voice renders
// at the same batch width, sample rate, and buffer length.
type Globals struct {
	// BatchSize is the number of voices rendered per forward call. This is
	// the synth's internal width, not the data-loader batch size.
	BatchSize int

	SampleRate int

	// BufferSeconds is the length of each rendered buffer.
	BufferSeconds float64
}

// DefaultGlobals matches the profiling workload: 64 voices, 4 seconds of
// audio at 44.1 kHz per call.
func DefaultGlobals() Globals {
	return Globals{
		BatchSize:     64,
		SampleRate:    44100,
		BufferSeconds: 4.0,
	}
}

func (g Globals) Validate() error {
	if g.BatchSize <= 0 {
		return fmt.Errorf("invalid batch_size: %d (must be positive)", g.BatchSize)
	}
	if g.SampleRate <= 0 {
		return fmt.Errorf("invalid sample_rate: %d (must be positive)", g.SampleRate)
	}
	if g.BufferSeconds <= 0 {
		return fmt.Errorf("invalid buffer_seconds: %f (must be positive)", g.BufferSeconds)
	}
	return nil
}

// BufferSamples returns the per-voice buffer length in samples.
func (g Globals) BufferSamples() int {
	return int(float64(g.SampleRate) * g.BufferSeconds)
}
