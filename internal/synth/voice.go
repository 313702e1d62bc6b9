package synth

import (
	"fmt"
	"math/rand"
	"time"

	"gorgonia.org/tensor"

	"github.com/cyrusvahidi/gosynth/internal/config"
	"github.com/cyrusvahidi/gosynth/internal/device"
	"github.com/cyrusvahidi/gosynth/internal/logger"
	"github.com/cyrusvahidi/gosynth/internal/metrics"
)

// Voice is the synth under profiling: a batch of independent voices, each a
// keyboard feeding two envelopes, two oscillators and a noise source through
// a VCA into a mixer. Forward renders one batch of audio per call.
type Voice struct {
	globals       Globals
	precision     config.PrecisionMode
	dev           device.Device
	deterministic bool
	seed          int64
}

// NewVoice creates a voice bank on the CPU with full precision.
func NewVoice(g Globals) (*Voice, error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("synth: %w", err)
	}
	return &Voice{
		globals:       g,
		precision:     config.Precision32,
		dev:           device.CPU(),
		deterministic: true,
		seed:          42,
	}, nil
}

func (v *Voice) Globals() Globals {
	return v.globals
}

func (v *Voice) Device() device.Device {
	return v.dev
}

func (v *Voice) Precision() config.PrecisionMode {
	return v.precision
}

// SetPrecision switches the render precision. Auto resolves to full.
func (v *Voice) SetPrecision(p config.PrecisionMode) {
	if p == config.PrecisionAuto {
		p = config.Precision32
	}
	v.precision = p
}

// SetDeterministic controls whether a batch index always renders the same
// audio. seed is ignored when deterministic is false.
func (v *Voice) SetDeterministic(deterministic bool, seed int64) {
	v.deterministic = deterministic
	v.seed = seed
}

// To places the voice on a device. An unavailable accelerator falls back to
// the CPU with a warning rather than failing the run.
func (v *Voice) To(d device.Device) *Voice {
	if !d.Available() {
		logger.Log.Warn("device unavailable, falling back to cpu", "device", d.String())
		d = device.CPU()
	}
	v.dev = d
	return v
}

// ReplicaOn returns a copy of the voice placed on d. Replicas share globals
// and seed, so a batch index renders identically on every replica.
func (v *Voice) ReplicaOn(d device.Device) *Voice {
	replica := *v
	return (&replica).To(d)
}

// Forward renders one batch of audio for the given batch index and returns
// it as a [batchSize, bufferSamples] float32 tensor.
func (v *Voice) Forward(batchIdx int64) (*tensor.Dense, error) {
	if batchIdx < 0 {
		return nil, fmt.Errorf("synth: negative batch index %d", batchIdx)
	}
	start := time.Now()

	b := v.globals.BatchSize
	s := v.globals.BufferSamples()
	out := make([]float32, b*s)

	ampEnv := make([]float32, s)
	modEnv := make([]float32, s)
	sine := make([]float32, s)
	sqsaw := make([]float32, s)
	noise := make([]float32, s)

	for voice := 0; voice < b; voice++ {
		rng := rand.New(rand.NewSource(v.voiceSeed(batchIdx, voice)))
		p := randomParams(rng, v.globals.BufferSeconds)

		envStart := time.Now()
		p.Amp.Envelope(ampEnv, p.NoteOn, v.globals.SampleRate)
		p.Mod.Envelope(modEnv, p.NoteOn, v.globals.SampleRate)
		metrics.RecordStage("envelope", time.Since(envStart))

		oscStart := time.Now()
		SineVCO(sine, modEnv, p.MidiF0, p.ModDepth, v.globals.SampleRate)
		SquareSawVCO(sqsaw, modEnv, p.MidiF0, p.Shape, p.ModDepth, v.globals.SampleRate)
		Noise(noise, rng)
		metrics.RecordStage("oscillator", time.Since(oscStart))

		mixStart := time.Now()
		VCA(sine, ampEnv)
		VCA(sqsaw, ampEnv)
		VCA(noise, ampEnv)
		row := out[voice*s : (voice+1)*s]
		Mix(row, [][]float32{sine, sqsaw, noise}, []float32{p.MixSine, p.MixSqSaw, p.MixNoise})
		if v.precision == config.Precision16 {
			device.RoundSliceF16(row)
		}
		metrics.RecordStage("mix", time.Since(mixStart))
	}

	audio := tensor.New(tensor.WithShape(b, s), tensor.WithBacking(out))
	metrics.RecordForward(b*s, time.Since(start))
	metrics.RecordBufferBytes(int64(len(out)) * 4)
	return audio, nil
}

// TestStep is the test loop's own per-batch pass. The rendered audio is
// discarded; only the compute matters.
func (v *Voice) TestStep(batch *tensor.Dense, batchIdx int) error {
	if batch == nil {
		return fmt.Errorf("synth: nil batch")
	}
	_, err := v.Forward(int64(batchIdx))
	return err
}

func (v *Voice) voiceSeed(batchIdx int64, voice int) int64 {
	base := v.seed
	if !v.deterministic {
		base = time.Now().UnixNano()
	}
	// splitmix-style spread keeps neighbouring indices uncorrelated
	x := base + batchIdx*int64(v.globals.BatchSize) + int64(voice)
	x ^= x >> 30
	x *= 0x4f6cdd1d
	x ^= x >> 27
	return x
}
