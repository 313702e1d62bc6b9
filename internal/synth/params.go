package synth

import "math/rand"

// Params are the per-voice patch settings. One set is drawn per voice per
// forward call from a PRNG seeded by the batch index, so a batch index
// always renders the same audio.
type Params struct {
	MidiF0   float32
	NoteOn   float32
	Amp      ADSRParams
	Mod      ADSRParams
	Shape    float32
	ModDepth float32
	MixSine  float32
	MixSqSaw float32
	MixNoise float32
}

func randomParams(rng *rand.Rand, bufferSeconds float64) Params {
	uniform := func(lo, hi float32) float32 {
		return lo + rng.Float32()*(hi-lo)
	}
	return Params{
		MidiF0: uniform(24, 96),
		NoteOn: uniform(0.1, float32(bufferSeconds)*0.75),
		Amp: ADSRParams{
			Attack:  uniform(0.001, 0.5),
			Decay:   uniform(0.01, 0.5),
			Sustain: uniform(0.1, 1.0),
			Release: uniform(0.01, 1.0),
			Alpha:   uniform(0.5, 3.0),
		},
		Mod: ADSRParams{
			Attack:  uniform(0.001, 1.0),
			Decay:   uniform(0.01, 1.0),
			Sustain: uniform(0.0, 1.0),
			Release: uniform(0.01, 1.0),
			Alpha:   uniform(0.5, 3.0),
		},
		Shape:    rng.Float32(),
		ModDepth: uniform(0, 12),
		MixSine:  rng.Float32(),
		MixSqSaw: rng.Float32(),
		MixNoise: rng.Float32() * 0.25,
	}
}
