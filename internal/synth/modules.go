package synth

import (
	"math/rand"

	"github.com/chewxy/math32"
)

const twoPi = 2 * math32.Pi

// ADSRParams shape an attack-decay-sustain-release envelope. Times are in
// seconds, sustain is a level in [0, 1], alpha bends the segments.
type ADSRParams struct {
	Attack  float32
	Decay   float32
	Sustain float32
	Release float32
	Alpha   float32
}

// Envelope renders the envelope into dst. noteOn is the gate duration in
// seconds; the release tail occupies the remainder of the buffer.
func (p ADSRParams) Envelope(dst []float32, noteOn float32, sampleRate int) {
	sr := float32(sampleRate)
	attackEnd := int(p.Attack * sr)
	decayEnd := attackEnd + int(p.Decay*sr)
	gateEnd := int(noteOn * sr)
	if gateEnd > len(dst) {
		gateEnd = len(dst)
	}

	for i := range dst {
		switch {
		case i < attackEnd && i < gateEnd:
			t := float32(i) / float32(attackEnd)
			dst[i] = math32.Pow(t, 1.0/p.Alpha)
		case i < decayEnd && i < gateEnd:
			t := float32(i-attackEnd) / float32(decayEnd-attackEnd)
			dst[i] = 1 - (1-p.Sustain)*math32.Pow(t, p.Alpha)
		case i < gateEnd:
			dst[i] = p.Sustain
		default:
			releaseLen := p.Release * sr
			if releaseLen < 1 {
				dst[i] = 0
				continue
			}
			t := float32(i-gateEnd) / releaseLen
			if t >= 1 {
				dst[i] = 0
			} else {
				dst[i] = p.Sustain * (1 - math32.Pow(t, p.Alpha))
			}
		}
	}
}

// midiToHz converts a fractional MIDI note number to frequency.
func midiToHz(midi float32) float32 {
	return 440 * math32.Pow(2, (midi-69)/12)
}

// SineVCO renders a sine oscillator at midi pitch, frequency-modulated by
// mod scaled to modDepth semitones. dst and mod must be the same length.
func SineVCO(dst, mod []float32, midi, modDepth float32, sampleRate int) {
	sr := float32(sampleRate)
	var phase float32
	for i := range dst {
		f := midiToHz(midi + modDepth*mod[i])
		phase += twoPi * f / sr
		if phase > twoPi {
			phase -= twoPi
		}
		dst[i] = math32.Sin(phase)
	}
}

// SquareSawVCO renders an oscillator morphing between square (shape 0) and
// saw (shape 1), frequency-modulated like SineVCO. The waveform is a
// band-limited partial sum truncated after the first few harmonics.
func SquareSawVCO(dst, mod []float32, midi, shape, modDepth float32, sampleRate int) {
	sr := float32(sampleRate)
	var phase float32
	for i := range dst {
		f := midiToHz(midi + modDepth*mod[i])
		phase += twoPi * f / sr
		if phase > twoPi {
			phase -= twoPi
		}
		var square, saw float32
		for k := 1; k <= 7; k += 2 {
			square += math32.Sin(float32(k)*phase) / float32(k)
		}
		for k := 1; k <= 7; k++ {
			saw += math32.Sin(float32(k)*phase) / float32(k)
		}
		dst[i] = (1-shape)*square*(4/math32.Pi) + shape*saw*(2/math32.Pi)
	}
}

// Noise fills dst with uniform noise in [-1, 1).
func Noise(dst []float32, rng *rand.Rand) {
	for i := range dst {
		dst[i] = rng.Float32()*2 - 1
	}
}

// VCA multiplies the signal by a control envelope in place.
func VCA(signal, control []float32) {
	for i := range signal {
		signal[i] *= control[i]
	}
}

// Mix sums the sources into dst with the given weights, normalized so the
// output stays inside [-1, 1] for unit-range sources.
func Mix(dst []float32, sources [][]float32, weights []float32) {
	var total float32
	for _, w := range weights {
		total += w
	}
	if total == 0 {
		for i := range dst {
			dst[i] = 0
		}
		return
	}
	for i := range dst {
		var acc float32
		for s, src := range sources {
			acc += weights[s] * src[i]
		}
		dst[i] = acc / total
	}
}
