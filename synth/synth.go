// Package synth is the built-in synthesis engine: a closed set of
// waveform algorithms rendered into mono float64 PCM. Rendering is a pure
// function of (params, frequency, seed); the same inputs always produce
// the same buffer.
package synth

import (
	"fmt"
	"math"
)

// NativeRate is the sample rate the engine renders at. The instrument
// resolver resamples to each instrument's target rate afterwards.
const NativeRate = 44100

// Algorithm is the closed tagged union of synthesis algorithms. Adding an
// algorithm means adding a variant here and a case to render; there is no
// runtime-dynamic dispatch.
type Algorithm int

const (
	Sine Algorithm = iota
	Square
	Triangle
	Saw
	Noise
	FM
)

// ParseAlgorithm maps the specification's synthesis type string.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case "sine":
		return Sine, nil
	case "square":
		return Square, nil
	case "triangle":
		return Triangle, nil
	case "saw":
		return Saw, nil
	case "noise":
		return Noise, nil
	case "fm":
		return FM, nil
	default:
		return 0, fmt.Errorf("unknown synthesis algorithm %q", s)
	}
}

func (a Algorithm) String() string {
	switch a {
	case Sine:
		return "sine"
	case Square:
		return "square"
	case Triangle:
		return "triangle"
	case Saw:
		return "saw"
	case Noise:
		return "noise"
	case FM:
		return "fm"
	default:
		return fmt.Sprintf("algorithm(%d)", int(a))
	}
}

// Params selects an algorithm and its knobs.
type Params struct {
	Algorithm  Algorithm
	Duration   float64 // seconds; 0 means one full period
	PulseWidth float64 // square duty cycle, 0 means 0.5
	ModRatio   float64 // fm modulator/carrier ratio, 0 means 2
	ModDepth   float64 // fm modulation index, 0 means 1
}

// Engine renders waveforms. The zero value is ready to use.
type Engine struct{}

// Render produces a mono buffer in -1..1 at NativeRate. freq is the pitch
// the buffer represents (the instrument's base note); seed feeds the noise
// generator and nothing else.
func (Engine) Render(p Params, freq float64, seed uint64) ([]float64, int, error) {
	if freq <= 0 {
		return nil, 0, fmt.Errorf("synthesis frequency must be positive, got %g", freq)
	}

	duration := p.Duration
	if duration <= 0 {
		duration = 1 / freq
	}
	n := int(math.Round(duration * NativeRate))
	if n < 1 {
		n = 1
	}
	out := make([]float64, n)

	switch p.Algorithm {
	case Sine:
		step := freq / NativeRate
		phase := 0.0
		for i := range out {
			out[i] = math.Sin(2 * math.Pi * phase)
			phase += step
			if phase >= 1 {
				phase -= 1
			}
		}

	case Square:
		duty := p.PulseWidth
		if duty <= 0 || duty >= 1 {
			duty = 0.5
		}
		step := freq / NativeRate
		phase := 0.0
		for i := range out {
			if phase < duty {
				out[i] = 1
			} else {
				out[i] = -1
			}
			phase += step
			if phase >= 1 {
				phase -= 1
			}
		}

	case Triangle:
		step := freq / NativeRate
		phase := 0.0
		for i := range out {
			if phase < 0.5 {
				out[i] = 4*phase - 1
			} else {
				out[i] = 3 - 4*phase
			}
			phase += step
			if phase >= 1 {
				phase -= 1
			}
		}

	case Saw:
		step := freq / NativeRate
		phase := 0.0
		for i := range out {
			out[i] = 2*phase - 1
			phase += step
			if phase >= 1 {
				phase -= 1
			}
		}

	case Noise:
		// xorshift64: identical sequence for identical seeds.
		state := seed
		if state == 0 {
			state = 0x9E3779B97F4A7C15
		}
		for i := range out {
			state ^= state << 13
			state ^= state >> 7
			state ^= state << 17
			out[i] = float64(int64(state)) / math.MaxInt64
		}

	case FM:
		ratio := p.ModRatio
		if ratio <= 0 {
			ratio = 2
		}
		depth := p.ModDepth
		if depth <= 0 {
			depth = 1
		}
		carStep := freq / NativeRate
		modStep := freq * ratio / NativeRate
		carPhase, modPhase := 0.0, 0.0
		for i := range out {
			out[i] = math.Sin(2*math.Pi*carPhase + depth*math.Sin(2*math.Pi*modPhase))
			carPhase += carStep
			modPhase += modStep
			if carPhase >= 1 {
				carPhase -= 1
			}
			if modPhase >= 1 {
				modPhase -= 1
			}
		}

	default:
		return nil, 0, fmt.Errorf("unhandled synthesis algorithm %d", p.Algorithm)
	}

	return out, NativeRate, nil
}
