// Package resolve materializes PCM sample data for every instrument in a
// specification: synthesis-defined instruments go through the synthesis
// engine with a per-instrument derived seed, sample-defined instruments go
// through the WAV decoder. Resolution of one instrument depends only on
// its own definition and derived seed, so the result is independent of
// resolution order.
package resolve

import (
	"errors"
	"fmt"
	"os"

	"github.com/SpecCade/SpecCade-sub006/note"
	"github.com/SpecCade/SpecCade-sub006/song"
	"github.com/SpecCade/SpecCade-sub006/spec"
	"github.com/SpecCade/SpecCade-sub006/synth"
	"github.com/SpecCade/SpecCade-sub006/wav"
)

// Default reference pitch per format when base_note is omitted. The
// difference is an intentional format-compatibility choice: XM tunes
// samples around C-4, IT around C-5.
const (
	defaultBaseNoteXM = 4 * 12 // C4
	defaultBaseNoteIT = 5 * 12 // C5
)

// DefaultSampleRate is the target rate applied when an instrument does
// not name one.
const DefaultSampleRate = 22050

// maxSampleFrames is a hard cap on embedded sample length; both formats
// store lengths in 32-bit fields but files this large are authoring
// mistakes, not songs.
const maxSampleFrames = 16 * 1024 * 1024

// Synthesizer renders synthesis parameters into mono float PCM. It must
// be pure: identical inputs produce identical buffers.
type Synthesizer interface {
	Render(p synth.Params, freq float64, seed uint64) ([]float64, int, error)
}

// Options supplies the collaborators. Zero-value fields fall back to the
// built-in engine, the built-in WAV decoder and os.ReadFile.
type Options struct {
	Synth    Synthesizer
	Decode   func([]byte) (wav.Clip, error)
	ReadFile func(string) ([]byte, error)
}

func (o Options) withDefaults() Options {
	if o.Synth == nil {
		o.Synth = synth.Engine{}
	}
	if o.Decode == nil {
		o.Decode = wav.Decode
	}
	if o.ReadFile == nil {
		o.ReadFile = os.ReadFile
	}
	return o
}

// Resolve materializes every instrument of the specification.
func Resolve(doc *spec.Document, format song.Format, seed uint64, opts Options) ([]song.Instrument, []song.Warning, error) {
	opts = opts.withDefaults()

	var warnings []song.Warning
	out := make([]song.Instrument, len(doc.Instruments))
	for i, inst := range doc.Instruments {
		resolved, w, err := resolveOne(inst, i, format, seed, opts)
		if err != nil {
			return nil, nil, err
		}
		warnings = append(warnings, w...)
		out[i] = resolved
	}
	return out, warnings, nil
}

func resolveOne(inst spec.Instrument, index int, format song.Format, seed uint64, opts Options) (song.Instrument, []song.Warning, error) {
	var warnings []song.Warning

	baseNote := defaultBaseNoteXM
	if format == song.FormatIT {
		baseNote = defaultBaseNoteIT
	}
	if inst.BaseNote != "" {
		n, err := note.Parse(inst.BaseNote)
		if err != nil {
			return song.Instrument{}, nil, fmt.Errorf("instrument %d (%s): %w", index, inst.Name, err)
		}
		baseNote = n
	}

	targetRate := inst.SampleRate
	if targetRate == 0 {
		targetRate = DefaultSampleRate
	}

	var buf []float64
	var nativeRate int

	switch {
	case inst.Synthesis != nil:
		algo, err := synth.ParseAlgorithm(inst.Synthesis.Type)
		if err != nil {
			return song.Instrument{}, nil, fmt.Errorf("instrument %d (%s): %w", index, inst.Name, err)
		}
		freq := inst.Synthesis.Freq
		if freq <= 0 {
			freq = note.Frequency(baseNote)
		}
		params := synth.Params{
			Algorithm:  algo,
			Duration:   inst.Synthesis.Duration,
			PulseWidth: inst.Synthesis.PulseWidth,
			ModRatio:   inst.Synthesis.ModRatio,
			ModDepth:   inst.Synthesis.ModDepth,
		}
		instSeed := DeriveSeed(seed, fmt.Sprintf("instrument/%d", index))
		buf, nativeRate, err = opts.Synth.Render(params, freq, instSeed)
		if err != nil {
			return song.Instrument{}, nil, fmt.Errorf("instrument %d (%s): synthesis: %w", index, inst.Name, err)
		}

	case inst.Sample != "":
		data, err := opts.ReadFile(inst.Sample)
		if err != nil {
			return song.Instrument{}, nil, fmt.Errorf("instrument %d (%s): reading sample file %q: %w", index, inst.Name, inst.Sample, err)
		}
		clip, err := opts.Decode(data)
		var bitErr *wav.ErrBitDepth
		if errors.As(err, &bitErr) {
			return song.Instrument{}, nil, &song.UnsupportedFormatError{Instrument: inst.Name, Msg: bitErr.Error()}
		}
		if err != nil {
			return song.Instrument{}, nil, fmt.Errorf("instrument %d (%s): decoding %q: %w", index, inst.Name, inst.Sample, err)
		}
		buf = downmix(clip)
		nativeRate = clip.SampleRate
		if clip.Channels > 1 {
			warnings = append(warnings, song.Warning{
				Context: inst.Name,
				Message: fmt.Sprintf("down-mixed %d-channel sample to mono", clip.Channels),
			})
		}

	default:
		return song.Instrument{}, nil, fmt.Errorf("instrument %d (%s): no synthesis parameters or sample reference", index, inst.Name)
	}

	if nativeRate != targetRate {
		buf = resampleLinear(buf, nativeRate, targetRate)
	}

	if inst.Envelope != nil {
		applyADSR(buf, *inst.Envelope, targetRate)
	}

	if len(buf) > maxSampleFrames {
		return song.Instrument{}, nil, &song.UnsupportedFormatError{
			Instrument: inst.Name,
			Msg:        fmt.Sprintf("sample length %d exceeds the maximum of %d frames", len(buf), maxSampleFrames),
		}
	}

	return song.Instrument{
		Name:       inst.Name,
		PCM:        quantize(buf),
		SampleRate: targetRate,
		BaseNote:   baseNote,
	}, warnings, nil
}

// downmix averages interleaved channels into mono floats in -1..1. The
// per-frame integer sum is exact, so the result does not depend on
// accumulation order.
func downmix(clip wav.Clip) []float64 {
	frames := clip.Frames()
	out := make([]float64, frames)
	ch := clip.Channels
	for i := 0; i < frames; i++ {
		sum := 0
		for c := 0; c < ch; c++ {
			sum += int(clip.Samples[i*ch+c])
		}
		out[i] = float64(sum) / float64(ch) / 32768
	}
	return out
}

// quantize converts floats in -1..1 to int16 with symmetric clamping and
// half-away-from-zero rounding.
func quantize(buf []float64) []int16 {
	out := make([]int16, len(buf))
	for i, v := range buf {
		s := v * 32767
		if s >= 0 {
			s += 0.5
		} else {
			s -= 0.5
		}
		n := int(s)
		if n > 32767 {
			n = 32767
		}
		if n < -32768 {
			n = -32768
		}
		out[i] = int16(n)
	}
	return out
}
