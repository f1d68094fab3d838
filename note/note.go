// Package note converts between note names, per-format note codes and
// frequencies. All conversions are pure table lookups plus arithmetic so
// they behave identically on every platform.
package note

import (
	"fmt"
	"strings"
)

// Semitone offsets within an octave for the natural note letters.
var letterBase = map[byte]int{
	'C': 0,
	'D': 2,
	'E': 4,
	'F': 5,
	'G': 7,
	'A': 9,
	'B': 11,
}

// Canonical names for the 12 semitones, sharps only. Formatting always
// emits these, so Parse(Format(n)) == n for every semitone.
var semitoneNames = [12]string{
	"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B",
}

// Frequencies of octave 4 in 12-tone equal temperament with A4 = 440 Hz.
// Stored as literal constants so no math library call is involved; other
// octaves are exact doublings/halvings.
var octave4Freqs = [12]float64{
	261.6255653005986,  // C4
	277.1826309768721,  // C#4
	293.6647679174076,  // D4
	311.1269837220809,  // D#4
	329.6275569128699,  // E4
	349.2282314330039,  // F4
	369.9944227116344,  // F#4
	391.99543598174927, // G4
	415.3046975799451,  // G#4
	440.0,              // A4
	466.1637615180899,  // A#4
	493.8833012561241,  // B4
}

// XM note codes. Valid playable notes are 1..96 (C0..B7); 97 is key off.
const (
	XMNoteMin = 1
	XMNoteMax = 96
	XMKeyOff  = 97
)

// IT note codes. Valid playable notes are 0..119 (C0..B9); 255 is note
// off and 254 is note cut.
const (
	ITNoteMin = 0
	ITNoteMax = 119
	ITNoteOff = 255
	ITNoteCut = 254
)

// Parse converts a note name such as "C4", "F#3" or "Bb5" into a semitone
// index where C0 is 0. Sharps and flats are both accepted; octaves 0..9.
func Parse(name string) (int, error) {
	s := strings.TrimSpace(name)
	if len(s) < 2 || len(s) > 3 {
		return 0, fmt.Errorf("invalid note name %q", name)
	}

	letter := s[0]
	if letter >= 'a' && letter <= 'g' {
		letter -= 'a' - 'A'
	}
	base, ok := letterBase[letter]
	if !ok {
		return 0, fmt.Errorf("invalid note letter in %q", name)
	}

	accidental := 0
	octaveChar := s[1]
	if len(s) == 3 {
		switch s[1] {
		case '#':
			accidental = 1
		case 'b':
			accidental = -1
		default:
			return 0, fmt.Errorf("invalid accidental in %q", name)
		}
		octaveChar = s[2]
	}

	if octaveChar < '0' || octaveChar > '9' {
		return 0, fmt.Errorf("invalid octave in %q", name)
	}
	octave := int(octaveChar - '0')

	n := octave*12 + base + accidental
	if n < 0 || n > 119 {
		return 0, fmt.Errorf("note %q out of range", name)
	}
	return n, nil
}

// Format renders a semitone index (C0 = 0) as its canonical sharp-based
// name, e.g. 49 -> "C#4".
func Format(semitone int) string {
	if semitone < 0 || semitone > 119 {
		return fmt.Sprintf("?%d", semitone)
	}
	return fmt.Sprintf("%s%d", semitoneNames[semitone%12], semitone/12)
}

// ToXM converts a note name into an XM note code (1..96).
func ToXM(name string) (uint8, error) {
	n, err := Parse(name)
	if err != nil {
		return 0, err
	}
	code := n + 1
	if code < XMNoteMin || code > XMNoteMax {
		return 0, fmt.Errorf("note %q (code %d) outside XM range C0..B7", name, code)
	}
	return uint8(code), nil
}

// FromXM converts an XM note code back into its canonical name.
func FromXM(code uint8) (string, error) {
	if code < XMNoteMin || code > XMNoteMax {
		return "", fmt.Errorf("XM note code %d outside valid range %d..%d", code, XMNoteMin, XMNoteMax)
	}
	return Format(int(code) - 1), nil
}

// ToIT converts a note name into an IT note code (0..119).
func ToIT(name string) (uint8, error) {
	n, err := Parse(name)
	if err != nil {
		return 0, err
	}
	if n < ITNoteMin || n > ITNoteMax {
		return 0, fmt.Errorf("note %q (code %d) outside IT range C0..B9", name, n)
	}
	return uint8(n), nil
}

// FromIT converts an IT note code back into its canonical name.
func FromIT(code uint8) (string, error) {
	if code > ITNoteMax {
		return "", fmt.Errorf("IT note code %d outside valid range %d..%d", code, ITNoteMin, ITNoteMax)
	}
	return Format(int(code)), nil
}

// Frequency returns the 12-TET frequency of a semitone index (C0 = 0)
// referenced to A4 = 440 Hz. Octave shifts are exact powers of two applied
// to the octave-4 constant table, so the result is bit-identical across
// platforms.
func Frequency(semitone int) float64 {
	f := octave4Freqs[((semitone%12)+12)%12]
	octave := semitone / 12
	if semitone < 0 && semitone%12 != 0 {
		octave--
	}
	for o := octave; o < 4; o++ {
		f /= 2
	}
	for o := octave; o > 4; o-- {
		f *= 2
	}
	return f
}

// FrequencyOf is Frequency applied to a parsed note name.
func FrequencyOf(name string) (float64, error) {
	n, err := Parse(name)
	if err != nil {
		return 0, err
	}
	return Frequency(n), nil
}
