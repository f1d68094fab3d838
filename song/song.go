// Package song defines the expanded Song Model that the format writers
// consume: concrete patterns with per-row per-channel cells, resolved PCM
// instruments and a flat play order. A Song is built once per generation
// call and discarded afterwards; nothing in this package has identity
// beyond a single call.
package song

import "fmt"

// Format selects the output module format.
type Format int

const (
	FormatXM Format = iota
	FormatIT
)

func (f Format) String() string {
	switch f {
	case FormatXM:
		return "xm"
	case FormatIT:
		return "it"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// ParseFormat maps the specification's format string to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "xm":
		return FormatXM, nil
	case "it":
		return FormatIT, nil
	default:
		return 0, fmt.Errorf("unknown module format %q (want \"xm\" or \"it\")", s)
	}
}

// NoteKind describes what the Note field of a Cell means.
type NoteKind int

const (
	NoteNone NoteKind = iota // no note in this cell
	NotePitch                // Note holds a semitone index (C0 = 0)
	NoteOff                  // key off
	NoteCut                  // hard cut (IT only; maps to key off in XM)
)

// Cell is one fully expanded pattern cell. Absent fields are tracked
// explicitly because "unset" and "zero" have different packed encodings in
// both target formats.
type Cell struct {
	Kind NoteKind
	Note int // semitone index, meaningful only when Kind == NotePitch

	Instrument    int // 0-based; converted to 1-based at write time
	HasInstrument bool

	Volume    int // 0..64
	HasVolume bool

	Effect    uint8
	Param     uint8
	HasEffect bool
}

// Empty reports whether the cell carries no data at all.
func (c Cell) Empty() bool {
	return c.Kind == NoteNone && !c.HasInstrument && !c.HasVolume && !c.HasEffect
}

// Pattern is a fully expanded grid of Rows x channels cells.
type Pattern struct {
	Name  string
	Rows  int
	Cells [][]Cell // [row][channel]
}

// NewPattern allocates an empty pattern grid.
func NewPattern(name string, rows, channels int) Pattern {
	cells := make([][]Cell, rows)
	for i := range cells {
		cells[i] = make([]Cell, channels)
	}
	return Pattern{Name: name, Rows: rows, Cells: cells}
}

// Instrument is a resolved instrument: mono 16-bit PCM ready to embed.
type Instrument struct {
	Name       string
	PCM        []int16
	SampleRate int
	BaseNote   int // semitone index the PCM plays at its native rate
}

// Song is the complete expanded model.
type Song struct {
	Format      Format
	Name        string
	BPM         int
	Speed       int // ticks per row
	NumChannels int
	RestartPos  int

	// IT-specific header options; ignored by the XM writer.
	Stereo       bool
	GlobalVolume int // 0..128
	MixVolume    int // 0..128

	Patterns    []Pattern
	Order       []int // play order, indices into Patterns
	Instruments []Instrument
}

// Warning is a non-fatal observation reported next to a successful result.
type Warning struct {
	Context string // pattern or instrument name, may be empty
	Message string
}

func (w Warning) String() string {
	if w.Context == "" {
		return w.Message
	}
	return fmt.Sprintf("%s: %s", w.Context, w.Message)
}
