// Package xmfile assembles FastTracker II extended module (.xm) files
// from the expanded Song Model: packed patterns, instrument and sample
// blocks with delta-encoded PCM, and the fixed 1.04 header layout. All
// multi-byte integers are little-endian.
package xmfile

import (
	"fmt"

	"github.com/SpecCade/SpecCade-sub006/song"
)

// Cell packing bits. A lead byte with bit 7 set announces which of the
// five cell fields follow; absent fields are simply not serialized, which
// is what keeps "unset" distinct from an explicit zero.
const (
	packNote       = 0x01
	packInstrument = 0x02
	packVolume     = 0x04
	packEffect     = 0x08
	packParam      = 0x10
	packFlag       = 0x80
)

// keyOff is the XM note code for key off; note cut has no separate code
// in this format and maps to key off as well.
const keyOff = 97

// PackPattern encodes one pattern's cells into XM packed form, rows outer,
// channels inner. It is a pure function of the cell data.
func PackPattern(pat song.Pattern, channels int) ([]byte, error) {
	out := make([]byte, 0, pat.Rows*channels)

	for row := 0; row < pat.Rows; row++ {
		for ch := 0; ch < channels; ch++ {
			cell := pat.Cells[row][ch]

			var mask byte = packFlag
			var body [5]byte
			n := 0

			switch cell.Kind {
			case song.NotePitch:
				code := cell.Note + 1
				if code < 1 || code > 96 {
					return nil, fmt.Errorf("pattern %q row %d channel %d: note %d outside XM range C0..B7",
						pat.Name, row, ch, cell.Note)
				}
				mask |= packNote
				body[n] = byte(code)
				n++
			case song.NoteOff, song.NoteCut:
				mask |= packNote
				body[n] = keyOff
				n++
			}

			if cell.HasInstrument {
				mask |= packInstrument
				body[n] = byte(cell.Instrument + 1) // 1-based on the wire
				n++
			}
			if cell.HasVolume {
				// Volume column: 0x10..0x50 maps volumes 0..64.
				mask |= packVolume
				body[n] = byte(0x10 + cell.Volume)
				n++
			}
			if cell.HasEffect {
				mask |= packEffect
				body[n] = cell.Effect
				n++
				mask |= packParam
				body[n] = cell.Param
				n++
			}

			out = append(out, mask)
			out = append(out, body[:n]...)
		}
	}
	return out, nil
}
