// Package itfile assembles Impulse Tracker (.it) modules from the
// expanded Song Model: channel-mask packed patterns with last-value
// caching, 550-byte instrument blocks, 80-byte sample headers addressed
// through parapointers, and raw 16-bit PCM. All multi-byte integers are
// little-endian.
package itfile

import (
	"fmt"

	"github.com/SpecCade/SpecCade-sub006/song"
)

// IT note codes for the two release variants.
const (
	noteCut = 254
	noteOff = 255
)

// Channel-mask bits. The low nibble announces bytes that follow; the high
// nibble reuses the channel's previously written value for that field, so
// "unset" never degrades into a literal zero.
const (
	maskNote     = 1
	maskInst     = 2
	maskVolPan   = 4
	maskCommand  = 8
	maskLastNote = 16
	maskLastInst = 32
	maskLastVol  = 64
	maskLastCmd  = 128
)

// channelState is the per-channel write cache. It lives for one pattern
// only; the packer keeps no state across calls.
type channelState struct {
	mask     byte
	maskSet  bool
	note     byte
	noteSet  bool
	inst     byte
	instSet  bool
	vol      byte
	volSet   bool
	cmd      byte
	cmdParam byte
	cmdSet   bool
}

// PackPattern encodes one pattern into IT packed form, padding to padRows
// when the pattern is shorter. Pure function of the cell data.
func PackPattern(pat song.Pattern, channels, padRows int) ([]byte, error) {
	rows := pat.Rows
	if padRows < rows {
		padRows = rows
	}

	state := make([]channelState, channels)
	out := make([]byte, 0, padRows*2)

	for row := 0; row < padRows; row++ {
		for ch := 0; ch < channels; ch++ {
			if row >= rows {
				continue // pad rows are empty
			}
			cell := pat.Cells[row][ch]
			if cell.Empty() {
				continue
			}

			st := &state[ch]
			var mask byte
			var body []byte

			if cell.Kind != song.NoteNone {
				var n byte
				switch cell.Kind {
				case song.NotePitch:
					if cell.Note < 0 || cell.Note > 119 {
						return nil, fmt.Errorf("pattern %q row %d channel %d: note %d outside IT range C0..B9",
							pat.Name, row, ch, cell.Note)
					}
					n = byte(cell.Note)
				case song.NoteOff:
					n = noteOff
				case song.NoteCut:
					n = noteCut
				}
				if st.noteSet && st.note == n {
					mask |= maskLastNote
				} else {
					mask |= maskNote
					body = append(body, n)
					st.note = n
					st.noteSet = true
				}
			}

			if cell.HasInstrument {
				n := byte(cell.Instrument + 1) // 1-based on the wire
				if st.instSet && st.inst == n {
					mask |= maskLastInst
				} else {
					mask |= maskInst
					body = append(body, n)
					st.inst = n
					st.instSet = true
				}
			}

			if cell.HasVolume {
				n := byte(cell.Volume) // 0..64 is the volume range of the volpan column
				if st.volSet && st.vol == n {
					mask |= maskLastVol
				} else {
					mask |= maskVolPan
					body = append(body, n)
					st.vol = n
					st.volSet = true
				}
			}

			if cell.HasEffect {
				if st.cmdSet && st.cmd == cell.Effect && st.cmdParam == cell.Param {
					mask |= maskLastCmd
				} else {
					mask |= maskCommand
					body = append(body, cell.Effect, cell.Param)
					st.cmd = cell.Effect
					st.cmdParam = cell.Param
					st.cmdSet = true
				}
			}

			marker := byte(ch + 1)
			if !st.maskSet || st.mask != mask {
				out = append(out, marker|0x80, mask)
				st.mask = mask
				st.maskSet = true
			} else {
				out = append(out, marker)
			}
			out = append(out, body...)
		}
		out = append(out, 0) // end of row
	}

	return out, nil
}
