package itfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/SpecCade/SpecCade-sub006/song"
)

const (
	createdWith    = 0x0214 // Impulse Tracker 2.14 layout
	compatibleWith = 0x0214

	headerFixed = 192 // bytes before the order list
	instSize    = 550
	smpSize     = 80
	patHeader   = 8
)

// Header flag bits.
const (
	flagStereo       = 1 << 0
	flagInstruments  = 1 << 2
	flagLinearSlides = 1 << 3
)

// Write serializes the Song Model into a complete IT file. Structural
// ceilings are enforced here as a final safety net; on any error nothing
// is returned.
func Write(s *song.Song) ([]byte, []song.Warning, error) {
	if err := checkLimits(s); err != nil {
		return nil, nil, err
	}

	var warnings []song.Warning

	// Pack patterns first so a packing error aborts before any header
	// bytes exist. Patterns below the format minimum are padded.
	packed := make([][]byte, len(s.Patterns))
	rowCounts := make([]int, len(s.Patterns))
	for i, pat := range s.Patterns {
		rows := pat.Rows
		if rows < song.ITMinRows {
			warnings = append(warnings, song.Warning{
				Context: pat.Name,
				Message: fmt.Sprintf("pattern padded from %d to %d rows (format minimum)", rows, song.ITMinRows),
			})
			rows = song.ITMinRows
		}
		data, err := PackPattern(pat, s.NumChannels, rows)
		if err != nil {
			return nil, nil, err
		}
		// The pattern header stores the packed length in 16 bits; a
		// pattern can exceed that while staying inside every row and
		// channel ceiling.
		if len(data) > 0xFFFF {
			return nil, nil, &song.FormatLimitError{
				Format: song.FormatIT, What: "packed pattern bytes", Limit: 0xFFFF, Got: len(data),
			}
		}
		packed[i] = data
		rowCounts[i] = rows
	}

	numOrders := len(s.Order) + 1 // trailing end-of-song marker
	numIns := len(s.Instruments)
	numSmp := len(s.Instruments) // one sample per instrument
	numPat := len(s.Patterns)

	// Block offsets. Layout: header, orders, parapointers, instrument
	// blocks, sample headers, pattern blocks, raw sample data.
	pointerBase := headerFixed + numOrders + 4*(numIns+numSmp+numPat)
	insOffsets := make([]uint32, numIns)
	for i := range insOffsets {
		insOffsets[i] = uint32(pointerBase + i*instSize)
	}
	smpOffsets := make([]uint32, numSmp)
	for i := range smpOffsets {
		smpOffsets[i] = uint32(pointerBase + numIns*instSize + i*smpSize)
	}
	patOffsets := make([]uint32, numPat)
	off := pointerBase + numIns*instSize + numSmp*smpSize
	for i := range patOffsets {
		patOffsets[i] = uint32(off)
		off += patHeader + len(packed[i])
	}
	smpDataOffsets := make([]uint32, numSmp)
	for i, inst := range s.Instruments {
		smpDataOffsets[i] = uint32(off)
		off += len(inst.PCM) * 2
	}

	var buf bytes.Buffer
	buf.Grow(off)

	buf.WriteString("IMPM")
	writeFixed(&buf, s.Name, 26)
	putU16(&buf, 0x0410) // pattern row highlight (4 rows/beat, 16/measure)
	putU16(&buf, uint16(numOrders))
	putU16(&buf, uint16(numIns))
	putU16(&buf, uint16(numSmp))
	putU16(&buf, uint16(numPat))
	putU16(&buf, createdWith)
	putU16(&buf, compatibleWith)

	flags := uint16(flagInstruments | flagLinearSlides)
	if s.Stereo {
		flags |= flagStereo
	}
	putU16(&buf, flags)
	putU16(&buf, 0) // special
	buf.WriteByte(byte(s.GlobalVolume))
	buf.WriteByte(byte(s.MixVolume))
	buf.WriteByte(byte(s.Speed))
	buf.WriteByte(byte(s.BPM))
	buf.WriteByte(128) // panning separation
	buf.WriteByte(0)   // pitch wheel depth
	putU16(&buf, 0)    // message length
	putU32(&buf, 0)    // message offset
	putU32(&buf, 0)    // reserved

	for ch := 0; ch < 64; ch++ {
		pan := byte(32)
		if ch >= s.NumChannels {
			pan |= 128 // channel disabled
		}
		buf.WriteByte(pan)
	}
	for ch := 0; ch < 64; ch++ {
		buf.WriteByte(64) // channel volume
	}

	for _, idx := range s.Order {
		buf.WriteByte(byte(idx))
	}
	buf.WriteByte(255) // end of song

	for _, o := range insOffsets {
		putU32(&buf, o)
	}
	for _, o := range smpOffsets {
		putU32(&buf, o)
	}
	for _, o := range patOffsets {
		putU32(&buf, o)
	}

	for i, inst := range s.Instruments {
		writeInstrument(&buf, inst, i+1)
	}
	for i, inst := range s.Instruments {
		writeSampleHeader(&buf, inst, smpDataOffsets[i])
	}
	for i := range s.Patterns {
		putU16(&buf, uint16(len(packed[i])))
		putU16(&buf, uint16(rowCounts[i]))
		putU32(&buf, 0) // reserved
		buf.Write(packed[i])
	}
	for _, inst := range s.Instruments {
		for _, v := range inst.PCM {
			putU16(&buf, uint16(v))
		}
	}

	if buf.Len() != off {
		return nil, nil, fmt.Errorf("it writer: size mismatch: wrote %d bytes, expected %d", buf.Len(), off)
	}
	return buf.Bytes(), warnings, nil
}

func checkLimits(s *song.Song) error {
	if s.NumChannels > song.ITMaxChannels {
		return &song.FormatLimitError{Format: song.FormatIT, What: "channels", Limit: song.ITMaxChannels, Got: s.NumChannels}
	}
	if len(s.Patterns) > song.ITMaxPatterns {
		return &song.FormatLimitError{Format: song.FormatIT, What: "patterns", Limit: song.ITMaxPatterns, Got: len(s.Patterns)}
	}
	if len(s.Instruments) > song.ITMaxInstruments {
		return &song.FormatLimitError{Format: song.FormatIT, What: "instruments", Limit: song.ITMaxInstruments, Got: len(s.Instruments)}
	}
	if len(s.Instruments) > song.ITMaxSamples {
		return &song.FormatLimitError{Format: song.FormatIT, What: "samples", Limit: song.ITMaxSamples, Got: len(s.Instruments)}
	}
	if len(s.Order)+1 > song.ITMaxOrders {
		return &song.FormatLimitError{Format: song.FormatIT, What: "order entries", Limit: song.ITMaxOrders - 1, Got: len(s.Order)}
	}
	for _, pat := range s.Patterns {
		if pat.Rows > song.ITMaxRows {
			return &song.FormatLimitError{Format: song.FormatIT, What: "rows", Limit: song.ITMaxRows, Got: pat.Rows}
		}
	}
	for _, idx := range s.Order {
		if idx < 0 || idx >= len(s.Patterns) {
			return &song.ReferenceError{Kind: "pattern", Index: idx}
		}
	}
	return nil
}

// writeInstrument emits one 550-byte instrument block. sampleNum is the
// 1-based sample this instrument plays for every note.
func writeInstrument(buf *bytes.Buffer, inst song.Instrument, sampleNum int) {
	buf.WriteString("IMPI")
	writeFixed(buf, inst.Name, 12) // DOS filename field
	buf.WriteByte(0)
	buf.WriteByte(0)    // NNA: cut
	buf.WriteByte(0)    // duplicate check type: off
	buf.WriteByte(0)    // duplicate check action
	putU16(buf, 0)      // fadeout
	buf.WriteByte(0)    // pitch-pan separation
	buf.WriteByte(60)   // pitch-pan center: C-5
	buf.WriteByte(128)  // global volume
	buf.WriteByte(32 | 128) // default pan, disabled
	buf.WriteByte(0)    // random volume variation
	buf.WriteByte(0)    // random panning variation
	putU16(buf, createdWith)
	buf.WriteByte(1) // number of samples
	buf.WriteByte(0)
	writeFixed(buf, inst.Name, 26)
	buf.WriteByte(0) // initial filter cutoff
	buf.WriteByte(0) // initial filter resonance
	buf.WriteByte(0) // midi channel
	buf.WriteByte(0) // midi program
	putU16(buf, 0)   // midi bank

	// Note-sample table: every note maps to itself on our single sample.
	for n := 0; n < 120; n++ {
		buf.WriteByte(byte(n))
		buf.WriteByte(byte(sampleNum))
	}

	// Volume, panning and pitch envelopes, all disabled. The ADSR shape
	// is already baked into the PCM by the resolver.
	for e := 0; e < 3; e++ {
		buf.Write(make([]byte, 82))
	}
}

func writeSampleHeader(buf *bytes.Buffer, inst song.Instrument, dataOffset uint32) {
	buf.WriteString("IMPS")
	writeFixed(buf, inst.Name, 12)
	buf.WriteByte(0)
	buf.WriteByte(64)    // global volume
	buf.WriteByte(1 | 2) // sample present, 16-bit
	buf.WriteByte(64)    // default volume
	writeFixed(buf, inst.Name, 26)
	buf.WriteByte(1) // convert: signed samples
	buf.WriteByte(0) // default pan, disabled
	putU32(buf, uint32(len(inst.PCM)))
	putU32(buf, 0) // loop begin
	putU32(buf, 0) // loop end
	putU32(buf, c5Speed(inst))
	putU32(buf, 0) // sustain loop begin
	putU32(buf, 0) // sustain loop end
	putU32(buf, dataOffset)
	buf.WriteByte(0) // vibrato speed
	buf.WriteByte(0) // vibrato depth
	buf.WriteByte(0) // vibrato rate
	buf.WriteByte(0) // vibrato waveform
}

// c5Speed derives the sample rate field that makes the instrument's base
// note play the PCM at its native rate. IT pitches samples around C-5.
func c5Speed(inst song.Instrument) uint32 {
	speed := float64(inst.SampleRate) * math.Pow(2, float64(60-inst.BaseNote)/12)
	return uint32(math.Round(speed))
}

func writeFixed(buf *bytes.Buffer, s string, n int) {
	field := make([]byte, n)
	copy(field, s)
	buf.Write(field)
}

func putU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func putU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
