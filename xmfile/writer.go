package xmfile

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/SpecCade/SpecCade-sub006/song"
)

const (
	idText      = "Extended Module: "
	trackerName = "SpecCade Tracker"
	version     = 0x0104

	headerSize     = 276 // from the version field onward: 4+2+2+2+2+2+2+2+2+256
	patternHeader  = 9
	instHeaderSize = 263
	sampleHeader   = 40

	// Sample rate a relative note of zero maps to at C-4.
	c4Rate = 8363.0
)

// Write serializes the Song Model into a complete XM file. The structural
// ceilings are enforced here as a final safety net; on any error nothing
// is returned.
func Write(s *song.Song) ([]byte, []song.Warning, error) {
	if err := checkLimits(s); err != nil {
		return nil, nil, err
	}

	var warnings []song.Warning
	var buf bytes.Buffer

	// Pack all patterns up front so a packing error aborts before any
	// header bytes exist.
	packed := make([][]byte, len(s.Patterns))
	for i, pat := range s.Patterns {
		data, err := PackPattern(pat, s.NumChannels)
		if err != nil {
			return nil, nil, err
		}
		packed[i] = data
	}

	buf.WriteString(idText)
	writeFixed(&buf, s.Name, 20)
	buf.WriteByte(0x1A)
	writeFixed(&buf, trackerName, 20)
	putU16(&buf, version)
	putU32(&buf, headerSize)
	putU16(&buf, uint16(len(s.Order)))
	putU16(&buf, uint16(s.RestartPos))
	putU16(&buf, uint16(s.NumChannels))
	putU16(&buf, uint16(len(s.Patterns)))
	putU16(&buf, uint16(len(s.Instruments)))
	putU16(&buf, 1) // linear frequency table
	putU16(&buf, uint16(s.Speed))
	putU16(&buf, uint16(s.BPM))

	var order [256]byte
	for i, idx := range s.Order {
		order[i] = byte(idx)
	}
	buf.Write(order[:])

	for i, pat := range s.Patterns {
		putU32(&buf, patternHeader)
		buf.WriteByte(0) // packing type
		putU16(&buf, uint16(pat.Rows))
		putU16(&buf, uint16(len(packed[i])))
		buf.Write(packed[i])
	}

	for _, inst := range s.Instruments {
		writeInstrument(&buf, inst)
	}

	return buf.Bytes(), warnings, nil
}

func checkLimits(s *song.Song) error {
	if s.NumChannels > song.XMMaxChannels {
		return &song.FormatLimitError{Format: song.FormatXM, What: "channels", Limit: song.XMMaxChannels, Got: s.NumChannels}
	}
	if len(s.Patterns) > song.XMMaxPatterns {
		return &song.FormatLimitError{Format: song.FormatXM, What: "patterns", Limit: song.XMMaxPatterns, Got: len(s.Patterns)}
	}
	if len(s.Instruments) > song.XMMaxInstruments {
		return &song.FormatLimitError{Format: song.FormatXM, What: "instruments", Limit: song.XMMaxInstruments, Got: len(s.Instruments)}
	}
	if len(s.Order) > song.XMMaxOrders {
		return &song.FormatLimitError{Format: song.FormatXM, What: "order entries", Limit: song.XMMaxOrders, Got: len(s.Order)}
	}
	for _, pat := range s.Patterns {
		if pat.Rows > song.XMMaxRows {
			return &song.FormatLimitError{Format: song.FormatXM, What: "rows", Limit: song.XMMaxRows, Got: pat.Rows}
		}
	}
	for _, idx := range s.Order {
		if idx < 0 || idx >= len(s.Patterns) {
			return &song.ReferenceError{Kind: "pattern", Index: idx}
		}
	}
	return nil
}

func writeInstrument(buf *bytes.Buffer, inst song.Instrument) {
	putU32(buf, instHeaderSize)
	writeFixed(buf, inst.Name, 22)
	buf.WriteByte(0)  // instrument type, always 0
	putU16(buf, 1)    // number of samples
	putU32(buf, sampleHeader)
	buf.Write(make([]byte, 96))    // keymap: every note uses sample 0
	buf.Write(make([]byte, 48+48)) // volume + panning envelope points
	buf.WriteByte(0)               // volume points
	buf.WriteByte(0)               // panning points
	buf.Write(make([]byte, 6))     // sustain/loop point indices
	buf.WriteByte(0)               // volume envelope type (disabled)
	buf.WriteByte(0)               // panning envelope type (disabled)
	buf.Write(make([]byte, 4))     // vibrato type/sweep/depth/rate
	putU16(buf, 0)                 // volume fadeout
	buf.Write(make([]byte, 22))    // reserved

	relNote, finetune := samplePitch(inst)

	putU32(buf, uint32(len(inst.PCM)*2)) // sample length in bytes
	putU32(buf, 0)                       // loop start
	putU32(buf, 0)                       // loop length
	buf.WriteByte(64)                    // volume
	buf.WriteByte(byte(finetune))
	buf.WriteByte(0x10) // 16-bit, no loop
	buf.WriteByte(128)  // panning, center
	buf.WriteByte(byte(relNote))
	buf.WriteByte(0) // reserved
	writeFixed(buf, inst.Name, 22)

	// Sample data is stored as successive deltas.
	prev := int16(0)
	for _, v := range inst.PCM {
		delta := uint16(v) - uint16(prev)
		putU16(buf, delta)
		prev = v
	}
}

// samplePitch derives the relative-note/finetune pair that makes the
// instrument's base note play the PCM at its native rate. XM pitches
// samples around 8363 Hz at C-4.
func samplePitch(inst song.Instrument) (int8, int8) {
	baseCode := inst.BaseNote + 1 // XM note code of the base note
	x := float64(49-baseCode) + 12*math.Log2(float64(inst.SampleRate)/c4Rate)
	rel := math.Round(x)
	ft := math.Round((x - rel) * 128)
	if rel > 96 {
		rel = 96
	}
	if rel < -96 {
		rel = -96
	}
	if ft > 127 {
		ft = 127
	}
	if ft < -128 {
		ft = -128
	}
	return int8(rel), int8(ft)
}

// writeFixed writes s into a NUL-padded field of exactly n bytes,
// truncating when the name is longer than the field.
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
