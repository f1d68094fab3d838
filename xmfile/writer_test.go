package xmfile

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/SpecCade/SpecCade-sub006/song"
)

func u16(b []byte, off int) int { return int(binary.LittleEndian.Uint16(b[off:])) }
func u32(b []byte, off int) int { return int(binary.LittleEndian.Uint32(b[off:])) }

// minimalSong is a 4-channel song with one pattern and one instrument:
// C4 on row 0 channel 0.
func minimalSong() *song.Song {
	pat := song.NewPattern("main", 8, 4)
	pat.Cells[0][0] = song.Cell{Kind: song.NotePitch, Note: 48, Instrument: 0, HasInstrument: true}
	return &song.Song{
		Format:      song.FormatXM,
		Name:        "minimal",
		BPM:         125,
		Speed:       6,
		NumChannels: 4,
		Patterns:    []song.Pattern{pat},
		Order:       []int{0},
		Instruments: []song.Instrument{
			{Name: "blip", PCM: []int16{0, 1000, -1000, 32767}, SampleRate: 8363, BaseNote: 48},
		},
	}
}

func TestWriteHeader(t *testing.T) {
	data, warnings, err := Write(minimalSong())
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}

	if string(data[0:17]) != "Extended Module: " {
		t.Fatalf("id text = %q", data[0:17])
	}
	if string(data[17:24]) != "minimal" {
		t.Errorf("module name = %q, want minimal", data[17:24])
	}
	if data[37] != 0x1A {
		t.Errorf("escape byte = %#x, want 0x1a", data[37])
	}
	if u16(data, 58) != 0x0104 {
		t.Errorf("version = %#x, want 0x0104", u16(data, 58))
	}
	if u32(data, 60) != 276 {
		t.Errorf("header size = %d, want 276", u32(data, 60))
	}
	if u16(data, 64) != 1 {
		t.Errorf("song length = %d, want 1", u16(data, 64))
	}
	if u16(data, 66) != 0 {
		t.Errorf("restart position = %d, want 0", u16(data, 66))
	}
	if u16(data, 68) != 4 {
		t.Errorf("channels = %d, want 4", u16(data, 68))
	}
	if u16(data, 70) != 1 {
		t.Errorf("patterns = %d, want 1", u16(data, 70))
	}
	if u16(data, 72) != 1 {
		t.Errorf("instruments = %d, want 1", u16(data, 72))
	}
	if u16(data, 74) != 1 {
		t.Errorf("flags = %d, want 1 (linear frequency table)", u16(data, 74))
	}
	if u16(data, 76) != 6 {
		t.Errorf("speed = %d, want 6", u16(data, 76))
	}
	if u16(data, 78) != 125 {
		t.Errorf("bpm = %d, want 125", u16(data, 78))
	}
	if data[80] != 0 {
		t.Errorf("order[0] = %d, want 0", data[80])
	}
}

func TestWritePattern(t *testing.T) {
	data, _, err := Write(minimalSong())
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	// Pattern block follows the 60-byte prefix plus the 276-byte header.
	pat := data[60+276:]
	if u32(pat, 0) != 9 {
		t.Errorf("pattern header length = %d, want 9", u32(pat, 0))
	}
	if pat[4] != 0 {
		t.Errorf("packing type = %d, want 0", pat[4])
	}
	if u16(pat, 5) != 8 {
		t.Errorf("rows = %d, want 8", u16(pat, 5))
	}
	packedLen := u16(pat, 7)
	body := pat[9 : 9+packedLen]

	// Cell (0,0): note C4 (code 49) + instrument 1.
	if body[0] != (0x80 | 0x01 | 0x02) {
		t.Fatalf("cell lead byte = %#x, want note+instrument mask", body[0])
	}
	if body[1] != 49 {
		t.Errorf("note code = %d, want 49 (C4)", body[1])
	}
	if body[2] != 1 {
		t.Errorf("instrument = %d, want 1 (1-based)", body[2])
	}
	// The remaining 31 cells of the pattern are empty lead bytes.
	for i := 3; i < len(body); i++ {
		if body[i] != 0x80 {
			t.Fatalf("byte %d = %#x, want empty cell marker", i, body[i])
		}
	}
	if packedLen != 3+31 {
		t.Errorf("packed length = %d, want 34", packedLen)
	}
}

func TestWriteInstrument(t *testing.T) {
	s := minimalSong()
	data, _, err := Write(s)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	// Instrument block follows header plus the single pattern block.
	patLen := u16(data, 60+276+7)
	inst := data[60+276+9+patLen:]

	if u32(inst, 0) != 263 {
		t.Errorf("instrument header size = %d, want 263", u32(inst, 0))
	}
	if string(inst[4:8]) != "blip" {
		t.Errorf("instrument name = %q, want blip", inst[4:8])
	}
	if u16(inst, 27) != 1 {
		t.Errorf("sample count = %d, want 1", u16(inst, 27))
	}

	smp := inst[263:]
	if u32(smp, 0) != 8 {
		t.Errorf("sample length = %d bytes, want 8", u32(smp, 0))
	}
	if smp[12] != 64 {
		t.Errorf("sample volume = %d, want 64", smp[12])
	}
	if smp[14] != 0x10 {
		t.Errorf("sample type = %#x, want 0x10 (16-bit)", smp[14])
	}
	if smp[15] != 128 {
		t.Errorf("panning = %d, want 128 (center)", smp[15])
	}
	// Base note C4 at 8363 Hz is the format's reference pitch: relative
	// note and finetune are both zero.
	if int8(smp[13]) != 0 {
		t.Errorf("finetune = %d, want 0", int8(smp[13]))
	}
	if int8(smp[16]) != 0 {
		t.Errorf("relative note = %d, want 0", int8(smp[16]))
	}

	// Delta-decode the sample data and compare with the source PCM.
	raw := smp[40:]
	var prev int16
	for i, want := range s.Instruments[0].PCM {
		prev += int16(binary.LittleEndian.Uint16(raw[i*2:]))
		if prev != want {
			t.Errorf("sample %d = %d, want %d", i, prev, want)
		}
	}
}

func TestWriteVolumeAndEffect(t *testing.T) {
	s := minimalSong()
	s.Patterns[0].Cells[1][2] = song.Cell{
		Kind: song.NotePitch, Note: 57,
		Volume: 32, HasVolume: true,
		Effect: 0x0F, Param: 150, HasEffect: true,
	}
	s.Patterns[0].Cells[2][0] = song.Cell{Kind: song.NoteOff}

	data, _, err := Write(s)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	body := data[60+276+9:]

	// Row 0: cell (0,0) takes 3 bytes, cells 1..3 one byte each. Row 1:
	// cells 0..1 empty, then the full cell.
	cell := body[3+3+2:]
	if cell[0] != (0x80 | 0x01 | 0x04 | 0x08 | 0x10) {
		t.Fatalf("lead byte = %#x, want note+volume+effect+param", cell[0])
	}
	if cell[1] != 58 {
		t.Errorf("note code = %d, want 58 (A4)", cell[1])
	}
	if cell[2] != 0x10+32 {
		t.Errorf("volume byte = %#x, want 0x30", cell[2])
	}
	if cell[3] != 0x0F || cell[4] != 150 {
		t.Errorf("effect = %#x param %d, want 0x0f 150", cell[3], cell[4])
	}

	// Row 2 channel 0: note off packs as code 97.
	cell = cell[5+1:] // skip channel 3 of row 1
	if cell[0] != (0x80|0x01) || cell[1] != 97 {
		t.Errorf("key off cell = %#x %d, want masked note 97", cell[0], cell[1])
	}
}

func TestWriteLimits(t *testing.T) {
	t.Run("too_many_channels", func(t *testing.T) {
		s := minimalSong()
		s.NumChannels = song.XMMaxChannels + 1
		_, _, err := Write(s)
		var ferr *song.FormatLimitError
		if !errors.As(err, &ferr) {
			t.Fatalf("got %v, want *song.FormatLimitError", err)
		}
		if ferr.What != "channels" || ferr.Limit != song.XMMaxChannels {
			t.Errorf("error = %#v, want channels limit", ferr)
		}
	})

	t.Run("too_many_rows", func(t *testing.T) {
		s := minimalSong()
		s.Patterns[0] = song.NewPattern("big", song.XMMaxRows+1, 4)
		_, _, err := Write(s)
		var ferr *song.FormatLimitError
		if !errors.As(err, &ferr) {
			t.Fatalf("got %v, want *song.FormatLimitError", err)
		}
	})

	t.Run("max_rows_ok", func(t *testing.T) {
		s := minimalSong()
		s.Patterns[0] = song.NewPattern("big", song.XMMaxRows, 4)
		if _, _, err := Write(s); err != nil {
			t.Fatalf("rows at the ceiling must succeed: %v", err)
		}
	})

	t.Run("dangling_order", func(t *testing.T) {
		s := minimalSong()
		s.Order = []int{0, 5}
		_, _, err := Write(s)
		var rerr *song.ReferenceError
		if !errors.As(err, &rerr) {
			t.Fatalf("got %v, want *song.ReferenceError", err)
		}
	})
}

func TestWriteNoteOutOfRange(t *testing.T) {
	s := minimalSong()
	s.Patterns[0].Cells[0][1] = song.Cell{Kind: song.NotePitch, Note: 100} // above B7
	if _, _, err := Write(s); err == nil {
		t.Fatal("expected range error for note above B7")
	}
}

func TestWriteDeterministic(t *testing.T) {
	a, _, err := Write(minimalSong())
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	b, _, err := Write(minimalSong())
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("byte %d differs", i)
		}
	}
}

func TestSamplePitch(t *testing.T) {
	// One octave above the reference rate raises the relative note by 12.
	rel, ft := samplePitch(song.Instrument{SampleRate: 16726, BaseNote: 48})
	if rel != 12 {
		t.Errorf("relative note = %d, want 12", rel)
	}
	if ft < -2 || ft > 2 {
		t.Errorf("finetune = %d, want about 0", ft)
	}

	// A higher base note lowers the relative note one-for-one.
	rel, _ = samplePitch(song.Instrument{SampleRate: 8363, BaseNote: 60})
	if rel != -12 {
		t.Errorf("relative note = %d, want -12", rel)
	}
}
