package wav

import (
	"encoding/binary"
	"errors"
	"testing"
)

// buildWAV assembles a minimal RIFF/WAVE file in memory.
func buildWAV(format, channels, rate, bits int, samples []int16) []byte {
	dataSize := len(samples) * 2
	out := make([]byte, 0, 44+dataSize)

	le16 := func(v int) []byte {
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(v))
		return b[:]
	}
	le32 := func(v int) []byte {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(v))
		return b[:]
	}

	out = append(out, "RIFF"...)
	out = append(out, le32(36+dataSize)...)
	out = append(out, "WAVE"...)

	out = append(out, "fmt "...)
	out = append(out, le32(16)...)
	out = append(out, le16(format)...)
	out = append(out, le16(channels)...)
	out = append(out, le32(rate)...)
	out = append(out, le32(rate*channels*bits/8)...)
	out = append(out, le16(channels*bits/8)...)
	out = append(out, le16(bits)...)

	out = append(out, "data"...)
	out = append(out, le32(dataSize)...)
	for _, s := range samples {
		out = append(out, le16(int(uint16(s)))...)
	}
	return out
}

func TestDecode(t *testing.T) {
	samples := []int16{0, 1000, -1000, 32767, -32768, 42}
	data := buildWAV(1, 2, 22050, 16, samples)

	clip, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if clip.Channels != 2 {
		t.Errorf("channels = %d, want 2", clip.Channels)
	}
	if clip.SampleRate != 22050 {
		t.Errorf("sample rate = %d, want 22050", clip.SampleRate)
	}
	if clip.Frames() != 3 {
		t.Errorf("frames = %d, want 3", clip.Frames())
	}
	for i, want := range samples {
		if clip.Samples[i] != want {
			t.Errorf("sample %d = %d, want %d", i, clip.Samples[i], want)
		}
	}
}

func TestDecodeSkipsUnknownChunks(t *testing.T) {
	// A LIST chunk between fmt and data must be skipped, including the pad
	// byte after an odd-sized body.
	data := buildWAV(1, 1, 8000, 16, []int16{7})
	var extra []byte
	extra = append(extra, data[:36]...)
	extra = append(extra, "LIST"...)
	extra = append(extra, 3, 0, 0, 0) // odd size
	extra = append(extra, 'a', 'b', 'c', 0)
	extra = append(extra, data[36:]...)

	clip, err := Decode(extra)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if clip.Frames() != 1 || clip.Samples[0] != 7 {
		t.Errorf("got %+v, want the single sample 7", clip)
	}
}

func TestDecodeRejects(t *testing.T) {
	t.Run("not_riff", func(t *testing.T) {
		if _, err := Decode([]byte("OggStotally not a wav")); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("eight_bit", func(t *testing.T) {
		data := buildWAV(1, 1, 8000, 8, []int16{0})
		_, err := Decode(data)
		var be *ErrBitDepth
		if !errors.As(err, &be) {
			t.Fatalf("got %v, want *ErrBitDepth", err)
		}
		if be.Bits != 8 {
			t.Errorf("bits = %d, want 8", be.Bits)
		}
	})

	t.Run("float_pcm", func(t *testing.T) {
		data := buildWAV(3, 1, 8000, 32, []int16{0})
		_, err := Decode(data)
		var be *ErrBitDepth
		if !errors.As(err, &be) {
			t.Fatalf("got %v, want *ErrBitDepth", err)
		}
		if be.Format != 3 {
			t.Errorf("format = %d, want 3", be.Format)
		}
	})

	t.Run("truncated_data", func(t *testing.T) {
		data := buildWAV(1, 1, 8000, 16, []int16{1, 2, 3})
		if _, err := Decode(data[:len(data)-2]); err == nil {
			t.Error("expected truncation error")
		}
	})
}
