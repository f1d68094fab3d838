// Package wav decodes RIFF/WAVE PCM files. Only uncompressed 16-bit PCM
// is supported; anything else is rejected so the caller can surface a
// clear unsupported-format error.
package wav

import (
	"encoding/binary"
	"fmt"
)

// Clip is a decoded WAV: interleaved 16-bit samples plus layout.
type Clip struct {
	Samples    []int16 // interleaved when Channels > 1
	Channels   int
	SampleRate int
}

// ErrBitDepth is returned (wrapped) for WAVs that are not 16-bit PCM.
type ErrBitDepth struct {
	Bits   int
	Format int
}

func (e *ErrBitDepth) Error() string {
	if e.Format != 1 {
		return fmt.Sprintf("unsupported WAV encoding %d (only PCM is supported)", e.Format)
	}
	return fmt.Sprintf("unsupported WAV bit depth %d (only 16-bit PCM is supported)", e.Bits)
}

// Decode parses a complete WAV file from memory.
func Decode(data []byte) (Clip, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return Clip{}, fmt.Errorf("not a RIFF/WAVE file")
	}

	var clip Clip
	var haveFmt, haveData bool
	audioFormat, bits := 0, 0

	// Walk the chunk list. Chunks are word-aligned; a chunk with an odd
	// size is followed by one pad byte.
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(data) {
			return Clip{}, fmt.Errorf("truncated WAV chunk %q", id)
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return Clip{}, fmt.Errorf("WAV fmt chunk too short (%d bytes)", size)
			}
			audioFormat = int(binary.LittleEndian.Uint16(data[body:]))
			clip.Channels = int(binary.LittleEndian.Uint16(data[body+2:]))
			clip.SampleRate = int(binary.LittleEndian.Uint32(data[body+4:]))
			bits = int(binary.LittleEndian.Uint16(data[body+14:]))
			haveFmt = true
		case "data":
			if !haveFmt {
				return Clip{}, fmt.Errorf("WAV data chunk before fmt chunk")
			}
			if audioFormat != 1 || bits != 16 {
				return Clip{}, &ErrBitDepth{Bits: bits, Format: audioFormat}
			}
			n := size / 2
			clip.Samples = make([]int16, n)
			for i := 0; i < n; i++ {
				clip.Samples[i] = int16(binary.LittleEndian.Uint16(data[body+i*2:]))
			}
			haveData = true
		}

		pos = body + size
		if size%2 == 1 {
			pos++
		}
	}

	if !haveFmt || !haveData {
		return Clip{}, fmt.Errorf("WAV file missing fmt or data chunk")
	}
	if clip.Channels < 1 {
		return Clip{}, fmt.Errorf("WAV file reports %d channels", clip.Channels)
	}
	return clip, nil
}

// Frames returns the number of per-channel sample frames.
func (c Clip) Frames() int {
	if c.Channels == 0 {
		return 0
	}
	return len(c.Samples) / c.Channels
}
