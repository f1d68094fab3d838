// Package spec defines the validated Song Specification consumed by the
// compiler: the in-memory form of a "music.tracker_song_v1" recipe. The
// specification is immutable input owned by the caller; everything here
// decodes, defaults and structurally checks it without mutating shared
// state.
package spec

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/SpecCade/SpecCade-sub006/note"
)

// Kind is the recipe kind this package understands.
const Kind = "music.tracker_song_v1"

// Document is the top-level Song Specification.
type Document struct {
	Kind       string `json:"kind"`
	Name       string `json:"name"`
	Format     string `json:"format"` // "xm" or "it"
	BPM        int    `json:"bpm"`
	Speed      int    `json:"speed"` // ticks per row
	Channels   int    `json:"channels"`
	RestartPos int    `json:"restart_pos"`

	IT *ITOptions `json:"it,omitempty"`

	Instruments []Instrument       `json:"instruments"`
	Patterns    map[string]Pattern `json:"patterns"`
	Arrangement []ArrangementEntry `json:"arrangement"`
	Automation  []AutomationEntry  `json:"automation,omitempty"`
}

// ITOptions carries the IT-specific header fields. Pointers distinguish
// "not set" from an explicit value.
type ITOptions struct {
	Stereo       *bool `json:"stereo,omitempty"`
	GlobalVolume *int  `json:"global_volume,omitempty"`
	MixVolume    *int  `json:"mix_volume,omitempty"`
}

// Instrument defines one sound source: either inline synthesis parameters
// or a reference to a WAV sample file. Exactly one of Synthesis and Sample
// must be set.
type Instrument struct {
	Name       string     `json:"name"`
	Synthesis  *Synthesis `json:"synthesis,omitempty"`
	Sample     string     `json:"sample,omitempty"`
	BaseNote   string     `json:"base_note,omitempty"` // defaults per format: C4 (XM), C5 (IT)
	SampleRate int        `json:"sample_rate,omitempty"`
	Envelope   *Envelope  `json:"envelope,omitempty"`
}

// Synthesis selects one of the closed set of synthesis algorithms and its
// parameters. Type is matched exhaustively by the synthesis engine.
type Synthesis struct {
	Type       string  `json:"type"` // sine, square, triangle, saw, noise, fm
	Duration   float64 `json:"duration,omitempty"`
	Freq       float64 `json:"freq,omitempty"` // 0 = derive from base_note
	PulseWidth float64 `json:"pulse_width,omitempty"`
	ModRatio   float64 `json:"mod_ratio,omitempty"`
	ModDepth   float64 `json:"mod_depth,omitempty"`
}

// Envelope is a time-based ADSR volume envelope, all values in seconds
// except Sustain which is a 0..1 level.
type Envelope struct {
	Attack  float64 `json:"attack"`
	Decay   float64 `json:"decay"`
	Sustain float64 `json:"sustain"`
	Release float64 `json:"release"`
}

// Pattern is one authored musical section. Channel keys are decimal
// channel indices (JSON object keys are strings).
type Pattern struct {
	Rows     int              `json:"rows"`
	Channels map[string]Track `json:"channels"`
}

// Track is the content of one channel within a pattern: either a compose
// DSL string or an explicit event list.
type Track struct {
	Compose    string      `json:"compose,omitempty"`
	Instrument *int        `json:"instrument,omitempty"` // default instrument for compose notes
	Volume     *int        `json:"volume,omitempty"`     // default volume for compose notes
	Events     []NoteEvent `json:"events,omitempty"`
}

// NoteEvent is one explicit cell assignment. Pointer fields distinguish
// absent from zero; absence and explicit zero pack differently.
type NoteEvent struct {
	Row        int     `json:"row"`
	Note       NoteRef `json:"note,omitempty"`
	Instrument *int    `json:"instrument,omitempty"`
	Volume     *int    `json:"volume,omitempty"`
	Effect     *int    `json:"effect,omitempty"`
	Param      *int    `json:"param,omitempty"`
}

// NoteRef is a note reference as authored: a name ("C4"), "off", "cut",
// or a bare semitone number. It normalizes numbers to canonical names at
// decode time.
type NoteRef string

// UnmarshalJSON accepts either a JSON string or a JSON number.
func (n *NoteRef) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*n = ""
		return nil
	}
	if len(s) > 0 && s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*n = NoteRef(str)
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("note must be a name, \"off\", \"cut\" or a semitone number: %w", err)
	}
	if v < 0 || v > 119 {
		return fmt.Errorf("numeric note %d out of range 0..119", v)
	}
	*n = NoteRef(note.Format(v))
	return nil
}

// IsSet reports whether the event carries a note at all.
func (n NoteRef) IsSet() bool { return n != "" }

// ArrangementEntry plays a named pattern Repeat times.
type ArrangementEntry struct {
	Pattern string `json:"pattern"`
	Repeat  int    `json:"repeat"`
}

// AutomationEntry is a tagged union: exactly one member is set.
type AutomationEntry struct {
	VolumeFade  *VolumeFade  `json:"volume_fade,omitempty"`
	TempoChange *TempoChange `json:"tempo_change,omitempty"`
}

// VolumeFade linearly interpolates cell volume over a row range of one
// channel. Rounding is half-up on integers so the result is deterministic.
type VolumeFade struct {
	Pattern     string `json:"pattern"`
	Channel     int    `json:"channel"`
	FromRow     int    `json:"from_row"`
	ToRow       int    `json:"to_row"`
	StartVolume int    `json:"start_volume"`
	EndVolume   int    `json:"end_volume"`
}

// TempoChange sets a new BPM at one row of a pattern. It is written as an
// explicit tempo effect cell, never interpolated at playback time.
type TempoChange struct {
	Pattern string `json:"pattern"`
	Row     int    `json:"row"`
	BPM     int    `json:"bpm"`
}

// Parse decodes a JSON specification document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding song specification: %w", err)
	}
	if doc.Kind != "" && doc.Kind != Kind {
		return nil, fmt.Errorf("unsupported recipe kind %q (want %q)", doc.Kind, Kind)
	}
	// An omitted repeat count means play once.
	for i := range doc.Arrangement {
		if doc.Arrangement[i].Repeat == 0 {
			doc.Arrangement[i].Repeat = 1
		}
	}
	return &doc, nil
}

// PeekKind decodes only the kind field of a specification document so a
// caller can dispatch before committing to a full parse. An absent kind
// defaults to the one kind this module ships.
func PeekKind(data []byte) (string, error) {
	var head struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return "", fmt.Errorf("decoding song specification: %w", err)
	}
	if head.Kind == "" {
		return Kind, nil
	}
	return head.Kind, nil
}

// ChannelIndex parses a pattern channel key.
func ChannelIndex(key string) (int, error) {
	idx, err := strconv.Atoi(key)
	if err != nil || idx < 0 {
		return 0, fmt.Errorf("invalid channel key %q: must be a non-negative integer", key)
	}
	return idx, nil
}
