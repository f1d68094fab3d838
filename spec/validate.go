package spec

import (
	"fmt"

	"github.com/SpecCade/SpecCade-sub006/note"
	"github.com/SpecCade/SpecCade-sub006/song"
)

var synthesisTypes = map[string]bool{
	"sine":     true,
	"square":   true,
	"triangle": true,
	"saw":      true,
	"noise":    true,
	"fm":       true,
}

// Validate structurally checks a decoded Document against a budget.
// Deep semantic validation (compose syntax, expansion bounds) happens
// during expansion; this pass catches everything checkable without
// evaluating the DSL. Non-fatal observations come back as warnings.
func Validate(doc *Document, budget Budget) ([]song.Warning, error) {
	var warnings []song.Warning

	format, err := song.ParseFormat(doc.Format)
	if err != nil {
		return nil, err
	}

	if doc.BPM < 32 || doc.BPM > 255 {
		return nil, fmt.Errorf("bpm %d out of range 32..255", doc.BPM)
	}
	if doc.Speed < 1 || doc.Speed > 31 {
		return nil, fmt.Errorf("speed %d out of range 1..31", doc.Speed)
	}
	if doc.RestartPos < 0 {
		return nil, fmt.Errorf("restart_pos %d must be >= 0", doc.RestartPos)
	}
	if opts := doc.IT; opts != nil {
		if gv := opts.GlobalVolume; gv != nil && (*gv < 0 || *gv > 128) {
			return nil, fmt.Errorf("it global_volume %d out of range 0..128", *gv)
		}
		if mv := opts.MixVolume; mv != nil && (*mv < 0 || *mv > 128) {
			return nil, fmt.Errorf("it mix_volume %d out of range 0..128", *mv)
		}
	}
	if maxCh := budget.MaxChannels(format); doc.Channels < 1 || doc.Channels > maxCh {
		return nil, &song.FormatLimitError{Format: format, What: "channels", Limit: maxCh, Got: doc.Channels}
	}
	if len(doc.Patterns) == 0 {
		return nil, fmt.Errorf("specification has no patterns")
	}
	if len(doc.Patterns) > budget.MaxPatterns {
		return nil, &song.FormatLimitError{Format: format, What: "patterns", Limit: budget.MaxPatterns, Got: len(doc.Patterns)}
	}
	if len(doc.Instruments) > budget.MaxInstruments {
		return nil, &song.FormatLimitError{Format: format, What: "instruments", Limit: budget.MaxInstruments, Got: len(doc.Instruments)}
	}
	if len(doc.Arrangement) == 0 {
		return nil, fmt.Errorf("specification has an empty arrangement")
	}

	for i, inst := range doc.Instruments {
		if err := validateInstrument(i, inst); err != nil {
			return nil, err
		}
	}

	for name, pat := range doc.Patterns {
		if pat.Rows < 1 {
			return nil, fmt.Errorf("pattern %q: rows must be >= 1, got %d", name, pat.Rows)
		}
		for key, track := range pat.Channels {
			ch, err := ChannelIndex(key)
			if err != nil {
				return nil, fmt.Errorf("pattern %q: %w", name, err)
			}
			if ch >= doc.Channels {
				return nil, fmt.Errorf("pattern %q: channel %d out of range (song has %d channels)", name, ch, doc.Channels)
			}
			if track.Compose != "" && len(track.Events) > 0 {
				return nil, fmt.Errorf("pattern %q channel %d: compose and events are mutually exclusive", name, ch)
			}
			if track.Instrument != nil && (*track.Instrument < 0 || *track.Instrument >= len(doc.Instruments)) {
				return nil, &song.ReferenceError{Kind: "instrument", Index: *track.Instrument, Pattern: name, Channel: ch}
			}
			for _, ev := range track.Events {
				if err := validateEvent(name, ch, pat.Rows, ev, len(doc.Instruments)); err != nil {
					return nil, err
				}
			}
		}
	}

	orders := 0
	for _, entry := range doc.Arrangement {
		if _, ok := doc.Patterns[entry.Pattern]; !ok {
			return nil, &song.ReferenceError{Kind: "pattern", Name: entry.Pattern}
		}
		if entry.Repeat < 1 {
			return nil, fmt.Errorf("arrangement entry for pattern %q: repeat must be >= 1, got %d", entry.Pattern, entry.Repeat)
		}
		orders += entry.Repeat
	}
	if doc.RestartPos >= orders {
		return nil, fmt.Errorf("restart_pos %d out of range: the arrangement plays %d entries", doc.RestartPos, orders)
	}

	for i, entry := range doc.Automation {
		if err := validateAutomation(doc, i, entry); err != nil {
			return nil, err
		}
	}

	if format == song.FormatXM && doc.IT != nil {
		warnings = append(warnings, song.Warning{Message: "it options are ignored for format \"xm\""})
	}

	return warnings, nil
}

func validateInstrument(index int, inst Instrument) error {
	hasSynth := inst.Synthesis != nil
	hasSample := inst.Sample != ""
	if hasSynth == hasSample {
		return fmt.Errorf("instrument %d (%s): exactly one of synthesis and sample must be set", index, inst.Name)
	}
	if hasSynth {
		if !synthesisTypes[inst.Synthesis.Type] {
			return fmt.Errorf("instrument %d (%s): unknown synthesis type %q", index, inst.Name, inst.Synthesis.Type)
		}
		if inst.Synthesis.Duration < 0 {
			return fmt.Errorf("instrument %d (%s): synthesis duration must be >= 0", index, inst.Name)
		}
	}
	if inst.BaseNote != "" {
		if _, err := note.Parse(inst.BaseNote); err != nil {
			return fmt.Errorf("instrument %d (%s): %w", index, inst.Name, err)
		}
	}
	if inst.SampleRate < 0 {
		return fmt.Errorf("instrument %d (%s): sample_rate must be positive", index, inst.Name)
	}
	if env := inst.Envelope; env != nil {
		if env.Attack < 0 || env.Decay < 0 || env.Release < 0 {
			return fmt.Errorf("instrument %d (%s): envelope times must be >= 0", index, inst.Name)
		}
		if env.Sustain < 0 || env.Sustain > 1 {
			return fmt.Errorf("instrument %d (%s): envelope sustain must be in 0..1", index, inst.Name)
		}
	}
	return nil
}

func validateEvent(pattern string, ch, rows int, ev NoteEvent, numInstruments int) error {
	if ev.Row < 0 || ev.Row >= rows {
		return fmt.Errorf("pattern %q channel %d: event row %d out of range 0..%d", pattern, ch, ev.Row, rows-1)
	}
	if ev.Note.IsSet() {
		s := string(ev.Note)
		if s != "off" && s != "cut" {
			if _, err := note.Parse(s); err != nil {
				return fmt.Errorf("pattern %q channel %d row %d: %w", pattern, ch, ev.Row, err)
			}
		}
	}
	if ev.Instrument != nil && (*ev.Instrument < 0 || *ev.Instrument >= numInstruments) {
		return &song.ReferenceError{Kind: "instrument", Index: *ev.Instrument, Pattern: pattern, Row: ev.Row, Channel: ch}
	}
	if ev.Volume != nil && (*ev.Volume < 0 || *ev.Volume > 64) {
		return fmt.Errorf("pattern %q channel %d row %d: volume %d out of range 0..64", pattern, ch, ev.Row, *ev.Volume)
	}
	if ev.Effect != nil && (*ev.Effect < 0 || *ev.Effect > 255) {
		return fmt.Errorf("pattern %q channel %d row %d: effect %d out of range 0..255", pattern, ch, ev.Row, *ev.Effect)
	}
	if ev.Param != nil && (*ev.Param < 0 || *ev.Param > 255) {
		return fmt.Errorf("pattern %q channel %d row %d: effect param %d out of range 0..255", pattern, ch, ev.Row, *ev.Param)
	}
	return nil
}

func validateAutomation(doc *Document, index int, entry AutomationEntry) error {
	switch {
	case entry.VolumeFade != nil && entry.TempoChange == nil:
		vf := entry.VolumeFade
		pat, ok := doc.Patterns[vf.Pattern]
		if !ok {
			return &song.ReferenceError{Kind: "pattern", Name: vf.Pattern}
		}
		if vf.Channel < 0 || vf.Channel >= doc.Channels {
			return fmt.Errorf("automation %d: channel %d out of range", index, vf.Channel)
		}
		if vf.FromRow < 0 || vf.ToRow >= pat.Rows || vf.FromRow > vf.ToRow {
			return fmt.Errorf("automation %d: row range %d..%d invalid for pattern %q (%d rows)",
				index, vf.FromRow, vf.ToRow, vf.Pattern, pat.Rows)
		}
		if vf.StartVolume < 0 || vf.StartVolume > 64 || vf.EndVolume < 0 || vf.EndVolume > 64 {
			return fmt.Errorf("automation %d: volumes must be in 0..64", index)
		}
	case entry.TempoChange != nil && entry.VolumeFade == nil:
		tc := entry.TempoChange
		pat, ok := doc.Patterns[tc.Pattern]
		if !ok {
			return &song.ReferenceError{Kind: "pattern", Name: tc.Pattern}
		}
		if tc.Row < 0 || tc.Row >= pat.Rows {
			return fmt.Errorf("automation %d: row %d out of range for pattern %q", index, tc.Row, tc.Pattern)
		}
		if tc.BPM < 32 || tc.BPM > 255 {
			return fmt.Errorf("automation %d: bpm %d out of range 32..255", index, tc.BPM)
		}
	default:
		return fmt.Errorf("automation %d: exactly one of volume_fade and tempo_change must be set", index)
	}
	return nil
}
