package compose

import (
	"fmt"
	"sort"

	"github.com/SpecCade/SpecCade-sub006/note"
	"github.com/SpecCade/SpecCade-sub006/song"
	"github.com/SpecCade/SpecCade-sub006/spec"
)

// Tempo effect codes per format. XM reuses effect F (param >= 0x20 sets
// BPM); IT uses command T.
const (
	xmEffectSetTempo = 0x0F
	itCommandTempo   = 0x14 // 'T' - 'A' + 1
)

// Expand evaluates all compose tracks, explicit event lists, the
// arrangement and the automation entries of a validated specification and
// returns the concrete Song Model. Expansion is depth-first and
// left-to-right; the same input always yields the same model.
func Expand(doc *spec.Document, budget spec.Budget) (*song.Song, []song.Warning, error) {
	format, err := song.ParseFormat(doc.Format)
	if err != nil {
		return nil, nil, err
	}

	var warnings []song.Warning

	names, indexByName, unrefWarnings := patternOrder(doc)
	warnings = append(warnings, unrefWarnings...)

	out := &song.Song{
		Format:       format,
		Name:         doc.Name,
		BPM:          doc.BPM,
		Speed:        doc.Speed,
		NumChannels:  doc.Channels,
		RestartPos:   doc.RestartPos,
		GlobalVolume: 128,
		MixVolume:    48,
	}
	if doc.IT != nil {
		if doc.IT.Stereo != nil {
			out.Stereo = *doc.IT.Stereo
		}
		if doc.IT.GlobalVolume != nil {
			out.GlobalVolume = *doc.IT.GlobalVolume
		}
		if doc.IT.MixVolume != nil {
			out.MixVolume = *doc.IT.MixVolume
		}
	}

	for _, name := range names {
		pat, err := expandPattern(doc, name, budget)
		if err != nil {
			return nil, nil, err
		}
		out.Patterns = append(out.Patterns, pat)
	}

	if err := applyAutomation(doc, out, indexByName); err != nil {
		return nil, nil, err
	}

	// Flat play order: each arrangement entry repeated in list order.
	for _, entry := range doc.Arrangement {
		idx, ok := indexByName[entry.Pattern]
		if !ok {
			return nil, nil, &song.ReferenceError{Kind: "pattern", Name: entry.Pattern}
		}
		for r := 0; r < entry.Repeat; r++ {
			out.Order = append(out.Order, idx)
		}
	}

	return out, warnings, nil
}

// patternOrder assigns deterministic pattern indices: first appearance in
// the arrangement, then any unreferenced patterns in name order.
func patternOrder(doc *spec.Document) ([]string, map[string]int, []song.Warning) {
	var names []string
	indexByName := make(map[string]int, len(doc.Patterns))
	for _, entry := range doc.Arrangement {
		if _, seen := indexByName[entry.Pattern]; seen {
			continue
		}
		if _, ok := doc.Patterns[entry.Pattern]; !ok {
			continue // reported later by Expand
		}
		indexByName[entry.Pattern] = len(names)
		names = append(names, entry.Pattern)
	}

	var unreferenced []string
	for name := range doc.Patterns {
		if _, seen := indexByName[name]; !seen {
			unreferenced = append(unreferenced, name)
		}
	}
	sort.Strings(unreferenced)

	var warnings []song.Warning
	for _, name := range unreferenced {
		indexByName[name] = len(names)
		names = append(names, name)
		warnings = append(warnings, song.Warning{
			Context: name,
			Message: "pattern is not referenced by the arrangement",
		})
	}
	return names, indexByName, warnings
}

// expandPattern builds the full cell grid for one pattern.
func expandPattern(doc *spec.Document, name string, budget spec.Budget) (song.Pattern, error) {
	src := doc.Patterns[name]
	pat := song.NewPattern(name, src.Rows, doc.Channels)

	// Channel keys sorted numerically so evaluation order is stable.
	keys := make([]string, 0, len(src.Channels))
	for key := range src.Channels {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, _ := spec.ChannelIndex(keys[i])
		b, _ := spec.ChannelIndex(keys[j])
		return a < b
	})

	cellCount := 0
	countCell := func() error {
		cellCount++
		if cellCount > budget.MaxCellsPerPattern {
			return &song.BudgetExceededError{
				Pattern: name,
				Limit:   "cells per pattern",
				Max:     budget.MaxCellsPerPattern,
				Got:     cellCount,
			}
		}
		return nil
	}

	for _, key := range keys {
		ch, err := spec.ChannelIndex(key)
		if err != nil {
			return song.Pattern{}, fmt.Errorf("pattern %q: %w", name, err)
		}
		track := src.Channels[key]

		if track.Compose != "" {
			if err := expandTrack(&pat, name, ch, track, budget, countCell); err != nil {
				return song.Pattern{}, err
			}
			continue
		}
		for _, ev := range track.Events {
			if err := countCell(); err != nil {
				return song.Pattern{}, err
			}
			if err := applyEvent(&pat, name, ch, ev); err != nil {
				return song.Pattern{}, err
			}
		}
	}

	return pat, nil
}

// expandTrack parses and evaluates one compose string into pattern cells.
func expandTrack(pat *song.Pattern, name string, ch int, track spec.Track, budget spec.Budget, countCell func() error) error {
	seq, err := ParseSequence(track.Compose, name, ch)
	if err != nil {
		return err
	}

	row := 0
	emit := func(cell song.Cell) error {
		if err := countCell(); err != nil {
			return err
		}
		if row >= pat.Rows {
			return fmt.Errorf("pattern %q channel %d: compose sequence emits row %d but the pattern has only %d rows",
				name, ch, row, pat.Rows)
		}
		pat.Cells[row][ch] = cell
		return nil
	}

	w := &walker{
		maxDepth:   budget.MaxRecursionDepth,
		pattern:    name,
		instrument: track.Instrument,
		volume:     track.Volume,
		emit:       emit,
		advance:    func(n int) { row += n },
	}
	return w.sequence(seq, 0)
}

// walker evaluates a compose AST depth-first, left-to-right, threading an
// explicit depth counter.
type walker struct {
	maxDepth   int
	pattern    string
	instrument *int
	volume     *int
	emit       func(song.Cell) error
	advance    func(int)
}

func (w *walker) sequence(seq *Sequence, depth int) error {
	for _, term := range seq.Terms {
		switch t := term.(type) {
		case *Group:
			if depth+1 > w.maxDepth {
				return &song.BudgetExceededError{
					Pattern: w.pattern,
					Limit:   "recursion depth",
					Max:     w.maxDepth,
					Got:     depth + 1,
				}
			}
			for r := 0; r < t.Repeat; r++ {
				if err := w.sequence(t.Body, depth+1); err != nil {
					return err
				}
			}
		case *NoteTerm:
			cell := song.Cell{Kind: song.NotePitch, Note: t.Semitone}
			if w.instrument != nil {
				cell.Instrument = *w.instrument
				cell.HasInstrument = true
			}
			if w.volume != nil {
				cell.Volume = *w.volume
				cell.HasVolume = true
			}
			if err := w.emit(cell); err != nil {
				return err
			}
			w.advance(t.Hold)
		case *OffTerm:
			if err := w.emit(song.Cell{Kind: song.NoteOff}); err != nil {
				return err
			}
			w.advance(1)
		case *CutTerm:
			if err := w.emit(song.Cell{Kind: song.NoteCut}); err != nil {
				return err
			}
			w.advance(1)
		case *RestTerm:
			w.advance(1)
		default:
			return fmt.Errorf("pattern %q: unknown compose term %T", w.pattern, term)
		}
	}
	return nil
}

// applyEvent merges one explicit event into the grid. Later events on the
// same row override earlier ones field by field.
func applyEvent(pat *song.Pattern, name string, ch int, ev spec.NoteEvent) error {
	cell := &pat.Cells[ev.Row][ch]

	if ev.Note.IsSet() {
		switch string(ev.Note) {
		case "off":
			cell.Kind = song.NoteOff
		case "cut":
			cell.Kind = song.NoteCut
		default:
			n, err := note.Parse(string(ev.Note))
			if err != nil {
				return fmt.Errorf("pattern %q channel %d row %d: %w", name, ch, ev.Row, err)
			}
			cell.Kind = song.NotePitch
			cell.Note = n
		}
	}
	if ev.Instrument != nil {
		cell.Instrument = *ev.Instrument
		cell.HasInstrument = true
	}
	if ev.Volume != nil {
		cell.Volume = *ev.Volume
		cell.HasVolume = true
	}
	if ev.Effect != nil {
		cell.Effect = uint8(*ev.Effect)
		cell.HasEffect = true
	}
	if ev.Param != nil {
		cell.Param = uint8(*ev.Param)
		if !cell.HasEffect {
			cell.Effect = 0
			cell.HasEffect = true
		}
	}
	return nil
}

// applyAutomation is the second pass over already-expanded rows.
func applyAutomation(doc *spec.Document, out *song.Song, indexByName map[string]int) error {
	for i, entry := range doc.Automation {
		switch {
		case entry.VolumeFade != nil:
			vf := entry.VolumeFade
			idx, ok := indexByName[vf.Pattern]
			if !ok {
				return &song.ReferenceError{Kind: "pattern", Name: vf.Pattern}
			}
			pat := &out.Patterns[idx]
			span := vf.ToRow - vf.FromRow
			for row := vf.FromRow; row <= vf.ToRow; row++ {
				vol := vf.StartVolume
				if span > 0 {
					// Half-up integer interpolation keeps the fade
					// reproducible regardless of platform rounding mode.
					num := vf.StartVolume*(span-(row-vf.FromRow)) + vf.EndVolume*(row-vf.FromRow)
					vol = (num*2 + span) / (span * 2)
				}
				cell := &pat.Cells[row][vf.Channel]
				cell.Volume = vol
				cell.HasVolume = true
			}
		case entry.TempoChange != nil:
			tc := entry.TempoChange
			idx, ok := indexByName[tc.Pattern]
			if !ok {
				return &song.ReferenceError{Kind: "pattern", Name: tc.Pattern}
			}
			pat := &out.Patterns[idx]
			effect := uint8(xmEffectSetTempo)
			if out.Format == song.FormatIT {
				effect = itCommandTempo
			}
			// The writer emits the effect at this row; it affects playback
			// from this row on, never earlier rows.
			cell := &pat.Cells[tc.Row][findTempoChannel(pat, tc.Row)]
			cell.Effect = effect
			cell.Param = uint8(tc.BPM)
			cell.HasEffect = true
		default:
			return fmt.Errorf("automation %d: empty entry", i)
		}
	}
	return nil
}

// findTempoChannel picks the first channel of the row without an effect so
// a tempo change does not clobber an authored effect; falls back to
// channel 0 when every cell already has one.
func findTempoChannel(pat *song.Pattern, row int) int {
	for ch := range pat.Cells[row] {
		if !pat.Cells[row][ch].HasEffect {
			return ch
		}
	}
	return 0
}
