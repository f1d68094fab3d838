package song

import "fmt"

// ParseError reports malformed compose syntax. Offset is a byte offset
// into the compose string.
type ParseError struct {
	Pattern string
	Channel int
	Token   string
	Offset  int
	Msg     string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("pattern %q channel %d: parse error at offset %d near %q: %s",
		e.Pattern, e.Channel, e.Offset, e.Token, e.Msg)
}

// BudgetExceededError reports an expansion budget ceiling being hit.
type BudgetExceededError struct {
	Pattern string
	Limit   string // "recursion depth" or "cells per pattern"
	Max     int
	Got     int
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("pattern %q: %s budget exceeded: %d > %d",
		e.Pattern, e.Limit, e.Got, e.Max)
}

// FormatLimitError reports a structural ceiling hit during writing.
type FormatLimitError struct {
	Format Format
	What   string // "channels", "patterns", "instruments", "samples", "rows", "order entries"
	Limit  int
	Got    int
}

func (e *FormatLimitError) Error() string {
	return fmt.Sprintf("%s: too many %s: %d (format limit %d)",
		e.Format, e.What, e.Got, e.Limit)
}

// ReferenceError reports a dangling pattern or instrument reference.
type ReferenceError struct {
	Kind    string // "pattern" or "instrument"
	Name    string // referenced name, if referenced by name
	Index   int    // referenced index, if referenced by index
	Pattern string // pattern containing the reference, may be empty
	Row     int
	Channel int
}

func (e *ReferenceError) Error() string {
	where := ""
	if e.Pattern != "" {
		where = fmt.Sprintf(" in pattern %q row %d channel %d", e.Pattern, e.Row, e.Channel)
	}
	if e.Name != "" {
		return fmt.Sprintf("unknown %s %q%s", e.Kind, e.Name, where)
	}
	return fmt.Sprintf("unknown %s index %d%s", e.Kind, e.Index, where)
}

// UnsupportedFormatError reports sample data this compiler cannot embed,
// e.g. a WAV with a bit depth other than 16 or a sample that exceeds the
// target format's maximum length.
type UnsupportedFormatError struct {
	Instrument string
	Msg        string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Instrument == "" {
		return e.Msg
	}
	return fmt.Sprintf("instrument %q: %s", e.Instrument, e.Msg)
}
