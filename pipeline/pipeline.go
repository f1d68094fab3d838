// Package pipeline runs the one-shot generation pipeline: Specification →
// Song Model → resolved instruments + packed patterns → byte buffer. It
// also owns the recipe-kind registry so parsing, validation and encoding
// for a kind are declared in exactly one place.
package pipeline

import (
	"fmt"

	"github.com/SpecCade/SpecCade-sub006/compose"
	"github.com/SpecCade/SpecCade-sub006/itfile"
	"github.com/SpecCade/SpecCade-sub006/resolve"
	"github.com/SpecCade/SpecCade-sub006/song"
	"github.com/SpecCade/SpecCade-sub006/spec"
	"github.com/SpecCade/SpecCade-sub006/xmfile"
)

// Result is one complete generated module plus the non-fatal warnings
// gathered along the way. The caller owns writing Bytes to disk.
type Result struct {
	Bytes    []byte
	Warnings []song.Warning
}

// Options carries the per-call knobs: the seed and the collaborator
// overrides (zero values select the built-in collaborators).
type Options struct {
	Seed    uint64
	Budget  spec.Budget
	Resolve resolve.Options
}

// Generate compiles a decoded specification into module bytes. Two calls
// with the same specification and seed produce identical bytes; any error
// aborts the whole generation with nothing written.
func Generate(doc *spec.Document, opts Options) (*Result, error) {
	budget := opts.Budget
	if budget == (spec.Budget{}) {
		budget = spec.DefaultBudget()
	}

	warnings, err := spec.Validate(doc, budget)
	if err != nil {
		return nil, err
	}

	model, w, err := compose.Expand(doc, budget)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, w...)

	instruments, w, err := resolve.Resolve(doc, model.Format, opts.Seed, opts.Resolve)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, w...)
	model.Instruments = instruments

	var data []byte
	switch model.Format {
	case song.FormatXM:
		data, w, err = xmfile.Write(model)
	case song.FormatIT:
		data, w, err = itfile.Write(model)
	default:
		return nil, fmt.Errorf("no writer for format %s", model.Format)
	}
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, w...)

	return &Result{Bytes: data, Warnings: warnings}, nil
}
