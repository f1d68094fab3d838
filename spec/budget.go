package spec

import "github.com/SpecCade/SpecCade-sub006/song"

// Budget is the read-only set of numeric ceilings enforced on a
// specification during expansion and writing. Profiles are defined by the
// surrounding pipeline; this package only consumes them.
type Budget struct {
	XMChannels         int
	ITChannels         int
	MaxPatterns        int
	MaxInstruments     int
	MaxRecursionDepth  int
	MaxCellsPerPattern int
}

// DefaultBudget mirrors the format ceilings plus the default expansion
// bounds (recursion depth 64, 50000 cells per pattern).
func DefaultBudget() Budget {
	return Budget{
		XMChannels:         song.XMMaxChannels,
		ITChannels:         song.ITMaxChannels,
		MaxPatterns:        song.ITMaxPatterns, // the stricter of the two
		MaxInstruments:     song.ITMaxInstruments,
		MaxRecursionDepth:  64,
		MaxCellsPerPattern: 50000,
	}
}

// MaxChannels returns the channel ceiling for the given format.
func (b Budget) MaxChannels(f song.Format) int {
	if f == song.FormatIT {
		return b.ITChannels
	}
	return b.XMChannels
}
