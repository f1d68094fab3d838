// Package compose evaluates the recursive pattern-composition language and
// expands a validated specification into the concrete Song Model. Parsing
// builds an explicit AST; evaluation walks it with an explicit depth
// counter so the recursion budget is enforced independently of the host
// stack.
package compose

// Node is one term of a compose sequence.
type Node interface {
	// Pos returns the byte offset of the term in the source string.
	Pos() int
}

// Sequence is an ordered list of terms.
type Sequence struct {
	Terms []Node
}

// Group is a parenthesized sub-sequence repeated Repeat times.
type Group struct {
	Body   *Sequence
	Repeat int
	Offset int
}

func (g *Group) Pos() int { return g.Offset }

// NoteTerm plays a pitch and holds the cursor for Hold rows.
type NoteTerm struct {
	Semitone int // C0 = 0
	Hold     int // rows to advance, >= 1
	Offset   int
}

func (n *NoteTerm) Pos() int { return n.Offset }

// OffTerm releases the playing note ("off").
type OffTerm struct {
	Offset int
}

func (o *OffTerm) Pos() int { return o.Offset }

// CutTerm hard-cuts the playing note ("cut").
type CutTerm struct {
	Offset int
}

func (c *CutTerm) Pos() int { return c.Offset }

// RestTerm advances the cursor one row without emitting anything.
type RestTerm struct {
	Offset int
}

func (r *RestTerm) Pos() int { return r.Offset }
