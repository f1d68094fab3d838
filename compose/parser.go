package compose

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/SpecCade/SpecCade-sub006/note"
	"github.com/SpecCade/SpecCade-sub006/song"
)

// parser is a recursive-descent parser over a compose string. Pattern and
// channel are carried only for error context.
type parser struct {
	src     string
	pos     int
	pattern string
	channel int
}

// ParseSequence parses a compose DSL string into its AST. Syntax errors
// come back as *song.ParseError carrying the offending token and offset.
func ParseSequence(src, pattern string, channel int) (*Sequence, error) {
	p := &parser{src: src, pattern: pattern, channel: channel}
	seq, err := p.parseSequence()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, p.errorf(p.pos, string(p.src[p.pos]), "unexpected %q", p.src[p.pos])
	}
	return seq, nil
}

func (p *parser) errorf(offset int, token string, format string, args ...any) error {
	return &song.ParseError{
		Pattern: p.pattern,
		Channel: p.channel,
		Token:   token,
		Offset:  offset,
		Msg:     fmt.Sprintf(format, args...),
	}
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

// parseSequence consumes terms until EOF or a closing paren.
func (p *parser) parseSequence() (*Sequence, error) {
	seq := &Sequence{}
	for {
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] == ')' {
			return seq, nil
		}
		term, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		seq.Terms = append(seq.Terms, term)
	}
}

func (p *parser) parseTerm() (Node, error) {
	start := p.pos
	c := p.src[p.pos]

	switch {
	case c == '(':
		return p.parseGroup()
	case c == '.' || c == '-':
		p.pos++
		return &RestTerm{Offset: start}, nil
	}

	word := p.readWord()
	if word == "" {
		return nil, p.errorf(start, string(c), "unexpected %q", c)
	}

	switch strings.ToLower(word) {
	case "off":
		return &OffTerm{Offset: start}, nil
	case "cut":
		return &CutTerm{Offset: start}, nil
	}

	// A pitch, optionally held: "C4", "F#3*2".
	pitch := word
	hold := 1
	if i := strings.IndexByte(word, '*'); i >= 0 {
		pitch = word[:i]
		n, err := strconv.Atoi(word[i+1:])
		if err != nil || n < 1 {
			return nil, p.errorf(start, word, "invalid hold count %q", word[i+1:])
		}
		hold = n
	}
	semitone, err := note.Parse(pitch)
	if err != nil {
		return nil, p.errorf(start, word, "invalid note %q", pitch)
	}
	return &NoteTerm{Semitone: semitone, Hold: hold, Offset: start}, nil
}

// parseGroup parses "( sequence )" with an optional "xN" repeat suffix.
func (p *parser) parseGroup() (Node, error) {
	start := p.pos
	p.pos++ // consume '('
	body, err := p.parseSequence()
	if err != nil {
		return nil, err
	}
	if p.pos >= len(p.src) || p.src[p.pos] != ')' {
		return nil, p.errorf(start, "(", "unclosed group")
	}
	p.pos++ // consume ')'

	repeat := 1
	if p.pos < len(p.src) && (p.src[p.pos] == 'x' || p.src[p.pos] == 'X') {
		numStart := p.pos + 1
		numEnd := numStart
		for numEnd < len(p.src) && p.src[numEnd] >= '0' && p.src[numEnd] <= '9' {
			numEnd++
		}
		if numEnd == numStart {
			return nil, p.errorf(p.pos, "x", "repeat suffix needs a count")
		}
		n, err := strconv.Atoi(p.src[numStart:numEnd])
		if err != nil || n < 1 {
			return nil, p.errorf(p.pos, p.src[p.pos:numEnd], "invalid repeat count")
		}
		repeat = n
		p.pos = numEnd
	}

	return &Group{Body: body, Repeat: repeat, Offset: start}, nil
}

// readWord consumes a run of token characters (letters, digits, '#', '*').
func (p *parser) readWord() string {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '(' || c == ')' || c == '.' || c == '-' {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}
