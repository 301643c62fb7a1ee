// Package rcss parses the text reports sent by the soccer simulation server.
//
// Every report is a single s-expression such as
//
//	(see 12 ((f c) 10.2 -3) ((b) 5.5 12 0.1 -0.4))
//
// Parse turns the text into a Node tree, Classify maps the leading token to
// a report Kind, and the Parse* functions decode the fixed positional
// grammar of each report into typed structs. A report that does not match
// its grammar yields an error wrapping ErrGrammar.
package rcss

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrGrammar is wrapped by every error caused by a report that does not
// match its expected grammar.
var ErrGrammar = errors.New("report does not match grammar")

// ErrUnknownReport is returned when a report's leading token is not one the
// perception core handles.
var ErrUnknownReport = errors.New("unknown report")

// Node is one element of a parsed s-expression: either an atom or a list.
type Node struct {
	Atom   string
	Quoted bool
	List   []Node
	isList bool
}

// IsList reports whether n is a list.
func (n Node) IsList() bool { return n.isList }

// Head returns the first atom of a list node, or "" when n is not a list or
// starts with a nested list.
func (n Node) Head() string {
	if !n.isList || len(n.List) == 0 || n.List[0].isList {
		return ""
	}
	return n.List[0].Atom
}

// Len returns the number of children of a list node.
func (n Node) Len() int { return len(n.List) }

// Child returns the i-th child, or the zero Node when out of range.
func (n Node) Child(i int) Node {
	if i < 0 || i >= len(n.List) {
		return Node{}
	}
	return n.List[i]
}

// Float parses child i as a float.
func (n Node) Float(i int) (float64, error) {
	c := n.Child(i)
	if c.isList || c.Atom == "" {
		return 0, fmt.Errorf("expected number at position %d of %s: %w", i, n.Head(), ErrGrammar)
	}
	v, err := strconv.ParseFloat(c.Atom, 64)
	if err != nil {
		return 0, fmt.Errorf("bad number %q in %s: %w", c.Atom, n.Head(), ErrGrammar)
	}
	return v, nil
}

// Int parses child i as an integer.
func (n Node) Int(i int) (int, error) {
	c := n.Child(i)
	if c.isList || c.Atom == "" {
		return 0, fmt.Errorf("expected integer at position %d of %s: %w", i, n.Head(), ErrGrammar)
	}
	v, err := strconv.Atoi(c.Atom)
	if err != nil {
		// Some servers print integral values as floats.
		f, ferr := strconv.ParseFloat(c.Atom, 64)
		if ferr != nil {
			return 0, fmt.Errorf("bad integer %q in %s: %w", c.Atom, n.Head(), ErrGrammar)
		}
		return int(f), nil
	}
	return v, nil
}

// String renders the node back to s-expression text.
func (n Node) String() string {
	if !n.isList {
		if n.Quoted {
			return strconv.Quote(n.Atom)
		}
		return n.Atom
	}
	parts := make([]string, len(n.List))
	for i, c := range n.List {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// atom and list build nodes; used by the parser and by tests.
func atom(s string) Node      { return Node{Atom: s} }
func list(c ...Node) Node     { return Node{List: c, isList: true} }
func quoted(s string) Node    { return Node{Atom: s, Quoted: true} }
func isSpace(b byte) bool     { return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == 0 }
func isDelimiter(b byte) bool { return isSpace(b) || b == '(' || b == ')' || b == '"' }

// Parse parses a single s-expression report.
func Parse(report string) (Node, error) {
	p := parser{s: strings.TrimRight(report, "\x00\r\n ")}
	p.skipSpace()
	if p.pos >= len(p.s) || p.s[p.pos] != '(' {
		return Node{}, fmt.Errorf("report must start with '(': %w", ErrGrammar)
	}
	n, err := p.parseList()
	if err != nil {
		return Node{}, err
	}
	p.skipSpace()
	if p.pos != len(p.s) {
		return Node{}, fmt.Errorf("trailing data at offset %d: %w", p.pos, ErrGrammar)
	}
	return n, nil
}

type parser struct {
	s   string
	pos int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.s) && isSpace(p.s[p.pos]) {
		p.pos++
	}
}

func (p *parser) parseList() (Node, error) {
	p.pos++ // '('
	n := list()
	for {
		p.skipSpace()
		if p.pos >= len(p.s) {
			return Node{}, fmt.Errorf("unbalanced parentheses: %w", ErrGrammar)
		}
		switch p.s[p.pos] {
		case ')':
			p.pos++
			return n, nil
		case '(':
			child, err := p.parseList()
			if err != nil {
				return Node{}, err
			}
			n.List = append(n.List, child)
		case '"':
			end := strings.IndexByte(p.s[p.pos+1:], '"')
			if end < 0 {
				return Node{}, fmt.Errorf("unterminated string: %w", ErrGrammar)
			}
			n.List = append(n.List, quoted(p.s[p.pos+1:p.pos+1+end]))
			p.pos += end + 2
		default:
			start := p.pos
			for p.pos < len(p.s) && !isDelimiter(p.s[p.pos]) {
				p.pos++
			}
			n.List = append(n.List, atom(p.s[start:p.pos]))
		}
	}
}
