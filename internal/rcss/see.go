package rcss

import (
	"fmt"
	"strconv"
	"strings"
)

// ObjectKind is the type of a seen object.
type ObjectKind int

const (
	ObjectUnknown ObjectKind = iota
	ObjectFlag
	ObjectGoal
	ObjectLine
	ObjectBall
	ObjectPlayer
)

// SeenObject is one object from a see or see_global report. Values holds
// the numeric data in report order; its meaning depends on the report:
// egocentric reports give distance, direction, distance change, direction
// change, body direction, head direction and pointing direction, while
// global reports give x, y, vx, vy, body and neck.
type SeenObject struct {
	Kind     ObjectKind
	Name     string // canonical name, e.g. "f r t 10" or "g l"
	Team     string // player team name, "" when unknown
	Unum     int
	Goalie   bool
	Close    bool // abbreviated name (F, G, B, P): identity unknown
	Values   []float64
	Kicking  bool
	Tackling bool
}

// See is a decoded see or see_global report.
type See struct {
	Time    int
	Global  bool
	Objects []SeenObject
}

// ParseSee decodes a see or see_global report. Objects with malformed data
// fail the whole report.
func ParseSee(n Node) (See, error) {
	head := n.Head()
	if head != "see" && head != "see_global" {
		return See{}, fmt.Errorf("expected see, got %q: %w", head, ErrGrammar)
	}
	t, err := n.Int(1)
	if err != nil {
		return See{}, fmt.Errorf("%s time: %w", head, err)
	}
	s := See{Time: t, Global: head == "see_global"}
	for _, obj := range n.List[2:] {
		if !obj.IsList() || obj.Len() == 0 || !obj.Child(0).IsList() {
			return See{}, fmt.Errorf("%s: malformed object %s: %w", head, obj, ErrGrammar)
		}
		so, err := parseSeenObject(obj)
		if err != nil {
			return See{}, fmt.Errorf("%s: %w", head, err)
		}
		s.Objects = append(s.Objects, so)
	}
	return s, nil
}

func parseSeenObject(obj Node) (SeenObject, error) {
	name := obj.Child(0)
	so := SeenObject{}
	if name.Len() == 0 {
		return so, fmt.Errorf("empty object name: %w", ErrGrammar)
	}
	parts := make([]string, 0, name.Len())
	for _, c := range name.List {
		parts = append(parts, c.Atom)
	}
	switch parts[0] {
	case "f":
		so.Kind = ObjectFlag
	case "g":
		so.Kind = ObjectGoal
	case "l":
		so.Kind = ObjectLine
	case "b":
		so.Kind = ObjectBall
	case "p":
		so.Kind = ObjectPlayer
	case "F":
		so.Kind, so.Close = ObjectFlag, true
	case "G":
		so.Kind, so.Close = ObjectGoal, true
	case "B":
		so.Kind, so.Close = ObjectBall, true
	case "P":
		so.Kind, so.Close = ObjectPlayer, true
	default:
		return so, fmt.Errorf("unknown object %q: %w", parts[0], ErrGrammar)
	}
	so.Name = strings.Join(parts, " ")
	if so.Kind == ObjectPlayer && !so.Close {
		so.Name = "p"
		if name.Len() > 1 {
			so.Team = name.Child(1).Atom
		}
		if name.Len() > 2 {
			u, err := strconv.Atoi(name.Child(2).Atom)
			if err != nil {
				return so, fmt.Errorf("bad uniform number %q: %w", name.Child(2).Atom, ErrGrammar)
			}
			so.Unum = u
		}
		if name.Len() > 3 && name.Child(3).Atom == "goalie" {
			so.Goalie = true
		}
	}

	for _, c := range obj.List[1:] {
		if c.IsList() {
			return so, fmt.Errorf("unexpected list in %s data: %w", so.Name, ErrGrammar)
		}
		switch c.Atom {
		case "k":
			so.Kicking = true
			continue
		case "t":
			so.Tackling = true
			continue
		}
		v, err := strconv.ParseFloat(c.Atom, 64)
		if err != nil {
			return so, fmt.Errorf("bad value %q in %s: %w", c.Atom, so.Name, ErrGrammar)
		}
		so.Values = append(so.Values, v)
	}
	if so.Kind != ObjectLine && len(so.Values) == 0 {
		return so, fmt.Errorf("object %s without data: %w", so.Name, ErrGrammar)
	}
	return so, nil
}
