package rcss

import (
	"fmt"
	"strconv"
)

// Init is the server's reply to an init or reconnect command.
type Init struct {
	Side     Side
	Unum     int // 0 for coaches
	PlayMode string
}

// ParseInit decodes (init l 3 before_kick_off), (reconnect l play_on),
// (init l ok) and (init ok).
func ParseInit(n Node) (Init, error) {
	head := n.Head()
	if head != "init" && head != "reconnect" {
		return Init{}, fmt.Errorf("expected init, got %q: %w", head, ErrGrammar)
	}
	var in Init
	for _, c := range n.List[1:] {
		if c.IsList() {
			return Init{}, fmt.Errorf("%s: unexpected record %s: %w", head, c, ErrGrammar)
		}
		switch {
		case c.Atom == string(SideLeft) || c.Atom == string(SideRight):
			in.Side = Side(c.Atom)
		case c.Atom == "ok":
		default:
			if u, err := strconv.Atoi(c.Atom); err == nil {
				in.Unum = u
			} else {
				in.PlayMode = c.Atom
			}
		}
	}
	return in, nil
}

// ChangePlayerType announces a heterogeneous type change. Opponents'
// changes carry no type.
type ChangePlayerType struct {
	Unum    int
	Type    int
	HasType bool
}

// ParseChangePlayerType decodes (change_player_type UNUM [TYPE]).
func ParseChangePlayerType(n Node) (ChangePlayerType, error) {
	if n.Head() != "change_player_type" {
		return ChangePlayerType{}, fmt.Errorf("expected change_player_type, got %q: %w", n.Head(), ErrGrammar)
	}
	u, err := n.Int(1)
	if err != nil {
		return ChangePlayerType{}, err
	}
	cpt := ChangePlayerType{Unum: u}
	if n.Len() > 2 {
		if cpt.Type, err = n.Int(2); err != nil {
			return ChangePlayerType{}, err
		}
		cpt.HasType = true
	}
	return cpt, nil
}

// Score is a (score T OURS THEIRS) reply.
type Score struct {
	Time   int
	Ours   int
	Theirs int
}

// ParseScore decodes a score reply.
func ParseScore(n Node) (Score, error) {
	if n.Head() != "score" {
		return Score{}, fmt.Errorf("expected score, got %q: %w", n.Head(), ErrGrammar)
	}
	vals := make([]int, 3)
	for i := range vals {
		v, err := n.Int(i + 1)
		if err != nil {
			return Score{}, err
		}
		vals[i] = v
	}
	return Score{Time: vals[0], Ours: vals[1], Theirs: vals[2]}, nil
}
