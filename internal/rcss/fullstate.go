package rcss

import (
	"fmt"
	"strconv"
)

// GlobalBall is the ground-truth ball from a fullstate report.
type GlobalBall struct {
	X, Y   float64
	VX, VY float64
}

// GlobalPlayer is one ground-truth player from a fullstate report.
type GlobalPlayer struct {
	Side       Side
	Unum       int
	Goalie     bool
	PlayerType int
	X, Y       float64
	VX, VY     float64
	Body, Neck float64
	Stamina    float64
	Effort     float64
	Recovery   float64
	Capacity   float64
}

// FullState is a decoded exact-state report.
type FullState struct {
	Time     int
	PlayMode string
	ScoreL   int
	ScoreR   int
	Ball     *GlobalBall
	Players  []GlobalPlayer
}

// ParseFullState decodes a fullstate report. Records other than the play
// mode, score, ball and players are skipped.
func ParseFullState(n Node) (FullState, error) {
	if n.Head() != "fullstate" {
		return FullState{}, fmt.Errorf("expected fullstate, got %q: %w", n.Head(), ErrGrammar)
	}
	t, err := n.Int(1)
	if err != nil {
		return FullState{}, fmt.Errorf("fullstate time: %w", err)
	}
	fs := FullState{Time: t}
	for _, r := range n.List[2:] {
		switch r.Head() {
		case "pmode":
			fs.PlayMode = r.Child(1).Atom
			continue
		case "score":
			if fs.ScoreL, err = r.Int(1); err != nil {
				return FullState{}, err
			}
			if fs.ScoreR, err = r.Int(2); err != nil {
				return FullState{}, err
			}
			continue
		}
		if !r.IsList() || !r.Child(0).IsList() {
			continue
		}
		switch r.Child(0).Head() {
		case "b":
			vals, err := floatsFrom(r, 1, 4)
			if err != nil {
				return FullState{}, fmt.Errorf("fullstate ball: %w", err)
			}
			fs.Ball = &GlobalBall{X: vals[0], Y: vals[1], VX: vals[2], VY: vals[3]}
		case "p":
			p, err := parseGlobalPlayer(r)
			if err != nil {
				return FullState{}, fmt.Errorf("fullstate player: %w", err)
			}
			fs.Players = append(fs.Players, p)
		}
	}
	return fs, nil
}

func parseGlobalPlayer(r Node) (GlobalPlayer, error) {
	name := r.Child(0)
	if name.Len() < 3 {
		return GlobalPlayer{}, fmt.Errorf("short player name %s: %w", name, ErrGrammar)
	}
	p := GlobalPlayer{Side: Side(name.Child(1).Atom)}
	if p.Side != SideLeft && p.Side != SideRight {
		return GlobalPlayer{}, fmt.Errorf("bad side %q: %w", p.Side, ErrGrammar)
	}
	var err error
	if p.Unum, err = name.Int(2); err != nil {
		return GlobalPlayer{}, err
	}
	if name.Len() > 3 {
		if tag := name.Child(3).Atom; tag == "g" {
			p.Goalie = true
		} else if pt, err := strconv.Atoi(tag); err == nil {
			p.PlayerType = pt
		}
	}
	vals, err := floatsFrom(r, 1, 6)
	if err != nil {
		return GlobalPlayer{}, err
	}
	p.X, p.Y, p.VX, p.VY, p.Body, p.Neck = vals[0], vals[1], vals[2], vals[3], vals[4], vals[5]
	for _, c := range r.List[1:] {
		if c.Head() != "stamina" {
			continue
		}
		st, err := floatsFrom(c, 1, 4)
		if err != nil {
			return GlobalPlayer{}, err
		}
		p.Stamina, p.Effort, p.Recovery, p.Capacity = st[0], st[1], st[2], st[3]
	}
	return p, nil
}

// floatsFrom parses count numeric children starting at index from. Missing
// trailing values are an error.
func floatsFrom(n Node, from, count int) ([]float64, error) {
	out := make([]float64, count)
	for i := 0; i < count; i++ {
		v, err := n.Float(from + i)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
