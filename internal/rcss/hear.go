package rcss

import (
	"fmt"
	"strconv"
)

// Sender identifies who produced a heard message.
type Sender int

const (
	SenderUnknown Sender = iota
	SenderReferee
	SenderSelf
	SenderTeammate
	SenderOpponent
	SenderPlayer // legacy protocol without team attribution
	SenderOnlineCoachLeft
	SenderOnlineCoachRight
	SenderTrainer
	SenderPlayerToTrainer
)

var senderNames = map[Sender]string{
	SenderUnknown:          "unknown",
	SenderReferee:          "referee",
	SenderSelf:             "self",
	SenderTeammate:         "our",
	SenderOpponent:         "opp",
	SenderPlayer:           "player",
	SenderOnlineCoachLeft:  "online_coach_left",
	SenderOnlineCoachRight: "online_coach_right",
	SenderTrainer:          "coach",
	SenderPlayerToTrainer:  "player_to_trainer",
}

func (s Sender) String() string { return senderNames[s] }

// MarshalText renders the sender name in JSON snapshots.
func (s Sender) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Hear is a decoded hear report. For referee messages Text is the play
// mode or event token.
type Hear struct {
	Time      int
	Sender    Sender
	Direction float64
	Team      string
	Unum      int
	Text      string
}

// ParseHear decodes a hear report for any agent kind.
func ParseHear(n Node) (Hear, error) {
	if n.Head() != "hear" {
		return Hear{}, fmt.Errorf("expected hear, got %q: %w", n.Head(), ErrGrammar)
	}
	t, err := n.Int(1)
	if err != nil {
		return Hear{}, fmt.Errorf("hear time: %w", err)
	}
	h := Hear{Time: t}
	src := n.Child(2)

	// (hear T (p "team" unum) "msg") is a player speaking to the trainer.
	if src.IsList() {
		if src.Head() != "p" {
			return Hear{}, fmt.Errorf("hear: unexpected sender %s: %w", src, ErrGrammar)
		}
		h.Sender = SenderPlayerToTrainer
		h.Team = src.Child(1).Atom
		if src.Len() > 2 {
			if h.Unum, err = src.Int(2); err != nil {
				return Hear{}, err
			}
		}
		h.Text = messageText(n, 3)
		return h, nil
	}

	switch src.Atom {
	case "referee":
		h.Sender, h.Text = SenderReferee, n.Child(3).Atom
	case "self":
		h.Sender, h.Text = SenderSelf, messageText(n, 3)
	case "online_coach_left":
		h.Sender, h.Text = SenderOnlineCoachLeft, messageText(n, 3)
	case "online_coach_right":
		h.Sender, h.Text = SenderOnlineCoachRight, messageText(n, 3)
	case "coach":
		h.Sender, h.Text = SenderTrainer, messageText(n, 3)
	default:
		dir, err := strconv.ParseFloat(src.Atom, 64)
		if err != nil {
			return Hear{}, fmt.Errorf("hear: unknown sender %q: %w", src.Atom, ErrGrammar)
		}
		h.Direction = dir
		switch n.Child(3).Atom {
		case "our":
			h.Sender = SenderTeammate
			if h.Unum, err = n.Int(4); err != nil {
				return Hear{}, err
			}
			h.Text = messageText(n, 5)
		case "opp":
			h.Sender = SenderOpponent
			h.Text = messageText(n, 4)
		default:
			h.Sender = SenderPlayer
			h.Text = messageText(n, 3)
		}
	}
	if h.Sender != SenderReferee && n.Len() <= 3 {
		return Hear{}, fmt.Errorf("hear: message missing: %w", ErrGrammar)
	}
	if h.Sender == SenderReferee && h.Text == "" {
		return Hear{}, fmt.Errorf("hear: empty referee message: %w", ErrGrammar)
	}
	return h, nil
}

// messageText renders the remaining children from i as the message body.
// Quoted strings are returned verbatim; structured coach messages are
// rendered back to s-expression text.
func messageText(n Node, i int) string {
	if i >= n.Len() {
		return ""
	}
	if i == n.Len()-1 {
		c := n.Child(i)
		if !c.IsList() {
			return c.Atom
		}
		return c.String()
	}
	rest := list(n.List[i:]...)
	s := rest.String()
	return s[1 : len(s)-1]
}
