package rcss

import "fmt"

// Counter indexes the command-execution counters reported in sense_body.
type Counter int

const (
	CounterKick Counter = iota
	CounterDash
	CounterTurn
	CounterSay
	CounterTurnNeck
	CounterCatch
	CounterMove
	CounterChangeView
	CounterPointTo // the arm record's count
	NumCounters
)

var counterNames = [NumCounters]string{
	"kick", "dash", "turn", "say", "turn_neck", "catch", "move", "change_view", "pointto",
}

// String returns the counter's record name.
func (c Counter) String() string {
	if c < 0 || c >= NumCounters {
		return "unknown"
	}
	return counterNames[c]
}

// Counters holds one value per command type.
type Counters [NumCounters]int

// Arm is the pointing-arm sub-record.
type Arm struct {
	Movable         int
	Expires         int
	TargetDistance  float64
	TargetDirection float64
	Count           int
}

// Focus is the attention-focus sub-record. Side is "" when no player is
// focused.
type Focus struct {
	Side  string
	Unum  int
	Count int
}

// Tackle is the tackle sub-record.
type Tackle struct {
	Expires int
	Count   int
}

// Foul is the foul sub-record.
type Foul struct {
	Charged int
	Card    string
}

// SenseBody is a decoded body-telemetry report.
type SenseBody struct {
	Time            int
	ViewQuality     string
	ViewWidth       string
	Stamina         float64
	Effort          float64
	StaminaCapacity float64
	Speed           float64
	SpeedDirection  float64
	HeadAngle       float64
	Counts          Counters
	Arm             Arm
	Focus           Focus
	Tackle          Tackle
	Collisions      []string
	Foul            Foul
}

// ViewAngle returns the full width of the vision cone in degrees for the
// reported view width.
func (sb SenseBody) ViewAngle() float64 {
	switch sb.ViewWidth {
	case "narrow":
		return 60
	case "wide":
		return 180
	default:
		return 120
	}
}

// ParseSenseBody decodes a sense_body report. The records must appear in
// the server's fixed order; the arm, focus, tackle, collision and foul
// records are optional for older protocol versions but, when present, must
// follow the counters in that order.
func ParseSenseBody(n Node) (SenseBody, error) {
	var sb SenseBody
	if n.Head() != "sense_body" {
		return sb, fmt.Errorf("expected sense_body, got %q: %w", n.Head(), ErrGrammar)
	}
	t, err := n.Int(1)
	if err != nil {
		return sb, fmt.Errorf("sense_body time: %w", err)
	}
	sb.Time = t

	records := n.List[2:]
	next := 0
	expect := func(name string, minLen int) (Node, error) {
		if next >= len(records) {
			return Node{}, fmt.Errorf("sense_body: missing %s record: %w", name, ErrGrammar)
		}
		r := records[next]
		if r.Head() != name {
			return Node{}, fmt.Errorf("sense_body: expected %s at record %d, got %q: %w", name, next, r.Head(), ErrGrammar)
		}
		if r.Len() < minLen {
			return Node{}, fmt.Errorf("sense_body: short %s record: %w", name, ErrGrammar)
		}
		next++
		return r, nil
	}
	optional := func(name string) (Node, bool) {
		if next < len(records) && records[next].Head() == name {
			next++
			return records[next-1], true
		}
		return Node{}, false
	}

	r, err := expect("view_mode", 3)
	if err != nil {
		return sb, err
	}
	sb.ViewQuality, sb.ViewWidth = r.Child(1).Atom, r.Child(2).Atom

	if r, err = expect("stamina", 3); err != nil {
		return sb, err
	}
	if sb.Stamina, err = r.Float(1); err != nil {
		return sb, err
	}
	if sb.Effort, err = r.Float(2); err != nil {
		return sb, err
	}
	if r.Len() > 3 {
		if sb.StaminaCapacity, err = r.Float(3); err != nil {
			return sb, err
		}
	}

	if r, err = expect("speed", 3); err != nil {
		return sb, err
	}
	if sb.Speed, err = r.Float(1); err != nil {
		return sb, err
	}
	if sb.SpeedDirection, err = r.Float(2); err != nil {
		return sb, err
	}

	if r, err = expect("head_angle", 2); err != nil {
		return sb, err
	}
	if sb.HeadAngle, err = r.Float(1); err != nil {
		return sb, err
	}

	for c := CounterKick; c <= CounterChangeView; c++ {
		if r, err = expect(c.String(), 2); err != nil {
			return sb, err
		}
		if sb.Counts[c], err = r.Int(1); err != nil {
			return sb, err
		}
	}

	if r, ok := optional("arm"); ok {
		if sb.Arm, err = parseArm(r); err != nil {
			return sb, err
		}
		sb.Counts[CounterPointTo] = sb.Arm.Count
	}
	if r, ok := optional("focus"); ok {
		if sb.Focus, err = parseFocus(r); err != nil {
			return sb, err
		}
	}
	if r, ok := optional("tackle"); ok {
		for _, c := range r.List[1:] {
			switch c.Head() {
			case "expires":
				sb.Tackle.Expires, err = c.Int(1)
			case "count":
				sb.Tackle.Count, err = c.Int(1)
			}
			if err != nil {
				return sb, err
			}
		}
	}
	if r, ok := optional("collision"); ok {
		for _, c := range r.List[1:] {
			if c.IsList() {
				sb.Collisions = append(sb.Collisions, c.Head())
			}
		}
	}
	if r, ok := optional("foul"); ok {
		for _, c := range r.List[1:] {
			switch c.Head() {
			case "charged":
				sb.Foul.Charged, err = c.Int(1)
			case "card":
				sb.Foul.Card = c.Child(1).Atom
			}
			if err != nil {
				return sb, err
			}
		}
	}
	// Newer protocol versions append further records (focus_point); they
	// carry nothing the perception models use.
	for ; next < len(records); next++ {
		switch records[next].Head() {
		case "arm", "focus", "tackle", "collision", "foul":
			return sb, fmt.Errorf("sense_body: %s record out of order: %w", records[next].Head(), ErrGrammar)
		}
	}
	return sb, nil
}

func parseArm(r Node) (Arm, error) {
	var a Arm
	var err error
	for _, c := range r.List[1:] {
		switch c.Head() {
		case "movable":
			a.Movable, err = c.Int(1)
		case "expires":
			a.Expires, err = c.Int(1)
		case "target":
			if a.TargetDistance, err = c.Float(1); err == nil {
				a.TargetDirection, err = c.Float(2)
			}
		case "count":
			a.Count, err = c.Int(1)
		}
		if err != nil {
			return a, fmt.Errorf("sense_body arm: %w", err)
		}
	}
	return a, nil
}

func parseFocus(r Node) (Focus, error) {
	var f Focus
	var err error
	for _, c := range r.List[1:] {
		switch c.Head() {
		case "target":
			if c.Child(1).Atom != "none" && c.Len() >= 3 {
				f.Side = c.Child(1).Atom
				f.Unum, err = c.Int(2)
			}
		case "count":
			f.Count, err = c.Int(1)
		}
		if err != nil {
			return f, fmt.Errorf("sense_body focus: %w", err)
		}
	}
	return f, nil
}
