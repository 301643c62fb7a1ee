package selfpose

import (
	"sync/atomic"

	"github.com/banshee-data/pitchside/internal/rcss"
)

// CommandKind names an outbound command type.
type CommandKind string

const (
	CommandKick       CommandKind = "kick"
	CommandDash       CommandKind = "dash"
	CommandTurn       CommandKind = "turn"
	CommandSay        CommandKind = "say"
	CommandTurnNeck   CommandKind = "turn_neck"
	CommandCatch      CommandKind = "catch"
	CommandMove       CommandKind = "move"
	CommandChangeView CommandKind = "change_view"
	CommandPointTo    CommandKind = "pointto"
	CommandTackle     CommandKind = "tackle"
)

// counterFor maps a command to its sense_body counter. Tackle has its own
// record and is handled separately.
var counterFor = map[CommandKind]rcss.Counter{
	CommandKick:       rcss.CounterKick,
	CommandDash:       rcss.CounterDash,
	CommandTurn:       rcss.CounterTurn,
	CommandSay:        rcss.CounterSay,
	CommandTurnNeck:   rcss.CounterTurnNeck,
	CommandCatch:      rcss.CounterCatch,
	CommandMove:       rcss.CounterMove,
	CommandChangeView: rcss.CounterChangeView,
	CommandPointTo:    rcss.CounterPointTo,
}

// Command is a command the dispatcher has sent. Perception only reads its
// motion arguments and marks it executed once the server's counters confirm
// it; Executed is safe to poll from the dispatcher's goroutine.
type Command struct {
	Kind      CommandKind
	Power     float64 // dash
	Direction float64 // dash
	Moment    float64 // turn
	X, Y      float64 // move

	executed atomic.Bool
}

// Dash builds a dash command.
func Dash(power, direction float64) *Command {
	return &Command{Kind: CommandDash, Power: power, Direction: direction}
}

// Turn builds a turn command.
func Turn(moment float64) *Command {
	return &Command{Kind: CommandTurn, Moment: moment}
}

// Move builds a move command.
func Move(x, y float64) *Command {
	return &Command{Kind: CommandMove, X: x, Y: y}
}

// Simple builds a command without motion arguments.
func Simple(kind CommandKind) *Command {
	return &Command{Kind: kind}
}

// Executed reports whether the server confirmed the command.
func (c *Command) Executed() bool { return c.executed.Load() }

func (c *Command) markExecuted() { c.executed.Store(true) }
