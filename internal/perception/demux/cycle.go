package demux

import (
	"github.com/banshee-data/pitchside/internal/perception/game"
	"github.com/banshee-data/pitchside/internal/perception/observe"
	"github.com/banshee-data/pitchside/internal/perception/selfpose"
	"github.com/banshee-data/pitchside/internal/perception/world"
	"github.com/banshee-data/pitchside/internal/rcss"
)

// Message is one heard message delivered with a cycle.
type Message struct {
	Time      int          `json:"time"`
	Sender    rcss.Sender  `json:"sender"`
	Direction float64      `json:"direction"`
	Team      observe.Team `json:"team,omitempty"`
	Unum      int          `json:"unum,omitempty"`
	Text      string       `json:"text"`
}

// Cycle is the snapshot published when a cycle completes. It is never
// modified after publication; readers must treat it as read-only.
type Cycle struct {
	Time         int            `json:"time"`  // server time of the cycle
	Cycle        int            `json:"cycle"` // completed cycles so far
	PlayMode     string         `json:"play_mode"`
	LastEvent    string         `json:"last_event,omitempty"`
	Goals        int            `json:"goals"`
	GoalsAgainst int            `json:"goals_against"`
	Self         selfpose.State `json:"self"`
	World        *world.Model   `json:"world"`
	Messages     []Message      `json:"messages"`
}

// Sink receives every published cycle on the coordinator goroutine.
// Implementations must not block.
type Sink interface {
	Publish(c *Cycle)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(c *Cycle)

// Publish calls f(c).
func (f SinkFunc) Publish(c *Cycle) { f(c) }

func emptyCycle() *Cycle {
	return &Cycle{
		PlayMode: game.ModeBeforeKickOff,
		World:    world.Empty(),
		Messages: []Message{},
	}
}
