// Package game tracks the referee-driven state of a match: play mode, score,
// clocks and whether the match is over.
package game

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/banshee-data/pitchside/internal/monitoring"
	"github.com/banshee-data/pitchside/internal/rcss"
)

// ModeBeforeKickOff is the play mode before the first kick off.
const ModeBeforeKickOff = "before_kick_off"

// ModeTimeOver marks the end of the match.
const ModeTimeOver = "time_over"

var (
	goalPattern = regexp.MustCompile(`^goal_(l|r)_(\d+)$`)

	// Play modes, with or without an _l/_r suffix.
	playModes = map[string]bool{
		"before_kick_off":    true,
		"play_on":            true,
		"kick_off":           true,
		"kick_in":            true,
		"free_kick":          true,
		"corner_kick":        true,
		"goal_kick":          true,
		"drop_ball":          true,
		"offside":            true,
		"back_pass":          true,
		"free_kick_fault":    true,
		"indirect_free_kick": true,
		"catch_fault":        true,
		"penalty_setup":      true,
		"penalty_ready":      true,
		"penalty_taken":      true,
		"penalty_miss":       true,
		"penalty_score":      true,
		"penalty_onfield":    true,
		"penalty_foul":       true,
		"penalty_winner":     true,
		"penalty_draw":       true,
		"illegal_defense":    true,
	}

	eventPrefixes = []string{
		"goal_", "foul_", "yellow_card_", "red_card_", "goalie_catch_",
		"time_up", "half_time", "time_extended",
	}
)

// State is the match state. It is owned by a single goroutine.
type State struct {
	side      rcss.Side
	mode      string
	lastEvent string
	goals     int
	against   int
	gameTime  int
	cycle     int
	over      bool
}

// New returns the state before kick off.
func New() *State {
	return &State{mode: ModeBeforeKickOff}
}

// SetSide records which half we defend, needed to attribute goals.
func (s *State) SetSide(side rcss.Side) { s.side = side }

// Side returns our side.
func (s *State) Side() rcss.Side { return s.side }

// Referee applies a referee message. Goals update the score, events are
// recorded without changing the play mode, and time_over ends the match.
func (s *State) Referee(msg string) {
	if m := goalPattern.FindStringSubmatch(msg); m != nil {
		n, _ := strconv.Atoi(m[2])
		if rcss.Side(m[1]) == s.side {
			s.goals = n
		} else {
			s.against = n
		}
		s.lastEvent = "goal_" + m[1]
		return
	}
	if msg == ModeTimeOver {
		s.mode = msg
		s.over = true
		return
	}
	if isPlayMode(msg) {
		s.mode = msg
		return
	}
	for _, p := range eventPrefixes {
		if strings.HasPrefix(msg, p) {
			s.lastEvent = msg
			return
		}
	}
	monitoring.Verbosef("[Game] unrecognised referee message %q", msg)
}

func isPlayMode(msg string) bool {
	if playModes[msg] {
		return true
	}
	if base, ok := strings.CutSuffix(msg, "_l"); ok && playModes[base] {
		return true
	}
	if base, ok := strings.CutSuffix(msg, "_r"); ok && playModes[base] {
		return true
	}
	return false
}

// SetPlayMode sets the mode reported by init or reconnect.
func (s *State) SetPlayMode(mode string) {
	if mode == "" {
		return
	}
	s.Referee(mode)
}

// SetScore applies a score reply.
func (s *State) SetScore(ours, theirs int) {
	s.goals, s.against = ours, theirs
}

// SetGameTime records the server's game time.
func (s *State) SetGameTime(t int) { s.gameTime = t }

// AdvanceCycle counts one completed simulation cycle.
func (s *State) AdvanceCycle() { s.cycle++ }

// PlayMode returns the current play mode.
func (s *State) PlayMode() string { return s.mode }

// LastEvent returns the most recent referee event, if any.
func (s *State) LastEvent() string { return s.lastEvent }

// Goals returns goals for and against.
func (s *State) Goals() (ours, theirs int) { return s.goals, s.against }

// GameTime returns the server's game time.
func (s *State) GameTime() int { return s.gameTime }

// Cycle returns the number of completed cycles.
func (s *State) Cycle() int { return s.cycle }

// Over reports whether time_over was heard.
func (s *State) Over() bool { return s.over }
