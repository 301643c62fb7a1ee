package observe

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/pitchside/internal/geometry"
	"github.com/banshee-data/pitchside/internal/rcss"
)

// Team is the identity class of a player.
type Team string

const (
	TeamUndefined Team = "undefined"
	TeamOurs      Team = "our"
	TeamOpponent  Team = "opp"
)

// Status describes how much of an entity's state is known this cycle.
type Status string

const (
	StatusLost      Status = "lost"
	StatusPosition  Status = "position"  // position only
	StatusLocalized Status = "localized" // position and measured velocity
	StatusInferred  Status = "inferred"  // extrapolated, not seen this cycle
)

// VelocitySource records where an entity's velocity came from.
type VelocitySource string

const (
	VelocityNone         VelocitySource = "none"
	VelocityMeasured     VelocitySource = "measured"
	VelocityInferred     VelocitySource = "inferred"
	VelocityExtrapolated VelocitySource = "extrapolated"
)

// NoTrack is the TrackID of an entity the tracker has not bound yet.
const NoTrack = -1

// Body is one player sighting plus the tracking metadata the tracker
// attaches to it. Uniform != 0 implies Team != TeamUndefined.
type Body struct {
	// Raw relative observation.
	Distance        float64 `json:"distance"`
	Direction       float64 `json:"direction"`
	DistanceChange  float64 `json:"-"`
	DirectionChange float64 `json:"-"`
	BodyDirection   float64 `json:"-"`
	HeadDirection   float64 `json:"-"`
	PointDirection  float64 `json:"-"`
	Pointing        bool    `json:"pointing,omitempty"`
	Kicking         bool    `json:"kicking,omitempty"`
	Tackling        bool    `json:"tackling,omitempty"`
	Goalie          bool    `json:"goalie,omitempty"`

	// Derived absolute state.
	Position       geometry.Vec   `json:"position"`
	Velocity       geometry.Vec   `json:"velocity"`
	VelocitySource VelocitySource `json:"velocity_source"`
	Heading        float64        `json:"heading"`
	HasHeading     bool           `json:"has_heading"`
	Neck           float64        `json:"neck"`
	DistanceError  float64        `json:"distance_error"`
	Status         Status         `json:"status"`

	// Identity.
	Team        Team `json:"team"`
	Uniform     int  `json:"uniform"`
	TrueTeam    Team `json:"true_team"`
	TrueUniform int  `json:"true_uniform"`

	// Tracking metadata.
	TrackID         int     `json:"track_id"`
	TimeToLive      int     `json:"ttl"`
	Tracked         bool    `json:"tracked"` // matched to an existing track this cycle
	MatchConfidence float64 `json:"match_confidence"`
}

func newBody() Body {
	return Body{
		Team:            TeamUndefined,
		TrueTeam:        TeamUndefined,
		TrackID:         NoTrack,
		MatchConfidence: -1,
		Status:          StatusLost,
		VelocitySource:  VelocityNone,
	}
}

// TeamOf classifies a reported team name against our own.
func TeamOf(name, ours string) Team {
	switch name {
	case "":
		return TeamUndefined
	case ours:
		return TeamOurs
	default:
		return TeamOpponent
	}
}

// NewSightedBody builds a player from an egocentric see object. ego is the
// observer's pose and egoVel its velocity; the result's position and any
// measured velocity are absolute.
func NewSightedBody(obj rcss.SeenObject, ego geometry.Pose, egoVel geometry.Vec, params rcss.ServerParams, ourTeam string) Body {
	b := newBody()
	b.Team = TeamOf(obj.Team, ourTeam)
	b.Uniform = obj.Unum
	if b.Team == TeamUndefined {
		b.Uniform = 0
	}
	b.Goalie = obj.Goalie
	b.Kicking = obj.Kicking
	b.Tackling = obj.Tackling

	v := obj.Values
	measured := false
	switch len(v) {
	case 0, 1:
		// Direction only: no usable position.
		return b
	case 2:
		b.Distance, b.Direction = v[0], v[1]
	case 3:
		b.Distance, b.Direction, b.PointDirection, b.Pointing = v[0], v[1], v[2], true
	default:
		b.Distance, b.Direction = v[0], v[1]
		b.DistanceChange, b.DirectionChange = v[2], v[3]
		measured = true
		switch len(v) {
		case 5:
			b.PointDirection, b.Pointing = v[4], true
		case 6, 7:
			b.BodyDirection, b.HeadDirection = v[4], v[5]
			b.HasHeading = true
			if len(v) == 7 {
				b.PointDirection, b.Pointing = v[6], true
			}
		}
	}
	b.TrueTeam, b.TrueUniform = b.Team, b.Uniform

	source := ego.Face() + b.Direction
	b.Position = r2.Add(ego.Point(), geometry.Polar(b.Distance, source))
	b.DistanceError = quantizationError(b.Distance, params.QuantizeStep)
	b.Status = StatusPosition
	if b.HasHeading {
		b.Heading = geometry.NormalizeDeg(b.BodyDirection + ego.Face())
		b.Neck = geometry.NormalizeDeg(b.HeadDirection - b.BodyDirection)
	}
	if measured {
		rel := relativeVelocity(b.Distance, source, b.DistanceChange, b.DirectionChange)
		b.Velocity = geometry.ClampNorm(r2.Add(egoVel, rel), params.PlayerSpeedMax)
		b.VelocitySource = VelocityMeasured
		b.Status = StatusLocalized
	}
	return b
}

// NewGlobalBody builds a player from a see_global object, whose values are
// absolute x, y, vx, vy, body and neck.
func NewGlobalBody(obj rcss.SeenObject, ourTeam string) Body {
	b := newBody()
	b.Team = TeamOf(obj.Team, ourTeam)
	b.Uniform = obj.Unum
	b.Goalie = obj.Goalie
	b.Kicking = obj.Kicking
	b.Tackling = obj.Tackling
	v := obj.Values
	if len(v) < 4 {
		return b
	}
	b.Position = geometry.Vec{X: v[0], Y: v[1]}
	b.Velocity = geometry.Vec{X: v[2], Y: v[3]}
	b.VelocitySource = VelocityMeasured
	if len(v) >= 6 {
		b.Heading, b.Neck, b.HasHeading = v[4], v[5], true
	}
	if len(v) >= 7 {
		b.PointDirection, b.Pointing = v[6], true
	}
	b.TrueTeam, b.TrueUniform = b.Team, b.Uniform
	b.Status = StatusLocalized
	return b
}

// NewExactBody builds a player from a fullstate record.
func NewExactBody(p rcss.GlobalPlayer, ourSide rcss.Side) Body {
	b := newBody()
	if p.Side == ourSide {
		b.Team = TeamOurs
	} else {
		b.Team = TeamOpponent
	}
	b.Uniform = p.Unum
	b.Goalie = p.Goalie
	b.Position = geometry.Vec{X: p.X, Y: p.Y}
	b.Velocity = geometry.Vec{X: p.VX, Y: p.VY}
	b.VelocitySource = VelocityMeasured
	b.Heading, b.Neck, b.HasHeading = p.Body, p.Neck, true
	b.TrueTeam, b.TrueUniform = b.Team, b.Uniform
	b.TrackID = p.Unum
	if b.Team == TeamOpponent {
		b.TrackID += 11
	}
	b.Status = StatusLocalized
	return b
}

// Seen reports whether the body was directly observed this cycle.
func (b Body) Seen() bool {
	return b.Status == StatusPosition || b.Status == StatusLocalized
}

// quantizationError is the half-width of the distance interval the server
// could have rounded d from.
func quantizationError(d, step float64) float64 {
	if d <= 0.1 {
		return 0
	}
	return (d - math.Exp(math.Log(d-0.1)-step)) / 2
}

// relativeVelocity recovers the observed object's velocity relative to the
// observer from the radial distance change and the angular direction
// change (degrees per cycle) along the line of sight at angle source.
func relativeVelocity(dist, source, distChange, dirChange float64) geometry.Vec {
	rad := geometry.Deg2Rad(source)
	erx, ery := math.Cos(rad), math.Sin(rad)
	tangential := geometry.Deg2Rad(dirChange) * dist
	return geometry.Vec{
		X: distChange*erx - tangential*ery,
		Y: distChange*ery + tangential*erx,
	}
}
