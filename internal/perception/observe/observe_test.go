package observe

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pitchside/internal/geometry"
	"github.com/banshee-data/pitchside/internal/rcss"
)

func TestFieldPosition(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 55, FieldSize())

	p, ok := FieldPosition("f r t", rcss.SideLeft)
	require.True(t, ok)
	assert.Equal(t, geometry.Vec{X: 52.5, Y: -34}, p)

	p, ok = FieldPosition("f r t", rcss.SideRight)
	require.True(t, ok)
	assert.Equal(t, geometry.Vec{X: -52.5, Y: 34}, p)

	_, ok = FieldPosition("f x y", rcss.SideLeft)
	assert.False(t, ok)
}

func TestNewLandmark(t *testing.T) {
	t.Parallel()
	params := rcss.DefaultServerParams()

	l, err := NewLandmark(rcss.SeenObject{Kind: rcss.ObjectFlag, Name: "f r 0", Values: []float64{20, -30}}, params, rcss.SideLeft)
	require.NoError(t, err)
	assert.Equal(t, geometry.Vec{X: 57.5, Y: 0}, l.Position)
	assert.Equal(t, 20.0, l.MaxDistance)
	assert.InDelta(t, math.Exp(math.Log(19.9)-0.01), l.MinDistance, 1e-12)
	assert.InDelta(t, (l.MaxDistance-l.MinDistance)/2, l.DistanceError(), 1e-12)
	assert.Less(t, l.MinDistance, l.MidDistance())

	// Negative bearings widen towards zero.
	assert.Equal(t, -30.0, l.MinDirection)
	assert.InDelta(t, -math.Exp(math.Log(29.9)-0.01), l.MaxDirection, 1e-12)
	assert.Greater(t, l.DirectionError(), 0.0)

	t.Run("zero width falls back to minimum error", func(t *testing.T) {
		l, err := NewLandmark(rcss.SeenObject{Kind: rcss.ObjectFlag, Name: "f c", Values: []float64{0.05, 0}}, params, rcss.SideLeft)
		require.NoError(t, err)
		assert.Equal(t, minError, l.DistanceError())
		assert.Equal(t, minError, l.DirectionError())
	})

	t.Run("errors grow with distance", func(t *testing.T) {
		near, err := NewLandmark(rcss.SeenObject{Kind: rcss.ObjectFlag, Name: "f c", Values: []float64{5, 0}}, params, rcss.SideLeft)
		require.NoError(t, err)
		far, err := NewLandmark(rcss.SeenObject{Kind: rcss.ObjectFlag, Name: "f c", Values: []float64{50, 0}}, params, rcss.SideLeft)
		require.NoError(t, err)
		assert.Greater(t, far.DistanceError(), near.DistanceError())
	})

	t.Run("rejections", func(t *testing.T) {
		for _, obj := range []rcss.SeenObject{
			{Kind: rcss.ObjectBall, Name: "b", Values: []float64{1, 2}},
			{Kind: rcss.ObjectFlag, Name: "F", Close: true, Values: []float64{1, 2}},
			{Kind: rcss.ObjectFlag, Name: "f c", Values: []float64{1}},
			{Kind: rcss.ObjectFlag, Name: "f nowhere", Values: []float64{1, 2}},
		} {
			_, err := NewLandmark(obj, params, rcss.SideLeft)
			assert.Error(t, err, obj.Name)
		}
	})
}

func TestNewSightedBody(t *testing.T) {
	t.Parallel()
	params := rcss.DefaultServerParams()
	ego := geometry.Pose{X: 10, Y: 0, Heading: 90, Neck: 0}

	t.Run("position only", func(t *testing.T) {
		b := NewSightedBody(rcss.SeenObject{Kind: rcss.ObjectPlayer, Team: "Blue", Unum: 4, Values: []float64{10, 0}}, ego, geometry.Vec{}, params, "Blue")
		assert.Equal(t, TeamOurs, b.Team)
		assert.Equal(t, 4, b.Uniform)
		assert.Equal(t, StatusPosition, b.Status)
		assert.Equal(t, NoTrack, b.TrackID)
		assert.InDelta(t, 10.0, b.Position.X, 1e-9)
		assert.InDelta(t, 10.0, b.Position.Y, 1e-9)
		assert.InDelta(t, quantizationError(10, 0.1), b.DistanceError, 1e-12)
		assert.Equal(t, VelocityNone, b.VelocitySource)
	})

	t.Run("measured velocity from changes", func(t *testing.T) {
		// Object straight ahead moving away radially at 0.5 per cycle.
		b := NewSightedBody(rcss.SeenObject{Kind: rcss.ObjectPlayer, Team: "Red", Values: []float64{10, 0, 0.5, 0, 30, 10}}, ego, geometry.Vec{}, params, "Blue")
		assert.Equal(t, TeamOpponent, b.Team)
		assert.Equal(t, StatusLocalized, b.Status)
		assert.Equal(t, VelocityMeasured, b.VelocitySource)
		assert.InDelta(t, 0.0, b.Velocity.X, 1e-9)
		assert.InDelta(t, 0.5, b.Velocity.Y, 1e-9)
		assert.True(t, b.HasHeading)
		assert.InDelta(t, 120.0, b.Heading, 1e-9)
		assert.InDelta(t, -20.0, b.Neck, 1e-9)
	})

	t.Run("tangential change and clamp", func(t *testing.T) {
		// At 10m, 1 degree/cycle of bearing change is about 0.1745 tangential.
		b := NewSightedBody(rcss.SeenObject{Kind: rcss.ObjectPlayer, Values: []float64{10, 0, 0, 1}}, geometry.Pose{}, geometry.Vec{}, params, "Blue")
		assert.InDelta(t, 0.0, b.Velocity.X, 1e-9)
		assert.InDelta(t, geometry.Deg2Rad(1)*10, b.Velocity.Y, 1e-9)

		fast := NewSightedBody(rcss.SeenObject{Kind: rcss.ObjectPlayer, Values: []float64{10, 0, 5, 0}}, geometry.Pose{}, geometry.Vec{}, params, "Blue")
		assert.InDelta(t, params.PlayerSpeedMax, r2Norm(fast.Velocity), 1e-9)
	})

	t.Run("unknown team never carries a number", func(t *testing.T) {
		b := NewSightedBody(rcss.SeenObject{Kind: rcss.ObjectPlayer, Close: true, Unum: 3, Values: []float64{1, 10}}, ego, geometry.Vec{}, params, "Blue")
		assert.Equal(t, TeamUndefined, b.Team)
		assert.Equal(t, 0, b.Uniform)
	})

	t.Run("direction only is not located", func(t *testing.T) {
		b := NewSightedBody(rcss.SeenObject{Kind: rcss.ObjectPlayer, Values: []float64{10}}, ego, geometry.Vec{}, params, "Blue")
		assert.False(t, b.Seen())
	})
}

func TestNewGlobalAndExactBodies(t *testing.T) {
	t.Parallel()
	g := NewGlobalBody(rcss.SeenObject{Kind: rcss.ObjectPlayer, Team: "Blue", Unum: 2, Goalie: true, Values: []float64{1, 2, 0.1, 0.2, 45, 10}}, "Blue")
	assert.Equal(t, TeamOurs, g.Team)
	assert.Equal(t, geometry.Vec{X: 1, Y: 2}, g.Position)
	assert.Equal(t, 45.0, g.Heading)
	assert.True(t, g.Goalie)
	assert.True(t, g.Seen())

	e := NewExactBody(rcss.GlobalPlayer{Side: rcss.SideRight, Unum: 5, X: 3, Y: 4}, rcss.SideLeft)
	assert.Equal(t, TeamOpponent, e.Team)
	assert.Equal(t, 16, e.TrackID)
	assert.Equal(t, TeamOpponent, e.TrueTeam)
	assert.Equal(t, 5, e.TrueUniform)
}

func TestNewSightedBall(t *testing.T) {
	t.Parallel()
	params := rcss.DefaultServerParams()
	ego := geometry.Pose{X: 0, Y: 0, Heading: 0, Neck: 90}

	b := NewSightedBall(rcss.SeenObject{Kind: rcss.ObjectBall, Values: []float64{5, 0}}, ego, geometry.Vec{}, params)
	assert.Equal(t, StatusPosition, b.Status)
	assert.InDelta(t, 0.0, b.Position.X, 1e-9)
	assert.InDelta(t, 5.0, b.Position.Y, 1e-9)

	moving := NewSightedBall(rcss.SeenObject{Kind: rcss.ObjectBall, Values: []float64{5, 0, -1, 0}}, ego, geometry.Vec{X: 0.5}, params)
	assert.Equal(t, StatusLocalized, moving.Status)
	assert.InDelta(t, 0.5, moving.Velocity.X, 1e-9)
	assert.InDelta(t, -1.0, moving.Velocity.Y, 1e-9)

	assert.False(t, NewSightedBall(rcss.SeenObject{Kind: rcss.ObjectBall, Values: []float64{5}}, ego, geometry.Vec{}, params).Seen())
	assert.False(t, LostBall().Seen())
	assert.True(t, NewGlobalBall(1, 2, 0, 0).Seen())
}

func TestSightingEncoding(t *testing.T) {
	t.Parallel()
	from := geometry.Pose{X: 0, Y: 0, Heading: 0}

	code := EncodeSighting(Body{Distance: 12, Direction: 7})
	assert.NotEqual(t, byte(FarCode), code)

	b, ok := DecodeSighting(from, code, TeamOpponent)
	require.True(t, ok)
	assert.Equal(t, TeamOpponent, b.Team)
	assert.Equal(t, StatusInferred, b.Status)
	assert.InDelta(t, 12.5, b.Distance, 1e-9)
	assert.InDelta(t, 6.0, b.Direction, 1e-9)

	assert.Equal(t, byte(FarCode), EncodeSighting(Body{Distance: 45}))
	_, ok = DecodeSighting(from, FarCode, TeamOurs)
	assert.False(t, ok)

	// Every code in the alphabet decodes back to its own bin.
	for i := 0; i < len(positionAlphabet); i++ {
		d, ok := DecodeSighting(from, positionAlphabet[i], TeamOurs)
		require.True(t, ok)
		assert.Equal(t, positionAlphabet[i], EncodeSighting(d), "code %q", positionAlphabet[i])
	}
}

func TestTeamOf(t *testing.T) {
	t.Parallel()
	assert.Equal(t, TeamUndefined, TeamOf("", "Blue"))
	assert.Equal(t, TeamOurs, TeamOf("Blue", "Blue"))
	assert.Equal(t, TeamOpponent, TeamOf("Red", "Blue"))
}

func r2Norm(v geometry.Vec) float64 { return math.Hypot(v.X, v.Y) }
