package tracker

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/pitchside/internal/geometry"
	"github.com/banshee-data/pitchside/internal/perception/observe"
	"github.com/banshee-data/pitchside/internal/rcss"
)

// trackBall carries the ball across cycles. A sighting without velocity
// inherits the last measured one or infers it from the displacement; an
// unseen ball rolls on with ball_decay until its time to live runs out.
func trackBall(prev, seen observe.Ball, params rcss.ServerParams, maxHistory int) observe.Ball {
	if seen.Seen() {
		seen.TimeToLive = 0
		if seen.VelocitySource == observe.VelocityMeasured || prev.Status == observe.StatusLost {
			return seen
		}
		if prev.VelocitySource == observe.VelocityMeasured {
			seen.Velocity = prev.Velocity
		} else {
			seen.Velocity = geometry.ClampNorm(r2.Sub(seen.Position, prev.Position), params.BallSpeedMax)
		}
		seen.VelocitySource = observe.VelocityInferred
		return seen
	}

	if prev.Status == observe.StatusLost || prev.TimeToLive >= maxHistory {
		return observe.LostBall()
	}
	next := prev
	next.Velocity = r2.Scale(params.BallDecay, prev.Velocity)
	next.Position = r2.Add(prev.Position, next.Velocity)
	if next.VelocitySource != observe.VelocityNone {
		next.VelocitySource = observe.VelocityExtrapolated
	}
	next.Status = observe.StatusInferred
	next.TimeToLive = prev.TimeToLive + 1
	return next
}
