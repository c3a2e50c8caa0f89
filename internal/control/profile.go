package control

import "math"

// ProfileState is a point along a motion profile.
type ProfileState struct {
	Position     float64
	Velocity     float64
	Acceleration float64
}

// Trapezoid limits a position move to a maximum velocity and acceleration.
type Trapezoid struct {
	MaxVelocity     float64
	MaxAcceleration float64
}

// Enabled reports whether both constraints are set.
func (p Trapezoid) Enabled() bool {
	return p.MaxVelocity > 0 && p.MaxAcceleration > 0
}

// Next advances current toward a stationary goal by dt.
func (p Trapezoid) Next(current ProfileState, goal, dt float64) ProfileState {
	remaining := goal - current.Position
	if math.Abs(remaining) < 1e-9 && math.Abs(current.Velocity) < p.MaxAcceleration*dt {
		return ProfileState{Position: goal}
	}

	dir := 1.0
	if remaining < 0 {
		dir = -1
	}
	v := current.Velocity * dir
	stopping := v * v / (2 * p.MaxAcceleration)

	var a float64
	switch {
	case v < 0:
		a = p.MaxAcceleration
	case stopping >= math.Abs(remaining):
		a = -p.MaxAcceleration
	case v < p.MaxVelocity:
		a = p.MaxAcceleration
	}

	v = math.Min(v+a*dt, p.MaxVelocity)
	next := ProfileState{
		Position:     current.Position + v*dir*dt,
		Velocity:     v * dir,
		Acceleration: a * dir,
	}
	if (goal-next.Position)*dir <= 0 {
		return ProfileState{Position: goal}
	}
	return next
}
