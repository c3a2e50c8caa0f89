package gamepiece

import "github.com/go-gl/mathgl/mgl64"

// ProjectileDynamics advances a flying piece's velocity by dt.
type ProjectileDynamics interface {
	Calculate(dt float64, velocity mgl64.Vec3) mgl64.Vec3
}

type DynamicsFunc func(dt float64, velocity mgl64.Vec3) mgl64.Vec3

func (f DynamicsFunc) Calculate(dt float64, velocity mgl64.Vec3) mgl64.Vec3 {
	return f(dt, velocity)
}

// ZeroDynamics keeps the launch velocity forever.
func ZeroDynamics() ProjectileDynamics {
	return DynamicsFunc(func(_ float64, v mgl64.Vec3) mgl64.Vec3 { return v })
}

// Gravity accelerates the piece downward at g.
func Gravity(g float64) ProjectileDynamics {
	return DynamicsFunc(func(dt float64, v mgl64.Vec3) mgl64.Vec3 {
		return mgl64.Vec3{v[0], v[1], v[2] - g*dt}
	})
}

// GravityWithDrag adds quadratic air drag, k = ½·ρ·Cd·A/m.
func GravityWithDrag(g, k float64) ProjectileDynamics {
	return DynamicsFunc(func(dt float64, v mgl64.Vec3) mgl64.Vec3 {
		drag := v.Mul(-k * v.Len() * dt)
		return v.Add(drag).Sub(mgl64.Vec3{0, 0, g * dt})
	})
}
