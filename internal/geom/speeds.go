package geom

import "github.com/go-gl/mathgl/mgl64"

// ChassisSpeeds is a planar velocity: vx, vy in m/s and omega in rad/s.
type ChassisSpeeds struct {
	Vx    float64
	Vy    float64
	Omega float64
}

// ToFieldRelative rotates robot-relative speeds into the field frame.
func (s ChassisSpeeds) ToFieldRelative(heading float64) ChassisSpeeds {
	v := Rotate(mgl64.Vec2{s.Vx, s.Vy}, heading)
	return ChassisSpeeds{Vx: v[0], Vy: v[1], Omega: s.Omega}
}

// ToRobotRelative rotates field-relative speeds into the robot frame.
func (s ChassisSpeeds) ToRobotRelative(heading float64) ChassisSpeeds {
	v := Rotate(mgl64.Vec2{s.Vx, s.Vy}, -heading)
	return ChassisSpeeds{Vx: v[0], Vy: v[1], Omega: s.Omega}
}

func (s ChassisSpeeds) Minus(o ChassisSpeeds) ChassisSpeeds {
	return ChassisSpeeds{Vx: s.Vx - o.Vx, Vy: s.Vy - o.Vy, Omega: s.Omega - o.Omega}
}

func (s ChassisSpeeds) Linear() mgl64.Vec2 {
	return mgl64.Vec2{s.Vx, s.Vy}
}
