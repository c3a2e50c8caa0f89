package drivetrain

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/fieldsim/internal/mechanism"
)

// Module pairs a drive and a steer mechanism with wheel geometry.
type Module struct {
	index       int
	drive       *mechanism.Mechanism
	steer       *mechanism.Mechanism
	translation mgl64.Vec2
	wheelRadius float64
	wheelCOF    float64
}

func (m *Module) Index() int                  { return m.index }
func (m *Module) Drive() *mechanism.Mechanism { return m.drive }
func (m *Module) Steer() *mechanism.Mechanism { return m.steer }
func (m *Module) Translation() mgl64.Vec2     { return m.translation }
func (m *Module) WheelRadius() float64        { return m.wheelRadius }

// State is the wheel's ground speed and heading in the robot frame.
func (m *Module) State() ModuleState {
	return ModuleState{
		Speed: m.drive.Outputs().Velocity * m.wheelRadius,
		Angle: m.steer.Outputs().Position,
	}
}

func (m *Module) Position() ModulePosition {
	return ModulePosition{
		Distance: m.drive.Outputs().Position * m.wheelRadius,
		Angle:    m.steer.Outputs().Position,
	}
}

// Grip is the largest force the tire can transmit given its share of the robot weight.
func (m *Module) Grip(gravityShare float64) float64 {
	return gravityShare * m.wheelCOF
}

// Propulsion is the drive force along the wheel, clamped to grip. ok is false
// when the wheel skids.
func (m *Module) Propulsion(grip float64) (force float64, ok bool) {
	force = m.drive.Inputs().Torque / m.wheelRadius
	if math.Abs(force) > grip {
		return math.Copysign(grip, force), false
	}
	return force, true
}
