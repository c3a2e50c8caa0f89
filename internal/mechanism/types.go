package mechanism

import (
	"math"

	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/motor"
)

// State is a position/velocity/acceleration snapshot in radians.
type State struct {
	Position     float64
	Velocity     float64
	Acceleration float64
}

// Scale multiplies every component by k, e.g. a gear ratio.
func (s State) Scale(k float64) State {
	return State{Position: s.Position * k, Velocity: s.Velocity * k, Acceleration: s.Acceleration * k}
}

func (s State) Fields() map[string]float64 {
	return map[string]float64{
		"position":     s.Position,
		"velocity":     s.Velocity,
		"acceleration": s.Acceleration,
	}
}

// Variables are the electrical and torque inputs applied during the last update.
type Variables struct {
	Torque        float64
	StatorVoltage float64
	SupplyVoltage float64
	StatorCurrent float64
}

// supplyEfficiency approximates controller losses between battery and stator.
const supplyEfficiency = 0.85

// SupplyCurrent estimates battery-side current from the stator side.
func (v Variables) SupplyCurrent() float64 {
	ratio := dynamo.SafeDiv(v.StatorVoltage, v.SupplyVoltage, 0)
	return v.StatorCurrent * ratio / supplyEfficiency
}

func (v Variables) Fields() map[string]float64 {
	return map[string]float64{
		"torque":        v.Torque,
		"statorVoltage": v.StatorVoltage,
		"supplyVoltage": v.SupplyVoltage,
		"statorCurrent": v.StatorCurrent,
		"supplyCurrent": v.SupplyCurrent(),
	}
}

// Friction holds rotor-side static and kinetic friction torques in N·m.
type Friction struct {
	Static  float64
	Kinetic float64
}

func NewFriction(static, kinetic float64) Friction {
	return Friction{Static: math.Abs(static), Kinetic: math.Abs(kinetic)}
}

// FrictionFromVoltage expresses friction as the stall torque the motor produces
// at the given voltages, the way friction is usually characterised on a robot.
func FrictionFromVoltage(m motor.DCMotor, staticVolts, kineticVolts float64) Friction {
	return NewFriction(
		m.Torque(m.Current(0, staticVolts)),
		m.Torque(m.Current(0, kineticVolts)),
	)
}

// HardLimits bound the mechanism position.
type HardLimits struct {
	Min float64
	Max float64
}

func Unbounded() HardLimits {
	return HardLimits{Min: math.Inf(-1), Max: math.Inf(1)}
}

// Dynamics supplies load-side torque and inertia beyond the rotor itself.
type Dynamics interface {
	Environment(s State) float64
	ExtraInertia() float64
}

// DynamicsFuncs adapts plain functions to Dynamics. Nil funcs contribute zero.
type DynamicsFuncs struct {
	EnvironmentFunc  func(s State) float64
	ExtraInertiaFunc func() float64
}

func (d DynamicsFuncs) Environment(s State) float64 {
	if d.EnvironmentFunc == nil {
		return 0
	}
	return d.EnvironmentFunc(s)
}

func (d DynamicsFuncs) ExtraInertia() float64 {
	if d.ExtraInertiaFunc == nil {
		return 0
	}
	return d.ExtraInertiaFunc()
}

// NoDynamics is an unloaded mechanism.
func NoDynamics() Dynamics {
	return DynamicsFuncs{}
}

// ArmGravity loads a pivoting arm whose position is measured from horizontal.
func ArmGravity(mass, comLength, g float64) Dynamics {
	return DynamicsFuncs{
		EnvironmentFunc: func(s State) float64 {
			return -mass * g * comLength * math.Cos(s.Position)
		},
		ExtraInertiaFunc: func() float64 {
			return mass * comLength * comLength
		},
	}
}

// Controller decides the terminal voltage each sub-tick. rotor is the current
// state in rotor units.
type Controller interface {
	Run(dt, supplyVoltage float64, rotor State) float64
	BrakeEnabled() bool
}

type idle struct{}

func (idle) Run(float64, float64, State) float64 { return 0 }
func (idle) BrakeEnabled() bool                  { return false }
