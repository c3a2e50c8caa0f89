package control

import (
	"sync"

	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/mechanism"
)

// LQR is full state feedback on the mechanism-side position and velocity,
// u = -K·(x - target) + feedforward, clamped to the supply.
type LQR struct {
	// K is the gain on position error (V/rad) and velocity error (V/(rad/s)).
	K           [2]float64
	Feedforward Feedforward

	// SensorToMechanismRatio is rotor rotations per mechanism rotation.
	SensorToMechanismRatio float64

	mu     sync.Mutex
	mode   Mode
	target mechanism.State
	brake  bool
}

func NewLQR(k [2]float64, sensorToMechanism float64) *LQR {
	if sensorToMechanism == 0 {
		sensorToMechanism = 1
	}
	return &LQR{K: k, SensorToMechanismRatio: sensorToMechanism}
}

// SetPosition regulates to a mechanism-side position at rest.
func (l *LQR) SetPosition(position float64) {
	l.mu.Lock()
	l.mode = ModePosition
	l.target = mechanism.State{Position: position}
	l.mu.Unlock()
}

// SetVelocity tracks a mechanism-side velocity. The position error is
// ignored while tracking a velocity.
func (l *LQR) SetVelocity(velocity float64) {
	l.mu.Lock()
	l.mode = ModeVelocity
	l.target = mechanism.State{Velocity: velocity}
	l.mu.Unlock()
}

func (l *LQR) Neutral() {
	l.mu.Lock()
	l.mode = ModeNeutral
	l.target = mechanism.State{}
	l.mu.Unlock()
}

func (l *LQR) Mode() Mode {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mode
}

func (l *LQR) SetBrake(on bool) {
	l.mu.Lock()
	l.brake = on
	l.mu.Unlock()
}

func (l *LQR) BrakeEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.brake
}

func (l *LQR) Run(dt, supplyVoltage float64, rotor mechanism.State) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	x := rotor.Scale(1 / l.SensorToMechanismRatio)
	var u float64
	switch l.mode {
	case ModePosition:
		u = -l.K[0]*(x.Position-l.target.Position) - l.K[1]*x.Velocity + l.Feedforward.KG
	case ModeVelocity:
		u = -l.K[1]*(x.Velocity-l.target.Velocity) + l.Feedforward.Calculate(l.target.Velocity, 0)
	default:
		return 0
	}
	return dynamo.Clamp(u, -supplyVoltage, supplyVoltage)
}
