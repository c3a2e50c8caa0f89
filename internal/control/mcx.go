package control

import (
	"math"
	"sync"

	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/mechanism"
	"github.com/san-kum/fieldsim/internal/motor"
)

type Mode int

const (
	ModeNeutral Mode = iota
	ModeVoltage
	ModePosition
	ModeVelocity
)

func (m Mode) String() string {
	switch m {
	case ModeVoltage:
		return "voltage"
	case ModePosition:
		return "position"
	case ModeVelocity:
		return "velocity"
	default:
		return "neutral"
	}
}

// Gains are PID gains in volts per mechanism unit.
type Gains struct {
	Kp float64
	Ki float64
	Kd float64
}

// Feedforward terms in volts.
type Feedforward struct {
	KS float64
	KV float64
	KA float64
	KG float64
}

func (f Feedforward) Calculate(velocity, acceleration float64) float64 {
	return f.KS*dynamo.Signum(velocity) + f.KV*velocity + f.KA*acceleration + f.KG
}

type MCXConfig struct {
	Motor motor.DCMotor

	// SensorToMechanismRatio is rotor rotations per mechanism rotation.
	SensorToMechanismRatio float64

	PositionGains Gains
	VelocityGains Gains
	Feedforward   Feedforward
	Profile       Trapezoid

	StatorCurrentLimit float64
	ForwardSoftLimit   float64
	ReverseSoftLimit   float64
	Brake              bool
}

const DefaultStatorCurrentLimit = 120.0

func DefaultMCXConfig(m motor.DCMotor) MCXConfig {
	return MCXConfig{
		Motor:                  m,
		SensorToMechanismRatio: 1,
		StatorCurrentLimit:     DefaultStatorCurrentLimit,
		ForwardSoftLimit:       math.Inf(1),
		ReverseSoftLimit:       math.Inf(-1),
	}
}

// MCX simulates a smart motor controller. Setters may be called from any
// goroutine; Run is called by the stepping goroutine.
type MCX struct {
	mu       sync.Mutex
	cfg      MCXConfig
	mode     Mode
	setpoint float64
	brake    bool
	position *PID
	velocity *PID
	profile  ProfileState
	applied  float64
}

func NewMCX(cfg MCXConfig) *MCX {
	if cfg.SensorToMechanismRatio == 0 {
		cfg.SensorToMechanismRatio = 1
	}
	if cfg.StatorCurrentLimit <= 0 {
		cfg.StatorCurrentLimit = DefaultStatorCurrentLimit
	}
	return &MCX{
		cfg:      cfg,
		brake:    cfg.Brake,
		position: NewPID(cfg.PositionGains.Kp, cfg.PositionGains.Ki, cfg.PositionGains.Kd),
		velocity: NewPID(cfg.VelocityGains.Kp, cfg.VelocityGains.Ki, cfg.VelocityGains.Kd),
	}
}

func (c *MCX) SetVoltage(volts float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.switchMode(ModeVoltage)
	c.setpoint = volts
}

// SetPosition targets a mechanism-side position.
func (c *MCX) SetPosition(position float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.switchMode(ModePosition)
	c.setpoint = position
}

// SetVelocity targets a mechanism-side velocity.
func (c *MCX) SetVelocity(velocity float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.switchMode(ModeVelocity)
	c.setpoint = velocity
}

func (c *MCX) Neutral() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.switchMode(ModeNeutral)
	c.setpoint = 0
}

func (c *MCX) SetBrake(on bool) {
	c.mu.Lock()
	c.brake = on
	c.mu.Unlock()
}

func (c *MCX) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// AppliedVoltage is the voltage returned by the last Run.
func (c *MCX) AppliedVoltage() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applied
}

func (c *MCX) switchMode(mode Mode) {
	if c.mode == mode {
		return
	}
	c.mode = mode
	c.position.Reset()
	c.velocity.Reset()
	c.profile = ProfileState{Position: math.NaN()}
}

func (c *MCX) BrakeEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.brake
}

func (c *MCX) Run(dt, supplyVoltage float64, rotor mechanism.State) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	mech := rotor.Scale(1 / c.cfg.SensorToMechanismRatio)
	ff := c.cfg.Feedforward

	var out float64
	switch c.mode {
	case ModeVoltage:
		out = c.setpoint
	case ModePosition:
		target := ProfileState{Position: c.setpoint}
		if c.cfg.Profile.Enabled() {
			if math.IsNaN(c.profile.Position) {
				c.profile = ProfileState{Position: mech.Position, Velocity: mech.Velocity}
			}
			c.profile = c.cfg.Profile.Next(c.profile, c.setpoint, dt)
			target = c.profile
		}
		out = c.position.Calculate(mech.Position, target.Position, dt) +
			ff.Calculate(target.Velocity, target.Acceleration)
	case ModeVelocity:
		out = c.velocity.Calculate(mech.Velocity, c.setpoint, dt) + ff.Calculate(c.setpoint, 0)
	default:
		out = 0
	}

	if mech.Position >= c.cfg.ForwardSoftLimit && out > 0 {
		out = 0
	}
	if mech.Position <= c.cfg.ReverseSoftLimit && out < 0 {
		out = 0
	}

	out = c.limitCurrent(out, rotor.Velocity)
	out = dynamo.Clamp(out, -supplyVoltage, supplyVoltage)
	c.applied = out
	return out
}

// limitCurrent keeps the predicted stator current within the configured limit.
func (c *MCX) limitCurrent(volts, rotorVelocity float64) float64 {
	m := c.cfg.Motor
	if m.R <= 0 || m.Kv <= 0 {
		return volts
	}
	backEMF := rotorVelocity / m.Kv
	limit := c.cfg.StatorCurrentLimit * m.R
	return dynamo.Clamp(volts, backEMF-limit, backEMF+limit)
}
