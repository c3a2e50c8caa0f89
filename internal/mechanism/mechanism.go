package mechanism

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/telemetry"
)

const (
	maxStatorCurrent = 80.0
	minDriveVoltage  = 0.01
	// brakeThreshold is the motor torque below which the motor is considered coasting.
	brakeThreshold = 0.01
	// zeroVelocity is 0.001 rotations per second.
	zeroVelocity = 2 * math.Pi * 0.001
)

type Mechanism struct {
	name    string
	cfg     Config
	ctrl    Controller
	enabler dynamo.Enabler
	log     *zap.Logger
	sink    telemetry.Sink
	rng     *rand.Rand

	mu      sync.RWMutex
	inputs  Variables
	outputs State
}

type Option func(*Mechanism)

func WithLogger(log *zap.Logger) Option {
	return func(m *Mechanism) { m.log = log }
}

func WithSink(sink telemetry.Sink) Option {
	return func(m *Mechanism) { m.sink = sink }
}

// WithSeed seeds the noise generator. The mechanism name is mixed in so that
// mechanisms sharing a seed still draw independent streams.
func WithSeed(seed uint64) Option {
	return func(m *Mechanism) {
		m.rng = rand.New(rand.NewPCG(seed, xxhash.Sum64String(m.name)))
	}
}

func WithRand(rng *rand.Rand) Option {
	return func(m *Mechanism) { m.rng = rng }
}

// WithEnabler gates the controller output on the host's enabled state.
func WithEnabler(e dynamo.Enabler) Option {
	return func(m *Mechanism) { m.enabler = e }
}

// New builds a mechanism at rest at position zero, clamped into its limits.
// A nil controller never drives the motor.
func New(name string, cfg Config, ctrl Controller, opts ...Option) (*Mechanism, error) {
	if cfg.Dynamics == nil {
		cfg.Dynamics = NoDynamics()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if ctrl == nil {
		ctrl = idle{}
	}

	m := &Mechanism{
		name:    name,
		cfg:     cfg,
		ctrl:    ctrl,
		enabler: dynamo.AlwaysEnabled{},
		log:     zap.NewNop(),
		sink:    telemetry.Nop{},
	}
	WithSeed(0)(m)
	for _, opt := range opts {
		opt(m)
	}
	m.outputs = State{Position: dynamo.Clamp(0, cfg.Limits.Min, cfg.Limits.Max)}
	return m, nil
}

func (m *Mechanism) Name() string           { return m.name }
func (m *Mechanism) Config() Config         { return m.cfg }
func (m *Mechanism) Controller() Controller { return m.ctrl }

// Outputs returns the mechanism-side state.
func (m *Mechanism) Outputs() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.outputs
}

// MotorOutputs returns the rotor-side state.
func (m *Mechanism) MotorOutputs() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.outputs.Scale(m.cfg.Gearing.Value())
}

func (m *Mechanism) Inputs() Variables {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.inputs
}

// MotorInputs returns the inputs with torque referred to the rotor.
func (m *Mechanism) MotorInputs() Variables {
	m.mu.RLock()
	defer m.mu.RUnlock()
	in := m.inputs
	in.Torque /= m.cfg.Gearing.Value()
	return in
}

func (m *Mechanism) SupplyCurrent() float64 {
	return m.Inputs().SupplyCurrent()
}

// SetState teleports the mechanism, clamping position into the hard limits.
func (m *Mechanism) SetState(position, velocity float64) {
	lim := m.cfg.Limits
	s := State{Position: dynamo.Clamp(position, lim.Min, lim.Max), Velocity: velocity}
	if s.Position != position {
		s.Velocity = 0
	}
	m.mu.Lock()
	m.outputs = s
	m.mu.Unlock()
}

// Update advances the mechanism by dt with the given supply voltage.
func (m *Mechanism) Update(supplyVoltage, dt float64) {
	if dt <= 0 {
		return
	}
	prev := m.Outputs()
	gear := m.cfg.Gearing.Value()
	rotor := prev.Scale(gear)

	commanded := m.ctrl.Run(dt, supplyVoltage, rotor)
	if !dynamo.Finite(commanded) {
		m.log.Debug("controller returned a non-finite voltage",
			zap.String("mechanism", m.name),
			zap.Float64("voltage", commanded))
		commanded = 0
	}
	voltage := dynamo.Clamp(commanded, -supplyVoltage, supplyVoltage)
	if !m.enabler.Enabled() {
		voltage = 0
	}

	current := m.statorCurrent(voltage, rotor.Velocity)
	motorTorque := m.cfg.Motor.Torque(current) * gear

	env := m.cfg.Dynamics.Environment(prev)
	inertia := m.cfg.RotorInertia + math.Max(0, m.cfg.Dynamics.ExtraInertia())
	anti, stopping := m.antiTorque(motorTorque, env, inertia, prev.Velocity, rotor.Velocity, dt)

	accel := (motorTorque + anti + env) / inertia
	clean := prev.Velocity + accel*dt
	if m.cfg.Noise > 0 {
		accel *= math.Max(0, 1+m.cfg.Noise*m.rng.NormFloat64())
	}

	vel := dynamo.NudgeZero(prev.Velocity+accel*dt, zeroVelocity)
	if stopping || noiseReversed(prev.Velocity, clean, vel) {
		vel = 0
	}
	next := State{
		Position:     prev.Position + vel*dt,
		Velocity:     vel,
		Acceleration: accel,
	}
	switch lim := m.cfg.Limits; {
	case next.Position < lim.Min:
		next = State{Position: lim.Min}
	case next.Position > lim.Max:
		next = State{Position: lim.Max}
	}

	in := Variables{
		Torque:        motorTorque,
		StatorVoltage: voltage,
		SupplyVoltage: supplyVoltage,
		StatorCurrent: m.statorCurrent(voltage, next.Velocity*gear),
	}

	m.mu.Lock()
	m.outputs = next
	m.inputs = in
	m.mu.Unlock()

	m.sink.Record("outputs", next)
	m.sink.Record("inputs", in)
	m.sink.Record("antiTorque", anti)
	m.sink.Record("environmentTorque", env)
}

// noiseReversed reports that noise alone carried the velocity through zero:
// the noiseless step keeps the direction of motion but the noisy one does not.
func noiseReversed(prev, clean, noisy float64) bool {
	if prev == 0 || noisy == 0 || math.Signbit(noisy) == math.Signbit(prev) {
		return false
	}
	return clean == 0 || math.Signbit(clean) == math.Signbit(prev)
}

// statorCurrent looks up the motor current, clamped to the safe range.
func (m *Mechanism) statorCurrent(voltage, rotorVelocity float64) float64 {
	if math.Abs(voltage) < minDriveVoltage {
		return 0
	}
	return dynamo.Clamp(m.cfg.Motor.Current(rotorVelocity, voltage), -maxStatorCurrent, maxStatorCurrent)
}

// antiTorque combines friction and regenerative braking so that it opposes
// motion without ever reversing it. stopping reports that the result brings
// the velocity exactly to zero this step.
func (m *Mechanism) antiTorque(motorTorque, env, inertia, velocity, rotorVelocity, dt float64) (torque float64, stopping bool) {
	gear := m.cfg.Gearing.Value()
	drive := motorTorque + env

	if velocity == 0 {
		static := m.cfg.Friction.Static * gear
		return -dynamo.Signum(drive) * math.Min(static, math.Abs(drive)), false
	}

	friction := m.cfg.Friction.Kinetic
	if math.Abs(motorTorque) < brakeThreshold && m.ctrl.BrakeEnabled() {
		braking := dynamo.Clamp(m.cfg.Motor.Current(rotorVelocity, 0), -maxStatorCurrent, maxStatorCurrent)
		friction += math.Abs(m.cfg.Motor.Torque(braking))
	}
	anti := -dynamo.Signum(velocity) * friction * gear

	needed := -velocity / dt
	imposed := (drive + anti) / inertia
	switch {
	case needed < 0 && imposed < needed:
		return m.stopTorque(needed, drive, inertia, velocity)
	case needed > 0 && imposed > needed:
		return m.stopTorque(needed, drive, inertia, velocity)
	}
	return anti, false
}

// stopTorque is the anti-torque that lands velocity exactly on zero. When the
// drive alone already reverses the motion there is nothing left to oppose.
func (m *Mechanism) stopTorque(needed, drive, inertia, velocity float64) (float64, bool) {
	stop := needed*inertia - drive
	if dynamo.Signum(stop) == dynamo.Signum(velocity) {
		return 0, false
	}
	return stop, true
}
