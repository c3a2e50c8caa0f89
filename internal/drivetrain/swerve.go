package drivetrain

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/ByteArena/box2d"
	"go.uber.org/zap"

	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/geom"
	"github.com/san-kum/fieldsim/internal/gyro"
	"github.com/san-kum/fieldsim/internal/mechanism"
	"github.com/san-kum/fieldsim/internal/physics"
	"github.com/san-kum/fieldsim/internal/telemetry"
)

// minPropulsion is the total module force (N) below which the drive inertia blend is kept.
const minPropulsion = 1e-3

// Host receives the drivetrain's mechanisms so it can update them every sub-tick.
type Host interface {
	AddMechanism(m *mechanism.Mechanism)
	RemoveMechanism(m *mechanism.Mechanism)
}

// Drivetrain is a simulated chassis that can be ticked by a robot.
type Drivetrain interface {
	SimTick(dt float64)
	Chassis() *Chassis
	Gyro() *gyro.Gyro
}

// ControllerFactory supplies the drive and steer controllers for module i.
type ControllerFactory func(i int) (drive, steer mechanism.Controller)

type options struct {
	log         *zap.Logger
	sink        telemetry.Sink
	seed        uint64
	enabler     dynamo.Enabler
	controllers ControllerFactory
	userData    any
}

type Option func(*options)

func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

func WithSink(sink telemetry.Sink) Option {
	return func(o *options) { o.sink = sink }
}

func WithSeed(seed uint64) Option {
	return func(o *options) { o.seed = seed }
}

func WithEnabler(e dynamo.Enabler) Option {
	return func(o *options) { o.enabler = e }
}

func WithControllers(f ControllerFactory) Option {
	return func(o *options) { o.controllers = f }
}

// WithUserData tags the chassis body and bumper fixture, e.g. with the owning robot.
func WithUserData(v any) Option {
	return func(o *options) { o.userData = v }
}

// New builds the drivetrain described by cfg. Unknown configurations fail
// with ErrUnsupportedDrivetrain.
func New(cfg Config, world *physics.World, host Host, opts ...Option) (Drivetrain, error) {
	switch c := cfg.(type) {
	case SwerveConfig:
		return NewSwerve(c, world, host, opts...)
	case *SwerveConfig:
		if c == nil {
			break
		}
		return NewSwerve(*c, world, host, opts...)
	}
	return nil, fmt.Errorf("drivetrain %T: %w", cfg, dynamo.ErrUnsupportedDrivetrain)
}

type Swerve struct {
	cfg     SwerveConfig
	chassis *Chassis
	kin     *Kinematics
	gyro    *gyro.Gyro
	host    Host
	opts    options

	// driveInertia is the load inertia seen by each drive rotor, float64 bits.
	driveInertia atomic.Uint64

	mu      sync.RWMutex
	modules []*Module
}

func NewSwerve(cfg SwerveConfig, world *physics.World, host Host, opts ...Option) (*Swerve, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{
		log:     zap.NewNop(),
		sink:    telemetry.Nop{},
		enabler: dynamo.AlwaysEnabled{},
		controllers: func(int) (mechanism.Controller, mechanism.Controller) {
			return nil, nil
		},
	}
	for _, opt := range opts {
		opt(&o)
	}

	kin, err := NewKinematics(cfg.ModuleTranslations)
	if err != nil {
		return nil, err
	}
	chassis, err := newChassis(world, cfg.Chassis, o.userData)
	if err != nil {
		return nil, err
	}

	s := &Swerve{
		cfg:     cfg,
		chassis: chassis,
		kin:     kin,
		gyro:    gyro.New(cfg.Gyro, gyro.WithSeed(o.seed), gyro.WithSink(telemetry.Scope(o.sink, "Gyro"))),
		host:    host,
		opts:    o,
	}
	s.storeDriveInertia(s.translatingInertia())

	s.modules = make([]*Module, len(cfg.ModuleTranslations))
	for i := range cfg.ModuleTranslations {
		drive, steer := o.controllers(i)
		m, err := s.newModule(i, drive, steer)
		if err != nil {
			return nil, err
		}
		s.modules[i] = m
		host.AddMechanism(m.drive)
		host.AddMechanism(m.steer)
	}
	return s, nil
}

func (s *Swerve) newModule(i int, drive, steer mechanism.Controller) (*Module, error) {
	prefix := fmt.Sprintf("SwerveModule%d", i)
	sink := telemetry.Scope(s.opts.sink, prefix)
	mechOpts := func(part string) []mechanism.Option {
		return []mechanism.Option{
			mechanism.WithLogger(s.opts.log),
			mechanism.WithEnabler(s.opts.enabler),
			mechanism.WithSeed(s.opts.seed),
			mechanism.WithSink(telemetry.Scope(sink, part)),
		}
	}

	driveCfg := s.cfg.Module.Drive
	driveCfg.Dynamics = mechanism.DynamicsFuncs{ExtraInertiaFunc: s.loadDriveInertia}
	d, err := mechanism.New(prefix+"/Drive", driveCfg, drive, mechOpts("Drive")...)
	if err != nil {
		return nil, fmt.Errorf("module %d drive: %w", i, err)
	}
	st, err := mechanism.New(prefix+"/Steer", s.cfg.Module.Steer, steer, mechOpts("Steer")...)
	if err != nil {
		return nil, fmt.Errorf("module %d steer: %w", i, err)
	}
	return &Module{
		index:       i,
		drive:       d,
		steer:       st,
		translation: s.cfg.ModuleTranslations[i],
		wheelRadius: s.cfg.Module.WheelRadius,
		wheelCOF:    s.cfg.Module.WheelCOF,
	}, nil
}

func (s *Swerve) Chassis() *Chassis       { return s.chassis }
func (s *Swerve) Gyro() *gyro.Gyro        { return s.gyro }
func (s *Swerve) Kinematics() *Kinematics { return s.kin }
func (s *Swerve) Config() SwerveConfig    { return s.cfg }

// Modules returns a snapshot of the current modules.
func (s *Swerve) Modules() []*Module {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Module, len(s.modules))
	copy(out, s.modules)
	return out
}

func (s *Swerve) ModuleStates() []ModuleState {
	modules := s.Modules()
	states := make([]ModuleState, len(modules))
	for i, m := range modules {
		states[i] = m.State()
	}
	return states
}

func (s *Swerve) SetChassisWorldPose(p geom.Pose2d) {
	s.chassis.SetWorldPose(p)
}

func (s *Swerve) SetChassisWorldSpeeds(v geom.ChassisSpeeds) {
	s.chassis.SetWorldSpeeds(v)
}

func (s *Swerve) ChassisWorldPose() geom.Pose2d {
	return s.chassis.WorldPose()
}

func (s *Swerve) ChassisWorldSpeeds() geom.ChassisSpeeds {
	return s.chassis.WorldSpeeds()
}

// WithSetModuleControllers replaces module i with one driven by new
// controllers. The new mechanisms start from the old ones' state and take
// their place on the host.
func (s *Swerve) WithSetModuleControllers(i int, drive, steer mechanism.Controller) (*Swerve, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.modules) {
		return s, fmt.Errorf("module index %d out of range [0, %d): %w", i, len(s.modules), dynamo.ErrInvalidConfig)
	}

	old := s.modules[i]
	m, err := s.newModule(i, drive, steer)
	if err != nil {
		return s, err
	}
	d, st := old.drive.Outputs(), old.steer.Outputs()
	m.drive.SetState(d.Position, d.Velocity)
	m.steer.SetState(st.Position, st.Velocity)

	s.host.RemoveMechanism(old.drive)
	s.host.RemoveMechanism(old.steer)
	s.host.AddMechanism(m.drive)
	s.host.AddMechanism(m.steer)
	s.modules[i] = m
	return s, nil
}

func (s *Swerve) gravityShare() float64 {
	return s.cfg.Chassis.Mass * Gravity / float64(len(s.cfg.ModuleTranslations))
}

func (s *Swerve) translatingInertia() float64 {
	r := s.cfg.Module.WheelRadius
	return s.cfg.Chassis.Mass / float64(len(s.cfg.ModuleTranslations)) * r * r
}

func (s *Swerve) rotatingInertia() float64 {
	wheelBase := s.cfg.ModuleTranslations[0].Len()
	if wheelBase < dynamo.Epsilon {
		return s.translatingInertia()
	}
	r := s.cfg.Module.WheelRadius
	n := float64(len(s.cfg.ModuleTranslations))
	return s.cfg.Chassis.MOI / (wheelBase * wheelBase) / n * r * r
}

func (s *Swerve) storeDriveInertia(v float64) {
	s.driveInertia.Store(math.Float64bits(v))
}

func (s *Swerve) loadDriveInertia() float64 {
	return math.Float64frombits(s.driveInertia.Load())
}

// SimTick applies module forces and the friction correction, then updates the gyro.
func (s *Swerve) SimTick(dt float64) {
	if dt <= 0 {
		return
	}
	modules := s.Modules()
	states := make([]ModuleState, len(modules))
	for i, m := range modules {
		states[i] = m.State()
	}
	share := s.gravityShare()

	var omega float64
	var correction geom.ChassisSpeeds
	s.chassis.world.Do(func(*box2d.B2World) {
		body := s.chassis.body
		heading := body.GetAngle()

		var total float64
		var net [2]float64
		skidding := 0
		for i, m := range modules {
			force, ok := m.Propulsion(m.Grip(share))
			if !ok {
				skidding++
			}
			dir := states[i].Angle + heading
			fx, fy := force*math.Cos(dir), force*math.Sin(dir)
			total += math.Abs(force)
			net[0] += fx
			net[1] += fy
			point := body.GetWorldPoint(physics.Vec(m.translation))
			body.ApplyForce(box2d.MakeB2Vec2(fx, fy), point, true)
		}
		if total > minPropulsion {
			ratio := math.Hypot(net[0], net[1]) / total
			s.storeDriveInertia(ratio*s.translatingInertia() + (1-ratio)*s.rotatingInertia())
		}

		actual := speedsOf(body)
		implied := s.kin.ToChassisSpeeds(states).ToFieldRelative(heading)
		correction = s.FrictionCorrection(actual.Minus(implied), modules, dt)
		body.ApplyForceToCenter(box2d.MakeB2Vec2(correction.Vx*s.chassis.mass, correction.Vy*s.chassis.mass), true)
		body.ApplyTorque(correction.Omega*s.chassis.moi, true)

		omega = body.GetAngularVelocity()
		s.opts.sink.Record("skiddingModules", skidding)
	})

	s.opts.sink.Record("frictionCorrection", correctionFields(correction))
	s.gyro.Update(omega, dt)
}

// FrictionCorrection converts the chassis's unwanted field-relative velocity
// into corrective accelerations (m/s², rad/s²). Each axis is clamped so it at
// most brings its unwanted velocity to zero within dt.
func (s *Swerve) FrictionCorrection(unwanted geom.ChassisSpeeds, modules []*Module, dt float64) geom.ChassisSpeeds {
	share := s.gravityShare()
	var linear, angular float64
	for _, m := range modules {
		grip := m.Grip(share)
		linear += grip
		angular += grip * m.translation.Len()
	}

	ax := -dynamo.Signum(unwanted.Vx) * linear / s.chassis.mass
	ay := -dynamo.Signum(unwanted.Vy) * linear / s.chassis.mass
	alpha := -dynamo.Signum(unwanted.Omega) * angular / s.chassis.moi

	return geom.ChassisSpeeds{
		Vx:    dynamo.ClampToStop(ax, -unwanted.Vx/dt),
		Vy:    dynamo.ClampToStop(ay, -unwanted.Vy/dt),
		Omega: dynamo.ClampToStop(alpha, -unwanted.Omega/dt),
	}
}

type correctionFields geom.ChassisSpeeds

func (c correctionFields) Fields() map[string]float64 {
	return map[string]float64{"ax": c.Vx, "ay": c.Vy, "alpha": c.Omega}
}
