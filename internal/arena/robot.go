package arena

import (
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/san-kum/fieldsim/internal/battery"
	"github.com/san-kum/fieldsim/internal/drivetrain"
	"github.com/san-kum/fieldsim/internal/gamepiece"
	"github.com/san-kum/fieldsim/internal/geom"
	"github.com/san-kum/fieldsim/internal/mechanism"
	"github.com/san-kum/fieldsim/internal/telemetry"
)

// SupplyMode selects the voltage mechanisms see each sub-tick.
type SupplyMode int

const (
	// SupplyNominal feeds every mechanism the battery's nominal voltage.
	SupplyNominal SupplyMode = iota
	// SupplyBattery feeds the sagged battery voltage.
	SupplyBattery
)

func (m SupplyMode) String() string {
	if m == SupplyBattery {
		return "battery"
	}
	return "nominal"
}

// ParseSupplyMode accepts "nominal" or "battery".
func ParseSupplyMode(s string) (SupplyMode, error) {
	switch s {
	case "", "nominal":
		return SupplyNominal, nil
	case "battery":
		return SupplyBattery, nil
	}
	return 0, fmt.Errorf("unknown supply mode %q", s)
}

// Robot owns a drivetrain, a battery, extra mechanisms, intakes and an indexer.
type Robot struct {
	arena      *Arena
	index      int
	drivetrain drivetrain.Drivetrain
	indexer    *Indexer
	battery    *battery.Battery
	log        *zap.Logger
	sink       telemetry.Sink
	supply     SupplyMode

	mu         sync.RWMutex
	mechanisms []*mechanism.Mechanism
	intakes    []*Intake
}

type robotOptions struct {
	supply      SupplyMode
	controllers drivetrain.ControllerFactory
	accepted    []gamepiece.Variant
}

type RobotOption func(*robotOptions)

func WithSupplyMode(m SupplyMode) RobotOption {
	return func(o *robotOptions) { o.supply = m }
}

// WithModuleControllers supplies the drivetrain's drive and steer controllers.
func WithModuleControllers(f drivetrain.ControllerFactory) RobotOption {
	return func(o *robotOptions) { o.controllers = f }
}

// WithIndexerVariants restricts the indexer to the given variants.
func WithIndexerVariants(v ...gamepiece.Variant) RobotOption {
	return func(o *robotOptions) { o.accepted = v }
}

// NewRobot builds a robot with the given drivetrain and adds it to the arena.
func NewRobot(a *Arena, cfg drivetrain.Config, capacity int, opts ...RobotOption) (*Robot, error) {
	var o robotOptions
	for _, opt := range opts {
		opt(&o)
	}

	r := &Robot{
		arena:   a,
		battery: battery.New(),
		supply:  o.supply,
	}
	n := len(a.Robots())
	r.log = a.log.With(zap.Int("robot", n))
	r.sink = telemetry.Scope(a.sink, fmt.Sprintf("Robot%d", n))
	r.indexer = NewIndexer(capacity, r.log, o.accepted...)

	dtOpts := []drivetrain.Option{
		drivetrain.WithLogger(r.log),
		drivetrain.WithSink(telemetry.Scope(r.sink, "Drive")),
		drivetrain.WithSeed(a.seed + uint64(n)),
		drivetrain.WithEnabler(a.host),
		drivetrain.WithUserData(r),
	}
	if o.controllers != nil {
		dtOpts = append(dtOpts, drivetrain.WithControllers(o.controllers))
	}
	dt, err := drivetrain.New(cfg, a.world, r, dtOpts...)
	if err != nil {
		return nil, fmt.Errorf("robot %d: %w", n, err)
	}
	r.drivetrain = dt

	r.index = a.addRobot(r)
	r.log.Debug("robot created", zap.Stringer("supply", r.supply))
	return r, nil
}

func (r *Robot) Arena() *Arena                     { return r.arena }
func (r *Robot) Index() int                        { return r.index }
func (r *Robot) DriveTrain() drivetrain.Drivetrain { return r.drivetrain }
func (r *Robot) Indexer() *Indexer                 { return r.indexer }
func (r *Robot) Battery() *battery.Battery         { return r.battery }
func (r *Robot) SupplyMode() SupplyMode            { return r.supply }

// AddMechanism registers m for updates and with the battery.
func (r *Robot) AddMechanism(m *mechanism.Mechanism) {
	r.mu.Lock()
	r.mechanisms = append(r.mechanisms, m)
	r.mu.Unlock()
	r.battery.Add(m, m)
	r.log.Debug("mechanism added", zap.String("mechanism", m.Name()))
}

func (r *Robot) RemoveMechanism(m *mechanism.Mechanism) {
	r.mu.Lock()
	r.mechanisms = slices.DeleteFunc(r.mechanisms, func(x *mechanism.Mechanism) bool { return x == m })
	r.mu.Unlock()
	r.battery.Remove(m)
}

func (r *Robot) Mechanisms() []*mechanism.Mechanism {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.mechanisms)
}

// CreateIntake adds a retractable intake covering box, in the robot frame.
// With no variants the intake accepts none.
func (r *Robot) CreateIntake(box geom.Rectangle2d, accepted ...gamepiece.Variant) (*Intake, error) {
	in, err := newIntake(r, box, accepted)
	if err != nil {
		return nil, fmt.Errorf("robot %d intake: %w", r.index, err)
	}
	r.mu.Lock()
	r.intakes = append(r.intakes, in)
	r.mu.Unlock()
	r.log.Debug("intake created")
	return in, nil
}

func (r *Robot) Intakes() []*Intake {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.intakes)
}

// SupplyVoltage is the voltage mechanisms receive under the robot's supply mode.
func (r *Robot) SupplyVoltage() float64 {
	if r.supply == SupplyBattery {
		return r.battery.Voltage()
	}
	return battery.NominalVoltage
}

// SimTick ticks the drivetrain, then every mechanism with supplyVoltage.
func (r *Robot) SimTick(supplyVoltage, dt float64) {
	r.drivetrain.SimTick(dt)
	for _, m := range r.Mechanisms() {
		m.Update(supplyVoltage, dt)
	}
}

func (r *Robot) simTick(dt float64) {
	v := r.SupplyVoltage()
	r.SimTick(v, dt)
	r.sink.Record("Battery/Voltage", v)
	r.sink.Record("Battery/Current", r.battery.Current())
}

func (r *Robot) drainIntakes() {
	for _, in := range r.Intakes() {
		in.drain()
	}
}
