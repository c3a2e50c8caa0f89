package sim

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/san-kum/fieldsim/internal/arena"
	"github.com/san-kum/fieldsim/internal/automation"
	"github.com/san-kum/fieldsim/internal/config"
	"github.com/san-kum/fieldsim/internal/drivetrain"
	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/gamepiece"
	"github.com/san-kum/fieldsim/internal/season"
	"github.com/san-kum/fieldsim/internal/telemetry"
)

// Runner builds an arena with one robot from a config and advances it
// period by period. A Runner may run concurrently; every Run builds its own
// arena.
type Runner struct {
	cfg     *config.Config
	seasons *season.Registry
	script  *automation.Script
	log     *zap.Logger
	sink    telemetry.Sink
	arena   *telemetry.ArenaMetrics

	metrics   []MetricFactory
	observers []Observer
}

type Option func(*Runner)

func WithLogger(log *zap.Logger) Option {
	return func(r *Runner) { r.log = log }
}

func WithSink(sink telemetry.Sink) Option {
	return func(r *Runner) { r.sink = sink }
}

func WithArenaMetrics(m *telemetry.ArenaMetrics) Option {
	return func(r *Runner) { r.arena = m }
}

func WithScript(s *automation.Script) Option {
	return func(r *Runner) { r.script = s }
}

func WithRegistry(reg *season.Registry) Option {
	return func(r *Runner) { r.seasons = reg }
}

func New(cfg *config.Config, opts ...Option) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Runner{
		cfg:       cfg,
		seasons:   season.NewRegistry(),
		log:       zap.NewNop(),
		sink:      telemetry.Nop{},
		metrics:   make([]MetricFactory, 0),
		observers: make([]Observer, 0),
	}
	for _, opt := range opts {
		opt(r)
	}
	if _, err := r.seasons.Get(cfg.Season); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Runner) AddMetric(f MetricFactory)  { r.metrics = append(r.metrics, f) }
func (r *Runner) AddObserver(o Observer)     { r.observers = append(r.observers, o) }
func (r *Runner) Config() *config.Config     { return r.cfg }
func (r *Runner) Script() *automation.Script { return r.script }

// Match is one arena with the configured robot on it.
type Match struct {
	Arena  *arena.Arena
	Robot  *arena.Robot
	Player *automation.Player
}

// Build assembles a match seeded with seed and resets the field for auto.
func (r *Runner) Build(seed uint64) (*Match, error) {
	cfg := r.cfg
	timing, err := cfg.Timing()
	if err != nil {
		return nil, err
	}
	ssn, err := r.seasons.Get(cfg.Season)
	if err != nil {
		return nil, err
	}
	alliance, err := cfg.AllianceColor()
	if err != nil {
		return nil, err
	}
	supply, err := cfg.SupplyMode()
	if err != nil {
		return nil, err
	}
	sc, err := cfg.Swerve()
	if err != nil {
		return nil, err
	}

	host := dynamo.NewHost()
	host.SetEnabled(true)
	host.SetTeleop(cfg.Teleop)
	host.SetAlliance(alliance)

	opts := []arena.Option{
		arena.WithLogger(r.log),
		arena.WithSink(r.sink),
		arena.WithHost(host),
		arena.WithSeed(seed),
	}
	if r.arena != nil {
		opts = append(opts, arena.WithMetrics(r.arena))
	}
	a, err := arena.New(ssn, timing, opts...)
	if err != nil {
		return nil, err
	}

	variants := make([]gamepiece.Variant, 0, len(cfg.Robot.Intake.Variants))
	for _, name := range cfg.Robot.Intake.Variants {
		v, err := r.seasons.Variant(name)
		if err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}

	robot, err := arena.NewRobot(a, sc, cfg.Robot.IndexerCapacity,
		arena.WithSupplyMode(supply),
		arena.WithModuleControllers(cfg.Controllers(sc)),
		arena.WithIndexerVariants(variants...))
	if err != nil {
		return nil, err
	}
	robot.DriveTrain().Chassis().SetWorldPose(cfg.Robot.Start.Pose())
	robot.DriveTrain().Gyro().SetYaw(cfg.Robot.Start.Heading)

	if cfg.Robot.Intake.Enabled {
		if _, err := robot.CreateIntake(cfg.Robot.IntakeBox(), variants...); err != nil {
			return nil, err
		}
	}
	if err := a.ResetFieldForAuto(); err != nil {
		return nil, err
	}

	m := &Match{Arena: a, Robot: robot}
	if r.script != nil {
		if m.Player, err = automation.NewPlayer(r.script, robot); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Run advances a fresh match for cfg.Duration, or the config's duration
// when that is zero. On cancellation the partial result is returned with
// the context's error.
func (r *Runner) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := r.validateConfig(cfg); err != nil {
		return nil, err
	}
	duration := cfg.Duration
	if duration == 0 {
		duration = r.cfg.Duration
	}

	m, err := r.Build(cfg.Seed)
	if err != nil {
		return nil, err
	}

	period := m.Arena.Timing().Period
	periods := int(duration/period + 0.5)
	result := &Result{
		Seed:    cfg.Seed,
		Samples: make([]Sample, 0, periods),
		Metrics: make(map[string]float64),
	}

	metrics := make([]Metric, len(r.metrics))
	for i, f := range r.metrics {
		metrics[i] = f()
	}

	r.log.Info("run started",
		zap.String("season", r.cfg.Season),
		zap.Uint64("seed", cfg.Seed),
		zap.Int("periods", periods))

	for i := 0; i < periods; i++ {
		select {
		case <-ctx.Done():
			r.finish(result, m, metrics)
			return result, ctx.Err()
		default:
		}

		if m.Player != nil {
			m.Player.Step(m.Arena.SimTime())
		}
		m.Arena.SimulationPeriodic()

		s := sampleOf(i+1, m)
		if cfg.ValidateState && !s.IsValid() {
			r.finish(result, m, metrics)
			err := &dynamo.SimulationError{Period: i + 1, Time: s.Time, Wrapped: dynamo.ErrNonFinite}
			r.log.Error("run aborted", zap.Error(err), zap.Int("period", i+1))
			return result, err
		}

		for _, metric := range metrics {
			metric.Observe(s)
		}
		for _, obs := range r.observers {
			obs.OnPeriod(s)
		}
		result.Samples = append(result.Samples, s)
	}

	r.finish(result, m, metrics)
	r.log.Info("run finished",
		zap.Uint64("seed", cfg.Seed),
		zap.Int64("scored", result.Scored),
		zap.Float64("simTime", m.Arena.SimTime()))
	return result, nil
}

func (r *Runner) finish(result *Result, m *Match, metrics []Metric) {
	result.Periods = len(result.Samples)
	result.Scored = m.Arena.Scores()
	if m.Player != nil {
		result.Launched = m.Player.Launched()
	}
	for _, metric := range metrics {
		result.Metrics[metric.Name()] = metric.Value()
	}
	for _, in := range m.Robot.Intakes() {
		in.Close()
	}
}

func (r *Runner) validateConfig(cfg Config) error {
	if cfg.Duration < 0 {
		return fmt.Errorf("duration must not be negative, got %f: %w", cfg.Duration, dynamo.ErrInvalidConfig)
	}
	return nil
}

func sampleOf(period int, m *Match) Sample {
	dt := m.Robot.DriveTrain()
	chassis := dt.Chassis()
	s := Sample{
		Period:        period,
		Time:          m.Arena.SimTime(),
		Pose:          chassis.WorldPose(),
		Speeds:        chassis.WorldSpeeds(),
		GyroYaw:       dt.Gyro().Yaw(),
		SupplyVoltage: m.Robot.SupplyVoltage(),
		SupplyCurrent: m.Robot.Battery().Current(),
		Held:          m.Robot.Indexer().Len(),
		Scored:        m.Arena.Scores(),
		Pieces:        make(map[string]int),
	}
	if sw, ok := dt.(*drivetrain.Swerve); ok {
		for _, mod := range sw.Modules() {
			s.DriveVoltages = append(s.DriveVoltages, mod.Drive().Inputs().StatorVoltage)
		}
	}
	for _, g := range m.Arena.GamePieces() {
		s.Pieces[g.State().String()]++
	}
	return s
}
