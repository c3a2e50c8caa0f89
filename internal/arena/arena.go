package arena

import (
	"fmt"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ByteArena/box2d"
	"go.uber.org/zap"

	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/gamepiece"
	"github.com/san-kum/fieldsim/internal/physics"
	"github.com/san-kum/fieldsim/internal/telemetry"
)

type Arena struct {
	timing  dynamo.Timing
	season  Season
	world   *physics.World
	host    *dynamo.Host
	log     *zap.Logger
	sink    telemetry.Sink
	metrics *telemetry.ArenaMetrics
	seed    uint64

	obstacles int
	simTime   atomic.Uint64
	periods   atomic.Int64
	scores    atomic.Int64

	mu     sync.RWMutex
	pieces []*gamepiece.GamePiece
	robots []*Robot
}

type Option func(*Arena)

func WithLogger(log *zap.Logger) Option {
	return func(a *Arena) { a.log = log }
}

func WithSink(sink telemetry.Sink) Option {
	return func(a *Arena) { a.sink = sink }
}

func WithMetrics(m *telemetry.ArenaMetrics) Option {
	return func(a *Arena) { a.metrics = m }
}

// WithHost shares match state (enabled, teleop, alliance) with the caller.
func WithHost(h *dynamo.Host) Option {
	return func(a *Arena) { a.host = h }
}

// WithSeed seeds every noise source created through the arena.
func WithSeed(seed uint64) Option {
	return func(a *Arena) { a.seed = seed }
}

// New builds an arena with the season's obstacles. The field starts empty;
// call ResetFieldForAuto to place the season's pieces.
func New(season Season, timing dynamo.Timing, opts ...Option) (*Arena, error) {
	if season == nil {
		season = Empty{}
	}
	derived, err := dynamo.NewTiming(timing.Period, timing.TicksPerPeriod)
	if err != nil {
		return nil, err
	}
	// Dt is always period / ticks; a zero Dt is filled in.
	if timing.Dt != 0 && math.Abs(timing.Dt-derived.Dt) > dynamo.Epsilon {
		return nil, fmt.Errorf("timing %+v: dt must be period/ticks = %v: %w", timing, derived.Dt, dynamo.ErrInvalidTiming)
	}
	timing = derived
	a := &Arena{
		timing: timing,
		season: season,
		world:  physics.NewWorld(),
		log:    zap.NewNop(),
		sink:   telemetry.Nop{},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.host == nil {
		a.host = dynamo.NewHost()
		a.host.SetEnabled(true)
	}

	field := season.FieldMap()
	if err := field.Validate(); err != nil {
		return nil, fmt.Errorf("season %s field: %w", season.Name(), err)
	}
	a.world.Do(func(bw *box2d.B2World) {
		var bodies []*box2d.B2Body
		bodies, err = field.Build(bw)
		a.obstacles = len(bodies)
	})
	if err != nil {
		return nil, fmt.Errorf("season %s field: %w", season.Name(), err)
	}
	a.log.Info("arena created",
		zap.String("season", season.Name()),
		zap.Int("obstacles", a.obstacles),
		zap.Float64("period", timing.Period),
		zap.Int("ticksPerPeriod", timing.TicksPerPeriod))
	return a, nil
}

func (a *Arena) Timing() dynamo.Timing { return a.timing }
func (a *Arena) Season() Season        { return a.season }
func (a *Arena) World() *physics.World { return a.world }
func (a *Arena) Host() *dynamo.Host    { return a.host }
func (a *Arena) Logger() *zap.Logger   { return a.log }

// SimTime is the simulated time elapsed over completed periods.
func (a *Arena) SimTime() float64 {
	return math.Float64frombits(a.simTime.Load())
}

// Periods counts completed calls to SimulationPeriodic.
func (a *Arena) Periods() int64 {
	return a.periods.Load()
}

// Scores counts pieces that have entered a target.
func (a *Arena) Scores() int64 {
	return a.scores.Load()
}

// CreateGamePiece adds a piece in Limbo and returns it under the caller's control.
func (a *Arena) CreateGamePiece(v gamepiece.Variant) (*gamepiece.GamePiece, error) {
	g, err := gamepiece.New(v, a.world,
		gamepiece.WithLogger(a.log),
		gamepiece.WithScoreHook(a.scored))
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.pieces = append(a.pieces, g)
	a.mu.Unlock()
	a.log.Debug("game piece created", zap.Stringer("piece", g.ID()), zap.String("variant", v.Type))
	return g.Grant(), nil
}

func (a *Arena) scored(g *gamepiece.GamePiece, _ gamepiece.Target) {
	a.scores.Add(1)
	a.log.Debug("game piece scored", zap.Stringer("piece", g.ID()))
	a.sink.Record("Arena/Scored/"+g.Variant().Type, 1)
	if a.metrics != nil {
		a.metrics.Scored.WithLabelValues(g.Variant().Type).Inc()
	}
}

func (a *Arena) GamePieces() []*gamepiece.GamePiece {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.pieces)
}

// GamePiecesIn filters GamePieces by state.
func (a *Arena) GamePiecesIn(states ...gamepiece.State) []*gamepiece.GamePiece {
	var out []*gamepiece.GamePiece
	for _, g := range a.GamePieces() {
		if g.IsInState(states...) {
			out = append(out, g)
		}
	}
	return out
}

func (a *Arena) Robots() []*Robot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.robots)
}

func (a *Arena) addRobot(r *Robot) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.robots = append(a.robots, r)
	return len(a.robots) - 1
}

// ResetFieldForAuto takes every piece out of play, empties robot inventories
// and lets the season place a fresh set.
func (a *Arena) ResetFieldForAuto() error {
	for _, r := range a.Robots() {
		r.indexer.Clear()
	}

	a.mu.Lock()
	pieces := a.pieces
	a.pieces = nil
	a.mu.Unlock()

	for _, g := range pieces {
		if g.IsInState(gamepiece.Limbo) {
			continue
		}
		g.WithLib(func(g *gamepiece.GamePiece) { g.Delete() })
	}
	a.log.Debug("field reset", zap.Int("removed", len(pieces)))
	return a.season.PlaceGamePieces(a)
}

// SimulationPeriodic advances the arena by one control period.
func (a *Arena) SimulationPeriodic() {
	start := time.Now()
	end := a.SimTime() + a.timing.Period
	telemetry.Stamp(a.sink, end)

	a.season.CompetitionPeriodic(a)
	for i := 0; i < a.timing.TicksPerPeriod; i++ {
		a.subTick()
	}

	a.simTime.Store(math.Float64bits(end))
	a.periods.Add(1)

	elapsed := time.Since(start)
	a.log.Debug("arena period", zap.Duration("cpu", elapsed), zap.Float64("simTime", end))
	a.sink.Record("Arena/PeriodCPUTimeMS", float64(elapsed.Microseconds())/1000)
	a.observe(elapsed)
}

func (a *Arena) subTick() {
	dt := a.timing.Dt
	robots := a.Robots()
	for _, r := range robots {
		r.simTick(dt)
	}
	for _, g := range a.GamePieces() {
		g.Tick(dt)
	}
	a.world.Step(dt)
	for _, r := range robots {
		r.drainIntakes()
	}
}

func (a *Arena) observe(elapsed time.Duration) {
	if a.metrics == nil {
		return
	}
	a.metrics.PeriodSeconds.Observe(elapsed.Seconds())
	a.metrics.SimTime.Set(a.SimTime())
	a.metrics.Robots.Set(float64(len(a.Robots())))

	counts := make(map[gamepiece.State]int)
	for _, g := range a.GamePieces() {
		counts[g.State()]++
	}
	for _, s := range gamepiece.States() {
		a.metrics.Pieces.WithLabelValues(s.String()).Set(float64(counts[s]))
	}
}
