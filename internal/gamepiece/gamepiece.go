package gamepiece

import (
	"fmt"
	"slices"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/san-kum/fieldsim/internal/geom"
	"github.com/san-kum/fieldsim/internal/physics"
)

// GamePiece is safe for concurrent use. Lock order is piece, then world.
type GamePiece struct {
	id      uuid.UUID
	variant Variant
	world   *physics.World
	log     *zap.Logger
	onScore func(*GamePiece, Target)

	mu             sync.Mutex
	state          stateData
	userControlled bool
}

type Option func(*GamePiece)

func WithLogger(log *zap.Logger) Option {
	return func(g *GamePiece) { g.log = log }
}

// WithScoreHook is called, outside the piece lock, whenever the piece enters a target.
func WithScoreHook(fn func(*GamePiece, Target)) Option {
	return func(g *GamePiece) { g.onScore = fn }
}

// New creates a library-controlled piece in Limbo.
func New(variant Variant, world *physics.World, opts ...Option) (*GamePiece, error) {
	if err := variant.Validate(); err != nil {
		return nil, err
	}
	g := &GamePiece{
		id:      uuid.New(),
		variant: variant,
		world:   world,
		log:     zap.NewNop(),
		state:   limbo{},
	}
	for _, opt := range opts {
		opt(g)
	}
	g.log = g.log.With(zap.Stringer("piece", g.id))
	return g, nil
}

func (g *GamePiece) ID() uuid.UUID    { return g.id }
func (g *GamePiece) Variant() Variant { return g.variant }

func (g *GamePiece) String() string {
	return fmt.Sprintf("%s(%s)", g.variant.Type, g.id)
}

func (g *GamePiece) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.tag()
}

func (g *GamePiece) IsInState(states ...State) bool {
	return slices.Contains(states, g.State())
}

func (g *GamePiece) IsOfVariant(variants ...Variant) bool {
	return slices.ContainsFunc(variants, g.variant.Is)
}

// Pose is the piece's field pose. On-field pieces rest at half their height.
func (g *GamePiece) Pose() geom.Pose3d {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.pose(g)
}

// Velocity is the field-relative velocity. Only on-field and flying pieces move.
func (g *GamePiece) Velocity() mgl64.Vec3 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.velocity(g)
}

// Grant hands control of the piece to the caller.
func (g *GamePiece) Grant() *GamePiece {
	g.mu.Lock()
	g.userControlled = true
	g.mu.Unlock()
	return g
}

// ReleaseControl gives control back to the simulation.
func (g *GamePiece) ReleaseControl() {
	g.mu.Lock()
	g.userControlled = false
	g.mu.Unlock()
}

func (g *GamePiece) IsUserControlled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.userControlled
}

func (g *GamePiece) IsLibraryControlled() bool {
	return !g.IsUserControlled()
}

// WithLib runs fn with control temporarily granted, then restores the
// previous owner. Simulation components use it to drive transitions.
func (g *GamePiece) WithLib(fn func(*GamePiece)) *GamePiece {
	g.mu.Lock()
	prev := g.userControlled
	g.userControlled = true
	g.mu.Unlock()

	fn(g)

	g.mu.Lock()
	g.userControlled = prev
	g.mu.Unlock()
	return g
}

// Place puts the piece at rest on the field.
func (g *GamePiece) Place(position mgl64.Vec2) bool {
	return g.userTransition("place", allStates, func() stateData {
		return &onField{position: position}
	})
}

// Slide puts the piece on the field with an initial velocity.
func (g *GamePiece) Slide(position, velocity mgl64.Vec2) bool {
	return g.userTransition("slide", allStates, func() stateData {
		return &onField{position: position, initial: velocity}
	})
}

// Launch throws the piece from pose with a field-relative velocity.
func (g *GamePiece) Launch(pose geom.Pose3d, velocity mgl64.Vec3, dynamics ProjectileDynamics) bool {
	if dynamics == nil {
		dynamics = ZeroDynamics()
	}
	return g.userTransition("launch", allStates, func() stateData {
		return &inFlight{where: pose, vel: velocity, dynamics: dynamics}
	})
}

// Intake moves an on-field piece into a robot's inventory.
func (g *GamePiece) Intake() bool {
	return g.userTransition("intake", []State{OnField}, func() stateData {
		return held{}
	})
}

// Delete takes the piece out of play.
func (g *GamePiece) Delete() bool {
	return g.userTransition("delete", []State{OnField, InFlight, Held}, func() stateData {
		return limbo{}
	})
}

var allStates = States()

// userTransition performs a guarded transition. Without control, or from a
// state the operation does not accept, it logs one warning and does nothing.
func (g *GamePiece) userTransition(op string, from []State, next func() stateData) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	current := g.state.tag()
	switch {
	case !g.userControlled:
		g.log.Warn("game piece transition without control",
			zap.String("op", op), zap.Stringer("state", current))
		return false
	case !slices.Contains(from, current):
		g.log.Warn("illegal game piece transition",
			zap.String("op", op), zap.Stringer("state", current))
		return false
	}

	g.transition(next())
	g.userControlled = false
	return true
}

// transition swaps state data, running the exit hook before the enter hook.
// A state whose enter hook fails falls back to Limbo.
func (g *GamePiece) transition(next stateData) {
	from := g.state.tag()
	g.state.exit(g)
	g.state = next
	if err := next.enter(g); err != nil {
		g.log.Error("entering game piece state", zap.Stringer("state", next.tag()), zap.Error(err))
		g.state = limbo{}
	}
	g.log.Debug("game piece transition", zap.Stringer("from", from), zap.Stringer("to", g.state.tag()))
}

// Tick advances a flying piece by dt. A flying piece that enters one of its
// targets is scored into Limbo; one that drops below the floor lands. Both
// re-grant user control. Targets are checked before the floor.
func (g *GamePiece) Tick(dt float64) {
	g.mu.Lock()
	g.state.tick(g, dt)

	var (
		target Target
		scored bool
	)
	if f, ok := g.state.(*inFlight); ok {
		p := f.where.Translation
		if target, scored = g.variant.scoredBy(p); scored {
			g.transition(limbo{})
			g.userControlled = true
		} else if p.Z() < 0 {
			g.land(p, f.vel)
			g.userControlled = true
		}
	}
	g.mu.Unlock()

	if scored && g.onScore != nil {
		g.onScore(g, target)
	}
}

func (g *GamePiece) land(p, v mgl64.Vec3) {
	if !g.variant.PlaceOnFieldWhenTouchGround {
		g.transition(limbo{})
		return
	}
	g.transition(&onField{
		position: p.Vec2(),
		initial:  v.Vec2().Mul(g.variant.LandingDampening),
	})
}
