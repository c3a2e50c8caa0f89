package season

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/san-kum/fieldsim/internal/arena"
	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/gamepiece"
	"github.com/san-kum/fieldsim/internal/physics"
)

const (
	// FieldLength is the 2024 field's length along X, in meters.
	FieldLength = 16.54

	inch = 0.0254

	// humanPlayerInterval is the minimum time between thrown notes.
	humanPlayerInterval = 1.0
	// sourceClearance is how close a piece may lie to the source before the
	// human player holds the next note.
	sourceClearance = 0.6
)

// Note is the 2024 game piece, a 14 in foam ring.
var Note = gamepiece.Variant{
	Type:   "Note",
	Height: 2 * inch,
	Mass:   0.2,
	Shape:  physics.Circle{Radius: 7 * inch},
	Targets: []gamepiece.Target{
		// blue and red speaker openings
		gamepiece.NewTarget(mgl64.Vec3{-0.25, 4.36, 2.0}, mgl64.Vec3{0.75, 6.76, 2.6}),
		gamepiece.NewTarget(mgl64.Vec3{15.8, 4.36, 2.0}, mgl64.Vec3{16.8, 6.76, 2.6}),
	},
	PlaceOnFieldWhenTouchGround: true,
	LandingDampening:            0.2,
}

// NoteStartingPositions are the autonomous note spots: three per wing and
// five on the center line.
var NoteStartingPositions = []mgl64.Vec2{
	{2.9, 4.1},
	{2.9, 5.55},
	{2.9, 7},
	{8.27, 0.75},
	{8.27, 2.43},
	{8.27, 4.1},
	{8.27, 5.78},
	{8.27, 7.46},
	{13.64, 4.1},
	{13.64, 5.55},
	{13.64, 7},
}

// blueSource is where the blue human player drops notes.
var blueSource = mgl64.Vec3{15.6, 0.8, 0.1}

// Crescendo is the 2024 season. In teleop the human player drops a note at
// the alliance's source whenever the area is clear.
type Crescendo struct {
	field *physics.FieldMap

	mu        sync.Mutex
	lastThrow float64
}

func NewCrescendo() *Crescendo {
	return &Crescendo{field: CrescendoField()}
}

func (*Crescendo) Name() string                  { return "crescendo" }
func (c *Crescendo) FieldMap() *physics.FieldMap { return c.field }

// CrescendoField is the perimeter and the stage legs of both alliances.
func CrescendoField() *physics.FieldMap {
	const w = FieldLength
	f := physics.NewFieldMap()

	line := func(x1, y1, x2, y2 float64) {
		f.AddBorderLine(mgl64.Vec2{x1, y1}, mgl64.Vec2{x2, y2})
	}
	// blue wall around the speaker
	line(0, 1, 0, 4.51)
	line(0, 4.51, 0.9, 5)
	line(0.9, 5, 0.9, 6.05)
	line(0.9, 6.05, 0, 6.5)
	line(0, 6.5, 0, 8.2)
	// far side wall
	line(0, 8.12, w, 8.12)
	// red wall around the speaker
	line(w, 1, w, 4.51)
	line(w, 4.51, w-0.9, 5)
	line(w-0.9, 5, w-0.9, 6.05)
	line(w-0.9, 6.05, w, 6.5)
	line(w, 6.5, w, 8.2)
	// near side wall and the angled source walls
	line(1.92, 0, w-1.92, 0)
	line(1.92, 0, 0, 1)
	line(w-1.92, 0, w, 1)

	leg := func(x, y, deg float64) {
		f.AddRectangle(0.35, 0.35, mgl64.Vec2{x, y}, mgl64.DegToRad(deg))
	}
	// blue stage
	leg(3.4, 4.1, 0)
	leg(5.62, 4.1-1.28, 30)
	leg(5.62, 4.1+1.28, 60)
	// red stage
	leg(w-3.4, 4.1, 0)
	leg(w-5.62, 4.1-1.28, 60)
	leg(w-5.62, 4.1+1.28, 30)
	return f
}

// PlaceGamePieces puts a note on every starting position.
func (c *Crescendo) PlaceGamePieces(a *arena.Arena) error {
	c.mu.Lock()
	c.lastThrow = 0
	c.mu.Unlock()
	for _, p := range NoteStartingPositions {
		g, err := a.CreateGamePiece(Note)
		if err != nil {
			return err
		}
		g.Place(p)
	}
	return nil
}

// SourcePosition is the human player's drop point for the given alliance.
func SourcePosition(alliance dynamo.Alliance) mgl64.Vec3 {
	if alliance == dynamo.Red {
		return mgl64.Vec3{FieldLength - blueSource.X(), blueSource.Y(), blueSource.Z()}
	}
	return blueSource
}

func (c *Crescendo) CompetitionPeriodic(a *arena.Arena) {
	if !a.Host().TeleopEnabled() {
		return
	}
	now := a.SimTime()
	c.mu.Lock()
	last := c.lastThrow
	c.mu.Unlock()
	if now-last < humanPlayerInterval {
		return
	}

	source := SourcePosition(a.Host().Alliance())
	for _, g := range a.GamePieces() {
		if g.Pose().Translation.Sub(source).Len() < sourceClearance {
			return
		}
	}

	g, err := a.CreateGamePiece(Note)
	if err != nil {
		a.Logger().Error("creating human player note", zap.Error(err))
		return
	}
	g.Place(source.Vec2())
	c.mu.Lock()
	c.lastThrow = now
	c.mu.Unlock()
	a.Logger().Debug("human player note", zap.Float64("simTime", now), zap.Stringer("alliance", a.Host().Alliance()))
}
