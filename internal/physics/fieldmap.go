package physics

import (
	"github.com/ByteArena/box2d"
	"github.com/go-gl/mathgl/mgl64"
)

// ObstacleMaterial is the surface of field walls and structures.
var ObstacleMaterial = Material{Friction: 0.6, Restitution: 0.3}

// Obstacle is a static shape placed on the field.
type Obstacle struct {
	Shape    Shape
	Position mgl64.Vec2
	Angle    float64
}

// FieldMap is the fixed set of static obstacles an arena is built from.
type FieldMap struct {
	obstacles []Obstacle
}

func NewFieldMap() *FieldMap {
	return &FieldMap{}
}

// AddBorderLine adds a wall segment between two field points.
func (f *FieldMap) AddBorderLine(a, b mgl64.Vec2) *FieldMap {
	f.obstacles = append(f.obstacles, Obstacle{Shape: Segment{A: a, B: b}})
	return f
}

// AddRectangle adds an xWidth by yWidth box centred at center.
func (f *FieldMap) AddRectangle(xWidth, yWidth float64, center mgl64.Vec2, angle float64) *FieldMap {
	f.obstacles = append(f.obstacles, Obstacle{
		Shape:    Rectangle{XWidth: xWidth, YWidth: yWidth},
		Position: center,
		Angle:    angle,
	})
	return f
}

func (f *FieldMap) AddObstacle(o Obstacle) *FieldMap {
	f.obstacles = append(f.obstacles, o)
	return f
}

func (f *FieldMap) Obstacles() []Obstacle {
	out := make([]Obstacle, len(f.obstacles))
	copy(out, f.obstacles)
	return out
}

// Validate checks every obstacle shape.
func (f *FieldMap) Validate() error {
	for _, o := range f.obstacles {
		if err := Validate(o.Shape); err != nil {
			return err
		}
	}
	return nil
}

// Build creates one static body per obstacle. Call inside World.Do.
func (f *FieldMap) Build(world *box2d.B2World) ([]*box2d.B2Body, error) {
	bodies := make([]*box2d.B2Body, 0, len(f.obstacles))
	for i := range f.obstacles {
		o := &f.obstacles[i]
		body := NewStaticBody(world, o.Position[0], o.Position[1], o.Angle, o)
		if _, err := AttachFixture(body, o.Shape, ObstacleMaterial, 0, o); err != nil {
			return nil, err
		}
		bodies = append(bodies, body)
	}
	return bodies, nil
}
