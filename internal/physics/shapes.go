package physics

import (
	"fmt"
	"math"

	"github.com/ByteArena/box2d"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/fieldsim/internal/dynamo"
)

// Shape is a convex collision shape in its body's local frame.
type Shape interface {
	Area() float64
	toB2() (box2d.B2ShapeInterface, error)
}

type Circle struct {
	Radius float64
	Center mgl64.Vec2
}

func (c Circle) Area() float64 {
	return math.Pi * c.Radius * c.Radius
}

func (c Circle) toB2() (box2d.B2ShapeInterface, error) {
	if c.Radius <= 0 {
		return nil, fmt.Errorf("circle radius %v: %w", c.Radius, dynamo.ErrUnsupportedShape)
	}
	s := box2d.MakeB2CircleShape()
	s.M_radius = c.Radius
	s.M_p.Set(c.Center[0], c.Center[1])
	return &s, nil
}

// Rectangle is an XWidth by YWidth box centred on Center and rotated by Angle.
type Rectangle struct {
	XWidth float64
	YWidth float64
	Center mgl64.Vec2
	Angle  float64
}

func (r Rectangle) Area() float64 {
	return r.XWidth * r.YWidth
}

func (r Rectangle) toB2() (box2d.B2ShapeInterface, error) {
	if r.XWidth <= 0 || r.YWidth <= 0 {
		return nil, fmt.Errorf("rectangle %vx%v: %w", r.XWidth, r.YWidth, dynamo.ErrUnsupportedShape)
	}
	s := box2d.MakeB2PolygonShape()
	s.SetAsBoxFromCenterAndAngle(r.XWidth/2, r.YWidth/2, Vec(r.Center), r.Angle)
	return &s, nil
}

// Polygon is a convex polygon with counter-clockwise vertices.
type Polygon struct {
	Vertices []mgl64.Vec2
}

func (p Polygon) Area() float64 {
	var area float64
	n := len(p.Vertices)
	for i := 0; i < n; i++ {
		a, b := p.Vertices[i], p.Vertices[(i+1)%n]
		area += a[0]*b[1] - b[0]*a[1]
	}
	return math.Abs(area) / 2
}

func (p Polygon) toB2() (box2d.B2ShapeInterface, error) {
	n := len(p.Vertices)
	if n < 3 || n > box2d.B2_maxPolygonVertices {
		return nil, fmt.Errorf("polygon with %d vertices: %w", n, dynamo.ErrUnsupportedShape)
	}
	if p.Area() < dynamo.Epsilon {
		return nil, fmt.Errorf("degenerate polygon: %w", dynamo.ErrUnsupportedShape)
	}
	verts := make([]box2d.B2Vec2, n)
	for i, v := range p.Vertices {
		verts[i] = Vec(v)
	}
	s := box2d.MakeB2PolygonShape()
	s.Set(verts, n)
	return &s, nil
}

// Segment is a two-sided line, used for field borders.
type Segment struct {
	A mgl64.Vec2
	B mgl64.Vec2
}

func (Segment) Area() float64 { return 0 }

func (s Segment) toB2() (box2d.B2ShapeInterface, error) {
	if s.A.Sub(s.B).Len() < dynamo.Epsilon {
		return nil, fmt.Errorf("zero-length segment: %w", dynamo.ErrUnsupportedShape)
	}
	e := box2d.MakeB2EdgeShape()
	e.Set(Vec(s.A), Vec(s.B))
	return &e, nil
}

// Validate reports whether the shape can be built.
func Validate(s Shape) error {
	if s == nil {
		return fmt.Errorf("nil shape: %w", dynamo.ErrUnsupportedShape)
	}
	_, err := s.toB2()
	return err
}
