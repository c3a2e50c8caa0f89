package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Rectangle2d is a possibly rotated rectangle on the field.
type Rectangle2d struct {
	Center  mgl64.Vec2
	Heading float64
	XWidth  float64
	YWidth  float64
}

// RectangleFromCorners builds an axis-aligned rectangle spanning two corners.
func RectangleFromCorners(a, b mgl64.Vec2) Rectangle2d {
	return Rectangle2d{
		Center: a.Add(b).Mul(0.5),
		XWidth: math.Abs(a[0] - b[0]),
		YWidth: math.Abs(a[1] - b[1]),
	}
}

// Contains reports whether p lies inside or on the edge of the rectangle.
func (r Rectangle2d) Contains(p mgl64.Vec2) bool {
	local := Rotate(p.Sub(r.Center), -r.Heading)
	const eps = 1e-9
	return math.Abs(local[0]) <= r.XWidth/2+eps && math.Abs(local[1]) <= r.YWidth/2+eps
}
