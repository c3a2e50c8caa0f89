package export

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/fieldsim/internal/geom"
	"github.com/san-kum/fieldsim/internal/physics"
	"github.com/san-kum/fieldsim/internal/sim"
)

const (
	padding     = 0.25
	obstacleCol = "#8a8a8a"
	pathCol     = "#00c8ff"
)

type bounds struct {
	minX, minY, maxX, maxY float64
}

func emptyBounds() bounds {
	return bounds{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
}

func (b *bounds) add(p mgl64.Vec2) {
	b.minX = math.Min(b.minX, p[0])
	b.minY = math.Min(b.minY, p[1])
	b.maxX = math.Max(b.maxX, p[0])
	b.maxY = math.Max(b.maxY, p[1])
}

// outline is an obstacle in field coordinates: a closed polygon, an open
// segment or a circle.
type outline struct {
	points []mgl64.Vec2
	closed bool
	center mgl64.Vec2
	radius float64
}

func toField(o physics.Obstacle, p mgl64.Vec2) mgl64.Vec2 {
	return o.Position.Add(geom.Rotate(p, o.Angle))
}

func outlineOf(o physics.Obstacle) (outline, bool) {
	switch s := o.Shape.(type) {
	case physics.Segment:
		return outline{points: []mgl64.Vec2{toField(o, s.A), toField(o, s.B)}}, true
	case physics.Rectangle:
		hx, hy := s.XWidth/2, s.YWidth/2
		corners := []mgl64.Vec2{{-hx, -hy}, {hx, -hy}, {hx, hy}, {-hx, hy}}
		pts := make([]mgl64.Vec2, len(corners))
		for i, c := range corners {
			pts[i] = toField(o, s.Center.Add(geom.Rotate(c, s.Angle)))
		}
		return outline{points: pts, closed: true}, true
	case physics.Polygon:
		pts := make([]mgl64.Vec2, len(s.Vertices))
		for i, v := range s.Vertices {
			pts[i] = toField(o, v)
		}
		return outline{points: pts, closed: true}, true
	case physics.Circle:
		return outline{center: o.Position, radius: s.Radius}, true
	}
	return outline{}, false
}

// FieldSVG draws the field's obstacles and the robot path traced by samples,
// scale pixels per meter. Field +Y points up in the image.
func FieldSVG(w io.Writer, field *physics.FieldMap, samples []sim.Sample, scale float64) error {
	if scale <= 0 {
		return fmt.Errorf("export: scale must be positive, got %v", scale)
	}

	var outlines []outline
	b := emptyBounds()
	if field != nil {
		for _, o := range field.Obstacles() {
			ol, ok := outlineOf(o)
			if !ok {
				continue
			}
			outlines = append(outlines, ol)
			for _, p := range ol.points {
				b.add(p)
			}
			if ol.radius > 0 {
				b.add(ol.center.Sub(mgl64.Vec2{ol.radius, ol.radius}))
				b.add(ol.center.Add(mgl64.Vec2{ol.radius, ol.radius}))
			}
		}
	}
	for _, s := range samples {
		b.add(s.Pose.Translation())
	}
	if math.IsInf(b.minX, 1) {
		b = bounds{0, 0, 1, 1}
	}
	b.minX -= padding
	b.minY -= padding
	b.maxX += padding
	b.maxY += padding

	width := (b.maxX - b.minX) * scale
	height := (b.maxY - b.minY) * scale
	px := func(p mgl64.Vec2) (float64, float64) {
		return (p[0] - b.minX) * scale, height - (p[1]-b.minY)*scale
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="none" stroke="%s" stroke-width="2">
`, width, height, width, height, obstacleCol)

	for _, ol := range outlines {
		switch {
		case ol.radius > 0:
			x, y := px(ol.center)
			fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", x, y, ol.radius*scale)
		case ol.closed:
			sb.WriteString(`<polygon points="`)
			for i, p := range ol.points {
				x, y := px(p)
				if i > 0 {
					sb.WriteByte(' ')
				}
				fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
			}
			sb.WriteString("\"/>\n")
		default:
			x1, y1 := px(ol.points[0])
			x2, y2 := px(ol.points[1])
			fmt.Fprintf(&sb, "<line x1=\"%.1f\" y1=\"%.1f\" x2=\"%.1f\" y2=\"%.1f\"/>\n", x1, y1, x2, y2)
		}
	}
	sb.WriteString("</g>\n")

	if len(samples) > 1 {
		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, pathCol)
		for i, s := range samples {
			x, y := px(s.Pose.Translation())
			if i == 0 {
				fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
			}
		}
		sb.WriteString("\"/>\n")
	}
	if len(samples) > 0 {
		x, y := px(samples[0].Pose.Translation())
		fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"4\" fill=\"#00ff00\"/>\n", x, y)
		x, y = px(samples[len(samples)-1].Pose.Translation())
		fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"4\" fill=\"#ff3030\"/>\n", x, y)
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}
