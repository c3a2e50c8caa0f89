package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/fieldsim/internal/geom"
	"github.com/san-kum/fieldsim/internal/physics"
	"github.com/san-kum/fieldsim/internal/season"
	"github.com/san-kum/fieldsim/internal/sim"
)

func path(n int) []sim.Sample {
	samples := make([]sim.Sample, n)
	for i := range samples {
		samples[i] = sim.Sample{Period: i + 1, Pose: geom.NewPose2d(1+0.1*float64(i), 1, 0)}
	}
	return samples
}

func TestFieldSVG(t *testing.T) {
	field := physics.NewFieldMap().
		AddBorderLine(mgl64.Vec2{0, 0}, mgl64.Vec2{4, 0}).
		AddBorderLine(mgl64.Vec2{0, 0}, mgl64.Vec2{0, 3}).
		AddRectangle(0.5, 0.5, mgl64.Vec2{2, 2}, 0.3).
		AddObstacle(physics.Obstacle{Shape: physics.Circle{Radius: 0.2}, Position: mgl64.Vec2{3, 2}})

	var buf bytes.Buffer
	if err := FieldSVG(&buf, field, path(10), 50); err != nil {
		t.Fatalf("FieldSVG: %v", err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, "<?xml") || !strings.HasSuffix(out, "</svg>\n") {
		t.Errorf("not a complete svg document:\n%s", out)
	}
	if n := strings.Count(out, "<line "); n != 2 {
		t.Errorf("expected 2 border lines, got %d", n)
	}
	if n := strings.Count(out, "<polygon "); n != 1 {
		t.Errorf("expected 1 polygon, got %d", n)
	}
	// obstacle circle plus start and end markers
	if n := strings.Count(out, "<circle "); n != 3 {
		t.Errorf("expected 3 circles, got %d", n)
	}
	if n := strings.Count(out, " L"); n != 9 {
		t.Errorf("expected 9 path segments, got %d", n)
	}
}

func TestFieldSVG_FlipsY(t *testing.T) {
	samples := []sim.Sample{
		{Pose: geom.NewPose2d(0, 0, 0)},
		{Pose: geom.NewPose2d(0, 1, 0)},
	}
	var buf bytes.Buffer
	if err := FieldSVG(&buf, nil, samples, 100); err != nil {
		t.Fatalf("FieldSVG: %v", err)
	}
	// 1 m plus padding on both sides at 100 px/m: start at the bottom.
	if !strings.Contains(buf.String(), `d="M25.0,125.0 L25.0,25.0"`) {
		t.Errorf("unexpected path:\n%s", buf.String())
	}
}

func TestFieldSVG_Crescendo(t *testing.T) {
	var buf bytes.Buffer
	if err := FieldSVG(&buf, season.CrescendoField(), nil, 20); err != nil {
		t.Fatalf("FieldSVG: %v", err)
	}
	if n := strings.Count(buf.String(), "<polygon "); n != 6 {
		t.Errorf("expected 6 stage legs, got %d", n)
	}
	if strings.Contains(buf.String(), "<path") {
		t.Error("no samples should draw no path")
	}
}

func TestFieldSVG_BadScale(t *testing.T) {
	if err := FieldSVG(&bytes.Buffer{}, nil, nil, 0); err == nil {
		t.Error("expected error for zero scale")
	}
}
