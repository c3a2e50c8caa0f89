package gyro

import (
	"math"
	"testing"
)

func TestIdealGyroReportsExactRate(t *testing.T) {
	g := New(Ideal())
	const omega = 1.0
	for i := 0; i < 500; i++ {
		if got := g.Update(omega, 0.004); got != omega {
			t.Fatalf("tick %d: expected %f, got %f", i, omega, got)
		}
	}
	if math.Abs(g.Yaw()-2) > 1e-9 {
		t.Errorf("expected yaw 2, got %f", g.Yaw())
	}
}

func TestMotionlessDrift(t *testing.T) {
	g := New(Config{DriftDegreesPer30s: 30})
	const dt = 0.02
	for i := 0; i < 1500; i++ {
		g.Update(0, dt)
	}
	want := 30 * math.Pi / 180
	if math.Abs(g.Yaw()-want) > 1e-9 {
		t.Errorf("expected %f rad of drift after 30 s, got %f", want, g.Yaw())
	}
}

func TestImpactDrift(t *testing.T) {
	tests := []struct {
		name  string
		rate  float64
		dt    float64
		drift float64
	}{
		{"below threshold", 1.5, 0.004, 0},
		{"twice threshold", 4, 0.004, 2 / 0.004},
		{"negative", -4, 0.004, -2 / 0.004},
	}
	for _, tt := range tests {
		g := New(Ideal())
		got := g.Update(tt.rate, tt.dt)
		if math.Abs(got-(tt.rate+tt.drift)) > 1e-9 {
			t.Errorf("%s: expected %f, got %f", tt.name, tt.rate+tt.drift, got)
		}
	}
}

func TestNoiseScalesWithRate(t *testing.T) {
	g := New(Config{VelocityStdDev: 0.05}, WithSeed(3))
	if got := g.Update(0, 0.004); got != 0 {
		t.Errorf("expected no noise at rest, got %f", got)
	}

	g.Reset(0, 1)
	var diffs float64
	for i := 0; i < 200; i++ {
		diffs += math.Abs(g.Update(1, 0.004) - 1)
	}
	if diffs == 0 {
		t.Error("expected noisy measurements")
	}
}

func TestUpdateHook(t *testing.T) {
	var calls int
	g := New(Ideal(), WithUpdateHook(func(rate, yaw float64) { calls++ }))
	g.Update(0.5, 0.01)
	g.Update(0.5, 0.01)
	if calls != 2 {
		t.Errorf("expected 2 hook calls, got %d", calls)
	}
}

func TestImpactDoesNotCompound(t *testing.T) {
	g := New(Ideal())
	const dt = 0.004

	first := g.Update(3, dt)
	if want := 3 + 1.5/dt; math.Abs(first-want) > 1e-9 {
		t.Errorf("expected one impact of 1.5 multiples, got %f", first)
	}
	yawAfterImpact := g.Yaw()

	for i := 1; i < 500; i++ {
		got := g.Update(3, dt)
		if math.IsNaN(got) || math.IsInf(got, 0) {
			t.Fatalf("tick %d: non-finite rate %v", i, got)
		}
		if got != 3 {
			t.Fatalf("tick %d: expected steady 3 rad/s after the step, got %f", i, got)
		}
	}
	if want := yawAfterImpact + 499*3*dt; math.Abs(g.Yaw()-want) > 1e-9 {
		t.Errorf("expected yaw %f, got %f", want, g.Yaw())
	}
}

func TestImpactIsBounded(t *testing.T) {
	g := New(Ideal())
	const dt = 0.004
	got := g.Update(1e6, dt)
	if want := 1e6 + maxImpactMultiples*impactDrift/dt; math.Abs(got-want) > 1e-6 {
		t.Errorf("expected capped impact %f, got %f", want, got)
	}
}
