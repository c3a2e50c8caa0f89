package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/fieldsim/internal/geom"
	"github.com/san-kum/fieldsim/internal/sim"
)

func TestEnergy(t *testing.T) {
	m := NewEnergy(0.02)

	m.Observe(sim.Sample{SupplyVoltage: 12, SupplyCurrent: 10})
	m.Observe(sim.Sample{SupplyVoltage: 11, SupplyCurrent: 20})

	expected := 12*10*0.02 + 11*20*0.02
	if math.Abs(m.Value()-expected) > 1e-9 {
		t.Errorf("expected energy %f, got %f", expected, m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero energy after reset")
	}
}

func TestVoltageSag(t *testing.T) {
	m := NewVoltageSag()
	for _, v := range []float64{12, 10.5, 11.2} {
		m.Observe(sim.Sample{SupplyVoltage: v})
	}
	if math.Abs(m.Value()-1.5) > 1e-9 {
		t.Errorf("expected sag 1.5, got %f", m.Value())
	}
}

func TestControlEffort(t *testing.T) {
	m := NewControlEffort()
	if m.Value() != 0 {
		t.Error("expected zero effort with no samples")
	}

	m.Observe(sim.Sample{DriveVoltages: []float64{1, -1, 2, -2}})
	m.Observe(sim.Sample{DriveVoltages: []float64{0, 0, 0, 0}})
	if math.Abs(m.Value()-3) > 1e-9 {
		t.Errorf("expected mean effort 3, got %f", m.Value())
	}
}

func TestGyroDrift(t *testing.T) {
	m := NewGyroDrift()

	m.Observe(sim.Sample{Pose: geom.NewPose2d(0, 0, 0.1), GyroYaw: 0.1})
	if m.Value() != 0 {
		t.Errorf("expected no drift, got %f", m.Value())
	}

	m.Reset()
	m.Observe(sim.Sample{Pose: geom.NewPose2d(0, 0, math.Pi-0.05), GyroYaw: -math.Pi + 0.05})
	if math.Abs(m.Value()-0.1) > 1e-9 {
		t.Errorf("expected wrapped drift 0.1, got %f", m.Value())
	}
}

func TestStability(t *testing.T) {
	m := NewStability(5)
	if m.Value() != 1 {
		t.Error("expected full stability with no samples")
	}

	m.Observe(sim.Sample{Speeds: geom.ChassisSpeeds{Vx: 3, Vy: 3}})
	m.Observe(sim.Sample{Speeds: geom.ChassisSpeeds{Vx: 4, Vy: 4}})
	m.Observe(sim.Sample{Speeds: geom.ChassisSpeeds{Omega: -6}})
	m.Observe(sim.Sample{})

	if math.Abs(m.Value()-0.5) > 1e-9 {
		t.Errorf("expected stability 0.5, got %f", m.Value())
	}
}

func TestDefaults(t *testing.T) {
	seen := make(map[string]bool)
	for _, f := range Defaults(0.02) {
		a, b := f(), f()
		if a == b {
			t.Errorf("%s: factory returned a shared instance", a.Name())
		}
		if seen[a.Name()] {
			t.Errorf("duplicate metric %s", a.Name())
		}
		seen[a.Name()] = true
	}
	if len(seen) != 5 {
		t.Errorf("expected 5 metrics, got %d", len(seen))
	}
}
