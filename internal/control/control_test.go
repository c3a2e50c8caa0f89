package control

import (
	"math"
	"testing"

	"github.com/san-kum/fieldsim/internal/mechanism"
	"github.com/san-kum/fieldsim/internal/motor"
)

func TestPIDProportional(t *testing.T) {
	p := NewPID(2, 0, 0)
	if got := p.Calculate(1, 3, 0.02); got != 4 {
		t.Errorf("expected 4, got %f", got)
	}
}

func TestPIDIntegralRange(t *testing.T) {
	p := NewPID(0, 1, 0)
	p.IntegralRange = 0.5
	for i := 0; i < 100; i++ {
		p.Calculate(0, 10, 0.1)
	}
	if got := p.Calculate(0, 10, 0.1); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("expected integral output bounded at 0.5, got %f", got)
	}
}

func TestPIDSetParam(t *testing.T) {
	p := NewPID(1, 0, 0)
	p.SetParam("Kd", 0.3)
	if p.GetParams()["Kd"] != 0.3 {
		t.Error("expected Kd to be updated")
	}
}

func TestTrapezoidRespectsConstraints(t *testing.T) {
	prof := Trapezoid{MaxVelocity: 1, MaxAcceleration: 2}

	tests := []struct {
		start, goal float64
	}{
		{0, 1},
		{2, -1},
		{0, 0.05},
	}
	for _, tt := range tests {
		s := ProfileState{Position: tt.start}
		reached := false
		for i := 0; i < 1000; i++ {
			s = prof.Next(s, tt.goal, 0.01)
			if math.Abs(s.Velocity) > prof.MaxVelocity+1e-12 {
				t.Fatalf("%v: velocity %f exceeds limit", tt, s.Velocity)
			}
			if s.Position == tt.goal && s.Velocity == 0 {
				reached = true
				break
			}
		}
		if !reached {
			t.Errorf("%v: profile never settled at goal, ended at %+v", tt, s)
		}
	}
}

func TestOpenLoop(t *testing.T) {
	c := NewOpenLoop(3)
	if got := c.Run(0.02, 12, mechanism.State{}); got != 3 {
		t.Errorf("expected 3, got %f", got)
	}
	c.SetVoltage(-4)
	c.SetBrake(true)
	if c.Run(0.02, 12, mechanism.State{}) != -4 || !c.BrakeEnabled() {
		t.Error("expected updated voltage and brake")
	}
}

func TestMCXCurrentLimit(t *testing.T) {
	cfg := DefaultMCXConfig(motor.NEO(1))
	cfg.StatorCurrentLimit = 40
	c := NewMCX(cfg)
	c.SetVoltage(12)

	got := c.Run(0.02, 12, mechanism.State{})
	if want := 40 * cfg.Motor.R; math.Abs(got-want) > 1e-9 {
		t.Errorf("expected %f, got %f", want, got)
	}
	if current := cfg.Motor.Current(0, got); math.Abs(current-40) > 1e-9 {
		t.Errorf("expected 40 A, got %f", current)
	}
}

func TestMCXSoftLimits(t *testing.T) {
	cfg := DefaultMCXConfig(motor.NEO(1))
	cfg.ForwardSoftLimit = 1
	cfg.StatorCurrentLimit = 1000
	c := NewMCX(cfg)

	past := mechanism.State{Position: 1.5}
	c.SetVoltage(6)
	if got := c.Run(0.02, 12, past); got != 0 {
		t.Errorf("expected forward output blocked, got %f", got)
	}
	c.SetVoltage(-6)
	if got := c.Run(0.02, 12, past); got != -6 {
		t.Errorf("expected reverse output allowed, got %f", got)
	}
}

func TestMCXVelocityClosedLoop(t *testing.T) {
	m := motor.NEO(1)
	cfg := DefaultMCXConfig(m)
	cfg.VelocityGains = Gains{Kp: 0.05}
	cfg.Feedforward = Feedforward{KV: 1 / m.Kv}
	c := NewMCX(cfg)
	c.SetVelocity(200)

	mech, err := mechanism.New("flywheel", mechanism.DefaultConfig(m), c)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2000; i++ {
		mech.Update(12, 0.005)
	}

	if got := mech.Outputs().Velocity; math.Abs(got-200) > 4 {
		t.Errorf("expected velocity near 200, got %f", got)
	}
	if c.Mode() != ModeVelocity {
		t.Errorf("expected velocity mode, got %s", c.Mode())
	}
}

func TestMCXPositionWithProfile(t *testing.T) {
	m := motor.Falcon500(1)
	cfg := DefaultMCXConfig(m)
	cfg.SensorToMechanismRatio = 10
	cfg.PositionGains = Gains{Kp: 20, Kd: 0.5}
	cfg.Profile = Trapezoid{MaxVelocity: 3, MaxAcceleration: 10}
	c := NewMCX(cfg)
	c.SetPosition(2)

	mc := mechanism.DefaultConfig(m)
	mc.Gearing = motor.Reduction(10)
	mc.RotorInertia = 0.05
	mech, err := mechanism.New("arm", mc, c)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 1000; i++ {
		mech.Update(12, 0.005)
	}

	if got := mech.Outputs().Position; math.Abs(got-2) > 0.05 {
		t.Errorf("expected position near 2, got %f", got)
	}
}

func TestLQRStateFeedback(t *testing.T) {
	l := NewLQR([2]float64{2, 0.5}, 1)
	if got := l.Run(0.02, 12, mechanism.State{Position: 1}); got != 0 {
		t.Errorf("expected neutral output before a target is set, got %f", got)
	}

	l.SetPosition(1)
	if got := l.Run(0.02, 12, mechanism.State{Velocity: 2}); math.Abs(got-1) > 1e-12 {
		t.Errorf("position: expected 2*1 - 0.5*2 = 1, got %f", got)
	}

	l.Feedforward = Feedforward{KV: 0.1}
	l.SetVelocity(4)
	if got := l.Run(0.02, 12, mechanism.State{Position: 100, Velocity: 2}); math.Abs(got-1.4) > 1e-12 {
		t.Errorf("velocity: expected 0.5*2 + 0.1*4 = 1.4, got %f", got)
	}
	if l.Mode() != ModeVelocity {
		t.Errorf("expected velocity mode, got %v", l.Mode())
	}
}

func TestLQRScalesAndClamps(t *testing.T) {
	l := NewLQR([2]float64{100, 0}, 10)
	l.SetPosition(1)
	if got := l.Run(0.02, 12, mechanism.State{}); got != 12 {
		t.Errorf("expected output clamped to 12 V, got %f", got)
	}
	// 10 rotor radians are one mechanism radian.
	if got := l.Run(0.02, 12, mechanism.State{Position: 10}); got != 0 {
		t.Errorf("expected zero output on target, got %f", got)
	}
}

func TestLQRRegulatesMechanism(t *testing.T) {
	m := motor.Falcon500(1)
	l := NewLQR([2]float64{20, 0.5}, 10)
	l.SetPosition(1)

	mc := mechanism.DefaultConfig(m)
	mc.Gearing = motor.Reduction(10)
	mc.RotorInertia = 0.05
	mech, err := mechanism.New("arm", mc, l)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 1000; i++ {
		mech.Update(12, 0.005)
	}

	if got := mech.Outputs().Position; math.Abs(got-1) > 0.05 {
		t.Errorf("expected position near 1, got %f", got)
	}
}
