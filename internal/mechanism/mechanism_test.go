package mechanism

import (
	"math"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/motor"
)

type constant struct {
	volts float64
	brake bool
}

func (c constant) Run(float64, float64, State) float64 { return c.volts }
func (c constant) BrakeEnabled() bool                  { return c.brake }

func newMechanism(t *testing.T, cfg Config, ctrl Controller, opts ...Option) *Mechanism {
	t.Helper()
	m, err := New("test", cfg, ctrl, opts...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return m
}

func TestAntiTorqueNeverReversesVelocity(t *testing.T) {
	cfg := DefaultConfig(motor.Falcon500(1))
	cfg.Friction = NewFriction(0.3, 0.2)
	cfg.Gearing = motor.Reduction(5)

	velocities := []float64{0.05, 0.5, 3, 40, 400, -0.05, -0.5, -3, -40, -400}
	for _, brake := range []bool{false, true} {
		for _, v0 := range velocities {
			m := newMechanism(t, cfg, constant{brake: brake})
			m.SetState(0, v0)
			m.Update(12, 0.02)

			v := m.Outputs().Velocity
			if v != 0 && math.Signbit(v) != math.Signbit(v0) {
				t.Errorf("brake=%v v0=%f: velocity reversed to %f", brake, v0, v)
			}
			if math.Abs(v) > math.Abs(v0) {
				t.Errorf("brake=%v v0=%f: anti-torque sped the mechanism up to %f", brake, v0, v)
			}
		}
	}
}

func TestAntiTorqueNeverReversesNoisyVelocity(t *testing.T) {
	cfg := DefaultConfig(motor.Falcon500(1))
	cfg.Friction = NewFriction(0.3, 0.2)
	cfg.Noise = 0.2
	const dt = 0.004

	// stopping speed of kinetic friction alone within one dt
	edge := cfg.Friction.Kinetic * cfg.Gearing.Value() / cfg.RotorInertia * dt
	velocities := []float64{edge * 1.01, edge * 1.2, edge * 2, 0.5, 40, -edge * 1.01, -edge * 1.2, -edge * 2}

	for _, v0 := range velocities {
		for seed := uint64(0); seed < 250; seed++ {
			m := newMechanism(t, cfg, constant{}, WithSeed(seed))
			m.SetState(0, v0)
			m.Update(12, dt)

			v := m.Outputs().Velocity
			if v != 0 && math.Signbit(v) != math.Signbit(v0) {
				t.Fatalf("seed=%d v0=%g: velocity reversed to %g", seed, v0, v)
			}
			if math.Abs(v) > math.Abs(v0) {
				t.Fatalf("seed=%d v0=%g: anti-torque sped the mechanism up to %g", seed, v0, v)
			}
		}
	}
}

func TestNonFiniteControllerVoltageIsLogged(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	m := newMechanism(t, DefaultConfig(motor.NEO(1)), constant{volts: math.NaN()}, WithLogger(zap.New(core)))

	m.Update(12, 0.02)

	if in := m.Inputs(); in.StatorVoltage != 0 {
		t.Errorf("expected zero stator voltage, got %f", in.StatorVoltage)
	}
	if n := logs.FilterMessage("controller returned a non-finite voltage").Len(); n != 1 {
		t.Errorf("expected 1 debug entry, got %d", n)
	}
}

func TestAntiTorqueStopsSlowMechanism(t *testing.T) {
	cfg := DefaultConfig(motor.NEO(1))
	cfg.Friction = NewFriction(0, 0.5)
	m := newMechanism(t, cfg, nil)
	m.SetState(0, 0.1)

	m.Update(12, 0.02)

	if got := m.Outputs().Velocity; got != 0 {
		t.Errorf("expected exactly zero velocity, got %g", got)
	}
}

func TestStaticFrictionHoldsAtRest(t *testing.T) {
	cfg := DefaultConfig(motor.Falcon500(1))
	cfg.Friction = FrictionFromVoltage(cfg.Motor, 0.5, 0.3)
	m := newMechanism(t, cfg, constant{volts: 0.2})

	for i := 0; i < 100; i++ {
		m.Update(12, 0.005)
	}
	if out := m.Outputs(); out.Velocity != 0 || out.Position != 0 {
		t.Errorf("expected mechanism to stay at rest, got %+v", out)
	}

	m2 := newMechanism(t, cfg, constant{volts: 2})
	m2.Update(12, 0.005)
	if m2.Outputs().Velocity <= 0 {
		t.Error("expected voltage above static friction to move the mechanism")
	}
}

func TestHardLimitsClampAndZero(t *testing.T) {
	cfg := DefaultConfig(motor.Falcon500(1))
	cfg.Limits = HardLimits{Min: -1, Max: 0.5}

	for _, volts := range []float64{12, -12} {
		m := newMechanism(t, cfg, constant{volts: volts})
		bound := cfg.Limits.Max
		if volts < 0 {
			bound = cfg.Limits.Min
		}

		hit := false
		for i := 0; i < 5000; i++ {
			m.Update(12, 0.002)
			out := m.Outputs()
			if out.Position < cfg.Limits.Min || out.Position > cfg.Limits.Max {
				t.Fatalf("step %d: position %f escaped limits", i, out.Position)
			}
			if out.Position == bound {
				hit = true
				if out.Velocity != 0 || out.Acceleration != 0 {
					t.Fatalf("step %d: expected zero velocity and acceleration at bound, got %+v", i, out)
				}
			}
		}
		if !hit {
			t.Errorf("volts %f: never reached bound %f", volts, bound)
		}
	}
}

func TestConvergesToFreeSpeed(t *testing.T) {
	cfg := DefaultConfig(motor.Falcon500(1))
	cfg.RotorInertia = 0.001
	m := newMechanism(t, cfg, constant{volts: 12})

	const dt = 0.001
	tau := cfg.Motor.TimeConstant(cfg.RotorInertia)
	steps := int(math.Ceil(10 * tau / dt))
	if steps < 3000 {
		steps = 3000
	}
	for i := 0; i < steps; i++ {
		m.Update(12, dt)
	}

	want := cfg.Motor.FreeSpeedAt(12)
	got := m.Outputs().Velocity
	if math.Abs(got-want)/want > 0.01 {
		t.Errorf("expected velocity within 1%% of %f, got %f", want, got)
	}
}

type disabled struct{}

func (disabled) Enabled() bool { return false }

func TestDisabledHostZeroesVoltage(t *testing.T) {
	m := newMechanism(t, DefaultConfig(motor.NEO(1)), constant{volts: 12}, WithEnabler(disabled{}))
	m.Update(12, 0.02)

	if in := m.Inputs(); in.StatorVoltage != 0 || in.Torque != 0 {
		t.Errorf("expected no drive while disabled, got %+v", in)
	}
	if m.Outputs().Velocity != 0 {
		t.Error("expected mechanism to stay still while disabled")
	}
}

func TestVoltageClampedToSupply(t *testing.T) {
	m := newMechanism(t, DefaultConfig(motor.NEO(1)), constant{volts: 40})
	m.Update(10, 0.02)
	if got := m.Inputs().StatorVoltage; got != 10 {
		t.Errorf("expected stator voltage clamped to 10, got %f", got)
	}
}

func TestMotorOutputsUseGearing(t *testing.T) {
	cfg := DefaultConfig(motor.NEO(1))
	cfg.Gearing = motor.Reduction(10)
	m := newMechanism(t, cfg, constant{volts: 6})
	m.Update(12, 0.02)

	out, rotor := m.Outputs(), m.MotorOutputs()
	if math.Abs(rotor.Velocity-10*out.Velocity) > 1e-12 {
		t.Errorf("expected rotor velocity %f, got %f", 10*out.Velocity, rotor.Velocity)
	}
	if math.Abs(m.MotorInputs().Torque*10-m.Inputs().Torque) > 1e-12 {
		t.Error("expected motor torque referred through the gearbox")
	}
}

func TestNoiseIsSeeded(t *testing.T) {
	cfg := DefaultConfig(motor.NEO(1))
	cfg.Noise = 0.1

	run := func(seed uint64) float64 {
		m := newMechanism(t, cfg, constant{volts: 6}, WithSeed(seed))
		for i := 0; i < 50; i++ {
			m.Update(12, 0.005)
		}
		return m.Outputs().Position
	}

	if run(7) != run(7) {
		t.Error("expected identical results for identical seeds")
	}
	if run(7) == run(8) {
		t.Error("expected different seeds to diverge")
	}
}

func TestInvalidConfig(t *testing.T) {
	cfg := DefaultConfig(motor.NEO(1))
	cfg.RotorInertia = 0
	if _, err := New("bad", cfg, nil); err == nil {
		t.Error("expected error for zero inertia")
	}

	cfg = DefaultConfig(motor.NEO(1))
	cfg.Limits = HardLimits{Min: 1, Max: -1}
	if _, err := New("bad", cfg, nil); err == nil {
		t.Error("expected error for inverted limits")
	}
}

func TestConcurrentReadersSeeSnapshots(t *testing.T) {
	m := newMechanism(t, DefaultConfig(motor.Falcon500(1)), constant{volts: 12})

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				out := m.Outputs()
				if !dynamo.Finite(out.Position, out.Velocity, out.Acceleration) {
					t.Error("read non-finite state")
					return
				}
				_ = m.MotorInputs()
			}
		}()
	}
	for i := 0; i < 2000; i++ {
		m.Update(12, 0.001)
	}
	close(stop)
	wg.Wait()
}
