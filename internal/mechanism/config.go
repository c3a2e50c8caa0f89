package mechanism

import (
	"fmt"

	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/motor"
)

const DefaultRotorInertia = 0.01

// Config is the fixed description of a mechanism.
type Config struct {
	Motor   motor.DCMotor
	Gearing motor.GearRatio

	// RotorInertia is referenced to the mechanism side, kg·m².
	RotorInertia float64
	Friction     Friction
	Dynamics     Dynamics
	Limits       HardLimits

	// Noise is the standard deviation of multiplicative acceleration noise.
	Noise float64
}

// DefaultConfig is a frictionless, unloaded, unbounded direct drive.
func DefaultConfig(m motor.DCMotor) Config {
	return Config{
		Motor:        m,
		Gearing:      motor.Reduction(1),
		RotorInertia: DefaultRotorInertia,
		Dynamics:     NoDynamics(),
		Limits:       Unbounded(),
	}
}

func (c Config) Validate() error {
	switch {
	case c.Motor.R <= 0 || c.Motor.Kv <= 0 || c.Motor.Kt <= 0:
		return fmt.Errorf("motor curve not initialised: %w", dynamo.ErrInvalidConfig)
	case c.Gearing <= 0:
		return fmt.Errorf("gearing %v must be positive: %w", c.Gearing, dynamo.ErrInvalidConfig)
	case c.RotorInertia <= 0:
		return fmt.Errorf("rotor inertia %v must be positive: %w", c.RotorInertia, dynamo.ErrInvalidConfig)
	case c.Limits.Min > c.Limits.Max:
		return fmt.Errorf("hard limits [%v, %v] inverted: %w", c.Limits.Min, c.Limits.Max, dynamo.ErrInvalidConfig)
	case c.Noise < 0:
		return fmt.Errorf("noise %v must not be negative: %w", c.Noise, dynamo.ErrInvalidConfig)
	}
	return nil
}
