package config

import (
	"github.com/san-kum/fieldsim/internal/control"
	"github.com/san-kum/fieldsim/internal/drivetrain"
	"github.com/san-kum/fieldsim/internal/mechanism"
)

// Module control laws selectable with robot.control.
const (
	ControlMCX = "mcx"
	ControlLQR = "lqr"
)

const (
	driveKp = 0.05
	steerKp = 6.0
	steerKd = 0.1
)

// Controllers gives every module a velocity-controlled drive and a
// position-controlled steer, both starting in neutral.
func (c *Config) Controllers(sc drivetrain.SwerveConfig) drivetrain.ControllerFactory {
	limit := c.Robot.CurrentLimit
	if c.Robot.Control == ControlLQR {
		return func(int) (mechanism.Controller, mechanism.Controller) {
			return DriveLQR(sc.Module.Drive), SteerLQR(sc.Module.Steer)
		}
	}
	return func(int) (mechanism.Controller, mechanism.Controller) {
		return DriveMCX(sc.Module.Drive, limit), SteerMCX(sc.Module.Steer, limit)
	}
}

func DriveMCX(cfg mechanism.Config, currentLimit float64) *control.MCX {
	mc := control.DefaultMCXConfig(cfg.Motor)
	mc.SensorToMechanismRatio = cfg.Gearing.Value()
	mc.VelocityGains = control.Gains{Kp: driveKp}
	mc.Feedforward = control.Feedforward{
		KS: driveFriction,
		KV: cfg.Gearing.Value() / cfg.Motor.Kv,
	}
	mc.StatorCurrentLimit = currentLimit
	mc.Brake = true
	return control.NewMCX(mc)
}

func SteerMCX(cfg mechanism.Config, currentLimit float64) *control.MCX {
	mc := control.DefaultMCXConfig(cfg.Motor)
	mc.SensorToMechanismRatio = cfg.Gearing.Value()
	mc.PositionGains = control.Gains{Kp: steerKp, Kd: steerKd}
	mc.StatorCurrentLimit = currentLimit
	return control.NewMCX(mc)
}

// DriveLQR uses velocity feedback only, so it has no current limiting.
func DriveLQR(cfg mechanism.Config) *control.LQR {
	l := control.NewLQR([2]float64{0, driveKp}, cfg.Gearing.Value())
	l.Feedforward = control.Feedforward{
		KS: driveFriction,
		KV: cfg.Gearing.Value() / cfg.Motor.Kv,
	}
	l.SetBrake(true)
	return l
}

func SteerLQR(cfg mechanism.Config) *control.LQR {
	return control.NewLQR([2]float64{steerKp, steerKd}, cfg.Gearing.Value())
}
