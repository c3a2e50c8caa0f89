package config

import (
	"fmt"
	"sort"

	"github.com/san-kum/fieldsim/internal/drivetrain"
	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/gyro"
	"github.com/san-kum/fieldsim/internal/mechanism"
	"github.com/san-kum/fieldsim/internal/motor"
)

const (
	wheelRadius   = 0.0508
	driveInertia  = 0.025
	steerInertia  = 0.004
	driveFriction = 0.2
	steerFriction = 0.2
)

// ModulePreset is the gearing of a commercial swerve module.
type ModulePreset struct {
	DriveGearing float64
	SteerGearing float64
	WheelRadius  float64
}

var Modules = map[string]ModulePreset{
	"mk4_l1":  {DriveGearing: 8.14, SteerGearing: 12.8, WheelRadius: wheelRadius},
	"mk4_l2":  {DriveGearing: 6.75, SteerGearing: 12.8, WheelRadius: wheelRadius},
	"mk4_l3":  {DriveGearing: 6.12, SteerGearing: 12.8, WheelRadius: wheelRadius},
	"mk4_l4":  {DriveGearing: 5.14, SteerGearing: 12.8, WheelRadius: wheelRadius},
	"mk4i_l1": {DriveGearing: 8.14, SteerGearing: 150.0 / 7, WheelRadius: wheelRadius},
	"mk4i_l2": {DriveGearing: 6.75, SteerGearing: 150.0 / 7, WheelRadius: wheelRadius},
	"mk4i_l3": {DriveGearing: 6.12, SteerGearing: 150.0 / 7, WheelRadius: wheelRadius},
}

func Module(name string) (ModulePreset, error) {
	m, ok := Modules[name]
	if !ok {
		return ModulePreset{}, fmt.Errorf("swerve module %q: %w", name, dynamo.ErrUnknownPreset)
	}
	return m, nil
}

func Motor(name string) (motor.DCMotor, error) {
	fn, ok := motor.Presets[name]
	if !ok {
		return motor.DCMotor{}, fmt.Errorf("motor %q: %w", name, dynamo.ErrUnknownPreset)
	}
	return fn(1), nil
}

func Gyro(name string) (gyro.Config, error) {
	fn, ok := gyro.Presets[name]
	if !ok {
		return gyro.Config{}, fmt.Errorf("gyro %q: %w", name, dynamo.ErrUnknownPreset)
	}
	return fn(), nil
}

func Grip(name string) (float64, error) {
	cof, ok := drivetrain.WheelGrips[name]
	if !ok {
		return 0, fmt.Errorf("wheel grip %q: %w", name, dynamo.ErrUnknownPreset)
	}
	return cof, nil
}

// Build fills in the module's mechanisms with the named motors and tread.
func (p ModulePreset) Build(driveMotor, steerMotor, grip string) (drivetrain.ModuleConfig, error) {
	dm, err := Motor(driveMotor)
	if err != nil {
		return drivetrain.ModuleConfig{}, fmt.Errorf("drive: %w", err)
	}
	sm, err := Motor(steerMotor)
	if err != nil {
		return drivetrain.ModuleConfig{}, fmt.Errorf("steer: %w", err)
	}
	cof, err := Grip(grip)
	if err != nil {
		return drivetrain.ModuleConfig{}, err
	}

	drive := mechanism.DefaultConfig(dm)
	drive.Gearing = motor.Reduction(p.DriveGearing)
	drive.RotorInertia = driveInertia
	drive.Friction = mechanism.FrictionFromVoltage(dm, driveFriction, driveFriction)

	steer := mechanism.DefaultConfig(sm)
	steer.Gearing = motor.Reduction(p.SteerGearing)
	steer.RotorInertia = steerInertia
	steer.Friction = mechanism.FrictionFromVoltage(sm, steerFriction, steerFriction)

	return drivetrain.ModuleConfig{
		Drive:       drive,
		Steer:       steer,
		WheelRadius: p.WheelRadius,
		WheelCOF:    cof,
	}, nil
}

// Presets holds robot presets per season.
var Presets = map[string]map[string]*Config{
	"crescendo": {
		"heavy": withRobot(func(r *RobotConfig) {
			r.Mass, r.MOI = 68, 7.5
			r.Module = "mk4i_l1"
			r.Supply = "battery"
		}),
		"fast": withRobot(func(r *RobotConfig) {
			r.Module = "mk4_l4"
			r.DriveMotor = "kraken_x60_foc"
			r.Grip = "vex_griplock_v2"
		}),
		"navx": withRobot(func(r *RobotConfig) {
			r.Module = "mk4_l2"
			r.DriveMotor, r.SteerMotor = "neo", "neo550"
			r.Gyro = "navx2"
			r.Grip = "colsons"
		}),
		"default": DefaultConfig(),
	},
	"empty": {
		"teleop": withSeason("empty", func(c *Config) {
			c.Teleop = true
			c.Robot.Start = PoseConfig{X: 1, Y: 1}
		}),
		"default": withSeason("empty", nil),
	},
}

func withRobot(fn func(r *RobotConfig)) *Config {
	c := DefaultConfig()
	fn(&c.Robot)
	return c
}

func withSeason(season string, fn func(c *Config)) *Config {
	c := DefaultConfig()
	c.Season = season
	c.Robot.Intake.Enabled = false
	if fn != nil {
		fn(c)
	}
	return c
}

// GetPreset returns a copy of the named robot preset.
func GetPreset(season, preset string) (*Config, error) {
	seasonPresets, ok := Presets[season]
	if !ok {
		return nil, fmt.Errorf("season %q: %w", season, dynamo.ErrUnknownSeason)
	}
	cfg, ok := seasonPresets[preset]
	if !ok {
		return nil, fmt.Errorf("robot preset %q for %s: %w", preset, season, dynamo.ErrUnknownPreset)
	}
	c := *cfg
	c.Robot.Intake.Variants = append([]string(nil), cfg.Robot.Intake.Variants...)
	return &c, nil
}

func ListPresets(season string) []string {
	seasonPresets, ok := Presets[season]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(seasonPresets))
	for name := range seasonPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Kinds are the component preset tables ListComponentPresets understands.
var Kinds = []string{"gyros", "grips", "modules", "motors", "robots"}

func ListComponentPresets(kind string) ([]string, error) {
	var names []string
	switch kind {
	case "motors":
		names = keys(motor.Presets)
	case "modules":
		names = keys(Modules)
	case "gyros":
		names = keys(gyro.Presets)
	case "grips":
		names = keys(drivetrain.WheelGrips)
	case "robots":
		for season, presets := range Presets {
			for name := range presets {
				names = append(names, season+"/"+name)
			}
		}
		sort.Strings(names)
	default:
		return nil, fmt.Errorf("preset kind %q: %w", kind, dynamo.ErrUnknownPreset)
	}
	return names, nil
}

func keys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
