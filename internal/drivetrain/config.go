package drivetrain

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/gyro"
	"github.com/san-kum/fieldsim/internal/mechanism"
)

const Gravity = 9.8

// Wheel grip presets (coefficient of friction).
var WheelGrips = map[string]float64{
	"colsons":         0.9,
	"black_nitrile":   1.542,
	"vex_griplock_v2": 1.916,
}

// Config is implemented by every drivetrain configuration New can build.
type Config interface {
	ChassisConfig() ChassisConfig
}

// ChassisConfig describes the rigid body shared by all drivetrains.
type ChassisConfig struct {
	Mass         float64
	MOI          float64
	BumperLength float64
	BumperWidth  float64
}

func (c ChassisConfig) Validate() error {
	if c.Mass <= 0 || c.MOI <= 0 {
		return fmt.Errorf("chassis mass %v and moi %v must be positive: %w", c.Mass, c.MOI, dynamo.ErrInvalidConfig)
	}
	if c.BumperLength <= 0 || c.BumperWidth <= 0 {
		return fmt.Errorf("bumper %vx%v must be positive: %w", c.BumperLength, c.BumperWidth, dynamo.ErrInvalidConfig)
	}
	return nil
}

// ModuleConfig describes one swerve module; all modules of a drivetrain share it.
type ModuleConfig struct {
	Drive       mechanism.Config
	Steer       mechanism.Config
	WheelRadius float64
	WheelCOF    float64
}

func (c ModuleConfig) Validate() error {
	if c.WheelRadius <= dynamo.Epsilon {
		return fmt.Errorf("wheel radius %v must be positive: %w", c.WheelRadius, dynamo.ErrInvalidConfig)
	}
	if c.WheelCOF <= 0 {
		return fmt.Errorf("wheel cof %v must be positive: %w", c.WheelCOF, dynamo.ErrInvalidConfig)
	}
	if err := c.Drive.Validate(); err != nil {
		return fmt.Errorf("drive: %w", err)
	}
	if err := c.Steer.Validate(); err != nil {
		return fmt.Errorf("steer: %w", err)
	}
	return nil
}

type SwerveConfig struct {
	Chassis ChassisConfig
	Module  ModuleConfig
	// ModuleTranslations are module positions in the robot frame, +X forward.
	ModuleTranslations []mgl64.Vec2
	Gyro               gyro.Config
}

func (c SwerveConfig) ChassisConfig() ChassisConfig {
	return c.Chassis
}

// SquareModules places four modules at (±x/2, ±y/2) in front-left,
// front-right, back-left, back-right order.
func SquareModules(trackLengthX, trackWidthY float64) []mgl64.Vec2 {
	x, y := trackLengthX/2, trackWidthY/2
	return []mgl64.Vec2{{x, y}, {x, -y}, {-x, y}, {-x, -y}}
}

func (c SwerveConfig) Validate() error {
	if err := c.Chassis.Validate(); err != nil {
		return err
	}
	if err := c.Module.Validate(); err != nil {
		return err
	}
	if len(c.ModuleTranslations) < 2 {
		return fmt.Errorf("swerve needs at least 2 modules, got %d: %w", len(c.ModuleTranslations), dynamo.ErrUnsupportedDrivetrain)
	}
	return nil
}
