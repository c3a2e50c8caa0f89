package config

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/fieldsim/internal/arena"
	"github.com/san-kum/fieldsim/internal/drivetrain"
	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/geom"
)

const (
	DefaultPeriod   = 0.02
	DefaultTicks    = 5
	DefaultDuration = 15.0
	DefaultSeason   = "crescendo"

	DefaultMass      = 60.0
	DefaultMOI       = 6.0
	DefaultBumper    = 0.9
	DefaultTrack     = 0.6
	DefaultCapacity  = 1
	DefaultIntakeLen = 0.2
)

type Config struct {
	Season   string      `yaml:"season"`
	Period   float64     `yaml:"period"`
	Ticks    int         `yaml:"ticks_per_period"`
	Duration float64     `yaml:"duration"`
	Seed     uint64      `yaml:"seed"`
	Alliance string      `yaml:"alliance"`
	Teleop   bool        `yaml:"teleop"`
	Robot    RobotConfig `yaml:"robot"`
}

type RobotConfig struct {
	Mass         float64 `yaml:"mass"`
	MOI          float64 `yaml:"moi"`
	BumperLength float64 `yaml:"bumper_length"`
	BumperWidth  float64 `yaml:"bumper_width"`
	TrackLength  float64 `yaml:"track_length"`
	TrackWidth   float64 `yaml:"track_width"`

	Module       string  `yaml:"module"`
	DriveMotor   string  `yaml:"drive_motor"`
	SteerMotor   string  `yaml:"steer_motor"`
	Grip         string  `yaml:"grip"`
	CurrentLimit float64 `yaml:"current_limit"`
	Gyro         string  `yaml:"gyro"`
	Control      string  `yaml:"control"`

	Supply          string       `yaml:"supply"`
	IndexerCapacity int          `yaml:"indexer_capacity"`
	Intake          IntakeConfig `yaml:"intake"`
	Start           PoseConfig   `yaml:"start"`
}

// IntakeConfig is a box on the front bumper.
type IntakeConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Length   float64  `yaml:"length"`
	Width    float64  `yaml:"width"`
	Variants []string `yaml:"variants"`
}

type PoseConfig struct {
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
	Heading float64 `yaml:"heading"`
}

func (p PoseConfig) Pose() geom.Pose2d {
	return geom.NewPose2d(p.X, p.Y, p.Heading)
}

func DefaultRobot() RobotConfig {
	return RobotConfig{
		Mass:            DefaultMass,
		MOI:             DefaultMOI,
		BumperLength:    DefaultBumper,
		BumperWidth:     DefaultBumper,
		TrackLength:     DefaultTrack,
		TrackWidth:      DefaultTrack,
		Module:          "mk4i_l2",
		DriveMotor:      "kraken_x60",
		SteerMotor:      "falcon500",
		Grip:            "black_nitrile",
		CurrentLimit:    60,
		Gyro:            "pigeon2",
		Control:         ControlMCX,
		Supply:          "nominal",
		IndexerCapacity: DefaultCapacity,
		Intake: IntakeConfig{
			Enabled:  true,
			Length:   DefaultIntakeLen,
			Width:    0.6,
			Variants: []string{"note"},
		},
		Start: PoseConfig{X: 2, Y: 5.5},
	}
}

func DefaultConfig() *Config {
	return &Config{
		Season:   DefaultSeason,
		Period:   DefaultPeriod,
		Ticks:    DefaultTicks,
		Duration: DefaultDuration,
		Alliance: "blue",
		Robot:    DefaultRobot(),
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks every preset name and builds the component configs once.
func (c *Config) Validate() error {
	if _, err := c.Timing(); err != nil {
		return err
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration %v must be positive: %w", c.Duration, dynamo.ErrInvalidConfig)
	}
	if _, err := c.AllianceColor(); err != nil {
		return err
	}
	if _, err := c.SupplyMode(); err != nil {
		return err
	}
	switch c.Robot.Control {
	case "", ControlMCX, ControlLQR:
	default:
		return fmt.Errorf("control %q: %w", c.Robot.Control, dynamo.ErrInvalidConfig)
	}
	if c.Robot.IndexerCapacity < 0 {
		return fmt.Errorf("indexer capacity %d: %w", c.Robot.IndexerCapacity, dynamo.ErrInvalidConfig)
	}
	sc, err := c.Swerve()
	if err != nil {
		return err
	}
	return sc.Validate()
}

func (c *Config) Timing() (dynamo.Timing, error) {
	return dynamo.NewTiming(c.Period, c.Ticks)
}

// Periods is the number of whole periods covering Duration.
func (c *Config) Periods() int {
	if c.Period <= 0 {
		return 0
	}
	return int(c.Duration/c.Period + 0.5)
}

func (c *Config) AllianceColor() (dynamo.Alliance, error) {
	switch c.Alliance {
	case "", "blue":
		return dynamo.Blue, nil
	case "red":
		return dynamo.Red, nil
	}
	return 0, fmt.Errorf("alliance %q: %w", c.Alliance, dynamo.ErrInvalidConfig)
}

func (c *Config) SupplyMode() (arena.SupplyMode, error) {
	m, err := arena.ParseSupplyMode(c.Robot.Supply)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", err, dynamo.ErrInvalidConfig)
	}
	return m, nil
}

// Swerve resolves the robot's presets into a drivetrain config.
func (c *Config) Swerve() (drivetrain.SwerveConfig, error) {
	r := c.Robot
	module, err := Module(r.Module)
	if err != nil {
		return drivetrain.SwerveConfig{}, err
	}
	mc, err := module.Build(r.DriveMotor, r.SteerMotor, r.Grip)
	if err != nil {
		return drivetrain.SwerveConfig{}, err
	}
	g, err := Gyro(r.Gyro)
	if err != nil {
		return drivetrain.SwerveConfig{}, err
	}
	return drivetrain.SwerveConfig{
		Chassis: drivetrain.ChassisConfig{
			Mass:         r.Mass,
			MOI:          r.MOI,
			BumperLength: r.BumperLength,
			BumperWidth:  r.BumperWidth,
		},
		Module:             mc,
		ModuleTranslations: drivetrain.SquareModules(r.TrackLength, r.TrackWidth),
		Gyro:               g,
	}, nil
}

// IntakeBox places the intake flush against the front bumper.
func (r RobotConfig) IntakeBox() geom.Rectangle2d {
	return geom.Rectangle2d{
		Center: mgl64.Vec2{r.BumperLength/2 + r.Intake.Length/2, 0},
		XWidth: r.Intake.Length,
		YWidth: r.Intake.Width,
	}
}
