package automation

import (
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/fieldsim/internal/arena"
	"github.com/san-kum/fieldsim/internal/drivetrain"
	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/gamepiece"
	"github.com/san-kum/fieldsim/internal/geom"
)

// Script is a timed sequence of driver actions.
type Script struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step fires once the match clock reaches At. A drive step holds its speeds
// for Duration seconds, or until the next drive step when Duration is zero.
type Step struct {
	At       float64 `yaml:"at"`
	Duration float64 `yaml:"duration"`

	Drive         *Speeds `yaml:"drive"`
	FieldRelative bool    `yaml:"field_relative"`
	Intake        string  `yaml:"intake"`
	Launch        *Launch `yaml:"launch"`
	Teleop        *bool   `yaml:"teleop"`
	Enabled       *bool   `yaml:"enabled"`
}

type Speeds struct {
	Vx    float64 `yaml:"vx"`
	Vy    float64 `yaml:"vy"`
	Omega float64 `yaml:"omega"`
}

// Launch shoots the next piece in the indexer straight ahead of the robot.
type Launch struct {
	Height float64 `yaml:"height"`
	Speed  float64 `yaml:"speed"`
	Pitch  float64 `yaml:"pitch"`
}

const (
	IntakeStart = "start"
	IntakeStop  = "stop"

	gravity = 9.8
)

// LoadScript loads a script from a YAML file
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScript(data)
}

func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate rejects negative times and unknown intake commands, then orders
// the steps by start time.
func (s *Script) Validate() error {
	for i, step := range s.Steps {
		if step.At < 0 || step.Duration < 0 {
			return fmt.Errorf("step %d: negative time: %w", i+1, dynamo.ErrInvalidConfig)
		}
		switch step.Intake {
		case "", IntakeStart, IntakeStop:
		default:
			return fmt.Errorf("step %d: intake %q: %w", i+1, step.Intake, dynamo.ErrInvalidConfig)
		}
		if step.Launch != nil && step.Launch.Speed < 0 {
			return fmt.Errorf("step %d: launch speed %v: %w", i+1, step.Launch.Speed, dynamo.ErrInvalidConfig)
		}
	}
	sort.SliceStable(s.Steps, func(i, j int) bool { return s.Steps[i].At < s.Steps[j].At })
	return nil
}

// Player drives a robot through a script, one period at a time.
type Player struct {
	script *Script
	robot  *arena.Robot
	swerve *drivetrain.Swerve
	log    *zap.Logger

	next     int
	drive    *Step
	until    float64
	launched int
}

// NewPlayer binds s to r. The robot's modules must take closed-loop setpoints.
func NewPlayer(s *Script, r *arena.Robot) (*Player, error) {
	sw, ok := r.DriveTrain().(*drivetrain.Swerve)
	if !ok {
		return nil, fmt.Errorf("script %q needs a swerve drivetrain: %w", s.Name, dynamo.ErrUnsupportedDrivetrain)
	}
	for _, m := range sw.Modules() {
		if _, _, err := setpoints(m); err != nil {
			return nil, fmt.Errorf("script %q: %w", s.Name, err)
		}
	}
	return &Player{
		script: s,
		robot:  r,
		swerve: sw,
		log:    r.Arena().Logger().With(zap.String("script", s.Name)),
	}, nil
}

type velocitySetter interface {
	SetVelocity(velocity float64)
}

type positionSetter interface {
	SetPosition(position float64)
}

// setpoints works with control.MCX and control.LQR alike.
func setpoints(m *drivetrain.Module) (velocitySetter, positionSetter, error) {
	drive, okd := m.Drive().Controller().(velocitySetter)
	steer, oks := m.Steer().Controller().(positionSetter)
	if !okd || !oks {
		return nil, nil, fmt.Errorf("module %d controllers take no setpoints: %w", m.Index(), dynamo.ErrInvalidConfig)
	}
	return drive, steer, nil
}

// Launched counts pieces shot so far.
func (p *Player) Launched() int { return p.launched }

// Done reports whether every step has fired and no drive step is active.
func (p *Player) Done() bool {
	return p.next >= len(p.script.Steps) && p.drive == nil
}

// Step fires every step due at t and commands the modules for the active
// drive step.
func (p *Player) Step(t float64) {
	for p.next < len(p.script.Steps) && p.script.Steps[p.next].At <= t {
		step := &p.script.Steps[p.next]
		p.next++
		p.fire(step)
	}
	if p.drive != nil && p.until > 0 && t >= p.until {
		p.drive = nil
	}

	var speeds geom.ChassisSpeeds
	if p.drive != nil {
		speeds = geom.ChassisSpeeds{Vx: p.drive.Drive.Vx, Vy: p.drive.Drive.Vy, Omega: p.drive.Drive.Omega}
		if p.drive.FieldRelative {
			speeds = speeds.ToRobotRelative(p.swerve.Gyro().Yaw())
		}
	}
	p.command(speeds)
}

func (p *Player) fire(step *Step) {
	host := p.robot.Arena().Host()
	if step.Enabled != nil {
		host.SetEnabled(*step.Enabled)
	}
	if step.Teleop != nil {
		host.SetTeleop(*step.Teleop)
	}
	if step.Drive != nil {
		p.drive = step
		p.until = 0
		if step.Duration > 0 {
			p.until = step.At + step.Duration
		}
	}
	for _, in := range p.robot.Intakes() {
		switch step.Intake {
		case IntakeStart:
			in.Start()
		case IntakeStop:
			in.Stop()
		}
	}
	if step.Launch != nil {
		p.launch(step.Launch)
	}
	p.log.Debug("script step", zap.Float64("at", step.At), zap.Int("step", p.next))
}

func (p *Player) launch(l *Launch) {
	g, ok := p.robot.Indexer().Remove()
	if !ok {
		p.log.Debug("launch with empty indexer")
		return
	}
	pose := p.swerve.ChassisWorldPose()
	speeds := p.swerve.ChassisWorldSpeeds()
	horizontal := l.Speed * math.Cos(l.Pitch)
	vel := mgl64.Vec3{
		speeds.Vx + horizontal*math.Cos(pose.Heading),
		speeds.Vy + horizontal*math.Sin(pose.Heading),
		l.Speed * math.Sin(l.Pitch),
	}
	g.Launch(geom.Pose3dFrom2d(pose, l.Height), vel, gamepiece.Gravity(gravity))
	g.ReleaseControl()
	p.launched++
}

// command turns chassis speeds into module setpoints. Each wheel turns at
// most a quarter turn, reversing its drive when that is shorter.
func (p *Player) command(speeds geom.ChassisSpeeds) {
	modules := p.swerve.Modules()
	states := p.swerve.Kinematics().ToModuleStates(speeds)
	for i, m := range modules {
		drive, steer, err := setpoints(m)
		if err != nil {
			continue
		}
		current := m.Steer().Outputs().Position
		if math.Abs(states[i].Speed) < 1e-6 {
			drive.SetVelocity(0)
			steer.SetPosition(current)
			continue
		}
		delta, speed := optimize(states[i].Angle-current, states[i].Speed)
		steer.SetPosition(current + delta)
		drive.SetVelocity(speed / m.WheelRadius())
	}
}

func optimize(delta, speed float64) (float64, float64) {
	delta = math.Remainder(delta, 2*math.Pi)
	if math.Abs(delta) > math.Pi/2 {
		delta -= math.Copysign(math.Pi, delta)
		speed = -speed
	}
	return delta, speed
}
