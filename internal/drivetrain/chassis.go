package drivetrain

import (
	"github.com/ByteArena/box2d"

	"github.com/san-kum/fieldsim/internal/geom"
	"github.com/san-kum/fieldsim/internal/physics"
)

// BumperMaterial is the surface of the chassis bumpers and attached fixtures.
var BumperMaterial = physics.Material{Friction: 0.65, Restitution: 0.005}

// Chassis is the drivetrain's rigid body. Its mass and inertia are fixed by
// configuration and reapplied whenever fixtures change.
type Chassis struct {
	world *physics.World
	body  *box2d.B2Body
	mass  float64
	moi   float64
}

func newChassis(world *physics.World, cfg ChassisConfig, userData any) (*Chassis, error) {
	c := &Chassis{world: world, mass: cfg.Mass, moi: cfg.MOI}
	bumper := physics.Rectangle{XWidth: cfg.BumperLength, YWidth: cfg.BumperWidth}

	var err error
	world.Do(func(bw *box2d.B2World) {
		c.body = physics.NewDynamicBody(bw, 0, 0, 0, userData)
		c.body.SetSleepingAllowed(false)
		if _, err = physics.AttachFixture(c.body, bumper, BumperMaterial, 1, userData); err != nil {
			bw.DestroyBody(c.body)
			return
		}
		physics.SetMass(c.body, c.mass, c.moi)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Chassis) Mass() float64 { return c.mass }
func (c *Chassis) MOI() float64  { return c.moi }

// Body is the raw box2d body. Only touch it inside World.Do.
func (c *Chassis) Body() *box2d.B2Body {
	return c.body
}

func (c *Chassis) WorldPose() geom.Pose2d {
	var p geom.Pose2d
	c.world.Do(func(*box2d.B2World) {
		p = poseOf(c.body)
	})
	return p
}

func (c *Chassis) SetWorldPose(p geom.Pose2d) {
	c.world.Do(func(*box2d.B2World) {
		c.body.SetTransform(box2d.MakeB2Vec2(p.X, p.Y), p.Heading)
	})
}

// WorldSpeeds are field-relative.
func (c *Chassis) WorldSpeeds() geom.ChassisSpeeds {
	var s geom.ChassisSpeeds
	c.world.Do(func(*box2d.B2World) {
		s = speedsOf(c.body)
	})
	return s
}

func (c *Chassis) SetWorldSpeeds(s geom.ChassisSpeeds) {
	c.world.Do(func(*box2d.B2World) {
		c.body.SetLinearVelocity(box2d.MakeB2Vec2(s.Vx, s.Vy))
		c.body.SetAngularVelocity(s.Omega)
	})
}

// RobotSpeeds are the chassis speeds in the robot frame.
func (c *Chassis) RobotSpeeds() geom.ChassisSpeeds {
	var s geom.ChassisSpeeds
	c.world.Do(func(*box2d.B2World) {
		s = speedsOf(c.body).ToRobotRelative(c.body.GetAngle())
	})
	return s
}

// AddFixture attaches a robot-frame shape to the chassis.
func (c *Chassis) AddFixture(shape physics.Shape, userData any) (*box2d.B2Fixture, error) {
	var (
		f   *box2d.B2Fixture
		err error
	)
	c.world.Do(func(*box2d.B2World) {
		f, err = physics.AttachFixture(c.body, shape, BumperMaterial, 0, userData)
		physics.SetMass(c.body, c.mass, c.moi)
	})
	return f, err
}

func (c *Chassis) RemoveFixture(f *box2d.B2Fixture) {
	c.world.Do(func(*box2d.B2World) {
		c.body.DestroyFixture(f)
		physics.SetMass(c.body, c.mass, c.moi)
	})
}

func poseOf(b *box2d.B2Body) geom.Pose2d {
	p := b.GetPosition()
	return geom.Pose2d{X: p.X, Y: p.Y, Heading: b.GetAngle()}
}

func speedsOf(b *box2d.B2Body) geom.ChassisSpeeds {
	v := b.GetLinearVelocity()
	return geom.ChassisSpeeds{Vx: v.X, Vy: v.Y, Omega: b.GetAngularVelocity()}
}
