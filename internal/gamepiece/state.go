package gamepiece

import (
	"github.com/ByteArena/box2d"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/fieldsim/internal/geom"
	"github.com/san-kum/fieldsim/internal/physics"
)

const (
	linearDamping  = 3.5
	angularDamping = 5
)

// Material is the surface of an on-field piece body.
var Material = physics.Material{Friction: 0.8, Restitution: 0.3}

var (
	limboPose = geom.NewPose3d(-1, -1, -1, 0)
	heldPose  = geom.NewPose3d(0, 0, -1000, 0)
)

// stateData is the payload of one lifecycle state. enter and exit run with
// the piece lock held and may take the world lock.
type stateData interface {
	tag() State
	pose(g *GamePiece) geom.Pose3d
	velocity(g *GamePiece) mgl64.Vec3
	enter(g *GamePiece) error
	exit(g *GamePiece)
	tick(g *GamePiece, dt float64)
}

type noHooks struct{}

func (noHooks) enter(*GamePiece) error         { return nil }
func (noHooks) exit(*GamePiece)                {}
func (noHooks) tick(*GamePiece, float64)       {}
func (noHooks) velocity(*GamePiece) mgl64.Vec3 { return mgl64.Vec3{} }

type limbo struct{ noHooks }

func (limbo) tag() State                  { return Limbo }
func (limbo) pose(*GamePiece) geom.Pose3d { return limboPose }

type held struct{ noHooks }

func (held) tag() State                  { return Held }
func (held) pose(*GamePiece) geom.Pose3d { return heldPose }

// onField owns the piece's body while the piece is on the field.
type onField struct {
	position mgl64.Vec2
	initial  mgl64.Vec2
	body     *box2d.B2Body
}

func (*onField) tag() State { return OnField }

func (s *onField) enter(g *GamePiece) error {
	var err error
	g.world.Do(func(bw *box2d.B2World) {
		body := physics.NewDynamicBody(bw, s.position[0], s.position[1], 0, g)
		density := g.variant.Mass / g.variant.Shape.Area()
		if _, err = physics.AttachFixture(body, g.variant.Shape, Material, density, g); err != nil {
			bw.DestroyBody(body)
			return
		}
		body.SetLinearDamping(linearDamping)
		body.SetAngularDamping(angularDamping)
		body.SetBullet(true)
		body.SetLinearVelocity(physics.Vec(s.initial))
		s.body = body
	})
	return err
}

func (s *onField) exit(g *GamePiece) {
	if s.body == nil {
		return
	}
	g.world.Do(func(bw *box2d.B2World) {
		bw.DestroyBody(s.body)
	})
	s.body = nil
}

func (*onField) tick(*GamePiece, float64) {}

func (s *onField) pose(g *GamePiece) geom.Pose3d {
	var p geom.Pose3d
	g.world.Do(func(*box2d.B2World) {
		pos := s.body.GetPosition()
		p = geom.NewPose3d(pos.X, pos.Y, g.variant.Height/2, s.body.GetAngle())
	})
	return p
}

func (s *onField) velocity(g *GamePiece) mgl64.Vec3 {
	var v box2d.B2Vec2
	g.world.Do(func(*box2d.B2World) {
		v = s.body.GetLinearVelocity()
	})
	return mgl64.Vec3{v.X, v.Y, 0}
}

// inFlight integrates a ballistic trajectory in the field frame.
type inFlight struct {
	noHooks
	where    geom.Pose3d
	vel      mgl64.Vec3
	dynamics ProjectileDynamics
}

func (*inFlight) tag() State                       { return InFlight }
func (s *inFlight) pose(*GamePiece) geom.Pose3d    { return s.where }
func (s *inFlight) velocity(*GamePiece) mgl64.Vec3 { return s.vel }

func (s *inFlight) tick(_ *GamePiece, dt float64) {
	s.vel = s.dynamics.Calculate(dt, s.vel)
	s.where = s.where.Exp(s.where.TwistFromWorld(s.vel.Mul(dt)))
}
