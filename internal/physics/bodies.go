package physics

import (
	"github.com/ByteArena/box2d"
)

// Material is the surface response of a fixture.
type Material struct {
	Friction    float64
	Restitution float64
}

// The helpers below must be called with the world lock held, i.e. inside World.Do.

func NewDynamicBody(world *box2d.B2World, x, y, angle float64, userData any) *box2d.B2Body {
	def := box2d.MakeB2BodyDef()
	def.Type = box2d.B2BodyType.B2_dynamicBody
	def.Position.Set(x, y)
	def.Angle = angle
	def.UserData = userData
	return world.CreateBody(&def)
}

func NewStaticBody(world *box2d.B2World, x, y, angle float64, userData any) *box2d.B2Body {
	def := box2d.MakeB2BodyDef()
	def.Type = box2d.B2BodyType.B2_staticBody
	def.Position.Set(x, y)
	def.Angle = angle
	def.UserData = userData
	return world.CreateBody(&def)
}

// AttachFixture adds shape to body. A positive density recomputes the body's mass.
func AttachFixture(body *box2d.B2Body, shape Shape, mat Material, density float64, userData any) (*box2d.B2Fixture, error) {
	return attach(body, shape, mat, density, false, userData)
}

// AttachSensor adds a non-colliding fixture that still reports contacts.
func AttachSensor(body *box2d.B2Body, shape Shape, userData any) (*box2d.B2Fixture, error) {
	return attach(body, shape, Material{}, 0, true, userData)
}

func attach(body *box2d.B2Body, shape Shape, mat Material, density float64, sensor bool, userData any) (*box2d.B2Fixture, error) {
	b2, err := shape.toB2()
	if err != nil {
		return nil, err
	}
	def := box2d.MakeB2FixtureDef()
	def.Shape = b2
	def.Density = density
	def.Friction = mat.Friction
	def.Restitution = mat.Restitution
	def.IsSensor = sensor
	def.UserData = userData
	return body.CreateFixtureFromDef(&def), nil
}

// SetMass overrides the body's mass and rotational inertia about its origin.
func SetMass(body *box2d.B2Body, mass, inertia float64) {
	data := box2d.B2MassData{
		Mass:   mass,
		Center: box2d.MakeB2Vec2(0, 0),
		I:      inertia,
	}
	body.SetMassData(&data)
}
