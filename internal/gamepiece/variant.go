package gamepiece

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/geom"
	"github.com/san-kum/fieldsim/internal/physics"
)

// State tags the lifecycle state of a piece.
type State int

const (
	Limbo State = iota
	OnField
	InFlight
	Held
)

func (s State) String() string {
	switch s {
	case Limbo:
		return "limbo"
	case OnField:
		return "on_field"
	case InFlight:
		return "in_flight"
	case Held:
		return "held"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// States lists every state in declaration order.
func States() []State {
	return []State{Limbo, OnField, InFlight, Held}
}

// Target is a box-shaped scoring volume. It may be yawed but not rolled or pitched.
type Target struct {
	Area geom.Rectangle2d
	MinZ float64
	MaxZ float64
}

// NewTarget spans the axis-aligned box between two opposite corners.
func NewTarget(first, second mgl64.Vec3) Target {
	return Target{
		Area: geom.RectangleFromCorners(first.Vec2(), second.Vec2()),
		MinZ: min(first.Z(), second.Z()),
		MaxZ: max(first.Z(), second.Z()),
	}
}

func (t Target) Contains(p mgl64.Vec3) bool {
	return t.Area.Contains(p.Vec2()) && p.Z() >= t.MinZ && p.Z() <= t.MaxZ
}

// Variant describes a kind of game piece. Variants compare equal by Type.
type Variant struct {
	Type   string
	Height float64
	Mass   float64
	Shape  physics.Shape

	Targets []Target

	// PlaceOnFieldWhenTouchGround puts a landing piece back on the field.
	// When false the piece goes to Limbo instead.
	PlaceOnFieldWhenTouchGround bool
	// LandingDampening scales the horizontal velocity kept on landing.
	LandingDampening float64
}

func (v Variant) Is(other Variant) bool {
	return v.Type == other.Type
}

func (v Variant) Validate() error {
	if v.Type == "" {
		return fmt.Errorf("variant needs a type: %w", dynamo.ErrInvalidConfig)
	}
	if v.Mass <= 0 || v.Height <= 0 {
		return fmt.Errorf("variant %s mass %v and height %v must be positive: %w", v.Type, v.Mass, v.Height, dynamo.ErrInvalidConfig)
	}
	if v.LandingDampening < 0 {
		return fmt.Errorf("variant %s landing dampening %v must not be negative: %w", v.Type, v.LandingDampening, dynamo.ErrInvalidConfig)
	}
	if err := physics.Validate(v.Shape); err != nil {
		return fmt.Errorf("variant %s: %w", v.Type, err)
	}
	return nil
}

// scoredBy returns the first target containing p.
func (v Variant) scoredBy(p mgl64.Vec3) (Target, bool) {
	for _, t := range v.Targets {
		if t.Contains(p) {
			return t, true
		}
	}
	return Target{}, false
}
