package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/ByteArena/box2d"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/fieldsim/internal/dynamo"
)

func TestShapeValidation(t *testing.T) {
	tests := []struct {
		name  string
		shape Shape
		ok    bool
	}{
		{"circle", Circle{Radius: 0.2}, true},
		{"zero circle", Circle{}, false},
		{"rectangle", Rectangle{XWidth: 1, YWidth: 0.5}, true},
		{"flat rectangle", Rectangle{XWidth: 1}, false},
		{"triangle", Polygon{Vertices: []mgl64.Vec2{{0, 0}, {1, 0}, {0, 1}}}, true},
		{"line polygon", Polygon{Vertices: []mgl64.Vec2{{0, 0}, {1, 0}, {2, 0}}}, false},
		{"segment", Segment{A: mgl64.Vec2{0, 0}, B: mgl64.Vec2{1, 0}}, true},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		err := Validate(tt.shape)
		if tt.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
		}
		if !tt.ok && !errors.Is(err, dynamo.ErrUnsupportedShape) {
			t.Errorf("%s: expected ErrUnsupportedShape, got %v", tt.name, err)
		}
	}
}

func TestShapeArea(t *testing.T) {
	if got := (Circle{Radius: 1}).Area(); math.Abs(got-math.Pi) > 1e-12 {
		t.Errorf("circle area %f", got)
	}
	tri := Polygon{Vertices: []mgl64.Vec2{{0, 0}, {2, 0}, {0, 2}}}
	if got := tri.Area(); math.Abs(got-2) > 1e-12 {
		t.Errorf("triangle area %f", got)
	}
}

func TestBodyCoastsWithoutGravity(t *testing.T) {
	w := NewWorld()
	var body *box2d.B2Body
	w.Do(func(bw *box2d.B2World) {
		body = NewDynamicBody(bw, 0, 0, 0, nil)
		if _, err := AttachFixture(body, Circle{Radius: 0.1}, Material{}, 1, nil); err != nil {
			t.Fatal(err)
		}
		body.SetLinearVelocity(box2d.MakeB2Vec2(1, 0))
	})

	for i := 0; i < 250; i++ {
		w.Step(0.004)
	}

	w.Do(func(bw *box2d.B2World) {
		p := body.GetPosition()
		if math.Abs(p.X-1) > 1e-6 || math.Abs(p.Y) > 1e-9 {
			t.Errorf("expected body near (1, 0), got (%f, %f)", p.X, p.Y)
		}
	})
}

func TestSetMassOverridesDensity(t *testing.T) {
	w := NewWorld()
	w.Do(func(bw *box2d.B2World) {
		body := NewDynamicBody(bw, 0, 0, 0, nil)
		if _, err := AttachFixture(body, Rectangle{XWidth: 1, YWidth: 1}, Material{}, 10, nil); err != nil {
			t.Fatal(err)
		}
		SetMass(body, 45, 6)
		if math.Abs(body.GetMass()-45) > 1e-9 || math.Abs(body.GetInertia()-6) > 1e-9 {
			t.Errorf("expected mass 45 and inertia 6, got %f and %f", body.GetMass(), body.GetInertia())
		}
	})
}

func TestContactListenerFanOut(t *testing.T) {
	w := NewWorld()
	var first, second int
	removeFirst := w.AddContactListener(ContactFunc(func(a, b *box2d.B2Fixture) { first++ }))
	w.AddContactListener(ContactFunc(func(a, b *box2d.B2Fixture) { second++ }))

	w.Do(func(bw *box2d.B2World) {
		a := NewDynamicBody(bw, 0, 0, 0, "a")
		b := NewDynamicBody(bw, 0.15, 0, 0, "b")
		AttachFixture(a, Circle{Radius: 0.1}, Material{}, 1, nil)
		AttachFixture(b, Circle{Radius: 0.1}, Material{}, 1, nil)
	})
	w.Step(0.004)

	if first != 1 || second != 1 {
		t.Fatalf("expected one contact per listener, got %d and %d", first, second)
	}

	removeFirst()
	w.Do(func(bw *box2d.B2World) {
		c := NewDynamicBody(bw, 5, 5, 0, "c")
		d := NewDynamicBody(bw, 5.1, 5, 0, "d")
		AttachFixture(c, Circle{Radius: 0.1}, Material{}, 1, nil)
		AttachFixture(d, Circle{Radius: 0.1}, Material{}, 1, nil)
	})
	w.Step(0.004)

	if first != 1 || second != 2 {
		t.Errorf("expected removed listener to stay quiet, got %d and %d", first, second)
	}
}

func TestFieldMapBuild(t *testing.T) {
	f := NewFieldMap().
		AddBorderLine(mgl64.Vec2{0, 0}, mgl64.Vec2{16, 0}).
		AddRectangle(1, 1, mgl64.Vec2{8, 4}, 0.5)
	if err := f.Validate(); err != nil {
		t.Fatal(err)
	}

	w := NewWorld()
	var err error
	w.Do(func(bw *box2d.B2World) {
		_, err = f.Build(bw)
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := w.BodyCount(); got != 2 {
		t.Errorf("expected 2 static bodies, got %d", got)
	}
}
