package physics

import (
	"sync"

	"github.com/ByteArena/box2d"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	DefaultVelocityIterations = 8
	DefaultPositionIterations = 3
)

// ContactListener is notified when two fixtures begin touching. It runs inside
// World.Step with the world lock held.
type ContactListener interface {
	BeginContact(a, b *box2d.B2Fixture)
}

// ContactFunc adapts a function to ContactListener.
type ContactFunc func(a, b *box2d.B2Fixture)

func (f ContactFunc) BeginContact(a, b *box2d.B2Fixture) { f(a, b) }

// World is a zero-gravity box2d world guarded by a mutex.
type World struct {
	mu                 sync.Mutex
	world              *box2d.B2World
	velocityIterations int
	positionIterations int

	nextListener int
	listeners    map[int]ContactListener
	order        []int
}

func NewWorld() *World {
	bw := box2d.MakeB2World(box2d.MakeB2Vec2(0, 0))
	w := &World{
		world:              &bw,
		velocityIterations: DefaultVelocityIterations,
		positionIterations: DefaultPositionIterations,
		listeners:          make(map[int]ContactListener),
	}
	bw.SetContactListener(dispatcher{w: w})
	return w
}

// Do runs fn with exclusive access to the box2d world.
func (w *World) Do(fn func(world *box2d.B2World)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn(w.world)
}

// Step advances the world by dt.
func (w *World) Step(dt float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.world.Step(dt, w.velocityIterations, w.positionIterations)
}

// AddContactListener registers l and returns a function that removes it.
func (w *World) AddContactListener(l ContactListener) (remove func()) {
	w.mu.Lock()
	id := w.nextListener
	w.nextListener++
	w.listeners[id] = l
	w.order = append(w.order, id)
	w.mu.Unlock()

	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.listeners, id)
		for i, o := range w.order {
			if o == id {
				w.order = append(w.order[:i], w.order[i+1:]...)
				break
			}
		}
	}
}

func (w *World) BodyCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.world.GetBodyCount()
}

// dispatcher is the single box2d contact listener; it fans out to registered listeners.
type dispatcher struct {
	w *World
}

func (d dispatcher) BeginContact(contact box2d.B2ContactInterface) {
	a, b := contact.GetFixtureA(), contact.GetFixtureB()
	for _, id := range d.w.order {
		d.w.listeners[id].BeginContact(a, b)
	}
}

func (d dispatcher) EndContact(contact box2d.B2ContactInterface) {}

func (d dispatcher) PreSolve(contact box2d.B2ContactInterface, oldManifold box2d.B2Manifold) {}

func (d dispatcher) PostSolve(contact box2d.B2ContactInterface, impulse *box2d.B2ContactImpulse) {}

// Vec converts to a box2d vector.
func Vec(v mgl64.Vec2) box2d.B2Vec2 {
	return box2d.MakeB2Vec2(v[0], v[1])
}

// FromVec converts from a box2d vector.
func FromVec(v box2d.B2Vec2) mgl64.Vec2 {
	return mgl64.Vec2{v.X, v.Y}
}
