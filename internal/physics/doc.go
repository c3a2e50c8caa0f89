// Package physics wraps the embedded 2D rigid-body engine.
//
// The simulator treats box2d as a black box that owns bodies, fixtures and
// contact resolution. This package adds what the rest of the simulator needs
// on top of it:
//
//   - [World]: the box2d world behind a single lock, with contact fan-out
//   - [Shape]: collision shapes ([Circle], [Rectangle], [Polygon]) with area
//   - [FieldMap]: static obstacles (border lines, rectangles, custom shapes)
//
// # Locking
//
// Every read or write of box2d state goes through [World.Do]. The lock is not
// re-entrant: code running inside Do, and contact listeners (which run inside
// [World.Step]), must not call Do again. Listeners that need to mutate the
// world queue the work and apply it after the step returns.
//
// # Example
//
//	w := physics.NewWorld()
//	w.Do(func(bw *box2d.B2World) {
//		body := physics.NewDynamicBody(bw, 1, 2, 0, nil)
//		_, _ = physics.AttachFixture(body, physics.Circle{Radius: 0.2}, physics.Material{Friction: 0.8}, 1, nil)
//	})
//	w.Step(0.004)
package physics
