// Package gamepiece models discrete field objects and their lifecycle.
//
// A piece is always in exactly one [State]:
//
//   - Limbo: out of play, parked at a fixed off-field pose
//   - OnField: owns a box2d body in the world
//   - InFlight: a ballistic projectile integrated every sub-tick
//   - Held: stored in a robot's inventory
//
// Public transitions (Place, Slide, Launch, Intake, Delete) only succeed
// while the piece is user controlled. A successful transition hands control
// back to the simulation. A call made without control logs one warning and
// does nothing. The simulation re-grants control when a flying piece lands
// or scores.
package gamepiece
