// Package arena drives the whole simulation: the physics world, its static
// obstacles, the robots on the field and every game piece.
//
// One goroutine calls [Arena.SimulationPeriodic] once per control period.
// Each call runs the season's periodic rules and then TicksPerPeriod
// sub-ticks, each in a fixed order:
//
//  1. every robot ticks its drivetrain and mechanisms
//  2. every game piece ticks its state
//  3. the world steps
//  4. intake contacts seen during the step are turned into inventory transfers
//
// Other goroutines may read robot and piece state or move pieces
// concurrently; all world access is serialized through [physics.World].
package arena
