// Package drivetrain simulates a swerve drive chassis.
//
// A [Swerve] owns a box2d chassis body, one [Module] per wheel and a gyro.
// Each sub-tick [Swerve.SimTick]:
//
//  1. applies every module's propelling force at the module's world position,
//     clamped to the tire's grip (the wheel skids beyond it)
//  2. blends the drive rotors' load inertia between the translating and
//     rotating cases
//  3. applies a friction correction that pulls the chassis toward the motion
//     the wheels imply, never overshooting within one step
//  4. feeds the chassis yaw rate to the gyro
//
// Drive and steer mechanisms are registered with the owning robot through
// [Host], which updates them after the drivetrain tick.
package drivetrain
