// Package mechanism simulates single degree-of-freedom actuators.
//
// A [Mechanism] is a motor driving a load through a gearbox. Every sub-tick
// [Mechanism.Update] asks its [Controller] for a terminal voltage, converts it to
// torque through the motor curve, subtracts friction and regenerative braking,
// adds environment torque from its [Dynamics] hook and integrates with
// semi-implicit Euler.
//
// Positions and velocities reported by [Mechanism.Outputs] are on the mechanism
// side of the gearbox. [Mechanism.MotorOutputs] reports the same state in rotor
// units for controllers that expect them.
//
// # Thread Safety
//
// Update is called by the single stepping goroutine. Outputs, Inputs and
// MotorOutputs may be called from any goroutine and always return a consistent
// snapshot.
package mechanism
