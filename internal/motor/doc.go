// Package motor models brushed/brushless DC motor performance curves.
//
// A [DCMotor] maps (speed, terminal voltage) to current and current to torque
// using the linear motor model:
//
//	I = V/R - w/(Kv*R)
//	T = Kt*I
//
// Presets cover the motors common on competition robots. [GearRatio] expresses
// reductions between a rotor and the mechanism it drives.
package motor
