// Package control provides motor controllers that drive simulated mechanisms.
//
// Controllers implement [mechanism.Controller]: each sub-tick they receive the
// rotor-side state and supply voltage and return a terminal voltage.
//
//   - [None]: never drives the motor (the default)
//   - [OpenLoop]: a manually set voltage, safe to change from another goroutine
//   - [MCX]: a smart motor controller with voltage, position and velocity
//     modes, PID feedback, feedforward, motion profiling, soft limits and a
//     stator current limit
//
// # Usage
//
//	mcx := control.NewMCX(control.DefaultMCXConfig(motor.KrakenX60(1)))
//	mcx.SetVelocity(40) // rad/s at the mechanism
//	mech, _ := mechanism.New("shooter", cfg, mcx)
//
// [PID] is exposed on its own and supports live tuning through GetParams/SetParam.
package control
