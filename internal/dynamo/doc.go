// Package dynamo provides the primitives shared by every simulated component.
//
// The package defines small value types and helpers that the mechanism,
// drivetrain, game piece and arena packages build on:
//
//   - [Timing]: outer period, sub-ticks per period and the derived sub-tick dt
//   - [Host]: enabled / teleop / alliance flags reported by the control host
//   - [Signum], [NudgeZero], [ClampToStop]: numeric helpers used by the integrators
//
// # Example
//
//	timing, err := dynamo.NewTiming(0.02, 5) // 50 Hz outer loop, 250 Hz physics
//	if err != nil {
//		return err
//	}
//	host := dynamo.NewHost()
//	host.SetEnabled(true)
//
// # Thread Safety
//
// [Host] is safe for concurrent use. [Timing] is an immutable value.
package dynamo
