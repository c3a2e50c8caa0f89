package dynamo

import "errors"

// Domain errors for simulation construction and persistence.
var (
	// ErrInvalidTiming indicates a non-positive period or sub-tick count.
	ErrInvalidTiming = errors.New("dynamo: invalid timing (period and ticks must be positive)")

	// ErrUnsupportedDrivetrain indicates a drivetrain configuration the simulator cannot build.
	ErrUnsupportedDrivetrain = errors.New("dynamo: unsupported drivetrain configuration")

	// ErrUnsupportedShape indicates a collision shape the physics world cannot represent.
	ErrUnsupportedShape = errors.New("dynamo: unsupported physics shape")

	// ErrInvalidConfig indicates a parameter value is outside its valid range.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrUnknownPreset indicates a preset name that is not registered.
	ErrUnknownPreset = errors.New("dynamo: unknown preset")

	// ErrUnknownSeason indicates a season name that is not registered.
	ErrUnknownSeason = errors.New("dynamo: unknown season")

	// ErrRunNotFound indicates a stored run id that does not exist.
	ErrRunNotFound = errors.New("dynamo: run not found")

	// ErrNonFinite indicates the simulation produced NaN or Inf.
	ErrNonFinite = errors.New("dynamo: non-finite value (NaN or Inf detected)")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Period  int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return e.Wrapped.Error()
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
