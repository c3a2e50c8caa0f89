package dynamo

import "fmt"

// Timing describes how one outer control period is split into physics sub-ticks.
type Timing struct {
	Period         float64
	TicksPerPeriod int
	Dt             float64
}

// NewTiming validates the period and sub-tick count and derives dt.
func NewTiming(period float64, ticksPerPeriod int) (Timing, error) {
	if period <= 0 || ticksPerPeriod <= 0 {
		return Timing{}, fmt.Errorf("period %v, ticks %d: %w", period, ticksPerPeriod, ErrInvalidTiming)
	}
	return Timing{
		Period:         period,
		TicksPerPeriod: ticksPerPeriod,
		Dt:             period / float64(ticksPerPeriod),
	}, nil
}

// DefaultTiming is a 50 Hz control loop with 5 physics sub-ticks.
func DefaultTiming() Timing {
	t, _ := NewTiming(0.02, 5)
	return t
}
