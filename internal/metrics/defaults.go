package metrics

import "github.com/san-kum/fieldsim/internal/sim"

// DefaultStabilityThreshold is above any speed a competition robot reaches.
const DefaultStabilityThreshold = 8.0

// Defaults is the metric set every run reports.
func Defaults(period float64) []sim.MetricFactory {
	return []sim.MetricFactory{
		func() sim.Metric { return NewControlEffort() },
		func() sim.Metric { return NewEnergy(period) },
		func() sim.Metric { return NewVoltageSag() },
		func() sim.Metric { return NewGyroDrift() },
		func() sim.Metric { return NewStability(DefaultStabilityThreshold) },
	}
}
