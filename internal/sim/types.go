package sim

import (
	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/geom"
)

// Sample is the robot and field at the end of one period.
type Sample struct {
	Period int     `json:"period"`
	Time   float64 `json:"time"`

	Pose    geom.Pose2d        `json:"pose"`
	Speeds  geom.ChassisSpeeds `json:"speeds"`
	GyroYaw float64            `json:"gyro_yaw"`

	SupplyVoltage float64 `json:"supply_voltage"`
	SupplyCurrent float64 `json:"supply_current"`
	// DriveVoltages are the stator voltages applied to each drive motor.
	DriveVoltages []float64 `json:"drive_voltages"`

	Held   int            `json:"held"`
	Scored int64          `json:"scored"`
	Pieces map[string]int `json:"pieces"`
}

func (s Sample) values() []float64 {
	v := []float64{
		s.Time, s.Pose.X, s.Pose.Y, s.Pose.Heading,
		s.Speeds.Vx, s.Speeds.Vy, s.Speeds.Omega, s.GyroYaw,
		s.SupplyVoltage, s.SupplyCurrent,
	}
	return append(v, s.DriveVoltages...)
}

// IsValid is false when any numeric field is NaN or Inf.
func (s Sample) IsValid() bool {
	return dynamo.Finite(s.values()...)
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

// MetricFactory builds a fresh metric for every run.
type MetricFactory func() Metric

type Observer interface {
	OnPeriod(s Sample)
}

type ObserverFunc func(s Sample)

func (f ObserverFunc) OnPeriod(s Sample) { f(s) }

type Config struct {
	Duration float64
	Seed     uint64
	// ValidateState stops the run at the first non-finite sample.
	ValidateState bool
}

type Result struct {
	Seed     uint64
	Samples  []Sample
	Metrics  map[string]float64
	Periods  int
	Scored   int64
	Launched int
}

// Final is the last sample, or the zero sample for an empty run.
func (r *Result) Final() Sample {
	if len(r.Samples) == 0 {
		return Sample{}
	}
	return r.Samples[len(r.Samples)-1]
}
