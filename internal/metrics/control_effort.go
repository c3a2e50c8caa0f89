package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/fieldsim/internal/sim"
)

// ControlEffort is the mean absolute drive voltage, summed over modules.
type ControlEffort struct {
	name    string
	efforts []float64
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{
		name: "control_effort",
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(s sim.Sample) {
	var sum float64
	for _, v := range s.DriveVoltages {
		sum += math.Abs(v)
	}
	c.efforts = append(c.efforts, sum)
}

func (c *ControlEffort) Value() float64 {
	if len(c.efforts) == 0 {
		return 0
	}
	return stat.Mean(c.efforts, nil)
}

func (c *ControlEffort) Reset() {
	c.efforts = c.efforts[:0]
}
