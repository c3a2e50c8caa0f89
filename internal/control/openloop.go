package control

import (
	"math"
	"sync/atomic"

	"github.com/san-kum/fieldsim/internal/mechanism"
)

// OpenLoop applies a manually set voltage.
type OpenLoop struct {
	volts atomic.Uint64
	brake atomic.Bool
}

func NewOpenLoop(volts float64) *OpenLoop {
	c := &OpenLoop{}
	c.SetVoltage(volts)
	return c
}

// SetVoltage changes the commanded voltage.
func (c *OpenLoop) SetVoltage(volts float64) {
	c.volts.Store(math.Float64bits(volts))
}

func (c *OpenLoop) Voltage() float64 {
	return math.Float64frombits(c.volts.Load())
}

func (c *OpenLoop) SetBrake(on bool) {
	c.brake.Store(on)
}

func (c *OpenLoop) Run(dt, supplyVoltage float64, rotor mechanism.State) float64 {
	return c.Voltage()
}

func (c *OpenLoop) BrakeEnabled() bool {
	return c.brake.Load()
}
