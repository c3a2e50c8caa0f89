package metrics

import (
	"math"

	"github.com/san-kum/fieldsim/internal/battery"
	"github.com/san-kum/fieldsim/internal/sim"
)

// Energy is the electrical energy drawn from the battery, in joules.
type Energy struct {
	name   string
	period float64
	total  float64
}

func NewEnergy(period float64) *Energy {
	return &Energy{
		name:   "energy",
		period: period,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(s sim.Sample) {
	e.total += s.SupplyVoltage * s.SupplyCurrent * e.period
}

func (e *Energy) Value() float64 {
	return e.total
}

func (e *Energy) Reset() {
	e.total = 0
}

// VoltageSag is the deepest drop of the supply voltage below nominal.
type VoltageSag struct {
	name   string
	maxSag float64
}

func NewVoltageSag() *VoltageSag {
	return &VoltageSag{
		name: "voltage_sag",
	}
}

func (v *VoltageSag) Name() string { return v.name }

func (v *VoltageSag) Observe(s sim.Sample) {
	v.maxSag = math.Max(v.maxSag, battery.NominalVoltage-s.SupplyVoltage)
}

func (v *VoltageSag) Value() float64 {
	return v.maxSag
}

func (v *VoltageSag) Reset() {
	v.maxSag = 0
}
