package control

import "github.com/san-kum/fieldsim/internal/mechanism"

// None never drives its mechanism and lets it coast.
type None struct{}

func NewNone() None {
	return None{}
}

func (None) Run(float64, float64, mechanism.State) float64 { return 0 }
func (None) BrakeEnabled() bool                            { return false }
