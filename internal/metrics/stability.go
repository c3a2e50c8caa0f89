package metrics

import (
	"math"

	"github.com/san-kum/fieldsim/internal/sim"
)

// Stability is the fraction of periods in which the chassis stayed under
// the speed threshold, linear (m/s) and angular (rad/s) alike.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(x sim.Sample) {
	s.samples++
	if x.Speeds.Linear().Len() > s.threshold || math.Abs(x.Speeds.Omega) > s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
