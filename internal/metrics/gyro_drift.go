package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/fieldsim/internal/sim"
)

// GyroDrift is the RMS difference between the gyro's yaw and the chassis's
// true heading, in radians.
type GyroDrift struct {
	name    string
	squares []float64
}

func NewGyroDrift() *GyroDrift {
	return &GyroDrift{name: "gyro_drift"}
}

func (g *GyroDrift) Name() string { return g.name }

func (g *GyroDrift) Observe(s sim.Sample) {
	e := math.Remainder(s.GyroYaw-s.Pose.Heading, 2*math.Pi)
	g.squares = append(g.squares, e*e)
}

func (g *GyroDrift) Value() float64 {
	if len(g.squares) == 0 {
		return 0
	}
	return math.Sqrt(stat.Mean(g.squares, nil))
}

func (g *GyroDrift) Reset() {
	g.squares = g.squares[:0]
}
