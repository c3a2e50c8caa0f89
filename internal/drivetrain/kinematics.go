package drivetrain

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/geom"
)

// ModuleState is a wheel's ground speed (m/s) and heading relative to the chassis.
type ModuleState struct {
	Speed float64
	Angle float64
}

// ModulePosition is a wheel's accumulated distance and heading.
type ModulePosition struct {
	Distance float64
	Angle    float64
}

// Kinematics maps between chassis speeds and module states. The forward
// direction is a least-squares fit since modules over-determine the chassis.
type Kinematics struct {
	modules []mgl64.Vec2
	forward *mat.Dense
}

func NewKinematics(modules []mgl64.Vec2) (*Kinematics, error) {
	n := len(modules)
	inverse := mat.NewDense(2*n, 3, nil)
	for i, m := range modules {
		inverse.SetRow(2*i, []float64{1, 0, -m[1]})
		inverse.SetRow(2*i+1, []float64{0, 1, m[0]})
	}

	var normal mat.Dense
	normal.Mul(inverse.T(), inverse)
	var normalInv mat.Dense
	if err := normalInv.Inverse(&normal); err != nil {
		return nil, fmt.Errorf("module layout is degenerate (%v): %w", err, dynamo.ErrUnsupportedDrivetrain)
	}

	forward := mat.NewDense(3, 2*n, nil)
	forward.Mul(&normalInv, inverse.T())

	mods := make([]mgl64.Vec2, n)
	copy(mods, modules)
	return &Kinematics{modules: mods, forward: forward}, nil
}

func (k *Kinematics) Modules() []mgl64.Vec2 {
	out := make([]mgl64.Vec2, len(k.modules))
	copy(out, k.modules)
	return out
}

// ToModuleStates converts robot-relative chassis speeds to per-module states.
// Stationary modules report angle 0.
func (k *Kinematics) ToModuleStates(s geom.ChassisSpeeds) []ModuleState {
	states := make([]ModuleState, len(k.modules))
	for i, m := range k.modules {
		vx := s.Vx - s.Omega*m[1]
		vy := s.Vy + s.Omega*m[0]
		speed := math.Hypot(vx, vy)
		if speed < dynamo.Epsilon {
			continue
		}
		states[i] = ModuleState{Speed: speed, Angle: math.Atan2(vy, vx)}
	}
	return states
}

// ToChassisSpeeds is the least-squares robot-relative chassis motion implied by states.
func (k *Kinematics) ToChassisSpeeds(states []ModuleState) geom.ChassisSpeeds {
	n := len(k.modules)
	b := mat.NewVecDense(2*n, nil)
	for i := 0; i < n && i < len(states); i++ {
		s, c := math.Sincos(states[i].Angle)
		b.SetVec(2*i, states[i].Speed*c)
		b.SetVec(2*i+1, states[i].Speed*s)
	}
	var x mat.VecDense
	x.MulVec(k.forward, b)
	return geom.ChassisSpeeds{Vx: x.AtVec(0), Vy: x.AtVec(1), Omega: x.AtVec(2)}
}
