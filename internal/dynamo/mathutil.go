package dynamo

import "math"

// Epsilon is the smallest denominator the simulation divides by.
const Epsilon = 1e-9

// Signum returns -1, 0 or 1.
func Signum(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// NudgeZero snaps values within tolerance of zero to exactly zero.
func NudgeZero(x, tolerance float64) float64 {
	if math.Abs(x) < tolerance {
		return 0
	}
	return x
}

func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// ClampToStop limits an acceleration so that it can at most bring a velocity
// to zero within one step. needed is -velocity/dt.
func ClampToStop(accel, needed float64) float64 {
	if needed < 0 {
		if accel < needed {
			return needed
		}
		return accel
	}
	if accel > needed {
		return needed
	}
	return accel
}

// SafeDiv returns num/den, or fallback when |den| is below Epsilon.
func SafeDiv(num, den, fallback float64) float64 {
	if math.Abs(den) < Epsilon {
		return fallback
	}
	return num / den
}

// Finite reports whether every value is neither NaN nor Inf.
func Finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
