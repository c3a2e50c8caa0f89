package motor

// GearRatio is rotor rotations per mechanism rotation. Values above 1 reduce speed.
type GearRatio float64

// Reduction is an n:1 reduction.
func Reduction(n float64) GearRatio {
	return GearRatio(n)
}

// Overdrive is a 1:n speed-up.
func Overdrive(n float64) GearRatio {
	return GearRatio(1 / n)
}

// Then chains another stage after g.
func (g GearRatio) Then(next GearRatio) GearRatio {
	return g * next
}

func (g GearRatio) Value() float64 {
	return float64(g)
}
