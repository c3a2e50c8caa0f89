package control

import "math"

type PID struct {
	Kp float64
	Ki float64
	Kd float64

	// IntegralRange bounds the accumulated integral term; 0 disables the bound.
	IntegralRange float64

	integral float64
	prevErr  float64
	first    bool
}

func NewPID(kp, ki, kd float64) *PID {
	return &PID{
		Kp:    kp,
		Ki:    ki,
		Kd:    kd,
		first: true,
	}
}

// Calculate returns the feedback output for one step of length dt.
func (p *PID) Calculate(measurement, setpoint, dt float64) float64 {
	err := setpoint - measurement

	if p.first || dt <= 0 {
		p.prevErr = err
		p.first = false
		return p.Kp*err + p.Ki*p.integral
	}

	p.integral += err * dt
	if p.IntegralRange > 0 && p.Ki != 0 {
		limit := p.IntegralRange / math.Abs(p.Ki)
		p.integral = math.Max(-limit, math.Min(limit, p.integral))
	}
	derivative := (err - p.prevErr) / dt
	p.prevErr = err

	return p.Kp*err + p.Ki*p.integral + p.Kd*derivative
}

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.first = true
}

// GetParams returns tunable parameters for live adjustment
func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp": p.Kp,
		"Ki": p.Ki,
		"Kd": p.Kd,
	}
}

// SetParam adjusts a PID parameter
func (p *PID) SetParam(name string, value float64) {
	switch name {
	case "Kp":
		p.Kp = value
	case "Ki":
		p.Ki = value
	case "Kd":
		p.Kd = value
	}
}
