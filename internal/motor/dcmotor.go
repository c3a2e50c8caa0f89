package motor

import "math"

// DCMotor is a linear DC motor curve, possibly for several motors ganged on one gearbox.
type DCMotor struct {
	NominalVoltage float64
	StallTorque    float64
	StallCurrent   float64
	FreeCurrent    float64
	FreeSpeed      float64

	// Derived curve constants.
	R  float64
	Kv float64
	Kt float64
}

// NewDCMotor builds a curve from datasheet values. freeSpeed is in rad/s.
// count multiplies the currents and stall torque for ganged motors.
func NewDCMotor(nominalVoltage, stallTorque, stallCurrent, freeCurrent, freeSpeed float64, count int) DCMotor {
	if count < 1 {
		count = 1
	}
	n := float64(count)
	m := DCMotor{
		NominalVoltage: nominalVoltage,
		StallTorque:    stallTorque * n,
		StallCurrent:   stallCurrent * n,
		FreeCurrent:    freeCurrent * n,
		FreeSpeed:      freeSpeed,
	}
	m.R = nominalVoltage / m.StallCurrent
	m.Kv = freeSpeed / (nominalVoltage - m.R*m.FreeCurrent)
	m.Kt = m.StallTorque / m.StallCurrent
	return m
}

// Current drawn at the given rotor speed (rad/s) and terminal voltage.
func (m DCMotor) Current(speed, voltage float64) float64 {
	return voltage/m.R - speed/(m.Kv*m.R)
}

func (m DCMotor) Torque(current float64) float64 {
	return m.Kt * current
}

// CurrentForTorque inverts Torque.
func (m DCMotor) CurrentForTorque(torque float64) float64 {
	return torque / m.Kt
}

// Voltage needed to hold torque at speed.
func (m DCMotor) Voltage(torque, speed float64) float64 {
	return speed/m.Kv + m.R*torque/m.Kt
}

// Speed reached under torque at voltage.
func (m DCMotor) Speed(torque, voltage float64) float64 {
	return voltage*m.Kv - m.R*torque*m.Kv/m.Kt
}

// FreeSpeedAt is the unloaded steady-state speed at voltage.
func (m DCMotor) FreeSpeedAt(voltage float64) float64 {
	return m.Kv * voltage
}

// TimeConstant is the mechanical time constant of the motor driving inertia j.
func (m DCMotor) TimeConstant(j float64) float64 {
	return j * m.R / (m.Kt / m.Kv)
}

func rpm(v float64) float64 {
	return v * 2 * math.Pi / 60
}

func Falcon500(count int) DCMotor {
	return NewDCMotor(12, 4.69, 257, 1.5, rpm(6380), count)
}

func KrakenX60(count int) DCMotor {
	return NewDCMotor(12, 7.09, 366, 2, rpm(6000), count)
}

func KrakenX60FOC(count int) DCMotor {
	return NewDCMotor(12, 9.37, 483, 2, rpm(5800), count)
}

func NEO(count int) DCMotor {
	return NewDCMotor(12, 2.6, 105, 1.8, rpm(5676), count)
}

func NEO550(count int) DCMotor {
	return NewDCMotor(12, 0.97, 100, 1.4, rpm(11000), count)
}

func NEOVortex(count int) DCMotor {
	return NewDCMotor(12, 3.6, 211, 3.6, rpm(6784), count)
}

func CIM(count int) DCMotor {
	return NewDCMotor(12, 2.42, 133, 2.7, rpm(5310), count)
}

// Presets maps config names to motor constructors.
var Presets = map[string]func(count int) DCMotor{
	"falcon500":      Falcon500,
	"kraken_x60":     KrakenX60,
	"kraken_x60_foc": KrakenX60FOC,
	"neo":            NEO,
	"neo550":         NEO550,
	"neo_vortex":     NEOVortex,
	"cim":            CIM,
}
