package dynamo

import "sync/atomic"

type Alliance int32

const (
	Blue Alliance = iota
	Red
)

func (a Alliance) String() string {
	if a == Red {
		return "red"
	}
	return "blue"
}

// Enabler reports whether actuators may be driven.
type Enabler interface {
	Enabled() bool
}

// Host mirrors the state the control host (driver station) reports to the simulation.
type Host struct {
	enabled  atomic.Bool
	teleop   atomic.Bool
	alliance atomic.Int32
}

func NewHost() *Host {
	return &Host{}
}

func (h *Host) Enabled() bool {
	return h.enabled.Load()
}

func (h *Host) SetEnabled(on bool) {
	h.enabled.Store(on)
}

func (h *Host) Teleop() bool {
	return h.teleop.Load()
}

func (h *Host) SetTeleop(on bool) {
	h.teleop.Store(on)
}

func (h *Host) Alliance() Alliance {
	return Alliance(h.alliance.Load())
}

func (h *Host) SetAlliance(a Alliance) {
	h.alliance.Store(int32(a))
}

// TeleopEnabled is true when the robot is enabled in teleoperated mode.
func (h *Host) TeleopEnabled() bool {
	return h.Enabled() && h.Teleop()
}

// AlwaysEnabled is an Enabler for hosts without a disabled state.
type AlwaysEnabled struct{}

func (AlwaysEnabled) Enabled() bool { return true }
