// Package gyro simulates a yaw-rate gyroscope with drift and noise.
package gyro

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/telemetry"
)

const (
	// impactThreshold is the angular acceleration (rad/s²) above which a
	// collision is assumed to knock the sensor off.
	impactThreshold = 500.0
	// impactDrift is the heading error (rad) added per threshold multiple.
	impactDrift = 1.0
	// maxImpactMultiples caps the threshold multiples counted in one sub-tick.
	maxImpactMultiples = 10.0
)

// Config describes the sensor's error characteristics.
type Config struct {
	// DriftDegreesPer30s is the heading drift while motionless.
	DriftDegreesPer30s float64
	// VelocityStdDev is the rate noise as a fraction of the true rate.
	VelocityStdDev float64
}

func Pigeon2() Config {
	return Config{DriftDegreesPer30s: 0.5, VelocityStdDev: 0.02}
}

func NavX2() Config {
	return Config{DriftDegreesPer30s: 2, VelocityStdDev: 0.04}
}

// Ideal has no drift and no noise.
func Ideal() Config {
	return Config{}
}

var Presets = map[string]func() Config{
	"pigeon2": Pigeon2,
	"navx2":   NavX2,
	"ideal":   Ideal,
}

// Gyro turns the chassis's true yaw rate into a measured rate and heading.
type Gyro struct {
	driftRate float64
	stdDev    float64
	rng       *rand.Rand
	sink      telemetry.Sink
	onUpdate  func(rate, yaw float64)

	mu         sync.RWMutex
	lastRate   float64
	lastActual float64
	yaw        float64
}

type Option func(*Gyro)

func WithSeed(seed uint64) Option {
	return func(g *Gyro) { g.rng = rand.New(rand.NewPCG(seed, 0x9e3779b97f4a7c15)) }
}

func WithSink(sink telemetry.Sink) Option {
	return func(g *Gyro) { g.sink = sink }
}

// WithUpdateHook is called after every update with the measured rate and yaw.
func WithUpdateHook(fn func(rate, yaw float64)) Option {
	return func(g *Gyro) { g.onUpdate = fn }
}

func New(cfg Config, opts ...Option) *Gyro {
	g := &Gyro{
		driftRate: cfg.DriftDegreesPer30s * math.Pi / 180 / 30,
		stdDev:    math.Abs(cfg.VelocityStdDev),
		sink:      telemetry.Nop{},
	}
	WithSeed(0)(g)
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Update feeds the true angular velocity for one sub-tick and returns the measured rate.
func (g *Gyro) Update(actualRate, dt float64) float64 {
	if dt <= 0 {
		return g.Rate()
	}

	g.mu.Lock()
	// Impacts are detected on the true rate; the drift they add never feeds back.
	accel := (actualRate - g.lastActual) / dt
	var impact float64
	if math.Abs(accel) > impactThreshold {
		multiples := math.Min(math.Abs(accel)/impactThreshold, maxImpactMultiples)
		impact = impactDrift * dynamo.Signum(accel) * multiples / dt
	}
	var noise float64
	if g.stdDev > 0 {
		noise = actualRate * g.stdDev * g.rng.NormFloat64()
	}
	measured := actualRate + g.driftRate + impact + noise

	g.lastRate = measured
	g.lastActual = actualRate
	g.yaw += measured * dt
	yaw := g.yaw
	g.mu.Unlock()

	g.sink.Record("rate", measured)
	g.sink.Record("yaw", yaw)
	if impact != 0 {
		g.sink.Record("impactDrift", impact)
	}
	if g.onUpdate != nil {
		g.onUpdate(measured, yaw)
	}
	return measured
}

// Rate is the last measured angular velocity.
func (g *Gyro) Rate() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.lastRate
}

// Yaw is the integral of the measured rate.
func (g *Gyro) Yaw() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.yaw
}

// SetYaw resets the integrated heading, e.g. when the chassis is teleported.
func (g *Gyro) SetYaw(yaw float64) {
	g.mu.Lock()
	g.yaw = yaw
	g.mu.Unlock()
}

// Reset sets both the heading and the previous rate used for impact detection.
func (g *Gyro) Reset(yaw, rate float64) {
	g.mu.Lock()
	g.yaw = yaw
	g.lastRate = rate
	g.lastActual = rate
	g.mu.Unlock()
}
