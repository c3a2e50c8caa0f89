// Package battery models supply voltage sag under load.
//
// Each registered appliance reports the current it draws; the battery voltage
// is the nominal voltage minus the total current times the internal resistance,
// clamped to [0, nominal]. Electrical dynamics beyond that are not modelled.
package battery

import (
	"math"
	"sync"

	"github.com/san-kum/fieldsim/internal/dynamo"
)

const (
	NominalVoltage     = 12.0
	InternalResistance = 0.02
)

// CurrentSource reports a supply-side current draw in amps.
type CurrentSource interface {
	SupplyCurrent() float64
}

// CurrentFunc adapts a function to CurrentSource.
type CurrentFunc func() float64

func (f CurrentFunc) SupplyCurrent() float64 { return f() }

type Battery struct {
	mu      sync.RWMutex
	sources map[any]CurrentSource
}

func New() *Battery {
	return &Battery{sources: make(map[any]CurrentSource)}
}

// Add registers src under key, replacing any previous source with that key.
// Mechanisms register themselves as their own key.
func (b *Battery) Add(key any, src CurrentSource) {
	b.mu.Lock()
	b.sources[key] = src
	b.mu.Unlock()
}

// AddAppliance registers an arbitrary draw and returns a function removing it.
func (b *Battery) AddAppliance(fn func() float64) (remove func()) {
	key := new(int)
	b.Add(key, CurrentFunc(fn))
	return func() { b.Remove(key) }
}

func (b *Battery) Remove(key any) {
	b.mu.Lock()
	delete(b.sources, key)
	b.mu.Unlock()
}

// Current is the total draw. Regenerating loads reduce it.
func (b *Battery) Current() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var total float64
	for _, src := range b.sources {
		if c := src.SupplyCurrent(); dynamo.Finite(c) {
			total += c
		}
	}
	return total
}

// Voltage is the sagged supply voltage.
func (b *Battery) Voltage() float64 {
	v := NominalVoltage - b.Current()*InternalResistance
	return math.Max(0, math.Min(NominalVoltage, v))
}
