package telemetry

import (
	"math"
	"sort"
	"time"
)

// Sink receives named telemetry values.
type Sink interface {
	Record(key string, value any)
}

// Stamper is implemented by sinks that tag entries with simulation time.
type Stamper interface {
	Stamp(simTime float64)
}

// Fielder is implemented by structured values that expand into scalar fields.
type Fielder interface {
	Fields() map[string]float64
}

type Nop struct{}

func (Nop) Record(string, any) {}

type scoped struct {
	sink   Sink
	prefix string
}

// Scope returns a sink that prefixes every key with prefix + "/".
func Scope(sink Sink, prefix string) Sink {
	if sink == nil {
		return Nop{}
	}
	if s, ok := sink.(scoped); ok {
		return scoped{sink: s.sink, prefix: s.prefix + "/" + prefix}
	}
	return scoped{sink: sink, prefix: prefix}
}

func (s scoped) Record(key string, value any) {
	s.sink.Record(s.prefix+"/"+key, value)
}

type multi []Sink

// Multi fans out to every sink, forwarding Stamp to those that accept it.
func Multi(sinks ...Sink) Sink {
	out := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m multi) Record(key string, value any) {
	for _, s := range m {
		s.Record(key, value)
	}
}

func (m multi) Stamp(t float64) {
	for _, s := range m {
		if st, ok := s.(Stamper); ok {
			st.Stamp(t)
		}
	}
}

// Stamp forwards simTime to sink when it is a Stamper.
func Stamp(sink Sink, simTime float64) {
	if st, ok := sink.(Stamper); ok {
		st.Stamp(simTime)
	}
}

// Flatten converts value into numeric entries. Strings and other
// non-numeric values produce no entries and non-finite numbers are dropped.
func Flatten(key string, value any, fn func(key string, v float64)) {
	emit := func(k string, v float64) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return
		}
		fn(k, v)
	}

	switch v := value.(type) {
	case float64:
		emit(key, v)
	case float32:
		emit(key, float64(v))
	case int:
		emit(key, float64(v))
	case int64:
		emit(key, float64(v))
	case int32:
		emit(key, float64(v))
	case uint64:
		emit(key, float64(v))
	case bool:
		if v {
			emit(key, 1)
		} else {
			emit(key, 0)
		}
	case time.Duration:
		emit(key, v.Seconds())
	case Fielder:
		fields := v.Fields()
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			emit(key+"/"+name, fields[name])
		}
	}
}
