package telemetry

import (
	"sort"
	"sync"
)

type Sample struct {
	T float64
	V float64
}

// Recorder keeps the latest value of every key and a bounded numeric history.
type Recorder struct {
	mu        sync.Mutex
	t         float64
	maxPerKey int
	latest    map[string]any
	series    map[string][]Sample
}

// NewRecorder creates a recorder. maxPerKey <= 0 keeps every sample.
func NewRecorder(maxPerKey int) *Recorder {
	return &Recorder{
		maxPerKey: maxPerKey,
		latest:    make(map[string]any),
		series:    make(map[string][]Sample),
	}
}

func (r *Recorder) Stamp(t float64) {
	r.mu.Lock()
	r.t = t
	r.mu.Unlock()
}

func (r *Recorder) Record(key string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.latest[key] = value
	Flatten(key, value, func(k string, v float64) {
		s := r.series[k]
		if n := len(s); n > 0 && s[n-1].T == r.t {
			s[n-1].V = v
			return
		}
		if r.maxPerKey > 0 && len(s) >= r.maxPerKey {
			s = s[1:]
		}
		r.series[k] = append(s, Sample{T: r.t, V: v})
	})
}

func (r *Recorder) Latest(key string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.latest[key]
	return v, ok
}

// Text is the latest value of key when it was recorded as a string.
func (r *Recorder) Text(key string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.latest[key].(string)
	return s, ok
}

// Series returns a copy of the numeric history for key.
func (r *Recorder) Series(key string) []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.series[key]
	out := make([]Sample, len(s))
	copy(out, s)
	return out
}

// Keys lists every numeric series key in sorted order.
func (r *Recorder) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.series))
	for k := range r.series {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.t = 0
	r.latest = make(map[string]any)
	r.series = make(map[string][]Sample)
}
