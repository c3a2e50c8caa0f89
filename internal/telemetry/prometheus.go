package telemetry

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// GaugeSink exports numeric telemetry as a single GaugeVec labelled by key.
type GaugeSink struct {
	gauges *prometheus.GaugeVec
}

func NewGaugeSink(reg prometheus.Registerer, namespace string) (*GaugeSink, error) {
	g := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "telemetry_value",
		Help:      "Latest value of each telemetry key.",
	}, []string{"key"})
	existing, err := register(reg, g)
	if err != nil {
		return nil, err
	}
	return &GaugeSink{gauges: existing.(*prometheus.GaugeVec)}, nil
}

func (s *GaugeSink) Record(key string, value any) {
	Flatten(key, value, func(k string, v float64) {
		s.gauges.WithLabelValues(k).Set(v)
	})
}

// Gauge returns the gauge for key, mainly for inspection.
func (s *GaugeSink) Gauge(key string) prometheus.Gauge {
	return s.gauges.WithLabelValues(key)
}

// ArenaMetrics are the arena-level series exported per control period.
type ArenaMetrics struct {
	PeriodSeconds prometheus.Histogram
	Pieces        *prometheus.GaugeVec
	Scored        *prometheus.CounterVec
	Robots        prometheus.Gauge
	SimTime       prometheus.Gauge
}

func NewArenaMetrics(reg prometheus.Registerer, namespace string) (*ArenaMetrics, error) {
	m := &ArenaMetrics{
		PeriodSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "period_cpu_seconds",
			Help:      "CPU time spent advancing one control period.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		Pieces: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "game_pieces",
			Help:      "Game pieces by state.",
		}, []string{"state"}),
		Scored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "game_pieces_scored_total",
			Help:      "Game pieces that entered a target, by variant.",
		}, []string{"variant"}),
		Robots: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "robots",
			Help:      "Robots registered with the arena.",
		}),
		SimTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sim_time_seconds",
			Help:      "Simulated time elapsed.",
		}),
	}

	c, err := register(reg, m.PeriodSeconds)
	if err != nil {
		return nil, err
	}
	m.PeriodSeconds = c.(prometheus.Histogram)
	if c, err = register(reg, m.Pieces); err != nil {
		return nil, err
	}
	m.Pieces = c.(*prometheus.GaugeVec)
	if c, err = register(reg, m.Scored); err != nil {
		return nil, err
	}
	m.Scored = c.(*prometheus.CounterVec)
	if c, err = register(reg, m.Robots); err != nil {
		return nil, err
	}
	m.Robots = c.(prometheus.Gauge)
	if c, err = register(reg, m.SimTime); err != nil {
		return nil, err
	}
	m.SimTime = c.(prometheus.Gauge)
	return m, nil
}

// register reuses an already registered collector of the same description.
func register(reg prometheus.Registerer, c prometheus.Collector) (prometheus.Collector, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector, nil
		}
		return nil, err
	}
	return c, nil
}
