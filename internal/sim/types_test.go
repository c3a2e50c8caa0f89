package sim

import (
	"math"
	"testing"

	"github.com/san-kum/fieldsim/internal/geom"
)

func TestSample_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		sample Sample
		valid  bool
	}{
		{"empty", Sample{}, true},
		{"normal", Sample{Time: 1, Pose: geom.NewPose2d(1, 2, 3), DriveVoltages: []float64{1, 2}}, true},
		{"NaN pose", Sample{Pose: geom.NewPose2d(math.NaN(), 0, 0)}, false},
		{"+Inf speed", Sample{Speeds: geom.ChassisSpeeds{Vx: math.Inf(1)}}, false},
		{"-Inf voltage", Sample{DriveVoltages: []float64{0, math.Inf(-1)}}, false},
		{"NaN yaw", Sample{GyroYaw: math.NaN()}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sample.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestResult_Final(t *testing.T) {
	var r Result
	if r.Final().Period != 0 {
		t.Error("expected zero sample for an empty result")
	}
	r.Samples = []Sample{{Period: 1}, {Period: 2}}
	if r.Final().Period != 2 {
		t.Errorf("expected last sample, got period %d", r.Final().Period)
	}
}

func TestSummarize(t *testing.T) {
	results := []*Result{
		{Metrics: map[string]float64{"energy": 10}, Scored: 1},
		{Metrics: map[string]float64{"energy": 20}, Scored: 3},
		nil,
	}

	s := Summarize(results)
	e := s["energy"]
	if e.Mean != 15 || e.Min != 10 || e.Max != 20 {
		t.Errorf("unexpected energy summary %+v", e)
	}
	if math.Abs(e.StdDev-math.Sqrt(50)) > 1e-9 {
		t.Errorf("expected sample stddev %f, got %f", math.Sqrt(50), e.StdDev)
	}
	if s["scored"].Mean != 2 {
		t.Errorf("expected mean score 2, got %f", s["scored"].Mean)
	}
}
