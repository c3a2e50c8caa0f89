package sim

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/fieldsim/internal/telemetry"
)

// Ensemble runs seeded copies of a runner concurrently. Copies share the
// runner's metrics and observers but not its sink or arena metrics, so
// observers must be safe for concurrent use.
type Ensemble struct {
	base      *Runner
	numRuns   int
	seedStart uint64
	limit     int
}

func NewEnsemble(r *Runner, numRuns int, seedStart uint64) *Ensemble {
	return &Ensemble{base: r, numRuns: numRuns, seedStart: seedStart, limit: runtime.GOMAXPROCS(0)}
}

// SetLimit caps the number of runs in flight.
func (e *Ensemble) SetLimit(n int) *Ensemble {
	if n > 0 {
		e.limit = n
	}
	return e
}

// Run returns one result per seed, in seed order. The first failing run
// cancels the rest.
func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit)
	for i := 0; i < e.numRuns; i++ {
		g.Go(func() error {
			cfgCopy := cfg
			cfgCopy.Seed = e.seedStart + uint64(i)

			r := *e.base
			r.sink = telemetry.Nop{}
			r.arena = nil

			res, err := r.Run(ctx, cfgCopy)
			results[i] = res
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Summary is a metric's spread across an ensemble.
type Summary struct {
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Summarize reduces every metric, plus the score count, across results.
func Summarize(results []*Result) map[string]Summary {
	values := make(map[string][]float64)
	for _, r := range results {
		if r == nil {
			continue
		}
		for name, v := range r.Metrics {
			values[name] = append(values[name], v)
		}
		values["scored"] = append(values["scored"], float64(r.Scored))
	}

	out := make(map[string]Summary, len(values))
	for name, xs := range values {
		sorted := append([]float64(nil), xs...)
		sort.Float64s(sorted)
		s := Summary{
			Mean: stat.Mean(xs, nil),
			Min:  sorted[0],
			Max:  sorted[len(sorted)-1],
		}
		if len(xs) > 1 {
			s.StdDev = stat.StdDev(xs, nil)
		}
		out[name] = s
	}
	return out
}
