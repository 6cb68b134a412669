package optimize

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/hddwater/bargesim/sim"
)

// LocalOptions configures a hill climb.
type LocalOptions struct {
	Start  sim.Fleet
	Bounds Bounds
	// MaxIterations caps the number of moves; defaults to 50.
	MaxIterations int
}

// LocalResult is the outcome of a hill climb or a smart fleet search.
type LocalResult struct {
	Optimal Result   `json:"optimal"`
	Path    []Result `json:"path"` // every accepted fleet, start first
	Tested  int      `json:"totalTested"`
}

// neighbours returns every fleet one unit away from f inside b, in a fixed
// order: each dimension down, then up.
func neighbours(f sim.Fleet, b Bounds) []sim.Fleet {
	dims := []func(*sim.Fleet) *int{
		func(f *sim.Fleet) *int { return &f.Tugs },
		func(f *sim.Fleet) *int { return &f.SmallTransport },
		func(f *sim.Fleet) *int { return &f.SmallStorage },
		func(f *sim.Fleet) *int { return &f.LargeTransport },
		func(f *sim.Fleet) *int { return &f.LargeStorage },
	}
	var out []sim.Fleet
	for _, dim := range dims {
		for _, step := range []int{-1, 1} {
			n := f
			*dim(&n) += step
			if b.Contains(n) {
				out = append(out, n)
			}
		}
	}
	return out
}

// LocalOptimize climbs from Start to the best neighbouring fleet until no
// neighbour lowers the score or MaxIterations moves have been made.
func (r *Runner) LocalOptimize(ctx context.Context, opts LocalOptions) (*LocalResult, error) {
	if err := opts.Bounds.Validate(); err != nil {
		return nil, err
	}
	before := r.Runs()
	current, err := r.Evaluate(opts.Bounds.Clamp(opts.Start))
	if err != nil {
		return nil, err
	}
	path, err := r.climb(ctx, current, opts)
	if err != nil {
		return nil, err
	}
	return &LocalResult{Optimal: path[len(path)-1], Path: path, Tested: r.Runs() - before}, nil
}

func (r *Runner) climb(ctx context.Context, current Result, opts LocalOptions) ([]Result, error) {
	limit := opts.MaxIterations
	if limit <= 0 {
		limit = 50
	}
	path := []Result{current}
	for range limit {
		results, err := r.EvaluateAll(ctx, neighbours(current.Fleet, opts.Bounds))
		if err != nil {
			return nil, err
		}
		if len(results) == 0 {
			break
		}
		sortResults(results)
		if results[0].Score >= current.Score {
			break
		}
		current = results[0]
		path = append(path, current)
		logrus.Infof("local optimizer: moved to %s (score %.0f, %d ran dry)",
			current.Fleet, current.Score, current.RanDryCount)
	}
	return path, nil
}
