package optimize

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/hddwater/bargesim/sim"
)

// SmartOptions configures a smart fleet search.
type SmartOptions struct {
	Bounds Bounds
	// MaxGrowth caps the number of single-asset additions made while the
	// fleet still runs dry; defaults to 20.
	MaxGrowth int
	// MaxIterations is passed to the final hill climb.
	MaxIterations int
}

// SmartFleetFinder sizes a starting fleet from the campaign's mass balance,
// adds one asset at a time (whichever removes the most ran-dry events, then
// the lowest score) until no rig runs dry, then hill-climbs to trim cost.
func (r *Runner) SmartFleetFinder(ctx context.Context, opts SmartOptions) (*LocalResult, error) {
	if err := opts.Bounds.Validate(); err != nil {
		return nil, err
	}
	mb, err := NewMassBalance(r.cfg, r.oracle)
	if err != nil {
		return nil, err
	}
	before := r.Runs()
	start := opts.Bounds.Clamp(mb.Estimate())
	logrus.Infof("smart fleet finder: estimated start %s (peak %.0f gal/day)", start, mb.PeakDailyDemand)

	current, err := r.Evaluate(start)
	if err != nil {
		return nil, err
	}
	path := []Result{current}

	growth := opts.MaxGrowth
	if growth <= 0 {
		growth = 20
	}
	for i := 0; i < growth && !current.ZeroRanDry(); i++ {
		results, err := r.EvaluateAll(ctx, additions(current.Fleet, opts.Bounds))
		if err != nil {
			return nil, err
		}
		next, ok := bestGrowth(current, results)
		if !ok {
			break
		}
		current = next
		path = append(path, current)
	}

	climbed, err := r.climb(ctx, current, LocalOptions{Bounds: opts.Bounds, MaxIterations: opts.MaxIterations})
	if err != nil {
		return nil, err
	}
	path = append(path, climbed[1:]...)
	return &LocalResult{Optimal: path[len(path)-1], Path: path, Tested: r.Runs() - before}, nil
}

// additions returns every fleet with exactly one more asset than f inside b.
func additions(f sim.Fleet, b Bounds) []sim.Fleet {
	var out []sim.Fleet
	for _, n := range neighbours(f, b) {
		if n.Tugs+n.SmallTransport+n.SmallStorage+n.LargeTransport+n.LargeStorage >
			f.Tugs+f.SmallTransport+f.SmallStorage+f.LargeTransport+f.LargeStorage {
			out = append(out, n)
		}
	}
	return out
}

// bestGrowth picks the addition with the fewest ran-dry events, breaking ties
// by score. It reports false when no addition improves on current.
func bestGrowth(current Result, results []Result) (Result, bool) {
	sortResults(results)
	best, found := Result{}, false
	for _, res := range results {
		if !found || res.RanDryCount < best.RanDryCount {
			best, found = res, true
		}
	}
	if !found {
		return Result{}, false
	}
	if best.RanDryCount < current.RanDryCount ||
		(best.RanDryCount == current.RanDryCount && best.Score < current.Score) {
		return best, true
	}
	return Result{}, false
}
