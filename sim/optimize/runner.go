// Package optimize searches fleet compositions for the cheapest configuration
// in which no rig runs dry. Every search treats the simulator as a black box:
// it builds a fleet, runs a full campaign in optimization mode and ranks the
// outcome by score (grand total cost plus the ran-dry penalty).
//
// Searches run independent simulations on a bounded worker pool. Results are
// collected by position and sorted with a total order, so the outcome does
// not depend on the number of workers.
package optimize

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/hddwater/bargesim/sim"
)

// Result is the outcome of simulating one fleet.
type Result struct {
	Fleet         sim.Fleet         `json:"fleet"`
	Score         float64           `json:"score"`
	Cost          float64           `json:"cost"`
	RanDryCount   int               `json:"ranDryCount"`
	TotalDeficit  float64           `json:"totalDeficit"`
	DowntimeHours float64           `json:"downtimeHours"`
	Costs         sim.CostBreakdown `json:"costs"`
}

// ZeroRanDry reports whether every rig was supplied throughout.
func (r Result) ZeroRanDry() bool { return r.RanDryCount == 0 }

// Runner evaluates fleets against one project. It caches every result, so a
// fleet is simulated at most once per Runner. Safe for concurrent use.
type Runner struct {
	cfg     sim.Config
	oracle  sim.DistanceOracle
	workers int

	mu    sync.Mutex
	cache map[sim.Fleet]Result
}

// NewRunner checks that cfg can be simulated at all and returns a runner
// using workers goroutines (GOMAXPROCS when workers <= 0).
func NewRunner(cfg sim.Config, oracle sim.DistanceOracle, workers int) (*Runner, error) {
	if _, err := sim.NewSimulator(cfg, sim.Fleet{}, oracle, sim.Options{OptimizationMode: true}); err != nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Runner{cfg: cfg, oracle: oracle, workers: workers, cache: make(map[sim.Fleet]Result)}, nil
}

// Config returns the configuration every fleet is simulated with.
func (r *Runner) Config() sim.Config { return r.cfg }

// Runs is the number of distinct fleets simulated so far.
func (r *Runner) Runs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}

// Evaluate simulates f, or returns the cached result.
func (r *Runner) Evaluate(f sim.Fleet) (Result, error) {
	r.mu.Lock()
	res, ok := r.cache[f]
	r.mu.Unlock()
	if ok {
		return res, nil
	}

	s, err := sim.NewSimulator(r.cfg, f, r.oracle, sim.Options{OptimizationMode: true})
	if err != nil {
		return Result{}, fmt.Errorf("fleet %s: %w", f, err)
	}
	rep := s.Run()
	res = Result{
		Fleet:         f,
		Score:         rep.Score,
		Cost:          rep.Costs.GrandTotal,
		RanDryCount:   rep.RanDryCount,
		TotalDeficit:  rep.TotalDeficit,
		DowntimeHours: rep.DowntimeHours,
		Costs:         rep.Costs,
	}
	logrus.Debugf("fleet %s: score %.0f, %d ran dry", f, res.Score, res.RanDryCount)

	r.mu.Lock()
	r.cache[f] = res
	r.mu.Unlock()
	return res, nil
}

// EvaluateAll simulates every fleet on the worker pool and returns the results
// in input order. It stops early with ctx's error when ctx is cancelled.
func (r *Runner) EvaluateAll(ctx context.Context, fleets []sim.Fleet) ([]Result, error) {
	results := make([]Result, len(fleets))
	errs := make([]error, len(fleets))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for range min(r.workers, len(fleets)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i], errs[i] = r.Evaluate(fleets[i])
			}
		}()
	}

feed:
	for i := range fleets {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// sortResults orders results by ascending score, then by fewer ran-dry
// events, then by fleet notation.
func sortResults(rs []Result) {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].Score != rs[j].Score {
			return rs[i].Score < rs[j].Score
		}
		if rs[i].RanDryCount != rs[j].RanDryCount {
			return rs[i].RanDryCount < rs[j].RanDryCount
		}
		return rs[i].Fleet.String() < rs[j].Fleet.String()
	})
}

// bestZeroRanDry is the lowest-scoring result with no ran-dry events, or nil.
func bestZeroRanDry(sorted []Result) *Result {
	for i := range sorted {
		if sorted[i].ZeroRanDry() {
			best := sorted[i]
			return &best
		}
	}
	return nil
}
