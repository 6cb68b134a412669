package optimize

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/hddwater/bargesim/sim"
)

// TopN is the length of a brute-force leaderboard.
const TopN = 15

// Range is an inclusive count range.
type Range struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

func (r Range) clamp(v int) int { return min(max(v, r.Min), r.Max) }

// Bounds limits every fleet dimension of a search.
type Bounds struct {
	Tugs           Range `json:"tugs" yaml:"tugs"`
	SmallTransport Range `json:"smallTransport" yaml:"small_transport"`
	SmallStorage   Range `json:"smallStorage" yaml:"small_storage"`
	LargeTransport Range `json:"largeTransport" yaml:"large_transport"`
	LargeStorage   Range `json:"largeStorage" yaml:"large_storage"`
}

// DefaultBounds is the search space used when none is given.
func DefaultBounds() Bounds {
	return Bounds{
		Tugs:           Range{1, 8},
		SmallTransport: Range{0, 12},
		SmallStorage:   Range{0, 16},
		LargeTransport: Range{0, 6},
		LargeStorage:   Range{0, 4},
	}
}

// Validate rejects negative or inverted ranges.
func (b Bounds) Validate() error {
	names := []string{"tugs", "small transport", "small storage", "large transport", "large storage"}
	for i, r := range []Range{b.Tugs, b.SmallTransport, b.SmallStorage, b.LargeTransport, b.LargeStorage} {
		if r.Min < 0 || r.Max < r.Min {
			return fmt.Errorf("bounds: %s range [%d, %d] is invalid", names[i], r.Min, r.Max)
		}
	}
	return nil
}

// Contains reports whether f lies inside b.
func (b Bounds) Contains(f sim.Fleet) bool {
	return f == b.Clamp(f)
}

// Clamp moves every dimension of f into b.
func (b Bounds) Clamp(f sim.Fleet) sim.Fleet {
	return sim.Fleet{
		Tugs:           b.Tugs.clamp(f.Tugs),
		SmallTransport: b.SmallTransport.clamp(f.SmallTransport),
		SmallStorage:   b.SmallStorage.clamp(f.SmallStorage),
		LargeTransport: b.LargeTransport.clamp(f.LargeTransport),
		LargeStorage:   b.LargeStorage.clamp(f.LargeStorage),
	}
}

// Fleets enumerates every fleet in b, tugs varying slowest.
func (b Bounds) Fleets() []sim.Fleet {
	var out []sim.Fleet
	for t := b.Tugs.Min; t <= b.Tugs.Max; t++ {
		for st := b.SmallTransport.Min; st <= b.SmallTransport.Max; st++ {
			for ss := b.SmallStorage.Min; ss <= b.SmallStorage.Max; ss++ {
				for lt := b.LargeTransport.Min; lt <= b.LargeTransport.Max; lt++ {
					for ls := b.LargeStorage.Min; ls <= b.LargeStorage.Max; ls++ {
						out = append(out, sim.Fleet{Tugs: t, SmallTransport: st, SmallStorage: ss, LargeTransport: lt, LargeStorage: ls})
					}
				}
			}
		}
	}
	return out
}

// BruteForceOptions configures an exhaustive search.
type BruteForceOptions struct {
	Bounds Bounds
	// Prescreen skips fleets the mass balance rules out. Off by default.
	Prescreen bool
	// PrescreenSlack scales the delivery estimate; defaults to 1.25.
	PrescreenSlack float64
}

// SearchResult is the outcome of a brute-force search.
type SearchResult struct {
	Top            []Result `json:"top15"`
	BestZeroRanDry *Result  `json:"bestZeroRanDry,omitempty"`
	Tested         int      `json:"tested"`
	Screened       int      `json:"screened"`
	Summary        Summary  `json:"summary"`
}

// BruteForce simulates every fleet within the bounds, optionally skipping
// those the mass balance rules out, and returns the best TopN by score plus
// the best zero-ran-dry result across all of them.
func (r *Runner) BruteForce(ctx context.Context, opts BruteForceOptions) (*SearchResult, error) {
	if err := opts.Bounds.Validate(); err != nil {
		return nil, err
	}
	fleets := opts.Bounds.Fleets()
	res := &SearchResult{}

	if opts.Prescreen {
		slack := opts.PrescreenSlack
		if slack <= 0 {
			slack = 1.25
		}
		mb, err := NewMassBalance(r.cfg, r.oracle)
		if err != nil {
			return nil, err
		}
		kept := fleets[:0:0]
		for _, f := range fleets {
			if mb.Viable(f, slack) {
				kept = append(kept, f)
			}
		}
		res.Screened = len(fleets) - len(kept)
		logrus.Infof("prescreen kept %d of %d fleets (peak %.0f gal/day, cycle %.1fh)",
			len(kept), len(fleets), mb.PeakDailyDemand, mb.AvgCycleHours)
		fleets = kept
	}

	results, err := r.EvaluateAll(ctx, fleets)
	if err != nil {
		return nil, err
	}
	sortResults(results)
	res.Tested = len(results)
	res.BestZeroRanDry = bestZeroRanDry(results)
	res.Summary = Summarize(results)
	res.Top = results[:min(TopN, len(results))]
	return res, nil
}
