package steps

import (
	"context"
	"errors"
	"fmt"

	"github.com/cucumber/godog"

	"github.com/hddwater/bargesim/sim"
	"github.com/hddwater/bargesim/sim/optimize"
)

// searchContext holds state for fleet search scenarios
type searchContext struct {
	runner *optimize.Runner
	bounds optimize.Bounds
	search *optimize.SearchResult
	local  *optimize.LocalResult
}

func (c *searchContext) reset() {
	*c = searchContext{}
}

func (c *searchContext) aSearchOverTheTestCampaign() error {
	p, routes, err := loadTestProject()
	if err != nil {
		return err
	}
	c.runner, err = optimize.NewRunner(p.Config, routes, 4)
	return err
}

func (c *searchContext) boundsOf(tugs, transport, storage int) error {
	c.bounds = optimize.Bounds{
		Tugs:           optimize.Range{Min: 0, Max: tugs},
		SmallTransport: optimize.Range{Min: 0, Max: transport},
		SmallStorage:   optimize.Range{Min: 0, Max: storage},
	}
	return nil
}

func (c *searchContext) everyFleetIsSimulated() error {
	res, err := c.runner.BruteForce(context.Background(), optimize.BruteForceOptions{Bounds: c.bounds})
	if err != nil {
		return err
	}
	c.search = res
	return nil
}

func (c *searchContext) theLeaderboardIsSortedByScore() error {
	if c.search == nil {
		return errors.New("no search has run")
	}
	top := c.search.Top
	for i := 1; i < len(top); i++ {
		if top[i].Score < top[i-1].Score {
			return fmt.Errorf("entry %d (%.0f) scores below entry %d (%.0f)", i+1, top[i].Score, i, top[i-1].Score)
		}
	}
	return nil
}

func (c *searchContext) theLeaderboardHoldsAtMostEntries(n int) error {
	if len(c.search.Top) > n {
		return fmt.Errorf("leaderboard holds %d entries", len(c.search.Top))
	}
	if len(c.search.Top) != min(n, c.search.Tested) {
		return fmt.Errorf("leaderboard holds %d of %d results", len(c.search.Top), c.search.Tested)
	}
	return nil
}

func (c *searchContext) everyTuglessFleetRanDry() error {
	for _, f := range c.bounds.Fleets() {
		if f.Tugs > 0 {
			continue
		}
		r, err := c.runner.Evaluate(f)
		if err != nil {
			return err
		}
		if r.ZeroRanDry() {
			return fmt.Errorf("%s kept every rig supplied without a tug", f)
		}
	}
	return nil
}

func (c *searchContext) aHillClimbFrom(tugs, transport, storage int) error {
	res, err := c.runner.LocalOptimize(context.Background(), optimize.LocalOptions{
		Start:         sim.Fleet{Tugs: tugs, SmallTransport: transport, SmallStorage: storage},
		Bounds:        c.bounds,
		MaxIterations: 5,
	})
	if err != nil {
		return err
	}
	c.local = res
	return nil
}

func (c *searchContext) everyAcceptedMoveLowersTheScore() error {
	if c.local == nil {
		return errors.New("no hill climb has run")
	}
	path := c.local.Path
	for i := 1; i < len(path); i++ {
		if path[i].Score >= path[i-1].Score {
			return fmt.Errorf("move %d to %s did not lower the score", i, path[i].Fleet)
		}
	}
	if path[len(path)-1] != c.local.Optimal {
		return errors.New("optimal result is not the end of the path")
	}
	return nil
}

// InitializeSearchScenario registers the fleet search steps.
func InitializeSearchScenario(sc *godog.ScenarioContext) {
	c := &searchContext{}

	sc.Before(func(ctx context.Context, s *godog.Scenario) (context.Context, error) {
		c.reset()
		return ctx, nil
	})

	sc.Step(`^a search over the test campaign$`, c.aSearchOverTheTestCampaign)
	sc.Step(`^search bounds of up to (\d+) tugs, (\d+) small transport and (\d+) small storage barges$`, c.boundsOf)
	sc.Step(`^every fleet is simulated$`, c.everyFleetIsSimulated)
	sc.Step(`^the leaderboard is sorted by score$`, c.theLeaderboardIsSortedByScore)
	sc.Step(`^the leaderboard holds at most (\d+) entries$`, c.theLeaderboardHoldsAtMostEntries)
	sc.Step(`^every fleet without a tug ran dry$`, c.everyTuglessFleetRanDry)
	sc.Step(`^a hill climb from (\d+) tugs?, (\d+) small transport and (\d+) small storage barges?$`, c.aHillClimbFrom)
	sc.Step(`^every accepted move lowers the score$`, c.everyAcceptedMoveLowersTheScore)
}
