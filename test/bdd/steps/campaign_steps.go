package steps

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"runtime"

	"github.com/cucumber/godog"

	"github.com/hddwater/bargesim/sim"
	"github.com/hddwater/bargesim/sim/opsday"
	"github.com/hddwater/bargesim/sim/route"
)

// testdataDir is the repository's testdata directory.
func testdataDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "testdata")
}

func loadTestProject() (sim.Project, *route.Table, error) {
	p, err := sim.LoadProject(filepath.Join(testdataDir(), "project.yaml"))
	if err != nil {
		return sim.Project{}, nil, err
	}
	routes, err := route.Load(p.Routes)
	return p, routes, err
}

// campaignContext holds state for campaign simulation scenarios
type campaignContext struct {
	project sim.Project
	routes  *route.Table
	fleet   sim.Fleet
	report  *sim.Report
	brief   *opsday.Brief
	err     error
}

func (c *campaignContext) reset() {
	*c = campaignContext{}
}

func (c *campaignContext) theTestCampaign() error {
	p, routes, err := loadTestProject()
	if err != nil {
		return err
	}
	c.project, c.routes, c.fleet = p, routes, p.Fleet
	return nil
}

func (c *campaignContext) aFleetOf(tugs, transport, storage int) error {
	c.fleet = sim.Fleet{Tugs: tugs, SmallTransport: transport, SmallStorage: storage}
	return nil
}

func (c *campaignContext) theScheduleIsEmpty() error {
	c.project.Config.Schedule = nil
	return nil
}

func (c *campaignContext) theRigRatesAreScaledBy(mult float64) error {
	c.project.Config = c.project.Config.ScaleConsumption(mult)
	return nil
}

func (c *campaignContext) simulate(opts sim.Options) error {
	s, err := sim.NewSimulator(c.project.Config, c.fleet, c.routes, opts)
	if err != nil {
		c.err = err
		return nil
	}
	c.report = s.Run()
	return nil
}

func (c *campaignContext) theCampaignIsSimulated() error {
	return c.simulate(sim.Options{})
}

func (c *campaignContext) theCampaignIsSimulatedInOptimizationMode() error {
	return c.simulate(sim.Options{OptimizationMode: true})
}

func (c *campaignContext) requireReport() error {
	if c.err != nil {
		return fmt.Errorf("simulation failed: %w", c.err)
	}
	if c.report == nil {
		return errors.New("no simulation has run")
	}
	return nil
}

func (c *campaignContext) atLeastOneRigRunsDry() error {
	if err := c.requireReport(); err != nil {
		return err
	}
	if c.report.RanDryCount == 0 || c.report.Success {
		return errors.New("expected a ran-dry event")
	}
	return nil
}

func (c *campaignContext) theScoreIncludesThePenaltyForEveryEvent() error {
	if err := c.requireReport(); err != nil {
		return err
	}
	want := c.report.Costs.GrandTotal + c.project.Config.RanDryPenalty*float64(c.report.RanDryCount)
	if math.Abs(c.report.Score-want) > 1e-6 {
		return fmt.Errorf("score %.2f, want %.2f", c.report.Score, want)
	}
	return nil
}

func (c *campaignContext) nothingIsDelivered() error {
	if err := c.requireReport(); err != nil {
		return err
	}
	if c.report.TotalUsage != 0 || c.report.TotalFilled != 0 {
		return fmt.Errorf("expected no water moved, got usage %.0f filled %.0f", c.report.TotalUsage, c.report.TotalFilled)
	}
	return nil
}

func (c *campaignContext) demandIsUsagePlusDeficit() error {
	if err := c.requireReport(); err != nil {
		return err
	}
	r := c.report
	if math.Abs(r.TotalDemand-r.TotalUsage-r.TotalDeficit) > 1 {
		return fmt.Errorf("demand %.0f != usage %.0f + deficit %.0f", r.TotalDemand, r.TotalUsage, r.TotalDeficit)
	}
	for date, d := range r.Daily {
		if math.Abs(d.Demand-d.Usage-d.Deficit) > 1 {
			return fmt.Errorf("%s: demand %.0f != usage %.0f + deficit %.0f", date, d.Demand, d.Usage, d.Deficit)
		}
	}
	return nil
}

func (c *campaignContext) theReportHasNoAssetLogOrTimeline() error {
	if err := c.requireReport(); err != nil {
		return err
	}
	if len(c.report.AssetLog) != 0 || c.report.Timeline != nil || len(c.report.Dispatches) != 0 {
		return errors.New("optimization mode report still carries traces")
	}
	return nil
}

func (c *campaignContext) theSimulationIsRejectedWith(msg string) error {
	if c.err == nil {
		return errors.New("expected the simulation to be rejected")
	}
	want, ok := map[string]error{
		"empty schedule":    sim.ErrEmptySchedule,
		"missing rig rates": sim.ErrMissingRigRates,
	}[msg]
	if !ok {
		return fmt.Errorf("unknown rejection %q", msg)
	}
	if !errors.Is(c.err, want) {
		return fmt.Errorf("expected %v, got %v", want, c.err)
	}
	return nil
}

func (c *campaignContext) theOpsBriefFor(date string) error {
	if err := c.requireReport(); err != nil {
		return err
	}
	b, err := opsday.Extract(c.report, c.project.Config, date)
	if err != nil {
		return err
	}
	c.brief = b
	return nil
}

func (c *campaignContext) theBriefListsActiveCrossings(n int) error {
	if c.brief == nil {
		return errors.New("no brief extracted")
	}
	if len(c.brief.ActiveHDDs) != n {
		return fmt.Errorf("expected %d active crossings, got %d", n, len(c.brief.ActiveHDDs))
	}
	return nil
}

func (c *campaignContext) theBriefRaisesAnAlertTitled(title string) error {
	if c.brief == nil {
		return errors.New("no brief extracted")
	}
	for _, a := range c.brief.Alerts {
		if a.Title == title {
			return nil
		}
	}
	return fmt.Errorf("no alert titled %q in %d alerts", title, len(c.brief.Alerts))
}

// InitializeCampaignScenario registers the campaign simulation steps.
func InitializeCampaignScenario(sc *godog.ScenarioContext) {
	c := &campaignContext{}

	sc.Before(func(ctx context.Context, s *godog.Scenario) (context.Context, error) {
		c.reset()
		return ctx, nil
	})

	sc.Step(`^the test campaign$`, c.theTestCampaign)
	sc.Step(`^a fleet of (\d+) tugs?, (\d+) small transport and (\d+) small storage barges?$`, c.aFleetOf)
	sc.Step(`^the schedule is empty$`, c.theScheduleIsEmpty)
	sc.Step(`^rig consumption scaled by ([\d.]+)$`, c.theRigRatesAreScaledBy)
	sc.Step(`^the campaign is simulated$`, c.theCampaignIsSimulated)
	sc.Step(`^the campaign is simulated in optimization mode$`, c.theCampaignIsSimulatedInOptimizationMode)
	sc.Step(`^at least one rig runs dry$`, c.atLeastOneRigRunsDry)
	sc.Step(`^the score is the grand total plus the ran-dry penalty per event$`, c.theScoreIncludesThePenaltyForEveryEvent)
	sc.Step(`^no water is filled or delivered$`, c.nothingIsDelivered)
	sc.Step(`^every day's demand is its usage plus its deficit$`, c.demandIsUsagePlusDeficit)
	sc.Step(`^the report has no asset log or timeline$`, c.theReportHasNoAssetLogOrTimeline)
	sc.Step(`^the simulation is rejected with "([^"]*)"$`, c.theSimulationIsRejectedWith)
	sc.Step(`^the ops brief for "([^"]*)" is extracted$`, c.theOpsBriefFor)
	sc.Step(`^the brief lists (\d+) active crossings?$`, c.theBriefListsActiveCrossings)
	sc.Step(`^the brief raises an alert titled "([^"]*)"$`, c.theBriefRaisesAnAlertTitled)
}
