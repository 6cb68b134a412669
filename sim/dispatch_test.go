package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hddwater/bargesim/sim/kernel"
	"github.com/hddwater/bargesim/sim/trace"
)

func dispatchSetup(t *testing.T, cfg Config, fleet Fleet, level float64) *Simulator {
	t.Helper()
	s, err := NewSimulator(cfg, fleet, testOracle(), Options{TraceLevel: trace.TraceLevelDecisions})
	require.NoError(t, err)
	s.now = s.byName["H1"].Pilot + 10
	stationFull(t, s, "H1", kernel.Small, 2)
	s.Kernel().SetStorageLevel("H1", level)
	return s
}

func TestDispatch_ShortSupplySendsIdleTugWithFullBarges(t *testing.T) {
	// GIVEN H1 with under three hours of supply and a loaded source
	s := dispatchSetup(t, singleRigConfig(), scenarioFleet, 20000)
	tug := s.MobilizeTug("S1", "test")
	require.NotNil(t, tug)
	fullTransportAt(t, s, "S1", 2)

	// WHEN the dispatch policy runs
	s.dispatch()

	// THEN both barges go to H1 on the idle tug
	st, ok := tug.State.(EnRouteLoaded)
	require.True(t, ok, "state %s", tug.State.Status())
	assert.Equal(t, "H1", st.Crossing)
	assert.Len(t, s.Kernel().AttachedBarges(tug.ID), 2)
	assert.Equal(t, 160000.0, s.enRoute("H1"))

	// AND the decision is traced as reactive
	require.Len(t, s.trace.Dispatches, 1)
	d := s.trace.Dispatches[0]
	assert.Equal(t, TriggerReactive, d.Trigger)
	assert.GreaterOrEqual(t, d.Urgency, 400.0)
	assert.LessOrEqual(t, d.Urgency, 600.0)
	assert.Equal(t, "S1", d.Source)
	assert.Equal(t, tug.ID, d.TugID)
	assert.Equal(t, 160000.0, d.Volume)
	assert.False(t, d.Mobilized)
	require.Len(t, d.Candidates, 1)
	assert.True(t, d.Candidates[0].HasTug)
}

func TestDispatch_FullStorageNeedsNothing(t *testing.T) {
	s := dispatchSetup(t, singleRigConfig(), scenarioFleet, 160000)
	tug := s.MobilizeTug("S1", "test")
	fullTransportAt(t, s, "S1", 2)

	s.dispatch()

	assert.True(t, tug.IsIdle())
	assert.Empty(t, s.trace.Dispatches)
}

func TestDispatch_MobilizesTugWhenNoneIsIdle(t *testing.T) {
	// GIVEN full barges at S1 and no tug in service
	s := dispatchSetup(t, singleRigConfig(), scenarioFleet, 20000)
	fullTransportAt(t, s, "S1", 2)

	// WHEN the dispatch policy runs
	s.dispatch()

	// THEN a tug is mobilized and sent
	require.Len(t, s.Tugs(), 1)
	_, ok := s.Tugs()[0].State.(EnRouteLoaded)
	assert.True(t, ok)
	assert.Equal(t, 0, s.Pool().Tugs)
	require.Len(t, s.trace.Dispatches, 1)
	assert.True(t, s.trace.Dispatches[0].Mobilized)
}

func TestDispatch_RepositionsIdleTugToLoadedSource(t *testing.T) {
	// GIVEN the only idle tug sits at S2 while the full barges are at S1
	cfg := singleRigConfig()
	cfg.Sources["S2"] = SourceConfig{FlowRate: 400, HoursPerDay: 24}
	cfg.Cost.WaterAcquisition["S2"] = 0.03
	s := dispatchSetup(t, cfg, Fleet{Tugs: 1, SmallTransport: 2, SmallStorage: 2}, 20000)
	tug := s.MobilizeTug("S2", "test")
	fullTransportAt(t, s, "S1", 2)

	// WHEN the dispatch policy runs twice
	s.dispatch()
	s.dispatch()

	// THEN the tug runs light to S1 once and the empty pool adds nothing
	st, ok := tug.State.(EnRoutePickup)
	require.True(t, ok, "state %s", tug.State.Status())
	assert.Equal(t, Reposition, st.Purpose)
	assert.Equal(t, "S1", st.Target)
	assert.InDelta(t, s.now+6.0/5, st.Arrival, 1e-9)
	assert.Len(t, s.Tugs(), 1)
	assert.Empty(t, s.trace.Dispatches)
}

func TestDispatchNeeds_ProactiveWhenNextMorningFallsShort(t *testing.T) {
	// GIVEN 90,000 gal at 10:00 with seven hours of drilling left today
	s := dispatchSetup(t, singleRigConfig(), scenarioFleet, 90000)

	// WHEN needs are evaluated
	needs := s.dispatchNeeds(s.scheduleHints())

	// THEN tomorrow's projected 37,500 gal is short of a 75,000 gal day
	require.Len(t, needs, 1)
	assert.Equal(t, TriggerProactive, needs[0].trigger)
	assert.InDelta(t, 300+150*0.5, needs[0].urgency, 1e-6)
	assert.InDelta(t, 70000, needs[0].need, 1e-6)
}

func TestDispatchNeeds_ReactiveOvernightGetsBonus(t *testing.T) {
	s := dispatchSetup(t, singleRigConfig(), scenarioFleet, 20000)
	s.now = s.byName["H1"].Pilot + 20 // 20:00, rig stopped

	needs := s.dispatchNeeds(s.scheduleHints())

	// supply is counted in drilling hours, so the night does not stretch it
	require.Len(t, needs, 1)
	assert.Equal(t, TriggerReactive, needs[0].trigger)
	supply := 20000 / 7500.0
	lead := s.leadHours(s.byName["H1"])
	assert.InDelta(t, 400+200*(1-supply/lead)+25, needs[0].urgency, 1e-6)
}
